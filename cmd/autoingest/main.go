// cmd/autoingest/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"autoingest/internal/adapters/blackboard"
	"autoingest/internal/adapters/fsimage"
	"autoingest/internal/adapters/output"
	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
	"autoingest/internal/core/usecases"
	"autoingest/internal/modules/exif"
	"autoingest/internal/modules/recentactivity"
	"autoingest/internal/platform/config"
	"autoingest/internal/platform/errors"
	"autoingest/internal/platform/eventbus"
	"autoingest/internal/platform/inbox"
	"autoingest/internal/platform/logx"
	"autoingest/internal/platform/metrics"
	"autoingest/internal/platform/monitor"
	"autoingest/internal/platform/registry"
	"autoingest/internal/platform/settings"
	"autoingest/internal/platform/ui"
)

var (
	// Rellenables con -ldflags en build
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// sink es lo que main necesita del blackboard.
type sink interface {
	ports.ResultSink
	ports.SinkStats
}

func main() {
	os.Exit(run())
}

func run() int {
	// 1. Config: defaults -> YAML -> ENV -> flags
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: configuration load failed: %v\n", err)
		fmt.Fprintln(os.Stderr, "Try: autoingest -h for help")
		return 2
	}
	if cfg.PrintHelp {
		config.PrintHelp()
	}
	if cfg.PrintVersion {
		config.PrintVersion(version, commit, date)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Usage: autoingest [options] <image-dir>...")
		return 2
	}

	// 2. Logger compartido
	logger := logx.New()
	logger.SetLevel(logx.ParseLevel(cfg.LogLevel))
	logger.Info("autoingest starting",
		"version", version,
		"commit", commit,
		"images", len(cfg.Images),
		"workers", cfg.FileWorkers,
	)

	// 3. Context y señales
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		logger.Err(err, "phase", "work-dir")
		return 1
	}

	// 4. Métricas
	mp, shutdownMetrics, err := metrics.NewMeterProvider(ctx, "autoingest", cfg.OTLPEndpoint)
	if err != nil {
		logger.Err(err, "phase", "metrics")
		return 1
	}
	ingestMetrics, err := metrics.NewIngestMetrics(mp)
	if err != nil {
		logger.Warn("metrics disabled", "error", err.Error())
		ingestMetrics = metrics.NewNoop()
	}

	// 5. Inbox, bus y monitor
	box := inbox.New(logger)
	bus := eventbus.New(eventbus.Options{Logger: logger, Inbox: box, Metrics: ingestMetrics})
	diskMonitor := monitor.NewDiskMonitor(monitor.Options{
		Path:      cfg.WorkDir,
		Threshold: cfg.FreeSpaceThreshold,
		Interval:  cfg.MonitorInterval,
		Inbox:     box,
		Logger:    logger,
	})
	diskMonitor.Start(ctx)

	// 6. Blackboard
	results, err := openSink(cfg.DatabasePath, logger)
	if err != nil {
		logger.Err(err, "phase", "blackboard")
		return 1
	}

	// 7. Settings y selección de módulos
	store, err := settings.NewYAMLStore(cfg.SettingsPath)
	if err != nil {
		logger.Err(err, "phase", "settings")
		return 1
	}
	selection := settings.NewSelectionStore(store, cfg.SelectionContext)

	reg := registry.NewModuleRegistry(logger)
	for _, register := range []func(*registry.ModuleRegistry) error{
		recentactivity.Register,
		exif.Register,
	} {
		if err := register(reg); err != nil {
			logger.Err(err, "phase", "registry")
			return 1
		}
	}

	modules, unalloc := resolveSelection(cfg, reg.Names(), selection)

	// 8. Presentación
	presenter := ui.New(progressMode(cfg.Progress), cfg.Quiet)
	box.Subscribe(presenter.Message)

	runID := "ingest-" + uuid.NewString()[:8]
	started := time.Now()
	if cfg.ReportDir != "" {
		journal, err := output.NewEventJournal(cfg.ReportDir, runID, started, logger)
		if err != nil {
			logger.Warn("event journal disabled", "error", err.Error())
		} else {
			bus.Subscribe("event-journal", journal)
			defer journal.Close()
		}
	}

	// 9. Scheduler
	sched := usecases.NewScheduler(usecases.SchedulerOptions{
		Registry:           reg,
		Files:              fsimage.New(logger),
		Sink:               results,
		Bus:                bus,
		Inbox:              box,
		Monitor:            diskMonitor,
		Settings:           store,
		Reporter:           presenter,
		Metrics:            ingestMetrics,
		Logger:             logger,
		FileWorkers:        cfg.FileWorkers,
		DataEventBatch:     cfg.DataEventBatch,
		ProcessUnallocated: unalloc,
	})

	presenter.Start(ui.RunInfo{
		Images:      cfg.Images,
		Modules:     modules,
		FileWorkers: cfg.FileWorkers,
		MinFree:     cfg.FreeSpaceThreshold,
		Unallocated: unalloc,
	})

	report := output.NewReport(runID, modules, started)
	for _, img := range cfg.Images {
		ds := domain.NewDataSource(uuid.NewString(), filepath.Base(img), img)
		report.AddDataSource(ds)
		if err := sched.Submit(ds, modules); err != nil {
			logger.Err(err, "phase", "submit", "image", img)
			box.PostMessage(ports.SeverityError, "", "Failed to schedule "+ds.Name, err.Error())
		}
	}

	// 10. Esperar fin, señal o timeout
	cancelled := waitForIngest(ctx, cfg.Timeout, sched, logger)

	if err := sched.Close(); err != nil {
		logger.Warn("scheduler close failed", "error", err.Error())
	}

	// 11. Resumen
	stats := sched.Stats()
	pool := sched.PoolStats()
	logger.Info("file pool drained", "workers", pool.Workers, "files_ok", pool.Completed, "files_with_errors", pool.Failed)
	report.SetTasks(stats.DataSourceTasks, stats.FileTasks, stats.FileModules, stats.FilesSkipped)
	if byKind, err := results.CountByKind(); err != nil {
		logger.Warn("failed to count findings", "error", err.Error())
	} else {
		report.SetFindings(byKind)
	}
	for _, msg := range box.Messages() {
		report.AddMessage(msg)
	}
	report.Finalize(time.Now(), cancelled)

	presenter.Finish(runStats(report, len(box.Messages())))
	_ = presenter.Close()

	if cfg.Progress != "pretty" && !cfg.Quiet {
		if err := output.OutputTable(os.Stdout, report); err != nil {
			logger.Warn("failed to print summary", "error", err.Error())
		}
	}
	if cfg.ReportDir != "" {
		if path, err := output.OutputJSON(cfg.ReportDir, report); err != nil {
			logger.Err(err, "phase", "report")
		} else {
			logger.Info("report written", "file", path)
		}
	}

	if !cancelled {
		if err := selection.Save(reg.Names(), modules, unalloc); err != nil {
			logger.Warn("failed to persist module selection", "error", err.Error())
		}
	}

	// 12. Cierre de recursos en paralelo
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	var g errgroup.Group
	g.Go(results.Close)
	g.Go(func() error {
		diskMonitor.Stop()
		return nil
	})
	g.Go(func() error { return shutdownMetrics(shutdownCtx) })
	if err := g.Wait(); err != nil {
		logger.Warn("shutdown error", "error", err.Error())
	}

	logger.Info("autoingest finished",
		"elapsed", report.Duration,
		"findings", report.TotalFindings(),
		"files", report.FilesProcessed(),
		"cancelled", cancelled,
	)

	if cancelled {
		return 130
	}
	if box.CountBySeverity(ports.SeverityError) > 0 {
		return 1
	}
	return 0
}

// openSink abre el blackboard; ":memory:" usa el sink en memoria.
func openSink(path string, logger logx.Logger) (sink, error) {
	if path == ":memory:" {
		return blackboard.NewMemorySink(), nil
	}
	db, err := blackboard.OpenSQLite(path, logger)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// resolveSelection aplica la precedencia flag/config > selección persistida >
// todos los módulos registrados.
func resolveSelection(cfg config.Config, all []string, selection *settings.SelectionStore) ([]string, bool) {
	persisted, persistedUnalloc := selection.Load(all)

	modules := all
	switch {
	case len(cfg.Modules) > 0:
		modules = cfg.Modules
	case selection.HasSelection():
		modules = persisted
	}

	unalloc := cfg.ProcessUnallocated
	if !cfg.UnallocatedSet && selection.HasSelection() {
		unalloc = persistedUnalloc
	}
	return modules, unalloc
}

// progressMode degrada "pretty" a "text" cuando stdout no es una terminal.
func progressMode(mode string) string {
	if mode == "pretty" && !term.IsTerminal(int(os.Stdout.Fd())) {
		return "text"
	}
	return mode
}

// waitForIngest bloquea hasta que el scheduler queda ocioso. Una señal o el
// timeout cancelan todas las tareas. Retorna true si hubo cancelación.
func waitForIngest(ctx context.Context, timeout time.Duration, sched *usecases.Scheduler, logger logx.Logger) bool {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := sched.Wait(ctx); err == nil {
		return false
	}

	reason := "interrupted"
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = "timeout"
	}
	n := sched.CancelAll(reason)
	logger.Warn("ingest cancelled", "reason", reason, "tasks", n)

	if err := sched.Wait(context.Background()); err != nil {
		logger.Warn("wait after cancel failed", "error", err.Error())
	}
	return true
}

func runStats(r *output.Report, messages int) ui.RunStats {
	tasks := make(map[string]int)
	for state, n := range r.Tasks.DataSource {
		tasks[state] += n
	}
	for state, n := range r.Tasks.FileModules {
		tasks[state] += n
	}
	return ui.RunStats{
		Duration:       r.FinishedAt.Sub(r.StartedAt),
		TasksByState:   tasks,
		FindingsByKind: r.Findings,
		FilesProcessed: r.FilesProcessed(),
		Messages:       messages,
	}
}
