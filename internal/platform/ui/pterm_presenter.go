// internal/platform/ui/pterm_presenter.go
package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"autoingest/internal/core/ports"
)

// PTermPresenter implementa Presenter usando la biblioteca pterm
// para renderizar spinners, colores y símbolos en la terminal.
type PTermPresenter struct {
	mu sync.Mutex

	startTime time.Time

	// Spinners activos por task id
	spinners map[string]*pterm.SpinnerPrinter
}

// NewPTermPresenter crea una nueva instancia del presenter con pterm
func NewPTermPresenter() *PTermPresenter {
	return &PTermPresenter{
		spinners: make(map[string]*pterm.SpinnerPrinter),
	}
}

// Start muestra el header del run
func (p *PTermPresenter) Start(info RunInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()

	pterm.DefaultHeader.
		WithBackgroundStyle(pterm.NewStyle(pterm.BgCyan)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Println("autoingest - Ingest Pipeline")

	pterm.Println()

	panel := pterm.DefaultBox.
		WithTitle("Ingest Configuration").
		WithTitleTopCenter().
		WithRightPadding(4).
		WithLeftPadding(4).
		WithBoxStyle(pterm.NewStyle(pterm.FgCyan))

	content := fmt.Sprintf("%s Images: %s\n", IconImage, pterm.Cyan(strings.Join(info.Images, ", ")))
	content += fmt.Sprintf("%s Modules: %s\n", IconModules, strings.Join(info.Modules, ", "))
	content += fmt.Sprintf("%s File workers: %d\n", IconWorkers, info.FileWorkers)
	content += fmt.Sprintf("%s Min free space: %s\n", IconDisk, formatBytes(info.MinFree))
	content += fmt.Sprintf("   Unallocated: %s", boolToString(info.Unallocated))

	panel.Println(content)
	pterm.Println(pterm.LightBlue(SeparatorHeavy))
	pterm.Println()
}

// Report actualiza el spinner de la tarea
func (p *PTermPresenter) Report(u ports.ProgressUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status := StatusOf(u)
	text := fmt.Sprintf("  %s %s", status.Symbol(), progressText(u))

	switch u.Phase {
	case ports.ProgressPending:
		status.Style().Println(text + " (pending...)")

	case ports.ProgressActive, ports.ProgressCancelling:
		if spinner, exists := p.spinners[u.TaskID]; exists {
			spinner.UpdateText(text)
			return
		}
		spinner, err := pterm.DefaultSpinner.
			WithStyle(pterm.NewStyle(pterm.FgCyan)).
			WithSequence("⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷").
			WithRemoveWhenDone(true).
			Start(text)
		if err == nil {
			p.spinners[u.TaskID] = spinner
		}

	case ports.ProgressFinished:
		if spinner, exists := p.spinners[u.TaskID]; exists {
			_ = spinner.Stop()
			delete(p.spinners, u.TaskID)
		}
		line := fmt.Sprintf("  %s %s (%s, %s)", status.Symbol(), progressText(u), status, formatDuration(u.Elapsed))
		status.Style().Println(line)
	}
}

// Message muestra un mensaje del inbox con el prefijo según severidad
func (p *PTermPresenter) Message(msg ports.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	text := fmt.Sprintf("[%s] %s", msg.Module, msg.Title)
	if msg.Details != "" {
		text += ": " + msg.Details
	}

	switch msg.Severity {
	case ports.SeverityError:
		pterm.Error.Println(text)
	case ports.SeverityWarning:
		pterm.Warning.Println(text)
	case ports.SeverityData:
		pterm.Success.Println(text)
	default:
		pterm.Info.Println(text)
	}
}

// Finish finaliza la presentación con estadísticas finales
func (p *PTermPresenter) Finish(stats RunStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopSpinners()

	pterm.Println()
	pterm.Println(pterm.LightBlue(SeparatorHeavy))
	pterm.Println()

	pterm.DefaultHeader.
		WithBackgroundStyle(pterm.NewStyle(pterm.BgGreen)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Println("Ingest Completed")

	pterm.Println()

	panel := pterm.DefaultBox.
		WithTitle("Ingest Statistics").
		WithTitleTopCenter().
		WithRightPadding(4).
		WithLeftPadding(4).
		WithBoxStyle(pterm.NewStyle(pterm.FgGreen))

	content := fmt.Sprintf("%s Total Duration: %s\n", IconTime, pterm.Green(formatDuration(stats.Duration)))
	content += fmt.Sprintf("   Files processed: %s\n", pterm.Cyan(fmt.Sprintf("%d", stats.FilesProcessed)))
	for _, state := range sortedKeys(stats.TasksByState) {
		content += fmt.Sprintf("   Tasks %s: %d\n", state, stats.TasksByState[state])
	}
	content += fmt.Sprintf("   Inbox messages: %d", stats.Messages)
	panel.Println(content)

	if len(stats.FindingsByKind) > 0 {
		pterm.Println()
		pterm.DefaultSection.WithLevel(2).Println(IconFindings + " Findings by Kind")

		tableData := pterm.TableData{{"Kind", "Count"}}
		for _, kind := range sortedKeys(stats.FindingsByKind) {
			tableData = append(tableData, []string{kind, fmt.Sprintf("%d", stats.FindingsByKind[kind])})
		}
		_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(tableData).Render()
	}

	pterm.Println()
}

// Close limpia recursos del presenter
func (p *PTermPresenter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopSpinners()
	return nil
}

func (p *PTermPresenter) stopSpinners() {
	for id, spinner := range p.spinners {
		_ = spinner.Stop()
		delete(p.spinners, id)
	}
}

// boolToString convierte booleano a string visual
func boolToString(b bool) string {
	if b {
		return pterm.Green("ON")
	}
	return pterm.Gray("OFF")
}
