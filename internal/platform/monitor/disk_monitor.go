// internal/platform/monitor/disk_monitor.go
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/disk"

	"autoingest/internal/core/ports"
	"autoingest/internal/platform/logx"
)

// DefaultThreshold espacio libre mínimo para admitir nuevas tareas (1 GiB).
const DefaultThreshold uint64 = 1 << 30

// DefaultInterval período de muestreo.
const DefaultInterval = 60 * time.Second

// UsageFunc retorna los bytes libres del volumen que contiene path.
type UsageFunc func(path string) (uint64, error)

// gopsutilUsage consulta el volumen con gopsutil.
func gopsutilUsage(path string) (uint64, error) {
	stat, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return stat.Free, nil
}

// DiskMonitor muestrea el espacio libre del directorio de trabajo. Nunca
// cancela trabajo en curso: solo expone la señal de backpressure.
type DiskMonitor struct {
	path      string
	threshold uint64
	interval  time.Duration
	usage     UsageFunc
	inbox     ports.MessagePoster
	logger    logx.Logger

	mu       sync.RWMutex
	free     uint64
	known    bool
	low      bool
	sampled  time.Time
	stopChan chan struct{}
	stopOnce sync.Once
	started  bool
}

// Options configura el monitor.
type Options struct {
	Path      string
	Threshold uint64
	Interval  time.Duration
	Usage     UsageFunc
	Inbox     ports.MessagePoster
	Logger    logx.Logger
}

// NewDiskMonitor crea el monitor y toma la primera muestra.
func NewDiskMonitor(opts Options) *DiskMonitor {
	if opts.Path == "" {
		opts.Path = "."
	}
	if opts.Threshold == 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Usage == nil {
		opts.Usage = gopsutilUsage
	}
	if opts.Logger == nil {
		opts.Logger = logx.New()
	}

	m := &DiskMonitor{
		path:      opts.Path,
		threshold: opts.Threshold,
		interval:  opts.Interval,
		usage:     opts.Usage,
		inbox:     opts.Inbox,
		logger:    opts.Logger.With("component", "disk-monitor", "path", opts.Path),
		stopChan:  make(chan struct{}),
	}

	// Muestra inicial
	m.Sample()

	return m
}

// Start inicia el muestreo periódico hasta Stop o fin de ctx.
func (m *DiskMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	go m.monitorLoop(ctx)
}

// Stop detiene el muestreo.
func (m *DiskMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *DiskMonitor) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sample()
		case <-m.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Sample consulta el volumen y actualiza el estado.
func (m *DiskMonitor) Sample() {
	free, err := m.usage(m.path)

	m.mu.Lock()
	m.sampled = time.Now()
	if err != nil {
		wasKnown := m.known
		m.known = false
		m.low = false
		m.mu.Unlock()
		if wasKnown {
			m.logger.Warn("free space unknown", "error", err.Error())
		}
		return
	}

	m.free = free
	m.known = true
	wasLow := m.low
	m.low = free < m.threshold
	nowLow := m.low
	m.mu.Unlock()

	if nowLow && !wasLow {
		m.logger.Warn("free space below threshold", "free", free, "threshold", m.threshold)
		if m.inbox != nil {
			m.inbox.PostMessage(ports.SeverityWarning, "disk-monitor",
				"Low disk space",
				fmt.Sprintf("%s has %d bytes free (threshold %d); new data source tasks are deferred", m.path, free, m.threshold))
		}
	} else if !nowLow && wasLow {
		m.logger.Info("free space recovered", "free", free)
	}
}

// FreeSpace implementa ports.ResourceMonitor.
func (m *DiskMonitor) FreeSpace() (uint64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.free, m.known
}

// BelowThreshold es false cuando el espacio es desconocido.
func (m *DiskMonitor) BelowThreshold() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.known && m.low
}

// Interval retorna el período de muestreo.
func (m *DiskMonitor) Interval() time.Duration {
	return m.interval
}

// Threshold retorna el umbral configurado.
func (m *DiskMonitor) Threshold() uint64 {
	return m.threshold
}
