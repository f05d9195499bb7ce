// internal/core/usecases/mocks_test.go
package usecases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
	"autoingest/internal/platform/eventbus"
	"autoingest/internal/platform/logx"
	"autoingest/internal/platform/registry"
)

// callLog registra en orden las llamadas a hooks de todos los módulos fake.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *callLog) count(prefix string) int {
	n := 0
	for _, c := range l.snapshot() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// fakeDSModule es un módulo data-source-tier configurable.
type fakeDSModule struct {
	name    string
	log     *callLog
	initErr error
	process func(pc *ports.PipelineContext, ds *domain.DataSource, token *domain.CancellationToken) error

	active    *atomic.Int32
	maxActive *atomic.Int32
}

func (m *fakeDSModule) Name() string { return m.name }

func (m *fakeDSModule) Init(ports.InitContext) error {
	m.log.add("init %s", m.name)
	return m.initErr
}

func (m *fakeDSModule) Process(pc *ports.PipelineContext, ds *domain.DataSource, token *domain.CancellationToken) error {
	m.log.add("process %s %s", m.name, ds.ID)
	if m.active != nil {
		n := m.active.Add(1)
		for {
			cur := m.maxActive.Load()
			if n <= cur || m.maxActive.CompareAndSwap(cur, n) {
				break
			}
		}
		defer m.active.Add(-1)
	}
	if m.process != nil {
		return m.process(pc, ds, token)
	}
	return nil
}

func (m *fakeDSModule) Complete() error {
	m.log.add("complete %s", m.name)
	return nil
}

func (m *fakeDSModule) Stop() error {
	m.log.add("stop %s", m.name)
	return nil
}

// fakeFileModule es un módulo file-tier configurable.
type fakeFileModule struct {
	name    string
	log     *callLog
	initErr error
	process func(pc *ports.PipelineContext, f *domain.File) (domain.ModuleResult, error)

	files atomic.Int32
}

func (m *fakeFileModule) Name() string { return m.name }

func (m *fakeFileModule) Init(ports.InitContext) error {
	m.log.add("init %s", m.name)
	return m.initErr
}

func (m *fakeFileModule) Process(pc *ports.PipelineContext, f *domain.File, _ *domain.CancellationToken) (domain.ModuleResult, error) {
	m.files.Add(1)
	if m.process != nil {
		return m.process(pc, f)
	}
	return domain.ModuleResultOK, nil
}

func (m *fakeFileModule) Complete() error {
	m.log.add("complete %s", m.name)
	return nil
}

func (m *fakeFileModule) Stop() error {
	m.log.add("stop %s", m.name)
	return nil
}

// notifyingFileModule escribe un finding por archivo y notifica en batches,
// como lo hace un módulo file-tier real.
type notifyingFileModule struct {
	*fakeFileModule
	kind     domain.FindingKind
	services ports.Services
	notifier *eventbus.DataEventNotifier
}

func (m *notifyingFileModule) Init(ic ports.InitContext) error {
	m.services = ic.Services
	m.notifier = eventbus.NotifierFor(ic.Services, m.name, m.kind)
	return m.fakeFileModule.Init(ic)
}

func (m *notifyingFileModule) Process(_ *ports.PipelineContext, f *domain.File, _ *domain.CancellationToken) (domain.ModuleResult, error) {
	m.files.Add(1)
	if _, err := m.services.Sink().NewFinding(f, m.kind); err != nil {
		return domain.ModuleResultError, err
	}
	m.notifier.Record(1)
	return domain.ModuleResultOK, nil
}

func (m *notifyingFileModule) Complete() error {
	m.notifier.Flush()
	return m.fakeFileModule.Complete()
}

// fakeEnumerator entrega una lista fija de archivos, o la de cada data
// source si byDS la define.
type fakeEnumerator struct {
	files []*domain.File
	byDS  map[string][]*domain.File
	err   error
}

func (e *fakeEnumerator) FindFiles(ctx context.Context, ds *domain.DataSource, _, _ string) (<-chan *domain.File, <-chan error) {
	return e.AllFiles(ctx, ds)
}

func (e *fakeEnumerator) AllFiles(ctx context.Context, ds *domain.DataSource) (<-chan *domain.File, <-chan error) {
	files := e.files
	if list, ok := e.byDS[ds.ID]; ok {
		files = list
	}
	out := make(chan *domain.File)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(out)
		for _, f := range files {
			select {
			case out <- f:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if e.err != nil {
			errs <- e.err
		}
	}()
	return out, errs
}

func makeFiles(ds *domain.DataSource, n int) []*domain.File {
	files := make([]*domain.File, 0, n)
	for i := 0; i < n; i++ {
		files = append(files, domain.NewFile(fmt.Sprintf("%s-%d", ds.ID, i), ds.ID, "/docs",
			fmt.Sprintf("file%03d.txt", i), 4, domain.FileKindRegular, stringOpener("data")))
	}
	return files
}

func stringOpener(s string) domain.Opener {
	return func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(s)), nil }
}

// memorySink cuenta findings por kind.
type memorySink struct {
	mu     sync.Mutex
	nextID int64
	counts map[domain.FindingKind]int
	fail   error
}

func newMemorySink() *memorySink {
	return &memorySink{counts: make(map[domain.FindingKind]int)}
}

func (s *memorySink) NewFinding(_ domain.Content, kind domain.FindingKind) (ports.FindingHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return nil, s.fail
	}
	s.nextID++
	s.counts[kind]++
	return memoryHandle(s.nextID), nil
}

func (s *memorySink) Close() error { return nil }

func (s *memorySink) CountByKind() (map[domain.FindingKind]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.FindingKind]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out, nil
}

type memoryHandle int64

func (h memoryHandle) ID() int64                             { return int64(h) }
func (h memoryHandle) AddAttributes([]domain.Attribute) error { return nil }

// recordingPublisher guarda los eventos publicados.
type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.Event
}

func (p *recordingPublisher) Publish(ev ports.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) moduleEvents(typ ports.ModuleEventType) []ports.ModuleEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []ports.ModuleEvent
	for _, ev := range p.events {
		if me, ok := ev.(ports.ModuleEvent); ok && me.Type == typ {
			out = append(out, me)
		}
	}
	return out
}

func (p *recordingPublisher) ingestEvents(dsID string) []ports.IngestEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []ports.IngestEventType
	for _, ev := range p.events {
		if ie, ok := ev.(ports.IngestEvent); ok && ie.DataSource == dsID {
			out = append(out, ie.Type)
		}
	}
	return out
}

func (p *recordingPublisher) dataCounts() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []int
	for _, ev := range p.events {
		if de, ok := ev.(ports.ModuleDataEvent); ok {
			out = append(out, de.Count)
		}
	}
	return out
}

// fakeInbox registra los mensajes publicados.
type fakeInbox struct {
	mu       sync.Mutex
	messages []ports.Message
}

func (f *fakeInbox) PostMessage(sev ports.Severity, module, title, details string) ports.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := ports.Message{ID: uint64(len(f.messages) + 1), Severity: sev, Module: module, Title: title, Details: details, Timestamp: time.Now()}
	f.messages = append(f.messages, msg)
	return msg
}

func (f *fakeInbox) count(sev ports.Severity) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.messages {
		if m.Severity == sev {
			n++
		}
	}
	return n
}

// fakeMonitor expone una señal de espacio libre controlable.
type fakeMonitor struct {
	known atomic.Bool
	below atomic.Bool
}

func (m *fakeMonitor) FreeSpace() (uint64, bool) {
	if !m.known.Load() {
		return 0, false
	}
	if m.below.Load() {
		return 1 << 20, true
	}
	return 1 << 40, true
}

func (m *fakeMonitor) BelowThreshold() bool {
	return m.known.Load() && m.below.Load()
}

// recordingReporter guarda las actualizaciones de progreso.
type recordingReporter struct {
	mu      sync.Mutex
	updates []ports.ProgressUpdate
}

func (r *recordingReporter) Report(u ports.ProgressUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recordingReporter) phases() []ports.ProgressPhase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.ProgressPhase, 0, len(r.updates))
	for _, u := range r.updates {
		out = append(out, u.Phase)
	}
	return out
}

// harness agrupa un scheduler con sus fakes.
type harness struct {
	registry *registry.ModuleRegistry
	bus      *recordingPublisher
	inbox    *fakeInbox
	sink     *memorySink
	files    *fakeEnumerator
	monitor  *fakeMonitor
	log      *callLog
	opts     SchedulerOptions
}

func newHarness() *harness {
	h := &harness{
		registry: registry.NewModuleRegistry(logx.NewNop()),
		bus:      &recordingPublisher{},
		inbox:    &fakeInbox{},
		sink:     newMemorySink(),
		files:    &fakeEnumerator{},
		monitor:  &fakeMonitor{},
		log:      &callLog{},
	}
	h.opts = SchedulerOptions{
		Registry:      h.registry,
		Files:         h.files,
		Sink:          h.sink,
		Bus:           h.bus,
		Inbox:         h.inbox,
		Monitor:       h.monitor,
		Logger:        logx.NewNop(),
		FileWorkers:   4,
		AdmissionPoll: 5 * time.Millisecond,
	}
	return h
}

func (h *harness) register(t *testing.T, m ports.Module, tier domain.Tier) {
	t.Helper()
	desc := ports.ModuleDescriptor{Name: m.Name(), Version: "1.0", Tier: tier}
	if err := h.registry.Register(func() (ports.Module, error) { return m, nil }, desc); err != nil {
		t.Fatalf("register %s: %v", m.Name(), err)
	}
}

func (h *harness) dsModule(t *testing.T, name string) *fakeDSModule {
	t.Helper()
	m := &fakeDSModule{name: name, log: h.log}
	h.register(t, m, domain.TierDataSource)
	return m
}

func (h *harness) fileModule(t *testing.T, name string) *fakeFileModule {
	t.Helper()
	m := &fakeFileModule{name: name, log: h.log}
	h.register(t, m, domain.TierFile)
	return m
}

func (h *harness) start(t *testing.T) *Scheduler {
	t.Helper()
	s := NewScheduler(h.opts)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func waitIdle(t *testing.T, s *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("scheduler did not become idle: %v", err)
	}
}

// untilCancelled bloquea hasta que el token se cancele.
func untilCancelled(started chan<- struct{}) func(*ports.PipelineContext, *domain.DataSource, *domain.CancellationToken) error {
	return func(_ *ports.PipelineContext, _ *domain.DataSource, token *domain.CancellationToken) error {
		if started != nil {
			close(started)
		}
		<-token.Done()
		return nil
	}
}

var errBoom = errors.New("boom")
