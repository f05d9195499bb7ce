// internal/platform/monitor/disk_monitor_test.go
package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"autoingest/internal/core/ports"
	"autoingest/internal/platform/logx"
	"autoingest/internal/testutil"
)

// scriptedUsage retorna valores configurables por el test.
type scriptedUsage struct {
	mu   sync.Mutex
	free uint64
	err  error
	hits int
}

func (s *scriptedUsage) set(free uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.free, s.err = free, err
}

func (s *scriptedUsage) usage(string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits++
	return s.free, s.err
}

func (s *scriptedUsage) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits
}

type countingInbox struct {
	mu    sync.Mutex
	count int
}

func (c *countingInbox) PostMessage(sev ports.Severity, module, title, details string) ports.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return ports.Message{ID: uint64(c.count), Severity: sev, Module: module, Title: title}
}

func newTestMonitor(u *scriptedUsage, inbox ports.MessagePoster) *DiskMonitor {
	return NewDiskMonitor(Options{
		Path:      "/work",
		Threshold: 100,
		Interval:  time.Hour,
		Usage:     u.usage,
		Inbox:     inbox,
		Logger:    logx.NewNop(),
	})
}

func TestDiskMonitor_UnknownNeverBlocks(t *testing.T) {
	u := &scriptedUsage{err: errors.New("stat failed")}
	m := newTestMonitor(u, nil)

	_, known := m.FreeSpace()
	testutil.AssertFalse(t, known, "free space should be unknown")
	testutil.AssertFalse(t, m.BelowThreshold(), "unknown is not below threshold")
}

func TestDiskMonitor_ThresholdTransitions(t *testing.T) {
	u := &scriptedUsage{free: 500}
	inbox := &countingInbox{}
	m := newTestMonitor(u, inbox)

	free, known := m.FreeSpace()
	testutil.AssertTrue(t, known, "known after initial sample")
	testutil.AssertEqual(t, free, uint64(500), "initial free space")
	testutil.AssertFalse(t, m.BelowThreshold(), "above threshold")

	u.set(50, nil)
	m.Sample()
	m.Sample()
	testutil.AssertTrue(t, m.BelowThreshold(), "below threshold")
	testutil.AssertEqual(t, inbox.count, 1, "one warning per crossing")

	u.set(0, errors.New("volume gone"))
	m.Sample()
	testutil.AssertFalse(t, m.BelowThreshold(), "unknown resets backpressure")

	u.set(10, nil)
	m.Sample()
	testutil.AssertEqual(t, inbox.count, 2, "second crossing warns again")
}

func TestDiskMonitor_StartSamplesPeriodically(t *testing.T) {
	u := &scriptedUsage{free: 500}
	m := NewDiskMonitor(Options{
		Threshold: 100,
		Interval:  5 * time.Millisecond,
		Usage:     u.usage,
		Logger:    logx.NewNop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	testutil.Eventually(t, time.Second, func() bool { return u.calls() >= 3 }, "periodic sampling")
	m.Stop()
}
