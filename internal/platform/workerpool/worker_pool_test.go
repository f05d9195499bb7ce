// internal/platform/workerpool/worker_pool_test.go
package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"autoingest/internal/platform/logx"
	"autoingest/internal/testutil"
)

// funcTask adapta una función a Task.
type funcTask struct {
	name string
	fn   func(ctx context.Context) error
}

func (f funcTask) Execute(ctx context.Context) error { return f.fn(ctx) }
func (f funcTask) Name() string                      { return f.name }

func newTestPool(workers int, onResult func(TaskResult)) *WorkerPool {
	return NewWorkerPool(WorkerPoolConfig{
		Workers:  workers,
		Logger:   logx.NewNop(),
		OnResult: onResult,
	})
}

func TestWorkerPool_BoundsConcurrency(t *testing.T) {
	pool := newTestPool(3, nil)
	defer pool.Stop()

	var running, peak atomic.Int32
	for i := 0; i < 12; i++ {
		err := pool.Submit(context.Background(), funcTask{name: "file", fn: func(ctx context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			running.Add(-1)
			return nil
		}})
		testutil.AssertNoError(t, err, "submit")
	}
	pool.Stop()

	testutil.AssertTrue(t, peak.Load() <= 3, "peak concurrency within pool size")
	testutil.AssertEqual(t, pool.Stats().Completed, 12, "completed tasks")
}

func TestWorkerPool_SubmitBlocksUntilSlotFree(t *testing.T) {
	pool := newTestPool(1, nil)
	defer pool.Stop()

	release := make(chan struct{})
	err := pool.Submit(context.Background(), funcTask{name: "busy", fn: func(ctx context.Context) error {
		<-release
		return nil
	}})
	testutil.AssertNoError(t, err, "first submit")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = pool.Submit(ctx, funcTask{name: "blocked", fn: func(ctx context.Context) error { return nil }})
	testutil.AssertErrorIs(t, err, context.DeadlineExceeded, "submit while full")

	close(release)
}

func TestWorkerPool_RecoversPanics(t *testing.T) {
	var (
		mu      sync.Mutex
		results []TaskResult
	)
	pool := newTestPool(2, func(r TaskResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	})
	defer pool.Stop()

	_ = pool.Submit(context.Background(), funcTask{name: "panics", fn: func(ctx context.Context) error {
		panic("boom")
	}})
	_ = pool.Submit(context.Background(), funcTask{name: "fails", fn: func(ctx context.Context) error {
		return errors.New("failed")
	}})
	pool.Stop()

	testutil.AssertEqual(t, len(results), 2, "results delivered")
	for _, r := range results {
		testutil.AssertError(t, r.Error, r.Task.Name())
	}
	testutil.AssertEqual(t, pool.Stats().Failed, 2, "failed tasks")
}

func TestWorkerPool_StopRejectsSubmissions(t *testing.T) {
	pool := newTestPool(2, nil)
	pool.Stop()
	pool.Stop()

	err := pool.Submit(context.Background(), funcTask{name: "late", fn: func(ctx context.Context) error { return nil }})
	testutil.AssertErrorIs(t, err, ErrPoolStopped, "submit after stop")
}
