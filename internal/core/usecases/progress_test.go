// internal/core/usecases/progress_test.go
package usecases

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"autoingest/internal/core/domain"
	"autoingest/internal/core/ports"
	"autoingest/internal/platform/logx"
	"autoingest/internal/testutil"
)

func TestProgressHandle_Phases(t *testing.T) {
	rep := &recordingReporter{}
	token := domain.NewCancellationToken(context.Background())
	h := NewProgressHandle("t1", "image: alpha", token, rep, nil)

	testutil.AssertEqual(t, h.Phase(), ports.ProgressPending, "initial phase")

	h.Progress(5, "ignored while pending")
	h.Start(10)
	h.Start(20) // solo desde Pending
	h.Progress(3, "file.txt")
	h.Finish(domain.TaskStateCompleted)
	h.Finish(domain.TaskStateStopped)
	h.Progress(9, "ignored after finish")

	testutil.AssertEqual(t, h.State(), domain.TaskStateCompleted, "first finish wins")

	phases := rep.phases()
	want := []ports.ProgressPhase{
		ports.ProgressPending,
		ports.ProgressActive,
		ports.ProgressActive,
		ports.ProgressFinished,
	}
	testutil.AssertEqual(t, len(phases), len(want), "updates")
	for i := range want {
		testutil.AssertEqual(t, phases[i], want[i], "phase")
	}

	rep.mu.Lock()
	last := rep.updates[2]
	rep.mu.Unlock()
	testutil.AssertEqual(t, last.Total, 10, "total")
	testutil.AssertEqual(t, last.Done, 3, "done")
	testutil.AssertEqual(t, last.Detail, "file.txt", "detail")
}

func TestProgressHandle_CancelReachesToken(t *testing.T) {
	token := domain.NewCancellationToken(context.Background())
	h := NewProgressHandle("t1", "title", token, nil, nil)
	h.Start(0)

	h.Cancel("user request")

	testutil.AssertTrue(t, token.IsCancelled(), "token cancelled")
	testutil.AssertEqual(t, token.Reason(), "user request", "reason")
	testutil.AssertEqual(t, h.Phase(), ports.ProgressCancelling, "phase")

	h.Finish(domain.TaskStateStopped)
	h.Cancel("again")
	testutil.AssertEqual(t, h.Phase(), ports.ProgressFinished, "cancel after finish ignored")
}

type panickingReporter struct{}

func (panickingReporter) Report(ports.ProgressUpdate) { panic("presenter broke") }

func TestProgressHandle_ReporterPanicIsContained(t *testing.T) {
	var buf bytes.Buffer
	token := domain.NewCancellationToken(context.Background())
	h := NewProgressHandle("t1", "title", token, panickingReporter{}, logx.NewWithWriter(&buf, logx.LevelDebug))
	h.Start(1)
	h.Progress(1, "")
	h.Finish(domain.TaskStateCompleted)

	testutil.AssertEqual(t, h.State(), domain.TaskStateCompleted, "state")
	testutil.AssertContains(t, buf.String(), "presenter broke", "panic value logged")
	testutil.AssertEqual(t, strings.Count(buf.String(), "presenter broke"), 1, "logged once")
}
