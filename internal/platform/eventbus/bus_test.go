// internal/platform/eventbus/bus_test.go
package eventbus

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"autoingest/internal/core/ports"
	"autoingest/internal/platform/logx"
	"autoingest/internal/testutil"
)

func newTestBus(buf *bytes.Buffer, inbox ports.MessagePoster) *Bus {
	return New(Options{
		Logger: logx.NewWithWriter(buf, logx.LevelDebug),
		Inbox:  inbox,
	})
}

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	var buf bytes.Buffer
	bus := newTestBus(&buf, nil)

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		bus.Subscribe(name, ports.ObserverFunc(func(ev ports.Event) error {
			order = append(order, name)
			return nil
		}))
	}

	bus.Publish(ports.ModuleEvent{Type: ports.ModuleEventStarted, Module: "exif", DataSource: "img-1"})

	testutil.AssertStrings(t, order, []string{"first", "second", "third"}, "delivery order")
	testutil.AssertEqual(t, buf.Len(), 0, "no log output on success")
}

func TestBus_FaultyObserverKeepsReceivingEvents(t *testing.T) {
	tests := []struct {
		name string
		obs  *recordingObserver
	}{
		{"returns error", &recordingObserver{fail: errors.New("observer failed")}},
		{"panics", &recordingObserver{panics: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			inbox := &fakeInbox{}
			bus := newTestBus(&buf, inbox)

			healthy := &recordingObserver{}
			bus.Subscribe("faulty", tt.obs)
			bus.Subscribe("healthy", healthy)

			const n = 5
			for i := 0; i < n; i++ {
				bus.Publish(ports.ModuleDataEvent{Module: "exif", ArtifactKind: "TSK_METADATA_EXIF", Count: 1})
			}

			testutil.AssertEqual(t, tt.obs.count(), n, "faulty observer receives every event")
			testutil.AssertEqual(t, healthy.count(), n, "later observers still notified")
			testutil.AssertEqual(t, bus.Len(), 2, "faulty observer stays subscribed")

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			testutil.AssertEqual(t, len(lines), n, "one log entry per fault")
			testutil.AssertContains(t, lines[0], "observer=faulty", "log names observer")
			testutil.AssertEqual(t, inbox.count(), 1, "observer error reported once")
		})
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	var buf bytes.Buffer
	bus := newTestBus(&buf, nil)

	a := &recordingObserver{}
	b := &recordingObserver{}
	subA := bus.Subscribe("a", a)
	bus.Subscribe("b", b)

	bus.Publish(ports.IngestEvent{Type: ports.IngestStarted, DataSource: "img-1"})
	bus.Unsubscribe(subA)
	bus.Unsubscribe(Subscription(999))
	bus.Publish(ports.IngestEvent{Type: ports.IngestCompleted, DataSource: "img-1"})

	testutil.AssertEqual(t, a.count(), 1, "unsubscribed observer")
	testutil.AssertEqual(t, b.count(), 2, "remaining observer")
}

func TestBus_SubscribeFromObserverDoesNotDeadlock(t *testing.T) {
	var buf bytes.Buffer
	bus := newTestBus(&buf, nil)

	late := &recordingObserver{}
	bus.Subscribe("subscriber", ports.ObserverFunc(func(ev ports.Event) error {
		bus.Subscribe("late", late)
		return nil
	}))

	bus.Publish(ports.IngestEvent{Type: ports.IngestStarted, DataSource: "img-1"})

	testutil.AssertEqual(t, late.count(), 0, "observer added during publish misses current event")
	testutil.AssertEqual(t, bus.Len(), 2, "subscription registered")
}
