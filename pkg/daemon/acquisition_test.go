package daemon

import (
	"errors"
	"testing"
	"time"

	"github.com/upch-biolab/phmon/pkg/acquire"
	"github.com/upch-biolab/phmon/pkg/calib"
	"github.com/upch-biolab/phmon/pkg/events"
	"github.com/upch-biolab/phmon/pkg/stream"
)

var (
	testTwoPoint = calib.TwoPointParams{PH1: 7.00, V1: 2.500, PH2: 4.00, V2: 3.000}
	testNernst   = calib.NernstParams{E0: 2.500, TemperatureC: 25.0, Sign: -1}
)

// fakeSource yields scripted lines, then a scripted terminal error (or
// ErrNoData forever when terminal is nil).
type fakeSource struct {
	lines    []string
	terminal error
	closed   bool
}

func (f *fakeSource) ReadLine() (string, error) {
	if len(f.lines) == 0 {
		if f.terminal != nil {
			return "", f.terminal
		}
		return "", acquire.ErrNoData
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

func newTestAcquisition() *acquisition {
	session := stream.NewSession(100, testTwoPoint, testNernst)
	return newAcquisition(session, events.NewEventHub())
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestAcquisitionDrainsInOrder(t *testing.T) {
	a := newTestAcquisition()
	src := &fakeSource{lines: []string{"V=2.500", "boot: sensor ready", "V=2.600", "V=2.700"}}

	if err := a.startWithSource(src, SourceSim, 10*time.Millisecond); err != nil {
		t.Fatalf("startWithSource() error = %v", err)
	}

	waitFor(t, func() bool { return a.session.Buffer().Len() == 3 })

	if err := a.stop(); err != nil {
		t.Fatalf("stop() error = %v", err)
	}

	got := a.session.Buffer().Export()
	want := []float64{2.500, 2.600, 2.700}
	for i, v := range want {
		if got[i].Voltage != v {
			t.Errorf("sample %d voltage = %v, want %v", i, got[i].Voltage, v)
		}
	}
	if !src.closed {
		t.Error("source not closed after stop")
	}
}

func TestAcquisitionTransportFailureRetainsBuffer(t *testing.T) {
	a := newTestAcquisition()
	src := &fakeSource{
		lines:    []string{"V=2.500", "V=2.600"},
		terminal: errors.New("device unplugged"),
	}

	if err := a.startWithSource(src, SourceSim, 10*time.Millisecond); err != nil {
		t.Fatalf("startWithSource() error = %v", err)
	}

	waitFor(t, func() bool {
		running, _, _ := a.status()
		return !running
	})

	_, _, lastErr := a.status()
	if lastErr == "" {
		t.Error("transport failure was not recorded")
	}
	if got := a.session.Buffer().Len(); got != 2 {
		t.Errorf("buffer has %d samples after failure, want 2 retained", got)
	}
}

func TestAcquisitionRejectsConcurrentStart(t *testing.T) {
	a := newTestAcquisition()
	src := &fakeSource{}

	if err := a.startWithSource(src, SourceSim, 10*time.Millisecond); err != nil {
		t.Fatalf("startWithSource() error = %v", err)
	}
	defer func() { _ = a.stop() }()

	second := &fakeSource{}
	if err := a.startWithSource(second, SourceSim, 10*time.Millisecond); err == nil {
		t.Error("second startWithSource() succeeded, want error")
	}
	if !second.closed {
		t.Error("rejected source was not closed")
	}
}

func waitForEvent(t *testing.T, ch chan events.Event, name string) events.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Name == name {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %s event within deadline", name)
		}
	}
}

func TestAcquisitionPublishesStateEvents(t *testing.T) {
	hub := events.NewEventHub()
	session := stream.NewSession(100, testTwoPoint, testNernst)
	a := newAcquisition(session, hub)

	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	src := &fakeSource{lines: []string{"V=2.500"}}
	if err := a.startWithSource(src, SourceSim, 10*time.Millisecond); err != nil {
		t.Fatalf("startWithSource() error = %v", err)
	}

	st, err := events.DecodeAs[events.AcquisitionStateEvent](waitForEvent(t, ch, events.AcquisitionState))
	if err != nil {
		t.Fatalf("DecodeAs() error = %v", err)
	}
	if !st.Running || st.Source != SourceSim {
		t.Errorf("start event = %+v, want running from %s source", st, SourceSim)
	}

	if err := a.stop(); err != nil {
		t.Fatalf("stop() error = %v", err)
	}

	st, err = events.DecodeAs[events.AcquisitionStateEvent](waitForEvent(t, ch, events.AcquisitionState))
	if err != nil {
		t.Fatalf("DecodeAs() error = %v", err)
	}
	if st.Running {
		t.Errorf("stop event = %+v, want not running", st)
	}
}

func TestAcquisitionStopWhenNotRunning(t *testing.T) {
	a := newTestAcquisition()
	if err := a.stop(); err == nil {
		t.Error("stop() on idle acquisition succeeded, want error")
	}
}
