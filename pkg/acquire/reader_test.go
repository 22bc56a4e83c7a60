package acquire

import (
	"io"
	"testing"
	"time"
)

// scriptedSource replays a fixed list of results.
type scriptedSource struct {
	lines  []string
	errs   []error
	closed bool
}

func (s *scriptedSource) ReadLine() (string, error) {
	if len(s.lines) == 0 {
		return "", ErrNoData
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	var err error
	if len(s.errs) > 0 {
		err = s.errs[0]
		s.errs = s.errs[1:]
	}
	return line, err
}

func (s *scriptedSource) Close() error {
	s.closed = true
	return nil
}

func collect(t *testing.T, r *Reader, n int) []Reading {
	t.Helper()
	var got []Reading
	deadline := time.After(2 * time.Second)
	for len(got) < n {
		select {
		case reading := <-r.C():
			got = append(got, reading)
		case <-deadline:
			t.Fatalf("timed out waiting for %d readings, got %d", n, len(got))
		}
	}
	return got
}

func TestReaderSkipsUnparseableLines(t *testing.T) {
	src := &scriptedSource{lines: []string{"V=2.500", "garbage", "V=2.677"}}
	r := NewReader(src, 16)
	r.Start()
	defer r.Stop()

	got := collect(t, r, 2)
	if got[0].Voltage != 2.500 || got[1].Voltage != 2.677 {
		t.Errorf("got voltages %v, %v; want 2.500, 2.677", got[0].Voltage, got[1].Voltage)
	}
}

func TestReaderPreservesOrder(t *testing.T) {
	src := &scriptedSource{lines: []string{"V=1.0", "V=2.0", "V=3.0", "V=4.0"}}
	r := NewReader(src, 16)
	r.Start()
	defer r.Stop()

	got := collect(t, r, 4)
	for i, want := range []float64{1.0, 2.0, 3.0, 4.0} {
		if got[i].Voltage != want {
			t.Errorf("reading %d = %v, want %v", i, got[i].Voltage, want)
		}
	}
}

func TestReaderStopsOnTransportFailure(t *testing.T) {
	src := &scriptedSource{
		lines: []string{"V=2.500", ""},
		errs:  []error{nil, io.ErrUnexpectedEOF},
	}
	r := NewReader(src, 16)
	r.Start()

	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("reader did not terminate on transport failure")
	}

	if r.Err() == nil {
		t.Error("Err() = nil, want retained transport error")
	}
	if !src.closed {
		t.Error("source was not closed on reader exit")
	}

	// The reading collected before the failure is still deliverable.
	select {
	case reading := <-r.C():
		if reading.Voltage != 2.500 {
			t.Errorf("got voltage %v, want 2.500", reading.Voltage)
		}
	default:
		t.Error("reading collected before failure was lost")
	}
}

func TestReaderStopIsCooperativeAndIdempotent(t *testing.T) {
	r := NewReader(NewSimSource(), 16)
	r.Start()

	stopped := make(chan struct{})
	go func() {
		r.Stop()
		r.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return promptly")
	}
	if r.Err() != nil {
		t.Errorf("cooperative stop retained error %v, want nil", r.Err())
	}
}
