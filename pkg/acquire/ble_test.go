package acquire

import (
	"errors"
	"testing"
	"time"
)

func newTestBLESource(timeout time.Duration) *BLESource {
	return &BLESource{
		readTimeout: timeout,
		bytes:       make(chan byte, 4096),
		linkDown:    make(chan struct{}),
	}
}

func (s *BLESource) push(t *testing.T, data string) {
	t.Helper()
	for _, b := range []byte(data) {
		select {
		case s.bytes <- b:
		default:
			t.Fatalf("byte queue full while pushing %q", data)
		}
	}
}

func TestBLESourceAssemblesChunkedLines(t *testing.T) {
	s := newTestBLESource(50 * time.Millisecond)

	// Notification chunks do not align with line boundaries.
	s.push(t, "V=2.")
	s.push(t, "9700\r\nV=")

	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "V=2.9700" {
		t.Fatalf("got line %q, want %q", line, "V=2.9700")
	}

	// The second line is incomplete, so the timeout fires.
	if _, err := s.ReadLine(); !errors.Is(err, ErrNoData) {
		t.Fatalf("got %v, want ErrNoData for incomplete line", err)
	}
}

func TestBLESourceLinkLossIsTerminal(t *testing.T) {
	s := newTestBLESource(50 * time.Millisecond)

	s.push(t, "V=2.9700\n")
	s.markLinkDown()

	// Bytes received before the drop are still delivered.
	line, err := s.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine after link loss with buffered line: %v", err)
	}
	if line != "V=2.9700" {
		t.Fatalf("got line %q, want %q", line, "V=2.9700")
	}

	// Once drained, the loss surfaces as a transport error, not a timeout.
	_, err = s.ReadLine()
	if err == nil || errors.Is(err, ErrNoData) {
		t.Fatalf("got %v, want terminal link-loss error", err)
	}
}

func TestReaderTerminatesOnBLELinkLoss(t *testing.T) {
	s := newTestBLESource(10 * time.Millisecond)
	s.push(t, "V=2.9700\n")
	s.markLinkDown()

	r := NewReader(s, 16)
	r.Start()

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("reader did not terminate after link loss")
	}
	if r.Err() == nil {
		t.Fatal("expected reader to retain the link-loss error")
	}

	// The reading received before the drop is still deliverable.
	select {
	case got := <-r.C():
		if got.Voltage != 2.97 {
			t.Fatalf("got voltage %v, want 2.97", got.Voltage)
		}
	default:
		t.Fatal("expected the pre-drop reading to be queued")
	}
}
