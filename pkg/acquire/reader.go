package acquire

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Reading is one successfully parsed voltage with its arrival time.
type Reading struct {
	Voltage float64
	At      time.Time
}

// Reader owns a Source on a dedicated goroutine and is the only code that
// touches the transport after Start. Parsed readings are delivered in arrival
// order on C; the consumer drains the channel and performs all buffer
// mutation, so the hand-off channel is the only synchronization point.
//
// Policy on failures: an unparseable line or a read timeout is "no sample
// this tick" and is skipped silently; any other transport error terminates
// the reader, and the error is retained for Err.
type Reader struct {
	src  Source
	ch   chan Reading
	stop chan struct{}
	done chan struct{}

	mu  sync.Mutex
	err error

	stopOnce sync.Once
}

// NewReader wraps src. queueSize bounds how many readings can sit between the
// producer and a slow consumer before new readings are dropped.
func NewReader(src Source, queueSize int) *Reader {
	return &Reader{
		src:  src,
		ch:   make(chan Reading, queueSize),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// C is the reading hand-off channel. It is never closed; use Done to observe
// reader exit.
func (r *Reader) C() <-chan Reading { return r.ch }

// Done is closed once the reading goroutine has exited and the transport is
// closed.
func (r *Reader) Done() <-chan struct{} { return r.done }

// Err returns the transport error that terminated the reader, or nil if it
// is still running or was stopped cooperatively.
func (r *Reader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Start launches the reading goroutine.
func (r *Reader) Start() {
	go r.run()
}

// Stop signals the reader to exit and waits for the transport to be closed.
// A partially read line is discarded. Idempotent.
func (r *Reader) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}

func (r *Reader) run() {
	defer close(r.done)
	defer func() {
		if err := r.src.Close(); err != nil {
			logrus.Errorf("failed to close acquisition source: %v", err)
		}
	}()

	for {
		select {
		case <-r.stop:
			return
		default:
		}

		line, err := r.src.ReadLine()
		if errors.Is(err, ErrNoData) {
			continue
		}
		if err != nil {
			r.mu.Lock()
			r.err = err
			r.mu.Unlock()
			logrus.Errorf("acquisition terminated: %v", err)
			return
		}

		voltage, ok := ParseVoltage(line)
		if !ok {
			// Diagnostic or partial line, no sample this tick.
			logrus.WithFields(logrus.Fields{"line": line}).Trace("skipping unparseable line")
			continue
		}

		select {
		case r.ch <- Reading{Voltage: voltage, At: time.Now()}:
		default:
			logrus.Warn("reading queue full, dropping sample")
		}
	}
}
