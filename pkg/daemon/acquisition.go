package daemon

import (
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/upch-biolab/phmon/pkg/acquire"
	"github.com/upch-biolab/phmon/pkg/events"
	"github.com/upch-biolab/phmon/pkg/stream"
)

// readingQueueSize bounds the producer/consumer hand-off between the
// background reader and the drain loop.
const readingQueueSize = 1024

// Source kinds accepted by the acquisition API.
const (
	SourceSerial = "serial"
	SourceBLE    = "ble"
	SourceSim    = "sim"
)

// acquisition manages the lifecycle of the one acquisition run the daemon
// allows at a time. The session (and its buffer) outlives individual runs:
// stopping acquisition keeps the collected samples available for export.
type acquisition struct {
	session *stream.Session
	hub     *events.EventHub

	mu        sync.Mutex
	reader    *acquire.Reader
	drainDone chan struct{}
	source    string
	running   bool
	lastErr   string
}

func newAcquisition(session *stream.Session, hub *events.EventHub) *acquisition {
	return &acquisition{session: session, hub: hub}
}

// start opens the requested source and launches the background reader plus
// the drain loop. A connect failure is surfaced to the caller and nothing is
// retried.
func (a *acquisition) start(kind, port string, baud int, device string, readTimeout, drainInterval time.Duration) error {
	if running, _, _ := a.status(); running {
		return pkgerrors.New("acquisition already running")
	}

	var src acquire.Source
	var err error
	switch kind {
	case SourceSerial:
		src, err = acquire.OpenSerial(port, baud, readTimeout)
	case SourceBLE:
		src, err = acquire.OpenBLE(device, readTimeout)
	case SourceSim:
		src = acquire.NewSimSource()
	default:
		return pkgerrors.Errorf("unknown acquisition source %q", kind)
	}
	if err != nil {
		return err
	}

	if err := a.startWithSource(src, kind, drainInterval); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"source":        kind,
		"port":          port,
		"baud":          baud,
		"device":        device,
		"drainInterval": drainInterval,
	}).Info("acquisition started")

	return nil
}

// startWithSource wires an already open source into a reader and drain loop.
func (a *acquisition) startWithSource(src acquire.Source, kind string, drainInterval time.Duration) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		_ = src.Close()
		return pkgerrors.New("acquisition already running")
	}

	reader := acquire.NewReader(src, readingQueueSize)
	reader.Start()

	a.reader = reader
	a.drainDone = make(chan struct{})
	a.source = kind
	a.running = true
	a.lastErr = ""

	go a.drainLoop(reader, drainInterval, a.drainDone)
	a.mu.Unlock()

	a.hub.Publish(events.AcquisitionState, events.AcquisitionStateEvent{
		Running: true,
		Source:  kind,
		Ts:      time.Now().Unix(),
	})

	return nil
}

// stop cooperatively stops the reader, waits for the drain loop to finish
// moving queued readings into the buffer, and leaves the buffer intact.
func (a *acquisition) stop() error {
	a.mu.Lock()
	reader := a.reader
	drainDone := a.drainDone
	a.mu.Unlock()

	if reader == nil {
		return pkgerrors.New("acquisition not running")
	}

	reader.Stop()
	<-drainDone
	return nil
}

// status returns the current run state.
func (a *acquisition) status() (running bool, source, lastErr string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running, a.source, a.lastErr
}

// drainLoop is the single consumer of the reader's channel: all buffer
// mutation happens here. Every tick it moves everything currently queued into
// the session, preserving arrival order.
func (a *acquisition) drainLoop(reader *acquire.Reader, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-reader.Done():
			a.drainQueued(reader)
			a.finish(reader)
			return
		case <-ticker.C:
			a.drainQueued(reader)
		}
	}
}

func (a *acquisition) drainQueued(reader *acquire.Reader) {
	for {
		select {
		case reading := <-reader.C():
			sample := a.session.Ingest(reading.Voltage, reading.At)
			a.hub.Publish(events.SampleAppended, sampleView(sample))
		default:
			return
		}
	}
}

// finish records why the run ended. A transport failure is surfaced once; the
// buffer keeps whatever was collected.
func (a *acquisition) finish(reader *acquire.Reader) {
	a.mu.Lock()
	a.running = false
	a.reader = nil
	source := a.source
	if err := reader.Err(); err != nil {
		a.lastErr = err.Error()
		logrus.Errorf("acquisition ended with transport failure: %v", err)
	} else {
		logrus.Info("acquisition stopped")
	}
	lastErr := a.lastErr
	a.mu.Unlock()

	a.hub.Publish(events.AcquisitionState, events.AcquisitionStateEvent{
		Running: false,
		Source:  source,
		Message: lastErr,
		Ts:      time.Now().Unix(),
	})
}
