package stream

import (
	"sync"
	"time"

	"github.com/upch-biolab/phmon/pkg/calib"
)

// Session owns one buffer and the calibration parameters used to derive
// samples from incoming voltages. A session is created by the caller that
// runs the acquisition; it is never shared across concurrent acquisition
// runs.
type Session struct {
	buf *Buffer

	mu       sync.RWMutex
	twoPoint calib.TwoPointParams
	nernst   calib.NernstParams
}

// NewSession returns a session with an empty buffer anchored at now.
func NewSession(capacity int, twoPoint calib.TwoPointParams, nernst calib.NernstParams) *Session {
	return &Session{
		buf:      NewBuffer(capacity),
		twoPoint: twoPoint,
		nernst:   nernst,
	}
}

// Buffer exposes the sample buffer for reads (window, export, last).
func (s *Session) Buffer() *Buffer { return s.buf }

// TwoPoint returns the current two-point parameters.
func (s *Session) TwoPoint() calib.TwoPointParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.twoPoint
}

// Nernst returns the current Nernst parameters.
func (s *Session) Nernst() calib.NernstParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nernst
}

// SetTwoPoint swaps the two-point parameters for subsequent samples. Already
// appended samples keep the values they were derived with.
func (s *Session) SetTwoPoint(p calib.TwoPointParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.twoPoint = p
}

// SetNernst swaps the Nernst parameters for subsequent samples.
func (s *Session) SetNernst(p calib.NernstParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nernst = p
}

// Ingest derives both pH estimates for a voltage and appends the resulting
// sample, timestamped at the given wall-clock time. It never fails; a
// degenerate model simply yields the undefined sentinel in that series.
func (s *Session) Ingest(voltage float64, at time.Time) Sample {
	s.mu.RLock()
	twoPoint := s.twoPoint
	nernst := s.nernst
	s.mu.RUnlock()

	sample := Sample{
		Voltage:    voltage,
		PHTwoPoint: calib.TwoPointPH(voltage, twoPoint),
		PHNernst:   calib.NernstPH(voltage, nernst),
	}
	return s.buf.Append(sample, at)
}

// Reset clears the buffer and re-anchors its start time.
func (s *Session) Reset() {
	s.buf.Reset()
}
