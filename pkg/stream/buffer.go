package stream

import (
	"sync"
	"time"
)

// DefaultCapacity bounds a session buffer unless configured otherwise.
const DefaultCapacity = 10000

// Buffer is a bounded, time-anchored FIFO of samples. When full, the oldest
// sample is evicted first; evicted samples are unrecoverable, which is what
// bounds memory for arbitrarily long sessions.
//
// The drain loop appends while HTTP handlers read, so access is guarded by a
// mutex.
type Buffer struct {
	mu       sync.Mutex
	capacity int
	t0       time.Time
	samples  []Sample
}

// NewBuffer returns an empty buffer anchored at now. A non-positive capacity
// falls back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		t0:       time.Now(),
		samples:  make([]Sample, 0),
	}
}

// Capacity returns the fixed capacity.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Anchor returns the start-time anchor samples are timestamped against.
func (b *Buffer) Anchor() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.t0
}

// Append timestamps s relative to the anchor (overwriting s.TRel) using the
// given wall-clock time and appends it, evicting the oldest sample when at
// capacity. It never fails.
//
// A reading taken just before a Reset can arrive with at preceding the new
// anchor; its TRel is clamped to 0 so the time axis never runs backwards.
func (b *Buffer) Append(s Sample, at time.Time) Sample {
	b.mu.Lock()
	defer b.mu.Unlock()

	s.TRel = at.Sub(b.t0).Seconds()
	if s.TRel < 0 {
		s.TRel = 0
	}
	if len(b.samples) >= b.capacity {
		b.samples = b.samples[1:]
	}
	b.samples = append(b.samples, s)
	return s
}

// Len returns the number of retained samples.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

// Last returns the most recent sample, if any.
func (b *Buffer) Last() (Sample, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.samples) == 0 {
		return Sample{}, false
	}
	return b.samples[len(b.samples)-1], true
}

// Window returns a copy of the last n samples, oldest first, or all of them
// when fewer than n are retained. It never pads and never errors.
func (b *Buffer) Window(n int) []Sample {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 {
		return nil
	}
	if n > len(b.samples) {
		n = len(b.samples)
	}
	out := make([]Sample, n)
	copy(out, b.samples[len(b.samples)-n:])
	return out
}

// Export returns a copy of every retained sample in insertion order. Samples
// already evicted are gone.
func (b *Buffer) Export() []Sample {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Sample, len(b.samples))
	copy(out, b.samples)
	return out
}

// Reset drops all samples and re-anchors t0 at now. Idempotent.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.samples = b.samples[:0]
	b.t0 = time.Now()
}
