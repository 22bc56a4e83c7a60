package stream

import (
	"testing"
	"time"
)

func TestBufferFIFOEviction(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		appends  int
	}{
		{name: "exactly at capacity", capacity: 5, appends: 5},
		{name: "one over capacity", capacity: 5, appends: 6},
		{name: "many over capacity", capacity: 5, appends: 123},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer(tt.capacity)
			now := time.Now()
			for i := 0; i < tt.appends; i++ {
				b.Append(Sample{Voltage: float64(i)}, now)
			}

			if b.Len() > tt.capacity {
				t.Fatalf("Len() = %d, capacity invariant %d violated", b.Len(), tt.capacity)
			}

			want := tt.appends
			if want > tt.capacity {
				want = tt.capacity
			}
			got := b.Export()
			if len(got) != want {
				t.Fatalf("Export() has %d samples, want %d", len(got), want)
			}

			// The retained samples are the last ones, in original order.
			first := tt.appends - want
			for i, s := range got {
				if s.Voltage != float64(first+i) {
					t.Errorf("sample %d has voltage %v, want %v", i, s.Voltage, float64(first+i))
				}
			}
		})
	}
}

func TestBufferWindow(t *testing.T) {
	b := NewBuffer(10)
	now := time.Now()
	for i := 0; i < 4; i++ {
		b.Append(Sample{Voltage: float64(i)}, now)
	}

	tests := []struct {
		name string
		n    int
		want []float64
	}{
		{name: "smaller than length", n: 2, want: []float64{2, 3}},
		{name: "equal to length", n: 4, want: []float64{0, 1, 2, 3}},
		{name: "larger than length returns all", n: 100, want: []float64{0, 1, 2, 3}},
		{name: "zero", n: 0, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.Window(tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("Window(%d) has %d samples, want %d", tt.n, len(got), len(tt.want))
			}
			for i, s := range got {
				if s.Voltage != tt.want[i] {
					t.Errorf("Window(%d)[%d].Voltage = %v, want %v", tt.n, i, s.Voltage, tt.want[i])
				}
			}
		})
	}
}

func TestBufferWindowDoesNotMutate(t *testing.T) {
	b := NewBuffer(10)
	now := time.Now()
	b.Append(Sample{Voltage: 1}, now)
	b.Append(Sample{Voltage: 2}, now)

	w := b.Window(1)
	w[0].Voltage = 99

	if got, _ := b.Last(); got.Voltage != 2 {
		t.Errorf("mutating a window copy changed the buffer: last voltage = %v", got.Voltage)
	}
}

func TestBufferResetReanchors(t *testing.T) {
	b := NewBuffer(10)

	// Simulate a sample appended long after start.
	late := b.Append(Sample{Voltage: 1}, time.Now().Add(90*time.Second))
	if late.TRel < 89 {
		t.Fatalf("pre-reset TRel = %v, want ≈90s", late.TRel)
	}

	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("Len() after Reset = %d, want 0", b.Len())
	}

	s := b.Append(Sample{Voltage: 2}, time.Now())
	if s.TRel < 0 || s.TRel > 1 {
		t.Errorf("TRel after reset = %v, want close to 0", s.TRel)
	}

	// Reset is idempotent.
	b.Reset()
	b.Reset()
	if b.Len() != 0 {
		t.Errorf("Len() after double Reset = %d, want 0", b.Len())
	}
}

func TestBufferAppendBeforeAnchorClampsToZero(t *testing.T) {
	b := NewBuffer(10)

	// A reading queued just before a Reset carries a wall-clock time that
	// precedes the new anchor.
	b.Append(Sample{Voltage: 1}, time.Now())
	b.Reset()

	s := b.Append(Sample{Voltage: 2}, b.Anchor().Add(-300*time.Millisecond))
	if s.TRel != 0 {
		t.Errorf("TRel for pre-anchor append = %v, want clamped to 0", s.TRel)
	}
	if got, _ := b.Last(); got.TRel != 0 {
		t.Errorf("retained TRel = %v, want 0", got.TRel)
	}
}

func TestBufferTimestampsRelativeToAnchor(t *testing.T) {
	b := NewBuffer(10)
	anchor := b.Anchor()

	s := b.Append(Sample{Voltage: 1}, anchor.Add(2500*time.Millisecond))
	if s.TRel < 2.499 || s.TRel > 2.501 {
		t.Errorf("TRel = %v, want 2.5", s.TRel)
	}
}
