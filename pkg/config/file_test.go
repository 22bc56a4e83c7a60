package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/upch-biolab/phmon/pkg/calib"
)

func TestFileDefaultsWhenMissing(t *testing.T) {
	f, err := NewFile(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}

	twoPoint := f.TwoPoint()
	if twoPoint.PH1 != 7.00 || twoPoint.V1 != 2.500 || twoPoint.PH2 != 4.00 || twoPoint.V2 != 3.000 {
		t.Errorf("default two-point params = %+v", twoPoint)
	}
	nernst := f.Nernst()
	if nernst.E0 != 2.500 || nernst.TemperatureC != 25.0 || nernst.Sign != -1 {
		t.Errorf("default Nernst params = %+v", nernst)
	}
	if f.BufferCapacity() != 10000 {
		t.Errorf("default buffer capacity = %d, want 10000", f.BufferCapacity())
	}
	if f.ReadTimeout() != 200*time.Millisecond {
		t.Errorf("default read timeout = %v, want 200ms", f.ReadTimeout())
	}
}

func TestFilePartialConfigFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phmon.json")
	if err := os.WriteFile(path, []byte(`{"baudRate": 115200}`), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}

	if f.BaudRate() != 115200 {
		t.Errorf("BaudRate() = %d, want 115200", f.BaudRate())
	}
	// Untouched fields keep their defaults.
	if f.WindowSize() != 60 {
		t.Errorf("WindowSize() = %d, want default 60", f.WindowSize())
	}
}

func TestFileSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phmon.json")

	f, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}

	want := calib.TwoPointParams{PH1: 6.86, V1: 2.512, PH2: 4.01, V2: 2.987}
	f.SetTwoPoint(want)
	f.SetSerialPort("/dev/ttyUSB0")
	if err := f.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile() after save error = %v", err)
	}
	if got := reloaded.TwoPoint(); got != want {
		t.Errorf("reloaded two-point params = %+v, want %+v", got, want)
	}
	if got := reloaded.SerialPort(); got != "/dev/ttyUSB0" {
		t.Errorf("reloaded serial port = %q", got)
	}
}
