package stream

import (
	"bytes"
	"strings"
	"testing"

	"github.com/upch-biolab/phmon/pkg/calib"
)

func TestWriteCSV(t *testing.T) {
	samples := []Sample{
		{TRel: 0.5, Voltage: 2.5, PHTwoPoint: 7, PHNernst: 7},
		{TRel: 1.0, Voltage: 2.6, PHTwoPoint: calib.Undefined(), PHNernst: 6.5},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, samples); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 records", len(lines))
	}
	if lines[0] != "t_rel,voltage,ph_two_point,ph_nernst" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "0.500,2.5,7,7" {
		t.Errorf("first record = %q", lines[1])
	}
	// Undefined pH becomes an empty field, read back as a gap.
	if lines[2] != "1.000,2.6,,6.5" {
		t.Errorf("second record = %q", lines[2])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	if strings.TrimSpace(buf.String()) != "t_rel,voltage,ph_two_point,ph_nernst" {
		t.Errorf("empty export = %q, want header only", buf.String())
	}
}
