// Package stream accumulates derived pH samples for one acquisition session.
// The Buffer is a bounded FIFO of samples; the Session ties a buffer to the
// calibration parameters and the acquisition reader that feed it.
package stream

// Sample is one derived measurement. Samples are immutable once appended.
//
// PHTwoPoint and PHNernst may carry the calib undefined sentinel when the
// corresponding model is degenerate; consumers decide how to render that
// (typically as a gap).
type Sample struct {
	// TRel is seconds since the session's start anchor.
	TRel       float64 `json:"t_rel"`
	Voltage    float64 `json:"voltage"`
	PHTwoPoint float64 `json:"ph_two_point"`
	PHNernst   float64 `json:"ph_nernst"`
}

// CSVHeader is the export header row, in field order.
var CSVHeader = []string{"t_rel", "voltage", "ph_two_point", "ph_nernst"}
