package stream

import (
	"encoding/csv"
	"io"
	"strconv"

	pkgerrors "github.com/pkg/errors"

	"github.com/upch-biolab/phmon/pkg/calib"
)

// WriteCSV writes samples as CSV, header row first, one record per sample in
// the given order. Undefined pH values are written as empty fields so chart
// tools read them as gaps.
func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader); err != nil {
		return pkgerrors.Wrap(err, "failed to write CSV header")
	}

	for _, s := range samples {
		rec := []string{
			strconv.FormatFloat(s.TRel, 'f', 3, 64),
			strconv.FormatFloat(s.Voltage, 'f', -1, 64),
			formatPH(s.PHTwoPoint),
			formatPH(s.PHNernst),
		}
		if err := cw.Write(rec); err != nil {
			return pkgerrors.Wrap(err, "failed to write CSV record")
		}
	}

	cw.Flush()
	return pkgerrors.Wrap(cw.Error(), "failed to flush CSV")
}

func formatPH(v float64) string {
	if calib.IsUndefined(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
