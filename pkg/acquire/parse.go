package acquire

import (
	"regexp"
	"strconv"
)

// Sensor firmwares in the wild emit a few different line shapes:
//
//	"V=2.9734" / "V: 2.9734"     tagged voltage
//	"2.9734"                     bare value
//	"V,2.97,pH,7.01"             comma-separated fields
//
// Anything else (boot banners, diagnostics, partial lines) carries no sample.
var (
	taggedVoltageRe = regexp.MustCompile(`[Vv]\s*[:=]\s*([+-]?\d+(?:\.\d+)?)`)
	bareNumberRe    = regexp.MustCompile(`([+-]?\d+(?:\.\d+)?)`)
)

// ParseVoltage extracts a voltage from one line of sensor output. A token
// tagged V= or V: wins over a bare leading number. The second return value is
// false when the line contains no numeric token; that is an expected, frequent
// condition and never an error.
func ParseVoltage(line string) (float64, bool) {
	if m := taggedVoltageRe.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v, true
		}
	}
	if m := bareNumberRe.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
