// Package calib converts raw electrode voltages to pH estimates. Two models
// are supported and always evaluated side by side, so the operator can compare
// them against the same stream of readings:
//
//   - TwoPointPH: linear fit through two known (voltage, pH) buffer solutions
//   - NernstPH: the Nernst equation around the pH-7 reference potential
//
// Both models are pure functions of their parameters. A model that cannot
// produce a valid result (degenerate calibration points, non-physical
// temperature) returns the NaN sentinel instead of an error, so a single bad
// parameter set never stops the acquisition pipeline.
package calib

import "math"

// Electrochemical constants used by the Nernst model.
const (
	// GasConstant is the molar gas constant R in J/(mol·K).
	GasConstant = 8.31446261815324
	// FaradayConstant is the Faraday constant F in C/mol.
	FaradayConstant = 96485.33212

	// degenerateVoltageDelta is the minimum spread between the two reference
	// voltages for the two-point model to have a usable slope.
	degenerateVoltageDelta = 1e-12
)

var ln10 = math.Log(10.0)

// TwoPointParams holds the two (voltage, pH) reference pairs of a two-point
// calibration, typically measured in pH 7.00 and pH 4.00 buffer solutions.
type TwoPointParams struct {
	PH1 float64 `json:"pH1"`
	V1  float64 `json:"v1"`
	PH2 float64 `json:"pH2"`
	V2  float64 `json:"v2"`
}

// Degenerate reports whether the two reference voltages are too close for the
// fitted slope to be defined.
func (p TwoPointParams) Degenerate() bool {
	return math.Abs(p.V2-p.V1) < degenerateVoltageDelta
}

// NernstParams holds the parameters of the Nernst model.
type NernstParams struct {
	// E0 is the electrode potential at pH 7, in volts.
	E0 float64 `json:"e0"`
	// TemperatureC is the solution temperature in °C.
	TemperatureC float64 `json:"temperatureC"`
	// Sign is the electrode polarity, +1 or -1. Glass electrodes usually
	// produce a falling voltage as pH rises, so -1 is the common value.
	Sign int `json:"sign"`
}

// Undefined returns the sentinel marking a pH value no model could produce.
func Undefined() float64 {
	return math.NaN()
}

// IsUndefined reports whether v is the undefined sentinel.
func IsUndefined(v float64) bool {
	return math.IsNaN(v)
}

// TwoPointPH estimates pH from a voltage using the two-point linear model:
// pH = a*v + b with a = (pH2-pH1)/(V2-V1) and b = pH1 - a*V1.
//
// A degenerate parameter set (V1 == V2) returns the undefined sentinel.
// Callers must treat it as "calibration unusable", not as a reading.
func TwoPointPH(voltage float64, p TwoPointParams) float64 {
	if p.Degenerate() {
		return Undefined()
	}
	a := (p.PH2 - p.PH1) / (p.V2 - p.V1)
	b := p.PH1 - a*p.V1
	return a*voltage + b
}

// NernstSlope returns the theoretical electrode slope S(T) = (R·T_K/F)·ln(10)
// in volts per pH unit. At 25 °C this is ≈ 0.05916 V/pH.
func NernstSlope(tempC float64) float64 {
	tk := tempC + 273.15
	return (GasConstant * tk / FaradayConstant) * ln10
}

// NernstPH estimates pH from a voltage using the Nernst model:
// pH = 7 + sign·(v - E0)/S(T).
//
// A non-positive slope (only reachable below absolute zero) returns the
// undefined sentinel.
func NernstPH(voltage float64, p NernstParams) float64 {
	s := NernstSlope(p.TemperatureC)
	if s <= 0 {
		return Undefined()
	}
	return 7.0 + float64(p.Sign)*(voltage-p.E0)/s
}
