package config

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/upch-biolab/phmon/pkg/calib"
)

// Config is the daemon configuration surface. Calibration parameters are
// externally supplied; the defaults in this package are documented fallbacks,
// not logic baked into the calibration engine.
type Config interface {
	TwoPoint() calib.TwoPointParams
	Nernst() calib.NernstParams
	// WindowSize is the number of recent samples shown by live views. It
	// does not affect buffer capacity.
	WindowSize() int
	BufferCapacity() int
	SerialPort() string
	BaudRate() int
	BLEDevice() string
	// ReadTimeout bounds every transport read. Always small and finite so
	// shutdown latency stays low.
	ReadTimeout() time.Duration
	// DrainInterval is the cadence at which queued readings are moved into
	// the session buffer.
	DrainInterval() time.Duration
	AllowNonRootAccess() bool

	SetTwoPoint(calib.TwoPointParams)
	SetNernst(calib.NernstParams)
	SetWindowSize(int)
	SetBufferCapacity(int)
	SetSerialPort(string)
	SetBaudRate(int)
	SetBLEDevice(string)
	SetAllowNonRootAccess(bool)

	// LogrusFields renders the effective configuration for startup logging.
	LogrusFields() logrus.Fields

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
