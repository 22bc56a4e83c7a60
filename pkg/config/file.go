package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/upch-biolab/phmon/pkg/calib"
	"github.com/upch-biolab/phmon/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		// pH 7.00 and pH 4.00 buffer solutions are the usual pair.
		PH1: ptr.To(7.00),
		V1:  ptr.To(2.500),
		PH2: ptr.To(4.00),
		V2:  ptr.To(3.000),

		E0:           ptr.To(2.500),
		TemperatureC: ptr.To(25.0),
		// Glass electrodes read a falling voltage as pH rises.
		PolaritySign: ptr.To(-1),

		WindowSize:         ptr.To(60),
		BufferCapacity:     ptr.To(10000),
		SerialPort:         ptr.To(""),
		BaudRate:           ptr.To(9600),
		BLEDevice:          ptr.To("XIAO_BLE"),
		ReadTimeoutMS:      ptr.To(200),
		DrainIntervalMS:    ptr.To(500),
		AllowNonRootAccess: ptr.To(false),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = defaultFileConfig
	}

	return &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}
}

// RawFileConfig is the on-disk JSON shape. Absent fields fall back to
// package defaults, so a hand-edited partial file stays valid.
type RawFileConfig struct {
	PH1 *float64 `json:"pH1,omitempty"`
	V1  *float64 `json:"v1,omitempty"`
	PH2 *float64 `json:"pH2,omitempty"`
	V2  *float64 `json:"v2,omitempty"`

	E0           *float64 `json:"e0,omitempty"`
	TemperatureC *float64 `json:"temperatureC,omitempty"`
	PolaritySign *int     `json:"polaritySign,omitempty"`

	WindowSize         *int    `json:"windowSize,omitempty"`
	BufferCapacity     *int    `json:"bufferCapacity,omitempty"`
	SerialPort         *string `json:"serialPort,omitempty"`
	BaudRate           *int    `json:"baudRate,omitempty"`
	BLEDevice          *string `json:"bleDevice,omitempty"`
	ReadTimeoutMS      *int    `json:"readTimeoutMs,omitempty"`
	DrainIntervalMS    *int    `json:"drainIntervalMs,omitempty"`
	AllowNonRootAccess *bool   `json:"allowNonRootAccess,omitempty"`
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	twoPoint := c.TwoPoint()
	nernst := c.Nernst()

	return &RawFileConfig{
		PH1:                ptr.To(twoPoint.PH1),
		V1:                 ptr.To(twoPoint.V1),
		PH2:                ptr.To(twoPoint.PH2),
		V2:                 ptr.To(twoPoint.V2),
		E0:                 ptr.To(nernst.E0),
		TemperatureC:       ptr.To(nernst.TemperatureC),
		PolaritySign:       ptr.To(nernst.Sign),
		WindowSize:         ptr.To(c.WindowSize()),
		BufferCapacity:     ptr.To(c.BufferCapacity()),
		SerialPort:         ptr.To(c.SerialPort()),
		BaudRate:           ptr.To(c.BaudRate()),
		BLEDevice:          ptr.To(c.BLEDevice()),
		ReadTimeoutMS:      ptr.To(int(c.ReadTimeout() / time.Millisecond)),
		DrainIntervalMS:    ptr.To(int(c.DrainInterval() / time.Millisecond)),
		AllowNonRootAccess: ptr.To(c.AllowNonRootAccess()),
	}, nil
}

func floatOr(v, fallback *float64) float64 {
	if v != nil {
		return *v
	}
	return *fallback
}

func intOr(v, fallback *int) int {
	if v != nil {
		return *v
	}
	return *fallback
}

func stringOr(v, fallback *string) string {
	if v != nil {
		return *v
	}
	return *fallback
}

func boolOr(v, fallback *bool) bool {
	if v != nil {
		return *v
	}
	return *fallback
}

func (f *File) TwoPoint() calib.TwoPointParams {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return calib.TwoPointParams{
		PH1: floatOr(f.c.PH1, defaultFileConfig.PH1),
		V1:  floatOr(f.c.V1, defaultFileConfig.V1),
		PH2: floatOr(f.c.PH2, defaultFileConfig.PH2),
		V2:  floatOr(f.c.V2, defaultFileConfig.V2),
	}
}

func (f *File) Nernst() calib.NernstParams {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return calib.NernstParams{
		E0:           floatOr(f.c.E0, defaultFileConfig.E0),
		TemperatureC: floatOr(f.c.TemperatureC, defaultFileConfig.TemperatureC),
		Sign:         intOr(f.c.PolaritySign, defaultFileConfig.PolaritySign),
	}
}

func (f *File) WindowSize() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return intOr(f.c.WindowSize, defaultFileConfig.WindowSize)
}

func (f *File) BufferCapacity() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return intOr(f.c.BufferCapacity, defaultFileConfig.BufferCapacity)
}

func (f *File) SerialPort() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return stringOr(f.c.SerialPort, defaultFileConfig.SerialPort)
}

func (f *File) BaudRate() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return intOr(f.c.BaudRate, defaultFileConfig.BaudRate)
}

func (f *File) BLEDevice() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return stringOr(f.c.BLEDevice, defaultFileConfig.BLEDevice)
}

func (f *File) ReadTimeout() time.Duration {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	ms := intOr(f.c.ReadTimeoutMS, defaultFileConfig.ReadTimeoutMS)
	if ms <= 0 {
		ms = *defaultFileConfig.ReadTimeoutMS
	}
	return time.Duration(ms) * time.Millisecond
}

func (f *File) DrainInterval() time.Duration {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	ms := intOr(f.c.DrainIntervalMS, defaultFileConfig.DrainIntervalMS)
	if ms <= 0 {
		ms = *defaultFileConfig.DrainIntervalMS
	}
	return time.Duration(ms) * time.Millisecond
}

func (f *File) AllowNonRootAccess() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return boolOr(f.c.AllowNonRootAccess, defaultFileConfig.AllowNonRootAccess)
}

func (f *File) SetTwoPoint(p calib.TwoPointParams) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.PH1 = ptr.To(p.PH1)
	f.c.V1 = ptr.To(p.V1)
	f.c.PH2 = ptr.To(p.PH2)
	f.c.V2 = ptr.To(p.V2)
}

func (f *File) SetNernst(p calib.NernstParams) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.E0 = ptr.To(p.E0)
	f.c.TemperatureC = ptr.To(p.TemperatureC)
	f.c.PolaritySign = ptr.To(p.Sign)
}

func (f *File) SetWindowSize(i int) {
	if f.c == nil {
		panic("config is nil")
	}

	if i <= 0 {
		panic("window size must be positive")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.WindowSize = &i
}

func (f *File) SetBufferCapacity(i int) {
	if f.c == nil {
		panic("config is nil")
	}

	if i <= 0 {
		panic("buffer capacity must be positive")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.BufferCapacity = &i
}

func (f *File) SetSerialPort(s string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.SerialPort = &s
}

func (f *File) SetBaudRate(i int) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.BaudRate = &i
}

func (f *File) SetBLEDevice(s string) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.BLEDevice = &s
}

func (f *File) SetAllowNonRootAccess(b bool) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.c.AllowNonRootAccess = &b
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		// If the file is empty, return the empty config.
		// Do not make f.c a nil.
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	twoPoint := f.TwoPoint()
	nernst := f.Nernst()

	return logrus.Fields{
		"pH1":            twoPoint.PH1,
		"v1":             twoPoint.V1,
		"pH2":            twoPoint.PH2,
		"v2":             twoPoint.V2,
		"e0":             nernst.E0,
		"temperatureC":   nernst.TemperatureC,
		"polaritySign":   nernst.Sign,
		"windowSize":     f.WindowSize(),
		"bufferCapacity": f.BufferCapacity(),
		"serialPort":     f.SerialPort(),
		"baudRate":       f.BaudRate(),
		"bleDevice":      f.BLEDevice(),
	}
}
