package acquire

import (
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// SerialSource reads sensor lines from a serial port (the usual Arduino
// USB-serial link). The port's read timeout is always a small finite value so
// a blocked read resolves quickly and shutdown latency stays low.
type SerialSource struct {
	port    serial.Port
	name    string
	partial []byte
}

// OpenSerial opens a serial port at the given baud rate. readTimeout bounds
// every individual read; it must be positive.
func OpenSerial(name string, baud int, readTimeout time.Duration) (*SerialSource, error) {
	if readTimeout <= 0 {
		return nil, pkgerrors.New("serial read timeout must be positive")
	}

	mode := &serial.Mode{BaudRate: baud}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open serial port %s", name)
	}

	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return nil, pkgerrors.Wrapf(err, "failed to set read timeout on %s", name)
	}

	logrus.WithFields(logrus.Fields{
		"port": name,
		"baud": baud,
	}).Info("serial port opened")

	return &SerialSource{port: port, name: name}, nil
}

// ReadLine assembles one newline-terminated line. A timeout with no newline
// keeps the partial bytes for the next call and returns ErrNoData.
func (s *SerialSource) ReadLine() (string, error) {
	buf := make([]byte, 1)
	for {
		n, err := s.port.Read(buf)
		if err != nil {
			return "", pkgerrors.Wrapf(err, "failed to read from serial port %s", s.name)
		}
		if n == 0 {
			// Read timeout expired with no byte.
			return "", ErrNoData
		}
		if buf[0] == '\n' {
			line := sanitizeLine(string(s.partial))
			s.partial = s.partial[:0]
			return line, nil
		}
		s.partial = append(s.partial, buf[0])
	}
}

func (s *SerialSource) Close() error {
	return s.port.Close()
}

// ListPorts returns the serial port names present on this machine.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list serial ports")
	}
	return ports, nil
}
