package acquire

import (
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"
)

// Nordic UART Service, the de-facto BLE serial replacement the sensor
// firmware advertises.
var (
	uartServiceUUID, _ = bluetooth.ParseUUID("6e400001-b5a3-f393-e0a9-e50e24dcca9e")
	uartRxCharUUID, _  = bluetooth.ParseUUID("6e400003-b5a3-f393-e0a9-e50e24dcca9e")
)

const bleScanTimeout = 15 * time.Second

var errBLELinkLost = pkgerrors.New("ble link lost")

// BLESource reads sensor lines over BLE UART notifications. Notification
// payloads are chunked arbitrarily by the link layer, so bytes are
// reassembled into newline-terminated lines before being handed out.
//
// A dropped link stops notifications without an error from the stack, which
// would be indistinguishable from a quiet sensor. The adapter's connect
// handler flags the loss so ReadLine can report it as a transport error
// instead of timing out forever.
type BLESource struct {
	disconnect  func() error
	readTimeout time.Duration
	bytes       chan byte
	partial     []byte

	linkDown chan struct{}
	downOnce sync.Once
}

// OpenBLE scans for a peripheral advertising the given local name, connects,
// and subscribes to UART notifications. readTimeout bounds each ReadLine.
func OpenBLE(deviceName string, readTimeout time.Duration) (*BLESource, error) {
	if readTimeout <= 0 {
		return nil, pkgerrors.New("ble read timeout must be positive")
	}

	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to enable bluetooth adapter")
	}

	logrus.WithFields(logrus.Fields{"device": deviceName}).Info("scanning for BLE device")

	found := make(chan bluetooth.ScanResult, 1)
	go func() {
		err := adapter.Scan(func(a *bluetooth.Adapter, result bluetooth.ScanResult) {
			if result.LocalName() != deviceName {
				return
			}
			_ = a.StopScan()
			select {
			case found <- result:
			default:
			}
		})
		if err != nil {
			logrus.Errorf("BLE scan failed: %v", err)
		}
	}()

	var result bluetooth.ScanResult
	select {
	case result = <-found:
	case <-time.After(bleScanTimeout):
		_ = adapter.StopScan()
		return nil, pkgerrors.Errorf("BLE device %q not found within %s", deviceName, bleScanTimeout)
	}

	device, err := adapter.Connect(result.Address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to connect to BLE device %q", deviceName)
	}

	services, err := device.DiscoverServices([]bluetooth.UUID{uartServiceUUID})
	if err != nil || len(services) == 0 {
		_ = device.Disconnect()
		return nil, pkgerrors.Wrapf(err, "UART service not found on %q", deviceName)
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{uartRxCharUUID})
	if err != nil || len(chars) == 0 {
		_ = device.Disconnect()
		return nil, pkgerrors.Wrapf(err, "UART RX characteristic not found on %q", deviceName)
	}

	s := &BLESource{
		disconnect:  device.Disconnect,
		readTimeout: readTimeout,
		bytes:       make(chan byte, 4096),
		linkDown:    make(chan struct{}),
	}

	adapter.SetConnectHandler(func(dev bluetooth.Device, connected bool) {
		if connected || dev.Address != device.Address {
			return
		}
		logrus.WithFields(logrus.Fields{"device": deviceName}).Warn("BLE link lost")
		s.markLinkDown()
	})

	err = chars[0].EnableNotifications(func(buf []byte) {
		for _, b := range buf {
			select {
			case s.bytes <- b:
			default:
				// Consumer stalled; dropping keeps the link alive.
			}
		}
	})
	if err != nil {
		_ = device.Disconnect()
		return nil, pkgerrors.Wrapf(err, "failed to enable UART notifications on %q", deviceName)
	}

	logrus.WithFields(logrus.Fields{"device": deviceName}).Info("BLE device connected")
	return s, nil
}

func (s *BLESource) markLinkDown() {
	s.downOnce.Do(func() { close(s.linkDown) })
}

// ReadLine returns the next complete line, ErrNoData when none arrives within
// the read timeout, or a terminal error once the link is down. Bytes already
// received before the link dropped are still delivered.
func (s *BLESource) ReadLine() (string, error) {
	deadline := time.NewTimer(s.readTimeout)
	defer deadline.Stop()

	for {
		var b byte
		select {
		case b = <-s.bytes:
		default:
			select {
			case b = <-s.bytes:
			case <-s.linkDown:
				return "", errBLELinkLost
			case <-deadline.C:
				return "", ErrNoData
			}
		}

		if b == '\n' {
			line := sanitizeLine(string(s.partial))
			s.partial = s.partial[:0]
			return line, nil
		}
		s.partial = append(s.partial, b)
	}
}

func (s *BLESource) Close() error {
	s.markLinkDown()
	if s.disconnect == nil {
		return nil
	}
	return s.disconnect()
}
