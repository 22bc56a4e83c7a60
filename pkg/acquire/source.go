// Package acquire reads voltage lines from a pH sensor. A Source yields one
// line of sensor output at a time under a short read timeout; a Reader owns a
// Source on a background goroutine, parses lines into readings and hands them
// to the consumer over a buffered channel.
package acquire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// ErrNoData is returned by Source.ReadLine when no complete line arrived
// within the read timeout. It means "no sample this tick", not a failure.
var ErrNoData = errors.New("no data within read timeout")

// Source is a line-oriented acquisition transport. ReadLine blocks for at
// most the transport's read timeout; implementations must never block
// unboundedly, so a Reader can always observe its stop signal promptly.
type Source interface {
	// ReadLine returns the next complete line, without the trailing newline.
	// It returns ErrNoData on timeout; any other error is a transport
	// failure and the source is unusable afterwards.
	ReadLine() (string, error)
	Close() error
}

// sanitizeLine tolerates encoding garbage from half-configured serial links:
// invalid UTF-8 is substituted, never fatal.
func sanitizeLine(line string) string {
	line = strings.TrimRight(line, "\r\n")
	return strings.ToValidUTF8(line, "�")
}

// SimSource is a simulated electrode producing a slow sine around 2.97 V,
// matching a glass electrode idling near pH 7. It never fails and is used for
// demos and tests when no hardware is attached.
type SimSource struct {
	t0 time.Time
	// period is the sine period; interval paces line production like a
	// real firmware would.
	period   time.Duration
	interval time.Duration
}

// NewSimSource returns a simulated source anchored at now, emitting one line
// every 500 ms.
func NewSimSource() *SimSource {
	return &SimSource{
		t0:       time.Now(),
		period:   40 * time.Second,
		interval: 500 * time.Millisecond,
	}
}

func (s *SimSource) ReadLine() (string, error) {
	time.Sleep(s.interval)
	t := time.Since(s.t0).Seconds()
	v := 2.97 + 0.005*math.Sin(2*math.Pi*t/s.period.Seconds())
	return fmt.Sprintf("V=%.4f", v), nil
}

func (s *SimSource) Close() error { return nil }

// LineSource adapts any io.ReadCloser (a file replay, a TCP stream, a test
// script) into a Source. Reads block until the underlying reader delivers a
// line or fails, so the reader itself must honor a deadline if one is needed.
type LineSource struct {
	rc io.ReadCloser
	br *bufio.Reader
}

func NewLineSource(rc io.ReadCloser) *LineSource {
	return &LineSource{rc: rc, br: bufio.NewReader(rc)}
}

func (s *LineSource) ReadLine() (string, error) {
	line, err := s.br.ReadString('\n')
	if err != nil {
		if err == io.EOF && line == "" {
			return "", pkgerrors.Wrap(io.EOF, "stream ended")
		}
		if err != io.EOF {
			return "", pkgerrors.Wrap(err, "failed to read line")
		}
	}
	return sanitizeLine(line), nil
}

func (s *LineSource) Close() error { return s.rc.Close() }
