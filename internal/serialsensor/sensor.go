// Package serialsensor reads the color and proximity sensors through a
// microcontroller on a serial line. The board answers "C\n" with "r g b"
// and "P\n" with a single distance value, one line each.
package serialsensor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.bug.st/serial"

	"github.com/SeamusWaldron/mindcuber"
	"github.com/SeamusWaldron/mindcuber/internal/config"
)

// ErrBadReply is returned for replies that do not parse.
var ErrBadReply = errors.New("serialsensor: bad reply")

// Sensor implements mindcuber.Sensor over a serial port.
type Sensor struct {
	mu   sync.Mutex
	port io.ReadWriteCloser
	r    *bufio.Reader
	log  zerolog.Logger
}

var _ mindcuber.Sensor = (*Sensor)(nil)

// inputResetter is implemented by serial.Port.
type inputResetter interface {
	ResetInputBuffer() error
}

// Open opens the configured port.
func Open(cfg config.Sensor, log zerolog.Logger) (*Sensor, error) {
	port, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Port, err)
	}
	if cfg.Timeout > 0 {
		if err := port.SetReadTimeout(cfg.Timeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("set read timeout: %w", err)
		}
	}
	return New(port, log), nil
}

// New wraps an open connection.
func New(port io.ReadWriteCloser, log zerolog.Logger) *Sensor {
	return &Sensor{port: port, r: bufio.NewReader(port), log: log}
}

// Close closes the port.
func (s *Sensor) Close() error {
	return s.port.Close()
}

// query sends cmd and returns the whitespace separated fields of the reply.
func (s *Sensor) query(ctx context.Context, cmd string, want int) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	if _, err := io.WriteString(s.port, cmd+"\n"); err != nil {
		return nil, fmt.Errorf("write %s: %w", cmd, err)
	}
	line, err := s.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		s.discard()
		return nil, fmt.Errorf("read %s: %w", cmd, err)
	}
	s.log.Trace().Str("cmd", cmd).Str("reply", strings.TrimSpace(line)).Dur("elapsed", time.Since(start)).Msg("sensor")

	vals, err := parseReply(line, want)
	if err != nil {
		s.discard()
		return nil, err
	}
	return vals, nil
}

// discard drops buffered input after a failed query, so a late reply is not
// taken as the answer to the next command.
func (s *Sensor) discard() {
	s.r.Reset(s.port)
	if p, ok := s.port.(inputResetter); ok {
		if err := p.ResetInputBuffer(); err != nil {
			s.log.Warn().Err(err).Msg("reset input buffer")
		}
	}
}

func parseReply(line string, want int) ([]int, error) {
	fields := strings.Fields(line)
	if len(fields) != want {
		return nil, fmt.Errorf("%w: %q", ErrBadReply, strings.TrimSpace(line))
	}
	vals := make([]int, want)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadReply, strings.TrimSpace(line))
		}
		vals[i] = v
	}
	return vals, nil
}

// ReadColor implements mindcuber.Sensor.
func (s *Sensor) ReadColor(ctx context.Context) (mindcuber.RGB, error) {
	v, err := s.query(ctx, "C", 3)
	if err != nil {
		return mindcuber.RGB{}, err
	}
	return mindcuber.RGB{R: v[0], G: v[1], B: v[2]}, nil
}

// ReadProximity implements mindcuber.Sensor.
func (s *Sensor) ReadProximity(ctx context.Context) (int, error) {
	v, err := s.query(ctx, "P", 1)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

// Ports lists the serial ports present on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
