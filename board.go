package main

import (
	"context"
	"errors"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
)

var (
	ErrUnsupportedBackend = errors.New("backend not supported on this platform")
	ErrUnknownPin         = errors.New("unknown pin")
)

const (
	LOW  = 0
	HIGH = 1
)

// edgePollInterval is used by backends without kernel edge events.
const edgePollInterval = 5 * time.Millisecond

var backends = []string{"gpiod", "periph", "rpio", "gobot", "sim"}

func knownBackend(name string) bool {
	for _, b := range backends {
		if b == name {
			return true
		}
	}
	return false
}

// Input is a configured switch. Pressed honors Switch.Invert.
type Input interface {
	Pressed() (bool, error)
}

// Output is a configured light. Set honors Light.Invert.
type Output interface {
	Set(on bool) error
}

type Board interface {
	Input(sw Switch) (Input, error)
	Output(l Light) (Output, error)

	// WatchPress calls fn from a separate goroutine each time sw goes from
	// released to pressed (a falling edge unless inverted). It blocks until
	// ctx is done.
	WatchPress(ctx context.Context, sw Switch, fn func()) error

	Close() error
}

func openBoard(c *Config) (Board, error) {
	switch c.Backend {
	case "gpiod":
		return openGpiod(c.Chip)
	case "periph":
		return openPeriph()
	case "rpio":
		return openRPIO()
	case "gobot":
		return openGobot(c)
	case "sim":
		return NewSimBoard(), nil
	}
	return nil, ErrUnsupportedBackend
}

// levelFor converts a logical on/off into the pin value to drive.
func levelFor(on, invert bool) int {
	if on != invert {
		// no invert and on
		// or invert and off
		return HIGH
	}
	return LOW
}

// pressedFor converts a pin value into a logical pressed state. Switches
// are pulled up, so LOW is pressed unless inverted.
func pressedFor(val int, invert bool) bool {
	return (val == LOW) != invert
}

// pollPresses emulates edge events for backends that can only read levels.
func pollPresses(ctx context.Context, in Input, interval time.Duration, fn func()) error {
	last, err := in.Pressed()
	if err != nil {
		return err
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		state, err := in.Pressed()
		if err != nil {
			return err
		}
		if state && !last {
			fn()
		}
		last = state
	}
}

// closeAll closes every c and returns the first error.
func closeAll(cs []io.Closer) error {
	var first error
	for _, c := range cs {
		err := c.Close()
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}

type loggedOutput struct {
	Output
	light Light
}

func (o loggedOutput) Set(on bool) error {
	lg := log.WithFields(log.Fields{
		"ID":    o.light.Name,
		"Pin":   o.light.Pin,
		"State": on,
	})
	if on {
		lg.Debugln("light on")
	} else {
		lg.Debugln("light off")
	}
	return o.Output.Set(on)
}
