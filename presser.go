package main

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// Presser counts presses of a single button and lights an output while it
// is held.
type Presser struct {
	Button       Input
	Light        Output
	Counter      *Counter
	Debounce     time.Duration
	PollInterval time.Duration

	pressed bool
}

// Held reports the current latch state.
func (p *Presser) Held() bool { return p.pressed }

// Step reads the button once and handles a press or release edge. It
// blocks for Debounce after either edge.
func (p *Presser) Step(ctx context.Context) error {
	state, err := p.Button.Pressed()
	if err != nil {
		return fmt.Errorf("read button: %w", err)
	}

	switch {
	case state && !p.pressed:
		n := p.Counter.Inc()
		p.pressed = true
		log.WithField("Count", n).Infoln("count")
		err = p.Light.Set(true)
	case !state && p.pressed:
		p.pressed = false
		err = p.Light.Set(false)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("set light: %w", err)
	}
	return sleep(ctx, p.Debounce)
}

// Run polls until ctx is done.
func (p *Presser) Run(ctx context.Context) error {
	for {
		err := p.Step(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}
		if sleep(ctx, p.PollInterval) != nil {
			return nil
		}
	}
}

// Resetter zeroes the counter when the reset switch is pressed. Handle
// may run concurrently with the polling loop.
type Resetter struct {
	Switch  Switch
	Counter *Counter
}

func (r *Resetter) Handle() {
	prev := r.Counter.Reset()
	log.WithFields(log.Fields{
		"ID":       r.Switch.Name,
		"Pin":      r.Switch.Pin,
		"Previous": prev,
	}).Infoln("interrupted by reset button, count set to 0")
}

// TimerCounter increments the counter on a fixed interval and flashes
// the light for Pulse on each tick.
type TimerCounter struct {
	Light    Output
	Counter  *Counter
	Interval time.Duration
	Pulse    time.Duration
}

func (t *TimerCounter) Tick(ctx context.Context) error {
	n := t.Counter.Inc()
	log.WithField("Count", n).Infoln("count")

	err := t.Light.Set(true)
	if err != nil {
		return fmt.Errorf("set light: %w", err)
	}
	// the light must not stay on after a cancelled pulse
	sleep(ctx, t.Pulse)
	err = t.Light.Set(false)
	if err != nil {
		return fmt.Errorf("set light: %w", err)
	}
	return nil
}

func (t *TimerCounter) Run(ctx context.Context) error {
	tk := time.NewTicker(t.Interval)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tk.C:
			err := t.Tick(ctx)
			if err != nil {
				return err
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
