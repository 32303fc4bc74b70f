package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const periphEdgeTimeout = 100 * time.Millisecond

type periphBoard struct {
	mu      sync.Mutex
	outputs []gpio.PinIO
}

func openPeriph() (Board, error) {
	_, err := host.Init()
	if err != nil {
		return nil, err
	}
	return &periphBoard{}, nil
}

func periphPin(n int) (gpio.PinIO, error) {
	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", n))
	if p == nil {
		return nil, fmt.Errorf("%w: GPIO%d", ErrUnknownPin, n)
	}
	return p, nil
}

func periphPull(sw Switch) gpio.Pull {
	if sw.Invert {
		return gpio.PullDown
	}
	return gpio.PullUp
}

type periphPinIO struct {
	pin    gpio.PinIO
	invert bool
}

func (p periphPinIO) Pressed() (bool, error) {
	val := LOW
	if p.pin.Read() == gpio.High {
		val = HIGH
	}
	return pressedFor(val, p.invert), nil
}

func (p periphPinIO) Set(on bool) error {
	return p.pin.Out(levelFor(on, p.invert) == HIGH)
}

func (b *periphBoard) Input(sw Switch) (Input, error) {
	p, err := periphPin(sw.Pin)
	if err != nil {
		return nil, err
	}
	err = p.In(periphPull(sw), gpio.NoEdge)
	if err != nil {
		return nil, err
	}
	return periphPinIO{pin: p, invert: sw.Invert}, nil
}

func (b *periphBoard) Output(l Light) (Output, error) {
	p, err := periphPin(l.Pin)
	if err != nil {
		return nil, err
	}
	out := periphPinIO{pin: p, invert: l.Invert}
	err = out.Set(false)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.outputs = append(b.outputs, p)
	b.mu.Unlock()
	return out, nil
}

func (b *periphBoard) WatchPress(ctx context.Context, sw Switch, fn func()) error {
	p, err := periphPin(sw.Pin)
	if err != nil {
		return err
	}
	edge := gpio.FallingEdge
	if sw.Invert {
		edge = gpio.RisingEdge
	}
	err = p.In(periphPull(sw), edge)
	if err != nil {
		return err
	}
	for ctx.Err() == nil {
		if p.WaitForEdge(periphEdgeTimeout) {
			fn()
		}
	}
	return p.In(periphPull(sw), gpio.NoEdge)
}

// Close drives every output LOW and then releases it as a floating input.
func (b *periphBoard) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var first error
	for _, p := range b.outputs {
		err := p.Out(gpio.Low)
		if err == nil {
			err = p.In(gpio.Float, gpio.NoEdge)
		}
		if err != nil && first == nil {
			first = fmt.Errorf("release %s: %w", p.Name(), err)
		}
	}
	b.outputs = nil
	return first
}
