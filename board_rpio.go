package main

import (
	"context"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
)

// rpioBoard drives the BCM2835 registers through /dev/gpiomem.
type rpioBoard struct{}

func openRPIO() (Board, error) {
	err := rpio.Open()
	if err != nil {
		return nil, err
	}
	return rpioBoard{}, nil
}

type rpioPin struct {
	pin    rpio.Pin
	invert bool
}

func (p rpioPin) Pressed() (bool, error) {
	return pressedFor(int(p.pin.Read()), p.invert), nil
}

func (p rpioPin) Set(on bool) error {
	p.pin.Write(rpio.State(levelFor(on, p.invert)))
	return nil
}

func rpioInput(sw Switch) rpio.Pin {
	pin := rpio.Pin(sw.Pin)
	pin.Input()
	if sw.Invert {
		pin.PullDown()
	} else {
		pin.PullUp()
	}
	return pin
}

func (rpioBoard) Input(sw Switch) (Input, error) {
	return rpioPin{pin: rpioInput(sw), invert: sw.Invert}, nil
}

func (rpioBoard) Output(l Light) (Output, error) {
	pin := rpio.Pin(l.Pin)
	pin.Output()
	out := rpioPin{pin: pin, invert: l.Invert}
	return out, out.Set(false)
}

// WatchPress uses the SoC edge detect register. EdgeDetected latches, so
// polling it does not miss edges shorter than the poll interval.
func (rpioBoard) WatchPress(ctx context.Context, sw Switch, fn func()) error {
	pin := rpioInput(sw)
	if sw.Invert {
		pin.Detect(rpio.RiseEdge)
	} else {
		pin.Detect(rpio.FallEdge)
	}
	defer pin.Detect(rpio.NoEdge)

	t := time.NewTicker(edgePollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if pin.EdgeDetected() {
				fn()
			}
		}
	}
}

func (rpioBoard) Close() error {
	return rpio.Close()
}
