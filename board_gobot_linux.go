package main

import (
	"context"
	"strconv"

	"gobot.io/x/gobot/v2/platforms/adaptors"
	"gobot.io/x/gobot/v2/platforms/raspi"
)

// gobotBoard addresses pins by their physical header number.
type gobotBoard struct {
	adapter *raspi.Adaptor
}

func openGobot(c *Config) (Board, error) {
	a := raspi.NewAdaptor(gobotPullOptions(c)...)
	err := a.Connect()
	if err != nil {
		return nil, err
	}
	return &gobotBoard{adapter: a}, nil
}

// gobotPullOptions biases every configured switch toward its released level.
func gobotPullOptions(c *Config) []interface{} {
	var up, down []string
	for _, sw := range []Switch{c.Button, c.Reset} {
		if sw.Name == "" {
			continue
		}
		if sw.Invert {
			down = append(down, strconv.Itoa(sw.Pin))
		} else {
			up = append(up, strconv.Itoa(sw.Pin))
		}
	}
	var opts []interface{}
	if len(up) > 0 {
		opts = append(opts, adaptors.WithGpiosPullUp(up[0], up[1:]...))
	}
	if len(down) > 0 {
		opts = append(opts, adaptors.WithGpiosPullDown(down[0], down[1:]...))
	}
	return opts
}

type gobotPin struct {
	adapter *raspi.Adaptor
	pin     string
	invert  bool
}

func (p gobotPin) Pressed() (bool, error) {
	val, err := p.adapter.DigitalRead(p.pin)
	if err != nil {
		return false, err
	}
	return pressedFor(val, p.invert), nil
}

func (p gobotPin) Set(on bool) error {
	return p.adapter.DigitalWrite(p.pin, byte(levelFor(on, p.invert)))
}

func (b *gobotBoard) Input(sw Switch) (Input, error) {
	in := gobotPin{adapter: b.adapter, pin: strconv.Itoa(sw.Pin), invert: sw.Invert}
	_, err := in.Pressed()
	if err != nil {
		return nil, err
	}
	return in, nil
}

func (b *gobotBoard) Output(l Light) (Output, error) {
	out := gobotPin{adapter: b.adapter, pin: strconv.Itoa(l.Pin), invert: l.Invert}
	return out, out.Set(false)
}

func (b *gobotBoard) WatchPress(ctx context.Context, sw Switch, fn func()) error {
	in, err := b.Input(sw)
	if err != nil {
		return err
	}
	return pollPresses(ctx, in, edgePollInterval, fn)
}

func (b *gobotBoard) Close() error {
	return b.adapter.Finalize()
}
