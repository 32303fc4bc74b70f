package main

import (
	"context"
	"io"
	"sync"

	"github.com/warthog618/gpiod"
)

// gpiodBoard requests lines from the GPIO character device. Reset presses
// arrive as kernel line events on gpiod's event goroutine.
type gpiodBoard struct {
	chip *gpiod.Chip

	mu    sync.Mutex
	lines []io.Closer
}

func openGpiod(chip string) (Board, error) {
	c, err := gpiod.NewChip(chip, gpiod.WithConsumer("presscount"))
	if err != nil {
		return nil, err
	}
	return &gpiodBoard{chip: c}, nil
}

func (b *gpiodBoard) track(l *gpiod.Line) {
	b.mu.Lock()
	b.lines = append(b.lines, l)
	b.mu.Unlock()
}

func gpiodBias(sw Switch) gpiod.LineReqOption {
	if sw.Invert {
		return gpiod.WithPullDown
	}
	return gpiod.WithPullUp
}

type gpiodLine struct {
	line   *gpiod.Line
	invert bool
}

func (l gpiodLine) Pressed() (bool, error) {
	val, err := l.line.Value()
	if err != nil {
		return false, err
	}
	return pressedFor(val, l.invert), nil
}

func (l gpiodLine) Set(on bool) error {
	return l.line.SetValue(levelFor(on, l.invert))
}

func (b *gpiodBoard) Input(sw Switch) (Input, error) {
	l, err := b.chip.RequestLine(sw.Pin, gpiod.AsInput, gpiodBias(sw))
	if err != nil {
		return nil, err
	}
	b.track(l)
	return gpiodLine{line: l, invert: sw.Invert}, nil
}

func (b *gpiodBoard) Output(lt Light) (Output, error) {
	l, err := b.chip.RequestLine(lt.Pin, gpiod.AsOutput(levelFor(false, lt.Invert)))
	if err != nil {
		return nil, err
	}
	b.track(l)
	return gpiodLine{line: l, invert: lt.Invert}, nil
}

func (b *gpiodBoard) WatchPress(ctx context.Context, sw Switch, fn func()) error {
	var edge gpiod.LineReqOption = gpiod.WithFallingEdge
	if sw.Invert {
		edge = gpiod.WithRisingEdge
	}
	l, err := b.chip.RequestLine(sw.Pin,
		gpiod.AsInput,
		gpiodBias(sw),
		edge,
		gpiod.WithEventHandler(func(gpiod.LineEvent) { fn() }),
	)
	if err != nil {
		return err
	}
	<-ctx.Done()
	return l.Close()
}

func (b *gpiodBoard) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := closeAll(b.lines)
	b.lines = nil
	cerr := b.chip.Close()
	if err == nil {
		err = cerr
	}
	return err
}
