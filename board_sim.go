package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

// SimBoard is an in-memory board. Unconfigured pins read HIGH, as if
// pulled up. Watch callbacks run synchronously from SetLevel, which
// models an interrupt preempting whatever the caller was doing.
type SimBoard struct {
	mu       sync.Mutex
	levels   map[int]int
	watchers map[int]map[int]simWatcher
	nextID   int
}

type simWatcher struct {
	sw Switch
	fn func()
}

func NewSimBoard() *SimBoard {
	return &SimBoard{
		levels:   make(map[int]int),
		watchers: make(map[int]map[int]simWatcher),
	}
}

func (b *SimBoard) Level(pin int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	val, ok := b.levels[pin]
	if !ok {
		return HIGH
	}
	return val
}

func (b *SimBoard) SetLevel(pin, val int) {
	b.mu.Lock()
	old, ok := b.levels[pin]
	if !ok {
		old = HIGH
	}
	b.levels[pin] = val
	var fire []func()
	for _, w := range b.watchers[pin] {
		if !pressedFor(old, w.sw.Invert) && pressedFor(val, w.sw.Invert) {
			fire = append(fire, w.fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range fire {
		fn()
	}
}

func (b *SimBoard) Press(sw Switch) {
	if sw.Invert {
		b.SetLevel(sw.Pin, HIGH)
	} else {
		b.SetLevel(sw.Pin, LOW)
	}
}

func (b *SimBoard) Release(sw Switch) {
	if sw.Invert {
		b.SetLevel(sw.Pin, LOW)
	} else {
		b.SetLevel(sw.Pin, HIGH)
	}
}

// Pulse presses and releases sw.
func (b *SimBoard) Pulse(sw Switch) {
	b.Press(sw)
	b.Release(sw)
}

// Watching reports whether any watcher is registered for pin.
func (b *SimBoard) Watching(pin int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.watchers[pin]) > 0
}

type simPin struct {
	b      *SimBoard
	pin    int
	invert bool
}

func (p simPin) Pressed() (bool, error) {
	return pressedFor(p.b.Level(p.pin), p.invert), nil
}

func (p simPin) Set(on bool) error {
	p.b.SetLevel(p.pin, levelFor(on, p.invert))
	return nil
}

func (b *SimBoard) Input(sw Switch) (Input, error) {
	return simPin{b: b, pin: sw.Pin, invert: sw.Invert}, nil
}

func (b *SimBoard) Output(l Light) (Output, error) {
	out := simPin{b: b, pin: l.Pin, invert: l.Invert}
	return out, out.Set(false)
}

func (b *SimBoard) WatchPress(ctx context.Context, sw Switch, fn func()) error {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.watchers[sw.Pin] == nil {
		b.watchers[sw.Pin] = make(map[int]simWatcher)
	}
	b.watchers[sw.Pin][id] = simWatcher{sw: sw, fn: fn}
	b.mu.Unlock()

	<-ctx.Done()

	b.mu.Lock()
	delete(b.watchers[sw.Pin], id)
	b.mu.Unlock()
	return nil
}

func (b *SimBoard) Close() error { return nil }

// Console drives the board from line commands: "press" and "release"
// act on the button, "reset" pulses the reset switch. It returns
// at EOF or when ctx is done.
func (b *SimBoard) Console(ctx context.Context, r io.Reader, c *Config) error {
	lines := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		s := bufio.NewScanner(r)
		for s.Scan() {
			select {
			case lines <- strings.TrimSpace(s.Text()):
			case <-ctx.Done():
				return
			}
		}
		errCh <- s.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-errCh
			}
			err := b.command(line, c)
			if err != nil {
				log.Warnln("sim:", err)
			}
		}
	}
}

func (b *SimBoard) command(line string, c *Config) error {
	switch strings.ToLower(line) {
	case "":
	case "press":
		b.Press(c.Button)
	case "release":
		b.Release(c.Button)
	case "reset":
		b.Pulse(c.Reset)
	default:
		return fmt.Errorf("unknown command '%s'", line)
	}
	return nil
}
