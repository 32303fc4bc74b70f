package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"
)

var (
	testButton = Switch{Name: "BTN1", Pin: 8}
	testReset  = Switch{Name: "BTN2", Pin: 18}
	testLight  = Light{Name: "LED", Pin: 15}
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func newTestPresser(t *testing.T, b *SimBoard, btn Switch, l Light) *Presser {
	t.Helper()
	in, err := b.Input(btn)
	if err != nil {
		t.Fatal(err)
	}
	out, err := b.Output(l)
	if err != nil {
		t.Fatal(err)
	}
	return &Presser{Button: in, Light: out, Counter: new(Counter)}
}

func step(t *testing.T, p *Presser) {
	t.Helper()
	err := p.Step(context.Background())
	if err != nil {
		t.Fatal("step:", err)
	}
}

func TestPresserCountsOncePerPress(t *testing.T) {
	b := NewSimBoard()
	p := newTestPresser(t, b, testButton, testLight)

	step(t, p)
	if n := p.Counter.Load(); n != 0 {
		t.Fatalf("count = %d before press; want 0", n)
	}
	if b.Level(testLight.Pin) != LOW {
		t.Fatal("light on before press")
	}

	for press := uint32(1); press <= 3; press++ {
		b.Press(testButton)
		// holding must not count again
		for i := 0; i < 5; i++ {
			step(t, p)
			if n := p.Counter.Load(); n != press {
				t.Fatalf("count = %d while held; want %d", n, press)
			}
			if !p.Held() || b.Level(testLight.Pin) != HIGH {
				t.Fatal("light/latch should be on while held")
			}
		}

		b.Release(testButton)
		step(t, p)
		if p.Held() || b.Level(testLight.Pin) != LOW {
			t.Fatal("light/latch should be off after release")
		}
	}
}

func TestPresserInverted(t *testing.T) {
	btn := Switch{Name: "BTN1", Pin: 8, Invert: true}
	l := Light{Name: "LED", Pin: 15, Invert: true}
	b := NewSimBoard()
	p := newTestPresser(t, b, btn, l)

	if b.Level(l.Pin) != HIGH {
		t.Fatal("inverted light should idle HIGH")
	}
	// unconfigured pins read HIGH, which is "pressed" for an inverted switch
	b.Release(btn)
	step(t, p)
	if n := p.Counter.Load(); n != 0 {
		t.Fatalf("count = %d; want 0", n)
	}

	b.Press(btn)
	if b.Level(btn.Pin) != HIGH {
		t.Fatal("inverted press should drive HIGH")
	}
	step(t, p)
	if n := p.Counter.Load(); n != 1 {
		t.Fatalf("count = %d; want 1", n)
	}
	if b.Level(l.Pin) != LOW {
		t.Fatal("inverted light should be LOW when on")
	}
}

func TestResetWhileHeld(t *testing.T) {
	b := NewSimBoard()
	p := newTestPresser(t, b, testButton, testLight)
	r := &Resetter{Switch: testReset, Counter: p.Counter}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.WatchPress(ctx, testReset, r.Handle) }()
	waitFor(t, "reset watcher", func() bool { return b.Watching(testReset.Pin) })

	b.Press(testButton)
	step(t, p)
	if n := p.Counter.Load(); n != 1 {
		t.Fatalf("count = %d; want 1", n)
	}

	b.Pulse(testReset)
	if n := p.Counter.Load(); n != 0 {
		t.Fatalf("count = %d after reset; want 0", n)
	}

	// still held: no new count until released and pressed again
	step(t, p)
	if n := p.Counter.Load(); n != 0 {
		t.Fatalf("count = %d while held after reset; want 0", n)
	}
	b.Release(testButton)
	step(t, p)
	b.Press(testButton)
	step(t, p)
	if n := p.Counter.Load(); n != 1 {
		t.Fatalf("count = %d; want 1", n)
	}

	// only falling edges reset
	b.Release(testReset)
	if n := p.Counter.Load(); n != 1 {
		t.Fatalf("count = %d after reset release; want 1", n)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatal("watch:", err)
	}
	if b.Watching(testReset.Pin) {
		t.Error("watcher still registered after cancel")
	}
}

func TestResetDuringDebounce(t *testing.T) {
	b := NewSimBoard()
	p := newTestPresser(t, b, testButton, testLight)
	p.Debounce = time.Hour
	r := &Resetter{Switch: testReset, Counter: p.Counter}

	ctx, cancel := context.WithCancel(context.Background())
	watchDone := make(chan error, 1)
	go func() { watchDone <- b.WatchPress(ctx, testReset, r.Handle) }()
	waitFor(t, "reset watcher", func() bool { return b.Watching(testReset.Pin) })

	runDone := make(chan error, 1)
	go func() { runDone <- p.Run(ctx) }()

	b.Press(testButton)
	waitFor(t, "press", func() bool { return p.Counter.Load() == 1 })
	// the loop is now blocked in the hour-long debounce
	waitFor(t, "light on", func() bool { return b.Level(testLight.Pin) == HIGH })

	b.Pulse(testReset)
	if n := p.Counter.Load(); n != 0 {
		t.Fatalf("count = %d after reset during debounce; want 0", n)
	}
	select {
	case err := <-runDone:
		t.Fatalf("run returned early: %v", err)
	default:
	}

	cancel()
	if err := <-runDone; err != nil {
		t.Fatal("run:", err)
	}
	if err := <-watchDone; err != nil {
		t.Fatal("watch:", err)
	}
}

type failInput struct{ err error }

func (f failInput) Pressed() (bool, error) { return false, f.err }

type failOutput struct{ err error }

func (f failOutput) Set(bool) error { return f.err }

func TestPresserErrors(t *testing.T) {
	errPin := errors.New("pin gone")
	b := NewSimBoard()

	p := &Presser{Button: failInput{errPin}, Light: failOutput{}, Counter: new(Counter)}
	err := p.Step(context.Background())
	if !errors.Is(err, errPin) {
		t.Errorf("read err = %v; want %v", err, errPin)
	}

	in, _ := b.Input(testButton)
	b.Press(testButton)
	p = &Presser{Button: in, Light: failOutput{errPin}, Counter: new(Counter)}
	err = p.Step(context.Background())
	if !errors.Is(err, errPin) {
		t.Errorf("write err = %v; want %v", err, errPin)
	}
}

func TestPresserDebounceCancel(t *testing.T) {
	b := NewSimBoard()
	p := newTestPresser(t, b, testButton, testLight)
	p.Debounce = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b.Press(testButton)
	err := p.Step(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v; want context.Canceled", err)
	}
	if n := p.Counter.Load(); n != 1 {
		t.Errorf("count = %d; want 1", n)
	}
}

func TestPresserRun(t *testing.T) {
	b := NewSimBoard()
	p := newTestPresser(t, b, testButton, testLight)
	p.PollInterval = time.Millisecond
	p.Debounce = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	b.Press(testButton)
	waitFor(t, "count", func() bool { return p.Counter.Load() == 1 })
	waitFor(t, "light on", func() bool { return b.Level(testLight.Pin) == HIGH })
	b.Release(testButton)
	waitFor(t, "light off", func() bool { return b.Level(testLight.Pin) == LOW })

	cancel()
	if err := <-done; err != nil {
		t.Fatal("run:", err)
	}
}

func TestTimerCounter(t *testing.T) {
	b := NewSimBoard()
	out, _ := b.Output(testLight)
	tc := &TimerCounter{Light: out, Counter: new(Counter), Interval: time.Millisecond}

	err := tc.Tick(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n := tc.Counter.Load(); n != 1 {
		t.Errorf("count = %d; want 1", n)
	}
	if b.Level(testLight.Pin) != LOW {
		t.Error("light should be off after pulse")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tc.Run(ctx) }()
	waitFor(t, "ticks", func() bool { return tc.Counter.Load() >= 4 })
	cancel()
	if err := <-done; err != nil {
		t.Fatal("run:", err)
	}

	r := &Resetter{Switch: testReset, Counter: tc.Counter}
	r.Handle()
	if n := tc.Counter.Load(); n != 0 {
		t.Errorf("count = %d after reset; want 0", n)
	}
}

func testConfig(mode string) *Config {
	return &Config{
		Backend:         "sim",
		Mode:            mode,
		Button:          testButton,
		Reset:           testReset,
		Light:           testLight,
		DebounceMs:      1,
		PollIntervalMs:  1,
		TimerIntervalMs: 1,
	}
}

func TestRunSimConsole(t *testing.T) {
	c := testConfig(ModeButton)
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	b := NewSimBoard()
	var count Counter

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, c, b, &count, pr) }()
	waitFor(t, "reset watcher", func() bool { return b.Watching(testReset.Pin) })

	send := func(cmd string) {
		t.Helper()
		_, err := io.WriteString(pw, cmd+"\n")
		if err != nil {
			t.Fatal(err)
		}
	}

	send("press")
	waitFor(t, "first press", func() bool { return count.Load() == 1 })
	waitFor(t, "light on", func() bool { return b.Level(testLight.Pin) == HIGH })
	send("release")
	waitFor(t, "light off", func() bool { return b.Level(testLight.Pin) == LOW })
	send("press")
	waitFor(t, "second press", func() bool { return count.Load() == 2 })
	send("bogus")
	send("reset")
	waitFor(t, "reset", func() bool { return count.Load() == 0 })

	cancel()
	if err := <-done; err != nil {
		t.Fatal("run:", err)
	}
}

func TestRunTimerMode(t *testing.T) {
	c := testConfig(ModeTimer)
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	b := NewSimBoard()
	var count Counter

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, c, b, &count, nil) }()

	waitFor(t, "ticks", func() bool { return count.Load() >= 3 })
	cancel()
	if err := <-done; err != nil {
		t.Fatal("run:", err)
	}
}

func TestRunStopsOnPinError(t *testing.T) {
	c := testConfig(ModeButton)
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	errPin := errors.New("pin gone")
	b := &brokenBoard{SimBoard: NewSimBoard(), err: errPin}
	var count Counter

	err := run(context.Background(), c, b, &count, nil)
	if !errors.Is(err, errPin) {
		t.Fatalf("err = %v; want %v", err, errPin)
	}
}

// brokenBoard fails every button read.
type brokenBoard struct {
	*SimBoard
	err error
}

func (b *brokenBoard) Input(Switch) (Input, error) { return failInput{b.err}, nil }
