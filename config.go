package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidConfig = errors.New("invalid config")

// maxDurationMs is the largest millisecond value a time.Duration can hold.
const maxDurationMs = math.MaxInt64 / int64(time.Millisecond)

const (
	ModeButton = "button"
	ModeTimer  = "timer"
)

type Config struct {
	Backend         string
	Chip            string
	Mode            string
	Button          Switch
	Reset           Switch
	Light           Light
	DebounceMs      int64
	PollIntervalMs  int64
	TimerIntervalMs int64
	LogLevel        string
	LogFormat       string
}

type Switch struct {
	Name   string
	Pin    int
	Invert bool
}

type Light struct {
	Name   string
	Pin    int
	Invert bool
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}
func (c *Config) TimerInterval() time.Duration {
	return time.Duration(c.TimerIntervalMs) * time.Millisecond
}

func LoadConfig(path string) (*Config, error) {
	var c Config
	_, err := toml.DecodeFile(path, &c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func DecodeConfig(r io.Reader) (*Config, error) {
	var c Config
	_, err := toml.NewDecoder(r).Decode(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate fills in defaults and rejects configurations the loop cannot run.
func (c *Config) Validate() error {
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}
	c.Backend = strings.ToLower(c.Backend)
	if !knownBackend(c.Backend) {
		return invalid("unknown backend '%s'", c.Backend)
	}
	if c.Chip == "" {
		c.Chip = DefaultChip
	}

	if c.Mode == "" {
		c.Mode = ModeButton
	}
	switch c.Mode {
	case ModeButton, ModeTimer:
	default:
		return invalid("unknown mode '%s'", c.Mode)
	}

	if c.DebounceMs < 0 || c.PollIntervalMs < 0 || c.TimerIntervalMs < 0 {
		return invalid("durations must not be negative")
	}
	if c.DebounceMs > maxDurationMs || c.PollIntervalMs > maxDurationMs || c.TimerIntervalMs > maxDurationMs {
		return invalid("durations must not exceed %dms", int64(maxDurationMs))
	}
	if c.DebounceMs == 0 {
		c.DebounceMs = DefaultDebounceMs
	}
	if c.TimerIntervalMs == 0 {
		c.TimerIntervalMs = DefaultTimerIntervalMs
	}

	if c.Reset.Name == "" {
		return invalid("no reset switch configured")
	}
	if c.Light.Name == "" {
		return invalid("no light configured")
	}
	pins := map[int]string{
		c.Reset.Pin: c.Reset.Name,
	}
	if prev, ok := pins[c.Light.Pin]; ok {
		return invalid("light '%s' shares pin %d with '%s'", c.Light.Name, c.Light.Pin, prev)
	}
	pins[c.Light.Pin] = c.Light.Name

	if c.Mode == ModeButton {
		if c.Button.Name == "" {
			return invalid("no button configured")
		}
		if prev, ok := pins[c.Button.Pin]; ok {
			return invalid("button '%s' shares pin %d with '%s'", c.Button.Name, c.Button.Pin, prev)
		}
	} else if c.Button.Name != "" {
		log.Warnf("button '%s' is ignored in %s mode", c.Button.Name, c.Mode)
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return invalid("log level: %s", err.Error())
	}
	switch c.LogFormat {
	case "":
		c.LogFormat = "text"
	case "text", "json":
	default:
		return invalid("unknown log format '%s'", c.LogFormat)
	}

	return nil
}

// SetupLogging applies LogLevel and LogFormat to the standard logger.
// Validate must have succeeded first.
func (c *Config) SetupLogging() {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err == nil {
		log.SetLevel(lvl)
	}
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
