package main

const (
	DefaultBackend         = "gpiod"
	DefaultChip            = "gpiochip0"
	DefaultDebounceMs      = 50
	DefaultTimerIntervalMs = 1000
)

const configFile = `
# NOTE: Pin numbering depends on the backend. gpiod, periph and rpio use
# BCM line numbers, gobot uses physical header pin numbers.

# One of: gpiod, periph, rpio, gobot, sim
Backend = "gpiod"
# gpiod only
Chip = "gpiochip0"

# "button" counts presses of Button, "timer" counts once per TimerIntervalMs
Mode = "button"

# Debounce blocks the loop for this long after each press and release
DebounceMs = 50
# How often Button is read. 0 reads continuously
PollIntervalMs = 10
TimerIntervalMs = 1000

LogLevel = "info"
# "text" or "json"
LogFormat = "text"

[Button]
	Name = "BTN1"
	Pin = 8
	# Uncomment to interpret pin ` + "`HIGH`" + ` as pressed instead of ` + "`LOW`" + ` (the default)
	# Invert = true

# A falling edge on this pin resets the counter to zero
[Reset]
	Name = "BTN2"
	Pin = 18

[Light]
	Name = "LED"
	Pin = 15
	# Uncomment to output ` + "`LOW`" + ` when lit instead of ` + "`HIGH`" + `
	# Invert = true
`
