//go:build !linux

package main

func openGpiod(chip string) (Board, error) {
	return nil, ErrUnsupportedBackend
}

func openGobot(c *Config) (Board, error) {
	return nil, ErrUnsupportedBackend
}
