package main

import "sync/atomic"

// Counter is written by the polling loop and the reset handler concurrently.
type Counter struct {
	value atomic.Uint32
}

func (c *Counter) Inc() uint32 { return c.value.Add(1) }

func (c *Counter) Load() uint32 { return c.value.Load() }

// Reset stores zero and returns the value it replaced.
func (c *Counter) Reset() uint32 { return c.value.Swap(0) }
