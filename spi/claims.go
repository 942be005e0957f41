package spi

import "sync"

// claims tracks the endpoints currently held by open ports of one registry.
type claims struct {
	mx   sync.Mutex
	held map[string]struct{}
}

func (c *claims) acquire(key string) bool {
	c.mx.Lock()
	defer c.mx.Unlock()
	if c.held == nil {
		c.held = map[string]struct{}{}
	}
	if _, ok := c.held[key]; ok {
		return false
	}
	c.held[key] = struct{}{}
	return true
}

func (c *claims) release(key string) {
	c.mx.Lock()
	defer c.mx.Unlock()
	delete(c.held, key)
}
