package thermocouple

import (
	"context"
	"fmt"
)

var ErrEndpointNotFound = fmt.Errorf("spi endpoint not found")
var ErrShortTransfer = fmt.Errorf("spi transfer returned fewer bytes than requested")
var ErrEndpointBusy = fmt.Errorf("spi endpoint already claimed")

// SPIConfig describes the framing a device needs from its bus endpoint.
type SPIConfig struct {
	// MaxHz is the highest clock rate the device tolerates.
	MaxHz    int64
	Mode     int
	Bits     int
	LSBFirst bool
}

// SPIDevice is a configured connection to a single chip select.
type SPIDevice interface {
	// Xfer clocks tx out and returns the bytes clocked in during the same transaction.
	Xfer(ctx context.Context, tx []byte) ([]byte, error)
}

// SPIPort is a named bus endpoint which can be configured once for a device.
type SPIPort interface {
	Connect(ctx context.Context, cfg SPIConfig) (SPIDevice, error)
	Close() error
}

// SPIRegistry resolves endpoint names to ports. An endpoint stays claimed by the port
// returned from Open until that port is closed; opening it again fails with ErrEndpointBusy.
type SPIRegistry interface {
	Open(name string) (SPIPort, error)
}
