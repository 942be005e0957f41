package spi

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"gobot.io/x/gobot/v2"
	gobotspi "gobot.io/x/gobot/v2/drivers/spi"

	"github.com/mklimuk/thermocouple"
)

var _ thermocouple.SPIRegistry = &GobotRegistry{}

// DeviceOpener creates a system level SPI device. *system.Accesser (with SPI support
// added) implements it.
type DeviceOpener interface {
	NewSpiDevice(busNum, chipNum, mode, bits int, maxSpeed int64) (gobot.SpiSystemDevicer, error)
}

// GobotRegistry resolves "<bus>.<chip>" names (e.g. "0.0") to spidev devices opened through
// a gobot system accesser. Every Connect opens its own device with the requested framing.
// The platform adaptors' GetSpiConnection is not used: it caches connections per bus and
// chip regardless of mode and clock.
type GobotRegistry struct {
	opener  DeviceOpener
	claimed claims
}

func NewGobotRegistry(opener DeviceOpener) *GobotRegistry {
	return &GobotRegistry{opener: opener}
}

func (r *GobotRegistry) Open(name string) (thermocouple.SPIPort, error) {
	bus, chip, err := parseBusChip(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", thermocouple.ErrEndpointNotFound, name, err)
	}
	key := fmt.Sprintf("%d.%d", bus, chip)
	if !r.claimed.acquire(key) {
		return nil, fmt.Errorf("%w: %s", thermocouple.ErrEndpointBusy, key)
	}
	return &gobotPort{
		opener:  r.opener,
		bus:     bus,
		chip:    chip,
		name:    key,
		release: func() { r.claimed.release(key) },
	}, nil
}

func parseBusChip(name string) (int, int, error) {
	name = strings.TrimPrefix(name, "/dev/spidev")
	busStr, chipStr, ok := strings.Cut(name, ".")
	if !ok {
		return 0, 0, fmt.Errorf("expected <bus>.<chip>")
	}
	bus, err := strconv.Atoi(busStr)
	if err != nil || bus < 0 {
		return 0, 0, fmt.Errorf("invalid bus number %q", busStr)
	}
	chip, err := strconv.Atoi(chipStr)
	if err != nil || chip < 0 {
		return 0, 0, fmt.Errorf("invalid chip number %q", chipStr)
	}
	return bus, chip, nil
}

type gobotPort struct {
	mx      sync.Mutex
	opener  DeviceOpener
	bus     int
	chip    int
	name    string
	conn    gobotspi.Connection
	closed  bool
	release func()
}

func (p *gobotPort) Connect(ctx context.Context, cfg thermocouple.SPIConfig) (thermocouple.SPIDevice, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.closed {
		return nil, fmt.Errorf("spi port %s is closed", p.name)
	}
	if p.conn != nil {
		return nil, fmt.Errorf("spi port %s is already connected", p.name)
	}
	if cfg.LSBFirst {
		// gobot connections are always MSB first
		return nil, fmt.Errorf("spi port %s does not support lsb first framing", p.name)
	}
	if cfg.MaxHz <= 0 {
		return nil, fmt.Errorf("invalid spi clock rate: %d", cfg.MaxHz)
	}
	sysdev, err := p.opener.NewSpiDevice(p.bus, p.chip, cfg.Mode, cfg.Bits, cfg.MaxHz)
	if err != nil {
		return nil, fmt.Errorf("could not open spi device %s: %w", p.name, err)
	}
	p.conn = gobotspi.NewConnection(sysdev)
	return &gobotDevice{conn: p.conn}, nil
}

func (p *gobotPort) Close() error {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	defer p.release()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

type gobotDevice struct {
	conn gobotspi.Connection
}

// Xfer uses ReadCommandData which clocks tx while reading len(rx) bytes in the same transfer.
func (d *gobotDevice) Xfer(ctx context.Context, tx []byte) ([]byte, error) {
	rx := make([]byte, len(tx))
	if err := d.conn.ReadCommandData(tx, rx); err != nil {
		return nil, fmt.Errorf("could not transfer on spi: %w", err)
	}
	return rx, nil
}
