package spi

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mklimuk/thermocouple"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

var _ thermocouple.SPIRegistry = &GenericRegistry{}
var _ thermocouple.SPIPort = &GenericPort{}
var _ thermocouple.SPIDevice = &GenericDevice{}

// PortOpener resolves a periph SPI port by name.
type PortOpener func(name string) (spi.PortCloser, error)

// GenericRegistry resolves endpoint names through the periph.io SPI registry.
type GenericRegistry struct {
	open    PortOpener
	claimed claims
}

// NewGenericRegistry initializes the host drivers and returns a registry backed by spireg.
func NewGenericRegistry() (*GenericRegistry, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	return &GenericRegistry{open: spireg.Open}, nil
}

// NewRegistryWithOpener returns a registry that resolves names with the given opener.
func NewRegistryWithOpener(open PortOpener) *GenericRegistry {
	return &GenericRegistry{open: open}
}

// Open claims the endpoint under the port's canonical name, so "" and an alias of an
// already opened port are rejected too.
func (r *GenericRegistry) Open(name string) (thermocouple.SPIPort, error) {
	port, err := r.open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", thermocouple.ErrEndpointNotFound, name, err)
	}
	key := port.String()
	if !r.claimed.acquire(key) {
		if err := port.Close(); err != nil {
			slog.Warn("could not close duplicate spi port", "port", key, "error", err)
		}
		return nil, fmt.Errorf("%w: %s", thermocouple.ErrEndpointBusy, key)
	}
	p := NewGenericPort(port)
	p.release = func() { r.claimed.release(key) }
	return p, nil
}

// GenericPort adapts a periph port to thermocouple.SPIPort.
type GenericPort struct {
	mx        sync.Mutex
	port      spi.PortCloser
	connected bool
	closed    bool
	release   func()
}

func NewGenericPort(port spi.PortCloser) *GenericPort {
	return &GenericPort{port: port}
}

func (p *GenericPort) Connect(ctx context.Context, cfg thermocouple.SPIConfig) (thermocouple.SPIDevice, error) {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.closed {
		return nil, fmt.Errorf("spi port %s is closed", p.port)
	}
	if p.connected {
		return nil, fmt.Errorf("spi port %s is already connected", p.port)
	}
	if cfg.MaxHz <= 0 {
		return nil, fmt.Errorf("invalid spi clock rate: %d", cfg.MaxHz)
	}
	mode := spi.Mode(cfg.Mode)
	if cfg.LSBFirst {
		mode |= spi.LSBFirst
	}
	conn, err := p.port.Connect(physic.Frequency(cfg.MaxHz)*physic.Hertz, mode, cfg.Bits)
	if err != nil {
		return nil, fmt.Errorf("could not connect spi port %s: %w", p.port, err)
	}
	p.connected = true
	return &GenericDevice{conn: conn}, nil
}

func (p *GenericPort) Close() error {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.release != nil {
		defer p.release()
	}
	return p.port.Close()
}

// GenericDevice performs full duplex transfers on a periph connection.
type GenericDevice struct {
	conn spi.Conn
}

func (d *GenericDevice) Xfer(ctx context.Context, tx []byte) ([]byte, error) {
	rx := make([]byte, len(tx))
	err := d.conn.Tx(tx, rx)
	if err != nil {
		return nil, fmt.Errorf("could not transfer on spi %s: %w", d.conn, err)
	}
	return rx, nil
}
