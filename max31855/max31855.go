// Package max31855 interfaces with the Maxim Integrated MAX31855 cold-junction compensated
// thermocouple to digital converter.
//
// The chip is read-only: every transaction clocks out a single 32-bit word holding the
// thermocouple temperature (14 bits, 0.25°C/LSB), the internal cold-junction temperature
// (12 bits, 0.0625°C/LSB) and the fault flags. The SPI clock must not exceed 4 MHz.
//
// Usage:
//
//	reg, _ := spi.NewGenericRegistry()
//	dev, err := max31855.New(ctx, reg, "SPI0.0")
//	if err != nil { ... }
//	defer dev.Close()
//	t, err := dev.ThermocoupleTemperature(ctx)
//	if max31855.IsFault(t) { ... }
//
// Datasheet: https://datasheets.maximintegrated.com/en/ds/MAX31855.pdf
package max31855

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mklimuk/thermocouple"
	"github.com/mklimuk/thermocouple/snsctx"
)

// MaxSpeed is the highest SPI clock rate allowed by the datasheet.
const MaxSpeed int64 = 4_000_000

var (
	ErrResourceExhausted = errors.New("max31855: could not claim spi endpoint")
	ErrSpeedTooHigh      = fmt.Errorf("max31855: spi clock above %d Hz", MaxSpeed)
	ErrTransport         = errors.New("max31855: spi transfer failed")
	ErrClosed            = errors.New("max31855: device is closed")
)

type Opts struct {
	MaxSpeed int64
	Logger   *slog.Logger
}

type Opt func(*Opts)

// WithMaxSpeed lowers the SPI clock rate. Rates above MaxSpeed are rejected by New.
func WithMaxSpeed(hz int64) Opt {
	return func(o *Opts) {
		o.MaxSpeed = hz
	}
}

func WithLogger(logger *slog.Logger) Opt {
	return func(o *Opts) {
		o.Logger = logger
	}
}

// Sample is a fully decoded transaction.
type Sample struct {
	Raw          Word
	Internal     float64
	Thermocouple float64
	Fault        Fault
}

// Dev is a handle to one MAX31855 bound to one SPI endpoint. It owns the endpoint
// until Close. All reads are serialized; overlapping transfers would corrupt the word.
type Dev struct {
	mx     sync.Mutex
	name   string
	port   thermocouple.SPIPort
	conn   thermocouple.SPIDevice
	log    *slog.Logger
	closed bool
}

// New resolves the endpoint name in the registry and configures it for the chip:
// 8-bit words, MSB first, mode 0 and at most 4 MHz. An endpoint already held by another
// handle fails with ErrResourceExhausted.
func New(ctx context.Context, reg thermocouple.SPIRegistry, name string, opts ...Opt) (*Dev, error) {
	config := Opts{
		MaxSpeed: MaxSpeed,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.MaxSpeed > MaxSpeed {
		return nil, fmt.Errorf("%w: %d Hz requested", ErrSpeedTooHigh, config.MaxSpeed)
	}
	if config.MaxSpeed <= 0 {
		return nil, fmt.Errorf("max31855: invalid spi clock rate %d", config.MaxSpeed)
	}
	id := "max31855_" + name
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("device", id)

	port, err := reg.Open(name)
	if errors.Is(err, thermocouple.ErrEndpointBusy) {
		logger.Error("spi device is held by another handle", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrResourceExhausted, err)
	}
	if err != nil {
		logger.Error("could not find spi device", "error", err)
		if errors.Is(err, thermocouple.ErrEndpointNotFound) {
			return nil, fmt.Errorf("max31855: %w", err)
		}
		return nil, fmt.Errorf("max31855: %w: %s: %w", thermocouple.ErrEndpointNotFound, name, err)
	}
	conn, err := port.Connect(ctx, thermocouple.SPIConfig{
		MaxHz: config.MaxSpeed,
		Mode:  0,
		Bits:  8,
	})
	if err != nil {
		logger.Error("could not configure spi device", "error", err)
		if closeErr := port.Close(); closeErr != nil {
			logger.Warn("could not release spi port", "error", closeErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrResourceExhausted, err)
	}
	return &Dev{
		name: name,
		port: port,
		conn: conn,
		log:  logger,
	}, nil
}

// String returns the diagnostic identity of the handle.
func (d *Dev) String() string {
	return "max31855_" + d.name
}

// InternalTemperature returns the cold-junction temperature in °C.
//
// A failed transfer is logged and the value decoded from whatever bytes arrived (usually 0)
// is still returned together with an error wrapping ErrTransport.
func (d *Dev) InternalTemperature(ctx context.Context) (float64, error) {
	if d == nil {
		return 0, ErrClosed
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	w, err := d.read(ctx)
	if errors.Is(err, ErrClosed) {
		return 0, err
	}
	internal := w.Internal()
	d.log.Debug("internal temperature", "value", internal)
	return internal, err
}

// ThermocoupleTemperature returns the probe temperature in °C. When the chip flags a fault
// one of the Sentinel* values is returned instead, with a nil error.
func (d *Dev) ThermocoupleTemperature(ctx context.Context) (float64, error) {
	if d == nil {
		return 0, ErrClosed
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	w, err := d.read(ctx)
	if err != nil {
		return 0, err
	}
	if f := w.Fault(); f != FaultNone {
		d.log.Info("thermocouple fault", "fault", f.String())
		return f.Sentinel(), nil
	}
	temp := w.Thermocouple()
	d.log.Debug("thermocouple temperature", "value", temp)
	return temp, nil
}

// Read performs a single transaction and decodes every field of the word. On a failed
// transfer only Raw and Internal are filled in.
func (d *Dev) Read(ctx context.Context) (Sample, error) {
	if d == nil {
		return Sample{}, ErrClosed
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	w, err := d.read(ctx)
	if errors.Is(err, ErrClosed) {
		return Sample{}, err
	}
	s := Sample{Raw: w, Internal: w.Internal()}
	if err != nil {
		return s, err
	}
	s.Fault = w.Fault()
	s.Thermocouple = w.ThermocoupleOrSentinel()
	if s.Fault != FaultNone {
		d.log.Info("thermocouple fault", "fault", s.Fault.String())
	}
	return s, nil
}

// Close releases the endpoint. It waits for an in-flight read; any later call fails with ErrClosed.
func (d *Dev) Close() error {
	if d == nil {
		return ErrClosed
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.closed = true
	d.conn = nil
	if err := d.port.Close(); err != nil {
		return fmt.Errorf("max31855: could not close spi port: %w", err)
	}
	return nil
}

// read must be called with mx held.
func (d *Dev) read(ctx context.Context) (Word, error) {
	if d.closed {
		return 0, ErrClosed
	}
	buf, err := exchange(ctx, d.conn)
	w := wordFromBytes(buf)
	if snsctx.IsVerbose(ctx) {
		d.log.Info("raw word", "word", fmt.Sprintf("%#08x", uint32(w)))
	}
	if err != nil {
		d.log.Error("spi transfer failed", "error", err)
	}
	return w, err
}
