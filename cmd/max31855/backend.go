package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/system"

	"github.com/mklimuk/thermocouple/max31855"
	"github.com/mklimuk/thermocouple/spi"
)

const (
	backendPeriph = "periph"
	backendGobot  = "gobot"
	backendMock   = "mock"
)

var deviceFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "backend",
		Aliases: []string{"b"},
		Usage:   "spi backend: periph, gobot or mock",
		Value:   backendPeriph,
		EnvVars: []string{"MAX31855_BACKEND"},
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"d"},
		Usage:   "spi endpoint name (periph: SPI0.0 or /dev/spidev0.0, empty for the first port; gobot: <bus>.<chip>)",
		EnvVars: []string{"MAX31855_DEVICE"},
	},
	&cli.Int64Flag{
		Name:    "speed",
		Usage:   "spi clock rate in Hz (at most 4 MHz)",
		Value:   max31855.MaxSpeed,
		EnvVars: []string{"MAX31855_SPEED"},
	},
	&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log raw words"},
}

// thermometer is what the commands need from a device.
type thermometer interface {
	max31855.Thermometer
	Close() error
}

// openThermometer builds the device selected by the backend flag. The returned release
// function must be called once the device is no longer needed.
func openThermometer(ctx context.Context, c *cli.Context) (thermometer, func(), error) {
	speed := c.Int64("speed")
	device := c.String("device")
	switch c.String("backend") {
	case backendPeriph:
		reg, err := spi.NewGenericRegistry()
		if err != nil {
			return nil, nil, fmt.Errorf("backend initialization error: %w", err)
		}
		dev, err := max31855.New(ctx, reg, device, max31855.WithMaxSpeed(speed))
		if err != nil {
			return nil, nil, err
		}
		return dev, closer(dev), nil
	case backendGobot:
		if device == "" {
			device = "0.0"
		}
		sys := system.NewAccesser()
		sys.AddSPISupport()
		if !sys.HasSpiPeriphioAccess() && !sys.HasSpiGpioAccess() {
			return nil, nil, fmt.Errorf("backend initialization error: no spidev found")
		}
		dev, err := max31855.New(ctx, spi.NewGobotRegistry(sys), device, max31855.WithMaxSpeed(speed))
		if err != nil {
			return nil, nil, err
		}
		return dev, closer(dev), nil
	case backendMock:
		dev := max31855.NewMockMAX31855(
			func(ctx context.Context) (float64, error) { return 24.5625, nil },
			func(ctx context.Context) (float64, error) { return 21.75, nil },
		)
		return dev, closer(dev), nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", c.String("backend"))
	}
}

func closer(dev thermometer) func() {
	return func() {
		if err := dev.Close(); err != nil {
			slog.Error("error closing device", "error", err)
		}
	}
}
