package max31855

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrUnsupportedControl = errors.New("max31855: unsupported sensor control command")
var ErrInvalidControl = errors.New("max31855: invalid sensor control command")

// Thermometer is implemented by Dev and MockMAX31855.
type Thermometer interface {
	InternalTemperature(ctx context.Context) (float64, error)
	ThermocoupleTemperature(ctx context.Context) (float64, error)
}

// Control is a command accepted by Sensor.Control.
type Control int

const (
	ControlGetID Control = iota + 1
	ControlSetRange
	ControlSetODR
	ControlSetMode
	ControlSelfTest
)

// UnitCentiCelsius is the unit of SensorData.Temp.
const UnitCentiCelsius = "cCelsius"

// SensorInfo describes the sensor to a polling framework.
type SensorInfo struct {
	Vendor    string  `yaml:"vendor"`
	Model     string  `yaml:"model"`
	Unit      string  `yaml:"unit"`
	Interface string  `yaml:"interface"`
	RangeMin  float64 `yaml:"range_min"`
	RangeMax  float64 `yaml:"range_max"`
}

// SensorData is one polled reading. Temp is in hundredths of a degree Celsius; faults
// show up as the scaled sentinel (e.g. -50000 for an open circuit).
type SensorData struct {
	Temp      int32     `yaml:"temp"`
	Timestamp time.Time `yaml:"timestamp"`
}

// Sensor binds a Thermometer to a polling framework.
type Sensor struct {
	dev Thermometer
	now func() time.Time
}

func NewSensor(dev Thermometer) *Sensor {
	return &Sensor{dev: dev, now: time.Now}
}

func (s *Sensor) Info() SensorInfo {
	return SensorInfo{
		Vendor:    "maxim",
		Model:     "max31855",
		Unit:      UnitCentiCelsius,
		Interface: "spi",
		RangeMin:  RangeMin,
		RangeMax:  RangeMax,
	}
}

// Fetch polls the thermocouple temperature.
func (s *Sensor) Fetch(ctx context.Context) (SensorData, error) {
	temp, err := s.dev.ThermocoupleTemperature(ctx)
	if err != nil {
		return SensorData{}, fmt.Errorf("max31855: fetch failed: %w", err)
	}
	return SensorData{
		Temp:      int32(temp * 100),
		Timestamp: s.now(),
	}, nil
}

// Control runs a framework control command. Only ControlSelfTest is implemented; it returns
// the internal temperature in °C.
func (s *Sensor) Control(ctx context.Context, cmd Control) (float64, error) {
	switch cmd {
	case ControlSelfTest:
		return s.dev.InternalTemperature(ctx)
	case ControlGetID, ControlSetRange, ControlSetODR, ControlSetMode:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedControl, cmd)
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidControl, cmd)
	}
}
