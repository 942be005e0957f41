package max31855

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

var _ physic.SenseEnv = &Dev{}

var ErrFault = errors.New("max31855: thermocouple fault")
var ErrContinuousUnsupported = errors.New("max31855: continuous sensing is not supported")

// Sense reads the thermocouple temperature into env. Faults are reported as an error
// wrapping ErrFault since env cannot carry a sentinel.
func (d *Dev) Sense(env *physic.Env) error {
	s, err := d.Read(context.Background())
	if err != nil {
		return err
	}
	if s.Fault != FaultNone {
		return fmt.Errorf("%w: %s", ErrFault, s.Fault)
	}
	env.Temperature = toPhysic(s.Thermocouple)
	return nil
}

func (d *Dev) SenseContinuous(time.Duration) (<-chan physic.Env, error) {
	return nil, ErrContinuousUnsupported
}

// Precision reports the thermocouple resolution of 0.25°C.
func (d *Dev) Precision(env *physic.Env) {
	env.Temperature = 250 * physic.MilliCelsius
}

// Halt is a no-op, the chip converts continuously on its own.
func (d *Dev) Halt() error {
	return nil
}

func toPhysic(celsius float64) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(celsius*float64(physic.Celsius))
}
