package max31855

import "context"

// TemperatureBehaviorFunc returns a temperature in Celsius or an error.
type TemperatureBehaviorFunc func(ctx context.Context) (float64, error)

// MockMAX31855 is a Thermometer driven by behavior functions, for use without hardware.
//
// Example usage:
//
//	m := NewMockMAX31855(
//		func(ctx context.Context) (float64, error) { return 24.5, nil },
//		func(ctx context.Context) (float64, error) { return SentinelOpenCircuit, nil },
//	)
type MockMAX31855 struct {
	internal     TemperatureBehaviorFunc
	thermocouple TemperatureBehaviorFunc
}

func NewMockMAX31855(internal, thermocouple TemperatureBehaviorFunc) *MockMAX31855 {
	return &MockMAX31855{internal: internal, thermocouple: thermocouple}
}

func (m *MockMAX31855) InternalTemperature(ctx context.Context) (float64, error) {
	return m.internal(ctx)
}

func (m *MockMAX31855) ThermocoupleTemperature(ctx context.Context) (float64, error) {
	return m.thermocouple(ctx)
}

// Close is a no-op.
func (m *MockMAX31855) Close() error {
	return nil
}
