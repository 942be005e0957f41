package max31855

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func constant(v float64) TemperatureBehaviorFunc {
	return func(ctx context.Context) (float64, error) { return v, nil }
}

func TestSensor_Fetch(t *testing.T) {
	ts := time.Date(2025, 3, 17, 11, 29, 26, 0, time.UTC)
	tests := []struct {
		name     string
		given    float64
		expected int32
	}{
		{"room", 25.25, 2525},
		{"negative", -12.75, -1275},
		{"open circuit", SentinelOpenCircuit, -50000},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := NewSensor(NewMockMAX31855(constant(0), constant(test.given)))
			s.now = func() time.Time { return ts }
			data, err := s.Fetch(context.Background())
			require.NoError(t, err)
			assert.Equal(t, SensorData{Temp: test.expected, Timestamp: ts}, data)
		})
	}
}

func TestSensor_FetchError(t *testing.T) {
	s := NewSensor(NewMockMAX31855(constant(0), func(ctx context.Context) (float64, error) {
		return 0, ErrTransport
	}))
	_, err := s.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestSensor_Control(t *testing.T) {
	calls := 0
	s := NewSensor(NewMockMAX31855(func(ctx context.Context) (float64, error) {
		calls++
		return 23.5625, nil
	}, constant(0)))
	ctx := context.Background()

	temp, err := s.Control(ctx, ControlSelfTest)
	require.NoError(t, err)
	assert.Equal(t, 23.5625, temp)
	assert.Equal(t, 1, calls)

	for _, cmd := range []Control{ControlGetID, ControlSetRange, ControlSetODR, ControlSetMode} {
		_, err := s.Control(ctx, cmd)
		assert.ErrorIs(t, err, ErrUnsupportedControl)
	}
	_, err = s.Control(ctx, Control(99))
	assert.ErrorIs(t, err, ErrInvalidControl)
	assert.False(t, errors.Is(err, ErrUnsupportedControl))
	assert.Equal(t, 1, calls)
}

func TestSensor_Info(t *testing.T) {
	info := NewSensor(NewMockMAX31855(constant(0), constant(0))).Info()
	assert.Equal(t, "max31855", info.Model)
	assert.Equal(t, "spi", info.Interface)
	assert.Equal(t, -200.0, info.RangeMin)
	assert.Equal(t, 1350.0, info.RangeMax)
	assert.Equal(t, "cCelsius", info.Unit)

	// Temp carries the same scale as the unit
	s := NewSensor(NewMockMAX31855(constant(0), constant(21.75)))
	data, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2175), data.Temp)
}

func TestSensor_WithDev(t *testing.T) {
	dev, bus, _ := newTestDev(t)
	s := NewSensor(dev)
	ctx := context.Background()

	bus.On("Xfer", mock.Anything, dummy).Return(word(0x64001900), nil).Once()
	data, err := s.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(160000), data.Temp)

	bus.On("Xfer", mock.Anything, dummy).Return(word(0x0001C904), nil).Once()
	temp, err := s.Control(ctx, ControlSelfTest)
	require.NoError(t, err)
	assert.Equal(t, -55.0, temp)
	bus.AssertExpectations(t)
}
