package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/thermocouple/cmd/max31855/console"
	"github.com/mklimuk/thermocouple/max31855"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	console.SetOutput(&out, &errOut)
	t.Cleanup(func() { console.SetOutput(&bytes.Buffer{}, &bytes.Buffer{}) })
	return &out, &errOut
}

func sequence(values ...float64) max31855.TemperatureBehaviorFunc {
	i := 0
	return func(ctx context.Context) (float64, error) {
		v := values[i%len(values)]
		i++
		return v, nil
	}
}

func TestSampleMedian(t *testing.T) {
	dev := max31855.NewMockMAX31855(sequence(24, 26, 25), sequence(100.25, 99.75, 300))
	r, err := sampleMedian(context.Background(), dev, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, reading{Thermocouple: 100.25, Internal: 25}, r)
}

func TestSampleMedian_SkipsFaults(t *testing.T) {
	dev := max31855.NewMockMAX31855(sequence(25), sequence(max31855.SentinelOpenCircuit, 20, 21, 22))
	r, err := sampleMedian(context.Background(), dev, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, reading{Thermocouple: 21, Internal: 25}, r)
}

func TestSampleMedian_Fails(t *testing.T) {
	dev := max31855.NewMockMAX31855(sequence(25), sequence(max31855.SentinelShortVCC))
	r, err := sampleMedian(context.Background(), dev, 3, 0)
	assert.ErrorIs(t, err, max31855.ErrFault)
	assert.Equal(t, "short to VCC", r.Fault)

	failing := max31855.NewMockMAX31855(sequence(25), func(ctx context.Context) (float64, error) {
		return 0, max31855.ErrTransport
	})
	_, err = sampleMedian(context.Background(), failing, 2, 0)
	assert.ErrorIs(t, err, max31855.ErrTransport)

	_, err = sampleMedian(context.Background(), dev, 0, 0)
	assert.Error(t, err)
}

func TestFaultOf(t *testing.T) {
	assert.Equal(t, "", faultOf(25))
	assert.Equal(t, "open circuit", faultOf(max31855.SentinelOpenCircuit))
	assert.Equal(t, "short to GND", faultOf(max31855.SentinelShortGND))
	assert.Equal(t, "out of range", faultOf(2000))
}

func TestPoll(t *testing.T) {
	out, errOut := captureOutput(t)
	calls := 0
	dev := max31855.NewMockMAX31855(sequence(25), func(ctx context.Context) (float64, error) {
		calls++
		if calls == 2 {
			return 0, errors.New("bus error")
		}
		return 21.75, nil
	})
	err := poll(context.Background(), max31855.NewSensor(dev), time.Millisecond, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("21.75")))
	assert.Contains(t, errOut.String(), "bus error")
}

func TestPoll_Cancelled(t *testing.T) {
	captureOutput(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dev := max31855.NewMockMAX31855(sequence(25), sequence(21.75))
	assert.NoError(t, poll(ctx, max31855.NewSensor(dev), time.Hour, 0))
}

func TestRun_MockBackend(t *testing.T) {
	out, _ := captureOutput(t)
	code := run([]string{"max31855", "read", "--backend", "mock", "--interval", "0s", "--format", "yaml"})
	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "thermocouple: 21.75")
	assert.Contains(t, out.String(), "internal: 24.5625")
}

func TestRun_Info(t *testing.T) {
	out, _ := captureOutput(t)
	assert.Equal(t, 0, run([]string{"max31855", "info"}))
	assert.Contains(t, out.String(), "model: max31855")
	assert.Contains(t, out.String(), "range_max: 1350")
}

func TestRun_UnknownBackend(t *testing.T) {
	captureOutput(t)
	assert.Equal(t, 1, run([]string{"max31855", "selftest", "--backend", "nope"}))
}
