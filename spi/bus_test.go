package spi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"

	"github.com/mklimuk/thermocouple"
)

var chipConfig = thermocouple.SPIConfig{MaxHz: 4_000_000, Mode: 0, Bits: 8}

func TestGenericRegistry_Open(t *testing.T) {
	playback := &spitest.Playback{}
	reg := NewRegistryWithOpener(func(name string) (spi.PortCloser, error) {
		if name != "SPI0.0" {
			return nil, errors.New("unknown port")
		}
		return playback, nil
	})

	port, err := reg.Open("SPI0.0")
	require.NoError(t, err)
	assert.NotNil(t, port)

	_, err = reg.Open("SPI9.9")
	assert.ErrorIs(t, err, thermocouple.ErrEndpointNotFound)
	assert.Contains(t, err.Error(), "SPI9.9")
}

func TestGenericDevice_Xfer(t *testing.T) {
	playback := &spitest.Playback{
		Playback: conntest.Playback{
			Ops: []conntest.IO{
				{W: []byte{0x00, 0x00, 0x00, 0x00}, R: []byte{0x64, 0x00, 0x19, 0x00}},
			},
		},
	}
	port := NewGenericPort(playback)
	dev, err := port.Connect(context.Background(), chipConfig)
	require.NoError(t, err)

	rx, err := dev.Xfer(context.Background(), make([]byte, 4))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x64, 0x00, 0x19, 0x00}, rx)
	require.NoError(t, port.Close())
}

func TestGenericDevice_XferError(t *testing.T) {
	playback := &spitest.Playback{
		Playback: conntest.Playback{DontPanic: true},
	}
	port := NewGenericPort(playback)
	dev, err := port.Connect(context.Background(), chipConfig)
	require.NoError(t, err)

	_, err = dev.Xfer(context.Background(), make([]byte, 4))
	assert.Error(t, err)
}

func TestGenericPort_ConnectOnce(t *testing.T) {
	port := NewGenericPort(&spitest.Playback{})
	_, err := port.Connect(context.Background(), chipConfig)
	require.NoError(t, err)
	_, err = port.Connect(context.Background(), chipConfig)
	assert.Error(t, err)
}

func TestGenericPort_InvalidSpeed(t *testing.T) {
	port := NewGenericPort(&spitest.Playback{})
	_, err := port.Connect(context.Background(), thermocouple.SPIConfig{Bits: 8})
	assert.Error(t, err)
}

func TestGenericRegistry_Claims(t *testing.T) {
	opened := 0
	reg := NewRegistryWithOpener(func(name string) (spi.PortCloser, error) {
		opened++
		return &spitest.Playback{}, nil
	})

	first, err := reg.Open("SPI0.0")
	require.NoError(t, err)
	_, err = first.Connect(context.Background(), chipConfig)
	require.NoError(t, err)

	// both names resolve to the same port
	_, err = reg.Open("")
	assert.ErrorIs(t, err, thermocouple.ErrEndpointBusy)

	require.NoError(t, first.Close())
	require.NoError(t, first.Close())
	_, err = first.Connect(context.Background(), chipConfig)
	assert.Error(t, err)

	again, err := reg.Open("SPI0.0")
	require.NoError(t, err)
	_, err = again.Connect(context.Background(), chipConfig)
	require.NoError(t, err)
	require.NoError(t, again.Close())
	assert.Equal(t, 3, opened)
}
