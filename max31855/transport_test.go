package max31855

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mklimuk/thermocouple"
)

func TestExchange(t *testing.T) {
	tests := []struct {
		name     string
		rx       []byte
		err      error
		expected [4]byte
		wantErr  error
	}{
		{"full word", []byte{0x64, 0x01, 0x19, 0x01}, nil, [4]byte{0x64, 0x01, 0x19, 0x01}, nil},
		{"short", []byte{0x64, 0x01}, nil, [4]byte{0x64, 0x01, 0x00, 0x00}, thermocouple.ErrShortTransfer},
		{"empty", nil, nil, [4]byte{}, thermocouple.ErrShortTransfer},
		{"failed", nil, errors.New("bus error"), [4]byte{}, ErrTransport},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			bus := new(MockSPIDevice)
			bus.On("Xfer", mock.Anything, dummy).Return(test.rx, test.err).Once()
			buf, err := exchange(context.Background(), bus)
			assert.Equal(t, test.expected, buf)
			if test.wantErr != nil {
				assert.ErrorIs(t, err, test.wantErr)
				assert.ErrorIs(t, err, ErrTransport)
			} else {
				assert.NoError(t, err)
			}
			bus.AssertExpectations(t)
		})
	}
}
