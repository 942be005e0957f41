package max31855

import (
	"context"
	"fmt"

	"github.com/mklimuk/thermocouple"
)

const wordSize = 4

// exchange clocks one 32-bit read out of the chip. The chip ignores MOSI so zeros are sent.
// On a short transfer the received prefix is kept and the rest stays zero.
func exchange(ctx context.Context, dev thermocouple.SPIDevice) ([wordSize]byte, error) {
	var buf [wordSize]byte
	var dummy [wordSize]byte
	rx, err := dev.Xfer(ctx, dummy[:])
	n := copy(buf[:], rx)
	if err != nil {
		return buf, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if n < wordSize {
		return buf, fmt.Errorf("%w: %w: got %d of %d bytes", ErrTransport, thermocouple.ErrShortTransfer, n, wordSize)
	}
	return buf, nil
}
