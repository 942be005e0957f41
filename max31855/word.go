package max31855

import "fmt"

// Conversion factors from the datasheet.
const (
	InternalLSB     = 0.0625 // °C per LSB of the cold-junction field
	ThermocoupleLSB = 0.25   // °C per LSB of the thermocouple field
)

// Physical range of a K-type probe. Values outside are fault sentinels.
const (
	RangeMin = -200.0
	RangeMax = 1350.0
)

const (
	bitOpenCircuit = 1 << 0
	bitShortGND    = 1 << 1
	bitShortVCC    = 1 << 2
	bitAnyFault    = 1 << 16

	internalShift = 4
	internalWidth = 12
	thermoShift   = 18
	thermoWidth   = 14
)

// Fault is the thermocouple fault reported by the chip.
type Fault int

const (
	FaultNone Fault = iota
	FaultOpenCircuit
	FaultShortGND
	FaultShortVCC
	// FaultUnknown is reported when the any-fault flag is set without a cause bit.
	FaultUnknown
)

// Sentinel values returned instead of a thermocouple temperature.
const (
	SentinelOpenCircuit = -500.0
	SentinelShortGND    = -600.0
	SentinelShortVCC    = -700.0
	SentinelUnknown     = -800.0
)

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultOpenCircuit:
		return "open circuit"
	case FaultShortGND:
		return "short to GND"
	case FaultShortVCC:
		return "short to VCC"
	case FaultUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Fault(%d)", int(f))
	}
}

// Sentinel returns the out of range value standing for the fault. FaultNone has no sentinel
// and returns 0.
func (f Fault) Sentinel() float64 {
	switch f {
	case FaultOpenCircuit:
		return SentinelOpenCircuit
	case FaultShortGND:
		return SentinelShortGND
	case FaultShortVCC:
		return SentinelShortVCC
	case FaultUnknown:
		return SentinelUnknown
	default:
		return 0
	}
}

// IsFault reports whether a thermocouple value lies outside the probe's physical range
// and must be treated as a fault signal.
func IsFault(v float64) bool {
	return v < RangeMin || v > RangeMax
}

// Word is one raw 32-bit sample, most significant byte first on the wire.
type Word uint32

func wordFromBytes(b [4]byte) Word {
	return Word(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
}

// Internal returns the cold-junction temperature in °C. It is valid regardless of faults.
func (w Word) Internal() float64 {
	return float64(signExtend(uint32(w)>>internalShift, internalWidth)) * InternalLSB
}

// Thermocouple returns the probe temperature in °C ignoring the fault bits.
func (w Word) Thermocouple() float64 {
	return float64(signExtend(uint32(w)>>thermoShift, thermoWidth)) * ThermocoupleLSB
}

// Fault classifies the fault bits. Open circuit wins over short to GND which wins over short to VCC.
func (w Word) Fault() Fault {
	if w&bitAnyFault == 0 {
		return FaultNone
	}
	switch {
	case w&bitOpenCircuit != 0:
		return FaultOpenCircuit
	case w&bitShortGND != 0:
		return FaultShortGND
	case w&bitShortVCC != 0:
		return FaultShortVCC
	}
	return FaultUnknown
}

// ThermocoupleOrSentinel returns the fault sentinel if any fault is flagged, else the temperature.
func (w Word) ThermocoupleOrSentinel() float64 {
	if f := w.Fault(); f != FaultNone {
		return f.Sentinel()
	}
	return w.Thermocouple()
}

// signExtend interprets the low width bits of v as a two's complement number.
func signExtend(v uint32, width uint) int32 {
	shift := 32 - width
	return int32(v<<shift) >> shift
}
