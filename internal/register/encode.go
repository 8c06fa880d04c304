// internal/register/encode.go
package register

import "math"

// EncodeSetpoint converts degrees Celsius into the device's 1/256-degree
// two's-complement fixed point, clamped to the representable range.
func EncodeSetpoint(deg float64) uint16 {
	raw := math.Round(deg * 256)
	if raw > math.MaxInt16 {
		raw = math.MaxInt16
	}
	if raw < math.MinInt16 {
		raw = math.MinInt16
	}
	return uint16(int16(raw))
}

// DecodeSetpoint is the inverse of EncodeSetpoint.
func DecodeSetpoint(raw uint16) float64 {
	return float64(int16(raw)) / 256
}

// EncodeByte clamps a whole-unit value (degrees, percent) into the single
// byte the limit registers store.
func EncodeByte(v int) uint16 {
	if v < 0 {
		v = 0
	}
	if v > 0xFF {
		v = 0xFF
	}
	return uint16(v)
}

// SetBit returns v with bit set.
func SetBit(v uint16, bit uint) uint16 {
	return v | 1<<bit
}

// ClearBit returns v with bit cleared.
func ClearBit(v uint16, bit uint) uint16 {
	return v &^ (1 << bit)
}
