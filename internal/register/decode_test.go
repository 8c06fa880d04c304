// internal/register/decode_test.go
package register

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode_SentinelsAreAbsent(t *testing.T) {
	cases := []struct {
		name string
		addr uint16
		raw  uint16
	}{
		{"ch temp", RegCHTemp, 0x7FFF},
		{"dhw temp", RegDHWTemp, 0x7FFF},
		{"active setpoint", RegCHSetpointActive, 0x7FFF},
		{"pressure high byte", RegPressure, 0xFF00},
		{"flow high byte", RegFlow, 0xFF21},
		{"modulation high byte", RegModulation, 0xFF00},
		{"outdoor high byte", RegOutdoorTemp, 0x7F00},
		{"main error", RegMainError, 0xFFFF},
		{"additional error", RegAddError, 0xFFFF},
		{"ot error", RegOTError, 0xFFFF},
		{"manufacturer code", RegMfgCode, 0xFFFF},
		{"model code", RegModelCode, 0xFFFF},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := Decode(tc.addr, tc.raw)
			assert.False(t, ok, "sentinel must decode as absent")
		})
	}
}

func TestDecode_ZeroIsAValue(t *testing.T) {
	// Zero is a legitimate reading everywhere, never a stand-in for absent.
	for _, addr := range []uint16{RegCHTemp, RegDHWTemp, RegPressure, RegModulation, RegOutdoorTemp, RegCHSetpointActive} {
		v, ok := Decode(addr, 0x0000)
		assert.True(t, ok, "addr 0x%04X", addr)
		assert.Equal(t, 0.0, v)
	}
}

func TestDecode_ScaledSigned(t *testing.T) {
	v, ok := Decode(RegCHTemp, 543)
	assert.True(t, ok)
	assert.InDelta(t, 54.3, v, 1e-9)

	// -12.5 degC as two's complement
	v, ok = Decode(RegCHTemp, uint16(0x10000-125))
	assert.True(t, ok)
	assert.InDelta(t, -12.5, v, 1e-9)
}

func TestDecode_ActiveSetpointNegative(t *testing.T) {
	// 0xFF00 = -256/256 = -1.0 degC
	v, ok := Decode(RegCHSetpointActive, 0xFF00)
	assert.True(t, ok)
	assert.InDelta(t, -1.0, v, 1e-9)
}

func TestDecode_HighBytePacked(t *testing.T) {
	v, ok := Decode(RegPressure, 0x1200) // high byte 18 -> 1.8 bar
	assert.True(t, ok)
	assert.InDelta(t, 1.8, v, 1e-9)

	v, ok = Decode(RegModulation, 0x2E17) // low byte ignored
	assert.True(t, ok)
	assert.Equal(t, 46.0, v)
}

func TestDecode_OutdoorSignedHighByte(t *testing.T) {
	v, ok := Decode(RegOutdoorTemp, 0xF600) // int8(0xF6) = -10
	assert.True(t, ok)
	assert.Equal(t, -10.0, v)

	_, ok = Decode(RegOutdoorTemp, 0x7F33)
	assert.False(t, ok)
}

func TestValue_MissingRegisterIsAbsent(t *testing.T) {
	snap := Snapshot{RegCHTemp: 210}

	_, ok := Value(snap, RegDHWTemp)
	assert.False(t, ok)

	v, ok := Value(snap, RegCHTemp)
	assert.True(t, ok)
	assert.InDelta(t, 21.0, v, 1e-9)
}

func TestFlag_StateBits(t *testing.T) {
	snap := Snapshot{RegStates: 0b00000110}

	burner, ok := Flag(snap, RegStates, BitBurnerOn)
	assert.True(t, ok)
	assert.False(t, burner)

	heating, ok := Flag(snap, RegStates, BitHeatingOn)
	assert.True(t, ok)
	assert.True(t, heating)

	dhw, ok := Flag(snap, RegStates, BitDHWOn)
	assert.True(t, ok)
	assert.True(t, dhw)

	// High byte does not leak into the flags.
	snap[RegStates] = 0xFF00
	burner, ok = Flag(snap, RegStates, BitBurnerOn)
	assert.True(t, ok)
	assert.False(t, burner)

	_, ok = Flag(Snapshot{}, RegStates, BitBurnerOn)
	assert.False(t, ok, "missing register means absent, not false")
}

func TestCode(t *testing.T) {
	snap := Snapshot{RegMainError: 0x0007, RegAddError: 0xFFFF}

	code, ok := Code(snap, RegMainError)
	assert.True(t, ok)
	assert.Equal(t, uint16(7), code)

	_, ok = Code(snap, RegAddError)
	assert.False(t, ok)

	_, ok = Code(snap, RegOTError)
	assert.False(t, ok)
}
