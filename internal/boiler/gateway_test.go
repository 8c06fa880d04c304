// internal/boiler/gateway_test.go
package boiler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ectotools/ectolink/internal/register"
)

type write struct {
	addr  uint16
	value uint16
}

// fakeTransport scripts reads per start address and records writes.
type fakeTransport struct {
	reads   map[uint16][]uint16
	readErr map[uint16]error
	writes  []write
	nreads  int
}

func (f *fakeTransport) ReadRegisters(slave uint8, start, count uint16, timeout time.Duration) ([]uint16, error) {
	f.nreads++
	if err := f.readErr[start]; err != nil {
		return nil, err
	}
	regs, ok := f.reads[start]
	if !ok {
		return make([]uint16, count), nil
	}
	return regs, nil
}

func (f *fakeTransport) WriteRegister(slave uint8, addr, value uint16) error {
	f.writes = append(f.writes, write{addr, value})
	return nil
}

func newGateway(tr Transport, snap register.Snapshot) *Gateway {
	return New(tr, 1, func() register.Snapshot { return snap }, nil)
}

func TestGetters_SpecVectors(t *testing.T) {
	g := newGateway(&fakeTransport{}, register.Snapshot{
		register.RegStates:           0b00000110,
		register.RegCHSetpointActive: 0xFF00,
		register.RegOutdoorTemp:      0x7F00,
	})

	burner, ok := g.BurnerOn()
	require.True(t, ok)
	assert.False(t, burner)

	heating, ok := g.HeatingEnabled()
	require.True(t, ok)
	assert.True(t, heating)

	dhw, ok := g.DHWEnabled()
	require.True(t, ok)
	assert.True(t, dhw)

	sp, ok := g.ActiveCHSetpoint()
	require.True(t, ok)
	assert.InDelta(t, -1.0, sp, 1e-9)

	_, ok = g.OutdoorTemperature()
	assert.False(t, ok, "0x7F high byte is the outdoor sentinel")
}

func TestGetters_AbsentOnEmptySnapshot(t *testing.T) {
	g := newGateway(&fakeTransport{}, register.Snapshot{})

	_, ok := g.CHTemperature()
	assert.False(t, ok)
	_, ok = g.BurnerOn()
	assert.False(t, ok)
	_, ok = g.MainError()
	assert.False(t, ok)
	_, _, ok = g.FirmwareVersion()
	assert.False(t, ok)
}

func TestFirmwareVersion(t *testing.T) {
	g := newGateway(&fakeTransport{}, register.Snapshot{register.RegVersion: 0x0203})

	major, minor, ok := g.FirmwareVersion()
	require.True(t, ok)
	assert.Equal(t, uint8(2), major)
	assert.Equal(t, uint8(3), minor)
}

func TestSetCHSetpoint_Encodes(t *testing.T) {
	tr := &fakeTransport{}
	g := newGateway(tr, nil)

	require.NoError(t, g.SetCHSetpoint(21.5))
	require.Len(t, tr.writes, 1)
	assert.Equal(t, write{register.RegCHSetpoint, 0x1580}, tr.writes[0])
}

func TestSetDHWSetpoint_WholeDegrees(t *testing.T) {
	tr := &fakeTransport{}
	g := newGateway(tr, nil)

	require.NoError(t, g.SetDHWSetpoint(55))
	assert.Equal(t, write{register.RegDHWSetpoint, 55}, tr.writes[0])
}

func TestSetCircuitEnable_PreservesOtherBits(t *testing.T) {
	tr := &fakeTransport{reads: map[uint16][]uint16{
		register.RegCircuitEnable: {0b1001},
	}}
	g := newGateway(tr, nil)

	require.NoError(t, g.SetCircuitEnable(2, true))
	require.Len(t, tr.writes, 1)
	assert.Equal(t, write{register.RegCircuitEnable, 0b1101}, tr.writes[0])

	require.NoError(t, g.SetCircuitEnable(0, false))
	assert.Equal(t, write{register.RegCircuitEnable, 0b1000}, tr.writes[1])
}

func TestSetCircuitEnable_PreReadFailureAssumesZero(t *testing.T) {
	tr := &fakeTransport{readErr: map[uint16]error{
		register.RegCircuitEnable: errors.New("transport: request timed out"),
	}}
	g := newGateway(tr, nil)

	require.NoError(t, g.SetHeatingEnabled(true))
	require.Len(t, tr.writes, 1)
	assert.Equal(t, write{register.RegCircuitEnable, 1 << register.CircuitHeating}, tr.writes[0])

	require.NoError(t, g.SetDHWEnabled(false))
	assert.Equal(t, write{register.RegCircuitEnable, 0}, tr.writes[1])
}

func TestCommands(t *testing.T) {
	tr := &fakeTransport{}
	g := newGateway(tr, nil)

	require.NoError(t, g.RebootAdapter())
	require.NoError(t, g.ResetBoilerErrors())

	assert.Equal(t, write{register.RegCommand, register.CmdReboot}, tr.writes[0])
	assert.Equal(t, write{register.RegCommand, register.CmdResetErrors}, tr.writes[1])
}

func TestCommandResult(t *testing.T) {
	tr := &fakeTransport{reads: map[uint16][]uint16{
		register.RegCommandResult: {0x0001},
	}}
	g := newGateway(tr, nil)

	res, err := g.CommandResult()
	require.NoError(t, err)
	assert.Equal(t, uint16(1), res)
}

func TestDeviceUID_CachedAfterFirstRead(t *testing.T) {
	tr := &fakeTransport{reads: map[uint16][]uint16{
		register.RegDeviceUID: {0x1234, 0xABCD, 0x0001, 0xFF00},
	}}
	g := newGateway(tr, nil)

	uid, err := g.DeviceUID()
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x1234, 0xABCD, 0x0001, 0xFF00}, uid)
	assert.Equal(t, "1234abcd0001ff00", g.DeviceUIDHex())

	before := tr.nreads
	_, err = g.DeviceUID()
	require.NoError(t, err)
	assert.Equal(t, before, tr.nreads, "second call must hit the cache")
}

func TestDeviceUID_ReturnsCopyOfCache(t *testing.T) {
	tr := &fakeTransport{reads: map[uint16][]uint16{
		register.RegDeviceUID: {0x1234, 0xABCD, 0x0001, 0xFF00},
	}}
	g := newGateway(tr, nil)

	uid, err := g.DeviceUID()
	require.NoError(t, err)
	uid[0] = 0xDEAD

	again, err := g.DeviceUID()
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x1234, 0xABCD, 0x0001, 0xFF00}, again,
		"mutating a returned slice must not reach the cache")
}

func TestDeviceUID_FailureRetriesNextCall(t *testing.T) {
	tr := &fakeTransport{readErr: map[uint16]error{
		register.RegDeviceUID: errors.New("transport: not connected"),
	}}
	g := newGateway(tr, nil)

	_, err := g.DeviceUID()
	assert.Error(t, err)
	assert.Empty(t, g.DeviceUIDHex())

	delete(tr.readErr, register.RegDeviceUID)
	tr.reads = map[uint16][]uint16{register.RegDeviceUID: {1, 2, 3, 4}}

	uid, err := g.DeviceUID()
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 2, 3, 4}, uid)
}

func TestReadLimits(t *testing.T) {
	tr := &fakeTransport{reads: map[uint16][]uint16{
		register.LimitsBase: {
			0x1600, // CH setpoint 22.0
			40,     // emergency CH
			30,     // CH min
			80,     // CH max
			35,     // DHW min
			60,     // DHW max
			50,     // DHW setpoint
			100,    // max modulation
			0b11,   // both circuits enabled
		},
	}}
	g := newGateway(tr, nil)

	lim, err := g.ReadLimits()
	require.NoError(t, err)
	assert.InDelta(t, 22.0, lim.CHSetpoint, 1e-9)
	assert.Equal(t, uint16(30), lim.CHMin)
	assert.Equal(t, uint16(80), lim.CHMax)
	assert.Equal(t, uint16(50), lim.DHWSetpoint)
	assert.Equal(t, uint16(100), lim.MaxModulation)
	assert.Equal(t, uint16(0b11), lim.CircuitEnable)
}
