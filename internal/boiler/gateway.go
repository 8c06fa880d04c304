// internal/boiler/gateway.go
package boiler

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ectotools/ectolink/internal/register"
)

// Transport is the register I/O the gateway needs from the serial link.
type Transport interface {
	ReadRegisters(slave uint8, start, count uint16, timeout time.Duration) ([]uint16, error)
	WriteRegister(slave uint8, addr, value uint16) error
}

// SnapshotFunc returns the current last-known-good register snapshot.
type SnapshotFunc func() register.Snapshot

// Gateway exposes one boiler adapter slave as typed readings and commands.
// Readings are recomputed from the snapshot on every call; commands go
// straight to the device through the shared transport gate.
type Gateway struct {
	tr    Transport
	slave uint8
	snap  SnapshotFunc
	log   *zap.Logger

	mu  sync.Mutex
	uid []uint16 // hardware UID block, cached after the first successful read
}

// New binds a gateway to one slave address. snap supplies the snapshot the
// getters decode; the gateway never mutates it.
func New(tr Transport, slave uint8, snap SnapshotFunc, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	if snap == nil {
		snap = func() register.Snapshot { return register.Snapshot{} }
	}
	return &Gateway{tr: tr, slave: slave, snap: snap, log: log}
}

// Slave returns the bound slave address.
func (g *Gateway) Slave() uint8 { return g.slave }

// ---------- READ ACCESSORS (pure over the snapshot) ----------

// CHTemperature is the central-heating flow temperature in degC.
func (g *Gateway) CHTemperature() (float64, bool) {
	return register.Value(g.snap(), register.RegCHTemp)
}

// DHWTemperature is the domestic hot water temperature in degC.
func (g *Gateway) DHWTemperature() (float64, bool) {
	return register.Value(g.snap(), register.RegDHWTemp)
}

// Pressure is the circuit pressure in bar.
func (g *Gateway) Pressure() (float64, bool) {
	return register.Value(g.snap(), register.RegPressure)
}

// FlowRate is the DHW flow in l/min.
func (g *Gateway) FlowRate() (float64, bool) {
	return register.Value(g.snap(), register.RegFlow)
}

// ModulationLevel is the burner modulation in percent.
func (g *Gateway) ModulationLevel() (int, bool) {
	v, ok := register.Value(g.snap(), register.RegModulation)
	return int(v), ok
}

// OutdoorTemperature is the outdoor probe reading in whole degC.
func (g *Gateway) OutdoorTemperature() (int, bool) {
	v, ok := register.Value(g.snap(), register.RegOutdoorTemp)
	return int(v), ok
}

// ActiveCHSetpoint is the setpoint the boiler is currently chasing, degC.
func (g *Gateway) ActiveCHSetpoint() (float64, bool) {
	return register.Value(g.snap(), register.RegCHSetpointActive)
}

func (g *Gateway) BurnerOn() (bool, bool) {
	return register.Flag(g.snap(), register.RegStates, register.BitBurnerOn)
}

func (g *Gateway) HeatingEnabled() (bool, bool) {
	return register.Flag(g.snap(), register.RegStates, register.BitHeatingOn)
}

func (g *Gateway) DHWEnabled() (bool, bool) {
	return register.Flag(g.snap(), register.RegStates, register.BitDHWOn)
}

func (g *Gateway) FlameFault() (bool, bool) {
	return register.Flag(g.snap(), register.RegStates, register.BitFlameFault)
}

// MainError is the boiler's primary fault code; absent means no fault.
func (g *Gateway) MainError() (uint16, bool) {
	return register.Code(g.snap(), register.RegMainError)
}

func (g *Gateway) AdditionalError() (uint16, bool) {
	return register.Code(g.snap(), register.RegAddError)
}

// OTError is the OpenTherm link fault code.
func (g *Gateway) OTError() (uint16, bool) {
	return register.Code(g.snap(), register.RegOTError)
}

func (g *Gateway) ManufacturerCode() (uint16, bool) {
	return register.Code(g.snap(), register.RegMfgCode)
}

func (g *Gateway) ModelCode() (uint16, bool) {
	return register.Code(g.snap(), register.RegModelCode)
}

// AdapterStatus is the raw adapter status word.
func (g *Gateway) AdapterStatus() (uint16, bool) {
	return g.snap().Get(register.RegStatus)
}

// FirmwareVersion splits the version register into major.minor.
func (g *Gateway) FirmwareVersion() (major, minor uint8, ok bool) {
	raw, ok := g.snap().Get(register.RegVersion)
	if !ok {
		return 0, 0, false
	}
	return uint8(raw >> 8), uint8(raw & 0xFF), true
}

// Uptime is the adapter's uptime counter, raw device units.
func (g *Gateway) Uptime() (uint16, bool) {
	return g.snap().Get(register.RegUptime)
}

// ---------- WRITE PATH ----------

// SetCHSetpoint writes the heating setpoint in 1/256-degree fixed point.
func (g *Gateway) SetCHSetpoint(deg float64) error {
	return g.tr.WriteRegister(g.slave, register.RegCHSetpoint, register.EncodeSetpoint(deg))
}

// SetEmergencyCHSetpoint writes the fallback setpoint used when the
// controlling system goes silent.
func (g *Gateway) SetEmergencyCHSetpoint(deg int) error {
	return g.tr.WriteRegister(g.slave, register.RegEmergencyCH, register.EncodeByte(deg))
}

// SetDHWSetpoint writes the hot-water setpoint in whole degrees.
func (g *Gateway) SetDHWSetpoint(deg int) error {
	return g.tr.WriteRegister(g.slave, register.RegDHWSetpoint, register.EncodeByte(deg))
}

// SetCHMinLimit / SetCHMaxLimit bound the heating setpoint range.
func (g *Gateway) SetCHMinLimit(deg int) error {
	return g.tr.WriteRegister(g.slave, register.RegCHMin, register.EncodeByte(deg))
}

func (g *Gateway) SetCHMaxLimit(deg int) error {
	return g.tr.WriteRegister(g.slave, register.RegCHMax, register.EncodeByte(deg))
}

// SetMaxModulation caps burner modulation, percent.
func (g *Gateway) SetMaxModulation(pct int) error {
	return g.tr.WriteRegister(g.slave, register.RegMaxModulation, register.EncodeByte(pct))
}

// SetCircuitEnable flips one enable bit of the circuit register via
// read-modify-write. The current value comes from a live read, not the
// snapshot, so a poll from seconds ago cannot clobber fresher bits. When
// that pre-read fails the current value is taken as zero and the write
// proceeds: the deployed fleet depends on enable commands landing even
// while the boiler is flapping, so losing the sibling bits is preferred
// over failing the command. The read and the write are two independent
// gate acquisitions; the window between them is accepted.
func (g *Gateway) SetCircuitEnable(bit uint, enabled bool) error {
	var current uint16
	regs, err := g.tr.ReadRegisters(g.slave, register.RegCircuitEnable, 1, 0)
	if err != nil {
		g.log.Warn("circuit pre-read failed, assuming zero",
			zap.Uint("bit", bit),
			zap.Error(err),
		)
	} else if len(regs) == 1 {
		current = regs[0]
	}

	next := register.ClearBit(current, bit)
	if enabled {
		next = register.SetBit(current, bit)
	}
	return g.tr.WriteRegister(g.slave, register.RegCircuitEnable, next)
}

// SetHeatingEnabled toggles the central-heating circuit.
func (g *Gateway) SetHeatingEnabled(on bool) error {
	return g.SetCircuitEnable(register.CircuitHeating, on)
}

// SetDHWEnabled toggles the hot-water circuit.
func (g *Gateway) SetDHWEnabled(on bool) error {
	return g.SetCircuitEnable(register.CircuitDHW, on)
}

// RebootAdapter asks the adapter to restart.
func (g *Gateway) RebootAdapter() error {
	return g.tr.WriteRegister(g.slave, register.RegCommand, register.CmdReboot)
}

// ResetBoilerErrors clears latched boiler faults.
func (g *Gateway) ResetBoilerErrors() error {
	return g.tr.WriteRegister(g.slave, register.RegCommand, register.CmdResetErrors)
}

// CommandResult reads the result register of the last command from the
// live device.
func (g *Gateway) CommandResult() (uint16, error) {
	regs, err := g.tr.ReadRegisters(g.slave, register.RegCommandResult, 1, 0)
	if err != nil {
		return 0, err
	}
	if len(regs) != 1 {
		return 0, fmt.Errorf("boiler: command result: got %d registers", len(regs))
	}
	return regs[0], nil
}

// ---------- DEVICE IDENTITY ----------

// DeviceUID reads the hardware identifier block once and caches it; a
// failed read leaves the cache empty so the next call retries. The returned
// slice is the caller's own copy.
func (g *Gateway) DeviceUID() ([]uint16, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.uid == nil {
		regs, err := g.tr.ReadRegisters(g.slave, register.RegDeviceUID, register.DeviceUIDCount, 0)
		if err != nil {
			return nil, err
		}
		if len(regs) != int(register.DeviceUIDCount) {
			return nil, fmt.Errorf("boiler: device uid: got %d registers", len(regs))
		}
		g.uid = regs
	}
	return append([]uint16(nil), g.uid...), nil
}

// DeviceUIDHex formats the UID for display; empty when unavailable.
func (g *Gateway) DeviceUIDHex() string {
	uid, err := g.DeviceUID()
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, r := range uid {
		fmt.Fprintf(&b, "%04x", r)
	}
	return b.String()
}
