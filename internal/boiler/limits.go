// internal/boiler/limits.go
package boiler

import (
	"fmt"

	"github.com/ectotools/ectolink/internal/register"
)

// Limits is the writable setpoint/limit block. It is not part of the
// polled status snapshot, so it is read live on demand.
type Limits struct {
	CHSetpoint    float64 // degC, 1/256 fixed point on the wire
	EmergencyCH   uint16  // degC
	CHMin         uint16  // degC
	CHMax         uint16  // degC
	DHWMin        uint16  // degC
	DHWMax        uint16  // degC
	DHWSetpoint   uint16  // degC
	MaxModulation uint16  // percent
	CircuitEnable uint16  // raw bitmask, see register.CircuitHeating/CircuitDHW
}

// ReadLimits fetches the whole limit block in one batched read.
func (g *Gateway) ReadLimits() (*Limits, error) {
	regs, err := g.tr.ReadRegisters(g.slave, register.LimitsBase, register.LimitsCount, 0)
	if err != nil {
		return nil, err
	}
	if len(regs) != int(register.LimitsCount) {
		return nil, fmt.Errorf("boiler: limits: got %d registers, want %d", len(regs), register.LimitsCount)
	}

	at := func(addr uint16) uint16 { return regs[addr-register.LimitsBase] }

	return &Limits{
		CHSetpoint:    register.DecodeSetpoint(at(register.RegCHSetpoint)),
		EmergencyCH:   at(register.RegEmergencyCH),
		CHMin:         at(register.RegCHMin),
		CHMax:         at(register.RegCHMax),
		DHWMin:        at(register.RegDHWMin),
		DHWMax:        at(register.RegDHWMax),
		DHWSetpoint:   at(register.RegDHWSetpoint),
		MaxModulation: at(register.RegMaxModulation),
		CircuitEnable: at(register.RegCircuitEnable),
	}, nil
}
