// internal/register/registers.go
package register

// Register addresses of the ectocontrol boiler adapter.
// These values define the device protocol and MUST NOT be configurable.

// ---- STATUS / DIAGNOSTICS BLOCK (polled as one batch) ----

const (
	RegStatus           uint16 = 0x0010
	RegVersion          uint16 = 0x0011
	RegUptime           uint16 = 0x0012
	RegCHTemp           uint16 = 0x0018
	RegDHWTemp          uint16 = 0x0019
	RegPressure         uint16 = 0x001A
	RegFlow             uint16 = 0x001B
	RegModulation       uint16 = 0x001C
	RegStates           uint16 = 0x001D
	RegMainError        uint16 = 0x001E
	RegAddError         uint16 = 0x001F
	RegOutdoorTemp      uint16 = 0x0020
	RegMfgCode          uint16 = 0x0021
	RegModelCode        uint16 = 0x0022
	RegOTError          uint16 = 0x0023
	RegCHSetpointActive uint16 = 0x0026
)

// Poll geometry: one holding-register read covering 0x0010..0x0026 inclusive.
const (
	StatusBase  uint16 = 0x0010
	StatusCount uint16 = 23
)

// ---- WRITABLE SETPOINT / LIMIT BLOCK ----

const (
	RegCHSetpoint    uint16 = 0x0031
	RegEmergencyCH   uint16 = 0x0032
	RegCHMin         uint16 = 0x0033
	RegCHMax         uint16 = 0x0034
	RegDHWMin        uint16 = 0x0035
	RegDHWMax        uint16 = 0x0036
	RegDHWSetpoint   uint16 = 0x0037
	RegMaxModulation uint16 = 0x0038
	RegCircuitEnable uint16 = 0x0039
)

const (
	LimitsBase  uint16 = 0x0031
	LimitsCount uint16 = 9
)

// ---- COMMAND PAIR ----

const (
	RegCommand       uint16 = 0x0080
	RegCommandResult uint16 = 0x0081
)

// Command codes written to RegCommand.
const (
	CmdReboot      uint16 = 2
	CmdResetErrors uint16 = 3
)

// ---- DEVICE IDENTITY ----

// The hardware UID lives in a 4-register block read once at startup.
const (
	RegDeviceUID   uint16 = 0x0000
	DeviceUIDCount uint16 = 4
)

// ---- SENTINELS ----

const (
	SentinelI16     uint16 = 0x7FFF // "no reading" for full-register values
	SentinelU16     uint16 = 0xFFFF // "no error" / "no code"
	SentinelHighU8  uint8  = 0xFF   // "no reading" for high-byte-packed values
	SentinelHighI8  uint8  = 0x7F   // "no reading" for the signed outdoor probe
)

// State flag bit positions in the low byte of RegStates.
const (
	BitBurnerOn   uint = 0
	BitHeatingOn  uint = 1
	BitDHWOn      uint = 2
	BitFlameFault uint = 3
	BitDHWMode    uint = 4
)

// Circuit enable bit positions in RegCircuitEnable.
const (
	CircuitHeating uint = 0
	CircuitDHW     uint = 1
)
