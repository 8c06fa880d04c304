// boilersim is a bench-test slave that answers like an ectocontrol boiler
// adapter on a serial port. Pair it with a pty bridge, e.g.:
//
//	socat -d -d pty,raw,echo=0,link=/tmp/boiler pty,raw,echo=0,link=/tmp/host
//	boilersim --device /tmp/boiler
//	ectolink read --port /tmp/host --slave 1
package main

import (
	"encoding/binary"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goburrow/serial"
	"github.com/tbrandon/mbserver"
	"go.uber.org/zap"

	"github.com/ectotools/ectolink/internal/register"
)

func main() {
	device := flag.String("device", "/dev/ttyUSB1", "serial device to answer on")
	baud := flag.Int("baud", 19200, "baud rate")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	srv := mbserver.NewServer()
	seed(srv)
	srv.RegisterFunctionHandler(6, writeSingleRegister)

	if err := srv.ListenRTU(&serial.Config{
		Address:  *device,
		BaudRate: *baud,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  10 * time.Second,
	}); err != nil {
		logger.Fatal("serial listen failed", zap.String("device", *device), zap.Error(err))
	}
	defer srv.Close()

	logger.Info("boiler adapter simulator up",
		zap.String("device", *device),
		zap.Int("baud", *baud),
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("stopping")
}

// seed loads a plausible register image: a running boiler with the heating
// circuit active, no faults, and no outdoor probe connected.
func seed(srv *mbserver.Server) {
	set := func(addr, value uint16) { srv.HoldingRegisters[addr] = value }

	// Identity block.
	set(register.RegDeviceUID+0, 0x4543)
	set(register.RegDeviceUID+1, 0x544F)
	set(register.RegDeviceUID+2, 0x0001)
	set(register.RegDeviceUID+3, 0x9A27)

	// Status block.
	set(register.RegStatus, 0x0001)
	set(register.RegVersion, 0x0203) // 2.3
	set(register.RegUptime, 417)
	set(register.RegCHTemp, 543)    // 54.3 degC
	set(register.RegDHWTemp, 451)   // 45.1 degC
	set(register.RegPressure, 0x1200) // 1.8 bar
	set(register.RegFlow, 0x0000)
	set(register.RegModulation, 0x2E00) // 46 %
	set(register.RegStates, 0b00000011) // burner on, heating enabled
	set(register.RegMainError, register.SentinelU16)
	set(register.RegAddError, register.SentinelU16)
	set(register.RegOutdoorTemp, uint16(register.SentinelHighI8)<<8)
	set(register.RegMfgCode, 0x0056)
	set(register.RegModelCode, 0x0004)
	set(register.RegOTError, register.SentinelU16)
	set(register.RegCHSetpointActive, register.EncodeSetpoint(55.0))

	// Limit block.
	set(register.RegCHSetpoint, register.EncodeSetpoint(55.0))
	set(register.RegEmergencyCH, 40)
	set(register.RegCHMin, 30)
	set(register.RegCHMax, 80)
	set(register.RegDHWMin, 35)
	set(register.RegDHWMax, 60)
	set(register.RegDHWSetpoint, 50)
	set(register.RegMaxModulation, 100)
	set(register.RegCircuitEnable, 1<<register.CircuitHeating)

	set(register.RegCommandResult, 0)
}

// writeSingleRegister replaces the stock FC 6 handler so writes to the
// command register produce adapter-like side effects.
func writeSingleRegister(srv *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
	data := frame.GetData()
	if len(data) < 4 {
		return nil, &mbserver.IllegalDataValue
	}

	addr := binary.BigEndian.Uint16(data[0:2])
	value := binary.BigEndian.Uint16(data[2:4])
	srv.HoldingRegisters[addr] = value

	if addr == register.RegCommand {
		runCommand(srv, value)
	}

	return data[0:4], &mbserver.Success
}

func runCommand(srv *mbserver.Server, code uint16) {
	switch code {
	case register.CmdReboot:
		srv.HoldingRegisters[register.RegUptime] = 0
		srv.HoldingRegisters[register.RegCommandResult] = 0
	case register.CmdResetErrors:
		srv.HoldingRegisters[register.RegMainError] = register.SentinelU16
		srv.HoldingRegisters[register.RegAddError] = register.SentinelU16
		srv.HoldingRegisters[register.RegOTError] = register.SentinelU16
		srv.HoldingRegisters[register.RegCommandResult] = 0
	default:
		srv.HoldingRegisters[register.RegCommandResult] = 1 // unknown command
	}
}
