// internal/transport/errors.go
package transport

import (
	"errors"
	"fmt"
	"os"

	mb "github.com/goburrow/modbus"
	"github.com/goburrow/serial"
)

// The transport never lets a raw driver error cross its boundary; every
// failure is wrapped in exactly one of these sentinels so callers can apply
// uniform retry logic without per-type branching.
var (
	// ErrNotConnected: I/O attempted before Connect succeeded.
	ErrNotConnected = errors.New("transport: not connected")

	// ErrTimeout: no response within the call's timeout.
	ErrTimeout = errors.New("transport: request timed out")

	// ErrProtocol: the device answered with an exception frame.
	ErrProtocol = errors.New("transport: device exception")

	// ErrIO: anything else from the serial layer.
	ErrIO = errors.New("transport: i/o error")
)

// Recoverable reports whether err is worth retrying on a later attempt.
// Device exceptions and a missing connection are terminal for the cycle.
func Recoverable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrIO)
}

// classify wraps a raw goburrow error in the matching sentinel.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var me *mb.ModbusError
	if errors.As(err, &me) {
		return fmt.Errorf("%w: fc=0x%02X code=%d", ErrProtocol, me.FunctionCode, me.ExceptionCode)
	}

	if errors.Is(err, serial.ErrTimeout) || os.IsTimeout(err) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrIO, err)
}
