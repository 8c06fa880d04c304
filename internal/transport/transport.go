// internal/transport/transport.go
package transport

import (
	"fmt"
	"sync"
	"time"

	mb "github.com/goburrow/modbus"
	"go.uber.org/zap"
)

// Defaults match the adapter's documented bus parameters.
const (
	DefaultBaudRate = 19200
	DefaultTimeout  = 2 * time.Second
)

// Config describes one physical serial link. Framing is fixed 8N1.
type Config struct {
	Port     string
	BaudRate int
	Timeout  time.Duration
}

// Transport is the single point of serialized access to one half-duplex
// RS-485 link. One mutex is held for exactly one request/response exchange;
// it is never held across a logical multi-step operation, so a
// read-modify-write sequence takes the gate twice and accepts the
// interleave window between its read and its write.
type Transport struct {
	cfg Config
	log *zap.Logger

	mu      sync.Mutex
	handler *mb.RTUClientHandler
	client  mb.Client
}

// New creates an unconnected transport.
func New(cfg Config, log *zap.Logger) *Transport {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Transport{cfg: cfg, log: log}
}

// Connect opens the serial line. Calling Connect on an open transport
// closes the port and reopens it; on failure no partial state remains.
func (t *Transport) Connect() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.handler != nil {
		_ = t.handler.Close()
		t.handler = nil
		t.client = nil
	}

	h := mb.NewRTUClientHandler(t.cfg.Port)
	h.BaudRate = t.cfg.BaudRate
	h.DataBits = 8
	h.Parity = "N"
	h.StopBits = 1
	h.Timeout = t.cfg.Timeout

	if err := h.Connect(); err != nil {
		t.log.Error("serial open failed",
			zap.String("port", t.cfg.Port),
			zap.Error(err),
		)
		return classify(err)
	}

	t.handler = h
	t.client = mb.NewClient(h)
	t.log.Debug("serial port open",
		zap.String("port", t.cfg.Port),
		zap.Int("baud", t.cfg.BaudRate),
	)
	return nil
}

// Close releases the serial line. Safe to call when not connected.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.handler == nil {
		return nil
	}
	err := t.handler.Close()
	t.handler = nil
	t.client = nil
	return err
}

// Connected reports whether the serial line is open.
func (t *Transport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client != nil
}

// ReadRegisters reads count holding registers starting at start (FC 0x03).
// A non-zero timeout overrides the connection default for this call only.
func (t *Transport) ReadRegisters(slave uint8, start, count uint16, timeout time.Duration) ([]uint16, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client == nil {
		return nil, ErrNotConnected
	}

	t.prepare(slave, timeout)
	defer t.restore()

	raw, err := t.client.ReadHoldingRegisters(start, count)
	if err != nil {
		err = classify(err)
		t.log.Warn("register read failed",
			zap.Uint8("slave", slave),
			zap.Uint16("start", start),
			zap.Uint16("count", count),
			zap.Error(err),
		)
		return nil, err
	}
	if len(raw) != int(count)*2 {
		return nil, fmt.Errorf("%w: short response: %d bytes for %d registers", ErrIO, len(raw), count)
	}
	return unpackRegisters(raw), nil
}

// WriteRegister writes one holding register (FC 0x06). Single-register
// framing is used deliberately: some adapters reject FC 0x10 for single
// values.
func (t *Transport) WriteRegister(slave uint8, addr, value uint16) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client == nil {
		return ErrNotConnected
	}

	t.prepare(slave, 0)
	defer t.restore()

	if _, err := t.client.WriteSingleRegister(addr, value); err != nil {
		err = classify(err)
		t.log.Warn("register write failed",
			zap.Uint8("slave", slave),
			zap.Uint16("addr", addr),
			zap.Uint16("value", value),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// WriteRegisters writes a block of consecutive holding registers (FC 0x10).
func (t *Transport) WriteRegisters(slave uint8, start uint16, values []uint16) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client == nil {
		return ErrNotConnected
	}
	if len(values) == 0 {
		return nil
	}

	t.prepare(slave, 0)
	defer t.restore()

	if _, err := t.client.WriteMultipleRegisters(start, uint16(len(values)), packRegisters(values)); err != nil {
		err = classify(err)
		t.log.Warn("block write failed",
			zap.Uint8("slave", slave),
			zap.Uint16("start", start),
			zap.Int("count", len(values)),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// prepare mutates per-call handler state. Must hold t.mu.
func (t *Transport) prepare(slave uint8, timeout time.Duration) {
	t.handler.SlaveId = slave
	if timeout > 0 {
		t.handler.Timeout = timeout
	}
}

// restore undoes any per-call timeout override. Must hold t.mu.
func (t *Transport) restore() {
	t.handler.Timeout = t.cfg.Timeout
}

// ---- helpers (pure geometry) ----

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}
