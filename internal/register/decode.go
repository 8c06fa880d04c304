// internal/register/decode.go
package register

// Kind selects how a raw 16-bit register value maps onto a physical quantity.
type Kind int

const (
	// ScaledI16: full register, two's complement, sentinel 0x7FFF.
	ScaledI16 Kind = iota
	// ScaledU16: full register, unsigned, sentinel 0x7FFF.
	ScaledU16
	// HighByteU8: value packed into the high byte, sentinel 0xFF.
	HighByteU8
	// HighByteI8: two's-complement high byte, sentinel 0x7F.
	HighByteI8
	// PlainU16: unsigned full register, sentinel 0xFFFF.
	PlainU16
)

// Rule declares how one register decodes.
// Scale is the divisor applied after sign handling; 1 means none.
type Rule struct {
	Kind  Kind
	Scale float64
}

// rules is the decode table for every readable quantity in the status block.
// Addresses without a rule (status word, version, uptime, bit fields) are
// read raw through Snapshot.Get.
var rules = map[uint16]Rule{
	RegCHTemp:           {ScaledI16, 10},
	RegDHWTemp:          {ScaledU16, 10},
	RegPressure:         {HighByteU8, 10},
	RegFlow:             {HighByteU8, 10},
	RegModulation:       {HighByteU8, 1},
	RegOutdoorTemp:      {HighByteI8, 1},
	RegCHSetpointActive: {ScaledI16, 256},
	RegMainError:        {PlainU16, 1},
	RegAddError:         {PlainU16, 1},
	RegOTError:          {PlainU16, 1},
	RegMfgCode:          {PlainU16, 1},
	RegModelCode:        {PlainU16, 1},
}

// Decode applies addr's rule to a raw register value.
// ok is false when addr has no rule or raw equals the rule's sentinel.
// A sentinel is never coerced to zero.
func Decode(addr, raw uint16) (float64, bool) {
	r, ok := rules[addr]
	if !ok {
		return 0, false
	}

	switch r.Kind {
	case ScaledI16:
		if raw == SentinelI16 {
			return 0, false
		}
		return float64(int16(raw)) / r.Scale, true

	case ScaledU16:
		if raw == SentinelI16 {
			return 0, false
		}
		return float64(raw) / r.Scale, true

	case HighByteU8:
		hb := uint8(raw >> 8)
		if hb == SentinelHighU8 {
			return 0, false
		}
		return float64(hb) / r.Scale, true

	case HighByteI8:
		hb := uint8(raw >> 8)
		if hb == SentinelHighI8 {
			return 0, false
		}
		return float64(int8(hb)) / r.Scale, true

	case PlainU16:
		if raw == SentinelU16 {
			return 0, false
		}
		return float64(raw), true
	}

	return 0, false
}

// Value decodes addr out of a snapshot. Absent when the register was not
// polled or holds its sentinel.
func Value(s Snapshot, addr uint16) (float64, bool) {
	raw, ok := s.Get(addr)
	if !ok {
		return 0, false
	}
	return Decode(addr, raw)
}

// Flag reads one boolean from the low byte of addr. The second result is
// false only when the whole register is missing from the snapshot; the
// flags themselves have no per-bit sentinel.
func Flag(s Snapshot, addr uint16, bit uint) (value, ok bool) {
	raw, present := s.Get(addr)
	if !present {
		return false, false
	}
	lsb := raw & 0xFF
	return lsb&(1<<bit) != 0, true
}

// Code reads an unsigned code register where 0xFFFF means "none".
func Code(s Snapshot, addr uint16) (uint16, bool) {
	raw, present := s.Get(addr)
	if !present || raw == SentinelU16 {
		return 0, false
	}
	return raw, true
}
