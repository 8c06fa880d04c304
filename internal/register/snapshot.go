// internal/register/snapshot.go
package register

// Snapshot is one complete poll of the status block, keyed by register
// address. A snapshot is never mutated after publication; the poller
// replaces the whole map on every successful cycle.
type Snapshot map[uint16]uint16

// Get returns the raw value at addr and whether it was polled at all.
func (s Snapshot) Get(addr uint16) (uint16, bool) {
	v, ok := s[addr]
	return v, ok
}
