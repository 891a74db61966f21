package vm

// Slave is the capability every device attached to a Bus must implement:
// RAM and every peripheral share this one shape.
type Slave interface {
	Read(local Address) (Cell, error)
	Write(local Address, value Cell) error
}

type binding struct {
	rng   AddressRange
	slave Slave
}

// Bus routes reads and writes to attached slaves by address range. Ranges
// are not required to be disjoint: the first attached range containing the
// address wins, so overlapping attachments are observable rather than
// rejected.
type Bus struct {
	attached []binding
}

// NewBus returns an empty Bus with nothing attached.
func NewBus() *Bus {
	return &Bus{}
}

// Attach binds slave to rng, in order. Later Attach calls for overlapping
// ranges are shadowed by earlier ones at dispatch time.
func (b *Bus) Attach(rng AddressRange, slave Slave) {
	b.attached = append(b.attached, binding{rng: rng, slave: slave})
}

// Read dispatches to the first attached slave whose range contains addr,
// translating to that slave's local offset. A miss is a BusFault.
func (b *Bus) Read(addr Address) (Cell, error) {
	for _, bind := range b.attached {
		if bind.rng.Contains(addr) {
			return bind.slave.Read(addr - bind.rng.Start)
		}
	}
	return 0, &BusFault{Addr: addr}
}

// Write dispatches to the first attached slave whose range contains addr,
// translating to that slave's local offset. A miss is a BusFault.
func (b *Bus) Write(addr Address, value Cell) error {
	for _, bind := range b.attached {
		if bind.rng.Contains(addr) {
			return bind.slave.Write(addr-bind.rng.Start, value)
		}
	}
	return &BusFault{Addr: addr}
}
