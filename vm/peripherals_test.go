package vm

import "time"

// argvSlave serves a fixed list of values as a read-only peripheral, one
// per address, mirroring an argv-backed input device.
type argvSlave struct {
	values []Cell
}

func newArgvSlave(values ...int) *argvSlave {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = Cell(v)
	}
	return &argvSlave{values: cells}
}

func (a *argvSlave) Read(local Address) (Cell, error) {
	return a.values[local], nil
}

func (a *argvSlave) Write(local Address, value Cell) error {
	return &DeviceFault{Addr: local, Msg: "argv peripheral is read-only"}
}

// tupleSink records the last value written at each address, for tests that
// only care about the final value observed per output cell.
type tupleSink struct {
	cells []Cell
}

func newTupleSink(size int) *tupleSink {
	return &tupleSink{cells: make([]Cell, size)}
}

func (t *tupleSink) Read(local Address) (Cell, error) { return 0, nil }

func (t *tupleSink) Write(local Address, value Cell) error {
	t.cells[local] = value
	return nil
}

func (t *tupleSink) values() []Cell { return t.cells }

// timedWrite is one write recorded by profiledSink.
type timedWrite struct {
	at    time.Time
	value Cell
}

// profiledSink appends every write at each address with a timestamp, for
// tests asserting on the cadence of a sequence of writes (e.g. a clock
// driven counter).
type profiledSink struct {
	queues [][]timedWrite
}

func newProfiledSink(numQueues int) *profiledSink {
	return &profiledSink{queues: make([][]timedWrite, numQueues)}
}

func (p *profiledSink) Read(local Address) (Cell, error) { return 0, nil }

func (p *profiledSink) Write(local Address, value Cell) error {
	p.queues[local] = append(p.queues[local], timedWrite{at: time.Now(), value: value})
	return nil
}

func (p *profiledSink) values(queue int) []timedWrite { return p.queues[queue] }
