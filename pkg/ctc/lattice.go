package ctc

// Topology selects how target runs may be laid over signal blocks.
type Topology uint8

const (
	// TopologySlack separates runs with an optional stay symbol, reserved
	// as the last symbol index.
	TopologySlack Topology = iota
	// TopologyExact requires the runs to tile the blocks with no stays.
	TopologyExact
)

func (t Topology) String() string {
	switch t {
	case TopologySlack:
		return "slack"
	case TopologyExact:
		return "exact"
	}
	return "unknown"
}

// Lattice state flags. A state without flags is only reachable from its
// immediate predecessor.
const (
	latLoop uint8 = 1 << iota // state may repeat across blocks
	latSkip                   // state may be entered from two states back
)

// lattice is the expanded state chain of one target. States appear in the
// order an alignment must visit them; a state emits its symbol once for
// every block spent in it. Transitions are implicit: every state is reachable from
// its predecessor, latLoop states from themselves, latSkip states also from
// two back (hopping the optional stay between distinct runs).
type lattice struct {
	emit  []int32
	flags []uint8
}

func (l *lattice) n() int { return len(l.emit) }

func (l *lattice) reset() {
	l.emit = l.emit[:0]
	l.flags = l.flags[:0]
}

func (l *lattice) push(emit int32, flags uint8) {
	l.emit = append(l.emit, emit)
	l.flags = append(l.flags, flags)
}

// build lays out the state chain for one target. For TopologySlack the chain
// interleaves stay states with the runs:
//
//	[stay] run0... [stay] run1... [stay]
//
// where each run contributes exactly its run length of states and each stay
// is optional, except that a stay between two runs of the same symbol is the
// only way to cross that boundary (no skip flag is set there). TopologyExact
// yields just the concatenated runs.
func (l *lattice) build(seq, runs []int32, stay int32, topo Topology) {
	l.reset()
	slack := topo == TopologySlack
	if slack {
		l.push(stay, latLoop)
	}
	for i := range seq {
		var flags uint8
		if slack && i > 0 && seq[i] != seq[i-1] {
			flags = latSkip
		}
		l.push(seq[i], flags)
		for k := int32(1); k < runs[i]; k++ {
			l.push(seq[i], 0)
		}
		if slack {
			l.push(stay, latLoop)
		}
	}
}

// entryStates reports how many of the leading states an alignment may start
// in: the first state, plus the second when the first is an optional stay.
func (l *lattice) entryStates() int {
	if len(l.emit) > 1 && l.flags[0]&latLoop != 0 {
		return 2
	}
	return min(len(l.emit), 1)
}

// exitStates reports how many of the trailing states an alignment may end
// in, mirroring entryStates.
func (l *lattice) exitStates() int {
	s := len(l.emit)
	if s > 1 && l.flags[s-1]&latLoop != 0 {
		return 2
	}
	return min(s, 1)
}
