package verify

// State is a step of a round-trip scenario. States are passed strictly in order.
type State int

const (
	Init State = iota
	Snapshotted
	Mutated
	Written
	Verified
	Restored
	Done
)

var stateNames = [...]string{
	Init:        "init",
	Snapshotted: "snapshotted",
	Mutated:     "mutated",
	Written:     "written",
	Verified:    "verified",
	Restored:    "restored",
	Done:        "done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
