package conditions

import (
	"errors"
	"fmt"
)

// ErrUnknownAction is returned for an action keyword that isn't
// unblock, stop_receiving or proceed.
var ErrUnknownAction = errors.New("unknown action")

// Action is what the sequencer is told to do with a read once its
// decision is made.
type Action int

const (
	// Unblock ejects the read from the pore
	Unblock Action = iota

	// StopReceiving lets the read finish sequencing without further decisions
	StopReceiving

	// Proceed keeps sequencing and revisits the read on its next chunk
	Proceed
)

// ParseAction converts an action keyword from an experiment TOML into an Action.
func ParseAction(keyword string) (Action, error) {
	switch keyword {
	case "unblock":
		return Unblock, nil
	case "stop_receiving":
		return StopReceiving, nil
	case "proceed":
		return Proceed, nil
	}
	return Unblock, fmt.Errorf("%w %q: expected unblock, stop_receiving or proceed", ErrUnknownAction, keyword)
}

// String returns the action's TOML keyword.
func (a Action) String() string {
	switch a {
	case StopReceiving:
		return "stop_receiving"
	case Proceed:
		return "proceed"
	}
	return "unblock"
}

// MarshalText writes the action as its keyword.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Decision is the outcome class of a read's alignment.
type Decision int

const (
	// SingleOff is a single mapping outside the targets
	SingleOff Decision = iota

	// SingleOn is a single mapping inside the targets
	SingleOn

	// MultiOff is multiple mappings, none inside the targets
	MultiOff

	// MultiOn is multiple mappings, at least one inside the targets
	MultiOn

	// NoMap is a basecalled read that failed to map
	NoMap

	// NoSeq is a read with no basecalled sequence
	NoSeq
)

// decisionKeys are the TOML keys of each decision, in Decision order.
var decisionKeys = []string{"single_off", "single_on", "multi_off", "multi_on", "no_map", "no_seq"}

// String returns the decision's TOML key.
func (d Decision) String() string {
	if d < 0 || int(d) >= len(decisionKeys) {
		return fmt.Sprintf("decision(%d)", int(d))
	}
	return decisionKeys[d]
}

// Decide returns the decision class for a read with the given number of
// mappings, whether any of them were on target, and whether it had sequence.
func Decide(mappings int, onTarget, hasSeq bool) Decision {
	switch {
	case !hasSeq:
		return NoSeq
	case mappings == 0:
		return NoMap
	case mappings == 1 && onTarget:
		return SingleOn
	case mappings == 1:
		return SingleOff
	case onTarget:
		return MultiOn
	}
	return MultiOff
}
