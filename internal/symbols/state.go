package symbols

import "errors"

// State is the resolution state of a unit. It only moves forward.
type State uint8

const (
	StateUnparsed State = iota // placeholder created by an early await
	StateParsing               // name reserved, body not yet registered
	StateUnfinalized
	StateFinalizing
	StateFinalized
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnparsed:
		return "unparsed"
	case StateParsing:
		return "parsing"
	case StateUnfinalized:
		return "unfinalized"
	case StateFinalizing:
		return "finalizing"
	case StateFinalized:
		return "finalized"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool { return s == StateFinalized || s == StateFailed }

// Declared reports whether raw syntax is available.
func (s State) Declared() bool { return s >= StateUnfinalized }

var (
	// ErrAlreadyInProgress is returned when another job holds the claim.
	ErrAlreadyInProgress = errors.New("symbols: finalization already in progress")
	// ErrInvalidTransition is returned for transitions the state machine forbids.
	ErrInvalidTransition = errors.New("symbols: invalid state transition")
)
