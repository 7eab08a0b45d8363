// Package processor runs the per-file cleaning pipeline and the batch
// worker pool around it.
package processor

type State int

const (
	StatePending State = iota
	StateAnalyzed
	StateNoOp
	StateDryRun
	StateRemoving
	StateRemoved
	StateBackupFailed
	StateRemovalFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAnalyzed:
		return "analyzed"
	case StateNoOp:
		return "noop"
	case StateDryRun:
		return "dry_run"
	case StateRemoving:
		return "removing"
	case StateRemoved:
		return "removed"
	case StateBackupFailed:
		return "backup_failed"
	case StateRemovalFailed:
		return "removal_failed"
	default:
		return "unknown"
	}
}

// transitions is the full legal transition table. Anything absent is
// illegal.
var transitions = map[State][]State{
	StatePending:  {StateAnalyzed},
	StateAnalyzed: {StateNoOp, StateDryRun, StateRemoving, StateBackupFailed},
	StateRemoving: {StateRemoved, StateRemovalFailed},
}

func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the state has no outgoing transitions.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// Outcome is the per-file result recorded in the run summary and the
// report.
type Outcome string

const (
	OutcomeNoOp          Outcome = "noop"
	OutcomeDryRun        Outcome = "dry_run"
	OutcomeRemoved       Outcome = "removed"
	OutcomeBackupFailed  Outcome = "backup_failed"
	OutcomeRemovalFailed Outcome = "removal_failed"
	// OutcomeIOError covers files whose bytes could not be read at all;
	// the state machine never leaves Pending for those.
	OutcomeIOError Outcome = "io_error"
)

// Outcome maps a terminal state to its run outcome.
func (s State) Outcome() (Outcome, bool) {
	switch s {
	case StateNoOp:
		return OutcomeNoOp, true
	case StateDryRun:
		return OutcomeDryRun, true
	case StateRemoved:
		return OutcomeRemoved, true
	case StateBackupFailed:
		return OutcomeBackupFailed, true
	case StateRemovalFailed:
		return OutcomeRemovalFailed, true
	default:
		return "", false
	}
}
