package bundler

import (
	"context"
	"fmt"

	"github.com/oshokin/reader-bundler/internal/logger"
)

// State tracks pipeline progress through its strictly linear stages.
type State string

const (
	// StateStart is the initial state before any work happens.
	StateStart State = "start"
	// StateLocated means the source archive is classified and the payload found.
	StateLocated State = "located"
	// StateExtracted means the payload is unpacked and the add-ons subtree isolated.
	StateExtracted State = "extracted"
	// StateMerged means the distribution and fragments are grafted in.
	StateMerged State = "merged"
	// StateVersioned means the release version is resolved.
	StateVersioned State = "versioned"
	// StateAssembled means both artifacts are written.
	StateAssembled State = "assembled"
	// StateCleanedUp is the terminal success state.
	StateCleanedUp State = "cleaned-up"
	// StateAborted is the terminal failure state, reachable from any stage.
	StateAborted State = "aborted"
)

// IsTerminal reports whether the state ends the run.
func (s State) IsTerminal() bool {
	return s == StateCleanedUp || s == StateAborted
}

// next is the single legal successor of each non-terminal state.
var next = map[State]State{
	StateStart:     StateLocated,
	StateLocated:   StateExtracted,
	StateExtracted: StateMerged,
	StateMerged:    StateVersioned,
	StateVersioned: StateAssembled,
	StateAssembled: StateCleanedUp,
}

// transition advances the pipeline state, validating the move.
// Any non-terminal state may abort; otherwise only the linear successor is legal.
func (p *pipeline) transition(ctx context.Context, to State) error {
	from := p.state

	if from.IsTerminal() {
		return fmt.Errorf("pipeline already finished in state %s", from)
	}

	if to != StateAborted && next[from] != to {
		return fmt.Errorf("disallowed transition: %s -> %s", from, to)
	}

	p.state = to
	logger.DebugKV(ctx, "Pipeline state changed", "from", string(from), "to", string(to))

	return nil
}
