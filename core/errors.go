package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for core graph operations. Callers branch on these with
// errors.Is; they are never wrapped with formatted strings at the
// definition site — context is attached with %w at the call site instead.
var (
	// ErrNilNode indicates a nil *Node was passed where one is required.
	ErrNilNode = errors.New("core: nil node")

	// ErrNilValue indicates a nil *Value was passed where one is required.
	ErrNilValue = errors.New("core: nil value")

	// ErrNotResident indicates an operation referenced a Value or Node that
	// is not currently part of the Graph.
	ErrNotResident = errors.New("core: not resident in graph")

	// ErrAlreadyResident indicates Import was called on a Node already
	// tracked by the Graph.
	ErrAlreadyResident = errors.New("core: already resident in graph")

	// ErrStillInUse indicates Prune was called on a Node that still has
	// clients, or ReplaceAllValidateRemove was asked to remove a Node
	// whose outputs still have clients after the replacement.
	ErrStillInUse = errors.New("core: value still in use")

	// ErrTypeMismatch indicates a proposed replacement Value's Type is not
	// equal to, and not convertible to, the Value it would replace.
	ErrTypeMismatch = errors.New("core: replacement type mismatch")

	// ErrWouldCycle indicates a proposed replacement would introduce a
	// cycle into the graph.
	ErrWouldCycle = errors.New("core: replacement would introduce a cycle")

	// ErrMultipleDestroyers indicates two or more live Nodes claim
	// destructive ownership (via Op.DestroyMap) of the same input Value.
	ErrMultipleDestroyers = errors.New("core: multiple destroyers of same value")
)

// InconsistencyError reports that a proposed graph mutation was rejected by
// validation — a failed type check, a would-be cycle, or a destroy-map
// conflict. It is the concrete error type ReplaceAllValidate and
// ReplaceAllValidateRemove return; callers recover from it by trying a
// different rewrite rather than aborting the whole rewrite session.
type InconsistencyError struct {
	Old, New *Value // the rejected replacement pair; New may be nil for a bare removal
	Reason   string // human-readable summary, e.g. "type mismatch"
	Err      error  // underlying sentinel, if any (ErrTypeMismatch, ErrWouldCycle, ...)
}

func (e *InconsistencyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("core: inconsistent replacement (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("core: inconsistent replacement: %s", e.Reason)
}

func (e *InconsistencyError) Unwrap() error { return e.Err }

// InvariantError reports a violation of a structural invariant the Graph
// relies on internally (e.g. a dangling client reference). It is never a
// sentinel and is never recovered from by rewrite drivers — it always
// propagates to the caller, the same way an AssertionError is allowed
// through SeqOptimizer's failure callback untouched.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return "core: invariant violated: " + e.Msg }
