// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the lifecycle state machine shared by modules and
// pipelines, and the errors it reports.
package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrModule reports a configuration or resolution failure. It is fatal at
	// construction time.
	ErrModule = errors.New("module error")
	// ErrLifecycle reports a call that is invalid in the node's current state.
	ErrLifecycle = errors.New("invalid lifecycle transition")
)

// State is the lifecycle state of a node.
type State int

const (
	Uninitialized State = iota
	Configured
	Bound
	SetUp
	Executing
	CleanedUp
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Configured:
		return "configured"
	case Bound:
		return "bound"
	case SetUp:
		return "setup"
	case Executing:
		return "executing"
	case CleanedUp:
		return "cleaned_up"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Phase names a lifecycle call.
type Phase string

const (
	PhaseSetup   Phase = "setup"
	PhaseExecute Phase = "execute"
	PhaseCleanup Phase = "cleanup"
)

func lifecycleError(op, name string, s State) error {
	return fmt.Errorf("%w: cannot %s module %s in state %s", ErrLifecycle, op, name, s)
}
