package pppd

import (
	"fmt"
	"time"
)

// State is the supervisor's position in the link lifecycle.
//
// Stopped -> Starting -> Running -> Stopping -> Stopped
// Starting/Running -> Failed on launch failure or unexpected exit;
// Failed -> Stopped via Acknowledge or a subsequent Run.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status is a read-only snapshot of the supervised pppd process.
type Status struct {
	State     string    `json:"state"`
	Running   bool      `json:"running"`
	PID       int       `json:"pid,omitempty"`
	StartedAt time.Time `json:"started_at"`
	StoppedAt time.Time `json:"stopped_at"`
	LastError string    `json:"last_error,omitempty"`
}

// ConflictError reports an operation that is invalid for the current state.
// It causes no state change.
type ConflictError struct {
	Op    string
	State State
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("cannot %s while link is %s", e.Op, e.State)
}
