// Package models defines data structures shared by the jaketune commands.
package models

// RunStatus is the state of a remote training run as reported by its backend.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "Queued"
	RunStatusRunning   RunStatus = "Running"
	RunStatusCompleted RunStatus = "Completed"
	RunStatusFailed    RunStatus = "Failed"
)

// IsTerminal reports whether no further transition can happen.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// Metrics maps a logged metric name to its most recent value.
type Metrics map[string]float64
