// Package domain defines the core types and interfaces for the classify service
package domain

import "time"

// OnError is the explicit per-record failure policy for a run
type OnError string

// Failure policies
const (
	// OnErrorFailFast aborts the run on the first record failure
	OnErrorFailFast OnError = "fail_fast"

	// OnErrorContinue records the failure and keeps classifying
	OnErrorContinue OnError = "continue"
)

// Valid reports whether p is a known policy
func (p OnError) Valid() bool { return p == OnErrorFailFast || p == OnErrorContinue }

// RunStatus is the lifecycle state of a classification run
type RunStatus string

// Run lifecycle states
const (
	RunRunning   RunStatus = "RUNNING"
	RunSucceeded RunStatus = "SUCCEEDED"
	RunPartial   RunStatus = "PARTIAL"
	RunFailed    RunStatus = "FAILED"
	RunCanceled  RunStatus = "CANCELED"
)

// RunInput controls one classification run
type RunInput struct {
	// Source filters which records to classify, empty means all
	Source string

	// Labels are the candidate label descriptions, order preserved
	Labels []string

	// Template is the hypothesis template, empty means the default
	Template string

	// MultiLabel switches the model to independent per-label scoring
	MultiLabel bool

	// BatchSize partitions records for throughput only, never affects scores
	BatchSize int

	// OnError is the per-record failure policy, default fail_fast
	OnError OnError

	// Limit caps how many records to classify, 0 means all
	Limit int64
}

// Failure names one record that could not be classified
type Failure struct {
	Seq int64  `json:"seq"`
	Err string `json:"error"`
}

// RunReport summarizes a finished or aborted run
type RunReport struct {
	RunID    string    `json:"run_id"`
	Status   RunStatus `json:"status"`
	Records  int64     `json:"records"` // records attempted
	Scored   int64     `json:"scored"`  // records fully scored
	Failures []Failure `json:"failures,omitempty"`

	// Incomplete marks a run cut short by cancellation between batches
	Incomplete bool `json:"incomplete,omitempty"`

	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

// Scored is one (label description, score) pair in model order
type Scored struct {
	Label string
	Score float64
}
