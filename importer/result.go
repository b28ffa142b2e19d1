package importer

import (
	"fmt"
	"strings"
	"time"
)

// Outcome classifies what happened to one record during an import.
type Outcome string

const (
	// OutcomeCreated means the record was created in the target store.
	OutcomeCreated Outcome = "created"

	// OutcomeUpdated means the record already existed and was merged in
	// place by a target store implementing depsync.RecordUpdater.
	OutcomeUpdated Outcome = "updated"

	// OutcomeSkippedExisting means the record was already present in the
	// target store and was left alone.
	OutcomeSkippedExisting Outcome = "skipped_existing"

	// OutcomeSkippedDependency means the record was not processed because
	// one of its dependencies failed earlier in the run.
	OutcomeSkippedDependency Outcome = "skipped_dependency"

	// OutcomeFailed means the target store reported an error creating the
	// record.
	OutcomeFailed Outcome = "failed"
)

// Change is one entry of the ordered per-record change log.
type Change struct {
	// Seq is the position of the record in the creation order.
	Seq int `json:"seq"`

	// RecordID is the id of the record.
	RecordID string `json:"record_id"`

	// Type is the record's entity type.
	Type string `json:"type"`

	// Outcome is what happened (or, in a dry run, would happen).
	Outcome Outcome `json:"outcome"`

	// Detail carries the failure reason or skip explanation, if any.
	Detail string `json:"detail,omitempty"`

	// At is when the record was processed.
	At time.Time `json:"at"`
}

// ImportError records a per-record execution failure.
type ImportError struct {
	// RecordID is the record whose processing failed.
	RecordID string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e ImportError) Error() string {
	return fmt.Sprintf("%s: %v", e.RecordID, e.Err)
}

// Unwrap returns the underlying error.
func (e ImportError) Unwrap() error {
	return e.Err
}

// Result aggregates the outcome of one import run.
type Result struct {
	// RunID uniquely identifies the run across logs and traces.
	RunID string `json:"run_id"`

	// DryRun reports whether the run stopped before execution.
	DryRun bool `json:"dry_run"`

	// Created counts records created in the target store.
	Created int `json:"created"`

	// Updated counts records merged in place by an updating target store.
	Updated int `json:"updated"`

	// Skipped counts records left alone, whether because they already
	// existed or because a dependency failed.
	Skipped int `json:"skipped"`

	// Changes is the ordered per-record change log.
	Changes []Change `json:"changes"`

	// Errors lists per-record execution failures. Errors surfaced before
	// execution are returned as the run's error instead, with zero writes
	// performed.
	Errors []ImportError `json:"errors,omitempty"`

	// Warnings lists non-fatal problems: resolution branches that could
	// not be expanded, warning-severity validation issues, and broken
	// cycles.
	Warnings []string `json:"warnings,omitempty"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`
}

// Failed counts records whose creation failed.
func (r *Result) Failed() int {
	return len(r.Errors)
}

// Summary renders the result as a short diagnostic text.
func (r *Result) Summary() string {
	var b strings.Builder

	mode := "import"
	if r.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(&b, "%s %s: %d created, %d updated, %d skipped, %d failed (%d records in %s)",
		mode, r.RunID, r.Created, r.Updated, r.Skipped, r.Failed(), len(r.Changes), r.Duration.Round(time.Millisecond))

	if len(r.Errors) > 0 {
		b.WriteString("\nerrors:")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "\n  %s", e.Error())
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\nwarnings:")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "\n  %s", w)
		}
	}
	return b.String()
}

// record appends a change-log entry and bumps the matching counter.
func (r *Result) record(seq int, recordID, recordType string, outcome Outcome, detail string) {
	r.Changes = append(r.Changes, Change{
		Seq:      seq,
		RecordID: recordID,
		Type:     recordType,
		Outcome:  outcome,
		Detail:   detail,
		At:       time.Now(),
	})

	switch outcome {
	case OutcomeCreated:
		r.Created++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeSkippedExisting, OutcomeSkippedDependency:
		r.Skipped++
	}
}
