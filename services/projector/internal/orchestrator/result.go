package orchestrator

import (
	"fmt"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/models"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
)

// RowFailure records one source row that was skipped.
type RowFailure struct {
	RowID  string
	Reason string
	Err    error
}

// Result is the accounting of one entity sync against one target.
// Inserted+Updated+Unchanged counts only rows that reached the target;
// TotalSourceRows is every row read from the record store.
type Result struct {
	RunID           string
	Entity          models.EntityType
	Target          string
	Inserted        int
	Updated         int
	Unchanged       int
	TotalSourceRows int
	Failures        []RowFailure
}

// Processed is the number of rows reflected in the target.
func (r Result) Processed() int {
	return r.Inserted + r.Updated + r.Unchanged
}

// NotReflected is the number of source rows missing from the target after
// this run.
func (r Result) NotReflected() int {
	return r.TotalSourceRows - r.Processed()
}

// Incomplete reports whether some source rows were not reflected.
func (r Result) Incomplete() bool {
	return r.Processed() < r.TotalSourceRows
}

func (r Result) String() string {
	return fmt.Sprintf("%s -> %s: %d inserted, %d updated, %d unchanged of %d rows (%d not reflected)",
		r.Entity, r.Target, r.Inserted, r.Updated, r.Unchanged, r.TotalSourceRows, r.NotReflected())
}

func (r *Result) count(outcome store.UpsertOutcome) {
	switch outcome {
	case store.OutcomeInserted:
		r.Inserted++
	case store.OutcomeUpdated:
		r.Updated++
	default:
		r.Unchanged++
	}
}

func (r *Result) fail(row models.SourceRow, err error) {
	r.Failures = append(r.Failures, RowFailure{RowID: row.RowID(), Reason: err.Error(), Err: err})
}
