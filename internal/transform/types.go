package transform

import (
	"time"

	"github.com/alecacerestel/AppASO/internal/schema"
)

// Config carries the business configuration of a transform run. It is
// injected at construction so tests can vary the cutoff without touching
// ambient state.
type Config struct {
	// Cutoff is the agency start date. Rows dated on or after it are
	// labeled PostStage, rows before it PreStage.
	Cutoff    time.Time
	PreStage  string
	PostStage string
}

// DefaultStages returns the production stage labels.
func DefaultStages() (pre, post string) {
	return "Pre-Agency", "With-Agency"
}

// Result is the outcome of one transform run: the canonical tables that
// completed, plus counters for the caller's run summary.
type Result struct {
	Tables schema.Bundle

	// RowsIn counts raw data rows per data type across both platforms.
	RowsIn map[schema.DataType]int
	// RowsOut counts rows in the finished canonical tables.
	RowsOut map[schema.DataType]int
	// DroppedRows counts rows removed because their date never parsed.
	DroppedRows map[schema.DataType]int
	// ParseWarnings counts unparsable numeric cells per data type and
	// canonical field. Each one was recovered as a missing cell, but the
	// aggregate makes schema drift visible.
	ParseWarnings map[schema.DataType]map[string]int
}

func newResult() *Result {
	return &Result{
		Tables:        make(schema.Bundle),
		RowsIn:        make(map[schema.DataType]int),
		RowsOut:       make(map[schema.DataType]int),
		DroppedRows:   make(map[schema.DataType]int),
		ParseWarnings: make(map[schema.DataType]map[string]int),
	}
}

func (r *Result) addWarning(dataType schema.DataType, field string) {
	if r.ParseWarnings[dataType] == nil {
		r.ParseWarnings[dataType] = make(map[string]int)
	}
	r.ParseWarnings[dataType][field]++
}

// WarningTotal returns the number of recovered cell-level parse failures
// across all data types.
func (r *Result) WarningTotal() int {
	total := 0
	for _, fields := range r.ParseWarnings {
		for _, n := range fields {
			total += n
		}
	}
	return total
}
