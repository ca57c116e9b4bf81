package transform

import (
	"go.uber.org/zap"

	"github.com/alecacerestel/AppASO/internal/normalize"
	"github.com/alecacerestel/AppASO/internal/schema"
)

// Transformer reconciles the six raw store exports into the three
// canonical tables. It is the only stateful part of the core: it holds
// the configured agency cutoff for the duration of a run.
type Transformer struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a Transformer with the given cutoff configuration.
func New(cfg Config, logger *zap.Logger) *Transformer {
	if cfg.PreStage == "" || cfg.PostStage == "" {
		cfg.PreStage, cfg.PostStage = DefaultStages()
	}
	return &Transformer{cfg: cfg, logger: logger}
}

// Transform runs the keywords, installs and users pipelines
// independently. Tables that complete are always returned; failures are
// collected per data type into a *TransformError so the caller can still
// load the unaffected tables.
func (t *Transformer) Transform(raw schema.RawBundle) (*Result, error) {
	result := newResult()
	var failures []Failure

	for _, dataType := range schema.DataTypes() {
		pair, ok := raw[dataType]
		if !ok {
			failures = append(failures, Failure{DataType: dataType, Err: &EmptySourceError{DataType: dataType, Platform: schema.Apple}})
			continue
		}

		table, err := t.unify(dataType, pair, result)
		if err != nil {
			t.logger.Error("data type pipeline failed",
				zap.String("data_type", string(dataType)),
				zap.Error(err))
			failures = append(failures, Failure{DataType: dataType, Err: err})
			continue
		}

		t.classifyStages(table)

		t.logger.Info("data type transformed",
			zap.String("data_type", string(dataType)),
			zap.Int("rows_in", result.RowsIn[dataType]),
			zap.Int("rows_out", result.RowsOut[dataType]),
			zap.Int("rows_dropped", result.DroppedRows[dataType]))

		result.Tables[dataType] = table
	}

	for dataType, fields := range result.ParseWarnings {
		for field, count := range fields {
			t.logger.Warn("unparsable cells recovered as missing",
				zap.String("data_type", string(dataType)),
				zap.String("field", field),
				zap.Int("count", count))
		}
	}

	if len(failures) > 0 {
		return result, &TransformError{Failures: failures}
	}
	return result, nil
}

// classifyStages labels every row by comparing its date against the
// cutoff, inclusive on the post side. The canonical date string is
// re-parsed with the same parser the unifier uses, so the label can
// never drift from the sort order.
func (t *Transformer) classifyStages(table *schema.Table) {
	for i := range table.Rows {
		date, ok := normalize.ParseDate(schema.FormatDate(table.Rows[i].Date))
		if !ok {
			continue
		}
		if date.Before(t.cfg.Cutoff) {
			table.Rows[i].Stage = t.cfg.PreStage
		} else {
			table.Rows[i].Stage = t.cfg.PostStage
		}
	}
}
