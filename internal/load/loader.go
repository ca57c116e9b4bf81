package load

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/alecacerestel/AppASO/internal/schema"
)

// Loader pushes one run's canonical tables to every output: the historic
// data lake, the master workbook, and (when configured) the warehouse.
type Loader struct {
	lake      *LakeWriter
	workbook  *WorkbookWriter
	warehouse *Warehouse
	logger    *zap.Logger
}

// NewLoader creates a Loader. warehouse may be nil to skip SQL loads
// (dry runs, environments without the database).
func NewLoader(lake *LakeWriter, workbook *WorkbookWriter, warehouse *Warehouse, logger *zap.Logger) *Loader {
	return &Loader{lake: lake, workbook: workbook, warehouse: warehouse, logger: logger}
}

// Load writes the bundle everywhere. Outputs are attempted in archive →
// workbook → warehouse order and the first failure aborts: a partial
// load is surfaced to the caller rather than papered over.
func (l *Loader) Load(ctx context.Context, bundle schema.Bundle, runDate time.Time) error {
	if err := l.lake.Archive(ctx, bundle, runDate); err != nil {
		return err
	}
	if err := l.workbook.Write(ctx, bundle); err != nil {
		return err
	}
	if l.warehouse != nil {
		if err := l.warehouse.EnsureSchema(ctx); err != nil {
			return err
		}
		for _, dataType := range schema.DataTypes() {
			table, ok := bundle[dataType]
			if !ok {
				continue
			}
			if err := l.warehouse.Replace(ctx, table); err != nil {
				return err
			}
		}
	}
	l.logger.Info("load completed", zap.Int("tables", len(bundle)))
	return nil
}
