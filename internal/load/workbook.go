package load

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/alecacerestel/AppASO/internal/drive"
	"github.com/alecacerestel/AppASO/internal/schema"
)

// WorkbookConfig names the master workbook and its worksheets.
type WorkbookConfig struct {
	Path   string                     `yaml:"path" mapstructure:"path"`
	Sheets map[schema.DataType]string `yaml:"sheets" mapstructure:"sheets"`
}

// DefaultSheets returns the production worksheet names.
func DefaultSheets() map[schema.DataType]string {
	return map[schema.DataType]string{
		schema.Keywords: "KEYWORDS",
		schema.Installs: "INSTALLS",
		schema.Users:    "USERS",
	}
}

// WorkbookWriter rebuilds the master data workbook from the canonical
// tables each run and uploads it through the store.
type WorkbookWriter struct {
	store  drive.Store
	cfg    WorkbookConfig
	logger *zap.Logger
}

// NewWorkbookWriter creates a WorkbookWriter.
func NewWorkbookWriter(store drive.Store, cfg WorkbookConfig, logger *zap.Logger) *WorkbookWriter {
	return &WorkbookWriter{store: store, cfg: cfg, logger: logger}
}

// Write rebuilds the workbook with one worksheet per table present in
// the bundle and uploads it.
func (w *WorkbookWriter) Write(ctx context.Context, bundle schema.Bundle) error {
	book := excelize.NewFile()
	defer book.Close()

	first := true
	for _, dataType := range schema.DataTypes() {
		table, ok := bundle[dataType]
		if !ok {
			continue
		}
		sheet := w.cfg.Sheets[dataType]
		if sheet == "" {
			return fmt.Errorf("no worksheet configured for %s", dataType)
		}
		if err := writeSheet(book, sheet, table); err != nil {
			return fmt.Errorf("writing sheet %s: %w", sheet, err)
		}
		if first {
			idx, err := book.GetSheetIndex(sheet)
			if err == nil {
				book.SetActiveSheet(idx)
			}
			first = false
		}
	}
	if err := book.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("dropping default sheet: %w", err)
	}

	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		return fmt.Errorf("serializing workbook: %w", err)
	}
	if err := w.store.Upload(ctx, w.cfg.Path, buf.Bytes()); err != nil {
		return fmt.Errorf("uploading workbook: %w", err)
	}
	w.logger.Info("master workbook updated", zap.String("path", w.cfg.Path))
	return nil
}

// writeSheet fills one worksheet: header row with canonical column
// names, then data rows. Numeric cells are written as numbers so the
// sheet stays chartable; missing cells stay empty.
func writeSheet(book *excelize.File, sheet string, table *schema.Table) error {
	if _, err := book.NewSheet(sheet); err != nil {
		return err
	}
	cols := table.Columns()
	numeric := make(map[string]bool)
	for _, c := range schema.NumericColumns(table.Type) {
		numeric[c] = true
	}

	for c, name := range cols {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := book.SetCellStr(sheet, cell, name); err != nil {
			return err
		}
	}
	for r, row := range table.Rows {
		for c, name := range cols {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if numeric[name] {
				if v, ok := row.Fields[name].Value(); ok {
					if err := book.SetCellValue(sheet, cell, v); err != nil {
						return err
					}
				}
				continue
			}
			var s string
			switch name {
			case schema.ColDate:
				s = schema.FormatDate(row.Date)
			case schema.ColPlatform:
				s = string(row.Platform)
			case schema.ColStage:
				s = row.Stage
			case schema.ColNotes:
				s = row.Notes
			}
			if err := book.SetCellStr(sheet, cell, s); err != nil {
				return err
			}
		}
	}
	return nil
}
