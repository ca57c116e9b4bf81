package load

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/alecacerestel/AppASO/internal/drive"
	"github.com/alecacerestel/AppASO/internal/schema"
)

// Lake archive formats.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// LakeConfig configures the historic archive.
type LakeConfig struct {
	// Folder is the archive root inside the store.
	Folder string `yaml:"folder" mapstructure:"folder"`
	// Format is csv or parquet.
	Format string `yaml:"format" mapstructure:"format"`
}

// LakeWriter appends one snapshot of every canonical table per run to
// the historic archive, partitioned by year and month.
type LakeWriter struct {
	store  drive.Store
	cfg    LakeConfig
	logger *zap.Logger
}

// NewLakeWriter creates a LakeWriter.
func NewLakeWriter(store drive.Store, cfg LakeConfig, logger *zap.Logger) *LakeWriter {
	return &LakeWriter{store: store, cfg: cfg, logger: logger}
}

// Archive writes every table in the bundle under
// <folder>/<YYYY>/<MM_MonthName>/<datatype>_<YYYY-MM-DD>.<format>.
func (w *LakeWriter) Archive(ctx context.Context, bundle schema.Bundle, runDate time.Time) error {
	for _, dataType := range schema.DataTypes() {
		table, ok := bundle[dataType]
		if !ok {
			continue
		}
		data, err := w.encode(table)
		if err != nil {
			return fmt.Errorf("encoding %s archive: %w", dataType, err)
		}
		target := w.archivePath(dataType, runDate)
		if err := w.store.Upload(ctx, target, data); err != nil {
			return fmt.Errorf("archiving %s: %w", dataType, err)
		}
		w.logger.Info("table archived",
			zap.String("data_type", string(dataType)),
			zap.String("path", target),
			zap.Int("rows", len(table.Rows)))
	}
	return nil
}

func (w *LakeWriter) archivePath(dataType schema.DataType, runDate time.Time) string {
	monthDir := fmt.Sprintf("%02d_%s", int(runDate.Month()), runDate.Month().String())
	name := fmt.Sprintf("%s_%s.%s", dataType, runDate.Format("2006-01-02"), w.cfg.Format)
	return path.Join(w.cfg.Folder, runDate.Format("2006"), monthDir, name)
}

func (w *LakeWriter) encode(table *schema.Table) ([]byte, error) {
	switch w.cfg.Format {
	case FormatParquet:
		return encodeParquet(table)
	case FormatCSV, "":
		return EncodeCSV(table)
	}
	return nil, fmt.Errorf("unsupported lake format %q", w.cfg.Format)
}

// EncodeCSV serializes a canonical table with its header row, dates in
// DD/MM/YYYY and missing numerics as empty cells.
func EncodeCSV(table *schema.Table) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(table.Records()); err != nil {
		return nil, err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
