package forecast

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/alecacerestel/AppASO/internal/drive"
)

// WriteSheet replaces the forecast worksheet inside the existing master
// workbook with the given predictions and re-uploads it.
func WriteSheet(ctx context.Context, store drive.Store, workbookPath, sheet string, predictions []Prediction, logger *zap.Logger) error {
	data, err := store.Download(ctx, workbookPath)
	if err != nil {
		return fmt.Errorf("downloading workbook: %w", err)
	}
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("opening workbook: %w", err)
	}
	defer book.Close()

	// Rebuild the sheet from scratch so stale rows never survive.
	if idx, err := book.GetSheetIndex(sheet); err == nil && idx >= 0 {
		if err := book.DeleteSheet(sheet); err != nil {
			return fmt.Errorf("clearing sheet %s: %w", sheet, err)
		}
	}
	if _, err := book.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", sheet, err)
	}

	for r, record := range Records(predictions) {
		for c, value := range record {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := book.SetCellStr(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		return fmt.Errorf("serializing workbook: %w", err)
	}
	if err := store.Upload(ctx, workbookPath, buf.Bytes()); err != nil {
		return fmt.Errorf("uploading workbook: %w", err)
	}
	logger.Info("forecast sheet updated",
		zap.String("sheet", sheet),
		zap.Int("rows", len(predictions)))
	return nil
}

// WriteBackup saves the predictions as a local CSV file.
func WriteBackup(path string, predictions []Prediction) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating backup directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating backup file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(Records(predictions)); err != nil {
		return fmt.Errorf("writing backup: %w", err)
	}
	writer.Flush()
	return writer.Error()
}
