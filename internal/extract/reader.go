package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/alecacerestel/AppASO/internal/schema"
)

// parseTable turns raw file bytes into a RawTable. Excel workbooks read
// their first sheet; the first row of either format is the header.
func parseTable(name string, data []byte, platform schema.Platform) (schema.RawTable, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls"):
		return parseExcel(data, platform)
	case strings.HasSuffix(lower, ".csv"):
		return parseCSV(data, platform)
	}
	return schema.RawTable{}, fmt.Errorf("unsupported file format: %s", name)
}

func parseExcel(data []byte, platform schema.Platform) (schema.RawTable, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return schema.RawTable{}, fmt.Errorf("opening workbook: %w", err)
	}
	defer book.Close()

	sheet := book.GetSheetName(0)
	if sheet == "" {
		return schema.RawTable{}, fmt.Errorf("workbook has no sheets")
	}
	rows, err := book.GetRows(sheet)
	if err != nil {
		return schema.RawTable{}, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	return tableFromRecords(rows, platform), nil
}

func parseCSV(data []byte, platform schema.Platform) (schema.RawTable, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return schema.RawTable{}, fmt.Errorf("reading csv: %w", err)
	}
	return tableFromRecords(records, platform), nil
}

func tableFromRecords(records [][]string, platform schema.Platform) schema.RawTable {
	table := schema.RawTable{Platform: platform}
	if len(records) == 0 {
		return table
	}
	table.Columns = records[0]
	for _, rec := range records[1:] {
		row := make(schema.RawRow, len(table.Columns))
		for i, col := range table.Columns {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
