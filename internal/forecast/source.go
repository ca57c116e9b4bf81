package forecast

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/alecacerestel/AppASO/internal/drive"
	"github.com/alecacerestel/AppASO/internal/normalize"
	"github.com/alecacerestel/AppASO/internal/schema"
)

// LoadInstalls reads the installs history back out of the master
// workbook's installs worksheet. Rows whose installs cell is empty are
// reporting gaps and are skipped, not treated as zero.
func LoadInstalls(ctx context.Context, store drive.Store, workbookPath, sheet string) ([]Point, error) {
	data, err := store.Download(ctx, workbookPath)
	if err != nil {
		return nil, fmt.Errorf("downloading workbook: %w", err)
	}
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer book.Close()

	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %s has no data rows", sheet)
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	for _, required := range []string{schema.ColDate, schema.ColInstalls, schema.ColPlatform} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("sheet %s is missing column %s", sheet, required)
		}
	}

	cell := func(row []string, name string) string {
		if i := col[name]; i < len(row) {
			return row[i]
		}
		return ""
	}

	var points []Point
	for _, row := range rows[1:] {
		date, ok := normalize.ParseDate(cell(row, schema.ColDate))
		if !ok {
			continue
		}
		installs, ok := normalize.CleanNumber(cell(row, schema.ColInstalls))
		if !ok {
			continue
		}
		points = append(points, Point{
			Date:     date,
			Installs: installs,
			Platform: schema.Platform(cell(row, schema.ColPlatform)),
		})
	}
	return points, nil
}
