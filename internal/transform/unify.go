package transform

import (
	"sort"
	"strings"
	"time"

	"github.com/alecacerestel/AppASO/internal/normalize"
	"github.com/alecacerestel/AppASO/internal/schema"
)

// appleUsersMetadataRows is the number of leading non-data rows (export
// start/end date) in Apple's connected-users export.
const appleUsersMetadataRows = 2

// unify runs one data type through the shared pipeline: rename columns,
// tag and concatenate both platforms (Apple first), normalize numeric and
// date cells, drop date-less rows, and sort by (date, platform).
func (t *Transformer) unify(dataType schema.DataType, pair schema.RawPair, result *Result) (*schema.Table, error) {
	table := &schema.Table{Type: dataType}

	for _, raw := range []schema.RawTable{pair.Apple, pair.Google} {
		if len(raw.Rows) == 0 {
			return nil, &EmptySourceError{DataType: dataType, Platform: raw.Platform}
		}
		if err := schema.ValidateHeader(dataType, raw.Platform, raw.Columns); err != nil {
			return nil, err
		}
		mapping, err := schema.MappingFor(dataType, raw.Platform)
		if err != nil {
			return nil, err
		}

		rows := raw.Rows
		if dataType == schema.Users && raw.Platform == schema.Apple && len(rows) > appleUsersMetadataRows {
			rows = rows[appleUsersMetadataRows:]
		}
		result.RowsIn[dataType] += len(rows)

		for _, rawRow := range rows {
			renamed := renameRow(rawRow, mapping)

			date, ok := t.parseRowDate(dataType, renamed[schema.ColDate])
			if !ok {
				// A row without a date cannot be ordered or staged.
				result.DroppedRows[dataType]++
				continue
			}

			row := schema.Row{
				Date:     date,
				Platform: raw.Platform,
				Fields:   make(map[string]schema.Cell),
			}
			for _, col := range schema.NumericColumns(dataType) {
				cell := schema.MissingCell()
				if rawVal, present := renamed[col]; present && strings.TrimSpace(rawVal) != "" {
					if v, parsed := normalize.CleanNumber(rawVal); parsed {
						cell = schema.Number(v)
					} else {
						result.addWarning(dataType, col)
					}
				}
				row.Fields[col] = cell
			}
			if dataType == schema.Users {
				row.Notes = renamed[schema.ColNotes]
			}
			table.Rows = append(table.Rows, row)
		}
	}

	// Stable sort keeps Apple before Google when dates and platforms tie.
	sort.SliceStable(table.Rows, func(i, j int) bool {
		a, b := table.Rows[i], table.Rows[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Platform < b.Platform
	})

	result.RowsOut[dataType] = len(table.Rows)
	return table, nil
}

// parseRowDate applies the date parser the source locale requires. The
// connected-users exports carry French month abbreviations (either store
// may emit them), the others plain day/month/year forms.
func (t *Transformer) parseRowDate(dataType schema.DataType, raw string) (time.Time, bool) {
	if dataType == schema.Users {
		if d, ok := normalize.ParseFrenchDate(raw); ok {
			return d, true
		}
	}
	return normalize.ParseDate(raw)
}

// renameRow maps a raw row's cells to canonical column names. A cell is
// taken from the source column, or from the canonical name directly when
// an export already uses it.
func renameRow(raw schema.RawRow, mapping map[string]string) map[string]string {
	out := make(map[string]string, len(mapping))
	for src, dst := range mapping {
		if v, ok := raw[src]; ok {
			out[dst] = v
		} else if v, ok := raw[dst]; ok {
			out[dst] = v
		}
	}
	return out
}
