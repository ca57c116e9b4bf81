package schema

import (
	"strconv"
	"time"
)

// DataType identifies one of the three analytics exports processed per run.
type DataType string

const (
	Keywords DataType = "keywords"
	Installs DataType = "installs"
	Users    DataType = "users"
)

// DataTypes returns all data types in processing order.
func DataTypes() []DataType {
	return []DataType{Keywords, Installs, Users}
}

// Platform identifies the app store an export came from.
type Platform string

const (
	Apple  Platform = "Apple"
	Google Platform = "Google"
)

// Platforms returns both platforms in concatenation order (Apple first).
func Platforms() []Platform {
	return []Platform{Apple, Google}
}

// Cell is a numeric cell that is either present or explicitly missing.
// A missing cell serializes as the empty string so downstream consumers
// see a gap rather than a zero.
type Cell struct {
	value float64
	valid bool
}

// Number returns a present cell holding v.
func Number(v float64) Cell {
	return Cell{value: v, valid: true}
}

// MissingCell returns the explicit missing marker.
func MissingCell() Cell {
	return Cell{}
}

// Valid reports whether the cell holds a value.
func (c Cell) Valid() bool { return c.valid }

// Value returns the cell value and whether it is present.
func (c Cell) Value() (float64, bool) { return c.value, c.valid }

// String serializes the cell for tabular output. Whole numbers render
// without a decimal part.
func (c Cell) String() string {
	if !c.valid {
		return ""
	}
	if c.value == float64(int64(c.value)) {
		return strconv.FormatInt(int64(c.value), 10)
	}
	return strconv.FormatFloat(c.value, 'f', -1, 64)
}

// RawRow is one row of a source export keyed by its original column names.
type RawRow map[string]string

// RawTable is one platform's export for one data type, as read from the
// spreadsheet file. It lives only for the duration of a single run.
type RawTable struct {
	Platform Platform
	Columns  []string
	Rows     []RawRow
}

// RawPair holds both platforms' raw tables for one data type.
type RawPair struct {
	Apple  RawTable
	Google RawTable
}

// RawBundle holds the six raw tables of one pipeline run.
type RawBundle map[DataType]RawPair

// Row is one canonical output row. Date is kept parsed so sorting and
// stage labeling compare calendar dates, never strings.
type Row struct {
	Date     time.Time
	Platform Platform
	Stage    string
	Notes    string
	Fields   map[string]Cell
}

// Table is an ordered set of canonical rows sharing one schema.
type Table struct {
	Type DataType
	Rows []Row
}

// Bundle holds the canonical tables of one run, keyed by data type.
type Bundle map[DataType]*Table

// Columns returns the full output schema of the table, Stage included.
func (t *Table) Columns() []string {
	cols, _ := CanonicalColumns(t.Type)
	return append(cols, ColStage)
}

// Records serializes the table as a header row followed by data rows,
// columns in canonical order and dates formatted DD/MM/YYYY.
func (t *Table) Records() [][]string {
	cols := t.Columns()
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, cols)
	for _, row := range t.Rows {
		rec := make([]string, len(cols))
		for i, col := range cols {
			switch col {
			case ColDate:
				rec[i] = FormatDate(row.Date)
			case ColPlatform:
				rec[i] = string(row.Platform)
			case ColStage:
				rec[i] = row.Stage
			case ColNotes:
				rec[i] = row.Notes
			default:
				rec[i] = row.Fields[col].String()
			}
		}
		records = append(records, rec)
	}
	return records
}

// CanonicalDateLayout is the serialized date form used everywhere
// downstream of the transform.
const CanonicalDateLayout = "02/01/2006"

// FormatDate renders a date in the canonical DD/MM/YYYY form.
func FormatDate(t time.Time) string {
	return t.Format(CanonicalDateLayout)
}
