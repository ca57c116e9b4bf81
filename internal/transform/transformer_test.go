package transform

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/alecacerestel/AppASO/internal/schema"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cutoff, err := time.Parse("2006-01-02", "2025-07-15")
	if err != nil {
		t.Fatal(err)
	}
	return Config{Cutoff: cutoff, PreStage: "Pre-Agency", PostStage: "With-Agency"}
}

func keywordsTable(platform schema.Platform, rows []schema.RawRow) schema.RawTable {
	return schema.RawTable{
		Platform: platform,
		Columns:  []string{"DateTime", "Rank 1", "Rank 2 - 3", "Rank 4 - 10", "Rank 11-30", "Rank 31-100", "Rank 100+"},
		Rows:     rows,
	}
}

func installsTable(platform schema.Platform, rows []schema.RawRow) schema.RawTable {
	col := "Installs Apple"
	if platform == schema.Google {
		col = "Installs Google Play"
	}
	return schema.RawTable{
		Platform: platform,
		Columns:  []string{"Date", col},
		Rows:     rows,
	}
}

func keywordRow(date, rank1 string) schema.RawRow {
	return schema.RawRow{
		"DateTime": date, "Rank 1": rank1, "Rank 2 - 3": "1", "Rank 4 - 10": "2",
		"Rank 11-30": "3", "Rank 31-100": "4", "Rank 100+": "5",
	}
}

// fullBundle builds a minimal valid six-table input.
func fullBundle() schema.RawBundle {
	googleUsersCol := "Utilisateurs actifs par mois (UAM) (Utilisateurs uniques, Par intervalle, Quotidiennes) : Tous les pays/régions"
	return schema.RawBundle{
		schema.Keywords: {
			Apple:  keywordsTable(schema.Apple, []schema.RawRow{keywordRow("02/01/2024", "10")}),
			Google: keywordsTable(schema.Google, []schema.RawRow{keywordRow("02/01/2024", "20")}),
		},
		schema.Installs: {
			Apple:  installsTable(schema.Apple, []schema.RawRow{{"Date": "02/01/2024", "Installs Apple": "120"}}),
			Google: installsTable(schema.Google, []schema.RawRow{{"Date": "02/01/2024", "Installs Google Play": "300"}}),
		},
		schema.Users: {
			Apple: schema.RawTable{
				Platform: schema.Apple,
				Columns:  []string{"Nom", "Courses U : Magasin en ligne"},
				Rows: []schema.RawRow{
					{"Nom": "Début de l'export", "Courses U : Magasin en ligne": ""},
					{"Nom": "Fin de l'export", "Courses U : Magasin en ligne": ""},
					{"Nom": "1 janv. 2024", "Courses U : Magasin en ligne": "100"},
				},
			},
			Google: schema.RawTable{
				Platform: schema.Google,
				Columns:  []string{"Date", googleUsersCol},
				Rows: []schema.RawRow{
					{"Date": "1 janv. 2024", googleUsersCol: "250"},
				},
			},
		},
	}
}

func TestTransformFullBundle(t *testing.T) {
	tr := New(testConfig(t), zap.NewNop())
	result, err := tr.Transform(fullBundle())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(result.Tables) != 3 {
		t.Fatalf("got %d tables, want 3", len(result.Tables))
	}
	for _, dataType := range schema.DataTypes() {
		if _, ok := result.Tables[dataType]; !ok {
			t.Errorf("missing table %s", dataType)
		}
	}
}

func TestTransformKeywordsConcatenation(t *testing.T) {
	tr := New(testConfig(t), zap.NewNop())
	raw := schema.RawBundle{
		schema.Keywords: {
			Apple:  keywordsTable(schema.Apple, []schema.RawRow{keywordRow("02/01/2024", "10")}),
			Google: keywordsTable(schema.Google, []schema.RawRow{keywordRow("02/01/2024", "20")}),
		},
	}
	result, err := tr.Transform(raw)
	var transformErr *TransformError
	if !errors.As(err, &transformErr) {
		t.Fatalf("expected TransformError for missing installs/users, got %v", err)
	}

	table := result.Tables[schema.Keywords]
	if table == nil {
		t.Fatal("keywords table missing despite valid input")
	}
	if len(table.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(table.Rows))
	}
	if table.Rows[0].Platform != schema.Apple || table.Rows[1].Platform != schema.Google {
		t.Errorf("platform order = %s, %s; want Apple, Google", table.Rows[0].Platform, table.Rows[1].Platform)
	}
	for i, row := range table.Rows {
		if row.Stage != "Pre-Agency" {
			t.Errorf("row %d stage = %q, want Pre-Agency", i, row.Stage)
		}
		if schema.FormatDate(row.Date) != "02/01/2024" {
			t.Errorf("row %d date = %s", i, schema.FormatDate(row.Date))
		}
	}
	if v, ok := table.Rows[0].Fields[schema.ColRank1].Value(); !ok || v != 10 {
		t.Errorf("apple Rank_1 = %v ok=%v, want 10", v, ok)
	}
	if v, ok := table.Rows[1].Fields[schema.ColRank1].Value(); !ok || v != 20 {
		t.Errorf("google Rank_1 = %v ok=%v, want 20", v, ok)
	}
}

func TestTransformAppleUsersMetadataSkipped(t *testing.T) {
	tr := New(testConfig(t), zap.NewNop())
	result, err := tr.Transform(fullBundle())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	table := result.Tables[schema.Users]
	if len(table.Rows) != 2 {
		t.Fatalf("got %d user rows, want 2", len(table.Rows))
	}
	apple := table.Rows[0]
	if apple.Platform != schema.Apple {
		t.Fatalf("first row platform = %s, want Apple", apple.Platform)
	}
	if schema.FormatDate(apple.Date) != "01/01/2024" {
		t.Errorf("apple date = %s, want 01/01/2024", schema.FormatDate(apple.Date))
	}
	if v, ok := apple.Fields[schema.ColActiveUsers].Value(); !ok || v != 100 {
		t.Errorf("apple active users = %v ok=%v, want 100", v, ok)
	}
	if apple.Notes != "" {
		t.Errorf("apple notes = %q, want empty", apple.Notes)
	}
}

func TestTransformNullPolicy(t *testing.T) {
	tr := New(testConfig(t), zap.NewNop())
	raw := fullBundle()
	pair := raw[schema.Installs]
	pair.Apple.Rows = []schema.RawRow{
		{"Date": "02/01/2024", "Installs Apple": "n/a"},
		{"Date": "03/01/2024", "Installs Apple": ""},
		{"Date": "", "Installs Apple": "50"},
	}
	raw[schema.Installs] = pair

	result, err := tr.Transform(raw)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	table := result.Tables[schema.Installs]
	var appleRows []schema.Row
	for _, row := range table.Rows {
		if row.Platform == schema.Apple {
			appleRows = append(appleRows, row)
		}
	}
	// The date-less row is dropped, the other two kept with missing cells.
	if len(appleRows) != 2 {
		t.Fatalf("got %d apple rows, want 2", len(appleRows))
	}
	for i, row := range appleRows {
		if row.Fields[schema.ColInstalls].Valid() {
			t.Errorf("apple row %d installs should be missing", i)
		}
	}
	if result.DroppedRows[schema.Installs] != 1 {
		t.Errorf("DroppedRows = %d, want 1", result.DroppedRows[schema.Installs])
	}
	// Only the unparsable non-empty cell warns; the empty cell is silent.
	if result.ParseWarnings[schema.Installs][schema.ColInstalls] != 1 {
		t.Errorf("ParseWarnings = %v", result.ParseWarnings[schema.Installs])
	}
}

func TestTransformStageCutoff(t *testing.T) {
	tr := New(testConfig(t), zap.NewNop())
	raw := fullBundle()
	pair := raw[schema.Installs]
	pair.Apple.Rows = []schema.RawRow{
		{"Date": "14/07/2025", "Installs Apple": "10"},
		{"Date": "15/07/2025", "Installs Apple": "20"},
		{"Date": "16/07/2025", "Installs Apple": "30"},
	}
	raw[schema.Installs] = pair

	result, err := tr.Transform(raw)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	stages := map[string]string{}
	for _, row := range result.Tables[schema.Installs].Rows {
		if row.Platform == schema.Apple {
			stages[schema.FormatDate(row.Date)] = row.Stage
		}
	}
	if stages["14/07/2025"] != "Pre-Agency" {
		t.Errorf("day before cutoff staged %q", stages["14/07/2025"])
	}
	if stages["15/07/2025"] != "With-Agency" {
		t.Errorf("cutoff day staged %q, want With-Agency (inclusive)", stages["15/07/2025"])
	}
	if stages["16/07/2025"] != "With-Agency" {
		t.Errorf("day after cutoff staged %q", stages["16/07/2025"])
	}
}

func TestTransformSortOrder(t *testing.T) {
	tr := New(testConfig(t), zap.NewNop())
	raw := fullBundle()
	pair := raw[schema.Installs]
	pair.Apple.Rows = []schema.RawRow{
		{"Date": "03/01/2024", "Installs Apple": "2"},
		{"Date": "01/01/2024", "Installs Apple": "1"},
	}
	pair.Google.Rows = []schema.RawRow{
		{"Date": "01/01/2024", "Installs Google Play": "3"},
		{"Date": "02/01/2024", "Installs Google Play": "4"},
	}
	raw[schema.Installs] = pair

	result, err := tr.Transform(raw)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	rows := result.Tables[schema.Installs].Rows
	type key struct {
		date     string
		platform schema.Platform
	}
	want := []key{
		{"01/01/2024", schema.Apple},
		{"01/01/2024", schema.Google},
		{"02/01/2024", schema.Google},
		{"03/01/2024", schema.Apple},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i, w := range want {
		if schema.FormatDate(rows[i].Date) != w.date || rows[i].Platform != w.platform {
			t.Errorf("row %d = (%s, %s), want (%s, %s)",
				i, schema.FormatDate(rows[i].Date), rows[i].Platform, w.date, w.platform)
		}
	}
}

func TestTransformIdempotent(t *testing.T) {
	tr := New(testConfig(t), zap.NewNop())
	first, err := tr.Transform(fullBundle())
	if err != nil {
		t.Fatalf("first Transform: %v", err)
	}
	second, err := tr.Transform(fullBundle())
	if err != nil {
		t.Fatalf("second Transform: %v", err)
	}

	for _, dataType := range schema.DataTypes() {
		a := first.Tables[dataType].Records()
		b := second.Tables[dataType].Records()
		if len(a) != len(b) {
			t.Fatalf("%s: row count differs between runs", dataType)
		}
		for i := range a {
			for j := range a[i] {
				if a[i][j] != b[i][j] {
					t.Errorf("%s: cell (%d,%d) differs: %q vs %q", dataType, i, j, a[i][j], b[i][j])
				}
			}
		}
	}
}

func TestTransformSchemaClosure(t *testing.T) {
	tr := New(testConfig(t), zap.NewNop())
	result, err := tr.Transform(fullBundle())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	for _, dataType := range schema.DataTypes() {
		table := result.Tables[dataType]
		cols, err := schema.CanonicalColumns(dataType)
		if err != nil {
			t.Fatal(err)
		}
		want := append(cols, schema.ColStage)
		got := table.Columns()
		if len(got) != len(want) {
			t.Fatalf("%s: got %d columns, want %d", dataType, len(got), len(want))
		}
		for i := range got {
			if got[i] != want[i] {
				t.Errorf("%s: column %d = %q, want %q", dataType, i, got[i], want[i])
			}
		}
	}
}

func TestTransformEmptySource(t *testing.T) {
	tr := New(testConfig(t), zap.NewNop())
	raw := fullBundle()
	pair := raw[schema.Keywords]
	pair.Google.Rows = nil
	raw[schema.Keywords] = pair

	result, err := tr.Transform(raw)
	var transformErr *TransformError
	if !errors.As(err, &transformErr) {
		t.Fatalf("expected *TransformError, got %v", err)
	}
	failure := transformErr.Failed(schema.Keywords)
	var emptyErr *EmptySourceError
	if !errors.As(failure, &emptyErr) {
		t.Fatalf("keywords failure = %v, want *EmptySourceError", failure)
	}
	if emptyErr.Platform != schema.Google {
		t.Errorf("empty platform = %s, want Google", emptyErr.Platform)
	}

	// The other data types still complete.
	if result.Tables[schema.Installs] == nil || result.Tables[schema.Users] == nil {
		t.Error("unaffected tables missing from partial result")
	}
	if result.Tables[schema.Keywords] != nil {
		t.Error("failed data type produced a table")
	}
}

func TestTransformMappingDrift(t *testing.T) {
	tr := New(testConfig(t), zap.NewNop())
	raw := fullBundle()
	pair := raw[schema.Installs]
	pair.Google.Columns = []string{"Date", "Téléchargements"}
	pair.Google.Rows = []schema.RawRow{{"Date": "02/01/2024", "Téléchargements": "300"}}
	raw[schema.Installs] = pair

	_, err := tr.Transform(raw)
	var transformErr *TransformError
	if !errors.As(err, &transformErr) {
		t.Fatalf("expected *TransformError, got %v", err)
	}
	var mappingErr *schema.MappingError
	if !errors.As(transformErr.Failed(schema.Installs), &mappingErr) {
		t.Fatalf("installs failure = %v, want *MappingError", transformErr.Failed(schema.Installs))
	}
	if mappingErr.Column != "Installs Google Play" {
		t.Errorf("Column = %q", mappingErr.Column)
	}
}

func TestTransformFrenchDatesOnBothUserPlatforms(t *testing.T) {
	tr := New(testConfig(t), zap.NewNop())
	result, err := tr.Transform(fullBundle())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	for _, row := range result.Tables[schema.Users].Rows {
		if schema.FormatDate(row.Date) != "01/01/2024" {
			t.Errorf("%s user row date = %s, want 01/01/2024", row.Platform, schema.FormatDate(row.Date))
		}
	}
}
