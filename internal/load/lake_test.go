package load

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/alecacerestel/AppASO/internal/drive"
	"github.com/alecacerestel/AppASO/internal/schema"
)

func installsFixture(t *testing.T) *schema.Table {
	t.Helper()
	date, err := time.Parse(schema.CanonicalDateLayout, "02/01/2024")
	if err != nil {
		t.Fatal(err)
	}
	return &schema.Table{
		Type: schema.Installs,
		Rows: []schema.Row{
			{
				Date:     date,
				Platform: schema.Apple,
				Stage:    "Pre-Agency",
				Fields:   map[string]schema.Cell{schema.ColInstalls: schema.Number(120)},
			},
			{
				Date:     date,
				Platform: schema.Google,
				Stage:    "Pre-Agency",
				Fields:   map[string]schema.Cell{schema.ColInstalls: schema.MissingCell()},
			},
		},
	}
}

func TestEncodeCSV(t *testing.T) {
	data, err := EncodeCSV(installsFixture(t))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != "Date,Installs,Platform,Stage" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "02/01/2024,120,Apple,Pre-Agency" {
		t.Errorf("apple row = %q", lines[1])
	}
	// The missing install stays an empty cell, not a zero.
	if lines[2] != "02/01/2024,,Google,Pre-Agency" {
		t.Errorf("google row = %q", lines[2])
	}
}

func TestArchivePath(t *testing.T) {
	w := NewLakeWriter(nil, LakeConfig{Folder: "02_Data_Lake_Historic", Format: FormatCSV}, zap.NewNop())
	runDate := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
	got := w.archivePath(schema.Installs, runDate)
	want := "02_Data_Lake_Historic/2024/03_March/installs_2024-03-05.csv"
	if got != want {
		t.Errorf("archivePath = %q, want %q", got, want)
	}
}

func TestArchive(t *testing.T) {
	dir := t.TempDir()
	store, err := drive.NewFolderStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	w := NewLakeWriter(store, LakeConfig{Folder: "lake", Format: FormatCSV}, zap.NewNop())

	bundle := schema.Bundle{schema.Installs: installsFixture(t)}
	runDate := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	if err := w.Archive(context.Background(), bundle, runDate); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "lake/2024/01_January/installs_2024-01-15.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "Date,Installs,Platform,Stage") {
		t.Errorf("archived content = %q", data)
	}
}

func TestArchiveParquet(t *testing.T) {
	dir := t.TempDir()
	store, err := drive.NewFolderStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	w := NewLakeWriter(store, LakeConfig{Folder: "lake", Format: FormatParquet}, zap.NewNop())

	bundle := schema.Bundle{schema.Installs: installsFixture(t)}
	runDate := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	if err := w.Archive(context.Background(), bundle, runDate); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "lake/2024/01_January/installs_2024-01-15.parquet"))
	if err != nil {
		t.Fatal(err)
	}
	// PAR1 magic bytes bracket every parquet file.
	if len(data) < 8 || string(data[:4]) != "PAR1" {
		t.Errorf("archive is not a parquet file (%d bytes)", len(data))
	}
}

func TestArchiveUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	store, err := drive.NewFolderStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	w := NewLakeWriter(store, LakeConfig{Folder: "lake", Format: "xml"}, zap.NewNop())
	bundle := schema.Bundle{schema.Installs: installsFixture(t)}
	if err := w.Archive(context.Background(), bundle, time.Now()); err == nil {
		t.Error("expected error for unsupported format")
	}
}
