package load

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/alecacerestel/AppASO/internal/drive"
	"github.com/alecacerestel/AppASO/internal/schema"
)

func TestWorkbookWrite(t *testing.T) {
	dir := t.TempDir()
	store, err := drive.NewFolderStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	cfg := WorkbookConfig{Path: "MASTER_DATA_CLEAN.xlsx", Sheets: DefaultSheets()}
	w := NewWorkbookWriter(store, cfg, zap.NewNop())

	bundle := schema.Bundle{schema.Installs: installsFixture(t)}
	if err := w.Write(context.Background(), bundle); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "MASTER_DATA_CLEAN.xlsx"))
	if err != nil {
		t.Fatal(err)
	}
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	defer book.Close()

	rows, err := book.GetRows("INSTALLS")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "Date" || rows[0][1] != "Installs" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "02/01/2024" || rows[1][1] != "120" || rows[1][2] != "Apple" {
		t.Errorf("apple row = %v", rows[1])
	}
	// The missing install leaves the cell empty.
	if cell, err := book.GetCellValue("INSTALLS", "B3"); err != nil || cell != "" {
		t.Errorf("google installs cell = %q (err %v), want empty", cell, err)
	}

	// The scratch default sheet must not survive.
	for _, name := range book.GetSheetList() {
		if name == "Sheet1" {
			t.Error("default Sheet1 left in workbook")
		}
	}
}

func TestWorkbookWriteMissingSheetConfig(t *testing.T) {
	store, err := drive.NewFolderStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cfg := WorkbookConfig{Path: "out.xlsx", Sheets: map[schema.DataType]string{}}
	w := NewWorkbookWriter(store, cfg, zap.NewNop())

	bundle := schema.Bundle{schema.Installs: installsFixture(t)}
	if err := w.Write(context.Background(), bundle); err == nil {
		t.Error("expected error when worksheet is not configured")
	}
}

func TestLoaderOrderAndPartialBundle(t *testing.T) {
	dir := t.TempDir()
	store, err := drive.NewFolderStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	loader := NewLoader(
		NewLakeWriter(store, LakeConfig{Folder: "lake", Format: FormatCSV}, zap.NewNop()),
		NewWorkbookWriter(store, WorkbookConfig{Path: "master.xlsx", Sheets: DefaultSheets()}, zap.NewNop()),
		nil,
		zap.NewNop(),
	)

	// A bundle missing failed data types still loads the survivors.
	bundle := schema.Bundle{schema.Installs: installsFixture(t)}
	runDate := installsFixture(t).Rows[0].Date
	if err := loader.Load(context.Background(), bundle, runDate); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dir, "lake/2024/01_January/installs_2024-01-02.csv")); err != nil {
		t.Errorf("lake archive missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "master.xlsx")); err != nil {
		t.Errorf("workbook missing: %v", err)
	}
}
