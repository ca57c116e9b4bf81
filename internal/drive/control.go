package drive

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
)

// Control-panel cell coordinates: the run flag lives in cell B3 of the
// control sheet's CSV export.
const (
	controlRow = 2
	controlCol = 1
)

// ControlEnabled reads the control-panel file and reports whether the
// pipeline is switched on. The flag values TRUE and ON (any case) enable
// a run; anything else, including a missing cell, disables it.
func ControlEnabled(ctx context.Context, store Store, path string) (bool, error) {
	data, err := store.Download(ctx, path)
	if err != nil {
		return false, fmt.Errorf("control panel: %w", err)
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return false, fmt.Errorf("control panel %s: %w", path, err)
	}
	if len(rows) <= controlRow || len(rows[controlRow]) <= controlCol {
		return false, nil
	}
	switch strings.ToUpper(strings.TrimSpace(rows[controlRow][controlCol])) {
	case "TRUE", "ON":
		return true, nil
	}
	return false, nil
}
