// Package export renders application listings as spreadsheets.
package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Applications"

// Columns is the header row written to every export.
var Columns = []string{"_id", "userTechSkills", "userSoftSkills", "userResume", "publishDate"}

// ApplicationRow is one spreadsheet row.
type ApplicationRow struct {
	ID          string
	TechSkills  []string
	SoftSkills  []string
	Resume      string
	PublishedAt time.Time
}

// Applications builds an xlsx workbook with a single sheet of rows.
func Applications(rows []ApplicationRow) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("export: rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &Columns); err != nil {
		return nil, fmt.Errorf("export: header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(SheetName, 1, 1, bold)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []any{
			r.ID,
			strings.Join(r.TechSkills, ", "),
			strings.Join(r.SoftSkills, ", "),
			r.Resume,
			r.PublishedAt.UTC().Format(time.RFC3339),
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("export: row %d: %w", i+1, err)
		}
	}
	_ = f.SetColWidth(SheetName, "A", "E", 28)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("export: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
