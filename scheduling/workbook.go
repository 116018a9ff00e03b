package scheduling

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
)

// Row is one scheduled match as it appears in an exported workbook.
type Row struct {
	Start    time.Time
	Court    int
	Category string
	Group    string
	Round    string
	Side1    string
	Side2    string
	Referee  string
}

var workbookHeader = []any{"Saat", "Kort", "Kategori", "Grup", "Tur", "Taraf 1", "Taraf 2", "Hakem"}

// WriteWorkbook writes rows as an xlsx workbook with one sheet per day,
// sorted by time and court.
func WriteWorkbook(w io.Writer, rows []Row) error {
	sorted := append([]Row(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}
		return sorted[i].Court < sorted[j].Court
	})

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	next := map[string]int{}
	var sheets []string
	for _, r := range sorted {
		sheet := r.Start.Format("02.01.2006")
		if _, ok := next[sheet]; !ok {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("creating sheet %s: %w", sheet, err)
			}
			if err := f.SetSheetRow(sheet, "A1", &workbookHeader); err != nil {
				return err
			}
			if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
				return err
			}
			next[sheet] = 2
			sheets = append(sheets, sheet)
		}
		cell, err := excelize.CoordinatesToCellName(1, next[sheet])
		if err != nil {
			return err
		}
		values := []any{r.Start.Format("15:04"), r.Court, r.Category, r.Group, r.Round, r.Side1, r.Side2, r.Referee}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, next[sheet], err)
		}
		next[sheet]++
	}

	if len(sheets) == 0 {
		if err := f.SetSheetRow("Sheet1", "A1", &workbookHeader); err != nil {
			return err
		}
	} else {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return err
		}
		idx, err := f.GetSheetIndex(sheets[0])
		if err != nil {
			return err
		}
		f.SetActiveSheet(idx)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
