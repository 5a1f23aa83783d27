// Package export renders lab entries as spreadsheet workbooks for operators.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"labentry/internal/labentry"
)

// Headers matches the column set of the kiosk's CSV download.
var Headers = []string{"Admission No", "Name", "Class", "Section", "Entry Time"}

const timeLayout = "2006-01-02 15:04:05"

// Filename returns the download name for an export generated at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("lab-entries-%s.xlsx", t.UTC().Format("2006-01-02T15-04-05Z"))
}

// WriteXLSX writes entries, in the given order, to w as a single-sheet workbook.
// Entry times are rendered in loc.
func WriteXLSX(w io.Writer, entries []labentry.Entry, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	file := excelize.NewFile()
	defer file.Close()

	sheet := "Lab Entries"
	if err := file.SetSheetName(file.GetSheetName(file.GetActiveSheetIndex()), sheet); err != nil {
		return err
	}

	for i, header := range Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}

	for i, e := range entries {
		row := []any{
			e.Student.AdmissionNo,
			e.Student.Name,
			e.Student.Class,
			e.Student.Section,
			e.EntryTime.In(loc).Format(timeLayout),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	_, err := file.WriteTo(w)
	return err
}
