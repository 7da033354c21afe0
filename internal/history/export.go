package history

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"udlaeg/internal/core"
)

const exportSheet = "Udlæg"

// ExportXLSX writes the entries as a spreadsheet, one row per submission.
func ExportXLSX(entries []core.HistoryEntry, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(exportSheet); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	idx, _ := f.GetSheetIndex(exportSheet)
	f.SetActiveSheet(idx)

	headers := []string{"Dato", "Beskrivelse", "Kvitteringer", "Beløb (kr)", "Modtaget"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(exportSheet, cell, h)
	}

	for n, e := range entries {
		row := n + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(exportSheet, cell, v)
		}
		write(1, e.Date.Format("02.01.2006"))
		write(2, e.Description)
		write(3, e.ReceiptsCount)
		write(4, e.Total.Decimal().InexactFloat64())
		if e.Received {
			write(5, "Ja")
		} else {
			write(5, "Nej")
		}
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 12)
	_ = f.SetColWidth(exportSheet, "B", "B", 40)
	_ = f.SetColWidth(exportSheet, "C", "E", 14)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
