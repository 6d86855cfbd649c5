package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/brendan.keane/shopcheck/internal/errors"
	"github.com/brendan.keane/shopcheck/internal/harness"
)

const (
	excelSheet        = "Results"
	excelTimeFormat   = "2006-01-02 15:04:05"
	defaultColWidth   = 14
	wideColWidth      = 48
	patternType       = "pattern"
	patternValue      = 1
	failBgColor       = "FFC7CE"
	slowBgColor       = "FFEB9C"
	skipBgColor       = "E7E6E6"
	slowCaseThreshold = time.Second
)

var excelHeaders = []string{
	"#", "Case", "Method", "URL", "Expected status", "Actual status",
	"Result", "Details", "Duration (ms)",
}

// WriteExcel writes one row per outcome plus a summary block to path.
// Failed rows are red, skipped rows grey and slow passing rows yellow.
func WriteExcel(path string, results harness.Results, started time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", excelSheet); err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "failed to create Excel sheet")
	}

	lastCol, _ := excelize.ColumnNumberToName(len(excelHeaders))
	_ = f.SetColWidth(excelSheet, "A", lastCol, defaultColWidth)
	_ = f.SetColWidth(excelSheet, "B", "B", wideColWidth)
	_ = f.SetColWidth(excelSheet, "D", "D", wideColWidth)
	_ = f.SetColWidth(excelSheet, "H", "H", wideColWidth)

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	failStyle, _ := fillStyle(f, failBgColor)
	slowStyle, _ := fillStyle(f, slowBgColor)
	skipStyle, _ := fillStyle(f, skipBgColor)

	for i, header := range excelHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(excelSheet, cell, header)
	}
	_ = f.SetCellStyle(excelSheet, "A1", lastCol+"1", headerStyle)

	for i, o := range results.Outcomes {
		row := i + 2
		values := outcomeRow(i+1, o)
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(excelSheet, cell, v)
		}

		style := 0
		switch {
		case o.Skipped:
			style = skipStyle
		case o.Failed():
			style = failStyle
		case o.Duration > slowCaseThreshold:
			style = slowStyle
		}
		if style != 0 {
			_ = f.SetCellStyle(excelSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), style)
		}
	}

	writeExcelSummary(f, len(results.Outcomes)+3, results, started)

	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to save Excel report").
			WithContext("path", path)
	}
	return nil
}

func fillStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: patternType, Pattern: patternValue, Color: []string{color}},
	})
}

func outcomeRow(n int, o harness.Outcome) []interface{} {
	expected := ""
	if o.Case.Expect.Status != nil {
		expected = strconv.Itoa(*o.Case.Expect.Status)
	}
	actual := ""
	if o.Response != nil {
		actual = strconv.Itoa(o.Response.StatusCode)
	}

	result := "PASS"
	details := ""
	switch {
	case o.Skipped:
		result = "SKIP"
		details = o.SkipReason
	case o.Failed():
		result = "FAIL"
		details = strings.Join(o.Details(), "\n")
	}

	return []interface{}{
		n,
		o.Case.Name,
		o.Case.HTTPMethod(),
		o.URL,
		expected,
		actual,
		result,
		details,
		float64(o.Duration.Microseconds()) / 1000,
	}
}

func writeExcelSummary(f *excelize.File, startRow int, results harness.Results, started time.Time) {
	pass, fail, skip := results.Counts()
	lines := []string{
		"Summary",
		"Started: " + started.Format(excelTimeFormat),
		fmt.Sprintf("Total duration: %.3fms", float64(results.Duration.Microseconds())/1000),
		fmt.Sprintf("Total cases: %d", len(results.Outcomes)),
		fmt.Sprintf("Passed: %d", pass),
		fmt.Sprintf("Failed: %d", fail),
		fmt.Sprintf("Skipped: %d", skip),
	}
	for i, line := range lines {
		_ = f.SetCellValue(excelSheet, fmt.Sprintf("A%d", startRow+i), line)
	}
}
