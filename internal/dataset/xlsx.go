package dataset

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadXLSX reads a profile dataset from a worksheet of an .xlsx workbook.
// An empty sheet selects the first one. Date cells stored as Excel serial
// numbers are converted before parsing.
func LoadXLSX(path, sheet string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx %s has no sheets", filepath.Base(path))
	}
	if sheet == "" {
		sheet = sheets[0]
	} else {
		found := false
		for _, s := range sheets {
			if strings.EqualFold(s, sheet) {
				sheet, found = s, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'.\nAvailable sheets: %s",
				sheet, filepath.Base(path), strings.Join(sheets, ", "))
		}
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	dateCols := map[int]bool{}
	if len(rows) > 0 {
		for i, h := range rows[0] {
			if c, ok := Lookup(strings.ToLower(strings.TrimSpace(h))); ok && c.Kind == KindDatetime {
				dateCols[i] = true
			}
		}
	}

	i := 0
	next := func() ([]string, error) {
		if i >= len(rows) {
			return nil, io.EOF
		}
		rec := rows[i]
		if i > 0 {
			for j := range rec {
				if dateCols[j] {
					rec[j] = serialDate(rec[j])
				}
			}
		}
		i++
		return rec, nil
	}
	return decode(filepath.Base(path), next)
}

// serialDate renders an Excel serial date as text; other values pass through.
func serialDate(v string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return v
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return v
	}
	return FormatTime(t)
}
