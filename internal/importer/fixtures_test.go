package importer

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/xuri/excelize/v2"

	"topikbank/internal/sheet"
)

// row builds a data row in ExportHeaders order from a field map.
func row(values map[string]string) []string {
	out := make([]string, len(ExportHeaders))
	for i, h := range ExportHeaders {
		out[i] = values[h]
	}
	return out
}

func fullRow(n int, answer string) []string {
	return row(map[string]string{
		"번호":   fmt.Sprint(n),
		"문제":   fmt.Sprintf("문제 %d", n),
		"지문":   fmt.Sprintf("지문 %d", n),
		"선택지1": fmt.Sprintf("%d-1", n),
		"선택지2": fmt.Sprintf("%d-2", n),
		"선택지3": fmt.Sprintf("%d-3", n),
		"선택지4": fmt.Sprintf("%d-4", n),
		"정답":   answer,
	})
}

func paperSheet(name string, numbers ...int) sheet.Sheet {
	rows := [][]string{append([]string(nil), ExportHeaders...)}
	for _, n := range numbers {
		rows = append(rows, fullRow(n, "B"))
	}
	return sheet.Sheet{Name: name, Rows: rows}
}

func slots(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for n := from; n <= to; n++ {
		out = append(out, n)
	}
	return out
}

// xlsxBytes writes sheets into an in-memory workbook.
func xlsxBytes(t *testing.T, sheets ...sheet.Sheet) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.Name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			t.Fatalf("new sheet: %v", err)
		}
		for r, cells := range s.Rows {
			for c, v := range cells {
				if v == "" {
					continue
				}
				cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
				if err := f.SetCellValue(s.Name, cell, v); err != nil {
					t.Fatalf("set cell: %v", err)
				}
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return append([]byte(nil), buf.Bytes()...)
}

func readXLSX(t *testing.T, data []byte) *sheet.Workbook {
	t.Helper()
	wb, err := sheet.ReadWorkbook(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("read workbook: %v", err)
	}
	return wb
}
