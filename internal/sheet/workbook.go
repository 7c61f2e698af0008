package sheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrEmptyWorkbook = errors.New("workbook has no sheets")

type Workbook struct {
	Sheets []Sheet
}

// Sheet is one worksheet: the first row is the header, the rest are data rows.
type Sheet struct {
	Name string
	Rows [][]string
}

// Row is a data row together with its 1-based line number in the worksheet.
type Row struct {
	Line  int
	Cells []string
}

func ReadWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open excel: %w", err)
	}
	defer func() { _ = f.Close() }()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, ErrEmptyWorkbook
	}

	wb := &Workbook{Sheets: make([]Sheet, 0, len(names))}
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read rows of %q: %w", name, err)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Rows: rows})
	}
	return wb, nil
}

func (s Sheet) Header() []string {
	if len(s.Rows) == 0 {
		return nil
	}
	return s.Rows[0]
}

// DataRows returns every non-blank row after the header.
func (s Sheet) DataRows() []Row {
	if len(s.Rows) < 2 {
		return nil
	}
	out := make([]Row, 0, len(s.Rows)-1)
	for i := 1; i < len(s.Rows); i++ {
		if isBlankRow(s.Rows[i]) {
			continue
		}
		out = append(out, Row{Line: i + 1, Cells: s.Rows[i]})
	}
	return out
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
