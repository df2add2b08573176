package analysis

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

// MaxRows bounds how much of a sheet is sent to the model.
const MaxRows = 2000

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var ErrUnreadableTable = errors.New("unreadable table")

// Table is normalized CSV text. Rows excludes the header.
type Table struct {
	Header    []string
	CSV       string
	Rows      int
	Truncated bool
}

// ReadTable accepts CSV text or an .xlsx workbook (first sheet).
func ReadTable(name string, data []byte) (Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Table{}, ErrEmptyInput
	}
	var (
		records [][]string
		err     error
	)
	if strings.EqualFold(filepath.Ext(name), ".xlsx") || mimetype.Detect(data).Is(xlsxMIME) {
		records, err = readXLSX(data)
	} else {
		records, err = readCSV(data)
	}
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", ErrUnreadableTable, err)
	}
	return normalize(records)
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	var out [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

// normalize trims cells, drops blank rows, pads ragged rows to the header
// width and re-encodes as CSV.
func normalize(records [][]string) (Table, error) {
	var rows [][]string
	for _, rec := range records {
		blank := true
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
			if rec[i] != "" {
				blank = false
			}
		}
		if !blank {
			rows = append(rows, rec)
		}
	}
	if len(rows) < 2 {
		return Table{}, ErrEmptyInput
	}

	t := Table{Header: rows[0]}
	body := rows[1:]
	if len(body) > MaxRows {
		body = body[:MaxRows]
		t.Truncated = true
	}
	width := len(t.Header)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(t.Header)
	for _, rec := range body {
		for len(rec) < width {
			rec = append(rec, "")
		}
		_ = w.Write(rec)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Table{}, err
	}
	t.CSV = buf.String()
	t.Rows = len(body)
	return t, nil
}
