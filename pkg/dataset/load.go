package dataset

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/superviolin/pkg/errors"
)

// Layout describes how an input file arranges its data.
type Layout string

const (
	// LayoutTidy has one row per observation with named condition, value and
	// replicate columns.
	LayoutTidy Layout = "tidy"

	// LayoutUntidy is an Excel workbook with one sheet per replicate and one
	// column per condition.
	LayoutUntidy Layout = "untidy"
)

// ValidLayouts is the set of supported input layouts.
var ValidLayouts = map[Layout]bool{LayoutTidy: true, LayoutUntidy: true}

// Kind is the file type of an input.
type Kind string

const (
	KindCSV   Kind = "csv"
	KindExcel Kind = "excel"
)

//go:embed demo.csv
var demoCSV []byte

// Demo returns the bundled two-condition demonstration table.
func Demo() *Table {
	t, err := LoadCSV(bytes.NewReader(demoCSV))
	if err != nil {
		panic(fmt.Sprintf("dataset: embedded demo data is invalid: %v", err))
	}
	return t
}

// KindFromName infers the file kind from a file name's extension.
func KindFromName(name string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case ext == ".csv" || ext == ".txt" || ext == ".tsv":
		return KindCSV, nil
	case strings.HasPrefix(ext, ".xl"):
		return KindExcel, nil
	default:
		return "", errors.New(errors.ErrCodeUnsupported, "Incorrect filename or unsupported filetype: %s", name)
	}
}

// LoadFile opens path and loads it according to its extension.
// Untidy layouts are only meaningful for Excel workbooks.
func LoadFile(path string, layout Layout, cols Columns) (*Table, error) {
	kind, err := KindFromName(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "file not found: %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return Load(f, kind, layout, cols)
}

// Load reads a table of the given kind from r.
func Load(r io.Reader, kind Kind, layout Layout, cols Columns) (*Table, error) {
	if layout == "" {
		layout = LayoutTidy
	}
	if !ValidLayouts[layout] {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "invalid data format: %q (must be tidy or untidy)", layout)
	}
	switch kind {
	case KindCSV:
		if layout == LayoutUntidy {
			return nil, errors.New(errors.ErrCodeUnsupported, "untidy data must be an Excel workbook with one sheet per replicate")
		}
		return LoadCSV(r)
	case KindExcel:
		if layout == LayoutUntidy {
			return LoadUntidyExcel(r, cols)
		}
		return LoadExcel(r)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported file kind: %q", kind)
	}
}

// LoadCSV reads a comma-separated table with a header row.
// Ragged rows are accepted; a header alone is an empty table.
func LoadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read CSV")
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "CSV file is empty")
	}
	if len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return FromRecords(rows)
}

// LoadExcel reads the first sheet of a workbook as a tidy table.
func LoadExcel(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open Excel workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "Excel workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read sheet %q", sheets[0])
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "sheet %q is empty", sheets[0])
	}
	return FromRecords(rows)
}

// Sheet is one worksheet of an untidy workbook: the sheet name is the
// replicate label, the header holds condition names.
type Sheet struct {
	Name string
	Rows [][]string
}

// LoadUntidyExcel reads every sheet of a workbook as one replicate and melts
// the result into a tidy table with the configured column names.
func LoadUntidyExcel(r io.Reader, cols Columns) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open Excel workbook")
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read sheet %q", name)
		}
		sheets = append(sheets, Sheet{Name: name, Rows: rows})
	}
	return Melt(sheets, cols)
}

// Melt converts per-replicate sheets into a tidy table. Each column header is
// a condition and each non-empty cell below it a value. Sheets without data
// rows are skipped.
func Melt(sheets []Sheet, cols Columns) (*Table, error) {
	t := &Table{Header: []string{cols.Condition, cols.Value, cols.Replicate}}
	for _, s := range sheets {
		if len(s.Rows) < 2 {
			continue
		}
		header := s.Rows[0]
		for col, cond := range header {
			cond = strings.TrimSpace(cond)
			if cond == "" {
				continue
			}
			for _, row := range s.Rows[1:] {
				v := cell(row, col)
				if v == "" {
					continue
				}
				t.Rows = append(t.Rows, []string{cond, v, s.Name})
			}
		}
	}
	if len(t.Rows) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "workbook contains no data")
	}
	return t, nil
}
