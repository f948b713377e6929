// Package dataset loads and groups the tabular input of a Violin SuperPlot.
//
// A [Table] holds raw string cells exactly as read from CSV or Excel. Three
// named columns are required: the condition (group), the numeric value and the
// replicate. [ValidateColumns] reports every missing column at once, then
// [Table.Observations] coerces labels to strings and values to float64 (empty
// or non-numeric cells become NaN). [Group] arranges observations into
// per-(group, replicate) samples in a canonical order shared by every group.
package dataset

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/superviolin/pkg/errors"
)

// Default column names, matching the demo data and the preferences template.
const (
	DefaultConditionColumn = "condition"
	DefaultValueColumn     = "value"
	DefaultReplicateColumn = "replicate"
)

// Columns names the three required columns of a table.
type Columns struct {
	Condition string `json:"condition" toml:"condition"`
	Value     string `json:"value" toml:"value"`
	Replicate string `json:"replicate" toml:"replicate"`
}

// DefaultColumns returns the column names used when none are configured.
func DefaultColumns() Columns {
	return Columns{
		Condition: DefaultConditionColumn,
		Value:     DefaultValueColumn,
		Replicate: DefaultReplicateColumn,
	}
}

// WithDefaults fills empty names with the defaults.
func (c Columns) WithDefaults() Columns {
	d := DefaultColumns()
	if c.Condition == "" {
		c.Condition = d.Condition
	}
	if c.Value == "" {
		c.Value = d.Value
	}
	if c.Replicate == "" {
		c.Replicate = d.Replicate
	}
	return c
}

// Validate checks each name for unsafe characters.
func (c Columns) Validate() error {
	for _, name := range []string{c.Condition, c.Value, c.Replicate} {
		if err := errors.ValidateColumnName(name); err != nil {
			return err
		}
	}
	return nil
}

// Observation is one numeric value tagged with its group and replicate.
type Observation struct {
	Group     string  `json:"group"`
	Replicate string  `json:"replicate"`
	Value     float64 `json:"value"`
}

// Table is a header plus rows of raw cells.
// Rows shorter than the header are treated as padded with empty cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Columns returns the header names.
func (t *Table) Columns() []string {
	out := make([]string, len(t.Header))
	copy(out, t.Header)
	return out
}

// Index returns the position of the named column, or -1.
// Surrounding whitespace in header cells is ignored.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// ValidateColumns checks that all three required columns exist.
// The returned *errors.MissingColumnsError lists every missing name.
func ValidateColumns(t *Table, cols Columns) error {
	var missing []string
	for _, name := range []string{cols.Condition, cols.Value, cols.Replicate} {
		if t.Index(name) < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &errors.MissingColumnsError{Columns: missing}
	}
	return nil
}

// Observations converts rows into observations.
// Labels are trimmed strings; values that do not parse become NaN so they can
// be filtered before density fitting.
func (t *Table) Observations(cols Columns) ([]Observation, error) {
	if err := ValidateColumns(t, cols); err != nil {
		return nil, err
	}
	gi, vi, ri := t.Index(cols.Condition), t.Index(cols.Value), t.Index(cols.Replicate)

	obs := make([]Observation, 0, len(t.Rows))
	for _, row := range t.Rows {
		group, rep := cell(row, gi), cell(row, ri)
		if group == "" && rep == "" && cell(row, vi) == "" {
			continue // blank line
		}
		obs = append(obs, Observation{
			Group:     group,
			Replicate: rep,
			Value:     parseValue(cell(row, vi)),
		})
	}
	return obs, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseValue parses a numeric cell. Empty and non-numeric cells yield NaN.
func parseValue(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// FromRecords builds a table from string records whose first record is the
// header, as produced by csv.Reader.ReadAll or a JSON request body.
func FromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no records")
	}
	return &Table{Header: records[0], Rows: records[1:]}, nil
}

// FromObservations builds a tidy table from observations, mainly for tests and
// programmatic callers.
func FromObservations(obs []Observation, cols Columns) *Table {
	t := &Table{Header: []string{cols.Condition, cols.Value, cols.Replicate}}
	for _, o := range obs {
		t.Rows = append(t.Rows, []string{
			o.Group,
			strconv.FormatFloat(o.Value, 'g', -1, 64),
			o.Replicate,
		})
	}
	return t
}
