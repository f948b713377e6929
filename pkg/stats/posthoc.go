package stats

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Matrix holds pairwise p-values. It is symmetric with a unit diagonal.
type Matrix struct {
	Labels []string    `json:"labels,omitempty"`
	Values [][]float64 `json:"values"`
}

// NewMatrix returns a k×k matrix of ones.
func NewMatrix(k int) *Matrix {
	m := &Matrix{Values: make([][]float64, k)}
	for i := range m.Values {
		m.Values[i] = make([]float64, k)
		for j := range m.Values[i] {
			m.Values[i][j] = 1
		}
	}
	return m
}

// Len returns the number of groups.
func (m *Matrix) Len() int { return len(m.Values) }

// Set stores p for the pair (i, j) and its mirror. The diagonal stays 1.
func (m *Matrix) Set(i, j int, p float64) {
	if i == j {
		return
	}
	m.Values[i][j] = p
	m.Values[j][i] = p
}

// At returns the p-value of the pair (i, j).
func (m *Matrix) At(i, j int) float64 { return m.Values[i][j] }

// Lookup returns the p-value of two labelled groups.
func (m *Matrix) Lookup(a, b string) (float64, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

func (m *Matrix) index(label string) int {
	for i, l := range m.Labels {
		if l == label {
			return i
		}
	}
	return -1
}

// Round returns a copy with every value rounded to the given decimals.
func (m *Matrix) Round(decimals int) *Matrix {
	scale := math.Pow(10, float64(decimals))
	out := &Matrix{Labels: append([]string(nil), m.Labels...), Values: make([][]float64, len(m.Values))}
	for i, row := range m.Values {
		out.Values[i] = make([]float64, len(row))
		for j, v := range row {
			out.Values[i][j] = math.RoundToEven(v*scale) / scale
		}
	}
	return out
}

// WriteTSV writes the matrix as a tab-separated table rounded to three
// decimals, with an empty top-left header cell and one row per group.
func (m *Matrix) WriteTSV(w io.Writer) error {
	r := m.Round(3)
	bw := bufio.NewWriter(w)

	header := append([]string{""}, r.Labels...)
	if _, err := fmt.Fprintln(bw, strings.Join(header, "\t")); err != nil {
		return err
	}
	for i, row := range r.Values {
		cells := make([]string, 0, len(row)+1)
		label := strconv.Itoa(i)
		if i < len(r.Labels) {
			label = r.Labels[i]
		}
		cells = append(cells, label)
		for _, v := range row {
			cells = append(cells, formatCell(v))
		}
		if _, err := fmt.Fprintln(bw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// formatCell prints the shortest representation, keeping a trailing ".0" for
// whole numbers so the table reads as floats.
func formatCell(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEN") {
		s += ".0"
	}
	return s
}

// PosthocMannWhitney compares every pair with Mann-Whitney U and applies a
// Bonferroni correction over the k(k-1)/2 comparisons.
func PosthocMannWhitney(groups [][]float64) (*Matrix, error) {
	k := len(groups)
	if k < 2 {
		return nil, testError("Mann-Whitney posthoc", "need at least 2 groups, got %d", k)
	}
	comparisons := float64(k * (k - 1) / 2)
	m := NewMatrix(k)
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			r, err := MannWhitneyU(groups[i], groups[j])
			if err != nil {
				return nil, err
			}
			m.Set(i, j, math.Min(1, r.P*comparisons))
		}
	}
	return m, nil
}
