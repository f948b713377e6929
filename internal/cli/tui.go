package cli

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/superviolin/pkg/dataset"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// previewRows is the number of data rows shown under the column list.
const previewRows = 5

// =============================================================================
// ColumnPickerModel - Interactive column selection
// =============================================================================

// columnRoles are picked in this order.
var columnRoles = []string{"condition", "value", "replicate"}

// ColumnPickerModel is the bubbletea model that assigns table columns to the
// condition, value and replicate roles.
type ColumnPickerModel struct {
	Table  *dataset.Table
	Cursor int

	// Picked holds the chosen header index per role, in columnRoles order.
	Picked []int

	// Done is set once all three roles are assigned.
	Done bool
}

// NewColumnPickerModel creates a picker over the header of t. Columns whose
// names match a default role are preselected by cursor position only.
func NewColumnPickerModel(t *dataset.Table) ColumnPickerModel {
	m := ColumnPickerModel{Table: t}
	m.Cursor = m.suggest()
	return m
}

// suggest returns the header index of the current role's default column, or 0.
func (m ColumnPickerModel) suggest() int {
	defaults := dataset.DefaultColumns()
	names := []string{defaults.Condition, defaults.Value, defaults.Replicate}
	if len(m.Picked) < len(names) {
		if i := m.Table.Index(names[len(m.Picked)]); i >= 0 {
			return i
		}
	}
	return 0
}

// Role returns the role currently being picked.
func (m ColumnPickerModel) Role() string {
	if len(m.Picked) >= len(columnRoles) {
		return ""
	}
	return columnRoles[len(m.Picked)]
}

// Columns returns the selection. It is only meaningful when Done is set.
func (m ColumnPickerModel) Columns() dataset.Columns {
	name := func(i int) string {
		if i < len(m.Picked) {
			return m.Table.Header[m.Picked[i]]
		}
		return ""
	}
	return dataset.Columns{Condition: name(0), Value: name(1), Replicate: name(2)}
}

func (m ColumnPickerModel) taken(i int) bool {
	for _, p := range m.Picked {
		if p == i {
			return true
		}
	}
	return false
}

func (m ColumnPickerModel) Init() tea.Cmd {
	return nil
}

func (m ColumnPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k", "left", "h":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j", "right", "l":
		if m.Cursor < len(m.Table.Header)-1 {
			m.Cursor++
		}
	case "backspace":
		if len(m.Picked) > 0 {
			m.Cursor = m.Picked[len(m.Picked)-1]
			m.Picked = m.Picked[:len(m.Picked)-1]
		}
	case "enter":
		if m.taken(m.Cursor) {
			return m, nil
		}
		m.Picked = append(m.Picked, m.Cursor)
		if len(m.Picked) == len(columnRoles) {
			m.Done = true
			return m, tea.Quit
		}
		m.Cursor = m.suggest()
	}
	return m, nil
}

func (m ColumnPickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Select the %s column", m.Role())))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  ⌫ back  q quit"))
	b.WriteString("\n\n")

	for i, name := range m.Table.Header {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		role := ""
		for r, p := range m.Picked {
			if p == i {
				role = columnRoles[r]
			}
		}
		line := fmt.Sprintf("%s%-24s", cursor, name)
		switch {
		case role != "":
			b.WriteString(listDimStyle.Render(line + "  " + role))
		case i == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.preview())
	b.WriteString("\n")
	return b.String()
}

// preview renders the first rows of the table with the cursor column
// highlighted.
func (m ColumnPickerModel) preview() string {
	n := min(previewRows, len(m.Table.Rows))
	rows := make([][]string, n)
	for i := range n {
		row := make([]string, len(m.Table.Header))
		copy(row, m.Table.Rows[i])
		rows[i] = row
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(m.Table.Header...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case col == m.Cursor && row == -1:
				return base.Foreground(colorCyan).Bold(true)
			case col == m.Cursor:
				return base.Foreground(colorCyan)
			case row == -1:
				return base.Inherit(headerStyle)
			case m.taken(col):
				return base.Foreground(colorGreen)
			}
			return base.Foreground(colorDim)
		})
	return t.Render()
}

// =============================================================================
// Helpers
// =============================================================================

// pickColumns runs the picker and returns the selection, or ok=false when the
// user quit.
func pickColumns(t *dataset.Table) (dataset.Columns, bool, error) {
	if len(t.Header) < len(columnRoles) {
		return dataset.Columns{}, false, fmt.Errorf("table has %d columns, need at least %d", len(t.Header), len(columnRoles))
	}
	final, err := tea.NewProgram(NewColumnPickerModel(t)).Run()
	if err != nil {
		return dataset.Columns{}, false, err
	}
	fm, ok := final.(ColumnPickerModel)
	if !ok || !fm.Done {
		return dataset.Columns{}, false, nil
	}
	return fm.Columns(), true, nil
}

// isInteractive is replaced in tests.
var isInteractive = interactive

// interactive reports whether stdin and stdout are both terminals.
func interactive() bool {
	for _, f := range []*os.File{os.Stdin, os.Stdout} {
		fi, err := f.Stat()
		if err != nil || fi.Mode()&os.ModeCharDevice == 0 {
			return false
		}
	}
	return true
}
