package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/superviolin/pkg/dataset"
)

func pickerTable() *dataset.Table {
	return &dataset.Table{
		Header: []string{"drug", "area", "value", "day"},
		Rows: [][]string{
			{"ctrl", "1.2", "3", "d1"},
			{"x", "2.4", "5", "d2"},
		},
	}
}

func press(m ColumnPickerModel, keys ...string) ColumnPickerModel {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(ColumnPickerModel)
	}
	return m
}

func TestColumnPickerSuggestsDefaults(t *testing.T) {
	m := NewColumnPickerModel(pickerTable())
	if m.Role() != "condition" {
		t.Fatalf("Role() = %q, want condition", m.Role())
	}
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d, want 0 with no condition column", m.Cursor)
	}

	m = press(m, "enter")
	if m.Role() != "value" {
		t.Fatalf("Role() = %q, want value", m.Role())
	}
	// "value" exists in the header and is suggested.
	if m.Cursor != 2 {
		t.Errorf("Cursor = %d, want 2", m.Cursor)
	}
}

func TestColumnPickerSelection(t *testing.T) {
	m := NewColumnPickerModel(pickerTable())
	m = press(m, "enter", "up", "enter", "down", "down", "down", "enter")
	if !m.Done {
		t.Fatal("picker not done after three selections")
	}
	want := dataset.Columns{Condition: "drug", Value: "area", Replicate: "day"}
	if got := m.Columns(); got != want {
		t.Errorf("Columns() = %+v, want %+v", got, want)
	}
}

func TestColumnPickerRejectsTakenColumn(t *testing.T) {
	m := NewColumnPickerModel(pickerTable())
	m = press(m, "enter", "up", "up", "enter")
	if len(m.Picked) != 1 {
		t.Errorf("picked %d columns, want 1 (column already used)", len(m.Picked))
	}
}

func TestColumnPickerBack(t *testing.T) {
	m := NewColumnPickerModel(pickerTable())
	m = press(m, "down", "enter", "backspace")
	if len(m.Picked) != 0 {
		t.Fatalf("picked %d columns after backspace, want 0", len(m.Picked))
	}
	if m.Cursor != 1 {
		t.Errorf("Cursor = %d, want 1 (restored)", m.Cursor)
	}
}

func TestColumnPickerQuit(t *testing.T) {
	m := NewColumnPickerModel(pickerTable())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestColumnPickerView(t *testing.T) {
	m := NewColumnPickerModel(pickerTable())
	m = press(m, "enter")
	view := m.View()
	for _, want := range []string{"Select the value column", "drug", "condition", "ctrl"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestPickColumnsTooFewColumns(t *testing.T) {
	_, _, err := pickColumns(&dataset.Table{Header: []string{"a", "b"}})
	if err == nil {
		t.Error("expected an error for a two-column table")
	}
}
