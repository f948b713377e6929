package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/superviolin/pkg/stats"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)

	// Significant p-values in the posthoc table.
	styleSignificant = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printer writes styled status lines to one writer.
type printer struct {
	w io.Writer
}

func (p printer) line(s string) { fmt.Fprintln(p.w, s) }

// success prints a success message.
func (p printer) success(format string, args ...any) {
	p.line(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

// failure prints an error message.
func (p printer) failure(format string, args ...any) {
	p.line(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

// warning prints a warning message.
func (p printer) warning(format string, args ...any) {
	p.line(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// info prints an info/status message.
func (p printer) info(format string, args ...any) {
	p.line(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// detail prints a detail line (indented).
func (p printer) detail(format string, args ...any) {
	p.line("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// file prints a file output line.
func (p printer) file(path string) {
	p.line("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// keyValue prints a labeled value.
func (p printer) keyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	p.line(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// nextStep prints a suggested next command.
func (p printer) nextStep(description, cmd string) {
	p.line(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// plotStats prints plot statistics on a single line.
func (p printer) plotStats(rows, groups, replicates int, cached bool) {
	parts := []string{
		fmt.Sprintf("%d rows", rows),
		fmt.Sprintf("%d conditions", groups),
		fmt.Sprintf("%d replicates", replicates),
	}

	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}

	var b strings.Builder
	b.WriteString("  ")
	for i, part := range parts {
		if i > 0 {
			b.WriteString(StyleDim.Render(" · "))
		}
		b.WriteString(StyleDim.Render(part))
	}
	b.WriteString(StyleDim.Render(" · "))
	b.WriteString(statusStyle.Render(status))
	p.line(b.String())
}

// =============================================================================
// Statistics Output
// =============================================================================

// comparison prints the normality checks, the main test and the posthoc
// matrix of c.
func (p printer) comparison(c *stats.Comparison) {
	p.line(StyleTitle.Render("Normality"))
	for i, r := range c.Normality {
		p.keyValue(c.Groups[i], fmt.Sprintf("W = %.3f, P = %s", r.Statistic, stats.FormatP(r.P)))
	}
	verdict := "not normal"
	if c.Normal {
		verdict = "normal"
	}
	p.detail("treated as %s", verdict)
	p.line("")

	p.line(StyleTitle.Render("Test"))
	p.line(c.Test.String())

	if c.Posthoc != nil {
		p.line("")
		p.line(StyleTitle.Render(c.PosthocName))
		p.line(posthocTable(c.Posthoc))
	}
}

// posthocTable renders a p-value matrix with significant cells highlighted.
func posthocTable(m *stats.Matrix) string {
	rounded := m.Round(3)
	rows := make([][]string, len(rounded.Values))
	for i, row := range rounded.Values {
		cells := []string{rounded.Labels[i]}
		for _, v := range row {
			cells = append(cells, stats.FormatP(v))
		}
		rows[i] = cells
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(append([]string{""}, rounded.Labels...)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1 || col == 0:
				return headerStyle
			case row != col-1 && m.At(row, col-1) < 0.05:
				return styleSignificant.Padding(0, 1)
			default:
				return cellStyle
			}
		})
	return t.Render()
}
