// internal/ui/component/table.go
package component

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/mintwatch/internal/ui/style"
)

const (
	defaultAutoWidth = 44
	minAutoWidth     = 8
)

// TableColumn represents a column configuration
type TableColumn struct {
	Header string
	Width  int
	Align  lipgloss.Position
}

// TableRow represents a row of data
type TableRow struct {
	Data  []string
	Style lipgloss.Style
}

// Table renders a fixed-column table with a scrolling window of rows.
type Table struct {
	columns     []TableColumn
	rows        []TableRow
	width       int
	height      int
	selectedRow int

	headerStyle      lipgloss.Style
	rowStyle         lipgloss.Style
	selectedRowStyle lipgloss.Style
	borderStyle      lipgloss.Style

	showBorder bool
	selectable bool
}

// NewTable creates a new table component
func NewTable(columns []TableColumn) *Table {
	palette := style.DefaultPalette()

	return &Table{
		columns: columns,

		headerStyle: lipgloss.NewStyle().
			Foreground(palette.Secondary).
			Bold(true).
			Padding(0, 1),

		rowStyle: lipgloss.NewStyle().
			Foreground(palette.Text).
			Padding(0, 1),

		selectedRowStyle: lipgloss.NewStyle().
			Foreground(palette.Background).
			Background(palette.Primary).
			Padding(0, 1),

		borderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.TextMuted),

		showBorder: true,
		selectable: true,
	}
}

// RowStyle returns the base row style, for callers that tint rows.
func (t *Table) RowStyle() lipgloss.Style {
	return t.rowStyle
}

// SetRows replaces all rows. The selection is clamped to the new length.
func (t *Table) SetRows(rows []TableRow) *Table {
	t.rows = rows
	if t.selectedRow >= len(rows) {
		t.selectedRow = len(rows) - 1
	}
	if t.selectedRow < 0 {
		t.selectedRow = 0
	}
	return t
}

// SetSize sets the table dimensions
func (t *Table) SetSize(width, height int) *Table {
	t.width = width
	t.height = height
	return t
}

// SelectedRow returns the currently selected row index
func (t *Table) SelectedRow() int {
	return t.selectedRow
}

// MoveUp moves selection up
func (t *Table) MoveUp() *Table {
	if t.selectable && t.selectedRow > 0 {
		t.selectedRow--
	}
	return t
}

// MoveDown moves selection down
func (t *Table) MoveDown() *Table {
	if t.selectable && t.selectedRow < len(t.rows)-1 {
		t.selectedRow++
	}
	return t
}

// SetSelectable enables/disables row selection
func (t *Table) SetSelectable(selectable bool) *Table {
	t.selectable = selectable
	return t
}

// SetShowBorder enables/disables table border
func (t *Table) SetShowBorder(show bool) *Table {
	t.showBorder = show
	return t
}

// visibleRows returns the window of rows that fits the height and keeps the
// selection on screen.
func (t *Table) visibleRows() (int, int) {
	n := len(t.rows)
	limit := t.height - 2 // header + separator
	if t.showBorder {
		limit -= 2
	}
	if t.height <= 0 || limit >= n {
		return 0, n
	}
	if limit < 1 {
		limit = 1
	}
	start := 0
	if t.selectable && t.selectedRow >= limit {
		start = t.selectedRow - limit + 1
	}
	return start, start + limit
}

// View renders the table
func (t *Table) View() string {
	if len(t.columns) == 0 {
		return "No columns defined"
	}

	var content strings.Builder

	widths := t.columnWidths()

	for i, col := range t.columns {
		content.WriteString(renderCell(col.Header, widths[i], col.Align, t.headerStyle))
		if i < len(t.columns)-1 {
			content.WriteString("│")
		}
	}
	content.WriteString("\n")
	for i := range t.columns {
		content.WriteString(strings.Repeat("─", widths[i]+2))
		if i < len(t.columns)-1 {
			content.WriteString("┼")
		}
	}

	start, end := t.visibleRows()
	for rowIndex := start; rowIndex < end; rowIndex++ {
		row := t.rows[rowIndex]
		rowStyle := row.Style
		if t.selectable && rowIndex == t.selectedRow {
			rowStyle = t.selectedRowStyle
		}

		content.WriteString("\n")
		for i, col := range t.columns {
			cellData := ""
			if i < len(row.Data) {
				cellData = row.Data[i]
			}
			content.WriteString(renderCell(cellData, widths[i], col.Align, rowStyle))
			if i < len(t.columns)-1 {
				content.WriteString("│")
			}
		}
	}

	result := content.String()
	if t.showBorder {
		result = t.borderStyle.Render(result)
	}
	return result
}

// renderCell renders a single table cell
func renderCell(content string, width int, align lipgloss.Position, style lipgloss.Style) string {
	content = truncate(content, width)
	return style.Width(width + 2).Align(align).Render(content)
}

// truncate cuts s to width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return string(r[:1])
	}
	return string(r[:width-1]) + "…"
}

// columnWidths returns the effective widths. Columns with Width 0 share
// the space left by the others.
func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.columns))
	totalExplicitWidth := 0
	autoWidthColumns := 0
	for i, col := range t.columns {
		widths[i] = col.Width
		if col.Width > 0 {
			totalExplicitWidth += col.Width + 2
		} else {
			autoWidthColumns++
		}
	}
	if autoWidthColumns == 0 {
		return widths
	}

	autoWidth := defaultAutoWidth
	if t.width > 0 {
		// разделители, рамка и паддинг авто-колонок
		available := t.width - totalExplicitWidth - (len(t.columns) - 1) - 2 - autoWidthColumns*2
		autoWidth = available / autoWidthColumns
		if autoWidth < minAutoWidth {
			autoWidth = minAutoWidth
		}
	}
	for i := range widths {
		if widths[i] <= 0 {
			widths[i] = autoWidth
		}
	}
	return widths
}

// RowCount returns the number of rows
func (t *Table) RowCount() int {
	return len(t.rows)
}
