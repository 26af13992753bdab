// internal/ui/component/mint_table.go
package component

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
	"github.com/rovshanmuradov/mintwatch/internal/ui/style"
)

// MintColumns are the columns of the live feed.
func MintColumns() []TableColumn {
	return []TableColumn{
		{Header: "Time", Width: 8, Align: lipgloss.Left},
		{Header: "Source", Width: 10, Align: lipgloss.Left},
		{Header: "Mint", Width: 0, Align: lipgloss.Left},
		{Header: "Dec", Width: 3, Align: lipgloss.Right},
		{Header: "Stage", Width: 12, Align: lipgloss.Left},
		{Header: "Curve %", Width: 7, Align: lipgloss.Right},
		{Header: "MC SOL", Width: 9, Align: lipgloss.Right},
	}
}

// MintRow formats one event as table cells.
func MintRow(e domain.MintEvent) []string {
	dec := "-"
	if d, ok := e.Decimals(); ok {
		dec = strconv.Itoa(d)
	}
	stage := string(e.Stage)
	if stage == "" {
		stage = "-"
	}

	curve, mc := "-", "-"
	if e.Details != nil && e.Details.Stats != nil {
		if p := e.Details.Stats.CurveProgressPct; p != nil {
			curve = fmt.Sprintf("%.1f", *p)
		}
		if v := e.Details.Stats.MarketCapSol; v != nil {
			mc = fmt.Sprintf("%.2f", *v)
		}
	}

	return []string{
		e.Time().Local().Format(time.TimeOnly),
		e.Source,
		e.Mint,
		dec,
		stage,
		curve,
		mc,
	}
}

// MintTable renders recent mint events, newest first.
type MintTable struct {
	table *Table
}

// NewMintTable creates an empty feed table.
func NewMintTable() *MintTable {
	return &MintTable{table: NewTable(MintColumns())}
}

// SetEvents replaces the rows. events are expected newest first.
func (mt *MintTable) SetEvents(events []domain.MintEvent) {
	base := mt.table.RowStyle()
	rows := make([]TableRow, len(events))
	for i, e := range events {
		rows[i] = TableRow{
			Data:  MintRow(e),
			Style: base.Foreground(style.StageColor(e.Stage)),
		}
	}
	mt.table.SetRows(rows)
}

func (mt *MintTable) SetSize(width, height int) { mt.table.SetSize(width, height) }
func (mt *MintTable) MoveUp()                   { mt.table.MoveUp() }
func (mt *MintTable) MoveDown()                 { mt.table.MoveDown() }
func (mt *MintTable) Selected() int             { return mt.table.SelectedRow() }
func (mt *MintTable) View() string              { return mt.table.View() }
