package component

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestMintRow(t *testing.T) {
	e := domain.MintEvent{
		Source: domain.SourceSPLToken,
		Mint:   "So11111111111111111111111111111111111111112",
		Ts:     1_700_000_000_000,
		Stage:  domain.StagePump,
		Details: &domain.Details{
			Decimals: ptr(uint8(6)),
			Stats: &domain.Stats{
				CurveProgressPct: ptr(42.5),
				MarketCapSol:     ptr(31.5),
			},
		},
	}
	row := MintRow(e)
	assert.Len(t, row, len(MintColumns()))
	assert.Equal(t, domain.SourceSPLToken, row[1])
	assert.Equal(t, e.Mint, row[2])
	assert.Equal(t, "6", row[3])
	assert.Equal(t, "pump", row[4])
	assert.Equal(t, "42.5", row[5])
	assert.Equal(t, "31.50", row[6])

	bare := MintRow(domain.MintEvent{Mint: "x"})
	assert.Equal(t, []string{"-", "-", "-", "-"}, bare[3:])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "", truncate("abc", 0))
	assert.Equal(t, "пр…", truncate("привет", 3))
}

func TestTableWindowFollowsSelection(t *testing.T) {
	tbl := NewTable([]TableColumn{{Header: "N", Width: 4}})
	tbl.SetShowBorder(false)
	tbl.SetSize(20, 4) // header + separator + 2 rows

	rows := make([]TableRow, 5)
	for i := range rows {
		rows[i] = TableRow{Data: []string{string(rune('a' + i))}, Style: tbl.RowStyle()}
	}
	tbl.SetRows(rows)

	view := tbl.View()
	assert.Contains(t, view, "a")
	assert.NotContains(t, view, "c")

	tbl.MoveDown().MoveDown().MoveDown()
	view = tbl.View()
	assert.Equal(t, 3, tbl.SelectedRow())
	assert.True(t, strings.Contains(view, "d"))
	assert.False(t, strings.Contains(view, " a "))
}
