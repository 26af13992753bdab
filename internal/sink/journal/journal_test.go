package journal

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
)

func sampleEvent() domain.MintEvent {
	dec := uint8(6)
	auth := "Auth1111111111111111111111111111111111111111"
	routed := true
	progress, mc := 42.5, 30.0
	return domain.MintEvent{
		Source: "pump",
		Mint:   "Mint111111111111111111111111111111111111111",
		Ts:     1_700_000_000_000,
		Stage:  domain.StagePump,
		Details: &domain.Details{
			Decimals:      &dec,
			MintAuthority: &auth,
			AuthorityOwner: &domain.AuthorityOwners{
				Mint:   domain.AuthorityOwnerInfo{Label: domain.LabelLaunchpad, Tag: "pump"},
				Freeze: domain.NoneOwner(),
			},
			HasRoute:   &routed,
			Activity1m: 7,
			Stats:      &domain.Stats{CurveProgressPct: &progress, MarketCapSol: &mc},
		},
	}
}

func TestJSONLJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "mints.jsonl")
	j, err := New(path, FormatJSONL, 0, zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, j.Emit(ctx, sampleEvent()))
	require.NoError(t, j.Emit(ctx, domain.MintEvent{Source: "spl-token", Mint: "m2", Ts: 1}))
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var got domain.MintEvent
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, "pump", got.Source)
	assert.Equal(t, domain.StagePump, got.Stage)
	assert.Equal(t, 7, got.Details.Activity1m)
}

func TestCSVJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mints.csv")
	j, err := New(path, FormatCSV, 0, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, j.Emit(context.Background(), sampleEvent()))
	require.NoError(t, j.Emit(context.Background(), domain.MintEvent{Source: "spl-token", Mint: "m2", Ts: 1}))
	require.NoError(t, j.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Header, rows[0])
	row := rows[1]
	assert.Equal(t, "2023-11-14T22:13:20Z", row[0])
	assert.Equal(t, "6", row[4])
	assert.Equal(t, "launchpad", row[7])
	assert.Equal(t, "none", row[8])
	assert.Equal(t, "pump", row[9])
	assert.Equal(t, "true", row[10])
	assert.Equal(t, "42.5", row[12])
	assert.Equal(t, "30", row[13])

	bare := rows[2]
	assert.Equal(t, "", bare[4])
	assert.Equal(t, "none", bare[7])
	assert.Len(t, bare, len(Header))
}

func TestJournalCloseReportsWriterStats(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	path := filepath.Join(t.TempDir(), "mints.jsonl")
	j, err := New(path, FormatJSONL, 0, zap.New(core))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, j.Emit(context.Background(), sampleEvent()))
	}
	require.NoError(t, j.Flush())
	st := j.Stats()
	assert.Equal(t, uint64(3), st.Records)
	assert.GreaterOrEqual(t, st.Flushes, uint64(1))

	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(info.Size()), j.Stats().Bytes)

	closed := logs.FilterMessage("Journal closed").All()
	require.NotEmpty(t, closed)
	fields := closed[0].ContextMap()
	assert.Equal(t, uint64(3), fields["records"])
	assert.Equal(t, path, fields["path"])
}

func TestUnknownFormat(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "x"), "xml", 0, zap.NewNop())
	assert.Error(t, err)
}
