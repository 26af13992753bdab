// internal/sink/journal/journal.go
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/mintwatch/internal/domain"
	"github.com/rovshanmuradov/mintwatch/internal/logger"
)

// Output formats.
const (
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
)

// DefaultFlushInterval is how often buffered records reach the disk.
const DefaultFlushInterval = time.Second

// Header is the CSV column set.
var Header = []string{
	"ts", "source", "mint", "stage", "decimals",
	"mint_authority", "freeze_authority", "mint_owner", "freeze_owner",
	"launchpad", "has_route", "activity_1m", "curve_progress_pct", "mc_sol", "price_usd",
}

// file is what both journal formats share.
type file interface {
	Flush() error
	Close() error
	Stats() logger.WriterStats
}

// Journal appends stored events to a local file. It is output only.
type Journal struct {
	format string
	path   string
	file   file
	lines  *logger.LineWriter
	csv    *logger.CSVWriter
	logger *zap.Logger
}

// New opens path for appending in the given format.
func New(path, format string, flushInterval time.Duration, log *zap.Logger) (*Journal, error) {
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}
	j := &Journal{format: format, path: path, logger: log.Named("journal")}

	var err error
	switch format {
	case FormatJSONL, "":
		j.format = FormatJSONL
		if j.lines, err = logger.NewLineWriter(path, flushInterval, j.logger); err == nil {
			j.file = j.lines
		}
	case FormatCSV:
		if j.csv, err = logger.NewCSVWriter(path, Header, flushInterval, j.logger); err == nil {
			j.file = j.csv
		}
	default:
		return nil, fmt.Errorf("unknown journal format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	j.logger.Info("Journal opened", zap.String("path", path), zap.String("format", j.format))
	return j, nil
}

// Emit appends one event.
func (j *Journal) Emit(_ context.Context, e domain.MintEvent) error {
	if j.csv != nil {
		return j.csv.WriteRecord(Record(e))
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = j.lines.Write(data)
	return err
}

// Flush forces buffered records to disk.
func (j *Journal) Flush() error {
	return j.file.Flush()
}

// Stats returns the writer counters of the journal file.
func (j *Journal) Stats() logger.WriterStats {
	return j.file.Stats()
}

// Close flushes and closes the file.
func (j *Journal) Close() error {
	err := j.file.Close()
	st := j.file.Stats()
	j.logger.Info("Journal closed",
		zap.String("path", j.path),
		zap.String("format", j.format),
		zap.Uint64("records", st.Records),
		zap.Uint64("bytes", st.Bytes),
		zap.Uint64("flushes", st.Flushes),
		zap.Uint64("flush_failures", st.FlushFailures),
		zap.Error(err))
	return err
}

// Record flattens e into CSV columns matching Header.
func Record(e domain.MintEvent) []string {
	rec := []string{
		e.Time().UTC().Format(time.RFC3339Nano),
		e.Source,
		e.Mint,
		string(e.Stage),
		"", "", "",
		string(e.MintOwnerLabel()),
		string(e.FreezeOwnerLabel()),
		e.LaunchpadTag(),
		"", "", "", "", "",
	}
	d := e.Details
	if d == nil {
		return rec
	}
	if dec, ok := e.Decimals(); ok {
		rec[4] = strconv.Itoa(dec)
	}
	rec[5] = deref(d.MintAuthority)
	rec[6] = deref(d.FreezeAuthority)
	if d.HasRoute != nil {
		rec[10] = strconv.FormatBool(*d.HasRoute)
	}
	rec[11] = strconv.Itoa(d.Activity1m)
	if s := d.Stats; s != nil {
		rec[12] = formatFloat(s.CurveProgressPct)
		rec[13] = formatFloat(s.MarketCapSol)
		rec[14] = formatFloat(s.PriceUsd)
	}
	return rec
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
