// internal/logger/writers.go
package logger

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// WriterStats is a snapshot of the counters of an append-only writer.
type WriterStats struct {
	Records       uint64
	Bytes         uint64 // bytes that reached the file
	Flushes       uint64
	FlushFailures uint64
}

// appendFile is the part shared by LineWriter and CSVWriter: an append-only
// file, one lock for the buffered encoder on top of it and a background
// flush.
type appendFile struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	stats  WriterStats
	drain  func() error // empties the encoder buffer; mu held
	stop   chan struct{}
	closed sync.Once
	logger *zap.Logger
}

func openAppendFile(path string, logger *zap.Logger) (*appendFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return &appendFile{
		file:   file,
		path:   path,
		stop:   make(chan struct{}),
		logger: logger,
	}, nil
}

// fileCounter is what the encoders write through; mu is held by then.
type fileCounter struct{ a *appendFile }

func (c fileCounter) Write(p []byte) (int, error) {
	n, err := c.a.file.Write(p)
	c.a.stats.Bytes += uint64(n)
	return n, err
}

func (a *appendFile) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			if err := a.Flush(); err != nil {
				a.mu.Lock()
				a.stats.FlushFailures++
				a.mu.Unlock()
				a.logger.Warn("Periodic flush failed", zap.String("file", a.path), zap.Error(err))
			}
		}
	}
}

// Flush writes buffered records and syncs the file.
func (a *appendFile) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.drain(); err != nil {
		return err
	}
	if err := a.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	a.stats.Flushes++
	return nil
}

// Stats returns the current counters. Valid after Close too.
func (a *appendFile) Stats() WriterStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Close stops the background flush, drains the buffer and closes the file.
// Repeated calls are no-ops.
func (a *appendFile) Close() error {
	var err error
	a.closed.Do(func() {
		close(a.stop)

		a.mu.Lock()
		defer a.mu.Unlock()
		if err = a.drain(); err != nil {
			_ = a.file.Close()
			return
		}
		if cerr := a.file.Close(); cerr != nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	})
	return err
}

// LineWriter appends one record per line, e.g. JSONL.
type LineWriter struct {
	*appendFile
	buf *bufio.Writer
}

// NewLineWriter opens path for appending and flushes every flushInterval.
func NewLineWriter(path string, flushInterval time.Duration, logger *zap.Logger) (*LineWriter, error) {
	af, err := openAppendFile(path, logger)
	if err != nil {
		return nil, err
	}
	w := &LineWriter{appendFile: af, buf: bufio.NewWriter(fileCounter{af})}
	af.drain = func() error {
		if err := w.buf.Flush(); err != nil {
			return fmt.Errorf("failed to flush buffer: %w", err)
		}
		return nil
	}
	go af.run(flushInterval)
	return w, nil
}

// Write appends p as one record, adding the line break when p lacks it.
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.buf.Write(p)
	if err == nil && (len(p) == 0 || p[len(p)-1] != '\n') {
		err = w.buf.WriteByte('\n')
	}
	if err != nil {
		return n, fmt.Errorf("failed to write record: %w", err)
	}
	w.stats.Records++
	return n, nil
}

// CSVWriter appends CSV records under a fixed header.
type CSVWriter struct {
	*appendFile
	enc *csv.Writer
}

// NewCSVWriter opens path for appending. header is written only when the
// file is empty, so restarts keep a single header row.
func NewCSVWriter(path string, header []string, flushInterval time.Duration, logger *zap.Logger) (*CSVWriter, error) {
	af, err := openAppendFile(path, logger)
	if err != nil {
		return nil, err
	}
	w := &CSVWriter{appendFile: af, enc: csv.NewWriter(fileCounter{af})}
	af.drain = func() error {
		w.enc.Flush()
		if err := w.enc.Error(); err != nil {
			return fmt.Errorf("CSV writer error: %w", err)
		}
		return nil
	}

	info, err := af.file.Stat()
	if err != nil {
		af.file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() == 0 && len(header) > 0 {
		_ = w.enc.Write(header)
		if err := af.drain(); err != nil {
			af.file.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	go af.run(flushInterval)
	return w, nil
}

// WriteRecord appends one row.
func (w *CSVWriter) WriteRecord(record []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.enc.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	w.stats.Records++
	return nil
}
