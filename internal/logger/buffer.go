// internal/logger/buffer.go
package logger

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// spillFlushInterval is how often the spill file reaches the disk.
const spillFlushInterval = time.Second

// LogEntry is one decoded zap entry.
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LogBuffer keeps the latest log entries of the terminal client in memory,
// since the terminal itself is taken by the UI. It accepts one JSON-encoded
// zap entry per Write, so it can back a zapcore.Core. Entries pushed out of
// the ring are appended to an optional spill file.
type LogBuffer struct {
	mu     sync.Mutex
	ring   []LogEntry
	head   int // oldest entry
	size   int
	levels map[string]uint64
	spill  *LineWriter
	logger *zap.Logger
}

// NewLogBuffer creates a buffer holding maxSize entries. An empty spillPath
// disables spilling.
func NewLogBuffer(maxSize int, spillPath string, logger *zap.Logger) (*LogBuffer, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("invalid log buffer size: %d", maxSize)
	}
	lb := &LogBuffer{
		ring:   make([]LogEntry, maxSize),
		levels: make(map[string]uint64),
		logger: logger,
	}
	if spillPath != "" {
		spill, err := NewLineWriter(spillPath, spillFlushInterval, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open spill file: %w", err)
		}
		lb.spill = spill
	}
	return lb, nil
}

// Write decodes one zap JSON entry and stores it.
func (lb *LogBuffer) Write(p []byte) (int, error) {
	entry, err := decodeEntry(p)
	if err != nil {
		return 0, err
	}
	if err := lb.push(entry); err != nil {
		return 0, err
	}
	return len(p), nil
}

// decodeEntry splits the level, message and time keys of the TUI encoder
// from the remaining fields.
func decodeEntry(p []byte) (LogEntry, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(p, &raw); err != nil {
		return LogEntry{}, fmt.Errorf("failed to decode log entry: %w", err)
	}

	entry := LogEntry{Timestamp: time.Now()}
	if v, ok := raw["level"].(string); ok {
		entry.Level = v
	}
	if v, ok := raw["msg"].(string); ok {
		entry.Message = v
	}
	if v, ok := raw["time"].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			entry.Timestamp = ts
		}
	}
	delete(raw, "level")
	delete(raw, "msg")
	delete(raw, "time")
	if len(raw) > 0 {
		entry.Fields = raw
	}
	return entry, nil
}

func (lb *LogBuffer) push(entry LogEntry) error {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.levels[entry.Level]++

	limit := len(lb.ring)
	if lb.size < limit {
		lb.ring[(lb.head+lb.size)%limit] = entry
		lb.size++
		return nil
	}
	evicted := lb.ring[lb.head]
	lb.ring[lb.head] = entry
	lb.head = (lb.head + 1) % limit
	return lb.spillEntry(evicted)
}

func (lb *LogBuffer) spillEntry(entry LogEntry) error {
	if lb.spill == nil {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}
	_, err = lb.spill.Write(data)
	return err
}

// GetRecentLogs returns up to limit most recent entries, oldest first.
// limit <= 0 returns everything in the ring.
func (lb *LogBuffer) GetRecentLogs(limit int) []LogEntry {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	n := lb.size
	if limit > 0 && limit < n {
		n = limit
	}
	start := lb.head + lb.size - n
	logs := make([]LogEntry, n)
	for i := range logs {
		logs[i] = lb.ring[(start+i)%len(lb.ring)]
	}
	return logs
}

// LevelCounts returns how many entries were written per level, evicted ones
// included.
func (lb *LogBuffer) LevelCounts() map[string]uint64 {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	out := make(map[string]uint64, len(lb.levels))
	for k, v := range lb.levels {
		out[k] = v
	}
	return out
}

// Sync flushes the spill file.
func (lb *LogBuffer) Sync() error {
	lb.mu.Lock()
	spill := lb.spill
	lb.mu.Unlock()
	if spill == nil {
		return nil
	}
	return spill.Flush()
}

// Close spills the entries still in the ring and closes the spill file.
func (lb *LogBuffer) Close() error {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if lb.spill == nil {
		return nil
	}
	for i := 0; i < lb.size; i++ {
		if err := lb.spillEntry(lb.ring[(lb.head+i)%len(lb.ring)]); err != nil {
			lb.logger.Error("Failed to spill entry during close", zap.Error(err))
		}
	}
	err := lb.spill.Close()
	st := lb.spill.Stats()
	lb.spill = nil

	lb.logger.Info("Log buffer closed",
		zap.Uint64("spilled", st.Records),
		zap.Uint64("bytes", st.Bytes))
	return err
}
