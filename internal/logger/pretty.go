// internal/logger/pretty.go
package logger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Colors for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
	ColorBold   = "\033[1m"
)

func prettyEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		CallerKey:      "",
		StacktraceKey:  "",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    customLevelEncoder,
		EncodeTime:     customTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   customCallerEncoder,
	}
}

// customLevelEncoder formats log levels with colors
func customLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch level {
	case zapcore.DebugLevel:
		enc.AppendString(fmt.Sprintf("%s[DEBUG]%s", ColorCyan, ColorReset))
	case zapcore.InfoLevel:
		enc.AppendString(fmt.Sprintf("%s[INFO]%s", ColorGreen, ColorReset))
	case zapcore.WarnLevel:
		enc.AppendString(fmt.Sprintf("%s[WARN]%s", ColorYellow, ColorReset))
	case zapcore.ErrorLevel:
		enc.AppendString(fmt.Sprintf("%s[ERROR]%s", ColorRed, ColorReset))
	case zapcore.FatalLevel:
		enc.AppendString(fmt.Sprintf("%s[FATAL]%s", ColorRed+ColorBold, ColorReset))
	default:
		enc.AppendString(fmt.Sprintf("[%s]", level.CapitalString()))
	}
}

// customTimeEncoder formats time in a readable way
func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05"))
}

// customCallerEncoder hides caller information for cleaner logs
func customCallerEncoder(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
}

func levelFor(debug bool) zapcore.Level {
	if debug {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}

// CreatePrettyLogger creates a logger with user-friendly output
func CreatePrettyLogger(debug bool) (*zap.Logger, error) {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(prettyEncoderConfig()),
		zapcore.AddSync(zapcore.Lock(os.Stdout)),
		levelFor(debug),
	)
	return zap.New(&FieldFilterCore{core: core}), nil
}

// CreateLogger builds the process logger: "json" gives a production JSON
// logger, anything else the pretty console logger.
func CreateLogger(format string, debug bool) (*zap.Logger, error) {
	if format != "json" {
		return CreatePrettyLogger(debug)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(levelFor(debug))
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// CreateTUILoggerWithBuffer creates a logger that only writes to buffer so it
// does not break the terminal UI.
func CreateTUILoggerWithBuffer(debug bool, buffer *LogBuffer) (*zap.Logger, error) {
	if buffer == nil {
		return nil, fmt.Errorf("buffer is required for TUI logger")
	}

	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(buffer),
		levelFor(debug),
	)
	return zap.New(core), nil
}

// FormatMessage creates user-friendly log messages. ok is false when the
// message has no pretty form.
func FormatMessage(msg string, fields ...zap.Field) (string, bool) {
	switch {
	case strings.Contains(msg, "Mint detected"):
		line := fmt.Sprintf("%s🆕 [%s] %s%s", ColorGreen, extractField(fields, "source"), extractField(fields, "mint"), ColorReset)
		if dec := extractField(fields, "decimals"); dec != "" {
			line += fmt.Sprintf(" dec:%s freeze:%s mintAuth:%s",
				dec,
				yesNo(extractField(fields, "freeze_authority")),
				yesNo(extractField(fields, "mint_authority")))
		}
		if stage := extractField(fields, "stage"); stage != "" {
			line += fmt.Sprintf(" %s%s%s", ColorPurple, stage, ColorReset)
		}
		if lp := extractField(fields, "launchpad"); lp != "" {
			line += fmt.Sprintf(" %s@%s%s", ColorCyan, lp, ColorReset)
		}
		return line, true

	case strings.Contains(msg, "Watcher started"):
		return fmt.Sprintf("%s👂 Watching %s (%s)%s", ColorBlue,
			extractField(fields, "watcher"), shortenAddress(extractField(fields, "program")), ColorReset), true

	case strings.Contains(msg, "Launchpad subscribed"):
		return fmt.Sprintf("%s▶ launchpad subscribed: %s%s", ColorGreen, extractField(fields, "launchpad"), ColorReset), true

	case strings.Contains(msg, "Launchpad unsubscribed"):
		return fmt.Sprintf("%s⏹ launchpad unsubscribed: %s%s", ColorYellow, extractField(fields, "launchpad"), ColorReset), true

	case strings.Contains(msg, "Log subscription lost"):
		return fmt.Sprintf("%s⚠ %s subscription lost, retry in %s%s", ColorYellow,
			extractField(fields, "watcher"), extractField(fields, "retry_in"), ColorReset), true

	case strings.Contains(msg, "HTTP server listening"):
		return fmt.Sprintf("%s🌐 API listening on %s%s", ColorCyan, extractField(fields, "addr"), ColorReset), true

	case strings.Contains(msg, "Shutdown complete"):
		return fmt.Sprintf("%s✓ Shutdown complete%s", ColorGreen, ColorReset), true

	default:
		return msg, false
	}
}

// Helper functions
func extractField(fields []zap.Field, key string) string {
	for _, field := range fields {
		if field.Key != key {
			continue
		}
		switch field.Type {
		case zapcore.StringType:
			return field.String
		case zapcore.BoolType:
			return fmt.Sprintf("%t", field.Integer == 1)
		case zapcore.DurationType:
			return time.Duration(field.Integer).String()
		case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
			zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
			return fmt.Sprintf("%d", field.Integer)
		default:
			if field.Interface != nil {
				return fmt.Sprintf("%v", field.Interface)
			}
			return ""
		}
	}
	return ""
}

func yesNo(v string) string {
	if v == "true" {
		return "yes"
	}
	return "no"
}

func shortenAddress(addr string) string {
	if len(addr) > 8 {
		return addr[:4] + "..." + addr[len(addr)-4:]
	}
	return addr
}

// FieldFilterCore rewrites known messages into their pretty form and drops
// their fields. Other entries pass through unchanged.
type FieldFilterCore struct {
	core   zapcore.Core
	fields []zapcore.Field
}

func (c *FieldFilterCore) Enabled(level zapcore.Level) bool {
	return c.core.Enabled(level)
}

func (c *FieldFilterCore) With(fields []zapcore.Field) zapcore.Core {
	merged := append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &FieldFilterCore{core: c.core, fields: merged}
}

func (c *FieldFilterCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *FieldFilterCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	all := append(append([]zapcore.Field(nil), c.fields...), fields...)
	if pretty, ok := FormatMessage(entry.Message, all...); ok {
		entry.Message = pretty
		return c.core.Write(entry, nil)
	}
	return c.core.Write(entry, all)
}

func (c *FieldFilterCore) Sync() error {
	return c.core.Sync()
}
