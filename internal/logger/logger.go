// Package logger provides the structured, leveled logging used by the
// mount daemon and its CLI: five severities (TRACE, DEBUG, INFO, WARNING,
// ERROR, plus OFF to silence everything), selectable text or JSON output,
// and optional rotation to a file via lumberjack.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotateConfig controls on-disk log rotation when a file sink is in use.
type RotateConfig struct {
	MaxFileSizeMB   int
	BackupFileCount int
	Compress        bool
}

// DefaultRotateConfig matches the teacher's defaults for incidental log
// files: generous size, a handful of backups, compressed.
func DefaultRotateConfig() RotateConfig {
	return RotateConfig{MaxFileSizeMB: 512, BackupFileCount: 10, Compress: true}
}

type loggerFactory struct {
	format          string
	level           string
	file            *os.File
	sysWriter       io.Writer
	logRotateConfig RotateConfig
	programLevel    *slog.LevelVar
}

var (
	defaultLoggerFactory = &loggerFactory{
		format:          "text",
		level:           severityInfo,
		sysWriter:       os.Stderr,
		logRotateConfig: DefaultRotateConfig(),
		programLevel:    new(slog.LevelVar),
	}
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(os.Stderr, defaultLoggerFactory.programLevel, ""))
)

func init() {
	setLoggingLevel(defaultLoggerFactory.level, defaultLoggerFactory.programLevel)
}

// Init configures the process-wide logger: severity, format ("text" or
// "json"), and an optional rotating file sink. An empty filePath keeps
// logging on stderr.
func Init(severity, format, filePath string, rotate RotateConfig) error {
	defaultLoggerFactory.level = severity
	defaultLoggerFactory.format = format
	defaultLoggerFactory.logRotateConfig = rotate

	var w io.Writer = os.Stderr
	defaultLoggerFactory.sysWriter = os.Stderr
	defaultLoggerFactory.file = nil

	if filePath != "" {
		lj := &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    rotate.MaxFileSizeMB,
			MaxBackups: rotate.BackupFileCount,
			Compress:   rotate.Compress,
		}
		w = lj
		defaultLoggerFactory.sysWriter = nil
		if f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err == nil {
			defaultLoggerFactory.file = f
		} else {
			return fmt.Errorf("open log file %q: %w", filePath, err)
		}
	}

	setLoggingLevel(severity, defaultLoggerFactory.programLevel)
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(w, defaultLoggerFactory.programLevel, ""))
	return nil
}

// SetLogFormat switches the output format of the default logger between
// "text" and "json" (anything else, including empty, behaves as "json").
func SetLogFormat(format string) {
	defaultLoggerFactory.format = format
	w := defaultLoggerFactory.sysWriter
	if w == nil {
		w = defaultLoggerFactory.file
	}
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(w, defaultLoggerFactory.programLevel, ""))
}

func (f *loggerFactory) createJsonOrTextHandler(w io.Writer, programLevel *slog.LevelVar, prefix string) slog.Handler {
	replace := func(groups []string, a slog.Attr) slog.Attr {
		switch a.Key {
		case slog.LevelKey:
			level := a.Value.Any().(slog.Level)
			a.Key = "severity"
			a.Value = slog.StringValue(severityForLevel(level))
		case slog.MessageKey:
			a.Key = "message"
			a.Value = slog.StringValue(prefix + a.Value.String())
		case slog.TimeKey:
			if f.format != "text" {
				return jsonTimestampAttr(a)
			}
		}
		return a
	}

	opts := &slog.HandlerOptions{Level: programLevel, ReplaceAttr: replace}
	if f.format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// jsonTimestampAttr renders the time key as {"seconds":N,"nanos":N}, matching
// the wire format legacy tooling expects from JSON-mode logs.
func jsonTimestampAttr(a slog.Attr) slog.Attr {
	t := a.Value.Time()
	raw, _ := json.Marshal(struct {
		Seconds int64 `json:"seconds"`
		Nanos   int   `json:"nanos"`
	}{t.Unix(), t.Nanosecond()})
	a.Key = "timestamp"
	a.Value = slog.StringValue(string(raw))
	return a
}

func Tracef(format string, v ...any) {
	defaultLogger.Log(context.Background(), LevelTrace, fmt.Sprintf(format, v...))
}
func Debugf(format string, v ...any) { defaultLogger.Debug(fmt.Sprintf(format, v...)) }
func Infof(format string, v ...any)  { defaultLogger.Info(fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...any)  { defaultLogger.Warn(fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...any) { defaultLogger.Error(fmt.Sprintf(format, v...)) }

// NewLegacyLogger adapts the structured logger to the stdlib *log.Logger
// shape jacobsa/fuse's MountConfig.{ErrorLogger,DebugLogger} expect.
func NewLegacyLogger(level slog.Level) *log.Logger {
	return slog.NewLogLogger(defaultLogger.Handler(), level)
}
