package xmodem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jrick/logrotate/rotator"
	"github.com/rs/zerolog"
)

// Logger interface for protocol logging
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Log file rotation settings
const (
	LogRotateThresholdKB = 10 * 1024
	LogRotateMaxRolls    = 3
)

// FileLogger writes logs to a size-rotated file
type FileLogger struct {
	file io.WriteCloser
	mu   sync.Mutex
}

// NewFileLogger creates a logger that writes to path, creating its
// directory if needed. The file is rolled over at LogRotateThresholdKB.
func NewFileLogger(path string) (*FileLogger, error) {
	if dir, _ := filepath.Split(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}
	r, err := rotator.New(path, LogRotateThresholdKB, false, LogRotateMaxRolls)
	if err != nil {
		return nil, fmt.Errorf("create log rotator: %w", err)
	}
	return &FileLogger{file: r}, nil
}

func (l *FileLogger) log(level, format string, args ...interface{}) {
	if l == nil || l.file == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.file, "[%s] %s: %s\n", timestamp, level, msg)
}

func (l *FileLogger) Debug(format string, args ...interface{}) {
	l.log("DEBUG", format, args...)
}

func (l *FileLogger) Info(format string, args ...interface{}) {
	l.log("INFO", format, args...)
}

func (l *FileLogger) Warn(format string, args ...interface{}) {
	l.log("WARN", format, args...)
}

func (l *FileLogger) Error(format string, args ...interface{}) {
	l.log("ERROR", format, args...)
}

func (l *FileLogger) Close() error {
	if l != nil && l.file != nil {
		return l.file.Close()
	}
	return nil
}

// NoopLogger does nothing
type NoopLogger struct{}

func (NoopLogger) Debug(format string, args ...interface{}) {}
func (NoopLogger) Info(format string, args ...interface{})  {}
func (NoopLogger) Warn(format string, args ...interface{})  {}
func (NoopLogger) Error(format string, args ...interface{}) {}

// ZerologLogger adapts a zerolog.Logger to the Logger interface.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger wraps logger, tagging every line with component.
func NewZerologLogger(logger zerolog.Logger, component string) *ZerologLogger {
	if component != "" {
		logger = logger.With().Str("component", component).Logger()
	}
	return &ZerologLogger{log: logger}
}

func (l *ZerologLogger) Debug(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Info(format string, args ...interface{}) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warn(format string, args ...interface{}) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Error(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}

// FormatBlockLog renders a block as a hex dump followed by its fields
// and the printable payload.
func FormatBlockLog(blk Block) string {
	var sb strings.Builder
	sb.WriteString("block (hex):")
	for _, c := range blk {
		sb.WriteByte(' ')
		sb.WriteString(hexByte(c))
	}
	fmt.Fprintf(&sb, " | start=%s n=%d 255-n=%d chk=%d data=%q",
		ControlName(blk.Start()), blk.Sequence(), blk.Complement(), blk.Checksum(), blk.Printable())
	return sb.String()
}

// LoggingChannel wraps a Channel and logs all traffic
type LoggingChannel struct {
	ch     Channel
	logger Logger
	name   string
}

func NewLoggingChannel(ch Channel, logger Logger, name string) *LoggingChannel {
	return &LoggingChannel{
		ch:     ch,
		logger: logger,
		name:   name,
	}
}

func (lc *LoggingChannel) ReadByte() (byte, error) {
	b, err := lc.ch.ReadByte()
	if err != nil {
		lc.logger.Debug("%s: read error: %v", lc.name, err)
		return b, err
	}
	lc.logger.Debug("%s: <- %s", lc.name, ControlName(b))
	return b, nil
}

func (lc *LoggingChannel) WriteByte(b byte) error {
	err := lc.ch.WriteByte(b)
	if err != nil {
		lc.logger.Error("%s: write %s error: %v", lc.name, ControlName(b), err)
		return err
	}
	lc.logger.Debug("%s: -> %s", lc.name, ControlName(b))
	return nil
}

func (lc *LoggingChannel) Close() error {
	lc.logger.Debug("%s: close", lc.name)
	return lc.ch.Close()
}
