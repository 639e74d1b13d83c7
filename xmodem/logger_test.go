package xmodem

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	debug []string
	info  []string
	warn  []string
	error []string
}

func (l *recordingLogger) Debug(format string, args ...interface{}) {
	l.debug = append(l.debug, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Info(format string, args ...interface{}) {
	l.info = append(l.info, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Warn(format string, args ...interface{}) {
	l.warn = append(l.warn, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Error(format string, args ...interface{}) {
	l.error = append(l.error, fmt.Sprintf(format, args...))
}

func TestFormatBlockLog(t *testing.T) {
	blk, err := EncodeBlock(1, []byte("HELLO"))
	require.NoError(t, err)

	got := FormatBlockLog(blk)
	assert.Equal(t,
		`block (hex): 0x01 0x01 0xFE 0x48 0x45 0x4C 0x4C 0x4F 0x74 | start=SOH n=1 255-n=254 chk=116 data="HELLO"`,
		got)
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf).Level(zerolog.InfoLevel)
	logger := NewZerologLogger(base, "receiver")

	logger.Debug("hidden %d", 1)
	logger.Warn("unexpected block number: expected %d, got %d", 2, 7)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"component":"receiver"`)
	assert.Contains(t, out, "expected 2, got 7")
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xmodem.log")
	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	logger.Info("block %d OK", 3)
	logger.Warn("noise")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "INFO: block 3 OK")
	assert.Contains(t, string(data), "WARN: noise")
}

func TestFileLoggerCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "rx", "xmodem.log")
	logger, err := NewFileLogger(path)
	require.NoError(t, err)

	logger.Error("read failed")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ERROR: read failed")
}

func TestReceiverLogsSequenceWarning(t *testing.T) {
	ch := newScriptedChannel(stream(blockBytes(t, 5, "HELLO"), []byte{EOT}))
	logger := &recordingLogger{}

	_, err := NewReceiver(ch, &ReceiverConfig{Logger: logger}).Receive()
	require.NoError(t, err)

	require.Len(t, logger.warn, 1)
	assert.Contains(t, logger.warn[0], "expected 1, got 5")
}
