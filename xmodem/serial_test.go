package xmodem

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestPortName(t *testing.T) {
	want := "/dev/ttyS3"
	if runtime.GOOS == "windows" {
		want = "COM3"
	}
	assert.Equal(t, want, PortName("3"))
	assert.Equal(t, want, PortName(" 3 "))
	assert.Equal(t, "/dev/ttyUSB0", PortName("/dev/ttyUSB0"))
	assert.Equal(t, "COM7", PortName("COM7"))
}

func TestParseParity(t *testing.T) {
	cases := map[string]serial.Parity{
		"":      serial.NoParity,
		"none":  serial.NoParity,
		"Even":  serial.EvenParity,
		"o":     serial.OddParity,
		"mark":  serial.MarkParity,
		"space": serial.SpaceParity,
	}
	for in, want := range cases {
		got, err := ParseParity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseParity("weird")
	assert.Error(t, err)
}

func TestParseStopBits(t *testing.T) {
	got, err := ParseStopBits("2")
	require.NoError(t, err)
	assert.Equal(t, serial.TwoStopBits, got)

	got, err = ParseStopBits("")
	require.NoError(t, err)
	assert.Equal(t, serial.OneStopBit, got)

	_, err = ParseStopBits("3")
	assert.Error(t, err)
}

func TestSerialOpenerDefaults(t *testing.T) {
	o := NewSerialOpener("COM1", nil)
	assert.Equal(t, 9600, o.Mode.BaudRate)
	assert.Equal(t, 8, o.Mode.DataBits)
	assert.Equal(t, serial.NoParity, o.Mode.Parity)
	assert.Equal(t, serial.OneStopBit, o.Mode.StopBits)
	assert.Equal(t, "COM1@9600", o.String())
}

func TestSerialOpenerNoPort(t *testing.T) {
	_, err := NewSerialOpener("", nil).Open()
	assert.Error(t, err)
}

func TestSessionSerialOpenFailure(t *testing.T) {
	s := NewSession(NewSerialOpener("/nonexistent/tty-xmodem-test", nil))
	transfer, err := s.Run(context.Background())
	assert.Nil(t, transfer)
	assert.True(t, IsOpen(err))
}
