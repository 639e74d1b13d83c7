package xmodem

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"go.bug.st/serial"
)

// DefaultSerialMode is 9600 baud, 8 data bits, no parity, one stop bit.
func DefaultSerialMode() *serial.Mode {
	return &serial.Mode{
		BaudRate: 9600,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// SerialOpener opens a serial port as a Channel.
type SerialOpener struct {
	Port string
	Mode *serial.Mode
}

// NewSerialOpener creates an opener for port. A nil mode uses DefaultSerialMode.
func NewSerialOpener(port string, mode *serial.Mode) *SerialOpener {
	if mode == nil {
		mode = DefaultSerialMode()
	}
	return &SerialOpener{Port: port, Mode: mode}
}

func (o *SerialOpener) Open() (Channel, error) {
	if o.Port == "" {
		return nil, fmt.Errorf("serial: no port given")
	}
	port, err := serial.Open(o.Port, o.Mode)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", o.Port, err)
	}
	return NewStreamChannel(port, port, port), nil
}

func (o *SerialOpener) String() string {
	return fmt.Sprintf("%s@%d", o.Port, o.Mode.BaudRate)
}

// PortName maps a bare port number to a platform device name
// ("3" becomes COM3 on Windows and /dev/ttyS3 elsewhere).
// Anything else is returned unchanged.
func PortName(id string) string {
	id = strings.TrimSpace(id)
	if _, err := strconv.Atoi(id); err != nil {
		return id
	}
	if runtime.GOOS == "windows" {
		return "COM" + id
	}
	return "/dev/ttyS" + id
}

// SerialPorts lists the serial ports present on the system.
func SerialPorts() ([]string, error) {
	return serial.GetPortsList()
}

// ParseParity converts a parity name (none, odd, even, mark, space) to a serial.Parity.
func ParseParity(raw string) (serial.Parity, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "none", "n":
		return serial.NoParity, nil
	case "odd", "o":
		return serial.OddParity, nil
	case "even", "e":
		return serial.EvenParity, nil
	case "mark", "m":
		return serial.MarkParity, nil
	case "space", "s":
		return serial.SpaceParity, nil
	default:
		return serial.NoParity, fmt.Errorf("unknown parity %q", raw)
	}
}

// ParseStopBits converts "1", "1.5" or "2" to a serial.StopBits.
func ParseStopBits(raw string) (serial.StopBits, error) {
	switch strings.TrimSpace(raw) {
	case "", "1":
		return serial.OneStopBit, nil
	case "1.5":
		return serial.OnePointFiveStopBits, nil
	case "2":
		return serial.TwoStopBits, nil
	default:
		return serial.OneStopBit, fmt.Errorf("unknown stop bits %q", raw)
	}
}
