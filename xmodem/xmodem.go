// Package xmodem implements the receiving side of a simplified XMODEM-style
// block transfer protocol.
//
// The sender transmits a text message in fixed 9-byte blocks. Each block
// carries a sequence number, its complement, five payload bytes and an
// additive checksum. The receiver answers every block with ACK or NAK and
// reassembles the message until the sender signals end of transmission.
//
// The package is designed as a library: transports are plugged in through
// the Channel and Opener interfaces, and callback hooks expose every block
// outcome for logging and testing.
package xmodem

import "fmt"

// Control bytes
const (
	// SOH marks the start of a block
	SOH = 0x01

	// ETX pads the payload of a short final block
	ETX = 0x03

	// EOT signals that no more blocks follow
	EOT = 0x04

	// ACK accepts a block or the end of transmission
	ACK = 0x06

	// NAK rejects a block; also sent once to signal readiness
	NAK = 0x15

	// CAN is reserved. The receiver never sends or interprets it.
	CAN = 0x18
)

// Block layout
//
//	| SOH | n | 255-n | data(5) | checksum |
//	   1    1     1       5          1      = 9
const (
	// DataBytes is the number of payload bytes per block
	DataBytes = 5

	// BlockSize is the total size of a block on the wire
	BlockSize = 3 + DataBytes + 1
)

// Byte offsets within a block
const (
	offStart      = 0
	offSequence   = 1
	offComplement = 2
	offPayload    = 3
	offChecksum   = offPayload + DataBytes
)

// FirstSequence is the sequence number of the first block of a transfer.
const FirstSequence = 1

var controlNames = map[byte]string{
	SOH: "SOH",
	ETX: "ETX",
	EOT: "EOT",
	ACK: "ACK",
	NAK: "NAK",
	CAN: "CAN",
}

// ControlName returns the mnemonic for a control byte.
// Returns a hex rendering for bytes outside the control vocabulary.
func ControlName(b byte) string {
	if name, ok := controlNames[b]; ok {
		return name
	}
	return hexByte(b)
}

func hexByte(b byte) string {
	return fmt.Sprintf("0x%02X", b)
}
