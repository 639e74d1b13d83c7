package xmodem

import "fmt"

// Block is one raw block as read from the wire.
// Use the accessors rather than indexing; a Block is not validated on construction.
type Block [BlockSize]byte

// Start returns the start marker byte.
func (b Block) Start() byte { return b[offStart] }

// Sequence returns the block number.
func (b Block) Sequence() byte { return b[offSequence] }

// Complement returns the transmitted 255-n complement.
func (b Block) Complement() byte { return b[offComplement] }

// Checksum returns the checksum claimed by the sender.
func (b Block) Checksum() byte { return b[offChecksum] }

// Payload returns a copy of the five payload bytes.
func (b Block) Payload() [DataBytes]byte {
	var p [DataBytes]byte
	copy(p[:], b[offPayload:offChecksum])
	return p
}

// Printable renders the payload with non-printable bytes replaced by '.'.
func (b Block) Printable() string {
	out := make([]byte, 0, DataBytes)
	for _, c := range b[offPayload:offChecksum] {
		if c >= 32 && c < 127 {
			out = append(out, c)
		} else {
			out = append(out, '.')
		}
	}
	return string(out)
}

// ComputeChecksum returns the sum of the payload bytes modulo 256.
func ComputeChecksum(payload [DataBytes]byte) byte {
	var sum byte
	for _, c := range payload {
		sum += c
	}
	return sum
}

// HeaderValid reports whether complement equals 255-seq in 8-bit arithmetic.
func HeaderValid(seq, complement byte) bool {
	return complement == 255-seq
}

// ChecksumValid reports whether claimed matches the checksum of payload.
func ChecksumValid(payload [DataBytes]byte, claimed byte) bool {
	return ComputeChecksum(payload) == claimed
}

// EncodeBlock builds a well-formed block carrying data.
// Data shorter than DataBytes is padded with ETX.
func EncodeBlock(seq byte, data []byte) (Block, error) {
	if len(data) > DataBytes {
		return Block{}, fmt.Errorf("xmodem: block data too long: %d > %d", len(data), DataBytes)
	}

	var payload [DataBytes]byte
	n := copy(payload[:], data)
	for ; n < DataBytes; n++ {
		payload[n] = ETX
	}

	var blk Block
	blk[offStart] = SOH
	blk[offSequence] = seq
	blk[offComplement] = 255 - seq
	copy(blk[offPayload:offChecksum], payload[:])
	blk[offChecksum] = ComputeChecksum(payload)
	return blk, nil
}

// EncodeMessage splits msg into consecutive blocks numbered from FirstSequence.
// Sequence numbers wrap modulo 256.
func EncodeMessage(msg []byte) []Block {
	blocks := make([]Block, 0, (len(msg)+DataBytes-1)/DataBytes)
	seq := byte(FirstSequence)
	for off := 0; off < len(msg); off += DataBytes {
		end := off + DataBytes
		if end > len(msg) {
			end = len(msg)
		}
		blk, _ := EncodeBlock(seq, msg[off:end])
		blocks = append(blocks, blk)
		seq++
	}
	return blocks
}
