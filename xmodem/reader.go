package xmodem

// OutcomeKind tags the result of one BlockReader.Next call.
type OutcomeKind int

const (
	// OutcomeBlock carries a structurally complete block
	OutcomeBlock OutcomeKind = iota

	// OutcomeEndOfTransmission means the sender sent EOT
	OutcomeEndOfTransmission

	// OutcomeFault means the channel failed; Err holds the cause
	OutcomeFault
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeBlock:
		return "block"
	case OutcomeEndOfTransmission:
		return "end of transmission"
	case OutcomeFault:
		return "fault"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of reading from the channel.
type Outcome struct {
	Kind  OutcomeKind
	Block Block
	Err   error

	// Noise is the number of bytes discarded while waiting for SOH or EOT.
	Noise int

	// Read is the number of block bytes read before a fault, SOH included.
	Read int
}

// BlockReader assembles blocks from a Channel.
// It does not validate header or checksum content.
type BlockReader struct {
	ch Channel
}

// NewBlockReader creates a reader consuming ch.
func NewBlockReader(ch Channel) *BlockReader {
	return &BlockReader{ch: ch}
}

// Next reads until it has a complete block, sees EOT, or the channel fails.
// Bytes other than SOH and EOT seen while waiting for a block are discarded.
// A failure after SOH discards the partial block.
func (r *BlockReader) Next() Outcome {
	noise := 0
	for {
		c, err := r.ch.ReadByte()
		if err != nil {
			return Outcome{Kind: OutcomeFault, Err: err, Noise: noise}
		}

		if c == EOT {
			return Outcome{Kind: OutcomeEndOfTransmission, Noise: noise}
		}

		if c != SOH {
			noise++
			continue
		}

		var blk Block
		blk[offStart] = c
		for i := 1; i < BlockSize; i++ {
			bi, err := r.ch.ReadByte()
			if err != nil {
				return Outcome{Kind: OutcomeFault, Err: err, Noise: noise, Read: i}
			}
			blk[i] = bi
		}
		return Outcome{Kind: OutcomeBlock, Block: blk, Noise: noise, Read: BlockSize}
	}
}
