package xmodem

import (
	"fmt"
	"time"
)

// Receiver runs the receiving side of a transfer over one Channel.
//
// States: a single NAK announces readiness, then blocks are read and answered
// until EOT (ACK, done) or a channel fault (nothing sent, done).
type Receiver struct {
	ch     Channel
	reader *BlockReader

	callbacks *Callbacks
	progress  *ProgressTracker
	logger    Logger
}

// ReceiverConfig holds configuration for a receiver.
type ReceiverConfig struct {
	Callbacks        *Callbacks
	ProgressInterval time.Duration
	Logger           Logger
}

// DefaultReceiverConfig returns a default receiver configuration.
func DefaultReceiverConfig() *ReceiverConfig {
	return &ReceiverConfig{
		ProgressInterval: 100 * time.Millisecond,
	}
}

// Transfer is the result of one receive session.
type Transfer struct {
	// Message is the reassembled payload with ETX padding removed.
	Message []byte

	// Blocks counts every complete block read, valid or not.
	Blocks int

	// Accepted counts blocks answered with ACK.
	Accepted int

	// Rejected counts blocks answered with NAK.
	Rejected int

	// SequenceWarnings counts accepted blocks whose number was not the expected one.
	SequenceWarnings int

	// NoiseBytes counts bytes discarded while waiting for a block start.
	NoiseBytes int

	// Completed is true when the sender ended the transfer with EOT.
	Completed bool

	Duration time.Duration

	// Rate is the average message bytes per second over the transfer.
	Rate float64
}

// receiveState is owned by a single Receive call.
type receiveState struct {
	expected   byte
	message    []byte
	terminated bool
}

// NewReceiver creates a receiver on ch.
func NewReceiver(ch Channel, config *ReceiverConfig) *Receiver {
	if config == nil {
		config = DefaultReceiverConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = NoopLogger{}
	}
	callbacks := mergeCallbacks(config.Callbacks)

	return &Receiver{
		ch:        ch,
		reader:    NewBlockReader(ch),
		callbacks: callbacks,
		progress:  NewProgressTracker(callbacks.OnProgress, config.ProgressInterval),
		logger:    logger,
	}
}

// Receive announces readiness and processes blocks until the transfer ends.
//
// On EOT it returns the transfer and a nil error. On a channel fault it returns
// the partial transfer together with an ErrIO error.
func (r *Receiver) Receive() (*Transfer, error) {
	st := &receiveState{expected: FirstSequence}
	t := &Transfer{}

	r.progress.Start()
	r.logger.Info("Receive: sending NAK (receiver ready)")
	r.send(NAK)
	r.emit(Event{Type: EventReady, Message: "receiver ready"})

	var err error
	for !st.terminated {
		out := r.reader.Next()
		if out.Noise > 0 {
			t.NoiseBytes += out.Noise
			r.logger.Debug("Receive: discarded %d noise byte(s)", out.Noise)
			r.emit(Event{Type: EventNoise, Message: fmt.Sprintf("%d byte(s) discarded", out.Noise)})
		}

		switch out.Kind {
		case OutcomeFault:
			err = r.handleFault(st, out)
		case OutcomeEndOfTransmission:
			r.handleEndOfTransmission(st, t)
		case OutcomeBlock:
			r.handleBlock(st, t, out.Block)
		}
	}

	t.Message = st.message
	_, _, t.Rate, _ = r.progress.GetStats()
	t.Duration = r.progress.Complete()
	r.logger.Info("Receive: finished (completed=%v, blocks=%d, accepted=%d, rejected=%d, bytes=%d, rate=%.1f B/s)",
		t.Completed, t.Blocks, t.Accepted, t.Rejected, len(t.Message), t.Rate)
	return t, err
}

func (r *Receiver) handleFault(st *receiveState, out Outcome) error {
	st.terminated = true
	msg := "read failed while waiting for a block"
	if out.Read > 0 {
		msg = fmt.Sprintf("read failed after %d of %d block bytes", out.Read, BlockSize)
	}
	r.logger.Error("Receive: %s: %v", msg, out.Err)
	err := WrapError(ErrIO, msg, out.Err)
	r.emit(Event{Type: EventFault, Message: msg, Err: err})
	return err
}

func (r *Receiver) handleEndOfTransmission(st *receiveState, t *Transfer) {
	r.logger.Info("Receive: EOT received, sending ACK")
	r.send(ACK)
	st.terminated = true
	t.Completed = true
	r.emit(Event{Type: EventEndOfTransmission, Message: "end of transmission"})
}

func (r *Receiver) handleBlock(st *receiveState, t *Transfer, blk Block) {
	t.Blocks++
	seq := blk.Sequence()
	r.logger.Debug("Receive: %s", FormatBlockLog(blk))

	if !HeaderValid(seq, blk.Complement()) {
		msg := fmt.Sprintf("header invalid (n=%d, 255-n=%d)", seq, blk.Complement())
		r.logger.Warn("Receive: %s - NAK", msg)
		r.send(NAK)
		t.Rejected++
		r.emit(Event{Type: EventHeaderRejected, Message: msg, Sequence: seq, Expected: st.expected,
			Block: blk, Err: NewError(ErrHeader, msg)})
		return
	}

	payload := blk.Payload()
	if !ChecksumValid(payload, blk.Checksum()) {
		msg := fmt.Sprintf("checksum mismatch (calc=%d, got=%d)", ComputeChecksum(payload), blk.Checksum())
		r.logger.Warn("Receive: %s - NAK", msg)
		r.send(NAK)
		t.Rejected++
		r.emit(Event{Type: EventChecksumRejected, Message: msg, Sequence: seq, Expected: st.expected,
			Block: blk, Err: NewError(ErrChecksum, msg)})
		return
	}

	if seq != st.expected {
		msg := fmt.Sprintf("unexpected block number: expected %d, got %d (accepting)", st.expected, seq)
		r.logger.Warn("Receive: %s", msg)
		t.SequenceWarnings++
		r.emit(Event{Type: EventSequenceMismatch, Message: msg, Sequence: seq, Expected: st.expected, Block: blk})
	}

	for _, c := range payload {
		if c != ETX {
			st.message = append(st.message, c)
		}
	}

	r.logger.Info("Receive: block %d OK - ACK", seq)
	r.send(ACK)
	t.Accepted++
	r.emit(Event{Type: EventBlockAccepted, Message: "block accepted", Sequence: seq, Expected: st.expected, Block: blk})
	st.expected++

	r.progress.Update(int64(len(st.message)), t.Accepted)
}

// send writes a control byte. Write failures are logged and otherwise ignored;
// a dead channel shows up on the next read.
func (r *Receiver) send(b byte) {
	if err := r.ch.WriteByte(b); err != nil {
		r.logger.Error("Receive: failed to send %s: %v", ControlName(b), err)
	}
}

func (r *Receiver) emit(ev Event) {
	ev.Timestamp = time.Now()
	r.callbacks.OnEvent(ev)
}
