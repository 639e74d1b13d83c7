package xmodem

import (
	"time"
)

// Callbacks provides hooks for transfer events.
// All callbacks are optional - nil callbacks use default behavior.
type Callbacks struct {
	// OnEvent is called for every protocol event: each block outcome,
	// discarded noise, end of transmission and faults.
	OnEvent func(event Event)

	// OnProgress is called periodically while blocks are accepted.
	// received: message bytes accumulated so far
	// blocks: blocks accepted so far
	// rate: message bytes per second since the last update
	OnProgress func(received int64, blocks int, rate float64)

	// OnComplete is called once when the session ends, normally or not.
	OnComplete func(transfer *Transfer)

	// OnError is called when the session ends with an error.
	// context: description of where the error occurred
	OnError func(err error, context string)
}

// Event represents a protocol event for logging/debugging.
type Event struct {
	Type      EventType
	Message   string
	Sequence  byte
	Expected  byte
	Block     Block
	Err       error
	Timestamp time.Time
}

// EventType categorizes protocol events.
type EventType int

const (
	EventReady EventType = iota
	EventBlockAccepted
	EventHeaderRejected
	EventChecksumRejected
	EventSequenceMismatch
	EventNoise
	EventEndOfTransmission
	EventFault
)

func (t EventType) String() string {
	switch t {
	case EventReady:
		return "ready"
	case EventBlockAccepted:
		return "block accepted"
	case EventHeaderRejected:
		return "header rejected"
	case EventChecksumRejected:
		return "checksum rejected"
	case EventSequenceMismatch:
		return "sequence mismatch"
	case EventNoise:
		return "noise"
	case EventEndOfTransmission:
		return "end of transmission"
	case EventFault:
		return "fault"
	default:
		return "unknown"
	}
}

// defaultCallbacks returns a set of callbacks with default implementations.
func defaultCallbacks() *Callbacks {
	return &Callbacks{
		OnEvent:    func(Event) {},
		OnProgress: func(int64, int, float64) {},
		OnComplete: func(*Transfer) {},
		OnError:    func(error, string) {},
	}
}

// mergeCallbacks merges user callbacks with defaults.
// User callbacks override defaults, nil callbacks use defaults.
func mergeCallbacks(user *Callbacks) *Callbacks {
	result := defaultCallbacks()
	if user == nil {
		return result
	}

	if user.OnEvent != nil {
		result.OnEvent = user.OnEvent
	}
	if user.OnProgress != nil {
		result.OnProgress = user.OnProgress
	}
	if user.OnComplete != nil {
		result.OnComplete = user.OnComplete
	}
	if user.OnError != nil {
		result.OnError = user.OnError
	}

	return result
}
