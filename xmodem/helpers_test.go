package xmodem

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// scriptedChannel replays a fixed byte script and records writes.
// Once the script is exhausted, or failAfter bytes were read, reads fail.
type scriptedChannel struct {
	script    []byte
	pos       int
	failAfter int
	writeErr  error

	writes []byte
	closes int
}

func newScriptedChannel(script []byte) *scriptedChannel {
	return &scriptedChannel{script: script, failAfter: -1}
}

func (c *scriptedChannel) ReadByte() (byte, error) {
	if c.failAfter >= 0 && c.pos >= c.failAfter {
		return 0, ErrEndOfStream
	}
	if c.pos >= len(c.script) {
		return 0, ErrEndOfStream
	}
	b := c.script[c.pos]
	c.pos++
	return b, nil
}

func (c *scriptedChannel) WriteByte(b byte) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.writes = append(c.writes, b)
	return nil
}

func (c *scriptedChannel) Close() error {
	c.closes++
	return nil
}

func (c *scriptedChannel) count(b byte) int {
	n := 0
	for _, w := range c.writes {
		if w == b {
			n++
		}
	}
	return n
}

// blockingChannel never delivers a byte; reads block until Close.
type blockingChannel struct {
	done   chan struct{}
	once   sync.Once
	mu     sync.Mutex
	writes []byte
	closes int
}

func newBlockingChannel() *blockingChannel {
	return &blockingChannel{done: make(chan struct{})}
}

func (c *blockingChannel) ReadByte() (byte, error) {
	<-c.done
	return 0, ErrEndOfStream
}

func (c *blockingChannel) WriteByte(b byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, b)
	return nil
}

func (c *blockingChannel) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	c.once.Do(func() { close(c.done) })
	return nil
}

func blockBytes(t *testing.T, seq byte, data string) []byte {
	t.Helper()
	blk, err := EncodeBlock(seq, []byte(data))
	require.NoError(t, err)
	return blk[:]
}

func stream(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

var errWrite = errors.New("write refused")
