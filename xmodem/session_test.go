package xmodem

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func openerFor(ch Channel) Opener {
	return OpenerFunc(func() (Channel, error) { return ch, nil })
}

func TestSessionRunClosesOnceOnSuccess(t *testing.T) {
	defer goleak.VerifyNone(t)

	ch := newScriptedChannel(stream(blockBytes(t, 1, "HELLO"), []byte{EOT}))
	var completed *Transfer
	s := NewSession(openerFor(ch), WithCallbacks(&Callbacks{
		OnComplete: func(tr *Transfer) { completed = tr },
	}))

	transfer, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "HELLO", string(transfer.Message))
	assert.Same(t, transfer, completed)
	assert.Equal(t, 1, ch.closes)
}

func TestSessionRunClosesOnceOnFault(t *testing.T) {
	defer goleak.VerifyNone(t)

	ch := newScriptedChannel(blockBytes(t, 1, "HELLO"))
	var gotErr error
	s := NewSession(openerFor(ch), WithCallbacks(&Callbacks{
		OnError: func(err error, context string) { gotErr = err },
	}))

	transfer, err := s.Run(context.Background())
	require.Error(t, err)

	assert.True(t, IsIO(err))
	assert.Equal(t, err, gotErr)
	assert.Equal(t, "HELLO", string(transfer.Message))
	assert.Equal(t, 1, ch.closes)
}

func TestSessionRunOpenFailure(t *testing.T) {
	cause := errors.New("no such port")
	s := NewSession(OpenerFunc(func() (Channel, error) { return nil, cause }))

	transfer, err := s.Run(context.Background())
	assert.Nil(t, transfer)
	assert.True(t, IsOpen(err))
	assert.ErrorIs(t, err, cause)
}

func TestSessionRunCancelUnblocksRead(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := newBlockingChannel()
	s := NewSession(openerFor(ch), WithCallbacks(&Callbacks{
		OnEvent: func(ev Event) {
			if ev.Type == EventReady {
				cancel()
			}
		},
	}))

	transfer, err := s.Run(ctx)
	require.Error(t, err)

	assert.True(t, IsCancelled(err))
	assert.False(t, transfer.Completed)
	assert.Equal(t, []byte{NAK}, ch.writes)
	assert.Equal(t, 1, ch.closes)
}

func TestSessionRunCancelUnblocksStdio(t *testing.T) {
	defer goleak.VerifyNone(t)

	inR, inW, err := os.Pipe()
	require.NoError(t, err)
	outR, outW, err := os.Pipe()
	require.NoError(t, err)

	stdin, stdout := os.Stdin, os.Stdout
	os.Stdin, os.Stdout = inR, outW
	defer func() {
		os.Stdin, os.Stdout = stdin, stdout
		inR.Close()
		inW.Close()
		outR.Close()
		outW.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(100*time.Millisecond, cancel)

	done := make(chan error, 1)
	go func() {
		_, err := NewSession(StdioOpener{}).Run(ctx)
		done <- err
	}()

	select {
	case err := <-done:
		assert.True(t, IsCancelled(err), "got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run still blocked after cancel")
	}

	nak := make([]byte, 1)
	_, err = outR.Read(nak)
	require.NoError(t, err)
	assert.Equal(t, byte(NAK), nak[0])
}

func TestReadCancelerIgnoresFilesWithoutDeadlines(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()

	assert.NoError(t, readCanceler{f}.Close())
}

func TestSessionRunAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opened := false
	s := NewSession(OpenerFunc(func() (Channel, error) {
		opened = true
		return newScriptedChannel(nil), nil
	}))

	_, err := s.Run(ctx)
	assert.True(t, IsCancelled(err))
	assert.False(t, opened)
}

func TestSessionRunUsesSessionContext(t *testing.T) {
	ch := newScriptedChannel([]byte{EOT})
	s := NewSession(openerFor(ch), WithContext(context.Background()))

	//nolint:staticcheck // nil selects the session context
	transfer, err := s.Run(nil)
	require.NoError(t, err)
	assert.True(t, transfer.Completed)
}

func TestSessionLogTraffic(t *testing.T) {
	ch := newScriptedChannel([]byte{EOT})
	logger := &recordingLogger{}
	s := NewSession(openerFor(ch),
		WithConfig(&Config{LogTraffic: true}),
		WithSessionLogger(logger),
	)

	_, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Contains(t, logger.debug, "channel: -> NAK")
	assert.Contains(t, logger.debug, "channel: <- EOT")
	assert.Contains(t, logger.debug, "channel: -> ACK")
	assert.Equal(t, 1, ch.closes)
}
