package xmodem

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"
)

// Channel is the byte-level transport the receiver talks through.
//
// ReadByte blocks until one byte is available. When the channel can no longer
// deliver bytes it returns ErrEndOfStream or the transport's own error.
// WriteByte is a blocking single-byte send. Close releases the transport and
// must be safe to call more than once.
type Channel interface {
	ReadByte() (byte, error)
	WriteByte(b byte) error
	Close() error
}

// Opener acquires a Channel. A failed Open means the session never starts.
type Opener interface {
	Open() (Channel, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func() (Channel, error)

func (f OpenerFunc) Open() (Channel, error) { return f() }

// streamChannel adapts an io.Reader/io.Writer pair to a Channel.
// Reads are buffered so that a transport delivering several bytes at once
// is consumed one byte per ReadByte call.
type streamChannel struct {
	reader  io.Reader
	writer  io.Writer
	closers []io.Closer

	rbuf  []byte
	rpos  int
	rleft int

	mu     sync.Mutex
	closed bool
}

// NewStreamChannel creates a Channel over reader and writer.
// Any of the supplied closers are closed when the channel is closed.
func NewStreamChannel(reader io.Reader, writer io.Writer, closers ...io.Closer) Channel {
	return &streamChannel{
		reader:  reader,
		writer:  writer,
		closers: closers,
		rbuf:    make([]byte, 256),
	}
}

func (s *streamChannel) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ReadByte returns the next buffered byte, refilling from the reader as needed.
func (s *streamChannel) ReadByte() (byte, error) {
	if s.isClosed() {
		return 0, ErrEndOfStream
	}
	if s.rleft > 0 {
		s.rleft--
		b := s.rbuf[s.rpos]
		s.rpos++
		return b, nil
	}

	for {
		n, err := s.reader.Read(s.rbuf)
		if n > 0 {
			s.rpos = 1
			s.rleft = n - 1
			return s.rbuf[0], nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrDeadlineExceeded) || s.isClosed() {
				return 0, ErrEndOfStream
			}
			return 0, err
		}
	}
}

// WriteByte writes a single byte, flushing if the writer supports it.
func (s *streamChannel) WriteByte(b byte) error {
	if s.isClosed() {
		return ErrEndOfStream
	}
	if _, err := s.writer.Write([]byte{b}); err != nil {
		return err
	}
	if f, ok := s.writer.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func (s *streamChannel) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && !errors.Is(err, io.EOF) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StdioOpener opens a channel over the process's standard input and output.
// Closing the channel does not close the standard streams; it expires the
// read deadline of stdin so that a pending read returns.
type StdioOpener struct{}

func (StdioOpener) Open() (Channel, error) {
	return NewStreamChannel(os.Stdin, os.Stdout, readCanceler{os.Stdin}), nil
}

// readCanceler unblocks reads on f when closed.
// Files without deadline support (a blocking stdin fd) are left as they are.
type readCanceler struct {
	f *os.File
}

func (r readCanceler) Close() error {
	if err := r.f.SetReadDeadline(time.Now()); err != nil && !errors.Is(err, os.ErrNoDeadline) {
		return err
	}
	return nil
}

// onceChannel makes Close idempotent for channels that are not.
type onceChannel struct {
	Channel
	once sync.Once
	err  error
}

func (o *onceChannel) Close() error {
	o.once.Do(func() {
		o.err = o.Channel.Close()
	})
	return o.err
}
