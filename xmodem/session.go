package xmodem

import (
	"context"
	"time"
)

// Session represents one receive session.
// It owns the channel from acquisition to release.
type Session struct {
	opener Opener

	// Configuration
	config *Config

	// Callbacks
	callbacks *Callbacks

	// Context
	ctx context.Context

	// Logger
	logger Logger
}

// Config holds session configuration.
type Config struct {
	// Progress update interval
	ProgressInterval time.Duration

	// LogTraffic logs every byte read and written at debug level.
	LogTraffic bool
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		ProgressInterval: 100 * time.Millisecond,
		LogTraffic:       false,
	}
}

// Option configures a Session.
type Option func(*Session)

// WithConfig sets the session configuration.
func WithConfig(config *Config) Option {
	return func(s *Session) {
		s.config = config
	}
}

// WithCallbacks sets the session callbacks.
func WithCallbacks(callbacks *Callbacks) Option {
	return func(s *Session) {
		s.callbacks = mergeCallbacks(callbacks)
	}
}

// WithContext sets the session context.
func WithContext(ctx context.Context) Option {
	return func(s *Session) {
		s.ctx = ctx
	}
}

// WithSessionLogger sets a logger for protocol debugging.
func WithSessionLogger(logger Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a new receive session on the channel produced by opener.
func NewSession(opener Opener, opts ...Option) *Session {
	s := &Session{
		opener:    opener,
		config:    DefaultConfig(),
		callbacks: defaultCallbacks(),
		ctx:       context.Background(),
		logger:    NoopLogger{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run acquires the channel, receives one message and releases the channel.
//
// Cancelling ctx closes the channel, which is the only way to unblock a read
// from a silent sender. The partial transfer is returned alongside any error.
func (s *Session) Run(ctx context.Context) (*Transfer, error) {
	// Use context from session if not provided
	if ctx == nil {
		ctx = s.ctx
	}

	if err := ctx.Err(); err != nil {
		return nil, WrapError(ErrCancelled, "session not started", err)
	}

	raw, err := s.opener.Open()
	if err != nil {
		s.logger.Error("Run: open failed: %v", err)
		openErr := WrapError(ErrOpen, "cannot open channel", err)
		s.callbacks.OnError(openErr, "open channel")
		return nil, openErr
	}

	var ch Channel = &onceChannel{Channel: raw}
	if s.config.LogTraffic {
		ch = NewLoggingChannel(ch, s.logger, "channel")
	}
	defer func() {
		if err := ch.Close(); err != nil {
			s.logger.Error("Run: close failed: %v", err)
		}
	}()

	stop := context.AfterFunc(ctx, func() {
		s.logger.Info("Run: context done, closing channel")
		ch.Close()
	})
	defer stop()

	s.logger.Info("Run: channel open")
	receiver := NewReceiver(ch, &ReceiverConfig{
		Callbacks:        s.callbacks,
		ProgressInterval: s.config.ProgressInterval,
		Logger:           s.logger,
	})

	transfer, err := receiver.Receive()
	if err != nil && ctx.Err() != nil {
		err = WrapError(ErrCancelled, "session cancelled", ctx.Err())
	}

	s.callbacks.OnComplete(transfer)
	if err != nil {
		s.callbacks.OnError(err, "receive")
	}
	return transfer, err
}
