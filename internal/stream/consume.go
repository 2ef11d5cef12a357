// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jeranaias/genscene-tui/internal/transcript"
)

// DefaultReadSize is the read buffer used when Options.ReadSize is unset.
const DefaultReadSize = 4096

// Applier receives decoded operations. *transcript.Store implements it.
type Applier interface {
	Apply(op transcript.Op) error
}

// Options configures Consume.
type Options struct {
	// ReadSize is the maximum size of a single read from the stream.
	ReadSize int

	// Logger receives stream lifecycle events. Nil disables logging.
	Logger *zerolog.Logger
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{ReadSize: DefaultReadSize}
}

// Result summarizes one consumed stream.
type Result struct {
	StreamID          string
	Bytes             int
	Chunks            int
	Ops               int
	Images            int
	DroppedImageBytes int
	Duration          time.Duration
}

// TransportError reports a stream that failed before its end. Whatever was
// received before the failure stays in the transcript, including text held
// back as a possible image start.
type TransportError struct {
	StreamID string
	Bytes    int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("stream %s: read failed after %d bytes: %v", e.StreamID, e.Bytes, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// Consume reads r to the end, feeding every chunk through a fresh Decoder and
// applying the resulting operations to dst in order.
//
// It stops at end of stream, on a read error (*TransportError), when ctx is
// cancelled (ctx.Err(), nothing is applied afterwards) or when dst rejects an
// operation. If r is an io.Closer it is closed on cancellation so that a
// blocked read returns.
func Consume(ctx context.Context, r io.Reader, dst Applier, opts Options) (Result, error) {
	if opts.ReadSize <= 0 {
		opts.ReadSize = DefaultReadSize
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	res := Result{StreamID: uuid.New().String()}
	logger = logger.With().Str("stream_id", res.StreamID).Logger()
	start := time.Now()

	if c, ok := r.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { c.Close() })
		defer stop()
	}

	dec := NewDecoder(WithLogger(logger))
	apply := func(ops []transcript.Op) error {
		for _, op := range ops {
			if err := dst.Apply(op); err != nil {
				return fmt.Errorf("stream %s: apply %s: %w", res.StreamID, op, err)
			}
			res.Ops++
		}
		return nil
	}
	done := func(err error) (Result, error) {
		res.Images = dec.Images()
		res.Duration = time.Since(start)
		ev := logger.Debug()
		if err != nil {
			ev = logger.Warn().Err(err)
		}
		ev.Int("bytes", res.Bytes).
			Int("chunks", res.Chunks).
			Int("ops", res.Ops).
			Int("images", res.Images).
			Dur("duration", res.Duration).
			Msg("stream closed")
		return res, err
	}

	logger.Debug().Msg("stream opened")
	buf := make([]byte, opts.ReadSize)
	for {
		if err := ctx.Err(); err != nil {
			return done(err)
		}

		n, readErr := r.Read(buf)
		if err := ctx.Err(); err != nil {
			return done(err)
		}

		if n > 0 {
			res.Bytes += n
			res.Chunks++
			if err := apply(dec.Feed(buf[:n])); err != nil {
				return done(err)
			}
		}

		switch {
		case readErr == nil:
			continue
		case errors.Is(readErr, io.EOF):
			sum := dec.Finish()
			res.DroppedImageBytes = sum.DroppedImageBytes
			if sum.DroppedImageBytes > 0 {
				logger.Warn().
					Int("dropped_bytes", sum.DroppedImageBytes).
					Msg("stream ended with an incomplete image")
			}
			return done(apply(sum.Ops))
		default:
			if err := apply(dec.Interrupt()); err != nil {
				return done(err)
			}
			return done(&TransportError{
				StreamID: res.StreamID,
				Bytes:    res.Bytes,
				Err:      readErr,
			})
		}
	}
}
