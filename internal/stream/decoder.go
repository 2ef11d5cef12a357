// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/jeranaias/genscene-tui/internal/transcript"
)

// Delimiter terminates an image payload in the reply stream.
const Delimiter = "|"

// =============================================================================
// DECODER
// =============================================================================

// Decoder classifies the chunks of one reply stream. It is not safe for
// concurrent use and must not be reused for another stream.
type Decoder struct {
	text *textDecoder

	// image holds an in-progress payload; empty when no image is in progress.
	image strings.Builder

	// held is decoded text that is a proper prefix of the sentinel, kept back
	// until the next chunk decides whether an image starts.
	held string

	images    int
	discarded int
	logger    zerolog.Logger
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithLogger sets the logger used for debug events.
func WithLogger(l zerolog.Logger) DecoderOption {
	return func(d *Decoder) {
		d.logger = l
	}
}

// NewDecoder creates a decoder for a freshly opened stream.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{
		text:   newTextDecoder(),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Feed consumes the next chunk and returns the operations it triggers, in
// order. Most chunks yield zero or one operation.
func (d *Decoder) Feed(chunk []byte) []transcript.Op {
	return d.classify(d.text.decode(chunk, false))
}

// ImageInProgress reports whether an image payload is being accumulated.
func (d *Decoder) ImageInProgress() bool {
	return d.image.Len() > 0
}

// Images returns the number of images completed so far.
func (d *Decoder) Images() int {
	return d.images
}

func (d *Decoder) classify(text string) []transcript.Op {
	if d.held != "" {
		text = d.held + text
		d.held = ""
	}
	if text == "" {
		return nil
	}

	if !d.ImageInProgress() && !strings.HasPrefix(text, transcript.ImageSentinel) {
		if isSentinelPrefix(text) {
			d.held = text
			return nil
		}
		return []transcript.Op{transcript.UpdateLast(text)}
	}

	before, after, found := strings.Cut(text, Delimiter)
	if !found {
		d.image.WriteString(text)
		return nil
	}
	d.image.WriteString(before)
	payload := d.image.String()
	d.image.Reset()
	d.images++

	if after != "" {
		d.discarded += len(after)
		d.logger.Debug().
			Int("bytes", len(after)).
			Msg("discarding text after image delimiter")
	}

	return []transcript.Op{transcript.Append(
		transcript.NewImage(transcript.RoleAssistant, payload),
		transcript.NewText(transcript.RoleAssistant, ""),
	)}
}

// isSentinelPrefix reports whether text could still grow into the sentinel.
func isSentinelPrefix(text string) bool {
	return len(text) < len(transcript.ImageSentinel) &&
		strings.HasPrefix(transcript.ImageSentinel, text)
}

// Interrupt ends a stream whose read failed. Held-back sentinel-prefix text
// was received as plain text and is returned as one update-last. A partial
// rune or image payload is not flushed.
func (d *Decoder) Interrupt() []transcript.Op {
	text := d.held
	d.held = ""
	if text == "" {
		return nil
	}
	return []transcript.Op{transcript.UpdateLast(text)}
}

// =============================================================================
// END OF STREAM
// =============================================================================

// Summary describes how a stream ended.
type Summary struct {
	// Ops holds at most one update-last releasing held-back text.
	Ops []transcript.Op

	// Images is the number of images completed over the whole stream.
	Images int

	// DroppedImageBytes is the size of a truncated image payload that was
	// never emitted.
	DroppedImageBytes int

	// DiscardedBytes counts text that followed a delimiter in its chunk.
	DiscardedBytes int
}

// Finish ends the stream. A partial image is dropped, never flushed as a
// message. Text held back as a possible sentinel start is plain text after
// all and is released.
func (d *Decoder) Finish() Summary {
	tail := d.text.decode(nil, true)

	var ops []transcript.Op
	if d.ImageInProgress() {
		d.image.WriteString(tail)
	} else if text := d.held + tail; text != "" {
		ops = append(ops, transcript.UpdateLast(text))
	}
	d.held = ""

	sum := Summary{
		Ops:               ops,
		Images:            d.images,
		DroppedImageBytes: d.image.Len(),
		DiscardedBytes:    d.discarded,
	}
	d.image.Reset()

	if sum.DroppedImageBytes > 0 {
		d.logger.Debug().
			Int("bytes", sum.DroppedImageBytes).
			Msg("stream ended inside an image, payload dropped")
	}
	return sum
}
