// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// textDecoder turns byte chunks into text, carrying an incomplete trailing
// UTF-8 sequence over to the next call. Ill-formed bytes become U+FFFD.
type textDecoder struct {
	t    transform.Transformer
	tail []byte
}

func newTextDecoder() *textDecoder {
	return &textDecoder{t: unicode.UTF8.NewDecoder()}
}

// decode converts chunk, prefixed by any carried tail. With atEOF set a
// dangling partial character is flushed as a replacement character.
func (d *textDecoder) decode(chunk []byte, atEOF bool) string {
	src := make([]byte, 0, len(d.tail)+len(chunk))
	src = append(src, d.tail...)
	src = append(src, chunk...)
	d.tail = nil
	if len(src) == 0 {
		return ""
	}

	dst := make([]byte, len(src)*3+utf8.UTFMax)
	var out []byte
	for {
		nDst, nSrc, err := d.t.Transform(dst, src, atEOF)
		out = append(out, dst[:nDst]...)
		src = src[nSrc:]
		if errors.Is(err, transform.ErrShortDst) {
			dst = make([]byte, len(dst)*2)
			continue
		}
		if errors.Is(err, transform.ErrShortSrc) {
			d.tail = append(d.tail, src...)
		}
		break
	}
	return string(out)
}
