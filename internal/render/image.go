// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/jeranaias/genscene-tui/internal/transcript"
	"github.com/jeranaias/genscene-tui/internal/util"
)

// ErrNotImage is returned when a value is not an image data URL.
var ErrNotImage = errors.New("not an image data url")

// ImageInfo describes a decoded image payload.
type ImageInfo struct {
	Width  int
	Height int
	Bytes  int
}

// String returns "PNG WxH, N KB".
func (i ImageInfo) String() string {
	return fmt.Sprintf("PNG %dx%d, %s", i.Width, i.Height, util.FormatBytes(i.Bytes))
}

// imagePayload splits the base64 payload off an image data URL. The payload
// follows the first comma after the sentinel; padding is optional.
func imagePayload(value string) (string, *base64.Encoding, error) {
	if !strings.HasPrefix(value, transcript.ImageSentinel) {
		return "", nil, ErrNotImage
	}
	payload := strings.TrimPrefix(value, transcript.ImageSentinel)
	payload = strings.TrimSpace(strings.TrimPrefix(payload, ","))
	if len(payload)%4 != 0 {
		return strings.TrimRight(payload, "="), base64.RawStdEncoding, nil
	}
	return payload, base64.StdEncoding, nil
}

// DecodeImage returns the raw bytes of an image data URL.
func DecodeImage(value string) ([]byte, error) {
	payload, enc, err := imagePayload(value)
	if err != nil {
		return nil, err
	}
	data, err := enc.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return data, nil
}

// InspectImage decodes an image data URL far enough to read its size.
func InspectImage(value string) (ImageInfo, error) {
	data, err := DecodeImage(value)
	if err != nil {
		return ImageInfo{}, err
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{Bytes: len(data)}, fmt.Errorf("read png header: %w", err)
	}
	return ImageInfo{Width: cfg.Width, Height: cfg.Height, Bytes: len(data)}, nil
}

// DescribeImage returns a one-line placeholder for an image message.
func DescribeImage(value string) string {
	info, err := InspectImage(value)
	switch {
	case err == nil:
		return "[image: " + info.String() + "]"
	case info.Bytes > 0:
		return "[image: " + util.FormatBytes(info.Bytes) + ", unreadable png]"
	default:
		return "[image: undecodable payload]"
	}
}

// SaveImage writes the n-th image of a transcript to dir as image-NNN.png
// and returns the path.
func SaveImage(dir string, m transcript.Message, n int) (string, error) {
	if !m.IsImage() {
		return "", ErrNotImage
	}
	payload, enc, err := imagePayload(m.Value)
	if err != nil {
		return "", err
	}
	path := filepath.Join(util.ExpandHome(dir), fmt.Sprintf("image-%03d.png", n))
	err = util.WriteFileAtomic(path, 0644, func(w io.Writer) error {
		if _, err := io.Copy(w, base64.NewDecoder(enc, strings.NewReader(payload))); err != nil {
			return fmt.Errorf("decode image payload: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return path, nil
}

// SaveImages writes every image message in msgs to dir, numbered from 1.
func SaveImages(dir string, msgs []transcript.Message) ([]string, error) {
	var paths []string
	n := 0
	for _, m := range msgs {
		if !m.IsImage() {
			continue
		}
		n++
		path, err := SaveImage(dir, m, n)
		if err != nil {
			return paths, fmt.Errorf("image %d: %w", n, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
