package apng

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"
	"io"

	kapng "github.com/kettek/apng"
)

// Zlib bounds for EncodeOptions.CompressionLevel.
const (
	MinCompression = 0 // store, no compression
	MaxCompression = 9 // best compression
)

// maxDelayMS is the largest per-frame delay an fcTL chunk can express with a
// millisecond denominator.
const maxDelayMS = 0xFFFF

// EncodeOptions configures EncodeAll.
type EncodeOptions struct {
	// CompressionLevel selects the zlib level used for image data, from 0
	// (store) to 9 (best). Out-of-range values use the encoder default.
	CompressionLevel int
}

// EncodeAll assembles full-canvas stills into an animated PNG, one sub-frame
// per image, displayed for the matching delaysMS entry. Frames are written
// as straight overwrites of the whole canvas, so no dispose or blend state
// carries between them. The play count is written as 0 (loop forever); use
// SetLoopCount on the result to change it.
func EncodeAll(frames []image.Image, delaysMS []int, opts *EncodeOptions) ([]byte, error) {
	if len(frames) == 0 {
		return nil, ErrEmptyAnimation
	}
	if len(delaysMS) != len(frames) {
		return nil, fmt.Errorf("%w: %d frames, %d delays", ErrFrameMismatch, len(frames), len(delaysMS))
	}

	a := kapng.APNG{Frames: make([]kapng.Frame, len(frames))}
	for i, img := range frames {
		d := delaysMS[i]
		if d <= 0 {
			d = defaultDelayMS
		}
		if d > maxDelayMS {
			d = maxDelayMS
		}
		a.Frames[i] = kapng.Frame{
			Image:            img,
			DelayNumerator:   uint16(d),
			DelayDenominator: 1000,
			DisposeOp:        kapng.DISPOSE_OP_NONE,
			BlendOp:          kapng.BLEND_OP_SOURCE,
		}
	}

	enc := kapng.Encoder{}
	if opts != nil && opts.CompressionLevel >= MinCompression && opts.CompressionLevel <= MaxCompression {
		level := opts.CompressionLevel
		enc.CompressionWriter = func(w io.Writer) (kapng.CompressionWriter, error) {
			return zlib.NewWriterLevel(w, level)
		}
	}

	var buf bytes.Buffer
	if err := enc.Encode(&buf, a); err != nil {
		return nil, fmt.Errorf("apng: encoding animation: %w", err)
	}
	return buf.Bytes(), nil
}
