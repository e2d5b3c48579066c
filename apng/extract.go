package apng

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	kapng "github.com/kettek/apng"
)

// defaultDelayMS stands in when a sub-frame carries no usable timing.
// Browsers render zero-delay frames at 100ms, so extraction does the same.
const defaultDelayMS = 100

// ExtractedFrame is one sub-frame of an animated PNG flattened to a
// standalone full-canvas still image.
type ExtractedFrame struct {
	Data    []byte // PNG-encoded still image
	Width   int    // canvas width in pixels
	Height  int    // canvas height in pixels
	DelayMS int    // display duration of this sub-frame
}

// ExtractFrames decodes an animated PNG and explodes it into independent
// still frames. Sub-frames covering only a region of the canvas are
// composited over the accumulated canvas state under their dispose and blend
// operations, so every returned still is the full-canvas image a viewer
// would see at that point of the animation.
func ExtractFrames(data []byte) ([]ExtractedFrame, error) {
	decoded, err := kapng.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("apng: decoding animation: %w", err)
	}

	frames := decoded.Frames
	if len(frames) == 0 {
		return nil, ErrEmptyAnimation
	}

	// The first decoded image always spans the full canvas, whether it is
	// the shared default image or the first animation frame.
	cb := frames[0].Image.Bounds()
	w, h := cb.Dx(), cb.Dy()

	// A default image only seeds the canvas size; it does not participate
	// in the animation.
	if frames[0].IsDefault {
		frames = frames[1:]
		if len(frames) == 0 {
			return nil, ErrEmptyAnimation
		}
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, w, h))
	transparent := image.NewUniform(color.NRGBA{})

	out := make([]ExtractedFrame, 0, len(frames))
	for i, fr := range frames {
		fb := fr.Image.Bounds()
		region := image.Rect(fr.XOffset, fr.YOffset, fr.XOffset+fb.Dx(), fr.YOffset+fb.Dy())

		var saved *image.NRGBA
		if fr.DisposeOp == kapng.DISPOSE_OP_PREVIOUS {
			saved = cloneNRGBA(canvas)
		}

		op := draw.Src
		if fr.BlendOp == kapng.BLEND_OP_OVER {
			op = draw.Over
		}
		draw.Draw(canvas, region, fr.Image, fb.Min, op)

		var buf bytes.Buffer
		if err := png.Encode(&buf, canvas); err != nil {
			return nil, fmt.Errorf("apng: flattening frame %d: %w", i, err)
		}
		out = append(out, ExtractedFrame{
			Data:    buf.Bytes(),
			Width:   w,
			Height:  h,
			DelayMS: frameDelayMS(fr),
		})

		switch fr.DisposeOp {
		case kapng.DISPOSE_OP_BACKGROUND:
			draw.Draw(canvas, region, transparent, image.Point{}, draw.Src)
		case kapng.DISPOSE_OP_PREVIOUS:
			canvas = saved
		}
	}
	return out, nil
}

// frameDelayMS converts an fcTL delay fraction to milliseconds. A zero
// denominator means hundredths of a second per the APNG rules; a zero or
// negative result falls back to defaultDelayMS.
func frameDelayMS(fr kapng.Frame) int {
	num := int(fr.DelayNumerator)
	den := int(fr.DelayDenominator)
	if den == 0 {
		den = 100
	}
	ms := num * 1000 / den
	if ms <= 0 {
		return defaultDelayMS
	}
	return ms
}

// cloneNRGBA makes an independent copy of an NRGBA image.
func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	dst := &image.NRGBA{
		Pix:    make([]byte, len(src.Pix)),
		Stride: src.Stride,
		Rect:   src.Rect,
	}
	copy(dst.Pix, src.Pix)
	return dst
}
