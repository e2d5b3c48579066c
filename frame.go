package animpack

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync/atomic"
)

// Transform places a frame's source image on the canvas. The source is
// drawn centered on its own midpoint, scaled by Scale, rotated clockwise by
// RotationDeg and translated so its center lands at the canvas center plus
// (OffsetX, OffsetY).
type Transform struct {
	// OffsetX and OffsetY pan the source relative to the canvas center,
	// in canvas pixels. Positive values move right and down.
	OffsetX float64
	OffsetY float64

	// Scale is the uniform scale factor and must be positive. The zero
	// value of Transform is not a valid transform; use Identity.
	Scale float64

	// RotationDeg is the clockwise rotation in degrees.
	RotationDeg float64
}

// Identity returns the transform that renders a source unchanged.
func Identity() Transform {
	return Transform{Scale: 1}
}

// IsIdentity reports whether t renders a source unchanged.
func (t Transform) IsIdentity() bool {
	return t == Identity()
}

// frameIDSeq hands out process-unique frame identities.
var frameIDSeq atomic.Uint64

// Frame is one animation frame: an encoded source asset, its decoded
// pixels, a display duration and the transform placing it on the canvas.
// Create frames with NewFrame, FrameFromImage or ImportBytes.
type Frame struct {
	id uint64

	// source is the frame's own copy of the encoded asset.
	source []byte
	img    image.Image

	naturalWidth  int
	naturalHeight int

	// DelayMS is the display duration in milliseconds.
	DelayMS int

	// Transform places the source on the canvas. The base frame of a
	// sequence ignores it and always renders with Identity.
	Transform Transform
}

// FrameFromImage materializes img as a PNG-backed frame displayed for
// delayMS milliseconds, as if the encoded PNG had been imported. The caller
// must not modify img afterwards.
func FrameFromImage(img image.Image, delayMS int) (*Frame, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("animpack: materializing frame: %w", err)
	}
	return newFrame(buf.Bytes(), img, delayMS), nil
}

// newFrame wires up a frame around an already-decoded image and its encoded
// source bytes, which the frame takes ownership of.
func newFrame(source []byte, img image.Image, delayMS int) *Frame {
	b := img.Bounds()
	return &Frame{
		id:            frameIDSeq.Add(1),
		source:        source,
		img:           img,
		naturalWidth:  b.Dx(),
		naturalHeight: b.Dy(),
		DelayMS:       delayMS,
		Transform:     Identity(),
	}
}

// ID returns the frame's process-unique identity. It is stable across
// sequence reordering.
func (f *Frame) ID() uint64 { return f.id }

// Image returns the frame's decoded pixels.
func (f *Frame) Image() image.Image { return f.img }

// SourceData returns the frame's encoded source asset. The slice is the
// frame's own copy; callers must not modify it.
func (f *Frame) SourceData() []byte { return f.source }

// NaturalWidth returns the width of the decoded source in pixels.
func (f *Frame) NaturalWidth() int { return f.naturalWidth }

// NaturalHeight returns the height of the decoded source in pixels.
func (f *Frame) NaturalHeight() int { return f.naturalHeight }
