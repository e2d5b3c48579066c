package animpack

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/stillmotion/animpack/apng"
)

// DecodeImage decodes an encoded still image in any supported format (PNG,
// JPEG, GIF, WebP). Animated inputs decode to their first frame; use
// ImportBytes to explode an animated PNG into one frame per sub-frame.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("animpack: decoding image: %w", err)
	}
	return img, nil
}

// NewFrame builds a frame from an encoded still image displayed for delayMS
// milliseconds. The frame keeps its own copy of data as the immutable
// source asset.
func NewFrame(data []byte, delayMS int) (*Frame, error) {
	img, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	source := make([]byte, len(data))
	copy(source, data)
	return newFrame(source, img, delayMS), nil
}

// ImportBytes turns one uploaded asset into frames. An animated PNG
// explodes into one frame per flattened sub-frame, each carrying the
// sub-frame's own delay; any other supported image yields a single frame
// displayed for defaultDelayMS milliseconds.
func ImportBytes(data []byte, defaultDelayMS int) ([]*Frame, error) {
	if !apng.IsAnimated(data) {
		f, err := NewFrame(data, defaultDelayMS)
		if err != nil {
			return nil, err
		}
		return []*Frame{f}, nil
	}

	stills, err := apng.ExtractFrames(data)
	if err != nil {
		return nil, fmt.Errorf("animpack: exploding animation: %w", err)
	}
	frames := make([]*Frame, 0, len(stills))
	for i, st := range stills {
		f, err := NewFrame(st.Data, st.DelayMS)
		if err != nil {
			return nil, fmt.Errorf("animpack: frame %d: %w", i, err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}
