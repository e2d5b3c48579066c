package animpack

import (
	"bytes"
	"image"

	"github.com/HugoSmits86/nativewebp"
)

// FrameEncoder turns one composed canvas into a complete single-image WebP
// file. quality is a hint in (0, 1]; encoders that only do lossless are
// free to ignore it.
type FrameEncoder interface {
	EncodeFrame(img image.Image, quality float64) ([]byte, error)
}

// FrameEncoderFunc adapts a function to the FrameEncoder interface.
type FrameEncoderFunc func(img image.Image, quality float64) ([]byte, error)

// EncodeFrame calls f.
func (f FrameEncoderFunc) EncodeFrame(img image.Image, quality float64) ([]byte, error) {
	return f(img, quality)
}

// defaultEncoder encodes lossless VP8L frames. Lossless encoding has no use
// for the quality hint, so it is ignored.
func defaultEncoder() FrameEncoder {
	return FrameEncoderFunc(func(img image.Image, _ float64) ([]byte, error) {
		var buf bytes.Buffer
		if err := nativewebp.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
}
