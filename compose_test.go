package animpack

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func solidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func TestComposeIdentityIsPixelExact(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	// A pattern with partial alpha catches any premultiply round trip.
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 31),
				G: uint8(y * 29),
				B: uint8(x*y + 7),
				A: uint8(255 - x*y),
			})
		}
	}

	dst, err := Compose(src, Identity(), 8, 8)
	require.NoError(t, err)
	require.Equal(t, src.Pix, dst.Pix)
}

func TestComposeIdentityCentersSmallerSource(t *testing.T) {
	src := solidNRGBA(2, 2, color.NRGBA{R: 99, A: 255})

	dst, err := Compose(src, Identity(), 4, 4)
	require.NoError(t, err)
	require.Equal(t, uint8(0), dst.NRGBAAt(0, 0).A)
	require.Equal(t, color.NRGBA{R: 99, A: 255}, dst.NRGBAAt(1, 1))
	require.Equal(t, color.NRGBA{R: 99, A: 255}, dst.NRGBAAt(2, 2))
	require.Equal(t, uint8(0), dst.NRGBAAt(3, 3).A)
}

func TestComposeWholePixelTranslate(t *testing.T) {
	src := solidNRGBA(4, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	src.SetNRGBA(0, 0, color.NRGBA{R: 200, A: 255})

	dst, err := Compose(src, Transform{OffsetX: 1, OffsetY: 2, Scale: 1}, 4, 4)
	require.NoError(t, err)

	require.Equal(t, color.NRGBA{R: 200, A: 255}, dst.NRGBAAt(1, 2))
	require.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, dst.NRGBAAt(2, 3))
	// The vacated area stays transparent.
	require.Equal(t, color.NRGBA{}, dst.NRGBAAt(0, 0))
	require.Equal(t, color.NRGBA{}, dst.NRGBAAt(3, 1))
}

func TestComposeRotate90Clockwise(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})
	src.SetNRGBA(2, 0, color.NRGBA{B: 255, A: 255})

	dst, err := Compose(src, Transform{Scale: 1, RotationDeg: 90}, 3, 3)
	require.NoError(t, err)

	// The horizontal strip becomes a vertical one in the middle column:
	// the left end swings up, the right end down.
	require.Equal(t, color.NRGBA{R: 255, A: 255}, dst.NRGBAAt(1, 0))
	require.Equal(t, color.NRGBA{G: 255, A: 255}, dst.NRGBAAt(1, 1))
	require.Equal(t, color.NRGBA{B: 255, A: 255}, dst.NRGBAAt(1, 2))
	require.Equal(t, uint8(0), dst.NRGBAAt(0, 0).A)
	require.Equal(t, uint8(0), dst.NRGBAAt(2, 2).A)
}

func TestComposeScaleCoversCanvas(t *testing.T) {
	src := solidNRGBA(2, 2, color.NRGBA{R: 40, G: 80, B: 120, A: 255})

	dst, err := Compose(src, Transform{Scale: 2}, 4, 4)
	require.NoError(t, err)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			require.Equal(t, color.NRGBA{R: 40, G: 80, B: 120, A: 255}, dst.NRGBAAt(x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestComposeValidation(t *testing.T) {
	src := solidNRGBA(2, 2, color.NRGBA{A: 255})

	_, err := Compose(src, Identity(), 0, 4)
	require.ErrorIs(t, err, ErrCanvasSize)

	_, err = Compose(src, Identity(), 4, -1)
	require.ErrorIs(t, err, ErrCanvasSize)

	_, err = Compose(nil, Identity(), 4, 4)
	require.ErrorIs(t, err, ErrNilImage)

	_, err = Compose(src, Transform{}, 4, 4)
	require.ErrorIs(t, err, ErrInvalidTransform)

	_, err = Compose(src, Transform{Scale: -1}, 4, 4)
	require.ErrorIs(t, err, ErrInvalidTransform)
}

func TestTransformIdentity(t *testing.T) {
	require.True(t, Identity().IsIdentity())
	require.False(t, Transform{}.IsIdentity())
	require.False(t, Transform{Scale: 1, OffsetX: 1}.IsIdentity())
	require.False(t, Transform{Scale: 2}.IsIdentity())
	require.False(t, Transform{Scale: 1, RotationDeg: 360}.IsIdentity())
}
