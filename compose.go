package animpack

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Compose renders src through t onto a fresh transparent canvas of the
// given size. The source is drawn centered on its own midpoint, scaled,
// rotated clockwise and translated to the canvas center plus the pan
// offsets, in that order.
func Compose(src image.Image, t Transform, canvasWidth, canvasHeight int) (*image.NRGBA, error) {
	if canvasWidth <= 0 || canvasHeight <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrCanvasSize, canvasWidth, canvasHeight)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, canvasWidth, canvasHeight))
	if err := composeOnto(dst, src, t); err != nil {
		return nil, err
	}
	return dst, nil
}

// composeOnto renders src through t onto dst, which must be sized to the
// target canvas and hold only transparent pixels.
func composeOnto(dst *image.NRGBA, src image.Image, t Transform) error {
	if src == nil {
		return ErrNilImage
	}
	if t.Scale <= 0 {
		return fmt.Errorf("%w: scale %g", ErrInvalidTransform, t.Scale)
	}
	sb := src.Bounds()
	if t.IsIdentity() && sb.Dx() == dst.Rect.Dx() && sb.Dy() == dst.Rect.Dy() {
		// Straight copy keeps the base frame pixel-exact.
		draw.Draw(dst, dst.Rect, src, sb.Min, draw.Src)
		return nil
	}
	aff := affineFor(sb, t, dst.Rect.Dx(), dst.Rect.Dy())
	xdraw.ApproxBiLinear.Transform(dst, aff, src, sb, xdraw.Src, nil)
	return nil
}

// affineFor builds the source-to-canvas matrix for t: center the source on
// the origin, scale, rotate clockwise, then translate to the canvas center
// plus the pan offsets.
func affineFor(srcBounds image.Rectangle, t Transform, canvasWidth, canvasHeight int) f64.Aff3 {
	sin, cos := math.Sincos(t.RotationDeg * math.Pi / 180)

	srcCX := float64(srcBounds.Min.X) + float64(srcBounds.Dx())/2
	srcCY := float64(srcBounds.Min.Y) + float64(srcBounds.Dy())/2
	dstCX := float64(canvasWidth)/2 + t.OffsetX
	dstCY := float64(canvasHeight)/2 + t.OffsetY

	m := f64.Aff3{1, 0, -srcCX, 0, 1, -srcCY}
	m = mulAff3(f64.Aff3{t.Scale, 0, 0, 0, t.Scale, 0}, m)
	m = mulAff3(f64.Aff3{cos, -sin, 0, sin, cos, 0}, m)
	m = mulAff3(f64.Aff3{1, 0, dstCX, 0, 1, dstCY}, m)
	return m
}

// mulAff3 returns a*b, the affine transform applying b first and then a.
func mulAff3(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3], a[0]*b[1] + a[1]*b[4], a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3], a[3]*b[1] + a[4]*b[4], a[3]*b[2] + a[4]*b[5] + a[5],
	}
}
