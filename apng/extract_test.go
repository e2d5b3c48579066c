package apng

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	kapng "github.com/kettek/apng"
)

// decodeStill decodes one extracted frame back into pixels.
func decodeStill(t *testing.T, ef ExtractedFrame) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(ef.Data))
	if err != nil {
		t.Fatalf("decoding extracted frame: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != ef.Width || b.Dy() != ef.Height {
		t.Fatalf("extracted frame is %dx%d, header says %dx%d", b.Dx(), b.Dy(), ef.Width, ef.Height)
	}
	return img
}

func wantColor(t *testing.T, img image.Image, x, y int, want color.NRGBA) {
	t.Helper()
	got := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	if got != want {
		t.Fatalf("pixel (%d,%d) = %+v, want %+v", x, y, got, want)
	}
}

func TestExtractFrames_RoundTrip(t *testing.T) {
	colors := []color.NRGBA{
		{R: 255, A: 255},
		{G: 255, A: 255},
		{B: 255, A: 255},
	}
	frames := make([]image.Image, len(colors))
	for i, c := range colors {
		frames[i] = solidNRGBA(8, 8, c)
	}

	encoded, err := EncodeAll(frames, []int{100, 200, 300}, nil)
	if err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}

	extracted, err := ExtractFrames(encoded)
	if err != nil {
		t.Fatalf("ExtractFrames: %v", err)
	}
	if len(extracted) != 3 {
		t.Fatalf("extracted %d frames, want 3", len(extracted))
	}

	wantDelays := []int{100, 200, 300}
	for i, ef := range extracted {
		if ef.Width != 8 || ef.Height != 8 {
			t.Errorf("frame %d: %dx%d, want 8x8", i, ef.Width, ef.Height)
		}
		if ef.DelayMS != wantDelays[i] {
			t.Errorf("frame %d: delay %dms, want %dms", i, ef.DelayMS, wantDelays[i])
		}
		img := decodeStill(t, ef)
		wantColor(t, img, 4, 4, colors[i])
	}
}

func TestExtractFrames_PartialFrameComposited(t *testing.T) {
	// Second frame covers only a 4x4 region; the extracted still must show
	// it composited over the first frame's canvas.
	red := color.NRGBA{R: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}

	a := kapng.APNG{Frames: []kapng.Frame{
		{
			Image:            solidNRGBA(8, 8, red),
			DelayNumerator:   100,
			DelayDenominator: 1000,
		},
		{
			Image:            solidNRGBA(4, 4, blue),
			XOffset:          2,
			YOffset:          2,
			DelayNumerator:   100,
			DelayDenominator: 1000,
			BlendOp:          kapng.BLEND_OP_OVER,
		},
	}}
	var buf bytes.Buffer
	if err := kapng.Encode(&buf, a); err != nil {
		t.Fatalf("reference encode: %v", err)
	}

	extracted, err := ExtractFrames(buf.Bytes())
	if err != nil {
		t.Fatalf("ExtractFrames: %v", err)
	}
	if len(extracted) != 2 {
		t.Fatalf("extracted %d frames, want 2", len(extracted))
	}

	second := decodeStill(t, extracted[1])
	wantColor(t, second, 4, 4, blue) // inside the sub-frame region
	wantColor(t, second, 0, 0, red)  // canvas retained outside it
	wantColor(t, second, 7, 7, red)
}

func TestExtractFrames_DisposePrevious(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	green := color.NRGBA{G: 255, A: 255}

	a := kapng.APNG{Frames: []kapng.Frame{
		{
			Image:            solidNRGBA(8, 8, red),
			DelayNumerator:   100,
			DelayDenominator: 1000,
		},
		{
			// Covers the center, then reverts on dispose.
			Image:            solidNRGBA(4, 4, blue),
			XOffset:          2,
			YOffset:          2,
			DelayNumerator:   100,
			DelayDenominator: 1000,
			DisposeOp:        kapng.DISPOSE_OP_PREVIOUS,
		},
		{
			Image:            solidNRGBA(2, 2, green),
			DelayNumerator:   100,
			DelayDenominator: 1000,
		},
	}}
	var buf bytes.Buffer
	if err := kapng.Encode(&buf, a); err != nil {
		t.Fatalf("reference encode: %v", err)
	}

	extracted, err := ExtractFrames(buf.Bytes())
	if err != nil {
		t.Fatalf("ExtractFrames: %v", err)
	}
	if len(extracted) != 3 {
		t.Fatalf("extracted %d frames, want 3", len(extracted))
	}

	second := decodeStill(t, extracted[1])
	wantColor(t, second, 4, 4, blue)

	// After DISPOSE_OP_PREVIOUS, the blue region reverts to red before the
	// green patch lands in the corner.
	third := decodeStill(t, extracted[2])
	wantColor(t, third, 0, 0, green)
	wantColor(t, third, 4, 4, red)
}

func TestExtractFrames_DisposeBackground(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}

	a := kapng.APNG{Frames: []kapng.Frame{
		{
			Image:            solidNRGBA(8, 8, red),
			DelayNumerator:   100,
			DelayDenominator: 1000,
			DisposeOp:        kapng.DISPOSE_OP_BACKGROUND,
		},
		{
			Image:            solidNRGBA(2, 2, blue),
			DelayNumerator:   100,
			DelayDenominator: 1000,
			BlendOp:          kapng.BLEND_OP_OVER,
		},
	}}
	var buf bytes.Buffer
	if err := kapng.Encode(&buf, a); err != nil {
		t.Fatalf("reference encode: %v", err)
	}

	extracted, err := ExtractFrames(buf.Bytes())
	if err != nil {
		t.Fatalf("ExtractFrames: %v", err)
	}

	// First frame disposed to background: everything outside the second
	// frame's 2x2 region is transparent.
	second := decodeStill(t, extracted[1])
	wantColor(t, second, 0, 0, blue)
	wantColor(t, second, 5, 5, color.NRGBA{})
}

func TestExtractFrames_DefaultDelay(t *testing.T) {
	a := kapng.APNG{Frames: []kapng.Frame{
		{Image: solidNRGBA(4, 4, color.NRGBA{R: 255, A: 255})}, // no delay set
		{Image: solidNRGBA(4, 4, color.NRGBA{G: 255, A: 255}), DelayNumerator: 5, DelayDenominator: 10},
	}}
	var buf bytes.Buffer
	if err := kapng.Encode(&buf, a); err != nil {
		t.Fatalf("reference encode: %v", err)
	}

	extracted, err := ExtractFrames(buf.Bytes())
	if err != nil {
		t.Fatalf("ExtractFrames: %v", err)
	}
	if extracted[0].DelayMS != defaultDelayMS {
		t.Errorf("zero-delay frame: %dms, want default %dms", extracted[0].DelayMS, defaultDelayMS)
	}
	if extracted[1].DelayMS != 500 {
		t.Errorf("5/10s frame: %dms, want 500ms", extracted[1].DelayMS)
	}
}

func TestExtractFrames_NotAnAnimation(t *testing.T) {
	if _, err := ExtractFrames([]byte("junk")); err == nil {
		t.Fatal("expected an error for non-PNG input")
	}
}

func TestFrameDelayMS(t *testing.T) {
	tests := []struct {
		name     string
		num, den uint16
		want     int
	}{
		{"milliseconds", 250, 1000, 250},
		{"centiseconds", 25, 100, 250},
		{"zero denominator means centiseconds", 25, 0, 250},
		{"zero delay falls back", 0, 1000, defaultDelayMS},
		{"sub-millisecond rounds down to fallback", 1, 10000, defaultDelayMS},
		{"whole seconds", 2, 1, 2000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fr := kapng.Frame{DelayNumerator: tt.num, DelayDenominator: tt.den}
			if got := frameDelayMS(fr); got != tt.want {
				t.Errorf("frameDelayMS(%d/%d) = %d, want %d", tt.num, tt.den, got, tt.want)
			}
		})
	}
}
