package apng

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	kapng "github.com/kettek/apng"
)

func TestEncodeAll_ProducesAnimatedPNG(t *testing.T) {
	frames := []image.Image{
		solidNRGBA(16, 16, color.NRGBA{R: 255, A: 255}),
		solidNRGBA(16, 16, color.NRGBA{G: 255, A: 255}),
	}
	out, err := EncodeAll(frames, []int{100, 250}, nil)
	if err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}

	if !IsAnimated(out) {
		t.Fatal("EncodeAll output not detected as animated")
	}
	info, err := ReadInfo(out)
	if err != nil {
		t.Fatalf("ReadInfo: %v", err)
	}
	if info.NumFrames != 2 {
		t.Errorf("NumFrames = %d, want 2", info.NumFrames)
	}
	if info.NumPlays != 0 {
		t.Errorf("NumPlays = %d, want 0 (loop forever)", info.NumPlays)
	}
}

func TestEncodeAll_ReferenceDecoderReadback(t *testing.T) {
	colors := []color.NRGBA{
		{R: 200, G: 10, B: 10, A: 255},
		{R: 10, G: 200, B: 10, A: 255},
		{R: 10, G: 10, B: 200, A: 255},
	}
	frames := make([]image.Image, len(colors))
	for i, c := range colors {
		frames[i] = solidNRGBA(8, 8, c)
	}

	out, err := EncodeAll(frames, []int{100, 200, 300}, nil)
	if err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}

	decoded, err := kapng.DecodeAll(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("reference decode: %v", err)
	}
	if len(decoded.Frames) != 3 {
		t.Fatalf("decoded %d frames, want 3", len(decoded.Frames))
	}

	wantNum := []uint16{100, 200, 300}
	for i, fr := range decoded.Frames {
		if fr.DelayNumerator != wantNum[i] || fr.DelayDenominator != 1000 {
			t.Errorf("frame %d delay = %d/%d, want %d/1000", i, fr.DelayNumerator, fr.DelayDenominator, wantNum[i])
		}
		got := color.NRGBAModel.Convert(fr.Image.At(4, 4)).(color.NRGBA)
		if got != colors[i] {
			t.Errorf("frame %d pixel = %+v, want %+v", i, got, colors[i])
		}
	}
}

func TestEncodeAll_CompressionLevels(t *testing.T) {
	// A large flat image compresses drastically; level 0 stores it raw.
	frames := []image.Image{solidNRGBA(64, 64, color.NRGBA{R: 7, G: 7, B: 7, A: 255})}
	delays := []int{100}

	stored, err := EncodeAll(frames, delays, &EncodeOptions{CompressionLevel: MinCompression})
	if err != nil {
		t.Fatalf("EncodeAll(level 0): %v", err)
	}
	best, err := EncodeAll(frames, delays, &EncodeOptions{CompressionLevel: MaxCompression})
	if err != nil {
		t.Fatalf("EncodeAll(level 9): %v", err)
	}

	if len(best) >= len(stored) {
		t.Fatalf("level 9 output (%d bytes) not smaller than level 0 (%d bytes)", len(best), len(stored))
	}

	// Both must decode to the same pixels.
	for _, data := range [][]byte{stored, best} {
		decoded, err := kapng.DecodeAll(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		got := color.NRGBAModel.Convert(decoded.Frames[0].Image.At(32, 32)).(color.NRGBA)
		if (got != color.NRGBA{R: 7, G: 7, B: 7, A: 255}) {
			t.Fatalf("pixel = %+v after compression roundtrip", got)
		}
	}
}

func TestEncodeAll_Validation(t *testing.T) {
	if _, err := EncodeAll(nil, nil, nil); !errors.Is(err, ErrEmptyAnimation) {
		t.Errorf("empty input: got %v, want ErrEmptyAnimation", err)
	}

	frames := []image.Image{solidNRGBA(4, 4, color.NRGBA{A: 255})}
	if _, err := EncodeAll(frames, []int{100, 200}, nil); !errors.Is(err, ErrFrameMismatch) {
		t.Errorf("mismatched delays: got %v, want ErrFrameMismatch", err)
	}
}

func TestEncodeAll_DelayClamping(t *testing.T) {
	frames := []image.Image{
		solidNRGBA(4, 4, color.NRGBA{R: 255, A: 255}),
		solidNRGBA(4, 4, color.NRGBA{G: 255, A: 255}),
		solidNRGBA(4, 4, color.NRGBA{B: 255, A: 255}),
	}
	out, err := EncodeAll(frames, []int{-50, 0, 1 << 20}, nil)
	if err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}

	decoded, err := kapng.DecodeAll(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("reference decode: %v", err)
	}
	if got := decoded.Frames[0].DelayNumerator; got != defaultDelayMS {
		t.Errorf("negative delay encoded as %d, want %d", got, defaultDelayMS)
	}
	if got := decoded.Frames[1].DelayNumerator; got != defaultDelayMS {
		t.Errorf("zero delay encoded as %d, want %d", got, defaultDelayMS)
	}
	if got := decoded.Frames[2].DelayNumerator; got != maxDelayMS {
		t.Errorf("oversized delay encoded as %d, want %d", got, maxDelayMS)
	}
}

func TestEncodeAll_PatchAfterEncode(t *testing.T) {
	// The assembly flow: encode (always loop-forever), then patch the loop
	// count in place.
	frames := []image.Image{
		solidNRGBA(8, 8, color.NRGBA{R: 255, A: 255}),
		solidNRGBA(8, 8, color.NRGBA{B: 255, A: 255}),
	}
	out, err := EncodeAll(frames, []int{100, 100}, nil)
	if err != nil {
		t.Fatalf("EncodeAll: %v", err)
	}
	patched, err := SetLoopCount(out, 12)
	if err != nil {
		t.Fatalf("SetLoopCount: %v", err)
	}

	info, err := ReadInfo(patched)
	if err != nil {
		t.Fatalf("ReadInfo: %v", err)
	}
	if info.NumPlays != 12 {
		t.Fatalf("NumPlays = %d, want 12", info.NumPlays)
	}
	if _, err := kapng.DecodeAll(bytes.NewReader(patched)); err != nil {
		t.Fatalf("reference decoder rejected patched output: %v", err)
	}
}
