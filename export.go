package animpack

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"runtime"

	"github.com/alitto/pond/v2"
	"github.com/ericpauley/go-quantize/quantize"
	"go.uber.org/zap"

	"github.com/stillmotion/animpack/apng"
	"github.com/stillmotion/animpack/internal/pool"
	"github.com/stillmotion/animpack/webpmux"
)

// defaultQuality is the frame encoder quality hint used when WebPOptions
// leaves Quality unset.
const defaultQuality = 0.75

// WebPOptions configures ExportWebP.
type WebPOptions struct {
	// LoopCount is how many times the animation plays. 0 loops forever.
	// Values outside the container's range are clamped.
	LoopCount int

	// Quality is the hint in (0, 1] passed to the frame encoder.
	// 0 selects the default of 0.75.
	Quality float64

	// BackgroundColor is the canvas background in BGRA byte order,
	// default fully transparent. Most viewers ignore it.
	BackgroundColor uint32

	// Encoder produces each single-frame WebP payload. nil selects the
	// built-in lossless encoder.
	Encoder FrameEncoder

	// Workers caps concurrent frame composition. 0 uses one worker per
	// CPU.
	Workers int

	// Logger, when set, receives per-export progress fields.
	Logger *zap.Logger
}

// APNGOptions configures ExportAPNG.
type APNGOptions struct {
	// LoopCount is how many times the animation plays. 0 loops forever.
	LoopCount uint32

	// CompressionLevel is the zlib level for the PNG image data, from 1
	// (fastest) to 9 (best). Any other value, including 0, selects the
	// encoder default.
	CompressionLevel int

	// Logger, when set, receives per-export progress fields.
	Logger *zap.Logger
}

// GIFOptions configures ExportGIF.
type GIFOptions struct {
	// LoopCount is how many times the animation plays. 0 loops forever.
	LoopCount int

	// Workers caps concurrent frame composition. 0 uses one worker per
	// CPU.
	Workers int

	// Logger, when set, receives per-export progress fields.
	Logger *zap.Logger
}

// composeFrames flattens every frame of s on a worker pool and maps each
// canvas through render, returning the results in frame order. Canvas pixel
// buffers are recycled, so render must not retain the image past its
// return. render runs concurrently and receives each frame's index.
func composeFrames[T any](s *Sequence, workers int, render func(i int, canvas *image.NRGBA) (T, error)) ([]T, error) {
	n := len(s.frames)
	if n == 0 {
		return nil, ErrNoFrames
	}
	w, h := s.BaseWidth(), s.BaseHeight()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrCanvasSize, w, h)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	p := pond.NewResultPool[T](workers)
	defer p.StopAndWait()

	group := p.NewGroup()
	for i := 0; i < n; i++ {
		group.SubmitErr(func() (T, error) {
			var zero T
			f := s.frames[i]
			t := f.Transform
			if i == 0 {
				t = Identity()
			}
			pix := pool.Get(w * h * 4)
			defer pool.Put(pix)
			clear(pix)
			canvas := &image.NRGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
			if err := composeOnto(canvas, f.img, t); err != nil {
				return zero, fmt.Errorf("animpack: frame %d: %w", i, err)
			}
			return render(i, canvas)
		})
	}
	return group.Wait()
}

// ExportWebP flattens every frame, encodes each to a single-image WebP and
// assembles the results into one animated WebP container.
func (s *Sequence) ExportWebP(opts WebPOptions) ([]byte, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	enc := opts.Encoder
	if enc == nil {
		enc = defaultEncoder()
	}
	quality := opts.Quality
	if quality == 0 {
		quality = defaultQuality
	}

	blobs, err := composeFrames(s, opts.Workers, func(i int, canvas *image.NRGBA) ([]byte, error) {
		blob, err := enc.EncodeFrame(canvas, quality)
		if err != nil {
			return nil, fmt.Errorf("animpack: encoding frame %d: %w", i, err)
		}
		return blob, nil
	})
	if err != nil {
		return nil, err
	}

	m := webpmux.NewMuxer()
	m.SetCanvasSize(s.BaseWidth(), s.BaseHeight())
	m.SetLoopCount(opts.LoopCount)
	m.SetBackgroundColor(opts.BackgroundColor)
	for i, blob := range blobs {
		if err := m.AddFrame(blob, s.frames[i].DelayMS); err != nil {
			return nil, fmt.Errorf("animpack: frame %d: %w", i, err)
		}
	}
	out, err := m.AssembleBytes()
	if err != nil {
		return nil, err
	}

	logger.Info("assembled animated webp",
		zap.Int("frames", s.Len()),
		zap.Int("loopCount", opts.LoopCount),
		zap.Int("bytes", len(out)),
	)
	return out, nil
}

// ExportAPNG flattens every frame and encodes the stills as an animated
// PNG.
func (s *Sequence) ExportAPNG(opts APNGOptions) ([]byte, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	canvases, err := s.ComposeAll()
	if err != nil {
		return nil, err
	}
	images := make([]image.Image, len(canvases))
	delays := make([]int, len(canvases))
	for i, c := range canvases {
		images[i] = c
		delays[i] = s.frames[i].DelayMS
	}

	var encOpts *apng.EncodeOptions
	if opts.CompressionLevel >= 1 && opts.CompressionLevel <= apng.MaxCompression {
		encOpts = &apng.EncodeOptions{CompressionLevel: opts.CompressionLevel}
	}
	data, err := apng.EncodeAll(images, delays, encOpts)
	if err != nil {
		return nil, err
	}
	out, err := apng.SetLoopCount(data, opts.LoopCount)
	if err != nil {
		return nil, err
	}

	logger.Info("assembled animated png",
		zap.Int("frames", len(images)),
		zap.Uint32("loopCount", opts.LoopCount),
		zap.Int("bytes", len(out)),
	)
	return out, nil
}

// ExportGIF flattens every frame, quantizes each still to a 256-color
// palette with Floyd-Steinberg dithering and encodes the result as a GIF.
func (s *Sequence) ExportGIF(opts GIFOptions) ([]byte, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	paletted, err := composeFrames(s, opts.Workers, func(_ int, canvas *image.NRGBA) (*image.Paletted, error) {
		q := quantize.MedianCutQuantizer{AddTransparent: true}
		pal := q.Quantize(make(color.Palette, 0, 256), canvas)
		pimg := image.NewPaletted(canvas.Rect, pal)
		draw.FloydSteinberg.Draw(pimg, canvas.Rect, canvas, image.Point{})
		return pimg, nil
	})
	if err != nil {
		return nil, err
	}

	delays := make([]int, s.Len())
	for i, f := range s.frames {
		d := f.DelayMS / 10 // GIF timing is in centiseconds
		if d < 0 {
			d = 0
		}
		delays[i] = d
	}

	g := &gif.GIF{
		Image:     paletted,
		Delay:     delays,
		LoopCount: gifLoopCount(opts.LoopCount),
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, g); err != nil {
		return nil, fmt.Errorf("animpack: encoding gif: %w", err)
	}

	logger.Info("assembled gif",
		zap.Int("frames", s.Len()),
		zap.Int("loopCount", opts.LoopCount),
		zap.Int("bytes", buf.Len()),
	)
	return buf.Bytes(), nil
}

// gifLoopCount maps the package loop convention (0 plays forever, n plays n
// times) onto image/gif's, where 0 loops forever, -1 shows each frame once
// and n loops n+1 times.
func gifLoopCount(loops int) int {
	switch {
	case loops <= 0:
		return 0
	case loops == 1:
		return -1
	default:
		return loops - 1
	}
}
