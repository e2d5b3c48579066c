// Command animpack assembles animated WebP, APNG or GIF files from still
// images or an animated PNG.
//
// Usage:
//
//	animpack webp [options] <input>...   stills/APNG → animated WebP
//	animpack apng [options] <input>...   stills/APNG → animated PNG
//	animpack gif  [options] <input>...   stills/APNG → GIF
//	animpack info <input>                inspect a WebP or PNG container
package main

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fatih/color"
	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"github.com/stillmotion/animpack"
	"github.com/stillmotion/animpack/apng"
	"github.com/stillmotion/animpack/webpmux"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "webp", "apng", "gif":
		err = runBuild(os.Args[1], os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "animpack: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.New(color.FgRed).Fprintf(color.Error, "animpack: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  animpack webp [options] <input>...   Assemble an animated WebP
  animpack apng [options] <input>...   Assemble an animated PNG
  animpack gif  [options] <input>...   Assemble a GIF
  animpack info <input>                Inspect a WebP or PNG container

Inputs are still images (PNG, JPEG, GIF, WebP) or animated PNGs, which
explode into one frame per sub-frame. Use "-" to read a single input from
stdin, "-o -" to write to stdout.

Run "animpack <command> -h" for command-specific options.
`)
}

// readInput returns the contents of path, or of stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// --- webp / apng / gif ---

func runBuild(format string, args []string) error {
	fs := flag.NewFlagSet(format, flag.ContinueOnError)
	output := fs.String("o", "", `output path (default: anim.`+outputExt(format)+`, "-" for stdout)`)
	delay := fs.Int("delay", 100, "default frame delay in milliseconds")
	delayList := fs.String("delays", "", "comma-separated per-frame delays in milliseconds")
	loop := fs.Int("loop", 0, "loop count (0 = forever)")
	align := fs.Bool("align", false, "smart-align frame scales to cover the canvas")
	resizeSpec := fs.String("resize", "", "downscale still inputs to fit WxH (e.g. 512x512)")
	verbose := fs.Bool("v", false, "verbose logging")

	var quality *float64
	var zlevel, workers *int
	switch format {
	case "webp":
		quality = fs.Float64("q", 0, "encoder quality hint 0-1 (0 = default)")
		workers = fs.Int("workers", 0, "concurrent compose workers (0 = one per CPU)")
	case "gif":
		workers = fs.Int("workers", 0, "concurrent compose workers (0 = one per CPU)")
	case "apng":
		zlevel = fs.Int("zlevel", 0, "zlib compression level 1-9 (0 = encoder default)")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("%s: missing input files\nUsage: animpack %s [options] <input>...", format, format)
	}

	frames, err := loadFrames(fs.Args(), *delay, *resizeSpec)
	if err != nil {
		return err
	}

	if *delayList != "" {
		delays, err := parseDelays(*delayList)
		if err != nil {
			return fmt.Errorf("%s: %w", format, err)
		}
		if len(delays) != len(frames) {
			return fmt.Errorf("%s: %d delays for %d frames", format, len(delays), len(frames))
		}
		for i, d := range delays {
			frames[i].DelayMS = d
		}
	}

	seq := animpack.NewSequence()
	for _, f := range frames {
		seq.Append(f)
	}
	if *align {
		seq.SmartAlign()
	}

	var logger *zap.Logger
	if *verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()
	}

	var out []byte
	switch format {
	case "webp":
		out, err = seq.ExportWebP(animpack.WebPOptions{
			LoopCount: *loop,
			Quality:   *quality,
			Workers:   *workers,
			Logger:    logger,
		})
	case "apng":
		if *loop < 0 {
			return fmt.Errorf("apng: negative loop count %d", *loop)
		}
		out, err = seq.ExportAPNG(animpack.APNGOptions{
			LoopCount:        uint32(*loop),
			CompressionLevel: *zlevel,
			Logger:           logger,
		})
	case "gif":
		out, err = seq.ExportGIF(animpack.GIFOptions{
			LoopCount: *loop,
			Workers:   *workers,
			Logger:    logger,
		})
	}
	if err != nil {
		return err
	}

	path := *output
	if path == "" {
		path = "anim." + outputExt(format)
	}
	if path == "-" {
		_, err = os.Stdout.Write(out)
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return err
	}

	color.Green("Wrote %s (%d frames, %d bytes)", path, seq.Len(), len(out))
	return nil
}

func outputExt(format string) string {
	if format == "apng" {
		return "png"
	}
	return format
}

// loadFrames imports every input, exploding animated PNGs into one frame
// per sub-frame. Still inputs are optionally downscaled to fit the -resize
// bounds before framing.
func loadFrames(paths []string, defaultDelayMS int, resizeSpec string) ([]*animpack.Frame, error) {
	var maxW, maxH uint
	if resizeSpec != "" {
		w, h, err := parseSize(resizeSpec)
		if err != nil {
			return nil, err
		}
		maxW, maxH = uint(w), uint(h)
	}

	var frames []*animpack.Frame
	for _, path := range paths {
		data, err := readInput(path)
		if err != nil {
			return nil, err
		}

		if resizeSpec != "" && !apng.IsAnimated(data) {
			img, err := animpack.DecodeImage(data)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			img = resize.Thumbnail(maxW, maxH, img, resize.Lanczos3)
			f, err := animpack.FrameFromImage(img, defaultDelayMS)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			frames = append(frames, f)
			continue
		}

		imported, err := animpack.ImportBytes(data, defaultDelayMS)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		frames = append(frames, imported...)
	}
	return frames, nil
}

// parseDelays parses a comma-separated list of millisecond delays.
func parseDelays(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	delays := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad delay %q", p)
		}
		if d < 0 {
			return nil, fmt.Errorf("bad delay %q: negative", p)
		}
		delays = append(delays, d)
	}
	return delays, nil
}

// parseSize parses a WxH dimension spec such as "512x512".
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("bad size %q (want WxH)", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("bad size %q (want WxH)", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("bad size %q (want WxH)", s)
	}
	return w, h, nil
}

// --- info ---

func runInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("info: missing input file\nUsage: animpack info <input>")
	}
	inputPath := args[0]

	data, err := readInput(inputPath)
	if err != nil {
		return err
	}

	name := inputPath
	if inputPath == "-" {
		name = "<stdin>"
	}
	fmt.Printf("File:       %s\n", name)

	switch {
	case isWebP(data):
		return printWebPInfo(data)
	case isPNG(data):
		return printPNGInfo(data)
	default:
		return fmt.Errorf("info: %s is neither WebP nor PNG", name)
	}
}

func isWebP(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP"
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

func isPNG(data []byte) bool {
	return bytes.HasPrefix(data, pngSignature)
}

func printWebPInfo(data []byte) error {
	d, err := webpmux.NewDemuxer(data)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	feat := d.GetFeatures()
	fmt.Printf("Format:     %s\n", feat.Format)
	fmt.Printf("Dimensions: %d x %d\n", feat.Width, feat.Height)
	fmt.Printf("Alpha:      %v\n", feat.HasAlpha)
	fmt.Printf("Animation:  %v\n", feat.HasAnimation)
	if !feat.HasAnimation {
		return nil
	}

	total := 0
	for i := 0; i < d.NumFrames(); i++ {
		fi, err := d.Frame(i)
		if err != nil {
			return fmt.Errorf("info: %w", err)
		}
		total += fi.DurationMS
	}
	fmt.Printf("Frames:     %d\n", d.NumFrames())
	fmt.Printf("Duration:   %d ms\n", total)
	fmt.Printf("Loop count: %s\n", loopString(d.LoopCount()))
	fmt.Printf("Background: #%08X\n", d.BackgroundColor())
	return nil
}

func printPNGInfo(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	fmt.Printf("Format:     PNG\n")
	fmt.Printf("Dimensions: %d x %d\n", cfg.Width, cfg.Height)

	animated := apng.IsAnimated(data)
	fmt.Printf("Animation:  %v\n", animated)
	if !animated {
		return nil
	}

	info, err := apng.ReadInfo(data)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	fmt.Printf("Frames:     %d\n", info.NumFrames)
	fmt.Printf("Loop count: %s\n", loopString(int(info.NumPlays)))
	return nil
}

func loopString(n int) string {
	if n <= 0 {
		return "infinite"
	}
	return strconv.Itoa(n)
}
