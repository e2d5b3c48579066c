package webpmux

import (
	"errors"
	"fmt"

	"github.com/stillmotion/animpack/internal/container"
)

// BlendMode specifies how a frame is blended with the previous canvas.
type BlendMode int

const (
	BlendAlpha BlendMode = 0 // Alpha-blend with previous canvas.
	BlendNone  BlendMode = 1 // Do not blend; overwrite.
)

// DisposeMode specifies how the frame area is treated after rendering.
type DisposeMode int

const (
	DisposeNone       DisposeMode = 0 // Leave as-is.
	DisposeBackground DisposeMode = 1 // Fill with background color.
)

// Format describes the encoding format of a WebP file.
type Format int

const (
	FormatUndefined Format = 0
	FormatLossy     Format = 1
	FormatLossless  Format = 2
	FormatExtended  Format = 3
)

func (f Format) String() string {
	switch f {
	case FormatLossy:
		return "VP8"
	case FormatLossless:
		return "VP8L"
	case FormatExtended:
		return "VP8X"
	default:
		return "undefined"
	}
}

// Features describes the properties read from a WebP file's headers.
type Features struct {
	Width        int
	Height       int
	HasAlpha     bool
	HasAnimation bool
	HasICC       bool
	HasEXIF      bool
	HasXMP       bool
	Format       Format
}

// FrameInfo holds data and metadata for a single animation frame, or for the
// sole image of a non-animated file.
type FrameInfo struct {
	Data        []byte // VP8 or VP8L bitstream payload.
	AlphaData   []byte // Standalone ALPH chunk payload, if any.
	Width       int
	Height      int
	OffsetX     int
	OffsetY     int
	DurationMS  int  // Display time in milliseconds (0 for still images).
	HasAlpha    bool // ALPH chunk present or VP8L alpha bit set.
	BlendMode   BlendMode
	DisposeMode DisposeMode
}

// Demuxer parses a WebP RIFF container into features and frames. The frame
// payloads alias the input slice; callers must not mutate it while the
// Demuxer or its frames are in use.
type Demuxer struct {
	data     []byte
	features Features
	frames   []FrameInfo

	bgColor   uint32
	loopCount int
}

// maxFrames bounds the number of animation frames parsed, so a forged frame
// count cannot exhaust memory.
const maxFrames = 10000

var (
	ErrInvalidRIFF     = errors.New("webpmux: not a valid WebP file (bad RIFF header)")
	ErrNoImage         = errors.New("webpmux: no image data found")
	ErrInvalidVP8X     = errors.New("webpmux: invalid VP8X chunk")
	ErrInvalidANIM     = errors.New("webpmux: invalid ANIM chunk")
	ErrInvalidANMF     = errors.New("webpmux: invalid ANMF chunk")
	ErrFrameOutOfRange = errors.New("webpmux: frame index out of range")
	ErrTooManyFrames   = errors.New("webpmux: too many frames")
)

// NewDemuxer parses a WebP file from data and returns a Demuxer.
func NewDemuxer(data []byte) (*Demuxer, error) {
	d := &Demuxer{data: data}
	if err := d.parse(); err != nil {
		return nil, err
	}
	return d, nil
}

// GetFeatures returns the features read from the file headers.
func (d *Demuxer) GetFeatures() Features {
	return d.features
}

// NumFrames returns the number of frames.
func (d *Demuxer) NumFrames() int {
	return len(d.frames)
}

// Frame returns frame info for the given 0-based index.
func (d *Demuxer) Frame(index int) (*FrameInfo, error) {
	if index < 0 || index >= len(d.frames) {
		return nil, ErrFrameOutOfRange
	}
	fi := d.frames[index]
	return &fi, nil
}

// LoopCount returns the animation loop count (0 = infinite).
func (d *Demuxer) LoopCount() int {
	return d.loopCount
}

// BackgroundColor returns the ANIM background color in BGRA byte order.
func (d *Demuxer) BackgroundColor() uint32 {
	return d.bgColor
}

// parse validates the RIFF header and dispatches on the first chunk.
func (d *Demuxer) parse() error {
	hdr, consumed, err := container.ParseRIFFHeader(d.data)
	if err != nil {
		return ErrInvalidRIFF
	}
	// The declared file size may overshoot truncated input; work with what
	// is actually present.
	totalSize := int(hdr.FileSize) + container.ChunkHeaderSize
	if totalSize > len(d.data) {
		totalSize = len(d.data)
	}
	payload := d.data[consumed:totalSize]

	if len(payload) < container.ChunkHeaderSize {
		return ErrNoImage
	}
	switch firstID := container.ReadLE32(payload[0:4]); firstID {
	case container.FourCCVP8X:
		return d.parseExtended(payload)
	case container.FourCCVP8, container.FourCCVP8L:
		return d.parseSimple(payload)
	default:
		return fmt.Errorf("webpmux: unknown first chunk %s", container.FourCCString(firstID))
	}
}

// parseSimple handles non-extended files: a single bare VP8 or VP8L chunk.
func (d *Demuxer) parseSimple(payload []byte) error {
	c, _, err := nextChunk(payload, 0)
	if err != nil {
		return err
	}
	switch c.ID {
	case container.FourCCVP8:
		w, h, err := parseVP8Dimensions(c.Data)
		if err != nil {
			return err
		}
		d.features = Features{Width: w, Height: h, Format: FormatLossy}
		d.frames = []FrameInfo{{Data: c.Data, Width: w, Height: h}}
	case container.FourCCVP8L:
		w, h, hasAlpha, err := parseVP8LDimensions(c.Data)
		if err != nil {
			return err
		}
		d.features = Features{Width: w, Height: h, HasAlpha: hasAlpha, Format: FormatLossless}
		d.frames = []FrameInfo{{Data: c.Data, Width: w, Height: h, HasAlpha: hasAlpha}}
	}
	return nil
}

// parseExtended handles VP8X-extended files, animated or not.
func (d *Demuxer) parseExtended(payload []byte) error {
	vp8x, consumed, err := nextChunk(payload, 0)
	if err != nil {
		return err
	}
	if vp8x.Size < container.VP8XChunkSize {
		return ErrInvalidVP8X
	}

	flags := uint32(vp8x.Data[0])
	d.features = Features{
		Width:        getLE24(vp8x.Data[4:7]) + 1,
		Height:       getLE24(vp8x.Data[7:10]) + 1,
		HasAlpha:     flags&container.AlphaFlag != 0,
		HasAnimation: flags&container.AnimationFlag != 0,
		HasICC:       flags&container.ICCPFlag != 0,
		HasEXIF:      flags&container.EXIFFlag != 0,
		HasXMP:       flags&container.XMPFlag != 0,
		Format:       FormatExtended,
	}

	pos := consumed
	for pos+container.ChunkHeaderSize <= len(payload) {
		c, next, err := nextChunk(payload, pos)
		if err != nil {
			break
		}
		switch c.ID {
		case container.FourCCANIM:
			if err := d.parseANIM(c.Data); err != nil {
				return err
			}
		case container.FourCCANMF:
			if err := d.parseANMF(c.Data); err != nil {
				return err
			}
		case container.FourCCVP8, container.FourCCVP8L, container.FourCCALPH:
			// Non-animated extended file: a single image, possibly with a
			// standalone alpha chunk before it.
			if !d.features.HasAnimation && len(d.frames) == 0 {
				if err := d.parseSingleExtendedFrame(payload[pos:]); err != nil {
					return err
				}
			}
		}
		pos = next
	}

	if len(d.frames) == 0 {
		return ErrNoImage
	}
	return nil
}

// parseANIM extracts the background color and loop count.
func (d *Demuxer) parseANIM(data []byte) error {
	if len(data) < container.ANIMChunkSize {
		return ErrInvalidANIM
	}
	d.bgColor = container.ReadLE32(data[0:4])
	d.loopCount = int(container.ReadLE16(data[4:6]))
	return nil
}

// parseANMF extracts a single animation frame from an ANMF chunk payload.
func (d *Demuxer) parseANMF(data []byte) error {
	if len(data) < container.ANMFChunkSize {
		return ErrInvalidANMF
	}
	// Frame x and y are stored divided by two; width and height minus one.
	offsetX := getLE24(data[0:3]) * 2
	offsetY := getLE24(data[3:6]) * 2
	width := getLE24(data[6:9]) + 1
	height := getLE24(data[9:12]) + 1
	durationMS := getLE24(data[12:15])
	flagByte := data[15]

	dispose := DisposeNone
	if flagByte&0x01 != 0 {
		dispose = DisposeBackground
	}
	blend := BlendAlpha
	if flagByte&0x02 != 0 {
		blend = BlendNone
	}

	// The rest of the ANMF payload holds the frame's image sub-chunks.
	framePayload := data[container.ANMFChunkSize:]
	var imageData, alphaData []byte

	pos := 0
	for pos+container.ChunkHeaderSize <= len(framePayload) {
		c, next, err := nextChunk(framePayload, pos)
		if err != nil {
			break
		}
		switch c.ID {
		case container.FourCCVP8, container.FourCCVP8L:
			imageData = c.Data
		case container.FourCCALPH:
			alphaData = c.Data
		}
		pos = next
	}

	hasAlpha := len(alphaData) > 0
	if !hasAlpha && len(imageData) > 0 {
		hasAlpha = frameDataHasAlpha(imageData)
	}

	if len(d.frames) >= maxFrames {
		return fmt.Errorf("%w: exceeded limit of %d", ErrTooManyFrames, maxFrames)
	}

	d.frames = append(d.frames, FrameInfo{
		Data:        imageData,
		AlphaData:   alphaData,
		Width:       width,
		Height:      height,
		OffsetX:     offsetX,
		OffsetY:     offsetY,
		DurationMS:  durationMS,
		HasAlpha:    hasAlpha,
		BlendMode:   blend,
		DisposeMode: dispose,
	})
	return nil
}

// parseSingleExtendedFrame parses a non-animated VP8X file's image data.
// payload starts at the ALPH or VP8/VP8L chunk.
func (d *Demuxer) parseSingleExtendedFrame(payload []byte) error {
	var imageData, alphaData []byte

	pos := 0
	for pos+container.ChunkHeaderSize <= len(payload) && imageData == nil {
		c, next, err := nextChunk(payload, pos)
		if err != nil {
			break
		}
		switch c.ID {
		case container.FourCCALPH:
			alphaData = c.Data
		case container.FourCCVP8, container.FourCCVP8L:
			imageData = c.Data
		}
		pos = next
	}

	if imageData == nil {
		return ErrNoImage
	}
	hasAlpha := len(alphaData) > 0
	if !hasAlpha {
		hasAlpha = frameDataHasAlpha(imageData)
	}
	d.frames = []FrameInfo{{
		Data:      imageData,
		AlphaData: alphaData,
		Width:     d.features.Width,
		Height:    d.features.Height,
		HasAlpha:  hasAlpha,
	}}
	return nil
}

// parseVP8Dimensions extracts width and height from a VP8 keyframe header:
// a 3-byte frame tag, the signature bytes 0x9d 0x01 0x2a, then 14-bit
// width and height words.
func parseVP8Dimensions(data []byte) (int, int, error) {
	if len(data) < 10 {
		return 0, 0, ErrInvalidFrame
	}
	if data[3] != 0x9d || data[4] != 0x01 || data[5] != 0x2a {
		return 0, 0, ErrInvalidFrame
	}
	width := int(container.ReadLE16(data[6:8])) & 0x3fff
	height := int(container.ReadLE16(data[8:10])) & 0x3fff
	return width, height, nil
}

// parseVP8LDimensions extracts width, height, and the alpha bit from a VP8L
// header: the signature byte 0x2f, then a 32-bit word packing 14-bit
// width-1, 14-bit height-1, the alpha hint, and a version.
func parseVP8LDimensions(data []byte) (int, int, bool, error) {
	if len(data) < 5 {
		return 0, 0, false, ErrInvalidFrame
	}
	if data[0] != container.VP8LMagicByte {
		return 0, 0, false, ErrInvalidFrame
	}
	bits := container.ReadLE32(data[1:5])
	width := int(bits&0x3fff) + 1
	height := int((bits>>14)&0x3fff) + 1
	return width, height, (bits>>28)&0x1 != 0, nil
}

// frameDataHasAlpha reports whether a raw bitstream signals alpha on its
// own. Only VP8L carries an alpha bit in its header; lossy VP8 frames get
// transparency from a separate ALPH chunk the caller checks independently.
func frameDataHasAlpha(data []byte) bool {
	if len(data) < 5 || data[0] != container.VP8LMagicByte {
		return false
	}
	bits := container.ReadLE32(data[1:5])
	return (bits>>28)&0x1 != 0
}
