package webpmux

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/stillmotion/animpack/internal/container"
)

// Limits imposed by the container format itself.
const (
	// MaxDuration is the largest per-frame duration in milliseconds that
	// fits the ANMF chunk's 24-bit field.
	MaxDuration = container.MaxDuration - 1
	// MaxLoopCount is the largest loop count that fits the ANIM chunk's
	// 16-bit field.
	MaxLoopCount = container.MaxLoopCount - 1
)

var (
	ErrNoFrames      = errors.New("webpmux: no frames to assemble")
	ErrFrameEmpty    = errors.New("webpmux: frame data is empty")
	ErrInvalidFrame  = errors.New("webpmux: invalid frame data")
	ErrMuxValidation = errors.New("webpmux: validation failed")
)

// Frame pairs one encoded single-image WebP with its display duration. It is
// the input to the package-level Assemble convenience.
type Frame struct {
	Data       []byte
	DurationMS int
}

type muxFrame struct {
	alpha      []byte // ALPH chunk payload, nil when absent
	bitstream  []byte // VP8 or VP8L payload
	width      int
	height     int
	durationMS int
}

// Muxer assembles an animated WebP container from independently encoded
// frames. Frames may be complete single-image WebP files or raw VP8/VP8L
// bitstreams with an optional ALPH prefix; either way only the codec
// payloads are retained, and wrapper or metadata chunks are discarded.
//
// Every frame is written full-size at canvas offset (0,0), alpha-blended
// over the previous canvas state and left in place afterwards. Frames meant
// to replace the whole canvas must therefore span it.
type Muxer struct {
	frames []muxFrame

	bgColor   uint32
	loopCount int

	// Canvas dimensions for the VP8X chunk. When unset, the extent of the
	// largest frame is used.
	canvasWidth  int
	canvasHeight int
}

// NewMuxer creates an empty Muxer.
func NewMuxer() *Muxer {
	return &Muxer{}
}

// SetBackgroundColor sets the ANIM background color in BGRA byte order.
func (m *Muxer) SetBackgroundColor(color uint32) {
	m.bgColor = color
}

// SetLoopCount sets how many times the animation plays, with 0 meaning
// forever. Values are clamped to [0, MaxLoopCount].
func (m *Muxer) SetLoopCount(count int) {
	if count < 0 {
		count = 0
	} else if count > MaxLoopCount {
		count = MaxLoopCount
	}
	m.loopCount = count
}

// SetCanvasSize sets the canvas dimensions written to the VP8X chunk. Frames
// are checked against them during Assemble.
func (m *Muxer) SetCanvasSize(width, height int) {
	m.canvasWidth = width
	m.canvasHeight = height
}

// NumFrames returns the number of frames added so far.
func (m *Muxer) NumFrames() int {
	return len(m.frames)
}

// FrameDuration returns the clamped duration in milliseconds of the frame at
// the given index, or 0 when the index is out of range.
func (m *Muxer) FrameDuration(index int) int {
	if index < 0 || index >= len(m.frames) {
		return 0
	}
	return m.frames[index].durationMS
}

func clampDuration(d int) int {
	if d < 0 {
		return 0
	}
	if d > MaxDuration {
		return MaxDuration
	}
	return d
}

// AddFrame appends one frame displayed for durationMS milliseconds. data is
// either a complete single-image WebP file or a raw VP8/VP8L bitstream with
// an optional ALPH prefix. The frame's dimensions must be readable from the
// bitstream header, since the ANMF chunk cannot be written without them.
// Durations are clamped to [0, MaxDuration].
func (m *Muxer) AddFrame(data []byte, durationMS int) error {
	if len(data) == 0 {
		return ErrFrameEmpty
	}

	var alpha, bitstream []byte
	if isRIFFContainer(data) {
		var err error
		alpha, bitstream, err = extractBitstream(data)
		if err != nil {
			return err
		}
	} else {
		alpha, bitstream = splitAlphaAndBitstream(data)
	}
	if len(bitstream) == 0 {
		return fmt.Errorf("%w: no VP8 or VP8L payload", ErrInvalidFrame)
	}

	width, height, err := bitstreamDimensions(bitstream)
	if err != nil {
		return err
	}

	m.frames = append(m.frames, muxFrame{
		alpha:      alpha,
		bitstream:  bitstream,
		width:      width,
		height:     height,
		durationMS: clampDuration(durationMS),
	})
	return nil
}

// isRIFFContainer reports whether data begins with a RIFF/WEBP header.
func isRIFFContainer(data []byte) bool {
	_, _, err := container.ParseRIFFHeader(data)
	return err == nil
}

// extractBitstream pulls the codec payloads out of a complete single-image
// WebP file: the optional ALPH chunk and the VP8/VP8L bitstream. Wrapper and
// metadata chunks (VP8X, ICCP, EXIF, XMP) are dropped; the container around
// each frame is rebuilt from scratch during assembly.
func extractBitstream(data []byte) (alpha, bitstream []byte, err error) {
	_, off, err := container.ParseRIFFHeader(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFrame, err)
	}
	for off+container.ChunkHeaderSize <= len(data) {
		c, next, cerr := nextChunk(data, off)
		if cerr != nil {
			break
		}
		switch c.ID {
		case container.FourCCALPH:
			alpha = c.Data
		case container.FourCCVP8, container.FourCCVP8L:
			return alpha, c.Data, nil
		case container.FourCCANMF:
			return nil, nil, fmt.Errorf("%w: input is already an animation", ErrInvalidFrame)
		}
		off = next
	}
	return nil, nil, fmt.Errorf("%w: no VP8 or VP8L payload", ErrInvalidFrame)
}

// splitAlphaAndBitstream splits a raw frame payload into its optional ALPH
// chunk payload and the VP8/VP8L bitstream that follows it.
func splitAlphaAndBitstream(data []byte) (alpha, bitstream []byte) {
	if len(data) < container.ChunkHeaderSize {
		return nil, data
	}
	if container.ReadLE32(data[0:4]) != container.FourCCALPH {
		return nil, data
	}
	size := container.ReadLE32(data[4:8])
	end := container.ChunkHeaderSize + int(container.PaddedSize(size))
	if int(size) > len(data)-container.ChunkHeaderSize {
		return nil, data
	}
	if end > len(data) {
		end = len(data)
	}
	return data[container.ChunkHeaderSize : container.ChunkHeaderSize+int(size)], data[end:]
}

// bitstreamDimensions reads the frame width and height from a VP8 or VP8L
// bitstream header.
func bitstreamDimensions(bitstream []byte) (width, height int, err error) {
	if len(bitstream) > 0 && bitstream[0] == container.VP8LMagicByte {
		width, height, _, err = parseVP8LDimensions(bitstream)
		return width, height, err
	}
	return parseVP8Dimensions(bitstream)
}

// detectBitstreamType returns the FourCC matching a raw bitstream, VP8L when
// the lossless signature byte leads, VP8 otherwise.
func detectBitstreamType(bitstream []byte) ChunkID {
	if len(bitstream) > 0 && bitstream[0] == container.VP8LMagicByte {
		return container.FourCCVP8L
	}
	return container.FourCCVP8
}

// Assemble writes the animated WebP container to w.
func (m *Muxer) Assemble(w io.Writer) error {
	if len(m.frames) == 0 {
		return ErrNoFrames
	}
	canvasW, canvasH := m.canvasSize()
	if err := m.validate(canvasW, canvasH); err != nil {
		return err
	}

	// RIFF payload: the "WEBP" tag, VP8X, ANIM, then one ANMF per frame.
	riffPayload := uint32(container.TagSize)
	riffPayload += container.ChunkHeaderSize + container.VP8XChunkSize
	riffPayload += container.ChunkHeaderSize + container.ANIMChunkSize
	for i := range m.frames {
		f := &m.frames[i]
		anmfPayload := uint32(container.ANMFChunkSize) + frameSubChunksSize(f.alpha, f.bitstream)
		riffPayload += container.ChunkHeaderSize + container.PaddedSize(anmfPayload)
	}

	hdr := make([]byte, container.RIFFHeaderSize)
	container.PutLE32(hdr[0:4], container.FourCCRIFF)
	container.PutLE32(hdr[4:8], riffPayload)
	container.PutLE32(hdr[8:12], container.FourCCWEBP)
	if _, err := w.Write(hdr); err != nil {
		return err
	}

	if err := m.writeVP8X(w, canvasW, canvasH); err != nil {
		return err
	}
	if err := m.writeANIM(w); err != nil {
		return err
	}
	for i := range m.frames {
		if err := m.writeANMF(w, &m.frames[i]); err != nil {
			return err
		}
	}
	return nil
}

// AssembleBytes assembles the container into a fresh byte slice.
func (m *Muxer) AssembleBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Assemble(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// canvasSize returns the explicit canvas dimensions when set, otherwise the
// extent of the largest frame. All frames sit at offset (0,0).
func (m *Muxer) canvasSize() (int, int) {
	if m.canvasWidth > 0 && m.canvasHeight > 0 {
		return m.canvasWidth, m.canvasHeight
	}
	maxW, maxH := 0, 0
	for i := range m.frames {
		maxW = max(maxW, m.frames[i].width)
		maxH = max(maxH, m.frames[i].height)
	}
	return maxW, maxH
}

// validate checks the canvas and every frame before any byte is written.
func (m *Muxer) validate(canvasW, canvasH int) error {
	if canvasW <= 0 || canvasH <= 0 ||
		canvasW > container.MaxCanvasSize || canvasH > container.MaxCanvasSize {
		return fmt.Errorf("%w: canvas %dx%d out of range", ErrMuxValidation, canvasW, canvasH)
	}
	if uint64(canvasW)*uint64(canvasH) >= container.MaxImageArea {
		return fmt.Errorf("%w: canvas area %dx%d too large", ErrMuxValidation, canvasW, canvasH)
	}
	for i := range m.frames {
		f := &m.frames[i]
		if f.width > canvasW || f.height > canvasH {
			return fmt.Errorf("%w: frame %d is %dx%d, larger than the %dx%d canvas",
				ErrMuxValidation, i, f.width, f.height, canvasW, canvasH)
		}
	}
	return nil
}

func (m *Muxer) writeVP8X(w io.Writer, canvasW, canvasH int) error {
	// Animation and alpha flags are always set: every frame in this
	// container is a full-canvas RGBA composite.
	flags := byte(container.AnimationFlag | container.AlphaFlag)

	buf := make([]byte, container.ChunkHeaderSize+container.VP8XChunkSize)
	writeChunkHeader(buf[0:8], container.FourCCVP8X, container.VP8XChunkSize)
	buf[8] = flags
	// Bytes 9-11 are reserved and stay zero. The canvas is stored as
	// width-1 and height-1 in 24-bit little-endian fields.
	putLE24(buf[12:15], canvasW-1)
	putLE24(buf[15:18], canvasH-1)
	_, err := w.Write(buf)
	return err
}

func (m *Muxer) writeANIM(w io.Writer) error {
	buf := make([]byte, container.ChunkHeaderSize+container.ANIMChunkSize)
	writeChunkHeader(buf[0:8], container.FourCCANIM, container.ANIMChunkSize)
	container.PutLE32(buf[8:12], m.bgColor)
	container.PutLE16(buf[12:14], uint16(m.loopCount))
	_, err := w.Write(buf)
	return err
}

// writeANMF writes one ANMF chunk: the 16-byte frame header, the optional
// ALPH sub-chunk, then the VP8/VP8L sub-chunk, each padded to even length,
// plus a final padding byte when the whole ANMF payload lands odd. Frames
// are always full placements: offset (0,0), alpha blend, no disposal.
func (m *Muxer) writeANMF(w io.Writer, f *muxFrame) error {
	anmfPayload := uint32(container.ANMFChunkSize) + frameSubChunksSize(f.alpha, f.bitstream)

	hdr := make([]byte, container.ChunkHeaderSize+container.ANMFChunkSize)
	writeChunkHeader(hdr[0:8], container.FourCCANMF, anmfPayload)

	// Frame x and y are stored divided by two; both are always zero here.
	putLE24(hdr[8:11], 0)
	putLE24(hdr[11:14], 0)
	putLE24(hdr[14:17], f.width-1)
	putLE24(hdr[17:20], f.height-1)
	putLE24(hdr[20:23], f.durationMS)
	hdr[23] = 0 // blend over previous canvas, dispose none

	if _, err := w.Write(hdr); err != nil {
		return err
	}
	if f.alpha != nil {
		if err := writeDataChunk(w, container.FourCCALPH, f.alpha); err != nil {
			return err
		}
	}
	if err := writeDataChunk(w, detectBitstreamType(f.bitstream), f.bitstream); err != nil {
		return err
	}
	if anmfPayload%2 != 0 {
		if _, err := w.Write([]byte{0}); err != nil {
			return err
		}
	}
	return nil
}

// frameSubChunksSize returns the padded byte size of a frame's ALPH and
// VP8/VP8L sub-chunks as laid out inside its ANMF chunk.
func frameSubChunksSize(alpha, bitstream []byte) uint32 {
	var size uint32
	if alpha != nil {
		size += container.ChunkHeaderSize + container.PaddedSize(uint32(len(alpha)))
	}
	size += container.ChunkHeaderSize + container.PaddedSize(uint32(len(bitstream)))
	return size
}

// writeDataChunk writes one chunk header, its payload, and a padding byte
// when the payload length is odd.
func writeDataChunk(w io.Writer, id ChunkID, payload []byte) error {
	var hdr [container.ChunkHeaderSize]byte
	writeChunkHeader(hdr[:], id, uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if len(payload)%2 != 0 {
		if _, err := w.Write([]byte{0}); err != nil {
			return err
		}
	}
	return nil
}

// Assemble repackages encoded single-image WebP frames into one animated
// container with the given canvas size and loop count.
func Assemble(frames []Frame, canvasWidth, canvasHeight, loopCount int) ([]byte, error) {
	m := NewMuxer()
	m.SetCanvasSize(canvasWidth, canvasHeight)
	m.SetLoopCount(loopCount)
	for i, f := range frames {
		if err := m.AddFrame(f.Data, f.DurationMS); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return m.AssembleBytes()
}
