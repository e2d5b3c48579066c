// Package apng reads and rewrites the animation layer of animated PNG files.
//
// A PNG file is an 8-byte signature followed by length-tagged chunks, each
// closed by a CRC over its tag and payload. Animated PNGs add three chunk
// types on top: acTL (animation control: frame count and play count), fcTL
// (per-frame control) and fdAT (frame data). This package detects animation
// by scanning the chunk list, patches the play count without re-encoding,
// explodes an animation into independent full-canvas stills, and assembles
// stills back into a new animated PNG.
package apng

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/stillmotion/animpack/internal/container"
)

// Common errors.
var (
	ErrTruncated      = errors.New("apng: truncated chunk stream")
	ErrMalformedChunk = errors.New("apng: malformed chunk header")
	ErrChunkNotFound  = errors.New("apng: chunk not found")
	ErrEmptyAnimation = errors.New("apng: animation has no frames")
	ErrFrameMismatch  = errors.New("apng: frame and delay counts differ")
)

// detectScanLimit bounds the animation-detection scan. A conforming animated
// PNG places acTL before the first image-data chunk, which keeps it within
// the first few chunks of the file; scanning further only burns time on
// large static PNGs.
const detectScanLimit = 10 << 10

// pngChunk is one parsed chunk: its tag, payload length, and the offset of
// its payload within the scanned buffer.
type pngChunk struct {
	tag          uint32
	length       int
	payloadStart int
}

// chunkCursor walks the chunk list of a PNG buffer lazily. Only headers are
// decoded; payload bytes are never read or copied.
type chunkCursor struct {
	data  []byte
	off   int // offset of the next chunk's length field
	limit int // scanning stops once off reaches this
}

// newCursor positions a cursor on the first chunk, after the PNG signature.
// ok is false when the buffer does not start with one.
func newCursor(data []byte, limit int) (chunkCursor, bool) {
	if len(data) < container.PNGSignatureSize {
		return chunkCursor{}, false
	}
	for i, b := range container.PNGSignature {
		if data[i] != b {
			return chunkCursor{}, false
		}
	}
	return chunkCursor{data: data, off: container.PNGSignatureSize, limit: limit}, true
}

// next decodes the chunk header at the cursor and advances past the chunk.
// ok is false once the stream or the scan limit is exhausted.
func (c *chunkCursor) next() (chunk pngChunk, ok bool, err error) {
	if c.off >= len(c.data) || c.off >= c.limit {
		return pngChunk{}, false, nil
	}
	if c.off+container.PNGChunkHeaderSize > len(c.data) {
		return pngChunk{}, false, fmt.Errorf("%w: chunk header at offset %d overruns buffer", ErrTruncated, c.off)
	}

	length := binary.BigEndian.Uint32(c.data[c.off : c.off+4])
	if length > container.MaxPNGChunkLength {
		return pngChunk{}, false, fmt.Errorf("%w: chunk length 0x%08X at offset %d", ErrMalformedChunk, length, c.off)
	}
	tag := binary.BigEndian.Uint32(c.data[c.off+4 : c.off+8])

	payloadStart := c.off + container.PNGChunkHeaderSize
	end := payloadStart + int(length) + container.PNGChunkCRCSize
	if end > len(c.data) {
		return pngChunk{}, false, fmt.Errorf("%w: %s chunk at offset %d claims %d bytes, %d remain",
			ErrTruncated, container.PNGTagString(tag), c.off, length, len(c.data)-payloadStart)
	}

	c.off = end
	return pngChunk{tag: tag, length: int(length), payloadStart: payloadStart}, true, nil
}

// IsAnimated reports whether data is an animated PNG: a PNG whose animation
// control chunk precedes its first image-data chunk. The scan is bounded, so
// a non-PNG, truncated, or giant buffer simply reports false.
func IsAnimated(data []byte) bool {
	limit := min(len(data), detectScanLimit)
	cur, ok := newCursor(data, limit)
	if !ok {
		return false
	}
	for {
		c, ok, err := cur.next()
		if err != nil || !ok {
			return false
		}
		switch c.tag {
		case container.TagACTL:
			return true
		case container.TagIDAT:
			return false
		}
	}
}

// findChunk scans the whole chunk list for the first chunk with the given tag.
func findChunk(data []byte, tag uint32) (pngChunk, error) {
	cur, ok := newCursor(data, len(data))
	if !ok {
		return pngChunk{}, fmt.Errorf("%w: %s", ErrChunkNotFound, container.PNGTagString(tag))
	}
	for {
		c, ok, err := cur.next()
		if err != nil {
			return pngChunk{}, err
		}
		if !ok {
			return pngChunk{}, fmt.Errorf("%w: %s", ErrChunkNotFound, container.PNGTagString(tag))
		}
		if c.tag == tag {
			return c, nil
		}
	}
}

// Info holds the animation-control parameters of an animated PNG.
type Info struct {
	NumFrames int    // sub-frames participating in the animation
	NumPlays  uint32 // play count; 0 plays forever
}

// ReadInfo parses the animation control chunk. It returns ErrChunkNotFound
// for static PNGs and non-PNG buffers.
func ReadInfo(data []byte) (Info, error) {
	c, err := findChunk(data, container.TagACTL)
	if err != nil {
		return Info{}, err
	}
	if c.length < container.ACTLPayloadSize {
		return Info{}, fmt.Errorf("%w: acTL payload is %d bytes, want %d", ErrMalformedChunk, c.length, container.ACTLPayloadSize)
	}
	p := data[c.payloadStart:]
	return Info{
		NumFrames: int(binary.BigEndian.Uint32(p[0:4])),
		NumPlays:  binary.BigEndian.Uint32(p[4:8]),
	}, nil
}
