// Package webpmux assembles and inspects animated WebP containers.
//
// The muxer repackages independently encoded single-image WebP files into
// one animation: a VP8X extended header, an ANIM chunk carrying the loop
// count and background color, and one ANMF chunk per frame wrapping that
// frame's ALPH and VP8/VP8L payloads. The demuxer parses a container back
// into its frames for inspection and verification. Neither side touches
// pixel data; encoding and decoding of the frames themselves live elsewhere.
package webpmux

import (
	"errors"

	"github.com/stillmotion/animpack/internal/container"
)

// ChunkID identifies a RIFF chunk type as a little-endian FourCC.
type ChunkID = uint32

// Chunk FourCC values, re-exported for callers that inspect containers.
var (
	FourCCRIFF ChunkID = container.FourCCRIFF
	FourCCWEBP ChunkID = container.FourCCWEBP
	FourCCVP8  ChunkID = container.FourCCVP8
	FourCCVP8L ChunkID = container.FourCCVP8L
	FourCCVP8X ChunkID = container.FourCCVP8X
	FourCCALPH ChunkID = container.FourCCALPH
	FourCCANIM ChunkID = container.FourCCANIM
	FourCCANMF ChunkID = container.FourCCANMF
	FourCCICCP ChunkID = container.FourCCICCP
	FourCCEXIF ChunkID = container.FourCCEXIF
	FourCCXMP  ChunkID = container.FourCCXMP
)

var (
	ErrInvalidChunkHeader = errors.New("webpmux: invalid chunk header")
	ErrChunkTooLarge      = errors.New("webpmux: chunk size exceeds format limits")
)

// Chunk is a parsed RIFF chunk.
type Chunk struct {
	ID   ChunkID
	Size uint32 // declared payload size, excluding any padding byte
	Data []byte // payload, without the padding byte
}

// nextChunk parses the chunk starting at data[off:] and returns it together
// with the offset of the following chunk (padding included). A header or
// payload running past the end of data is an error.
func nextChunk(data []byte, off int) (Chunk, int, error) {
	if off < 0 || off+container.ChunkHeaderSize > len(data) {
		return Chunk{}, 0, ErrInvalidChunkHeader
	}
	id, size, err := container.ReadChunkHeader(data[off:])
	if err != nil {
		// Length is already checked, so only an oversized declared payload
		// reaches this point.
		return Chunk{}, 0, ErrChunkTooLarge
	}

	payloadStart := off + container.ChunkHeaderSize
	payloadEnd := payloadStart + int(size)
	if payloadEnd > len(data) {
		return Chunk{}, 0, ErrInvalidChunkHeader
	}

	next := payloadStart + int(container.PaddedSize(size))
	if next > len(data) {
		// Odd-sized final chunk may legally omit its padding byte.
		next = len(data)
	}
	return Chunk{ID: id, Size: size, Data: data[payloadStart:payloadEnd]}, next, nil
}

// writeChunkHeader writes a FourCC and payload size into buf[0:8].
func writeChunkHeader(buf []byte, id ChunkID, size uint32) {
	container.PutLE32(buf[0:4], id)
	container.PutLE32(buf[4:8], size)
}

// putLE24 writes a 24-bit little-endian value into buf[0:3].
func putLE24(buf []byte, v int) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
}

// getLE24 reads a 24-bit little-endian value from buf[0:3].
func getLE24(buf []byte) int {
	return int(buf[0]) | int(buf[1])<<8 | int(buf[2])<<16
}
