package container

import (
	"encoding/binary"
	"errors"
)

// VP8X feature flags (from the first byte of VP8X chunk payload).
const (
	AnimationFlag uint32 = 0x00000002
	XMPFlag       uint32 = 0x00000004
	EXIFFlag      uint32 = 0x00000008
	AlphaFlag     uint32 = 0x00000010
	ICCPFlag      uint32 = 0x00000020
	AllValidFlags uint32 = 0x0000003e
)

// Common errors.
var (
	ErrInvalidRIFF = errors.New("container: invalid RIFF header")
	ErrInvalidWebP = errors.New("container: invalid WEBP signature")
	ErrTruncated   = errors.New("container: truncated data")
	ErrTooLarge    = errors.New("container: file too large")
)

// RIFFHeader holds the parsed RIFF container header.
type RIFFHeader struct {
	FileSize uint32 // total RIFF file size (excluding 8-byte RIFF header)
}

// ParseRIFFHeader validates and parses the 12-byte RIFF/WEBP header from data.
// Returns the header and the number of bytes consumed.
func ParseRIFFHeader(data []byte) (RIFFHeader, int, error) {
	if len(data) < RIFFHeaderSize {
		return RIFFHeader{}, 0, ErrTruncated
	}

	riffTag := binary.LittleEndian.Uint32(data[0:4])
	if riffTag != FourCCRIFF {
		return RIFFHeader{}, 0, ErrInvalidRIFF
	}

	fileSize := binary.LittleEndian.Uint32(data[4:8])
	if fileSize < ChunkHeaderSize {
		return RIFFHeader{}, 0, ErrInvalidRIFF
	}
	if fileSize > MaxChunkPayload {
		return RIFFHeader{}, 0, ErrTooLarge
	}

	webpTag := binary.LittleEndian.Uint32(data[8:12])
	if webpTag != FourCCWEBP {
		return RIFFHeader{}, 0, ErrInvalidWebP
	}

	return RIFFHeader{FileSize: fileSize}, RIFFHeaderSize, nil
}

// ReadChunkHeader reads a chunk's FourCC tag and payload size from data.
// Returns the fourcc, payload size, and bytes consumed (always 8).
func ReadChunkHeader(data []byte) (fourcc uint32, payloadSize uint32, err error) {
	if len(data) < ChunkHeaderSize {
		return 0, 0, ErrTruncated
	}
	fourcc = binary.LittleEndian.Uint32(data[0:4])
	payloadSize = binary.LittleEndian.Uint32(data[4:8])
	if payloadSize > MaxChunkPayload {
		return 0, 0, ErrTooLarge
	}
	return fourcc, payloadSize, nil
}

// PaddedSize returns the payload size padded to an even number of bytes,
// as required by the RIFF format.
func PaddedSize(size uint32) uint32 {
	return size + (size & 1)
}

// FourCCString returns a human-readable string for a FourCC value.
func FourCCString(fourcc uint32) string {
	b := [4]byte{
		byte(fourcc),
		byte(fourcc >> 8),
		byte(fourcc >> 16),
		byte(fourcc >> 24),
	}
	return string(b[:])
}
