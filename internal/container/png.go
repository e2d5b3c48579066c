package container

import (
	"encoding/binary"
	"hash/crc32"
)

// PNGSignature is the 8-byte magic at the start of every PNG file.
var PNGSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// PNG chunk layout sizes. Unlike RIFF, PNG chunks are big-endian and carry a
// trailing CRC instead of a pad byte.
const (
	PNGSignatureSize   = 8
	PNGChunkLengthSize = 4
	PNGChunkTagSize    = 4
	PNGChunkCRCSize    = 4
	PNGChunkHeaderSize = PNGChunkLengthSize + PNGChunkTagSize

	// ACTLPayloadSize is the fixed payload size of the animation control
	// chunk: a frame count followed by a play count, both uint32.
	ACTLPayloadSize = 8
)

// MaxPNGChunkLength is the largest payload length a conforming PNG chunk may
// declare (the length field must not have its high bit set).
const MaxPNGChunkLength = 1<<31 - 1

// PNGTag builds a big-endian chunk tag from four ASCII bytes.
func PNGTag(a, b, c, d byte) uint32 {
	return uint32(a)<<24 | uint32(b)<<16 | uint32(c)<<8 | uint32(d)
}

// PNG chunk tags relevant to animation control and detection.
var (
	TagIHDR = PNGTag('I', 'H', 'D', 'R')
	TagACTL = PNGTag('a', 'c', 'T', 'L')
	TagFCTL = PNGTag('f', 'c', 'T', 'L')
	TagFDAT = PNGTag('f', 'd', 'A', 'T')
	TagIDAT = PNGTag('I', 'D', 'A', 'T')
	TagIEND = PNGTag('I', 'E', 'N', 'D')
)

// PNGTagString returns a human-readable string for a PNG chunk tag.
func PNGTagString(tag uint32) string {
	b := [4]byte{
		byte(tag >> 24),
		byte(tag >> 16),
		byte(tag >> 8),
		byte(tag),
	}
	return string(b[:])
}

// ChunkCRC computes the CRC stored at the end of a PNG chunk: a CRC-32
// (IEEE polynomial) over the 4-byte tag followed by the payload. The length
// prefix and the stored CRC itself are excluded.
func ChunkCRC(tag uint32, payload []byte) uint32 {
	var t [PNGChunkTagSize]byte
	binary.BigEndian.PutUint32(t[:], tag)
	crc := crc32.Update(0, crc32.IEEETable, t[:])
	return crc32.Update(crc, crc32.IEEETable, payload)
}
