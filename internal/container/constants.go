// Package container defines byte-level primitives shared by the animated
// image containers this module reads and writes: FourCC values, chunk layout
// sizes, and format limits for the little-endian RIFF framing of WebP files,
// plus chunk tags and CRC computation for the big-endian framing of PNG files.
package container

import "encoding/binary"

// FourCC creates a FourCC value from four bytes (little-endian).
func FourCC(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}

// Container FourCC values.
var (
	FourCCRIFF = FourCC('R', 'I', 'F', 'F')
	FourCCWEBP = FourCC('W', 'E', 'B', 'P')
	FourCCVP8  = FourCC('V', 'P', '8', ' ')
	FourCCVP8L = FourCC('V', 'P', '8', 'L')
	FourCCVP8X = FourCC('V', 'P', '8', 'X')
	FourCCALPH = FourCC('A', 'L', 'P', 'H')
	FourCCANIM = FourCC('A', 'N', 'I', 'M')
	FourCCANMF = FourCC('A', 'N', 'M', 'F')
	FourCCICCP = FourCC('I', 'C', 'C', 'P')
	FourCCEXIF = FourCC('E', 'X', 'I', 'F')
	FourCCXMP  = FourCC('X', 'M', 'P', ' ')
)

// VP8LMagicByte is the first byte of every VP8L bitstream.
const VP8LMagicByte = 0x2f

// Container structure sizes.
const (
	TagSize         = 4  // Size of a chunk tag (e.g. "VP8L")
	ChunkSizeBytes  = 4  // Size needed to store chunk's size
	ChunkHeaderSize = 8  // Size of a chunk header
	RIFFHeaderSize  = 12 // Size of the RIFF header ("RIFFnnnnWEBP")
	ANMFChunkSize   = 16 // Size of an ANMF chunk header
	ANIMChunkSize   = 6  // Size of an ANIM chunk payload
	VP8XChunkSize   = 10 // Size of a VP8X chunk payload
)

// Limits.
const (
	MaxCanvasSize   = 1 << 24         // 24-bit max for VP8X width/height
	MaxImageArea    = uint64(1) << 32 // 32-bit max for width x height
	MaxLoopCount    = 1 << 16
	MaxDuration     = 1 << 24
	MaxChunkPayload = ^uint32(0) - ChunkHeaderSize - 1
)

// ReadLE16 reads a little-endian uint16 from data.
func ReadLE16(data []byte) uint16 {
	return binary.LittleEndian.Uint16(data)
}

// ReadLE32 reads a little-endian uint32 from data.
func ReadLE32(data []byte) uint32 {
	return binary.LittleEndian.Uint32(data)
}

// PutLE16 writes a little-endian uint16 to data.
func PutLE16(data []byte, v uint16) {
	binary.LittleEndian.PutUint16(data, v)
}

// PutLE32 writes a little-endian uint32 to data.
func PutLE32(data []byte, v uint32) {
	binary.LittleEndian.PutUint32(data, v)
}
