package apng

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/stillmotion/animpack/internal/container"
)

// SetLoopCount returns a copy of data with the play count of its animation
// control chunk set to loops (0 plays forever) and the chunk CRC recomputed.
// Every other byte is preserved exactly, so the image data never has to be
// re-encoded. A buffer without an acTL chunk, such as a static PNG, is
// returned unchanged: there is nothing to patch and the file is already
// valid. The input slice itself is never modified.
func SetLoopCount(data []byte, loops uint32) ([]byte, error) {
	c, err := findChunk(data, container.TagACTL)
	if err != nil {
		if errors.Is(err, ErrChunkNotFound) {
			return data, nil
		}
		return nil, err
	}
	if c.length < container.ACTLPayloadSize {
		return nil, fmt.Errorf("%w: acTL payload is %d bytes, want %d", ErrMalformedChunk, c.length, container.ACTLPayloadSize)
	}

	out := make([]byte, len(data))
	copy(out, data)

	// acTL payload is num_frames followed by num_plays, both uint32.
	payload := out[c.payloadStart : c.payloadStart+c.length]
	binary.BigEndian.PutUint32(payload[4:8], loops)
	crc := container.ChunkCRC(container.TagACTL, payload)
	binary.BigEndian.PutUint32(out[c.payloadStart+c.length:], crc)
	return out, nil
}
