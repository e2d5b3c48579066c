package container

import (
	"encoding/binary"
	"testing"
)

func TestParseRIFFHeader_Valid(t *testing.T) {
	data := make([]byte, 20)
	binary.LittleEndian.PutUint32(data[0:4], FourCCRIFF)
	binary.LittleEndian.PutUint32(data[4:8], 100) // file size
	binary.LittleEndian.PutUint32(data[8:12], FourCCWEBP)

	hdr, n, err := ParseRIFFHeader(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != RIFFHeaderSize {
		t.Fatalf("consumed %d bytes, want %d", n, RIFFHeaderSize)
	}
	if hdr.FileSize != 100 {
		t.Fatalf("file size = %d, want 100", hdr.FileSize)
	}
}

func TestParseRIFFHeader_TooShort(t *testing.T) {
	_, _, err := ParseRIFFHeader([]byte{0, 1, 2})
	if err != ErrTruncated {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestParseRIFFHeader_BadRIFF(t *testing.T) {
	data := make([]byte, 12)
	copy(data[0:4], "JUNK")
	_, _, err := ParseRIFFHeader(data)
	if err != ErrInvalidRIFF {
		t.Fatalf("expected ErrInvalidRIFF, got %v", err)
	}
}

func TestParseRIFFHeader_BadWEBP(t *testing.T) {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], FourCCRIFF)
	binary.LittleEndian.PutUint32(data[4:8], 100)
	copy(data[8:12], "JUNK")
	_, _, err := ParseRIFFHeader(data)
	if err != ErrInvalidWebP {
		t.Fatalf("expected ErrInvalidWebP, got %v", err)
	}
}

func TestParseRIFFHeader_SizeTooSmall(t *testing.T) {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], FourCCRIFF)
	binary.LittleEndian.PutUint32(data[4:8], 4) // below minimum chunk header
	binary.LittleEndian.PutUint32(data[8:12], FourCCWEBP)
	_, _, err := ParseRIFFHeader(data)
	if err != ErrInvalidRIFF {
		t.Fatalf("expected ErrInvalidRIFF, got %v", err)
	}
}

func TestReadChunkHeader(t *testing.T) {
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data[0:4], FourCCVP8)
	binary.LittleEndian.PutUint32(data[4:8], 42)

	fourcc, size, err := ReadChunkHeader(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fourcc != FourCCVP8 {
		t.Fatalf("fourcc = 0x%08x, want VP8", fourcc)
	}
	if size != 42 {
		t.Fatalf("size = %d, want 42", size)
	}
}

func TestReadChunkHeader_Truncated(t *testing.T) {
	_, _, err := ReadChunkHeader([]byte{1, 2, 3})
	if err != ErrTruncated {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestPaddedSize(t *testing.T) {
	tests := []struct {
		in, want uint32
	}{
		{0, 0},
		{1, 2},
		{2, 2},
		{3, 4},
		{100, 100},
		{101, 102},
	}
	for _, tt := range tests {
		got := PaddedSize(tt.in)
		if got != tt.want {
			t.Errorf("PaddedSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFourCCString(t *testing.T) {
	if s := FourCCString(FourCCVP8); s != "VP8 " {
		t.Fatalf("FourCCString(VP8) = %q, want %q", s, "VP8 ")
	}
	if s := FourCCString(FourCCVP8L); s != "VP8L" {
		t.Fatalf("FourCCString(VP8L) = %q, want %q", s, "VP8L")
	}
}
