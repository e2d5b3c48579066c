package animpack

import (
	"errors"
	"fmt"
	"image"
)

// Errors returned by sequence and composition operations.
var (
	// ErrNoFrames is returned when an operation needs at least one frame.
	ErrNoFrames = errors.New("animpack: sequence has no frames")

	// ErrFrameRange is returned for an out-of-range frame index.
	ErrFrameRange = errors.New("animpack: frame index out of range")

	// ErrNilImage is returned when a nil source image is supplied.
	ErrNilImage = errors.New("animpack: nil image")

	// ErrCanvasSize is returned for non-positive canvas dimensions.
	ErrCanvasSize = errors.New("animpack: invalid canvas dimensions")

	// ErrInvalidTransform is returned for a transform whose scale is not
	// positive.
	ErrInvalidTransform = errors.New("animpack: invalid transform")
)

// Sequence is the ordered frame list of one animation. Order is both
// timeline order and compositing order. The first frame is the base frame:
// it fixes the canvas size and always renders with the identity transform,
// which the sequence re-asserts after every mutation. A Sequence is not
// safe for concurrent use.
type Sequence struct {
	frames []*Frame
}

// NewSequence returns an empty sequence.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Len returns the number of frames.
func (s *Sequence) Len() int { return len(s.frames) }

// Frame returns the frame at index i.
func (s *Sequence) Frame(i int) (*Frame, error) {
	if i < 0 || i >= len(s.frames) {
		return nil, fmt.Errorf("%w: %d of %d", ErrFrameRange, i, len(s.frames))
	}
	return s.frames[i], nil
}

// Frames returns the frames in order. The slice is a copy; the frames are
// shared.
func (s *Sequence) Frames() []*Frame {
	out := make([]*Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

// BaseWidth returns the canvas width, taken from the base frame. It is 0
// for an empty sequence.
func (s *Sequence) BaseWidth() int {
	if len(s.frames) == 0 {
		return 0
	}
	return s.frames[0].naturalWidth
}

// BaseHeight returns the canvas height, taken from the base frame. It is 0
// for an empty sequence.
func (s *Sequence) BaseHeight() int {
	if len(s.frames) == 0 {
		return 0
	}
	return s.frames[0].naturalHeight
}

// Append adds f to the end of the sequence.
func (s *Sequence) Append(f *Frame) {
	s.frames = append(s.frames, f)
	s.enforceBaseFrame()
}

// Insert places f at index i, shifting later frames right. i may equal
// Len(), which appends.
func (s *Sequence) Insert(i int, f *Frame) error {
	if i < 0 || i > len(s.frames) {
		return fmt.Errorf("%w: %d of %d", ErrFrameRange, i, len(s.frames))
	}
	s.frames = append(s.frames, nil)
	copy(s.frames[i+1:], s.frames[i:])
	s.frames[i] = f
	s.enforceBaseFrame()
	return nil
}

// Remove deletes and returns the frame at index i. Removing the base frame
// promotes the next frame to base.
func (s *Sequence) Remove(i int) (*Frame, error) {
	if i < 0 || i >= len(s.frames) {
		return nil, fmt.Errorf("%w: %d of %d", ErrFrameRange, i, len(s.frames))
	}
	f := s.frames[i]
	s.frames = append(s.frames[:i], s.frames[i+1:]...)
	s.enforceBaseFrame()
	return f, nil
}

// Move relocates the frame at index from to index to, shifting the frames
// in between by one position.
func (s *Sequence) Move(from, to int) error {
	n := len(s.frames)
	if from < 0 || from >= n {
		return fmt.Errorf("%w: %d of %d", ErrFrameRange, from, n)
	}
	if to < 0 || to >= n {
		return fmt.Errorf("%w: %d of %d", ErrFrameRange, to, n)
	}
	if from == to {
		return nil
	}
	f := s.frames[from]
	if from < to {
		copy(s.frames[from:], s.frames[from+1:to+1])
	} else {
		copy(s.frames[to+1:], s.frames[to:from])
	}
	s.frames[to] = f
	s.enforceBaseFrame()
	return nil
}

// Clear removes every frame.
func (s *Sequence) Clear() {
	s.frames = nil
}

// enforceBaseFrame pins the base frame to the identity transform. Whatever
// transform a frame carried while it sat deeper in the sequence is
// discarded the moment it becomes the base.
func (s *Sequence) enforceBaseFrame() {
	if len(s.frames) > 0 {
		s.frames[0].Transform = Identity()
	}
}

// SmartAlign rescales every non-base frame so its source fully covers the
// canvas: the larger of the two per-axis ratios wins and the overflow on
// the other axis is cropped. Offsets and rotation are left untouched.
func (s *Sequence) SmartAlign() {
	if len(s.frames) < 2 {
		return
	}
	bw := float64(s.BaseWidth())
	bh := float64(s.BaseHeight())
	for _, f := range s.frames[1:] {
		if f.naturalWidth <= 0 || f.naturalHeight <= 0 {
			continue
		}
		f.Transform.Scale = max(bw/float64(f.naturalWidth), bh/float64(f.naturalHeight))
	}
}

// Compose flattens the frame at index i to a full-canvas RGBA still. The
// base frame composes with the identity transform regardless of its stored
// transform.
func (s *Sequence) Compose(i int) (*image.NRGBA, error) {
	if len(s.frames) == 0 {
		return nil, ErrNoFrames
	}
	if i < 0 || i >= len(s.frames) {
		return nil, fmt.Errorf("%w: %d of %d", ErrFrameRange, i, len(s.frames))
	}
	f := s.frames[i]
	t := f.Transform
	if i == 0 {
		t = Identity()
	}
	return Compose(f.img, t, s.BaseWidth(), s.BaseHeight())
}

// ComposeAll flattens every frame in order, each onto a fresh canvas.
func (s *Sequence) ComposeAll() ([]*image.NRGBA, error) {
	if len(s.frames) == 0 {
		return nil, ErrNoFrames
	}
	out := make([]*image.NRGBA, len(s.frames))
	for i := range s.frames {
		img, err := s.Compose(i)
		if err != nil {
			return nil, err
		}
		out[i] = img
	}
	return out, nil
}
