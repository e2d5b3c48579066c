// Package animpack assembles animated images from ordered still frames.
//
// The model is a Sequence of frames. The first frame is the base frame: it
// fixes the canvas size and always renders untransformed. Every later frame
// carries a Transform that pans, rotates and scales its source image onto
// that canvas. Composition flattens one frame at a time to a full-canvas
// RGBA still, and the export calls pack the flattened stills into an
// animated container.
//
// The package supports:
//   - Frame import from PNG, JPEG, GIF and WebP stills
//   - Exploding an animated PNG into one frame per sub-frame
//   - Affine placement (pan, clockwise rotation, uniform scale)
//   - Cover-fit alignment of frames whose size differs from the canvas
//   - Animated WebP, animated PNG and GIF export
//
// Basic usage:
//
//	seq := animpack.NewSequence()
//	frames, err := animpack.ImportBytes(data, 100)
//	if err != nil {
//		return err
//	}
//	for _, f := range frames {
//		seq.Append(f)
//	}
//	out, err := seq.ExportWebP(animpack.WebPOptions{LoopCount: 0})
package animpack
