//go:build !tinygo

package hal

import (
	"fmt"
	"image"
	"image/png"
	"io"
)

// SnapshotPNG encodes the host framebuffer as a PNG image.
func SnapshotPNG(h HAL, w io.Writer) error {
	hh, ok := h.(*hostHAL)
	if !ok {
		return fmt.Errorf("snapshot: %w", ErrNotImplemented)
	}
	img := image.NewRGBA(image.Rect(0, 0, hh.fb.width, hh.fb.height))
	hh.fb.rgba(img)
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("snapshot: encode png: %w", err)
	}
	return nil
}
