package ui

import (
	"image"
	"image/color"

	"blotch/hal"

	"tinygo.org/x/drivers"
)

var _ drivers.Displayer = (*Canvas)(nil)

// Canvas adapts an RGB565 framebuffer to drivers.Displayer with a clip
// rectangle, so tinyfont can render into it.
type Canvas struct {
	fb   hal.Framebuffer
	clip image.Rectangle
}

// NewCanvas returns a canvas clipped to the whole framebuffer.
func NewCanvas(fb hal.Framebuffer) *Canvas {
	c := &Canvas{fb: fb}
	c.clip = c.Bounds()
	return c
}

// Bounds returns the framebuffer rectangle.
func (c *Canvas) Bounds() image.Rectangle {
	if c.fb == nil {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, c.fb.Width(), c.fb.Height())
}

// Clip returns the current clip rectangle.
func (c *Canvas) Clip() image.Rectangle { return c.clip }

// SetClip restricts drawing to r (intersected with the framebuffer) and
// returns the previous clip.
func (c *Canvas) SetClip(r image.Rectangle) image.Rectangle {
	prev := c.clip
	c.clip = r.Intersect(c.Bounds())
	return prev
}

func (c *Canvas) Size() (x, y int16) {
	if c.fb == nil {
		return 0, 0
	}
	return int16(c.fb.Width()), int16(c.fb.Height())
}

func (c *Canvas) SetPixel(x, y int16, col color.RGBA) {
	if c.fb == nil || c.fb.Format() != hal.PixelFormatRGB565 {
		return
	}
	if !image.Pt(int(x), int(y)).In(c.clip) {
		return
	}
	buf := c.fb.Buffer()
	off := int(y)*c.fb.StrideBytes() + int(x)*2
	if off < 0 || off+1 >= len(buf) {
		return
	}
	pixel := rgb565From888(col.R, col.G, col.B)
	buf[off] = byte(pixel)
	buf[off+1] = byte(pixel >> 8)
}

func (c *Canvas) Display() error { return nil }

// FillRect paints r (clipped) with col.
func (c *Canvas) FillRect(r image.Rectangle, col color.RGBA) {
	if c.fb == nil || c.fb.Format() != hal.PixelFormatRGB565 {
		return
	}
	r = r.Intersect(c.clip)
	if r.Empty() {
		return
	}
	buf := c.fb.Buffer()
	stride := c.fb.StrideBytes()
	pixel := rgb565From888(col.R, col.G, col.B)
	lo, hi := byte(pixel), byte(pixel>>8)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := y * stride
		for x := r.Min.X; x < r.Max.X; x++ {
			off := row + x*2
			if off < 0 || off+1 >= len(buf) {
				continue
			}
			buf[off] = lo
			buf[off+1] = hi
		}
	}
}

func rgb565From888(r, g, b uint8) uint16 {
	return uint16((uint16(r>>3)&0x1F)<<11 | (uint16(g>>2)&0x3F)<<5 | (uint16(b>>3) & 0x1F))
}
