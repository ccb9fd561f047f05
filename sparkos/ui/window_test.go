package ui

import (
	"encoding/binary"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/tinyfont/freesans"

	"blotch/hal"
)

var (
	black = color.RGBA{A: 0xFF}
	white = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	red   = color.RGBA{R: 0xFF, A: 0xFF}
	blue  = color.RGBA{B: 0xFF, A: 0xFF}
)

func pixel(fb hal.Framebuffer, x, y int) uint16 {
	off := y*fb.StrideBytes() + x*2
	return binary.LittleEndian.Uint16(fb.Buffer()[off:])
}

func setPixel(fb hal.Framebuffer, x, y int, v uint16) {
	off := y*fb.StrideBytes() + x*2
	binary.LittleEndian.PutUint16(fb.Buffer()[off:], v)
}

func rgb(c color.RGBA) uint16 { return rgb565From888(c.R, c.G, c.B) }

func TestFirstRenderPaintsEverything(t *testing.T) {
	fb := hal.NewFramebuffer(40, 30)
	w := NewWindow(blue)
	w.Add(NewRectLayer(image.Rect(5, 5, 10, 10), red))

	r, ok := w.Render(fb)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 40, 30), r)
	assert.Equal(t, rgb(blue), pixel(fb, 0, 0))
	assert.Equal(t, rgb(red), pixel(fb, 7, 7))

	_, ok = w.Render(fb)
	assert.False(t, ok, "nothing dirty")
}

func TestRenderOnlyDirtyRegion(t *testing.T) {
	fb := hal.NewFramebuffer(40, 30)
	w := NewWindow(black)
	a := NewRectLayer(image.Rect(0, 0, 10, 10), red)
	b := NewRectLayer(image.Rect(20, 0, 30, 10), red)
	w.Add(a)
	w.Add(b)
	_, ok := w.Render(fb)
	require.True(t, ok)

	const sentinel = 0x1234
	setPixel(fb, 25, 5, sentinel)
	setPixel(fb, 35, 25, sentinel)

	a.SetFillColor(white)
	r, ok := w.Render(fb)
	require.True(t, ok)
	assert.Equal(t, a.Frame(), r)
	assert.Equal(t, rgb(white), pixel(fb, 5, 5))
	assert.Equal(t, uint16(sentinel), pixel(fb, 25, 5), "clean layer untouched")
	assert.Equal(t, uint16(sentinel), pixel(fb, 35, 25), "background outside damage untouched")
}

func TestMoveRepaintsOldAndNewFrame(t *testing.T) {
	fb := hal.NewFramebuffer(40, 30)
	w := NewWindow(black)
	l := NewRectLayer(image.Rect(0, 0, 5, 5), red)
	w.Add(l)
	w.Render(fb)

	l.SetFrame(image.Rect(10, 10, 15, 15))
	r, ok := w.Render(fb)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 15, 15), r)
	assert.Equal(t, rgb(black), pixel(fb, 2, 2))
	assert.Equal(t, rgb(red), pixel(fb, 12, 12))
}

func TestHiddenLayerIsErased(t *testing.T) {
	fb := hal.NewFramebuffer(20, 20)
	w := NewWindow(black)
	l := NewRectLayer(image.Rect(0, 0, 5, 5), red)
	w.Add(l)
	w.Render(fb)

	l.SetHidden(true)
	_, ok := w.Render(fb)
	require.True(t, ok)
	assert.Equal(t, rgb(black), pixel(fb, 2, 2))
}

func TestTextStaysInsideFrame(t *testing.T) {
	fb := hal.NewFramebuffer(100, 60)
	w := NewWindow(black)
	frame := image.Rect(10, 10, 90, 40)
	tl := NewTextLayer(frame, &freesans.Bold12pt7b)
	tl.SetTextColor(white)
	tl.SetAlignment(AlignRight)
	tl.SetText("12:34")
	w.Add(tl)
	w.Render(fb)

	inside, outside := 0, 0
	for y := 0; y < fb.Height(); y++ {
		for x := 0; x < fb.Width(); x++ {
			if pixel(fb, x, y) != rgb(white) {
				continue
			}
			if image.Pt(x, y).In(frame) {
				inside++
			} else {
				outside++
			}
		}
	}
	assert.Greater(t, inside, 0)
	assert.Zero(t, outside)
}

func TestRemoveRepaints(t *testing.T) {
	fb := hal.NewFramebuffer(20, 20)
	w := NewWindow(black)
	l := NewRectLayer(image.Rect(0, 0, 5, 5), red)
	w.Add(l)
	w.Render(fb)

	w.Remove(l)
	_, ok := w.Render(fb)
	require.True(t, ok)
	assert.Equal(t, rgb(black), pixel(fb, 2, 2))
}
