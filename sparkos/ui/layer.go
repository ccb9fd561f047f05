package ui

import (
	"image"
	"image/color"

	"tinygo.org/x/tinyfont"
)

// Layer is a rectangular element of a Window.
type Layer interface {
	Frame() image.Rectangle
	SetFrame(r image.Rectangle)
	SetHidden(hidden bool)
	MarkDirty()
	Dirty() bool

	draw(c *Canvas)
	state() *layerState
}

type layerState struct {
	frame  image.Rectangle
	drawn  image.Rectangle
	dirty  bool
	hidden bool
}

func (l *layerState) Frame() image.Rectangle { return l.frame }

// SetFrame moves the layer; both the old and new area are redrawn.
func (l *layerState) SetFrame(r image.Rectangle) {
	l.frame = r
	l.dirty = true
}

func (l *layerState) SetHidden(hidden bool) {
	l.hidden = hidden
	l.dirty = true
}

func (l *layerState) MarkDirty()         { l.dirty = true }
func (l *layerState) Dirty() bool        { return l.dirty }
func (l *layerState) state() *layerState { return l }

// Alignment is the horizontal placement of text within a TextLayer.
type Alignment uint8

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// TextLayer draws one line of text, vertically centered on the font's digit
// height, over whatever lies beneath it.
type TextLayer struct {
	layerState

	text  string
	font  tinyfont.Fonter
	fg    color.RGBA
	align Alignment
}

func NewTextLayer(frame image.Rectangle, font tinyfont.Fonter) *TextLayer {
	return &TextLayer{
		layerState: layerState{frame: frame, dirty: true},
		font:       font,
		fg:         color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
	}
}

func (t *TextLayer) SetText(s string) {
	t.text = s
	t.dirty = true
}

func (t *TextLayer) SetFont(f tinyfont.Fonter) {
	t.font = f
	t.dirty = true
}

func (t *TextLayer) SetTextColor(c color.RGBA) {
	t.fg = c
	t.dirty = true
}

func (t *TextLayer) SetAlignment(a Alignment) {
	t.align = a
	t.dirty = true
}

func (t *TextLayer) draw(c *Canvas) {
	if t.font == nil || t.text == "" {
		return
	}

	_, width := tinyfont.LineWidth(t.font, t.text)
	x := t.frame.Min.X
	switch t.align {
	case AlignCenter:
		x += (t.frame.Dx() - int(width)) / 2
	case AlignRight:
		x = t.frame.Max.X - int(width)
	}

	top, height := capMetrics(t.font)
	y := t.frame.Min.Y + (t.frame.Dy()-height)/2 - top

	prev := c.SetClip(c.Clip().Intersect(t.frame))
	tinyfont.WriteLine(c, t.font, int16(x), int16(y), t.text, t.fg)
	c.SetClip(prev)
}

// capMetrics returns the offset of the digit top from the baseline and the
// digit height.
func capMetrics(f tinyfont.Fonter) (top, height int) {
	info := f.GetGlyph('0').Info()
	if info.Height == 0 {
		return -int(f.GetYAdvance()), int(f.GetYAdvance())
	}
	return int(info.YOffset), int(info.Height)
}

// RectLayer fills its frame with a solid color.
type RectLayer struct {
	layerState
	fill color.RGBA
}

func NewRectLayer(frame image.Rectangle, fill color.RGBA) *RectLayer {
	return &RectLayer{layerState: layerState{frame: frame, dirty: true}, fill: fill}
}

func (r *RectLayer) SetFillColor(c color.RGBA) {
	r.fill = c
	r.dirty = true
}

func (r *RectLayer) draw(c *Canvas) {
	c.FillRect(r.frame, r.fill)
}
