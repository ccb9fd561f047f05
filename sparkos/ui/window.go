package ui

import (
	"image"
	"image/color"

	"blotch/hal"
)

// Window is a background color plus a stack of layers drawn in order.
//
// Render repaints only the union of areas touched by dirty layers (their
// previous and current frames), or everything after MarkDirty.
type Window struct {
	bg     color.RGBA
	layers []Layer
	dirty  bool
}

func NewWindow(bg color.RGBA) *Window {
	return &Window{bg: bg, dirty: true}
}

func (w *Window) BackgroundColor() color.RGBA { return w.bg }

func (w *Window) SetBackgroundColor(c color.RGBA) {
	w.bg = c
	w.dirty = true
}

// MarkDirty forces a full repaint on the next Render.
func (w *Window) MarkDirty() { w.dirty = true }

// Add appends l on top of the existing layers.
func (w *Window) Add(l Layer) {
	w.layers = append(w.layers, l)
	l.MarkDirty()
}

// Remove detaches l; its area is repainted with the background.
func (w *Window) Remove(l Layer) {
	for i, cur := range w.layers {
		if cur != l {
			continue
		}
		w.layers = append(w.layers[:i], w.layers[i+1:]...)
		if !l.state().drawn.Empty() {
			w.dirty = true
		}
		return
	}
}

// RemoveAll detaches every layer and forces a full repaint.
func (w *Window) RemoveAll() {
	w.layers = nil
	w.dirty = true
}

// Damage returns the area the next Render would repaint.
func (w *Window) Damage(bounds image.Rectangle) image.Rectangle {
	if w.dirty {
		return bounds
	}
	var r image.Rectangle
	for _, l := range w.layers {
		st := l.state()
		if !st.dirty {
			continue
		}
		r = r.Union(st.drawn).Union(st.frame)
	}
	return r.Intersect(bounds)
}

// Render repaints damaged areas into fb and reports the repainted rectangle.
func (w *Window) Render(fb hal.Framebuffer) (image.Rectangle, bool) {
	if fb == nil {
		return image.Rectangle{}, false
	}
	c := NewCanvas(fb)
	damage := w.Damage(c.Bounds())
	if damage.Empty() {
		return image.Rectangle{}, false
	}

	c.SetClip(damage)
	c.FillRect(damage, w.bg)
	for _, l := range w.layers {
		st := l.state()
		st.dirty = false
		if st.hidden {
			st.drawn = image.Rectangle{}
			continue
		}
		st.drawn = st.frame
		if !st.frame.Overlaps(damage) {
			continue
		}
		l.draw(c)
	}
	w.dirty = false
	return damage, true
}
