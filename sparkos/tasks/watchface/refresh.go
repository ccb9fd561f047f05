package watchface

import (
	"image"
	"image/color"

	"tinygo.org/x/tinyfont"
)

// TextElement is a text layer on screen (see ui.TextLayer).
type TextElement interface {
	SetFrame(r image.Rectangle)
	SetText(s string)
	SetTextColor(c color.RGBA)
	SetFont(f tinyfont.Fonter)
	MarkDirty()
}

// FillElement is a solid rectangle on screen (see ui.RectLayer).
type FillElement interface {
	SetFrame(r image.Rectangle)
	SetFillColor(c color.RGBA)
	MarkDirty()
}

// Surface is the window behind the elements (see ui.Window).
type Surface interface {
	SetBackgroundColor(c color.RGBA)
	MarkDirty()
}

// Elements are the on-screen targets of a Refresher. DateSuffix may be nil
// when the date is rendered on one line.
type Elements struct {
	Window     Surface
	Time       TextElement
	Date       TextElement
	DateSuffix TextElement
	Week       [7]TextElement
	Underline  FillElement
}

const unset = -1

// RenderCache remembers what the elements currently show.
type RenderCache struct {
	Hour    int
	Minute  int
	Day     int
	Month   int
	Weekday int
	Clock24 int

	Settings    DisplaySettings
	HasSettings bool

	Layout    LayoutRects
	HasLayout bool
}

func newRenderCache() RenderCache {
	return RenderCache{
		Hour:    unset,
		Minute:  unset,
		Day:     unset,
		Month:   unset,
		Weekday: unset,
		Clock24: unset,
	}
}

// Refresher applies settings, clock samples and layouts to Elements,
// touching only what changed.
type Refresher struct {
	el    Elements
	pad   byte
	fonts func(FontChoice) tinyfont.Fonter

	cache RenderCache
}

// NewRefresher returns a refresher with an unset cache, so the first update
// renders everything. fonts resolves the time font choice.
func NewRefresher(el Elements, pad byte, fonts func(FontChoice) tinyfont.Fonter) *Refresher {
	if fonts == nil {
		fonts = TimeFont
	}
	return &Refresher{el: el, pad: pad, fonts: fonts, cache: newRenderCache()}
}

// Cache returns a copy of the render cache.
func (r *Refresher) Cache() RenderCache { return r.cache }

func (r *Refresher) split() bool { return r.el.DateSuffix != nil }

// Update applies a clock sample. The time text is rewritten only when the
// hour, minute or clock style changed, the date only when the day or month
// changed. A weekday change recolors the old and new cells and moves the
// underline.
func (r *Refresher) Update(s ClockSample, clock24 bool) {
	c24 := 0
	if clock24 {
		c24 = 1
	}
	if s.Hour != r.cache.Hour || s.Minute != r.cache.Minute || c24 != r.cache.Clock24 {
		r.el.Time.SetText(FormatTime(s.Hour, s.Minute, ClockStyle{Use24h: clock24, Pad: r.pad}))
		r.cache.Hour, r.cache.Minute, r.cache.Clock24 = s.Hour, s.Minute, c24
	}

	if s.Day != r.cache.Day || int(s.Month) != r.cache.Month {
		if r.split() {
			r.el.Date.SetText(FormatMonth(s.Month))
			r.el.DateSuffix.SetText(FormatDaySuffix(s.Day))
		} else {
			r.el.Date.SetText(FormatDate(s.Month, s.Day))
		}
		r.cache.Day, r.cache.Month = s.Day, int(s.Month)
	}

	if s.Weekday != r.cache.Weekday && s.Weekday >= 0 && s.Weekday < 7 {
		if old := r.cache.Weekday; old >= 0 && old < 7 {
			r.el.Week[old].SetTextColor(r.cache.Settings.Secondary)
		}
		r.el.Week[s.Weekday].SetTextColor(r.cache.Settings.Highlight)
		r.cache.Weekday = s.Weekday
		r.anchorUnderline()
	}
}

func (r *Refresher) anchorUnderline() {
	if r.cache.HasLayout && r.cache.Weekday >= 0 {
		r.el.Underline.SetFrame(r.cache.Layout.Underline(r.cache.Weekday))
	}
	r.el.Underline.MarkDirty()
}

// Resync re-applies every color and font and marks every element dirty,
// whether or not anything differs.
func (r *Refresher) Resync(s DisplaySettings) {
	r.cache.Settings = s
	r.cache.HasSettings = true

	r.el.Window.SetBackgroundColor(s.Background)
	r.el.Window.MarkDirty()

	r.el.Time.SetTextColor(s.Primary)
	r.el.Time.SetFont(r.fonts(s.TimeFont))
	r.el.Time.MarkDirty()

	r.el.Date.SetTextColor(s.Secondary)
	r.el.Date.MarkDirty()
	if r.split() {
		r.el.DateSuffix.SetTextColor(s.Secondary)
		r.el.DateSuffix.MarkDirty()
	}

	for i, w := range r.el.Week {
		if i == r.cache.Weekday {
			w.SetTextColor(s.Highlight)
		} else {
			w.SetTextColor(s.Secondary)
		}
		w.MarkDirty()
	}

	r.el.Underline.SetFillColor(s.Highlight)
	r.el.Underline.MarkDirty()
}

// ApplyLayout moves every element to its frame in l and re-anchors the
// underline under the current weekday.
func (r *Refresher) ApplyLayout(l LayoutRects) {
	r.cache.Layout = l
	r.cache.HasLayout = true

	r.el.Time.SetFrame(l.Time)
	if r.split() {
		r.el.Date.SetFrame(l.DateMonth)
		r.el.DateSuffix.SetFrame(l.DateSuffix)
	} else {
		r.el.Date.SetFrame(l.Date)
	}
	for i, w := range r.el.Week {
		w.SetFrame(l.Week[i])
	}
	r.anchorUnderline()
}

// Refresh brings the elements in line with settings, sample and layout:
// a resync when the settings differ from the applied ones, a relayout when
// the bounds differ, then Update. Repeating a call changes nothing.
func (r *Refresher) Refresh(s DisplaySettings, sample ClockSample, l LayoutRects, clock24 bool) {
	if !r.cache.HasSettings || s != r.cache.Settings {
		r.Resync(s)
	}
	if !r.cache.HasLayout || !l.Bounds.Eq(r.cache.Layout.Bounds) {
		r.ApplyLayout(l)
	}
	r.Update(sample, clock24)
}
