package watchface

import (
	"fmt"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"tinygo.org/x/tinyfont"
)

type callLog struct{ calls []string }

func (l *callLog) add(format string, args ...any) { l.calls = append(l.calls, fmt.Sprintf(format, args...)) }
func (l *callLog) reset()                         { l.calls = nil }

type fakeText struct {
	name string
	log  *callLog

	frame image.Rectangle
	text  string
	color color.RGBA
	font  tinyfont.Fonter
}

func (f *fakeText) SetFrame(r image.Rectangle) { f.frame = r; f.log.add("%s.frame", f.name) }
func (f *fakeText) SetText(s string)           { f.text = s; f.log.add("%s.text=%s", f.name, s) }
func (f *fakeText) SetTextColor(c color.RGBA)  { f.color = c; f.log.add("%s.color", f.name) }
func (f *fakeText) SetFont(ft tinyfont.Fonter) { f.font = ft; f.log.add("%s.font", f.name) }
func (f *fakeText) MarkDirty()                 { f.log.add("%s.dirty", f.name) }

type fakeFill struct {
	log   *callLog
	frame image.Rectangle
	color color.RGBA
}

func (f *fakeFill) SetFrame(r image.Rectangle) { f.frame = r; f.log.add("underline.frame") }
func (f *fakeFill) SetFillColor(c color.RGBA)  { f.color = c; f.log.add("underline.color") }
func (f *fakeFill) MarkDirty()                 { f.log.add("underline.dirty") }

type fakeSurface struct {
	log *callLog
	bg  color.RGBA
}

func (f *fakeSurface) SetBackgroundColor(c color.RGBA) { f.bg = c; f.log.add("window.bg") }
func (f *fakeSurface) MarkDirty()                      { f.log.add("window.dirty") }

type fakeScreen struct {
	log       *callLog
	window    *fakeSurface
	time      *fakeText
	date      *fakeText
	suffix    *fakeText
	week      [7]*fakeText
	underline *fakeFill
}

func newFakeScreen(split bool) (*fakeScreen, Elements) {
	log := &callLog{}
	s := &fakeScreen{
		log:       log,
		window:    &fakeSurface{log: log},
		time:      &fakeText{name: "time", log: log},
		date:      &fakeText{name: "date", log: log},
		underline: &fakeFill{log: log},
	}
	el := Elements{Window: s.window, Time: s.time, Date: s.date, Underline: s.underline}
	if split {
		s.suffix = &fakeText{name: "suffix", log: log}
		el.DateSuffix = s.suffix
	}
	for i := range s.week {
		s.week[i] = &fakeText{name: fmt.Sprintf("week%d", i), log: log}
		el.Week[i] = s.week[i]
	}
	return s, el
}

var (
	sundayMorning = ClockSample{Hour: 9, Minute: 5, Day: 6, Month: time.October, Weekday: 0}
	fullBounds    = image.Rect(0, 0, 180, 180)
)

func TestRefreshTwiceIssuesNoCalls(t *testing.T) {
	screen, el := newFakeScreen(false)
	r := NewRefresher(el, ' ', nil)
	settings := DefaultSettings()
	layout := ComputeLayout(fullBounds)

	r.Refresh(settings, sundayMorning, layout, false)
	assert.NotEmpty(t, screen.log.calls)
	assert.Equal(t, " 9:05", screen.time.text)
	assert.Equal(t, "October 06", screen.date.text)
	assert.Equal(t, layout.Underline(0), screen.underline.frame)

	screen.log.reset()
	r.Refresh(settings, sundayMorning, layout, false)
	assert.Empty(t, screen.log.calls)
}

func TestUpdateMinuteOnlyTouchesTime(t *testing.T) {
	screen, el := newFakeScreen(false)
	r := NewRefresher(el, ' ', nil)
	r.Refresh(DefaultSettings(), sundayMorning, ComputeLayout(fullBounds), true)
	screen.log.reset()

	next := sundayMorning
	next.Minute = 6
	r.Update(next, true)
	assert.Equal(t, []string{"time.text=09:06"}, screen.log.calls)
}

func TestUpdateClockStyleRewritesTime(t *testing.T) {
	screen, el := newFakeScreen(false)
	r := NewRefresher(el, ' ', nil)
	r.Refresh(DefaultSettings(), sundayMorning, ComputeLayout(fullBounds), false)
	screen.log.reset()

	r.Update(sundayMorning, true)
	assert.Equal(t, []string{"time.text=09:05"}, screen.log.calls)
}

func TestUpdateNewDayMovesHighlight(t *testing.T) {
	screen, el := newFakeScreen(false)
	r := NewRefresher(el, ' ', nil)
	settings := DefaultSettings()
	settings.Secondary = ColorFromHex(0x00FF00)
	settings.Highlight = ColorFromHex(0xFF0000)
	layout := ComputeLayout(fullBounds)
	r.Refresh(settings, sundayMorning, layout, false)
	screen.log.reset()

	monday := ClockSample{Hour: 0, Minute: 0, Day: 7, Month: time.October, Weekday: 1}
	r.Update(monday, false)

	assert.Equal(t, []string{
		"time.text=12:00",
		"date.text=October 07",
		"week0.color",
		"week1.color",
		"underline.frame",
		"underline.dirty",
	}, screen.log.calls)
	assert.Equal(t, settings.Secondary, screen.week[0].color)
	assert.Equal(t, settings.Highlight, screen.week[1].color)
	assert.Equal(t, layout.Underline(1), screen.underline.frame)
}

func TestResyncDirtiesEverything(t *testing.T) {
	screen, el := newFakeScreen(false)
	r := NewRefresher(el, ' ', nil)
	settings := DefaultSettings()
	r.Refresh(settings, sundayMorning, ComputeLayout(fullBounds), false)
	screen.log.reset()

	r.Resync(settings)
	for _, name := range []string{"window", "time", "date", "week0", "week6", "underline"} {
		assert.Contains(t, screen.log.calls, name+".dirty")
	}
	assert.NotContains(t, screen.log.calls, "time.text= 9:05")
}

func TestRefreshWithNewSettingsResyncs(t *testing.T) {
	screen, el := newFakeScreen(false)
	r := NewRefresher(el, ' ', nil)
	settings := DefaultSettings()
	layout := ComputeLayout(fullBounds)
	r.Refresh(settings, sundayMorning, layout, false)

	settings.Highlight = ColorFromHex(0xFF0000)
	settings.TimeFont = FontAlt1
	r.Refresh(settings, sundayMorning, layout, false)

	assert.Equal(t, settings.Highlight, screen.week[0].color)
	assert.Equal(t, DefaultSettings().Secondary, screen.week[3].color)
	assert.Equal(t, settings.Highlight, screen.underline.color)
	assert.Equal(t, TimeFont(FontAlt1), screen.time.font)
	assert.Equal(t, settings.Highlight, r.Cache().Settings.Highlight)
}

func TestApplyLayoutReanchorsUnderline(t *testing.T) {
	screen, el := newFakeScreen(false)
	r := NewRefresher(el, ' ', nil)
	wed := sundayMorning
	wed.Weekday = 3
	r.Refresh(DefaultSettings(), wed, ComputeLayout(fullBounds), false)

	peek := ComputeLayout(image.Rect(0, 0, 180, 129))
	screen.log.reset()
	r.Refresh(DefaultSettings(), wed, peek, false)

	assert.Equal(t, peek.Time, screen.time.frame)
	assert.Equal(t, peek.Week[3], screen.week[3].frame)
	assert.Equal(t, peek.Underline(3), screen.underline.frame)
	assert.Contains(t, screen.log.calls, "underline.dirty")
	assert.NotContains(t, screen.log.calls, "window.dirty", "bounds change is not a resync")
}

func TestSplitDate(t *testing.T) {
	screen, el := newFakeScreen(true)
	r := NewRefresher(el, ' ', nil)
	layout := ComputeLayout(fullBounds)
	r.Refresh(DefaultSettings(), sundayMorning, layout, false)

	assert.Equal(t, "October", screen.date.text)
	assert.Equal(t, "6th", screen.suffix.text)
	assert.Equal(t, layout.DateMonth, screen.date.frame)
	assert.Equal(t, layout.DateSuffix, screen.suffix.frame)
}
