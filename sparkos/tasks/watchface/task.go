package watchface

import (
	"image"
	"sort"

	"blotch/hal"
	logclient "blotch/sparkos/client/logger"
	timeclient "blotch/sparkos/client/time"
	"blotch/sparkos/kernel"
	"blotch/sparkos/proto"
	"blotch/sparkos/ui"
)

// DefaultMessageKeys maps companion message keys to option names.
func DefaultMessageKeys() map[uint32]string {
	return map[uint32]string{
		10000: OptBackgroundColor,
		10001: OptPrimaryColor,
		10002: OptSecondaryColor,
		10003: OptHighlightColor,
		10004: OptUnderlineColor,
		10005: OptTimeFontChoice,
	}
}

// Config tunes the watchface task.
type Config struct {
	// Pad prefixes 12-hour values below 10; 0 disables padding.
	Pad       byte
	SplitDate bool

	// MessageKeys maps companion keys to option names; nil selects
	// DefaultMessageKeys.
	MessageKeys map[uint32]string
	Store       StoreOptions
}

// DefaultConfig pads 12-hour values with a space and renders the date on one line.
func DefaultConfig() Config {
	return Config{Pad: ' '}
}

// Caps are the endpoints the task talks to. Endpoint needs send and receive
// rights; the others need send rights.
type Caps struct {
	Endpoint kernel.Capability
	Time     kernel.Capability
	UI       kernel.Capability
	Inbox    kernel.Capability
	Log      kernel.Capability
}

// subscription routes one message kind to its handler. request registers the
// task with the owning service and is retried until it succeeds.
type subscription struct {
	name    string
	kind    proto.Kind
	request func(ctx *kernel.Context) kernel.SendResult
	handle  func(payload []byte)
	active  bool
	failed  bool
}

type state struct {
	store    *Store
	engine   Engine
	refresh  *Refresher
	settings DisplaySettings

	win       *ui.Window
	timeL     *ui.TextLayer
	dateL     *ui.TextLayer
	suffixL   *ui.TextLayer
	week      [7]*ui.TextLayer
	underline *ui.RectLayer

	subs   []*subscription
	closed bool
}

// Task is the watchface as a kernel task.
type Task struct {
	disp  hal.Display
	clock hal.Clock
	p     Persister
	caps  Caps
	cfg   Config

	ctx *kernel.Context
	st  *state
}

// New returns the watchface task. clock may be nil; it only seeds the first
// frame before the time service reports.
func New(disp hal.Display, clock hal.Clock, p Persister, caps Caps, cfg Config) *Task {
	if cfg.MessageKeys == nil {
		cfg.MessageKeys = DefaultMessageKeys()
	}
	return &Task{disp: disp, clock: clock, p: p, caps: caps, cfg: cfg}
}

// Settings returns the settings in effect, or false before the first step.
func (t *Task) Settings() (DisplaySettings, bool) {
	if t.st == nil {
		return DisplaySettings{}, false
	}
	return t.st.settings, true
}

// Cache returns the refresher's render cache, or false before the first step.
func (t *Task) Cache() (RenderCache, bool) {
	if t.st == nil || t.st.refresh == nil {
		return RenderCache{}, false
	}
	return t.st.refresh.Cache(), true
}

func (t *Task) logf(format string, args ...any) {
	if t.ctx == nil {
		return
	}
	logclient.Logf(t.ctx, t.caps.Log, "watchface: "+format, args...)
}

func (t *Task) Step(ctx *kernel.Context) {
	t.ctx = ctx
	defer func() { t.ctx = nil }()

	if t.st == nil {
		t.init()
	}
	st := t.st
	if st.closed {
		for {
			if _, ok := ctx.Recv(t.caps.Endpoint); !ok {
				break
			}
		}
		ctx.BlockOn(t.caps.Endpoint)
		return
	}

	waiting := t.subscribe(ctx)

	// Only a write that failed before this step is retried here.
	retry := st.store.Pending()
	handled := 0
	for {
		msg, ok := ctx.Recv(t.caps.Endpoint)
		if !ok {
			break
		}
		handled++
		if proto.Kind(msg.Kind) == proto.MsgAppShutdown {
			t.teardown()
			ctx.BlockOn(t.caps.Endpoint)
			return
		}
		t.dispatch(proto.Kind(msg.Kind), msg.Payload())
	}

	if retry && handled > 0 && st.store.Pending() {
		if err := st.store.Flush(); err != nil {
			t.logf("flush settings err=%v", err)
		}
	}

	t.render()

	if waiting {
		ctx.BlockOnTick()
		return
	}
	ctx.BlockOn(t.caps.Endpoint)
}

func (t *Task) dispatch(kind proto.Kind, payload []byte) {
	if kind == proto.MsgError {
		code, ref, _, ok := proto.DecodeErrorPayload(payload)
		if ok {
			t.logf("service error code=%s ref=%s", code, ref)
		}
		return
	}
	for _, sub := range t.st.subs {
		if sub.kind == kind {
			sub.handle(payload)
			return
		}
	}
}

// subscribe issues outstanding subscription requests and reports whether
// any must be retried.
func (t *Task) subscribe(ctx *kernel.Context) bool {
	waiting := false
	for _, sub := range t.st.subs {
		if sub.active || sub.failed {
			continue
		}
		switch res := sub.request(ctx); res {
		case kernel.SendOK:
			sub.active = true
		case kernel.SendErrQueueFull:
			waiting = true
		default:
			sub.failed = true
			t.logf("subscribe %s err=%s", sub.name, res)
		}
	}
	return waiting
}

func (t *Task) init() {
	st := &state{}
	t.st = st

	st.store = NewStore(t.p, t.cfg.Store)
	settings, err := st.store.Load()
	if err != nil {
		t.logf("load settings err=%v", err)
	}
	st.settings = settings

	st.win = ui.NewWindow(settings.Background)
	st.timeL = ui.NewTextLayer(image.Rectangle{}, TimeFont(settings.TimeFont))
	st.timeL.SetAlignment(ui.AlignRight)
	st.win.Add(st.timeL)

	st.dateL = ui.NewTextLayer(image.Rectangle{}, dateFont)
	st.dateL.SetAlignment(ui.AlignRight)
	st.win.Add(st.dateL)

	el := Elements{Window: st.win, Time: st.timeL, Date: st.dateL}
	if t.cfg.SplitDate {
		st.suffixL = ui.NewTextLayer(image.Rectangle{}, dateFont)
		st.suffixL.SetAlignment(ui.AlignRight)
		st.win.Add(st.suffixL)
		el.DateSuffix = st.suffixL
	}

	for i := range st.week {
		l := ui.NewTextLayer(image.Rectangle{}, weekFont)
		l.SetAlignment(ui.AlignCenter)
		l.SetText(WeekdayLetters[i])
		st.win.Add(l)
		st.week[i] = l
		el.Week[i] = l
	}

	st.underline = ui.NewRectLayer(image.Rectangle{}, settings.Highlight)
	st.win.Add(st.underline)
	el.Underline = st.underline

	st.refresh = NewRefresher(el, t.cfg.Pad, TimeFont)

	bounds := image.Rectangle{}
	if t.disp != nil {
		if area := t.disp.Unobstructed(); area != nil {
			bounds = area.Bounds()
		} else if fb := t.disp.Framebuffer(); fb != nil {
			bounds = image.Rect(0, 0, fb.Width(), fb.Height())
		}
	}
	layout, _ := st.engine.Apply(bounds)

	if t.clock != nil {
		st.refresh.Refresh(settings, Sample(t.clock.Now()), layout, t.clock.Is24Hour())
	} else {
		st.refresh.Resync(settings)
		st.refresh.ApplyLayout(layout)
	}

	reply := t.caps.Endpoint
	st.subs = []*subscription{
		{
			name: "time",
			kind: proto.MsgTick,
			request: func(ctx *kernel.Context) kernel.SendResult {
				return timeclient.Subscribe(ctx, t.caps.Time, reply, proto.MinuteUnit)
			},
			handle: t.onTick,
		},
		{
			name: "ui",
			kind: proto.MsgUnobstructedChange,
			request: func(ctx *kernel.Context) kernel.SendResult {
				return ctx.SendToCapResult(t.caps.UI, uint16(proto.MsgUnobstructedSubscribe), nil, reply.Restrict(kernel.RightSend))
			},
			handle: t.onBoundsChange,
		},
		{
			name: "inbox",
			kind: proto.MsgAppMessage,
			request: func(ctx *kernel.Context) kernel.SendResult {
				return ctx.SendToCapResult(t.caps.Inbox, uint16(proto.MsgAppMessageSubscribe), nil, reply.Restrict(kernel.RightSend))
			},
			handle: t.onAppMessage,
		},
	}
}

func (t *Task) onTick(payload []byte) {
	tick, ok := proto.DecodeTickPayload(payload)
	if !ok {
		return
	}
	t.st.refresh.Update(Sample(tick.Time()), tick.Clock24)
}

func (t *Task) onBoundsChange(payload []byte) {
	bounds, ok := proto.DecodeRectPayload(payload)
	if !ok {
		return
	}
	layout, changed := t.st.engine.Apply(bounds)
	if !changed {
		return
	}
	t.st.refresh.ApplyLayout(layout)
}

func (t *Task) onAppMessage(payload []byte) {
	msg, err := proto.DecodeAppMessage(payload)
	if err != nil {
		t.logf("bad app message err=%v", err)
		return
	}
	partial := make(map[string]int32, len(msg))
	keys := make([]uint32, 0, len(msg))
	for k := range msg {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		if name, ok := t.cfg.MessageKeys[k]; ok {
			partial[name] = msg[k]
		}
	}

	settings, changed, err := t.st.store.Apply(partial)
	if err != nil {
		t.logf("persist settings err=%v", err)
	}
	if !changed {
		return
	}
	t.st.settings = settings
	t.st.refresh.Resync(settings)
	t.logf("settings changed bg=%06x primary=%06x secondary=%06x highlight=%06x font=%s",
		HexFromColor(settings.Background), HexFromColor(settings.Primary),
		HexFromColor(settings.Secondary), HexFromColor(settings.Highlight), settings.TimeFont)
}

func (t *Task) render() {
	if t.disp == nil {
		return
	}
	fb := t.disp.Framebuffer()
	if fb == nil {
		return
	}
	if _, ok := t.st.win.Render(fb); ok {
		_ = fb.Present()
	}
}

func (t *Task) teardown() {
	st := t.st
	if st.closed {
		return
	}
	if err := st.store.Flush(); err != nil {
		t.logf("flush settings err=%v", err)
	}
	st.win.RemoveAll()
	st.timeL, st.dateL, st.suffixL, st.underline = nil, nil, nil, nil
	st.week = [7]*ui.TextLayer{}
	st.closed = true
	t.logf("shutdown")
}
