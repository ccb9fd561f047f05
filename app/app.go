package app

import (
	"fmt"

	"blotch/hal"
	"blotch/sparkos/kernel"
	"blotch/sparkos/persist"
	"blotch/sparkos/proto"
	"blotch/sparkos/services/inbox"
	"blotch/sparkos/services/logger"
	timesvc "blotch/sparkos/services/time"
	"blotch/sparkos/services/ui"
	"blotch/sparkos/tasks/watchface"
)

// defaultStepBudget bounds task steps per host frame.
const defaultStepBudget = 256

type Config struct {
	Watchface watchface.Config
	Persist   persist.Options

	// StepBudget bounds kernel steps per Step call (0 selects a default).
	StepBudget int
}

// DefaultConfig returns the watchface defaults with persistence at the start
// of flash.
func DefaultConfig() Config {
	return Config{Watchface: watchface.DefaultConfig()}
}

// System is the kernel with the services and the watchface task.
type System struct {
	h      hal.HAL
	k      *kernel.Kernel
	ticks  <-chan uint64
	budget int

	faceEP kernel.Capability
	face   *watchface.Task
	kv     *persist.Store
}

// New wires the system on top of h. Nothing runs until Step.
func New(h hal.HAL, cfg Config) *System {
	installPanicHandler(h)

	k := kernel.New()
	s := &System{h: h, k: k, budget: cfg.StepBudget}
	if s.budget <= 0 {
		s.budget = defaultStepBudget
	}
	if ht := h.Time(); ht != nil {
		s.ticks = ht.Ticks()
	}

	rw := kernel.RightSend | kernel.RightRecv
	logEP := k.NewEndpoint(rw)
	timeEP := k.NewEndpoint(rw)
	uiEP := k.NewEndpoint(rw)
	inboxEP := k.NewEndpoint(rw)
	s.faceEP = k.NewEndpoint(rw)

	k.AddTask(logger.New(h.Logger(), logEP.Restrict(kernel.RightRecv)))
	k.AddTask(timesvc.New(h.Clock(), timeEP.Restrict(kernel.RightRecv)))
	k.AddTask(ui.New(h.Display(), uiEP.Restrict(kernel.RightRecv)))
	k.AddTask(inbox.New(h.Companion(), inboxEP.Restrict(kernel.RightRecv), logEP.Restrict(kernel.RightSend)))

	var p watchface.Persister
	if kv, err := persist.Open(h.Flash(), cfg.Persist); err != nil {
		if l := h.Logger(); l != nil {
			l.WriteLineString(fmt.Sprintf("app: persistence unavailable err=%v", err))
		}
	} else {
		s.kv = kv
		p = kv
	}

	s.face = watchface.New(h.Display(), h.Clock(), p, watchface.Caps{
		Endpoint: s.faceEP,
		Time:     timeEP.Restrict(kernel.RightSend),
		UI:       uiEP.Restrict(kernel.RightSend),
		Inbox:    inboxEP.Restrict(kernel.RightSend),
		Log:      logEP.Restrict(kernel.RightSend),
	}, cfg.Watchface)
	k.AddTask(s.face)

	return s
}

// Step forwards pending HAL ticks to the kernel and runs tasks until idle.
//
// After a task panic the system stops stepping and the panic screen stays up.
func (s *System) Step() error {
	if kernel.InPanicMode() {
		return nil
	}
	latest := uint64(0)
drain:
	for {
		select {
		case seq := <-s.ticks:
			latest = seq
		default:
			break drain
		}
	}
	if latest > 0 {
		s.k.TickTo(latest)
	}
	s.k.RunUntilIdle(s.budget)
	return nil
}

// Shutdown asks the watchface to tear down and runs it to completion.
func (s *System) Shutdown() error {
	res := s.k.Send(s.faceEP.Restrict(kernel.RightSend), uint16(proto.MsgAppShutdown), nil)
	if res != kernel.SendOK {
		return fmt.Errorf("app: shutdown: %s", res)
	}
	s.k.RunUntilIdle(s.budget)
	return nil
}

// Watchface returns the watchface task.
func (s *System) Watchface() *watchface.Task { return s.face }

// Store returns the persistent store, or nil when flash is unavailable.
func (s *System) Store() *persist.Store { return s.kv }

// NewStepper adapts New to the host runners (hal.RunWindow, hal.RunHeadless).
// ready, if set, is called once the system is wired.
func NewStepper(cfg Config, ready func(hal.HAL, *System)) func(hal.HAL) func() error {
	return func(h hal.HAL) func() error {
		s := New(h, cfg)
		if ready != nil {
			ready(h, s)
		}
		return s.Step
	}
}
