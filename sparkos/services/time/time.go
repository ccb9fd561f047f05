package timesvc

import (
	"time"

	"blotch/hal"
	"blotch/sparkos/kernel"
	"blotch/sparkos/proto"
)

const maxSubscribers = 8

type subscriber struct {
	inUse bool
	units proto.TimeUnits
	reply kernel.Capability

	// pending accumulates units that could not be delivered (queue full).
	pending proto.TimeUnits
	force   bool
}

// Service samples the wall clock once per kernel tick and notifies
// subscribers when a calendar unit they asked for rolls over.
type Service struct {
	clock hal.Clock
	ep    kernel.Capability

	last    time.Time
	clock24 bool
	subs    [maxSubscribers]subscriber
}

func New(clock hal.Clock, ep kernel.Capability) *Service {
	return &Service{clock: clock, ep: ep}
}

func (s *Service) Step(ctx *kernel.Context) {
	if s.clock == nil {
		return
	}
	now := s.clock.Now()
	clock24 := s.clock.Is24Hour()

	if s.last.IsZero() {
		s.last = now
		s.clock24 = clock24
	}
	changed := proto.ChangedUnits(s.last, now)
	styleChanged := clock24 != s.clock24
	s.last = now
	s.clock24 = clock24

	s.handleRequests(ctx)

	for i := range s.subs {
		sub := &s.subs[i]
		if !sub.inUse {
			continue
		}
		sub.pending |= changed & sub.units
		if styleChanged {
			sub.force = true
		}
		if sub.pending == 0 && !sub.force {
			continue
		}
		s.deliver(ctx, sub, now)
	}

	ctx.BlockOnTick()
}

func (s *Service) handleRequests(ctx *kernel.Context) {
	for {
		msg, ok := ctx.Recv(s.ep)
		if !ok {
			return
		}
		if msg.Kind != uint16(proto.MsgTickSubscribe) || !msg.Cap.Valid() {
			continue
		}
		units, ok := proto.DecodeTickSubscribePayload(msg.Payload())
		if !ok || units == 0 {
			_ = ctx.SendToCap(msg.Cap, uint16(proto.MsgError), proto.ErrorPayload(proto.ErrBadMessage, proto.MsgTickSubscribe, nil), kernel.Capability{})
			continue
		}
		if !s.subscribe(units, msg.Cap) {
			_ = ctx.SendToCap(msg.Cap, uint16(proto.MsgError), proto.ErrorPayload(proto.ErrOverflow, proto.MsgTickSubscribe, nil), kernel.Capability{})
		}
	}
}

// subscribe registers reply; the first tick carries every requested unit.
func (s *Service) subscribe(units proto.TimeUnits, reply kernel.Capability) bool {
	for i := range s.subs {
		if s.subs[i].inUse {
			continue
		}
		s.subs[i] = subscriber{inUse: true, units: units, reply: reply, pending: units}
		return true
	}
	return false
}

func (s *Service) deliver(ctx *kernel.Context, sub *subscriber, now time.Time) {
	payload := proto.TickPayload(now, sub.pending, s.clock24)
	switch ctx.SendToCapResult(sub.reply, uint16(proto.MsgTick), payload, kernel.Capability{}) {
	case kernel.SendOK:
		sub.pending = 0
		sub.force = false
	case kernel.SendErrQueueFull:
		// Retried on the next tick with the accumulated units.
	default:
		*sub = subscriber{}
	}
}
