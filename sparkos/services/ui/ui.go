package ui

import (
	"image"

	"blotch/hal"
	"blotch/sparkos/kernel"
	"blotch/sparkos/proto"
)

const maxSubscribers = 8

type subscriber struct {
	inUse   bool
	reply   kernel.Capability
	pending bool
	bounds  image.Rectangle
}

// Service forwards unobstructed-area changes to subscribers.
//
// Notifications are forwarded even when the bounds did not change; receivers
// filter. While a subscriber's queue is full only the latest bounds are kept.
type Service struct {
	area hal.UnobstructedArea
	ep   kernel.Capability

	changes <-chan image.Rectangle
	subs    [maxSubscribers]subscriber
}

func New(d hal.Display, ep kernel.Capability) *Service {
	s := &Service{ep: ep}
	if d != nil {
		s.area = d.Unobstructed()
	}
	if s.area != nil {
		s.changes = s.area.Changes()
	}
	return s
}

func (s *Service) Step(ctx *kernel.Context) {
	s.handleRequests(ctx)

drain:
	for {
		select {
		case b := <-s.changes:
			for i := range s.subs {
				if s.subs[i].inUse {
					s.subs[i].pending = true
					s.subs[i].bounds = b
				}
			}
		default:
			break drain
		}
	}

	for i := range s.subs {
		sub := &s.subs[i]
		if !sub.inUse || !sub.pending {
			continue
		}
		switch ctx.SendToCapResult(sub.reply, uint16(proto.MsgUnobstructedChange), proto.RectPayload(sub.bounds), kernel.Capability{}) {
		case kernel.SendOK:
			sub.pending = false
		case kernel.SendErrQueueFull:
		default:
			*sub = subscriber{}
		}
	}

	ctx.BlockOnTick()
}

func (s *Service) handleRequests(ctx *kernel.Context) {
	for {
		msg, ok := ctx.Recv(s.ep)
		if !ok {
			return
		}
		if msg.Kind != uint16(proto.MsgUnobstructedSubscribe) || !msg.Cap.Valid() {
			continue
		}
		added := false
		for i := range s.subs {
			if s.subs[i].inUse {
				continue
			}
			s.subs[i] = subscriber{inUse: true, reply: msg.Cap}
			added = true
			break
		}
		if !added {
			_ = ctx.SendToCap(msg.Cap, uint16(proto.MsgError), proto.ErrorPayload(proto.ErrOverflow, proto.MsgUnobstructedSubscribe, nil), kernel.Capability{})
		}
	}
}
