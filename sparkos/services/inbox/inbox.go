package inbox

import (
	"blotch/hal"
	logclient "blotch/sparkos/client/logger"
	"blotch/sparkos/kernel"
	"blotch/sparkos/proto"
)

const (
	maxSubscribers = 4
	backlogSlots   = 4
)

type subscriber struct {
	inUse   bool
	reply   kernel.Capability
	backlog [][]byte
}

// Service forwards companion app messages to subscribed tasks as
// MsgAppMessage, in arrival order.
type Service struct {
	comp   hal.Companion
	ep     kernel.Capability
	logCap kernel.Capability

	subs [maxSubscribers]subscriber
}

func New(comp hal.Companion, ep, logCap kernel.Capability) *Service {
	return &Service{comp: comp, ep: ep, logCap: logCap}
}

func (s *Service) Step(ctx *kernel.Context) {
	s.handleRequests(ctx)

	// Messages stay queued in the companion until someone subscribes.
	if s.comp != nil && s.subscribed() {
		in := s.comp.Messages()
	drain:
		for {
			select {
			case b := <-in:
				s.accept(ctx, b)
			default:
				break drain
			}
		}
	}

	for i := range s.subs {
		s.flush(ctx, &s.subs[i])
	}

	ctx.BlockOnTick()
}

func (s *Service) subscribed() bool {
	for i := range s.subs {
		if s.subs[i].inUse {
			return true
		}
	}
	return false
}

func (s *Service) accept(ctx *kernel.Context, b []byte) {
	if len(b) > kernel.MaxMessageBytes {
		logclient.Logf(ctx, s.logCap, "inbox: drop message len=%d reason=%s", len(b), proto.ErrTooLarge)
		return
	}
	if _, err := proto.DecodeAppMessage(b); err != nil {
		logclient.Logf(ctx, s.logCap, "inbox: drop message err=%v", err)
		return
	}
	for i := range s.subs {
		sub := &s.subs[i]
		if !sub.inUse {
			continue
		}
		if len(sub.backlog) >= backlogSlots {
			logclient.Logf(ctx, s.logCap, "inbox: drop message reason=%s", proto.ErrOverflow)
			continue
		}
		sub.backlog = append(sub.backlog, b)
	}
}

func (s *Service) flush(ctx *kernel.Context, sub *subscriber) {
	for sub.inUse && len(sub.backlog) > 0 {
		switch ctx.SendToCapResult(sub.reply, uint16(proto.MsgAppMessage), sub.backlog[0], kernel.Capability{}) {
		case kernel.SendOK:
			sub.backlog[0] = nil
			sub.backlog = sub.backlog[1:]
		case kernel.SendErrQueueFull:
			return
		default:
			*sub = subscriber{}
		}
	}
}

func (s *Service) handleRequests(ctx *kernel.Context) {
	for {
		msg, ok := ctx.Recv(s.ep)
		if !ok {
			return
		}
		if msg.Kind != uint16(proto.MsgAppMessageSubscribe) || !msg.Cap.Valid() {
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
			_ = ctx.SendToCap(msg.Cap, uint16(proto.MsgError), proto.ErrorPayload(proto.ErrOverflow, proto.MsgAppMessageSubscribe, nil), kernel.Capability{})
		}
	}
}
