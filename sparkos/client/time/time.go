package time

import (
	"blotch/sparkos/kernel"
	"blotch/sparkos/proto"
)

// Subscribe asks the time service to send MsgTick to reply whenever one of
// units rolls over. The first tick arrives right after subscribing.
//
// On kernel.SendErrQueueFull the caller should retry on a later step.
func Subscribe(ctx *kernel.Context, timeCap, reply kernel.Capability, units proto.TimeUnits) kernel.SendResult {
	if ctx == nil {
		return kernel.SendErrInvalidFromCap
	}
	return ctx.SendToCapResult(timeCap, uint16(proto.MsgTickSubscribe), proto.TickSubscribePayload(units), reply.Restrict(kernel.RightSend))
}
