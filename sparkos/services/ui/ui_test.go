package ui

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blotch/hal"
	"blotch/sparkos/kernel"
	"blotch/sparkos/proto"
)

type fakeArea struct {
	bounds image.Rectangle
	ch     chan image.Rectangle
}

func (a *fakeArea) Bounds() image.Rectangle         { return a.bounds }
func (a *fakeArea) Changes() <-chan image.Rectangle { return a.ch }

type fakeDisplay struct{ area *fakeArea }

func (d fakeDisplay) Framebuffer() hal.Framebuffer      { return nil }
func (d fakeDisplay) Unobstructed() hal.UnobstructedArea { return d.area }

type boundsCollector struct {
	uiCap kernel.Capability
	reply kernel.Capability

	subscribed bool
	got        []image.Rectangle
}

func (c *boundsCollector) Step(ctx *kernel.Context) {
	if !c.subscribed {
		c.subscribed = ctx.SendToCap(c.uiCap, uint16(proto.MsgUnobstructedSubscribe), nil, c.reply.Restrict(kernel.RightSend))
	}
	for {
		msg, ok := ctx.Recv(c.reply)
		if !ok {
			break
		}
		if r, ok := proto.DecodeRectPayload(msg.Payload()); ok && msg.Kind == uint16(proto.MsgUnobstructedChange) {
			c.got = append(c.got, r)
		}
	}
	ctx.BlockOn(c.reply)
}

func TestForwardsEveryChange(t *testing.T) {
	area := &fakeArea{bounds: image.Rect(0, 0, 180, 180), ch: make(chan image.Rectangle, 4)}
	k := kernel.New()
	uiEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	reply := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)

	_, ok := k.AddTask(New(fakeDisplay{area: area}, uiEP.Restrict(kernel.RightRecv)))
	require.True(t, ok)
	c := &boundsCollector{uiCap: uiEP.Restrict(kernel.RightSend), reply: reply}
	k.AddTask(c)

	k.RunUntilIdle(100)
	k.Tick()
	k.RunUntilIdle(100)
	assert.Empty(t, c.got)

	peek := image.Rect(0, 0, 180, 129)
	area.ch <- peek
	k.Tick()
	k.RunUntilIdle(100)
	require.Len(t, c.got, 1)
	assert.Equal(t, peek, c.got[0])

	area.ch <- peek
	k.Tick()
	k.RunUntilIdle(100)
	require.Len(t, c.got, 2, "duplicate bounds are still forwarded")
}
