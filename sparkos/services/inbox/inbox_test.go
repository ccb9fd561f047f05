package inbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blotch/sparkos/kernel"
	"blotch/sparkos/proto"
)

type fakeCompanion struct{ ch chan []byte }

func (c fakeCompanion) Messages() <-chan []byte { return c.ch }

type msgCollector struct {
	inboxCap kernel.Capability
	reply    kernel.Capability

	subscribed bool
	got        []proto.AppMessage
}

func (c *msgCollector) Step(ctx *kernel.Context) {
	if !c.subscribed {
		c.subscribed = ctx.SendToCap(c.inboxCap, uint16(proto.MsgAppMessageSubscribe), nil, c.reply.Restrict(kernel.RightSend))
	}
	for {
		msg, ok := ctx.Recv(c.reply)
		if !ok {
			break
		}
		if m, err := proto.DecodeAppMessage(msg.Payload()); err == nil {
			c.got = append(c.got, m)
		}
	}
	ctx.BlockOn(c.reply)
}

type lineCollector struct {
	ep    kernel.Capability
	lines []string
}

func (l *lineCollector) Step(ctx *kernel.Context) {
	for {
		msg, ok := ctx.Recv(l.ep)
		if !ok {
			break
		}
		l.lines = append(l.lines, string(msg.Payload()))
	}
	ctx.BlockOn(l.ep)
}

func TestForwardsInOrderAndDropsBadMessages(t *testing.T) {
	comp := fakeCompanion{ch: make(chan []byte, 8)}
	k := kernel.New()
	inboxEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	logEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	reply := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)

	k.AddTask(New(comp, inboxEP.Restrict(kernel.RightRecv), logEP.Restrict(kernel.RightSend)))
	c := &msgCollector{inboxCap: inboxEP.Restrict(kernel.RightSend), reply: reply}
	k.AddTask(c)
	logs := &lineCollector{ep: logEP}
	k.AddTask(logs)

	k.RunUntilIdle(100)

	first, err := proto.EncodeAppMessage(proto.AppMessage{10003: 0xff0000})
	require.NoError(t, err)
	second, err := proto.EncodeAppMessage(proto.AppMessage{10004: 1})
	require.NoError(t, err)

	comp.ch <- first
	comp.ch <- make([]byte, kernel.MaxMessageBytes+1)
	comp.ch <- []byte{0xc1}
	comp.ch <- second

	k.Tick()
	k.RunUntilIdle(100)

	require.Len(t, c.got, 2)
	assert.Equal(t, int32(0xff0000), c.got[0][10003])
	assert.Equal(t, int32(1), c.got[1][10004])
	assert.Len(t, logs.lines, 2)
	for _, line := range logs.lines {
		assert.Contains(t, line, "inbox: drop message")
	}
}

func TestHoldsMessagesUntilSubscribed(t *testing.T) {
	comp := fakeCompanion{ch: make(chan []byte, 8)}
	k := kernel.New()
	inboxEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	logEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	reply := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)

	early, err := proto.EncodeAppMessage(proto.AppMessage{10000: 0x00ff00})
	require.NoError(t, err)
	comp.ch <- early

	k.AddTask(New(comp, inboxEP.Restrict(kernel.RightRecv), logEP.Restrict(kernel.RightSend)))
	c := &msgCollector{inboxCap: inboxEP.Restrict(kernel.RightSend), reply: reply}
	k.AddTask(c)

	k.RunUntilIdle(100)
	assert.Empty(t, c.got)
	assert.Len(t, comp.ch, 1)

	k.Tick()
	k.RunUntilIdle(100)
	require.Len(t, c.got, 1)
	assert.Equal(t, int32(0x00ff00), c.got[0][10000])
}
