package timesvc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	timeclient "blotch/sparkos/client/time"
	"blotch/sparkos/kernel"
	"blotch/sparkos/proto"
)

type fakeClock struct {
	now    time.Time
	use24h bool
}

func (c *fakeClock) Now() time.Time  { return c.now }
func (c *fakeClock) Is24Hour() bool { return c.use24h }

type tickCollector struct {
	timeCap kernel.Capability
	reply   kernel.Capability
	units   proto.TimeUnits

	subscribed bool
	ticks      []proto.Tick
}

func (c *tickCollector) Step(ctx *kernel.Context) {
	if !c.subscribed {
		c.subscribed = timeclient.Subscribe(ctx, c.timeCap, c.reply, c.units) == kernel.SendOK
	}
	for {
		msg, ok := ctx.Recv(c.reply)
		if !ok {
			break
		}
		if msg.Kind != uint16(proto.MsgTick) {
			continue
		}
		tick, ok := proto.DecodeTickPayload(msg.Payload())
		if ok {
			c.ticks = append(c.ticks, tick)
		}
	}
	ctx.BlockOn(c.reply)
}

func setup(t *testing.T, clock *fakeClock) (*kernel.Kernel, *tickCollector) {
	t.Helper()
	k := kernel.New()
	timeEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	reply := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)

	_, ok := k.AddTask(New(clock, timeEP.Restrict(kernel.RightRecv)))
	require.True(t, ok)
	c := &tickCollector{timeCap: timeEP.Restrict(kernel.RightSend), reply: reply, units: proto.MinuteUnit}
	_, ok = k.AddTask(c)
	require.True(t, ok)

	k.RunUntilIdle(100)
	k.Tick()
	k.RunUntilIdle(100)
	return k, c
}

func TestFirstTickOnSubscribe(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.October, 6, 10, 0, 30, 0, time.UTC)}
	_, c := setup(t, clock)

	require.Len(t, c.ticks, 1)
	assert.Equal(t, proto.MinuteUnit, c.ticks[0].Changed)
	assert.True(t, c.ticks[0].Time().Equal(clock.now))
}

func TestOneTickPerMinuteBoundary(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.October, 6, 10, 0, 30, 0, time.UTC)}
	k, c := setup(t, clock)

	step := func(d time.Duration) {
		clock.now = clock.now.Add(d)
		k.Tick()
		k.RunUntilIdle(100)
	}

	step(10 * time.Second)
	assert.Len(t, c.ticks, 1, "same minute")

	step(25 * time.Second)
	require.Len(t, c.ticks, 2)
	assert.Equal(t, proto.MinuteUnit, c.ticks[1].Changed)
	assert.Equal(t, 1, c.ticks[1].Time().Minute())

	step(time.Second)
	step(time.Second)
	assert.Len(t, c.ticks, 2)

	step(3 * time.Minute)
	assert.Len(t, c.ticks, 3, "several minutes within one tick coalesce")
}

func TestClockStyleChangeForcesTick(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, time.October, 6, 10, 0, 30, 0, time.UTC)}
	k, c := setup(t, clock)

	clock.use24h = true
	k.Tick()
	k.RunUntilIdle(100)

	require.Len(t, c.ticks, 2)
	assert.Equal(t, proto.TimeUnits(0), c.ticks[1].Changed)
	assert.True(t, c.ticks[1].Clock24)
}
