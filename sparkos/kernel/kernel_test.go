package kernel

import "testing"

type recvTask struct {
	ep  Capability
	got []uint16
}

func (t *recvTask) Step(ctx *Context) {
	for {
		msg, ok := ctx.Recv(t.ep)
		if !ok {
			break
		}
		t.got = append(t.got, msg.Kind)
	}
	ctx.BlockOn(t.ep)
}

func TestSendDeliversFIFOAndWakes(t *testing.T) {
	k := New()
	ep := k.NewEndpoint(RightSend | RightRecv)
	rt := &recvTask{ep: ep}
	if _, ok := k.AddTask(rt); !ok {
		t.Fatalf("AddTask failed")
	}

	if n := k.RunUntilIdle(10); n != 1 {
		t.Fatalf("steps=%d, want 1", n)
	}
	if k.Step() {
		t.Fatalf("blocked task should not run")
	}

	for kind := uint16(1); kind <= 3; kind++ {
		if res := k.Send(ep.Restrict(RightSend), kind, nil); res != SendOK {
			t.Fatalf("Send(%d)=%s", kind, res)
		}
	}
	k.RunUntilIdle(10)
	if len(rt.got) != 3 || rt.got[0] != 1 || rt.got[1] != 2 || rt.got[2] != 3 {
		t.Fatalf("got=%v, want [1 2 3]", rt.got)
	}
}

func TestSendQueueFull(t *testing.T) {
	k := New()
	ep := k.NewEndpoint(RightSend | RightRecv)
	for i := 0; i < mailboxSlots; i++ {
		if res := k.Send(ep, 1, nil); res != SendOK {
			t.Fatalf("Send #%d=%s", i, res)
		}
	}
	if res := k.Send(ep, 1, nil); res != SendErrQueueFull {
		t.Fatalf("Send over capacity=%s, want %s", res, SendErrQueueFull)
	}
}

func TestSendRejectsLargePayloadAndMissingRights(t *testing.T) {
	k := New()
	ep := k.NewEndpoint(RightSend | RightRecv)
	big := make([]byte, MaxMessageBytes+1)
	if res := k.Send(ep, 1, big); res != SendErrPayloadTooLarge {
		t.Fatalf("Send(big)=%s", res)
	}
	if res := k.Send(ep.Restrict(RightRecv), 1, nil); res != SendErrToNoSendRight {
		t.Fatalf("Send(recv-only)=%s", res)
	}
	if res := k.Send(Capability{}, 1, nil); res != SendErrInvalidToCap {
		t.Fatalf("Send(zero)=%s", res)
	}
}

func TestMessagePayloadClamps(t *testing.T) {
	var msg Message
	msg.Len = MaxMessageBytes + 10
	if got := len(msg.Payload()); got != MaxMessageBytes {
		t.Fatalf("len(Payload())=%d, want %d", got, MaxMessageBytes)
	}
	msg.Len = 3
	if got := len(msg.Payload()); got != 3 {
		t.Fatalf("len(Payload())=%d, want 3", got)
	}
}

type tickTask struct{ steps int }

func (t *tickTask) Step(ctx *Context) {
	t.steps++
	ctx.BlockOnTick()
}

func TestBlockOnTick(t *testing.T) {
	k := New()
	tt := &tickTask{}
	k.AddTask(tt)

	k.RunUntilIdle(10)
	if tt.steps != 1 {
		t.Fatalf("steps=%d, want 1", tt.steps)
	}
	k.Tick()
	k.RunUntilIdle(10)
	if tt.steps != 2 {
		t.Fatalf("steps=%d after tick, want 2", tt.steps)
	}

	k.TickTo(k.NowTick())
	k.RunUntilIdle(10)
	if tt.steps != 2 {
		t.Fatalf("TickTo(same) woke task: steps=%d", tt.steps)
	}
	k.TickTo(k.NowTick() + 5)
	k.RunUntilIdle(10)
	if tt.steps != 3 {
		t.Fatalf("steps=%d after TickTo, want 3", tt.steps)
	}
}

type selfSendTask struct {
	ep    Capability
	steps int
}

func (t *selfSendTask) Step(ctx *Context) {
	t.steps++
	if t.steps == 1 {
		ctx.SendTo(t.ep, 7, nil)
	}
	for {
		if _, ok := ctx.Recv(t.ep); !ok {
			break
		}
		if t.steps == 1 {
			// Leave the message queued for the next step.
			ctx.SendTo(t.ep, 8, nil)
			break
		}
	}
	ctx.BlockOn(t.ep)
}

func TestBlockOnStaysRunnableWhenQueued(t *testing.T) {
	k := New()
	ep := k.NewEndpoint(RightSend | RightRecv)
	st := &selfSendTask{ep: ep}
	k.AddTask(st)

	k.RunUntilIdle(10)
	if st.steps != 2 {
		t.Fatalf("steps=%d, want 2", st.steps)
	}
}

type panicTask struct{}

func (panicTask) Step(*Context) { panic("boom") }

func TestPanicStopsTask(t *testing.T) {
	var got *PanicInfo
	SetPanicHandler(func(info PanicInfo) { got = &info })
	defer SetPanicHandler(nil)

	k := New()
	id, _ := k.AddTask(panicTask{})
	if !k.Step() {
		t.Fatalf("Step()=false, want true")
	}
	if k.Step() {
		t.Fatalf("panicked task ran again")
	}
	if !InPanicMode() {
		t.Fatalf("InPanicMode()=false")
	}
	if got == nil || got.TaskID != id || got.Value != "boom" || len(got.Stack) == 0 {
		t.Fatalf("panic info=%+v", got)
	}
}

func TestRestrict(t *testing.T) {
	k := New()
	ep := k.NewEndpoint(RightSend | RightRecv)
	if c := ep.Restrict(0); c.Valid() {
		t.Fatalf("Restrict(0) valid")
	}
	c := ep.Restrict(RightSend)
	if !c.canSend() || c.canRecv() {
		t.Fatalf("Restrict(send) rights=%v", c.rights)
	}
	if c2 := c.Restrict(RightRecv); c2.Valid() {
		t.Fatalf("Restrict cannot add rights")
	}
}
