package dmx

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeEnable struct {
	level atomic.Bool
	sets  atomic.Int32
}

func (f *fakeEnable) Set(v bool) { f.level.Store(v); f.sets.Add(1) }

// slowDrain reports drained after n polls and checks the driver stays on
// while bits are pending.
type slowDrain struct {
	t     *testing.T
	en    *fakeEnable
	n     int
	polls int
}

func (s *slowDrain) Drained() bool {
	s.polls++
	if !s.en.level.Load() {
		s.t.Fatalf("driver released with bits pending (poll %d)", s.polls)
	}
	return s.polls > s.n
}

func TestDirectionWaitsForDrain(t *testing.T) {
	en := &fakeEnable{}
	q := &slowDrain{t: t, en: en, n: 5}
	d := NewDirection(en, q)
	d.poll = 0
	if en.level.Load() || d.Transmitting() {
		t.Fatal("new controller must start in receive mode")
	}
	d.BeginTransmit()
	if !en.level.Load() {
		t.Fatal("BeginTransmit must assert the driver")
	}
	if err := d.EndTransmit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if en.level.Load() || d.Transmitting() {
		t.Fatal("driver still asserted after drain")
	}
	if q.polls != 6 {
		t.Fatalf("polls = %d, want 6", q.polls)
	}
}

type never struct{}

func (never) Drained() bool { return false }

func TestEndTransmitCancelledStaysAsserted(t *testing.T) {
	en := &fakeEnable{}
	d := NewDirection(en, never{})
	d.BeginTransmit()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Millisecond)
	defer cancel()
	err := d.EndTransmit(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
	if !en.level.Load() || !d.Transmitting() {
		t.Fatal("cancelled EndTransmit must leave the driver asserted")
	}
}

func TestEndTransmitInReceiveModeIsNoop(t *testing.T) {
	d := NewDirection(nil, never{})
	if err := d.EndTransmit(context.Background()); err != nil {
		t.Fatal(err)
	}
}

// guardedLine fails the test if the line is driven low while the driver
// enable is released.
type guardedLine struct {
	en  *fakeEnable
	bad atomic.Int32
	lb  *Loopback
}

func (g *guardedLine) Set(level bool) {
	if !level && !g.en.level.Load() {
		g.bad.Add(1)
	}
	g.lb.Set(level)
}

func TestTransmitterEngineLoopback(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	en := &fakeEnable{}
	rx := NewUniverse(24)
	line := &guardedLine{en: en, lb: NewLoopback(rx)}
	eng := NewEngine(line, NoWait)
	go eng.Run(ctx)

	tx := NewUniverse(24)
	for i := 1; i <= 24; i++ {
		_ = tx.SetChannel(i, 255-i)
	}
	before := tx.Bytes()
	xmit := NewTransmitter(eng, en)
	if err := xmit.Send(ctx, tx); err != nil {
		t.Fatal(err)
	}
	if en.level.Load() {
		t.Fatal("driver still asserted after Send returned")
	}
	if !eng.Drained() {
		t.Fatal("Send returned before the frame drained")
	}
	if st := line.lb.Stats(); st.Bytes != 25 {
		t.Fatalf("bytes received = %d", st.Bytes)
	}
	got := NewUniverse(24)
	line.lb.Snapshot(got)
	if string(got.Bytes()) != string(before) || string(tx.Bytes()) != string(before) {
		t.Fatal("round trip mismatch or sender universe modified")
	}

	if err := xmit.Send(ctx, tx); err != nil {
		t.Fatal(err)
	}
	if st := line.lb.Stats(); st.Frames != 1 || st.FramingErrors != 0 {
		t.Fatalf("stats = %+v", st)
	}
	if line.bad.Load() != 0 {
		t.Fatalf("line driven low %d times with the driver released", line.bad.Load())
	}
	if xmit.Sent() != 2 {
		t.Fatalf("sent = %d", xmit.Sent())
	}
}

// holdClock holds every tick for d and counts ticks whose hold finished
// after the driver was released.
type holdClock struct {
	en    *fakeEnable
	d     time.Duration
	ticks atomic.Int32
	cut   atomic.Int32
}

func (c *holdClock) Wait() {
	time.Sleep(c.d)
	c.ticks.Add(1)
	if !c.en.level.Load() {
		c.cut.Add(1)
	}
}

func TestDriverHeldThroughFinalStopBit(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	en := &fakeEnable{}
	clk := &holdClock{en: en, d: 100 * time.Microsecond}
	eng := NewEngine(NewLoopback(NewUniverse(24)), clk)
	go eng.Run(ctx)

	xmit := NewTransmitter(eng, en)
	u := NewUniverse(24)
	for i := 0; i < 10; i++ {
		_ = u.SetChannel(1, i)
		if err := xmit.Send(ctx, u); err != nil {
			t.Fatal(err)
		}
		if en.level.Load() {
			t.Fatalf("frame %d: driver still asserted after Send", i)
		}
	}
	if clk.ticks.Load() == 0 {
		t.Fatal("engine never ticked")
	}
	if n := clk.cut.Load(); n != 0 {
		t.Fatalf("%d ticks were still on the line when the driver was released", n)
	}
}

func TestSendCancelledWhileFIFOFull(t *testing.T) {
	en := &fakeEnable{}
	eng := NewEngine(&fakeEnable{}, NoWait) // engine never runs
	xmit := NewTransmitter(eng, en)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Millisecond)
	defer cancel()
	if err := xmit.Send(ctx, NewUniverse(24)); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
	if !xmit.Direction().Transmitting() {
		t.Fatal("aborted send must not release the driver")
	}
}
