package dmx

import (
	"context"
	"sync"
)

// Line is the output pin the engine drives.
type Line interface {
	Set(level bool)
}

// Probe is the input pin a Receiver samples.
type Probe interface {
	Get() bool
}

// Clock paces a line engine: Wait returns at the next 1 µs tick.
type Clock interface {
	Wait()
}

// ClockFunc adapts a function to Clock.
type ClockFunc func()

func (f ClockFunc) Wait() { f() }

// NoWait runs the machines as fast as the CPU allows. Simulation only.
var NoWait Clock = ClockFunc(func() {})

// Engine runs an Encoder against a Line on its own goroutine, independent of
// whoever fills the FIFO. It parks while there is nothing to shift out.
type Engine struct {
	mu   sync.Mutex
	fifo *FIFO
	enc  *Encoder
	line Line
	clk  Clock
	wake chan struct{}

	// holding is set while the level from the last Tick is still being
	// held for its microsecond.
	holding bool
}

func NewEngine(line Line, clk Clock) *Engine {
	f := NewFIFO()
	line.Set(true)
	return &Engine{
		fifo: f,
		enc:  NewEncoder(f),
		line: line,
		clk:  clk,
		wake: make(chan struct{}, 1),
	}
}

// Run ticks the encoder until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	for {
		e.mu.Lock()
		e.holding = false
		if e.enc.Drained() {
			e.mu.Unlock()
			e.line.Set(true)
			select {
			case <-ctx.Done():
				return
			case <-e.wake:
			case <-e.fifo.Readable():
			}
			continue
		}
		level := e.enc.Tick()
		e.holding = true
		e.mu.Unlock()
		e.line.Set(level)
		e.clk.Wait()
	}
}

// Restart abandons the frame in flight and starts a new break.
func (e *Engine) Restart() {
	e.mu.Lock()
	e.enc.Restart()
	e.mu.Unlock()
	notify(e.wake)
}

// Put queues b, waiting for FIFO space until ctx is done.
func (e *Engine) Put(ctx context.Context, b byte) error {
	for !e.fifo.TryPut(b) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.fifo.Writable():
		}
	}
	return nil
}

// Drained reports that the FIFO is empty, the encoder holds no bits and the
// final level has been held on the line for its full tick.
func (e *Engine) Drained() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Drained() && !e.holding
}

// FrameBytes is the number of bytes shifted out of the current frame.
func (e *Engine) FrameBytes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.FrameBytes()
}

// Sender puts a universe on the wire.
type Sender interface {
	Send(ctx context.Context, u *Universe) error
}

// Transmitter is the RP2040-style sender: direction control around an Engine.
type Transmitter struct {
	eng   *Engine
	dir   *Direction
	hasEn bool
	frame []byte
	sent  uint32
}

// NewTransmitter wires eng behind a direction controller. en may be nil.
func NewTransmitter(eng *Engine, en Enable) *Transmitter {
	return &Transmitter{
		eng:   eng,
		dir:   NewDirection(en, eng),
		hasEn: en != nil,
		frame: make([]byte, 0, MaxChannels+1),
	}
}

func (t *Transmitter) Direction() *Direction { return t.dir }
func (t *Transmitter) Sent() uint32          { return t.sent }

// Send queues one frame of u and, when a driver-enable line is wired, waits
// for it to drain before releasing the line. A Send while the previous frame
// is still on the wire abandons that frame.
func (t *Transmitter) Send(ctx context.Context, u *Universe) error {
	t.frame = u.AppendTo(t.frame[:0])
	t.dir.BeginTransmit()
	t.eng.Restart()
	for _, b := range t.frame {
		if err := t.eng.Put(ctx, b); err != nil {
			return err
		}
	}
	t.sent++
	if !t.hasEn {
		return nil
	}
	return t.dir.EndTransmit(ctx)
}

// Flush waits until the last queued frame has left the line.
func (t *Transmitter) Flush(ctx context.Context) error {
	if t.dir.Transmitting() {
		return t.dir.EndTransmit(ctx)
	}
	for !t.eng.Drained() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		sleepPoll()
	}
	return nil
}

// Receiver samples a Probe once per tick into a Decoder.
type Receiver struct {
	mu  sync.Mutex
	dec *Decoder
	in  Probe
	clk Clock
}

func NewReceiver(in Probe, clk Clock, u *Universe) *Receiver {
	return &Receiver{dec: NewDecoder(u), in: in, clk: clk}
}

// ctxCheckTicks bounds how often Run looks at ctx.
const ctxCheckTicks = 256

// Run samples until ctx is done.
func (r *Receiver) Run(ctx context.Context) {
	for n := 0; ; n++ {
		if n%ctxCheckTicks == 0 && ctx.Err() != nil {
			return
		}
		level := r.in.Get()
		r.mu.Lock()
		r.dec.Sample(level)
		r.mu.Unlock()
		r.clk.Wait()
	}
}

func (r *Receiver) Stats() RxStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dec.Stats()
}

// Snapshot copies the received universe into dst.
func (r *Receiver) Snapshot(dst *Universe) {
	r.mu.Lock()
	dst.CopyFrom(r.dec.Universe().slots)
	r.mu.Unlock()
}
