package dmx

import "sync/atomic"

// FIFO is the bounded single-producer, single-consumer byte queue between a
// sender and the line engine. Put never blocks; callers wait on Writable.
type FIFO struct {
	buf [FIFODepth]byte
	rd  atomic.Uint32 // consumer index (monotonic)
	wr  atomic.Uint32 // producer index (monotonic)

	readable chan struct{} // empty -> non-empty edge
	writable chan struct{} // full -> not full edge
}

func NewFIFO() *FIFO {
	return &FIFO{
		readable: make(chan struct{}, 1),
		writable: make(chan struct{}, 1),
	}
}

func (f *FIFO) Len() int { return int(f.wr.Load() - f.rd.Load()) }

func (f *FIFO) Space() int { return FIFODepth - f.Len() }

// TryPut queues b, reporting false when the FIFO is full.
func (f *FIFO) TryPut(b byte) bool {
	rd := f.rd.Load()
	wr := f.wr.Load()
	if wr-rd >= FIFODepth {
		return false
	}
	f.buf[wr%FIFODepth] = b
	f.wr.Store(wr + 1)
	if wr == rd {
		notify(f.readable)
	}
	return true
}

// TryGet dequeues one byte, reporting false when the FIFO is empty.
func (f *FIFO) TryGet() (byte, bool) {
	rd := f.rd.Load()
	wr := f.wr.Load()
	if wr == rd {
		return 0, false
	}
	b := f.buf[rd%FIFODepth]
	f.rd.Store(rd + 1)
	if wr-rd == FIFODepth {
		notify(f.writable)
	}
	return b, true
}

// Clear drops every queued byte. Only the producer may call it, and only
// while the consumer is held off.
func (f *FIFO) Clear() {
	f.rd.Store(f.wr.Load())
	notify(f.writable)
}

// Readable is signalled when the FIFO goes from empty to non-empty.
func (f *FIFO) Readable() <-chan struct{} { return f.readable }

// Writable is signalled when space frees up.
func (f *FIFO) Writable() <-chan struct{} { return f.writable }

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
