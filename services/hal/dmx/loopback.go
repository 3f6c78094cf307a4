package dmx

import "sync"

// Loopback is a Line wired straight into a Decoder: every level the engine
// drives is sampled once. It backs the self-test and the host simulation.
type Loopback struct {
	mu    sync.Mutex
	dec   *Decoder
	ticks uint64
}

func NewLoopback(rx *Universe) *Loopback {
	return &Loopback{dec: NewDecoder(rx)}
}

func (l *Loopback) Set(level bool) {
	l.mu.Lock()
	l.ticks++
	l.dec.Sample(level)
	l.mu.Unlock()
}

// Ticks is the number of samples seen.
func (l *Loopback) Ticks() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ticks
}

func (l *Loopback) Stats() RxStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dec.Stats()
}

// Snapshot copies the received universe into dst.
func (l *Loopback) Snapshot(dst *Universe) {
	l.mu.Lock()
	dst.CopyFrom(l.dec.Universe().slots)
	l.mu.Unlock()
}
