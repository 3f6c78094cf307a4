package dmx

type txState uint8

const (
	txIdle  txState = iota // never started: line high, FIFO not pulled
	txBreak                // line low
	txMAB                  // line high
	txMark                 // line high, pulling the next byte
	txStart
	txData
	txStop
)

var txStateNames = [...]string{"idle", "break", "mab", "mark", "start", "data", "stop"}

func (s txState) String() string { return txStateNames[s] }

// Encoder turns bytes pulled from a FIFO into line levels, one level per
// 1 µs tick. It never touches a Universe; senders queue copies.
//
// An Encoder is driven by exactly one goroutine (the line engine); Restart
// must be serialised with Tick by the caller.
type Encoder struct {
	fifo  *FIFO
	state txState
	left  int // ticks left in the current state
	shift byte
	bit   int

	frameBytes int
}

func NewEncoder(f *FIFO) *Encoder {
	return &Encoder{fifo: f}
}

// Restart abandons any frame in flight, drops queued bytes and begins a new
// break on the next tick.
func (e *Encoder) Restart() {
	e.fifo.Clear()
	e.frameBytes = 0
	e.enter(txBreak, TxBreakUs)
}

// Busy reports whether bits are still held in the shift register (or the
// frame preamble is running).
func (e *Encoder) Busy() bool {
	return e.state != txIdle && e.state != txMark
}

// Drained reports that nothing queued or in the shift register is left.
func (e *Encoder) Drained() bool {
	return !e.Busy() && e.fifo.Len() == 0
}

// FrameBytes is the number of bytes fully shifted out since the last Restart.
func (e *Encoder) FrameBytes() int { return e.frameBytes }

func (e *Encoder) State() string { return e.state.String() }

func (e *Encoder) enter(s txState, ticks int) {
	e.state = s
	e.left = ticks
}

// Tick returns the line level for this microsecond and advances the machine.
// After the last queued byte the line stays at mark until more bytes arrive
// or the encoder is restarted.
func (e *Encoder) Tick() bool {
	switch e.state {
	case txIdle:
		return true
	case txMark:
		b, ok := e.fifo.TryGet()
		if !ok {
			return true
		}
		e.shift = b
		e.bit = 0
		e.enter(txStart, BitUs)
	}

	level := e.level()
	e.left--
	if e.left == 0 {
		e.advance()
	}
	return level
}

func (e *Encoder) level() bool {
	switch e.state {
	case txBreak, txStart:
		return false
	case txData:
		return e.shift>>e.bit&1 == 1
	default:
		return true
	}
}

func (e *Encoder) advance() {
	switch e.state {
	case txBreak:
		e.enter(txMAB, TxMABUs)
	case txMAB:
		e.enter(txMark, 0)
	case txStart:
		e.enter(txData, BitUs)
	case txData:
		e.bit++
		if e.bit < 8 {
			e.left = BitUs
			return
		}
		e.enter(txStop, StopBits*BitUs)
	case txStop:
		e.frameBytes++
		e.enter(txMark, 0)
	}
}
