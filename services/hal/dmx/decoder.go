package dmx

type rxState uint8

const (
	rxWaitBreak rxState = iota // out of sync, only a break gets us back
	rxBreak                    // break seen, line still low
	rxMAB                      // high after break
	rxMark                     // waiting for a start bit
	rxByte                     // shifting a byte in
	rxLowStop                  // all-low byte with a low stop bit: a break or a framing error
)

// RxStats counts decoder outcomes since construction.
type RxStats struct {
	Frames        uint32 // breaks that ended a frame carrying at least a start code
	Bytes         uint32 // accepted bytes, overruns included
	FramingErrors uint32
	Overruns      uint32 // bytes beyond the universe, clocked and dropped
	LastSlots     int    // bytes in the last completed frame, start code included
}

// Decoder reconstructs frames from 1 µs line samples and writes each accepted
// byte into the universe at its sequence number (slot 0 = start code).
type Decoder struct {
	u     *Universe
	state rxState

	lowRun  int
	highRun int
	t       int // ticks since the start-bit falling edge
	shift   byte
	seq     int

	stats RxStats
	// OnFrame, when set, is called on every completed frame with its slot count.
	OnFrame func(slots int)
}

func NewDecoder(u *Universe) *Decoder {
	return &Decoder{u: u}
}

func (d *Decoder) Universe() *Universe { return d.u }
func (d *Decoder) Stats() RxStats      { return d.stats }

// Sample feeds one line sample. A low run reaching RxBreakUs is a break in
// every state; shorter low pulses never advance past the byte machine.
func (d *Decoder) Sample(level bool) {
	if level {
		d.lowRun = 0
		d.highRun++
	} else {
		d.highRun = 0
		d.lowRun++
		if d.lowRun == RxBreakUs {
			d.onBreak()
			return
		}
	}

	switch d.state {
	case rxBreak:
		if level {
			d.state = rxMAB
		}
	case rxMAB:
		switch {
		case !level:
			// mark after break too short
			d.state = rxWaitBreak
		case d.highRun >= RxMinMABUs:
			d.state = rxMark
		}
	case rxMark:
		if !level {
			d.beginByte()
		}
	case rxByte:
		d.shiftIn(level)
	case rxLowStop:
		if level {
			d.stats.FramingErrors++
			d.state = rxWaitBreak
		}
	}
}

func (d *Decoder) beginByte() {
	d.state = rxByte
	d.t = 0
	d.shift = 0
}

func (d *Decoder) shiftIn(level bool) {
	d.t++
	switch {
	case d.t == rxStartMid:
		if level {
			// glitch, not a start bit
			d.state = rxMark
		}
	case d.t >= rxDataMid0 && d.t < rxStopMid && (d.t-rxDataMid0)%BitUs == 0:
		if level {
			d.shift |= 1 << uint((d.t-rxDataMid0)/BitUs)
		}
	case d.t == rxStopMid:
		if level {
			d.accept(d.shift)
			d.state = rxMark
			return
		}
		if d.shift == 0 {
			d.state = rxLowStop
			return
		}
		d.stats.FramingErrors++
		d.state = rxWaitBreak
	}
}

func (d *Decoder) accept(b byte) {
	d.stats.Bytes++
	if !d.u.setSlot(d.seq, b) {
		d.stats.Overruns++
	}
	d.seq++
}

func (d *Decoder) onBreak() {
	if d.seq > 0 {
		d.stats.Frames++
		d.stats.LastSlots = d.seq
		if d.OnFrame != nil {
			d.OnFrame(d.seq)
		}
	}
	d.seq = 0
	d.state = rxBreak
}
