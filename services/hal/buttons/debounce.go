package buttons

import "smarthome-go/x/timex"

// DefaultDebounceMs is used when a channel does not override its window.
const DefaultDebounceMs = 4

// Debouncer is a pure hysteresis filter over raw pin samples. It has no notion
// of press or release; it only reports the level once it has been stable for
// longer than the window.
type Debouncer struct {
	window      uint32
	lastRaw     bool
	stableSince timex.Ms
	stable      bool
}

// NewDebouncer starts with both the raw and the stable level at initial.
// window==0 selects DefaultDebounceMs.
func NewDebouncer(initial bool, windowMs uint32, now timex.Ms) *Debouncer {
	if windowMs == 0 {
		windowMs = DefaultDebounceMs
	}
	return &Debouncer{
		window:      windowMs,
		lastRaw:     initial,
		stableSince: now,
		stable:      initial,
	}
}

// Sample feeds one raw reading taken at now and returns the stable level.
// A raw change restarts the stability timer without touching the output, so
// contact bounce faster than the window is never seen downstream.
func (d *Debouncer) Sample(raw bool, now timex.Ms) bool {
	if raw != d.lastRaw {
		d.lastRaw = raw
		d.stableSince = now
		return d.stable
	}
	if timex.Elapsed(now, d.stableSince) > d.window {
		d.stable = raw
		d.stableSince = now
	}
	return d.stable
}

func (d *Debouncer) Stable() bool     { return d.stable }
func (d *Debouncer) WindowMs() uint32 { return d.window }
