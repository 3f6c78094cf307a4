package dmx

import (
	"context"
	"time"
)

// DrainPoll is the sleep between drain checks in EndTransmit.
const DrainPoll = 50 * time.Microsecond

// Enable drives a half-duplex transceiver's driver-enable line
// (high = transmit).
type Enable interface {
	Set(level bool)
}

// Drainer reports whether every queued bit has left the line.
type Drainer interface {
	Drained() bool
}

// Direction owns the driver-enable line of an RS-485 transceiver.
type Direction struct {
	en   Enable
	q    Drainer
	poll time.Duration
	tx   bool
}

// NewDirection returns a controller in receive mode. en may be nil for
// transmit-only wiring; the controller then only tracks the mode.
func NewDirection(en Enable, q Drainer) *Direction {
	d := &Direction{en: en, q: q, poll: DrainPoll}
	d.set(false)
	return d
}

func (d *Direction) set(tx bool) {
	d.tx = tx
	if d.en != nil {
		d.en.Set(tx)
	}
}

func (d *Direction) Transmitting() bool { return d.tx }

// BeginTransmit asserts the driver. Call it before starting the encoder.
func (d *Direction) BeginTransmit() {
	d.set(true)
}

// EndTransmit waits until the queue and shift register are empty, then
// releases the driver. ctx bounds the wait; on cancellation the driver stays
// asserted and ctx.Err() is returned.
func (d *Direction) EndTransmit(ctx context.Context) error {
	if !d.tx {
		return nil
	}
	for !d.q.Drained() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		time.Sleep(d.poll)
	}
	d.set(false)
	return nil
}

func sleepPoll() { time.Sleep(DrainPoll) }
