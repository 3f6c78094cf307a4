// Package dmx implements DMX-512 framing as explicit line-level state
// machines clocked at 1 µs, the universe buffer they read and write, and the
// half-duplex direction control around a transmission.
//
// Per-state budgets of the transmit machine (1 tick = 1 µs):
//
//	break   TxBreakUs  line low   (>= 92 µs on the wire)
//	MAB     TxMABUs    line high  (>= 12 µs)
//	start   BitUs      line low
//	data    8 x BitUs  LSB first
//	stop    2 x BitUs  line high, then mark until the next byte is queued
//
// The receive machine samples once per tick: a low run of RxBreakUs is a
// break wherever it happens, bits are read at their midpoints.
package dmx

const (
	// BitUs is one bit time at 250 kBaud.
	BitUs = 4

	TxBreakUs = 176
	TxMABUs   = 16
	StopBits  = 2

	RxBreakUs  = 88
	RxMinMABUs = 8

	// Offsets from the start-bit falling edge, in ticks.
	rxStartMid = BitUs / 2
	rxDataMid0 = BitUs + BitUs/2
	rxStopMid  = 9*BitUs + BitUs/2

	// FIFODepth matches the joined TX FIFO of an RP2040 PIO state machine.
	FIFODepth = 8
)

// Universe size limits (channel slots, excluding the start code).
const (
	MinChannels = 24
	MaxChannels = 512
)

// Start codes.
const (
	StartCodeDMX          byte = 0x00
	StartCodeRDM          byte = 0xCC
	StartCodeRDMDiscovery byte = 0xFE
)

// StartCodeName classifies a start code. RDM payloads are recognised, not parsed.
func StartCodeName(sc byte) string {
	switch sc {
	case StartCodeDMX:
		return "dmx"
	case StartCodeRDM:
		return "rdm"
	case StartCodeRDMDiscovery:
		return "rdm_discovery"
	default:
		return "alternate"
	}
}

// FrameUs returns the wire time of one frame carrying size bytes
// (start code included) with minimal inter-byte marks.
func FrameUs(size int) int {
	return TxBreakUs + TxMABUs + size*(1+8+StopBits)*BitUs
}
