package dmx

import (
	"strconv"

	"smarthome-go/errcode"
	"smarthome-go/x/mathx"
)

// Universe is a start code followed by N channel slots. Channel indices are
// 1-based; slot 0 holds the start code.
//
// A Universe has a single owner. The encoder copies it before a frame and the
// decoder writes it during reception; it is not locked.
type Universe struct {
	slots []byte
}

// NewUniverse allocates a universe of the requested channel count, silently
// clamped to [MinChannels, MaxChannels]. The start code is StartCodeDMX and
// every channel is zero.
func NewUniverse(channels int) *Universe {
	n := mathx.Clamp(channels, MinChannels, MaxChannels)
	return &Universe{slots: make([]byte, n+1)}
}

// Len is the number of channel slots N.
func (u *Universe) Len() int { return len(u.slots) - 1 }

// Size is N+1, the number of bytes on the wire.
func (u *Universe) Size() int { return len(u.slots) }

func (u *Universe) StartCode() byte      { return u.slots[0] }
func (u *Universe) SetStartCode(sc byte) { u.slots[0] = sc }

func (u *Universe) checkIndex(op string, index int) error {
	if !mathx.InRange(index, 1, u.Len()) {
		return errcode.Wrap(errcode.OutOfRange, op, "channel "+strconv.Itoa(index))
	}
	return nil
}

func checkValue(op string, value int) error {
	if !mathx.InRange(value, 0, 255) {
		return errcode.Wrap(errcode.InvalidValue, op, "value "+strconv.Itoa(value))
	}
	return nil
}

// SetChannel stores value in channel index. Values outside [0, 255] are
// rejected, never truncated.
func (u *Universe) SetChannel(index, value int) error {
	if err := u.checkIndex("set_channel", index); err != nil {
		return err
	}
	if err := checkValue("set_channel", value); err != nil {
		return err
	}
	u.slots[index] = byte(value)
	return nil
}

// Channel returns the value of channel index.
func (u *Universe) Channel(index int) (uint8, error) {
	if err := u.checkIndex("get_channel", index); err != nil {
		return 0, err
	}
	return u.slots[index], nil
}

// Fill sets every channel slot, not the start code, to value.
func (u *Universe) Fill(value int) error {
	if err := checkValue("fill", value); err != nil {
		return err
	}
	for i := 1; i < len(u.slots); i++ {
		u.slots[i] = byte(value)
	}
	return nil
}

// Blackout zeroes every channel.
func (u *Universe) Blackout() { _ = u.Fill(0) }

// Bytes returns a copy of the wire bytes, start code first.
func (u *Universe) Bytes() []byte {
	return u.AppendTo(nil)
}

// AppendTo appends the wire bytes to dst.
func (u *Universe) AppendTo(dst []byte) []byte {
	return append(dst, u.slots...)
}

// CopyFrom overwrites the universe from wire bytes (start code first).
// Extra bytes are ignored; missing slots keep their value.
func (u *Universe) CopyFrom(src []byte) int {
	return copy(u.slots, src)
}

// setSlot writes raw slot i (0 = start code). It reports false past the end.
func (u *Universe) setSlot(i int, b byte) bool {
	if i < 0 || i >= len(u.slots) {
		return false
	}
	u.slots[i] = b
	return true
}
