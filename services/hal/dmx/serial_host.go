//go:build !rp2040 && !rp2350

package dmx

import (
	"context"
	"time"

	"go.bug.st/serial"
)

// SerialPort is the part of serial.Port a SerialSender uses.
type SerialPort interface {
	Write(p []byte) (int, error)
	Drain() error
	Break(d time.Duration) error
	SetRTS(rts bool) error
	Close() error
}

// SerialMode is DMX framing on a UART: 250 kBaud, 8 data bits, no parity,
// two stop bits.
func SerialMode() *serial.Mode {
	return &serial.Mode{
		BaudRate: 250000,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.TwoStopBits,
	}
}

// OpenSerial opens a USB-RS485 adaptor as a DMX output.
func OpenSerial(name string) (*SerialSender, error) {
	p, err := serial.Open(name, SerialMode())
	if err != nil {
		return nil, err
	}
	return NewSerialSender(p), nil
}

// SerialSender puts frames on a UART: the break comes from the UART break
// condition, RTS switches the transceiver direction.
type SerialSender struct {
	port    SerialPort
	rts     *rtsEnable
	dir     *Direction
	drained bool
	frame   []byte
	sent    uint32
}

type rtsEnable struct {
	p   SerialPort
	err error
}

func (r *rtsEnable) Set(v bool) {
	if err := r.p.SetRTS(v); err != nil {
		r.err = err
	}
}

func NewSerialSender(p SerialPort) *SerialSender {
	s := &SerialSender{port: p, frame: make([]byte, 0, MaxChannels+1)}
	s.rts = &rtsEnable{p: p}
	s.dir = NewDirection(s.rts, s)
	return s
}

// Drained reports that the last Write has been flushed by Drain.
func (s *SerialSender) Drained() bool { return s.drained }

func (s *SerialSender) Sent() uint32 { return s.sent }

func (s *SerialSender) Send(ctx context.Context, u *Universe) error {
	s.frame = u.AppendTo(s.frame[:0])
	s.drained = false
	s.rts.err = nil
	s.dir.BeginTransmit()
	if s.rts.err != nil {
		return s.rts.err
	}
	if err := s.port.Break(TxBreakUs * time.Microsecond); err != nil {
		return err
	}
	time.Sleep(TxMABUs * time.Microsecond)
	if _, err := s.port.Write(s.frame); err != nil {
		return err
	}
	if err := s.port.Drain(); err != nil {
		return err
	}
	s.drained = true
	s.sent++
	if err := s.dir.EndTransmit(ctx); err != nil {
		return err
	}
	return s.rts.err
}

func (s *SerialSender) Close() error { return s.port.Close() }
