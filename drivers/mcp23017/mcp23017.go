// Package mcp23017 drives the MCP23017 16-bit I/O expander as a bank of
// button inputs.
//
// Reads are batched: Refresh fetches both ports in one transaction and the
// Pin handles answer from that snapshot, so a poll pass over 16 buttons costs
// a single I2C read.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when both
// w and r are provided. The driver assumes IOCON.BANK = 0 (power-on default).
package mcp23017

import (
	"errors"

	"tinygo.org/x/drivers"
)

// Address is the base I2C address (A2..A0 tied low).
const Address = 0x20

const (
	regIODIRA = 0x00
	regIPOLA  = 0x02
	regGPPUA  = 0x0C
	regGPIOA  = 0x12
)

// Pins is the number of GPIOs (GPA0..GPA7 = 0..7, GPB0..GPB7 = 8..15).
const Pins = 16

var ErrInvalidPin = errors.New("mcp23017: invalid pin")

// Config controls set-up. All fields are optional.
type Config struct {
	// Address defaults to 0x20 if zero.
	Address uint16
	// Pullups is a bit mask of pins with the internal 100k pull-up enabled.
	// Nil enables all of them.
	Pullups *uint16
}

// Device wraps an I2C connection to an MCP23017.
type Device struct {
	bus     drivers.I2C
	Address uint16

	pullups uint16
	state   uint16 // last Refresh snapshot
	buf     [3]byte
}

// New creates a Device. The I2C bus must already be configured.
func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, Address: Address}
}

// Configure makes every pin an input with non-inverted polarity and applies
// the pull-up mask.
func (d *Device) Configure(cfg Config) error {
	if cfg.Address != 0 {
		d.Address = cfg.Address
	}
	d.pullups = 0xFFFF
	if cfg.Pullups != nil {
		d.pullups = *cfg.Pullups
	}
	if err := d.write16(regIODIRA, 0xFFFF); err != nil {
		return err
	}
	if err := d.write16(regIPOLA, 0x0000); err != nil {
		return err
	}
	if err := d.write16(regGPPUA, d.pullups); err != nil {
		return err
	}
	return d.Refresh()
}

func (d *Device) write16(reg byte, v uint16) error {
	d.buf[0] = reg
	d.buf[1] = byte(v)
	d.buf[2] = byte(v >> 8)
	return d.bus.Tx(d.Address, d.buf[:3], nil)
}

// Refresh reads GPIOA and GPIOB into the snapshot.
func (d *Device) Refresh() error {
	d.buf[0] = regGPIOA
	if err := d.bus.Tx(d.Address, d.buf[:1], d.buf[1:3]); err != nil {
		return err
	}
	d.state = uint16(d.buf[1]) | uint16(d.buf[2])<<8
	return nil
}

// State returns the last snapshot, bit n = pin n.
func (d *Device) State() uint16 { return d.state }

// Pullup reports whether pin n has its pull-up enabled.
func (d *Device) Pullup(n int) bool {
	return n >= 0 && n < Pins && d.pullups&(1<<uint(n)) != 0
}

// Pin returns an input handle for pin n reading from the snapshot.
func (d *Device) Pin(n int) (Pin, error) {
	if n < 0 || n >= Pins {
		return Pin{}, ErrInvalidPin
	}
	return Pin{d: d, mask: 1 << uint(n)}, nil
}

// Pin is one expander input.
type Pin struct {
	d    *Device
	mask uint16
}

func (p Pin) Get() bool { return p.d.state&p.mask != 0 }
