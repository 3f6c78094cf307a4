// Package platform maps logical pins, buses and ports onto a board. Host
// builds get fakes; RP2 builds get machine peripherals.
package platform

import (
	"context"
	"strconv"
	"sync"

	"smarthome-go/errcode"
	"smarthome-go/services/hal/buttons"
	"smarthome-go/services/hal/dmx"
	"smarthome-go/types"

	"tinygo.org/x/drivers"
)

// maxGPIO is the highest user GPIO on RP2040 (GP0..GP28).
const maxGPIO = 28

// Pin is a GPIO. It satisfies buttons.Input, dmx.Line, dmx.Probe and
// dmx.Enable.
type Pin interface {
	ConfigureInput(pull buttons.Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Number() int
}

type PinFactory interface {
	ByNumber(n int) (Pin, bool)
}

type I2CBusFactory interface {
	ByID(id string) (drivers.I2C, bool)
}

// ConsolePort is a byte stream whose reads honour a context.
type ConsolePort interface {
	Write(p []byte) (int, error)
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
}

// Resources is everything a board offers the home service.
type Resources struct {
	Pins      PinFactory
	I2C       I2CBusFactory
	LineClock dmx.Clock
	Console   func(cfg types.ConsoleConfig) (ConsolePort, error)
}

// Claims records which owner holds each pin.
type Claims struct {
	mu   sync.Mutex
	used map[int]string
}

func NewClaims() *Claims {
	return &Claims{used: make(map[int]string)}
}

func (c *Claims) Claim(owner string, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.used[n]; ok && cur != owner {
		return errcode.Wrap(errcode.PinInUse, "claim", "pin "+strconv.Itoa(n)+" held by "+cur)
	}
	c.used[n] = owner
	return nil
}

func (c *Claims) Release(owner string, n int) {
	c.mu.Lock()
	if cur, ok := c.used[n]; ok && cur == owner {
		delete(c.used, n)
	}
	c.mu.Unlock()
}

func (c *Claims) Owner(n int) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.used[n]
	return o, ok
}

// ClaimPin resolves pin n and records owner against it.
func (r Resources) ClaimPin(c *Claims, owner string, n int) (Pin, error) {
	p, ok := r.Pins.ByNumber(n)
	if !ok {
		return nil, errcode.Wrap(errcode.UnknownPin, "claim", "pin "+strconv.Itoa(n))
	}
	if err := c.Claim(owner, n); err != nil {
		return nil, err
	}
	return p, nil
}

// ClaimInput claims pin n and configures it as a button input.
func (r Resources) ClaimInput(c *Claims, owner string, n int, pull buttons.Pull) (Pin, error) {
	p, err := r.ClaimPin(c, owner, n)
	if err != nil {
		return nil, err
	}
	return p, p.ConfigureInput(pull)
}

// ClaimOutput claims pin n and drives it to initial.
func (r Resources) ClaimOutput(c *Claims, owner string, n int, initial bool) (Pin, error) {
	p, err := r.ClaimPin(c, owner, n)
	if err != nil {
		return nil, err
	}
	return p, p.ConfigureOutput(initial)
}
