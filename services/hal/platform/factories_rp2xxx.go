//go:build rp2040 || rp2350

package platform

import (
	"context"
	"machine"
	"time"

	"github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"

	"smarthome-go/errcode"
	"smarthome-go/services/hal/buttons"
	"smarthome-go/services/hal/dmx"
	"smarthome-go/types"
)

// DefaultI2CFactory configures i2c0 and i2c1 on board-default pins at 400 kHz.
func DefaultI2CFactory() I2CBusFactory {
	f := &rp2I2CFactory{buses: make(map[string]drivers.I2C)}

	b0 := machine.I2C0
	_ = b0.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	})
	f.buses["i2c0"] = b0

	b1 := machine.I2C1
	_ = b1.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C1_SDA_PIN,
		SCL:       machine.I2C1_SCL_PIN,
	})
	f.buses["i2c1"] = b1

	return f
}

type rp2I2CFactory struct {
	buses map[string]drivers.I2C
}

func (f *rp2I2CFactory) ByID(id string) (drivers.I2C, bool) {
	b, ok := f.buses[id]
	return b, ok
}

// DefaultPinFactory maps logical numbers to machine.Pin(n) (Pico GP numbering).
func DefaultPinFactory() PinFactory { return rp2PinFactory{} }

type rp2PinFactory struct{}

func (rp2PinFactory) ByNumber(n int) (Pin, bool) {
	if n < 0 || n > maxGPIO {
		return nil, false
	}
	return &rp2Pin{p: machine.Pin(n), n: n}, true
}

type rp2Pin struct {
	p machine.Pin
	n int
}

func (r *rp2Pin) ConfigureInput(pull buttons.Pull) error {
	var mode machine.PinMode
	switch pull {
	case buttons.PullUp:
		mode = machine.PinInputPullup
	case buttons.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2Pin) ConfigureOutput(initial bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r *rp2Pin) Set(level bool) { r.p.Set(level) }
func (r *rp2Pin) Get() bool      { return r.p.Get() }
func (r *rp2Pin) Number() int    { return r.n }

// busyClock spins on the microsecond timer. If the engine falls more than
// maxLagUs behind it resynchronises instead of bursting.
type busyClock struct {
	next time.Time
}

const maxLagUs = 20

func (c *busyClock) Wait() {
	c.next = c.next.Add(time.Microsecond)
	now := time.Now()
	if now.Sub(c.next) > maxLagUs*time.Microsecond {
		c.next = now
		return
	}
	for time.Now().Before(c.next) {
	}
}

func DefaultLineClock() dmx.Clock { return &busyClock{next: time.Now()} }

type rp2ConsolePort struct{ u *uartx.UART }

func (p *rp2ConsolePort) Write(b []byte) (int, error) { return p.u.Write(b) }
func (p *rp2ConsolePort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	return p.u.RecvSomeContext(ctx, buf)
}

func openConsole(cfg types.ConsoleConfig) (ConsolePort, error) {
	var hw *uartx.UART
	switch cfg.UART {
	case "uart0":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	default:
		return nil, errcode.Wrap(errcode.InvalidParams, "console", "uart "+cfg.UART)
	}
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: cfg.Baud,
		TX:       machine.Pin(cfg.TX),
		RX:       machine.Pin(cfg.RX),
	}); err != nil {
		return nil, err
	}
	if err := hw.SetFormat(8, 1, uartx.ParityNone); err != nil {
		return nil, err
	}
	return &rp2ConsolePort{u: hw}, nil
}

func DefaultResources() Resources {
	return Resources{
		Pins:      DefaultPinFactory(),
		I2C:       DefaultI2CFactory(),
		LineClock: DefaultLineClock(),
		Console:   openConsole,
	}
}
