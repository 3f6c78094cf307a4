//go:build !rp2040 && !rp2350

package platform

import (
	"sync"
	"sync/atomic"

	"smarthome-go/errcode"
	"smarthome-go/services/hal/buttons"
	"smarthome-go/services/hal/dmx"
	"smarthome-go/types"

	"tinygo.org/x/drivers"
)

// HostI2C implements drivers.I2C over a per-address register file: a write
// sets the register pointer from its first byte and stores the rest; a read
// continues from the pointer.
type HostI2C struct {
	mu   sync.Mutex
	regs map[uint16]*[256]byte
	Txs  int
}

func NewHostI2C() *HostI2C { return &HostI2C{regs: make(map[uint16]*[256]byte)} }

func (h *HostI2C) file(addr uint16) *[256]byte {
	f, ok := h.regs[addr]
	if !ok {
		f = new([256]byte)
		h.regs[addr] = f
	}
	return f
}

func (h *HostI2C) Tx(addr uint16, w, r []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Txs++
	if len(w) == 0 {
		return errcode.InvalidParams
	}
	f := h.file(addr)
	reg := w[0]
	for i, b := range w[1:] {
		f[reg+byte(i)] = b
	}
	for i := range r {
		r[i] = f[reg+byte(i)]
	}
	return nil
}

// Poke sets a device register as if the device changed it.
func (h *HostI2C) Poke(addr uint16, reg, v byte) {
	h.mu.Lock()
	h.file(addr)[reg] = v
	h.mu.Unlock()
}

func (h *HostI2C) Peek(addr uint16, reg byte) byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.file(addr)[reg]
}

type hostI2CFactory struct {
	buses map[string]drivers.I2C
}

func (f *hostI2CFactory) ByID(id string) (drivers.I2C, bool) {
	b, ok := f.buses[id]
	return b, ok
}

// DefaultI2CFactory creates host I²C buses "i2c0" and "i2c1".
func DefaultI2CFactory() I2CBusFactory {
	return &hostI2CFactory{
		buses: map[string]drivers.I2C{
			"i2c0": NewHostI2C(),
			"i2c1": NewHostI2C(),
		},
	}
}

// FakePin is a host GPIO. Tests drive inputs with Set; reads and writes are
// safe from the engine goroutine.
type FakePin struct {
	number int
	level  atomic.Bool
	output atomic.Bool
	writes atomic.Int32
}

// ConfigureInput switches to input. A pull resistor sets the rest level.
func (p *FakePin) ConfigureInput(pull buttons.Pull) error {
	p.output.Store(false)
	if pull != buttons.PullNone {
		p.level.Store(pull == buttons.PullUp)
	}
	return nil
}

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.output.Store(true)
	p.level.Store(initial)
	return nil
}

func (p *FakePin) Set(level bool) { p.level.Store(level); p.writes.Add(1) }
func (p *FakePin) Get() bool      { return p.level.Load() }
func (p *FakePin) Number() int    { return p.number }
func (p *FakePin) IsOutput() bool { return p.output.Load() }

// Writes counts Set calls since creation.
func (p *FakePin) Writes() int { return int(p.writes.Load()) }

// HostPinFactory hands out one *FakePin per GP number.
type HostPinFactory struct {
	once sync.Once
	pins [maxGPIO + 1]FakePin
}

func (f *HostPinFactory) ByNumber(n int) (Pin, bool) {
	p, ok := f.Get(n)
	if !ok {
		return nil, false
	}
	return p, true
}

// Get exposes the underlying *FakePin so tests can drive it.
func (f *HostPinFactory) Get(n int) (*FakePin, bool) {
	if n < 0 || n > maxGPIO {
		return nil, false
	}
	f.once.Do(func() {
		for i := range f.pins {
			f.pins[i].number = i
		}
	})
	return &f.pins[n], true
}

func DefaultPinFactory() PinFactory { return &HostPinFactory{} }

// DefaultLineClock runs line engines unpaced on the host.
func DefaultLineClock() dmx.Clock { return dmx.NoWait }

// DefaultResources is the host board: fake pins, register-file I²C, no console.
func DefaultResources() Resources {
	return Resources{
		Pins:      DefaultPinFactory(),
		I2C:       DefaultI2CFactory(),
		LineClock: DefaultLineClock(),
		Console: func(types.ConsoleConfig) (ConsolePort, error) {
			return nil, errcode.Unsupported
		},
	}
}
