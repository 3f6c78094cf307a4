package home

import (
	"sort"
	"strconv"

	"smarthome-go/errcode"
	"smarthome-go/services/hal/dmx"
	"smarthome-go/types"
	"smarthome-go/x/mathx"
	"smarthome-go/x/ramp"
	"smarthome-go/x/timex"
)

// Device is a load on one DMX channel.
type Device interface {
	Name() string
	Kind() string
	Room() string
	Channel() int

	On()
	Off()
	Toggle()
	// SetLevel requests a level in [0, 255]; 0 means off.
	SetLevel(level int) error
	IsOn() bool

	// Output is the value currently written to the channel.
	Output() int
	// Step advances the output one send tick and reports a change.
	Step() bool
	// Settle jumps the output to its target.
	Settle()
	Value() types.DeviceValue
}

type record struct {
	name, room string
	channel    int
}

func (r record) Name() string { return r.name }
func (r record) Room() string { return r.room }
func (r record) Channel() int { return r.channel }

func checkLevel(level int) error {
	if !mathx.InRange(level, 0, 255) {
		return errcode.Wrap(errcode.InvalidValue, "set_level", strconv.Itoa(level))
	}
	return nil
}

// Binary is a relay-like load: 255 when on, 0 when off.
type Binary struct {
	record
	on bool
}

func (b *Binary) Kind() string { return types.KindBinary }
func (b *Binary) On()          { b.on = true }
func (b *Binary) Off()         { b.on = false }
func (b *Binary) Toggle()      { b.on = !b.on }
func (b *Binary) IsOn() bool   { return b.on }
func (b *Binary) Step() bool   { return false }
func (b *Binary) Settle()      {}

func (b *Binary) SetLevel(level int) error {
	if err := checkLevel(level); err != nil {
		return err
	}
	b.on = level > 0
	return nil
}

func (b *Binary) Output() int {
	if b.on {
		return 255
	}
	return 0
}

func (b *Binary) Value() types.DeviceValue {
	return types.DeviceValue{
		Device: b.name, Kind: types.KindBinary, Room: b.room,
		Level: b.Output(), Target: b.Output(), On: b.on, TS: timex.NowMs(),
	}
}

// Dimmable ramps its output toward a target by StepSpeed per send tick.
// Off is Min, full on is Max; a zero step speed jumps.
type Dimmable struct {
	record
	min, max  int
	stepSpeed int
	level     int
	target    int
}

func (d *Dimmable) Kind() string { return types.KindDimmable }
func (d *Dimmable) On()          { d.target = d.max }
func (d *Dimmable) Off()         { d.target = d.min }
func (d *Dimmable) IsOn() bool   { return d.target > d.min }

// Toggle turns a lit device off and a dark one fully on.
func (d *Dimmable) Toggle() {
	if d.IsOn() {
		d.Off()
		return
	}
	d.On()
}

// SetLevel clamps non-zero levels into [Min, Max].
func (d *Dimmable) SetLevel(level int) error {
	if err := checkLevel(level); err != nil {
		return err
	}
	if level == 0 {
		d.Off()
		return nil
	}
	d.target = mathx.Clamp(level, d.min, d.max)
	return nil
}

func (d *Dimmable) Output() int { return d.level }
func (d *Dimmable) Target() int { return d.target }

func (d *Dimmable) Step() bool {
	next := ramp.Toward(d.level, d.target, d.stepSpeed)
	changed := next != d.level
	d.level = next
	return changed
}

func (d *Dimmable) Settle() { d.level = d.target }

func (d *Dimmable) Value() types.DeviceValue {
	return types.DeviceValue{
		Device: d.name, Kind: types.KindDimmable, Room: d.room,
		Level: d.level, Target: d.target, On: d.IsOn(), TS: timex.NowMs(),
	}
}

// NewDevice builds a device from a normalised config.
func NewDevice(c types.DeviceConfig) (Device, error) {
	r := record{name: c.Name, room: c.Room, channel: c.Channel}
	switch c.Kind {
	case types.KindBinary:
		return &Binary{record: r, on: c.Initial > 0}, nil
	case types.KindDimmable:
		return &Dimmable{record: r, min: c.Min, max: c.Max, stepSpeed: c.StepSpeed, level: c.Initial, target: c.Initial}, nil
	}
	return nil, errcode.Wrap(errcode.InvalidParams, "device", c.Name+": kind "+c.Kind)
}

// Devices is the ordered device table.
type Devices struct {
	list   []Device
	byName map[string]Device
}

func NewDevices(cfgs []types.DeviceConfig) (*Devices, error) {
	ds := &Devices{byName: make(map[string]Device, len(cfgs))}
	for _, c := range cfgs {
		d, err := NewDevice(c)
		if err != nil {
			return nil, err
		}
		if _, dup := ds.byName[d.Name()]; dup {
			return nil, errcode.Wrap(errcode.InvalidParams, "device", "duplicate "+d.Name())
		}
		ds.list = append(ds.list, d)
		ds.byName[d.Name()] = d
	}
	return ds, nil
}

func (ds *Devices) Get(name string) (Device, error) {
	d, ok := ds.byName[name]
	if !ok {
		return nil, errcode.Wrap(errcode.UnknownDevice, "device", name)
	}
	return d, nil
}

func (ds *Devices) All() []Device { return ds.list }

// Rooms lists the distinct rooms, sorted.
func (ds *Devices) Rooms() []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range ds.list {
		if r := d.Room(); r != "" && !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	sort.Strings(out)
	return out
}

func (ds *Devices) InRoom(room string) []Device {
	var out []Device
	for _, d := range ds.list {
		if d.Room() == room {
			out = append(out, d)
		}
	}
	return out
}

// Step advances every device and returns those whose output changed.
func (ds *Devices) Step() []Device {
	var changed []Device
	for _, d := range ds.list {
		if d.Step() {
			changed = append(changed, d)
		}
	}
	return changed
}

// Blackout turns every device off at once, skipping any ramp.
func (ds *Devices) Blackout() {
	for _, d := range ds.list {
		d.Off()
		d.Settle()
	}
}

// Apply writes every device output into u.
func (ds *Devices) Apply(u *dmx.Universe) error {
	for _, d := range ds.list {
		if err := u.SetChannel(d.Channel(), d.Output()); err != nil {
			return err
		}
	}
	return nil
}

// Do runs a named action on d.
func Do(d Device, action string) error {
	switch action {
	case "on":
		d.On()
	case "off":
		d.Off()
	case "toggle":
		d.Toggle()
	default:
		return errcode.Wrap(errcode.UnknownCommand, "device", action)
	}
	return nil
}
