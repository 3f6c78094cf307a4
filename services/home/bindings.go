package home

import (
	"smarthome-go/errcode"
	"smarthome-go/services/hal/buttons"
	"smarthome-go/types"
)

type binding struct {
	kind   buttons.Kind
	count  int // multiclick only; 0 matches any count
	dev    Device
	action string
}

func (b binding) matches(ev buttons.Event) bool {
	if ev.Kind != b.kind {
		return false
	}
	return b.kind != buttons.Multiclick || b.count == 0 || b.count == ev.Count
}

// Bindings routes button gestures to device actions. The table is fixed at
// construction.
type Bindings struct {
	by map[string][]binding
}

func NewBindings(cfgs []types.BindingConfig, ds *Devices) (*Bindings, error) {
	b := &Bindings{by: make(map[string][]binding)}
	for _, c := range cfgs {
		k, ok := buttons.ParseKind(c.Event)
		if !ok {
			return nil, errcode.Wrap(errcode.InvalidParams, "binding", "event "+c.Event)
		}
		d, err := ds.Get(c.Device)
		if err != nil {
			return nil, err
		}
		switch c.Action {
		case "on", "off", "toggle":
		default:
			return nil, errcode.Wrap(errcode.InvalidParams, "binding", "action "+c.Action)
		}
		b.by[c.Button] = append(b.by[c.Button], binding{kind: k, count: c.Count, dev: d, action: c.Action})
	}
	return b, nil
}

// Fire applies every binding of button that matches ev, in config order, and
// returns the devices it touched.
func (b *Bindings) Fire(button string, ev buttons.Event) ([]Device, error) {
	var touched []Device
	for _, bd := range b.by[button] {
		if !bd.matches(ev) {
			continue
		}
		if err := Do(bd.dev, bd.action); err != nil {
			return touched, err
		}
		touched = append(touched, bd.dev)
	}
	return touched, nil
}
