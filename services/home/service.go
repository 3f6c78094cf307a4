// Package home composes buttons, devices and the DMX output into one
// service. A single goroutine owns all of it: button polls, send ticks and
// bus control requests are serialised by its select loop.
package home

import (
	"context"
	"strconv"
	"time"

	"smarthome-go/bus"
	"smarthome-go/drivers/mcp23017"
	"smarthome-go/errcode"
	"smarthome-go/services/hal/buttons"
	"smarthome-go/services/hal/dmx"
	"smarthome-go/services/hal/platform"
	"smarthome-go/types"
	"smarthome-go/x/timex"
)

// Topics.
var (
	topicState        = bus.T("home", "state")
	topicDMXStats     = bus.T("home", "dmx", "stats")
	topicDeviceCtl    = bus.T("home", "device", bus.Single, "control", bus.Single)
	topicDMXCtl       = bus.T("home", "dmx", "control", bus.Single)
	topicButtonPrefix = bus.T("home", "button")
	topicDevicePrefix = bus.T("home", "device")
)

// TopicButtonEvent is where events of button name are published.
func TopicButtonEvent(name string, k buttons.Kind) bus.Topic {
	return topicButtonPrefix.Append(name, "event", k.String())
}

// TopicDeviceValue carries the retained value of a device.
func TopicDeviceValue(name string) bus.Topic {
	return topicDevicePrefix.Append(name, "value")
}

// TopicDeviceControl is the request topic for op on a device.
func TopicDeviceControl(name, op string) bus.Topic {
	return topicDevicePrefix.Append(name, "control", op)
}

// TopicDMXControl is the request topic for a universe operation.
func TopicDMXControl(op string) bus.Topic {
	return bus.T("home", "dmx", "control", op)
}

// Options override parts of what New builds from the config.
type Options struct {
	// Sender replaces the pin-driven DMX transmitter (e.g. a USB-RS485 port).
	Sender dmx.Sender
}

type Service struct {
	conn   *bus.Connection
	res    platform.Resources
	claims *platform.Claims
	cfg    types.HomeConfig

	reg   *buttons.Registry
	exp   *mcp23017.Device
	devs  *Devices
	binds *Bindings

	uni   *dmx.Universe
	out   dmx.Sender
	eng   *dmx.Engine
	rx    *dmx.Receiver
	stats types.DMXStats
}

// New builds the service from a normalised config. It claims every pin it
// uses; a conflict is an error.
func New(conn *bus.Connection, res platform.Resources, cfg types.HomeConfig, opts Options) (*Service, error) {
	s := &Service{
		conn:   conn,
		res:    res,
		claims: platform.NewClaims(),
		cfg:    cfg,
		reg:    buttons.NewRegistry(),
		uni:    dmx.NewUniverse(cfg.DMX.Channels),
	}
	var err error
	if s.devs, err = NewDevices(cfg.Devices); err != nil {
		return nil, err
	}
	if s.binds, err = NewBindings(cfg.Bindings, s.devs); err != nil {
		return nil, err
	}
	if err = s.buildExpander(); err != nil {
		return nil, err
	}
	if err = s.buildButtons(); err != nil {
		return nil, err
	}
	if err = s.buildDMX(opts); err != nil {
		return nil, err
	}
	if err = s.devs.Apply(s.uni); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) buildExpander() error {
	if s.cfg.Expander == nil {
		return nil
	}
	i2c, ok := s.res.I2C.ByID(s.cfg.Expander.Bus)
	if !ok {
		return errcode.Wrap(errcode.InvalidParams, "expander", "bus "+s.cfg.Expander.Bus)
	}
	var pullups uint16
	for _, b := range s.cfg.Buttons {
		if p, _ := buttons.ParsePull(b.Pull); b.Source == types.SourceExpander && p == buttons.PullUp {
			pullups |= 1 << uint(b.Pin)
		}
	}
	s.exp = mcp23017.New(i2c)
	return s.exp.Configure(mcp23017.Config{Address: s.cfg.Expander.Addr, Pullups: &pullups})
}

func (s *Service) buildButtons() error {
	now := timex.Ticks()
	for _, b := range s.cfg.Buttons {
		pull, _ := buttons.ParsePull(b.Pull)
		var in buttons.Input
		if b.Source == types.SourceExpander {
			p, err := s.exp.Pin(b.Pin)
			if err != nil {
				return errcode.Wrap(errcode.UnknownPin, "button", b.Name)
			}
			in = p
		} else {
			p, err := s.res.ClaimInput(s.claims, "button:"+b.Name, b.Pin, pull)
			if err != nil {
				return err
			}
			in = p
		}
		_, err := s.reg.Add(buttons.Config{
			Name:         b.Name,
			Pin:          b.Pin,
			Rest:         b.Rest,
			Pull:         pull,
			DebounceMs:   b.DebounceMs,
			LongPressMs:  b.LongPressMs,
			MulticlickMs: b.MulticlickMs,
		}, in, s.onButton, now)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) buildDMX(opts Options) error {
	d := s.cfg.DMX
	if d.RxPin != nil {
		p, err := s.res.ClaimInput(s.claims, "dmx:rx", *d.RxPin, buttons.PullUp)
		if err != nil {
			return err
		}
		s.rx = dmx.NewReceiver(p, s.res.LineClock, dmx.NewUniverse(d.Channels))
	}
	if opts.Sender != nil {
		s.out = opts.Sender
		return nil
	}
	line, err := s.res.ClaimOutput(s.claims, "dmx:tx", d.TxPin, true)
	if err != nil {
		return err
	}
	var en dmx.Enable
	if d.DirPin != nil {
		p, err := s.res.ClaimOutput(s.claims, "dmx:dir", *d.DirPin, false)
		if err != nil {
			return err
		}
		en = p
	}
	s.eng = dmx.NewEngine(line, s.res.LineClock)
	s.out = dmx.NewTransmitter(s.eng, en)
	return nil
}

func (s *Service) Universe() *dmx.Universe     { return s.uni }
func (s *Service) Devices() *Devices           { return s.devs }
func (s *Service) Registry() *buttons.Registry { return s.reg }

// Stats returns send counters merged with receiver counters.
func (s *Service) Stats() types.DMXStats {
	st := s.stats
	if s.rx != nil {
		r := s.rx.Stats()
		st.RxFrames, st.FramingErrors, st.Overruns = r.Frames, r.FramingErrors, r.Overruns
	}
	return st
}

// Run serves until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if s.eng != nil {
		go s.eng.Run(ctx)
	}
	if s.rx != nil {
		go s.rx.Run(ctx)
	}
	devSub := s.conn.Subscribe(topicDeviceCtl)
	dmxSub := s.conn.Subscribe(topicDMXCtl)
	defer s.conn.Unsubscribe(devSub)
	defer s.conn.Unsubscribe(dmxSub)

	poll := time.NewTicker(time.Duration(s.cfg.PollMs) * time.Millisecond)
	defer poll.Stop()
	send := time.NewTicker(timex.PeriodFromHz(s.cfg.DMX.FPS))
	defer send.Stop()

	for _, d := range s.devs.All() {
		s.publishDevice(d)
	}
	s.publishState("ready", "running")
	println("[home] running:", len(s.cfg.Buttons), "buttons,", len(s.cfg.Devices), "devices,", s.uni.Len(), "channels")

	for {
		select {
		case <-ctx.Done():
			s.publishState("stopped", "context_cancelled")
			return
		case <-poll.C:
			s.PollButtons(timex.Ticks())
		case <-send.C:
			s.SendFrame(ctx)
		case m := <-devSub.Channel():
			s.handleDevice(m)
		case m := <-dmxSub.Channel():
			s.handleDMX(m)
		}
	}
}

// PollButtons runs one registry pass. Dispatch errors are logged and the
// failed events dropped.
func (s *Service) PollButtons(now timex.Ms) {
	if s.exp != nil {
		if err := s.exp.Refresh(); err != nil {
			println("[home] expander refresh:", err.Error())
		}
	}
	if err := s.reg.PollAll(now); err != nil {
		println("[home] dispatch:", err.Error())
	}
}

// sendTimeout bounds one frame including drain. A full universe is ~23 ms.
const sendTimeout = 100 * time.Millisecond

// SendFrame steps the device ramps, writes outputs and sends one frame.
func (s *Service) SendFrame(ctx context.Context) {
	for _, d := range s.devs.Step() {
		s.publishDevice(d)
	}
	if err := s.devs.Apply(s.uni); err != nil {
		println("[dmx] apply:", err.Error())
		return
	}
	sctx, cancel := context.WithTimeout(ctx, sendTimeout)
	err := s.out.Send(sctx, s.uni)
	cancel()
	if err != nil {
		s.stats.SendErrors++
		println("[dmx] send failed:", err.Error())
		return
	}
	s.stats.Frames++
}

func (s *Service) onButton(name string, ev buttons.Event) error {
	s.conn.Publish(s.conn.NewMessage(TopicButtonEvent(name, ev.Kind), types.ButtonEvent{
		Button: name, Kind: ev.Kind.String(), Count: ev.Count, TS: timex.NowMs(),
	}, false))
	touched, err := s.binds.Fire(name, ev)
	for _, d := range touched {
		s.publishDevice(d)
	}
	return err
}

func (s *Service) publishDevice(d Device) {
	s.conn.Publish(s.conn.NewMessage(TopicDeviceValue(d.Name()), d.Value(), true))
}

func (s *Service) publishState(level, status string) {
	s.conn.Publish(s.conn.NewMessage(topicState, types.ServiceState{
		Level: level, Status: status, TS: timex.NowMs(),
	}, true))
}

func (s *Service) reply(m *bus.Message, v any, err error) {
	if err != nil {
		s.conn.Reply(m, types.Reply{Error: string(errcode.Of(err))}, false)
		return
	}
	s.conn.Reply(m, types.Reply{OK: true, Value: v}, false)
}

func tokenString(t bus.Topic, i int) string {
	if i >= len(t) {
		return ""
	}
	s, _ := t[i].(string)
	return s
}

func intPayload(p any) (int, error) {
	switch v := p.(type) {
	case int:
		return v, nil
	case types.DeviceControl:
		return v.Level, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, errcode.InvalidPayload
		}
		return n, nil
	}
	return 0, errcode.InvalidPayload
}

// handleDevice serves home/device/<name>/control/<op>.
func (s *Service) handleDevice(m *bus.Message) {
	name, op := tokenString(m.Topic, 2), tokenString(m.Topic, 4)
	d, err := s.devs.Get(name)
	if err != nil {
		s.reply(m, nil, err)
		return
	}
	switch op {
	case "get":
	case "set":
		var lvl int
		if lvl, err = intPayload(m.Payload); err == nil {
			err = d.SetLevel(lvl)
		}
	default:
		err = Do(d, op)
	}
	if err != nil {
		s.reply(m, nil, err)
		return
	}
	v := d.Value()
	if op != "get" {
		s.publishDevice(d)
	}
	s.reply(m, v, nil)
}

// handleDMX serves home/dmx/control/<op>. Raw writes to a channel owned by a
// device last until the next send tick re-applies the device output.
func (s *Service) handleDMX(m *bus.Message) {
	var (
		v   any
		err error
	)
	switch op := tokenString(m.Topic, 3); op {
	case "channel":
		w, ok := m.Payload.(types.ChannelWrite)
		if !ok {
			err = errcode.InvalidPayload
			break
		}
		err = s.uni.SetChannel(w.Index, w.Value)
	case "fill":
		var n int
		if n, err = intPayload(m.Payload); err == nil {
			err = s.uni.Fill(n)
		}
	case "blackout":
		s.devs.Blackout()
		s.uni.Blackout()
		for _, d := range s.devs.All() {
			s.publishDevice(d)
		}
	case "dump":
		v = s.uni.Bytes()
	case "stats":
		st := s.Stats()
		s.conn.Publish(s.conn.NewMessage(topicDMXStats, st, true))
		v = st
	case "devices":
		vals := make([]types.DeviceValue, 0, len(s.devs.All()))
		for _, d := range s.devs.All() {
			vals = append(vals, d.Value())
		}
		v = vals
	default:
		err = errcode.Wrap(errcode.UnknownCommand, "dmx", op)
	}
	s.reply(m, v, err)
}
