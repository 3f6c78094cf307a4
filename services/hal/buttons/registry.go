package buttons

import (
	"strings"

	"smarthome-go/errcode"
	"smarthome-go/x/timex"
)

// Input is a raw digital input. machine.Pin, host fakes and expander pins
// all satisfy it.
type Input interface {
	Get() bool
}

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

func (p Pull) String() string {
	switch p {
	case PullUp:
		return "up"
	case PullDown:
		return "down"
	default:
		return "none"
	}
}

// ParsePull accepts "none", "up" and "down" in any letter case; an empty
// string is "none".
func ParsePull(s string) (Pull, bool) {
	switch strings.ToLower(s) {
	case "", "none":
		return PullNone, true
	case "up":
		return PullUp, true
	case "down":
		return PullDown, true
	}
	return PullNone, false
}

// Config describes one input channel. It is immutable after Add.
type Config struct {
	Name         string
	Pin          int
	Rest         bool // logical level when unpressed; overridden by Pull
	Pull         Pull
	DebounceMs   uint32
	LongPressMs  uint32
	MulticlickMs uint32
}

// RestLevel is the unpressed level. A pull resistor defines it.
func (c Config) RestLevel() bool {
	switch c.Pull {
	case PullUp:
		return true
	case PullDown:
		return false
	default:
		return c.Rest
	}
}

// Handler receives every event of a channel. A returned error is not
// swallowed: PollAll reports it to its caller.
type Handler func(name string, ev Event) error

// Channel bundles the filter, the gesture session and the dispatch target of
// one input.
type Channel struct {
	cfg Config
	in  Input
	deb *Debouncer
	cls *Classifier
	h   Handler
}

func (c *Channel) Name() string   { return c.cfg.Name }
func (c *Channel) Config() Config { return c.cfg }

// Pressed reports the debounced logical state.
func (c *Channel) Pressed() bool { return c.deb.Stable() != c.cfg.RestLevel() }

func (c *Channel) poll(now timex.Ms) {
	stable := c.deb.Sample(c.in.Get(), now)
	c.cls.Update(stable, now)
}

// drain hands every queued event to the handler. Each event is consumed
// before its handler runs, so a failing handler sees it once and the queue
// is empty afterwards. The first handler error is returned.
func (c *Channel) drain() error {
	var first error
	for {
		ev, ok := c.cls.q.pop()
		if !ok {
			return first
		}
		if c.h == nil {
			continue
		}
		if err := c.h(c.cfg.Name, ev); err != nil && first == nil {
			first = &errcode.E{C: errcode.Of(err), Op: "dispatch", Msg: c.cfg.Name + " " + ev.String(), Err: err}
		}
	}
}

// Registry owns a fixed, insertion-ordered set of channels.
type Registry struct {
	chans  []*Channel
	byName map[string]*Channel
	sealed bool
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Channel{}}
}

// Add creates a channel. Channels can only be added before the first poll.
func (r *Registry) Add(cfg Config, in Input, h Handler, now timex.Ms) (*Channel, error) {
	if r.sealed {
		return nil, errcode.Wrap(errcode.Busy, "add", "registry already polling")
	}
	if cfg.Name == "" || in == nil {
		return nil, errcode.InvalidParams
	}
	if _, dup := r.byName[cfg.Name]; dup {
		return nil, errcode.Wrap(errcode.InvalidParams, "add", "duplicate name "+cfg.Name)
	}
	rest := cfg.RestLevel()
	ch := &Channel{
		cfg: cfg,
		in:  in,
		deb: NewDebouncer(rest, cfg.DebounceMs, now),
		cls: NewClassifier(rest, Thresholds{LongPressMs: cfg.LongPressMs, MulticlickMs: cfg.MulticlickMs}, now),
		h:   h,
	}
	r.chans = append(r.chans, ch)
	r.byName[cfg.Name] = ch
	return ch, nil
}

func (r *Registry) Lookup(name string) (*Channel, bool) {
	ch, ok := r.byName[name]
	return ch, ok
}

func (r *Registry) Len() int { return len(r.chans) }

// Names lists channels in insertion order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.chans))
	for _, ch := range r.chans {
		out = append(out, ch.cfg.Name)
	}
	return out
}

// PollAll samples, classifies and dispatches every channel in insertion
// order. Every channel is polled and drained even when a handler fails; the
// first handler error is returned. Failed events are not redelivered.
func (r *Registry) PollAll(now timex.Ms) error {
	r.sealed = true
	var first error
	for _, ch := range r.chans {
		ch.poll(now)
		if err := ch.drain(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
