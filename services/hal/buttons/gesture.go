package buttons

import "smarthome-go/x/timex"

const (
	DefaultLongPressMs  = 1000
	DefaultMulticlickMs = 400
)

// Thresholds configures gesture timing. Zero fields take the defaults.
type Thresholds struct {
	LongPressMs  uint32
	MulticlickMs uint32
}

func (t Thresholds) withDefaults() Thresholds {
	if t.LongPressMs == 0 {
		t.LongPressMs = DefaultLongPressMs
	}
	if t.MulticlickMs == 0 {
		t.MulticlickMs = DefaultMulticlickMs
	}
	return t
}

type phase uint8

const (
	phaseIdle phase = iota
	phasePressed
	phaseReleasedPending // idle, clicks waiting for the multiclick window
)

// clickCounter accumulates clicks until the multiclick deadline. take
// consumes the count: it is a one-shot resolution, not a running total.
type clickCounter struct {
	count    int
	deadline timex.Ms
	armed    bool
}

func (c *clickCounter) add(now timex.Ms, windowMs uint32) {
	c.count++
	c.deadline = now.Add(windowMs)
	c.armed = true
}

// extend pushes the deadline out from now without counting a click.
func (c *clickCounter) extend(now timex.Ms, windowMs uint32) {
	if c.armed {
		c.deadline = now.Add(windowMs)
	}
}

// withdraw removes the most recent click (a press that became a long press).
func (c *clickCounter) withdraw() {
	if c.count > 0 {
		c.count--
	}
	if c.count == 0 {
		c.armed = false
	}
}

func (c *clickCounter) due(now timex.Ms) bool {
	return c.armed && timex.Reached(now, c.deadline)
}

func (c *clickCounter) take() int {
	n := c.count
	c.count = 0
	c.armed = false
	return n
}

// Classifier turns debounced level transitions into gesture events.
// One Classifier belongs to one input channel for the channel's lifetime.
//
// The multiclick window runs from the last release: a press opens it and
// every release restarts it, so a slow double click still counts as two.
type Classifier struct {
	rest       bool
	th         Thresholds
	prevStable bool
	phase      phase
	phaseAt    timex.Ms
	longDone   bool
	clicks     clickCounter
	q          eventQueue
}

// NewClassifier creates a session in the idle phase. rest is the logical
// level of the unpressed input.
func NewClassifier(rest bool, th Thresholds, now timex.Ms) *Classifier {
	return &Classifier{
		rest:       rest,
		th:         th.withDefaults(),
		prevStable: rest,
		phaseAt:    now,
	}
}

// Update advances the session with the current stable level. It queues at
// most three events per call, in generation order.
func (c *Classifier) Update(stable bool, now timex.Ms) {
	if stable != c.prevStable {
		c.prevStable = stable
		if stable != c.rest {
			c.press(now)
		} else if c.phase == phasePressed {
			c.release(now)
		}
	}

	if c.phase == phasePressed && !c.longDone && timex.Elapsed(now, c.phaseAt) > c.th.LongPressMs {
		c.longDone = true
		c.q.push(Event{Kind: LongPress})
		c.clicks.withdraw()
	}

	if c.phase == phaseReleasedPending && c.clicks.due(now) {
		if n := c.clicks.take(); n > 0 {
			c.q.push(Event{Kind: Multiclick, Count: n})
		}
		c.enter(phaseIdle, now)
	}
}

func (c *Classifier) press(now timex.Ms) {
	c.enter(phasePressed, now)
	c.longDone = false
	c.q.push(Event{Kind: Pressed})
	c.clicks.add(now, c.th.MulticlickMs)
}

func (c *Classifier) release(now timex.Ms) {
	if !c.longDone {
		c.q.push(Event{Kind: Click})
	}
	c.q.push(Event{Kind: Released})
	if c.clicks.count > 0 {
		c.clicks.extend(now, c.th.MulticlickMs)
		c.enter(phaseReleasedPending, now)
		return
	}
	c.enter(phaseIdle, now)
}

func (c *Classifier) enter(p phase, now timex.Ms) {
	c.phase = p
	c.phaseAt = now
}

// Next pops the oldest queued event.
func (c *Classifier) Next() (Event, bool) { return c.q.pop() }

// Queued reports how many events are waiting for dispatch.
func (c *Classifier) Queued() int { return c.q.len() }

// Active reports whether the input is currently held.
func (c *Classifier) Active() bool { return c.phase == phasePressed }
