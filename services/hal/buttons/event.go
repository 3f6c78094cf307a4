package buttons

import "strconv"

// Kind tags an Event.
type Kind uint8

const (
	Pressed Kind = iota + 1
	Released
	Click
	Multiclick
	LongPress
)

func (k Kind) String() string {
	switch k {
	case Pressed:
		return "pressed"
	case Released:
		return "released"
	case Click:
		return "click"
	case Multiclick:
		return "multiclick"
	case LongPress:
		return "longpress"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k := Pressed; k <= LongPress; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Event is one gesture produced by a Classifier. Count is only meaningful for
// Multiclick and is always >= 1 there.
type Event struct {
	Kind  Kind
	Count int
}

func (e Event) String() string {
	if e.Kind == Multiclick {
		return e.Kind.String() + "(" + strconv.Itoa(e.Count) + ")"
	}
	return e.Kind.String()
}

// eventQueueLen bounds the events one channel can hold between drains. A
// single poll produces at most three, so reaching the bound means the
// registry stopped draining.
const eventQueueLen = 10

type eventQueue struct {
	buf  [eventQueueLen]Event
	head int
	n    int
}

func (q *eventQueue) push(ev Event) {
	if q.n == eventQueueLen {
		panic("buttons: event queue overflow")
	}
	q.buf[(q.head+q.n)%eventQueueLen] = ev
	q.n++
}

func (q *eventQueue) peek() (Event, bool) {
	if q.n == 0 {
		return Event{}, false
	}
	return q.buf[q.head], true
}

func (q *eventQueue) pop() (Event, bool) {
	ev, ok := q.peek()
	if ok {
		q.head = (q.head + 1) % eventQueueLen
		q.n--
	}
	return ev, ok
}

func (q *eventQueue) len() int { return q.n }
