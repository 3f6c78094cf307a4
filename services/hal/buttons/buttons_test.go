package buttons

import (
	"errors"
	"testing"

	"smarthome-go/errcode"
	"smarthome-go/x/timex"
)

type fakeInput struct{ level bool }

func (f *fakeInput) Get() bool { return f.level }

type recorder struct {
	got []string // "name:event"
	ev  []Event
}

func (r *recorder) handle(name string, ev Event) error {
	r.got = append(r.got, name+":"+ev.String())
	r.ev = append(r.ev, ev)
	return nil
}

func kinds(evs []Event) []string {
	out := make([]string, 0, len(evs))
	for _, e := range evs {
		out = append(out, e.String())
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// step polls the registry once per millisecond over [from, to).
func step(t *testing.T, r *Registry, from, to timex.Ms) {
	t.Helper()
	for now := from; now != to; now++ {
		if err := r.PollAll(now); err != nil {
			t.Fatalf("PollAll(%d): %v", now, err)
		}
	}
}

// -----------------------------------------------------------------------------
// Debounce
// -----------------------------------------------------------------------------

func TestDebounceStableInputChangesOnce(t *testing.T) {
	d := NewDebouncer(false, 4, 0)
	changes := 0
	prev := d.Stable()
	for now := timex.Ms(0); now < 100; now++ {
		raw := now >= 10
		if got := d.Sample(raw, now); got != prev {
			changes++
			prev = got
			if now != 15 {
				t.Fatalf("stable level committed at %d ms, want 15", now)
			}
		}
	}
	if changes != 1 {
		t.Fatalf("stable output changed %d times, want 1", changes)
	}
}

func TestDebounceSuppressesFastOscillation(t *testing.T) {
	d := NewDebouncer(false, 4, 0)
	for now := timex.Ms(0); now < 500; now++ {
		raw := (now/2)%2 == 1 // toggles every 2 ms
		if d.Sample(raw, now) {
			t.Fatalf("bounce leaked through at %d ms", now)
		}
	}
}

func TestDebounceAcrossCounterWrap(t *testing.T) {
	start := timex.Ms(0xFFFF_FFFE)
	d := NewDebouncer(false, 4, start)
	now := start
	for i := 0; i < 10; i++ {
		d.Sample(true, now)
		now++
	}
	if !d.Stable() {
		t.Fatal("debouncer never committed after the tick counter wrapped")
	}
}

func TestDebounceDefaultWindow(t *testing.T) {
	if w := NewDebouncer(false, 0, 0).WindowMs(); w != DefaultDebounceMs {
		t.Fatalf("default window = %d, want %d", w, DefaultDebounceMs)
	}
}

// -----------------------------------------------------------------------------
// Gestures through the registry
// -----------------------------------------------------------------------------

func newSingle(t *testing.T, cfg Config) (*Registry, *fakeInput, *recorder) {
	t.Helper()
	r := NewRegistry()
	in := &fakeInput{level: cfg.RestLevel()}
	rec := &recorder{}
	if _, err := r.Add(cfg, in, rec.handle, 0); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return r, in, rec
}

func TestShortPressYieldsPressClickRelease(t *testing.T) {
	r, in, rec := newSingle(t, Config{Name: "hall", Pull: PullDown})

	step(t, r, 0, 100)
	in.level = true
	step(t, r, 100, 300)
	in.level = false
	step(t, r, 300, 320)

	if want := []string{"pressed", "click", "released"}; !equal(kinds(rec.ev), want) {
		t.Fatalf("events = %v, want %v", kinds(rec.ev), want)
	}

	// Window expiry resolves the isolated click as Multiclick(1).
	step(t, r, 320, 1000)
	if want := []string{"pressed", "click", "released", "multiclick(1)"}; !equal(kinds(rec.ev), want) {
		t.Fatalf("events = %v, want %v", kinds(rec.ev), want)
	}
}

func TestLongPressSuppressesClick(t *testing.T) {
	r, in, rec := newSingle(t, Config{Name: "hall", Pull: PullDown})

	step(t, r, 0, 100)
	in.level = true
	step(t, r, 100, 1600)
	in.level = false
	step(t, r, 1600, 3000)

	if want := []string{"pressed", "longpress", "released"}; !equal(kinds(rec.ev), want) {
		t.Fatalf("events = %v, want %v", kinds(rec.ev), want)
	}
}

func TestLongPressFiresOnceAfterThreshold(t *testing.T) {
	r, in, rec := newSingle(t, Config{Name: "hall", Pull: PullDown, LongPressMs: 500})

	in.level = true
	step(t, r, 0, 5) // not yet debounced
	step(t, r, 5, 6)
	if len(rec.ev) != 1 || rec.ev[0].Kind != Pressed {
		t.Fatalf("press not reported at debounce commit: %v", kinds(rec.ev))
	}
	step(t, r, 6, 505)
	if len(rec.ev) != 1 {
		t.Fatalf("long press fired early: %v", kinds(rec.ev))
	}
	step(t, r, 505, 507)
	if len(rec.ev) != 2 || rec.ev[1].Kind != LongPress {
		t.Fatalf("long press missing after threshold: %v", kinds(rec.ev))
	}
	step(t, r, 507, 3000)
	if len(rec.ev) != 2 {
		t.Fatalf("long press repeated: %v", kinds(rec.ev))
	}
}

func TestMulticlickCountsPressesInWindow(t *testing.T) {
	r, in, rec := newSingle(t, Config{Name: "hall", Pull: PullDown})

	now := timex.Ms(0)
	step(t, r, now, 50)
	now = 50
	for i := 0; i < 3; i++ {
		in.level = true
		step(t, r, now, now+60)
		now += 60
		in.level = false
		step(t, r, now, now+60)
		now += 60
	}
	step(t, r, now, now+1000)

	clicks, multis := 0, 0
	for _, ev := range rec.ev {
		switch ev.Kind {
		case Click:
			clicks++
		case Multiclick:
			multis++
			if ev.Count != 3 {
				t.Fatalf("Multiclick count = %d, want 3", ev.Count)
			}
		}
	}
	if clicks != 3 || multis != 1 {
		t.Fatalf("clicks=%d multiclicks=%d, want 3 and 1 (%v)", clicks, multis, kinds(rec.ev))
	}
	if last := rec.ev[len(rec.ev)-1]; last.Kind != Multiclick {
		t.Fatalf("multiclick must come after the last release, got %v", kinds(rec.ev))
	}
}

func TestLongPressDoesNotCountTowardMulticlick(t *testing.T) {
	r, in, rec := newSingle(t, Config{Name: "hall", Pull: PullDown})

	in.level = true
	step(t, r, 0, 60)
	in.level = false
	step(t, r, 60, 120)
	in.level = true
	step(t, r, 120, 1400)
	in.level = false
	step(t, r, 1400, 2500)

	want := []string{"pressed", "click", "released", "pressed", "longpress", "released", "multiclick(1)"}
	if !equal(kinds(rec.ev), want) {
		t.Fatalf("events = %v, want %v", kinds(rec.ev), want)
	}
}

func TestPullUpInputPressesLow(t *testing.T) {
	r, in, rec := newSingle(t, Config{Name: "door", Pull: PullUp, Rest: false})
	if !in.level {
		t.Fatal("pull-up channel must rest high")
	}
	in.level = false
	step(t, r, 0, 20)
	if len(rec.ev) != 1 || rec.ev[0].Kind != Pressed {
		t.Fatalf("events = %v, want [pressed]", kinds(rec.ev))
	}
	ch, _ := r.Lookup("door")
	if !ch.Pressed() {
		t.Fatal("channel should report pressed")
	}
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

func TestDispatchFollowsInsertionOrder(t *testing.T) {
	r := NewRegistry()
	rec := &recorder{}
	inputs := map[string]*fakeInput{}
	for _, name := range []string{"zeta", "alpha", "mid"} {
		in := &fakeInput{}
		inputs[name] = in
		if _, err := r.Add(Config{Name: name, Pin: len(inputs)}, in, rec.handle, 0); err != nil {
			t.Fatalf("Add(%s): %v", name, err)
		}
	}
	for _, in := range inputs {
		in.level = true
	}
	step(t, r, 0, 20)

	want := []string{"zeta:pressed", "alpha:pressed", "mid:pressed"}
	if !equal(rec.got, want) {
		t.Fatalf("dispatch = %v, want %v", rec.got, want)
	}
	if names := r.Names(); !equal(names, []string{"zeta", "alpha", "mid"}) {
		t.Fatalf("Names() = %v", names)
	}
}

func TestHandlerErrorPropagatesAndDrainContinues(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	var a, b []string
	failOnce := true
	inA, inB := &fakeInput{}, &fakeInput{}
	_, _ = r.Add(Config{Name: "a"}, inA, func(_ string, ev Event) error {
		if failOnce {
			failOnce = false
			return boom
		}
		a = append(a, ev.String())
		return nil
	}, 0)
	_, _ = r.Add(Config{Name: "b"}, inB, func(_ string, ev Event) error {
		b = append(b, ev.String())
		return nil
	}, 0)

	inA.level, inB.level = true, true
	var firstErr error
	for now := timex.Ms(0); now < 20; now++ {
		if err := r.PollAll(now); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if !errors.Is(firstErr, boom) {
		t.Fatalf("PollAll error = %v, want wrapped boom", firstErr)
	}
	if len(a) != 0 {
		t.Fatalf("channel a events = %v, the failed press must not be redelivered", a)
	}
	if !equal(b, []string{"pressed"}) {
		t.Fatalf("channel b must still be polled, got %v", b)
	}

	inA.level = false
	for now := timex.Ms(20); now < 600; now++ {
		if err := r.PollAll(now); err != nil {
			t.Fatalf("PollAll(%d) = %v after the handler recovered", now, err)
		}
	}
	if !equal(a, []string{"click", "released", "multiclick(1)"}) {
		t.Fatalf("channel a events = %v", a)
	}
}

func TestFailingHandlerNeverOverflowsQueue(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	var failed, ok []string
	bad, good := &fakeInput{}, &fakeInput{}
	_, _ = r.Add(Config{Name: "bad"}, bad, func(_ string, ev Event) error {
		failed = append(failed, ev.String())
		return boom
	}, 0)
	_, _ = r.Add(Config{Name: "good"}, good, func(_ string, ev Event) error {
		ok = append(ok, ev.String())
		return nil
	}, 0)

	defer func() {
		if p := recover(); p != nil {
			t.Fatalf("PollAll panicked after %d handler calls: %v", len(failed), p)
		}
	}()
	now := timex.Ms(0)
	errs := 0
	for cycle := 0; cycle < 12; cycle++ {
		for _, level := range []bool{true, false} {
			bad.level, good.level = level, level
			for i := 0; i < 60; i++ {
				if err := r.PollAll(now); err != nil {
					errs++
				}
				now++
			}
		}
	}
	for i := 0; i < 1000; i++ {
		_ = r.PollAll(now)
		now++
	}
	if len(ok) == 0 || !equal(failed, ok) {
		t.Fatalf("failing channel saw %v, twin saw %v; each event must be handed over once", failed, ok)
	}
	if errs == 0 {
		t.Fatal("handler errors were not reported")
	}
	if ch, _ := r.Lookup("bad"); ch.cls.q.len() != 0 {
		t.Fatalf("%d events left queued", ch.cls.q.len())
	}
}

func TestRegistryIsStaticAfterFirstPoll(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Add(Config{Name: "a"}, &fakeInput{}, nil, 0); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := r.Add(Config{Name: "a"}, &fakeInput{}, nil, 0); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("duplicate Add err = %v", err)
	}
	if _, err := r.Add(Config{Name: "b"}, nil, nil, 0); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("nil input Add err = %v", err)
	}
	_ = r.PollAll(1)
	if _, err := r.Add(Config{Name: "c"}, &fakeInput{}, nil, 1); errcode.Of(err) != errcode.Busy {
		t.Fatalf("Add after poll err = %v, want busy", err)
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
}

func TestEventQueueOverflowPanics(t *testing.T) {
	var q eventQueue
	for i := 0; i < eventQueueLen; i++ {
		q.push(Event{Kind: Click})
	}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on overflow")
		}
	}()
	q.push(Event{Kind: Click})
}

func TestEventQueueWrapsFIFO(t *testing.T) {
	var q eventQueue
	for round := 0; round < 3; round++ {
		for i := 1; i <= 7; i++ {
			q.push(Event{Kind: Multiclick, Count: i})
		}
		for i := 1; i <= 7; i++ {
			ev, ok := q.pop()
			if !ok || ev.Count != i {
				t.Fatalf("round %d: pop = %v,%v want count %d", round, ev, ok, i)
			}
		}
	}
	if _, ok := q.pop(); ok {
		t.Fatal("queue should be empty")
	}
}

func TestParseKind(t *testing.T) {
	for k := Pressed; k <= LongPress; k++ {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Fatalf("ParseKind(%q) = %v,%v", k.String(), got, ok)
		}
	}
	if _, ok := ParseKind("doubletap"); ok {
		t.Fatal("unknown kind parsed")
	}
}

func TestParsePull(t *testing.T) {
	for in, want := range map[string]Pull{"": PullNone, "none": PullNone, "Up": PullUp, "down": PullDown, "DOWN": PullDown} {
		got, ok := ParsePull(in)
		if !ok || got != want {
			t.Fatalf("ParsePull(%q) = %v,%v", in, got, ok)
		}
	}
	if _, ok := ParsePull("sideways"); ok {
		t.Fatal("unknown pull accepted")
	}
}
