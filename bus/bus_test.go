package bus

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
)

// pending returns every payload queued on s without blocking.
func pending(s *Subscription) []any {
	var out []any
	for {
		select {
		case m, ok := <-s.Channel():
			if !ok {
				return out
			}
			out = append(out, m.Payload)
		default:
			return out
		}
	}
}

func TestPatternMatching(t *testing.T) {
	cases := []struct {
		pattern Topic
		topic   Topic
		match   bool
	}{
		{T("home", "button", "hall", "event", "click"), T("home", "button", "hall", "event", "click"), true},
		{T("home", "button", "+", "event", "click"), T("home", "button", "porch", "event", "click"), true},
		{T("home", "button", "+", "event", "click"), T("home", "button", "porch", "event", "longpress"), false},
		{T("home", "button", "+", "event", "+"), T("home", "button", "porch", "event"), false},
		{T("home", "device", "#"), T("home", "device", "lamp", "value"), true},
		{T("home", "device", "#"), T("home", "device"), true},
		{T("home", "device", "#"), T("home", "dmx", "stats"), false},
		{T("home", "+", "#"), T("home", "dmx"), true},
		{T("#"), T("config", "home"), true},
		{T("home", "device", 3), T("home", "device", 3), true},
		{T("home", "device", 3), T("home", "device", "3"), false},
	}
	for _, c := range cases {
		b := NewBus(4)
		conn := b.NewConnection("t")
		s := conn.Subscribe(c.pattern)
		conn.Publish(conn.NewMessage(c.topic, "x", false))
		if got := len(pending(s)) == 1; got != c.match {
			t.Fatalf("%v on %v: matched=%v, want %v", c.pattern, c.topic, got, c.match)
		}
	}
}

func TestRetainedReplayedOnSubscribe(t *testing.T) {
	b := NewBus(8)
	c := b.NewConnection("t")
	c.Publish(c.NewMessage(T("home", "device", "lamp", "value"), 0, true))
	c.Publish(c.NewMessage(T("home", "device", "lamp", "value"), 255, true))
	c.Publish(c.NewMessage(T("home", "device", "dim", "value"), 40, true))
	c.Publish(c.NewMessage(T("home", "dmx", "stats"), "s", true))
	c.Publish(c.NewMessage(T("home", "device", "fan", "value"), 9, false))

	got := pending(c.Subscribe(T("home", "device", "+", "value")))
	slices.SortFunc(got, func(a, b any) int { return a.(int) - b.(int) })
	if !slices.Equal(got, []any{40, 255}) {
		t.Fatalf("replayed %v, want [40 255]", got)
	}
	if got := pending(c.Subscribe(T("home", "#"))); len(got) != 3 {
		t.Fatalf("home/# replayed %v, want 3 retained values", got)
	}
}

func TestRetainedNilClears(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("t")
	c.Publish(c.NewMessage(T("home", "state"), "ready", true))
	c.Publish(c.NewMessage(T("home", "state"), nil, true))
	if got := pending(c.Subscribe(T("home", "state"))); len(got) != 0 {
		t.Fatalf("cleared topic replayed %v", got)
	}
	// clearing something never retained is harmless
	c.Publish(c.NewMessage(T("nothing", "here"), nil, true))
	if _, ok := b.root.children["nothing"]; ok {
		t.Fatal("clearing an unknown topic created trie nodes")
	}
}

func TestFullQueueDropsOldest(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("t")
	s := c.Subscribe(T("home", "button", "+", "event", "+"))
	for _, p := range []string{"one", "two", "three"} {
		c.Publish(c.NewMessage(T("home", "button", "hall", "event", "click"), p, false))
	}
	if got := pending(s); !slices.Equal(got, []any{"two", "three"}) {
		t.Fatalf("got %v, want [two three]", got)
	}
}

func TestRequestWaitGetsReply(t *testing.T) {
	b := NewBus(4)
	svc := b.NewConnection("home")
	cli := b.NewConnection("console")
	reqs := svc.Subscribe(T("home", "device", "+", "control", "+"))
	go func() {
		for m := range reqs.Channel() {
			svc.Reply(m, m.Topic[2], false)
		}
	}()
	defer svc.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for _, name := range []string{"lamp", "dim"} {
		req := cli.NewMessage(T("home", "device", name, "control", "get"), nil, false)
		rep, err := cli.RequestWait(ctx, req)
		if err != nil {
			t.Fatalf("RequestWait(%s): %v", name, err)
		}
		if rep.Payload != name {
			t.Fatalf("reply %v, want %s", rep.Payload, name)
		}
		if rep.Topic.String() != req.ReplyTo.String() || req.ReplyTo[0] != "_reply" {
			t.Fatalf("reply on %v, request ReplyTo %v", rep.Topic, req.ReplyTo)
		}
	}
	// reply subscriptions are released after each wait
	if _, ok := b.root.children["_reply"]; ok {
		t.Fatal("reply topics still in the trie")
	}
}

func TestRequestWaitHonoursContext(t *testing.T) {
	b := NewBus(4)
	cli := b.NewConnection("console")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := cli.RequestWait(ctx, cli.NewMessage(T("home", "dmx", "control", "stats"), nil, false))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestReplyNeedsReplyTo(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("t")
	if c.Reply(c.NewMessage(T("a"), nil, false), "x", false) {
		t.Fatal("Reply without ReplyTo should report false")
	}
}

func TestUnsubscribeAndDisconnect(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("t")
	s1 := c.Subscribe(T("a"))
	s2 := c.Subscribe(T("b", "+"))
	s1.Unsubscribe()
	c.Unsubscribe(s1)
	if _, ok := <-s1.Channel(); ok {
		t.Fatal("s1 channel should be closed")
	}
	c.Disconnect()
	if _, ok := <-s2.Channel(); ok {
		t.Fatal("s2 channel should be closed")
	}
	c.Publish(c.NewMessage(T("b", "x"), "late", false))
	if len(b.root.children) != 0 {
		t.Fatalf("trie not pruned: %v", b.root.children)
	}
}

func TestTopicHelpers(t *testing.T) {
	if got := T("home", "device", 3, "value").String(); got != "home/device/3/value" {
		t.Fatalf("String() = %q", got)
	}
	base := make(Topic, 1, 4)
	base[0] = "home"
	a, c := base.Append("x"), base.Append("y")
	if a.String() != "home/x" || c.String() != "home/y" {
		t.Fatalf("Append aliased: %v %v", a, c)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("T should panic on a slice token")
		}
	}()
	_ = T([]byte{1})
}
