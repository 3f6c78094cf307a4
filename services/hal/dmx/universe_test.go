package dmx

import (
	"errors"
	"testing"

	"smarthome-go/errcode"
)

func TestUniverseSizeClamped(t *testing.T) {
	cases := []struct{ req, want int }{
		{4, 24}, {10, 24}, {24, 24}, {100, 100}, {512, 512}, {1000, 512}, {-3, 24},
	}
	for _, c := range cases {
		u := NewUniverse(c.req)
		if u.Len() != c.want || u.Size() != c.want+1 {
			t.Fatalf("NewUniverse(%d): len=%d size=%d, want len %d", c.req, u.Len(), u.Size(), c.want)
		}
		if u.StartCode() != StartCodeDMX {
			t.Fatalf("start code = %#x", u.StartCode())
		}
	}
}

func TestUniverseIndexBounds(t *testing.T) {
	u := NewUniverse(24)
	for _, idx := range []int{0, -1, 25} {
		if err := u.SetChannel(idx, 1); !errors.Is(err, errcode.OutOfRange) {
			t.Fatalf("SetChannel(%d) err = %v, want out_of_range", idx, err)
		}
		if _, err := u.Channel(idx); !errors.Is(err, errcode.OutOfRange) {
			t.Fatalf("Channel(%d) err = %v, want out_of_range", idx, err)
		}
	}
	if err := u.SetChannel(1, 10); err != nil {
		t.Fatal(err)
	}
	if err := u.SetChannel(24, 20); err != nil {
		t.Fatal(err)
	}
	if v, _ := u.Channel(24); v != 20 {
		t.Fatalf("channel 24 = %d", v)
	}
}

func TestUniverseRejectsValues(t *testing.T) {
	u := NewUniverse(24)
	_ = u.SetChannel(3, 77)
	for _, v := range []int{-1, 256, 300} {
		if err := u.SetChannel(3, v); errcode.Of(err) != errcode.InvalidValue {
			t.Fatalf("SetChannel(3, %d) err = %v, want invalid_value", v, err)
		}
		if err := u.Fill(v); errcode.Of(err) != errcode.InvalidValue {
			t.Fatalf("Fill(%d) err = %v", v, err)
		}
	}
	if v, _ := u.Channel(3); v != 77 {
		t.Fatalf("rejected write changed the slot: %d", v)
	}
}

func TestUniverseFillAndBytes(t *testing.T) {
	u := NewUniverse(24)
	u.SetStartCode(StartCodeRDM)
	if err := u.Fill(9); err != nil {
		t.Fatal(err)
	}
	b := u.Bytes()
	if len(b) != 25 || b[0] != StartCodeRDM {
		t.Fatalf("bytes = %v", b)
	}
	for i := 1; i < len(b); i++ {
		if b[i] != 9 {
			t.Fatalf("slot %d = %d", i, b[i])
		}
	}
	b[1] = 0
	if v, _ := u.Channel(1); v != 9 {
		t.Fatal("Bytes must return a copy")
	}
	u.Blackout()
	if v, _ := u.Channel(24); v != 0 || u.StartCode() != StartCodeRDM {
		t.Fatal("blackout must zero channels and keep the start code")
	}
}

func TestStartCodeName(t *testing.T) {
	if StartCodeName(0x00) != "dmx" || StartCodeName(0xCC) != "rdm" ||
		StartCodeName(0xFE) != "rdm_discovery" || StartCodeName(0x17) != "alternate" {
		t.Fatal("start code classification")
	}
}
