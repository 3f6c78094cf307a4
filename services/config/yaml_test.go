//go:build !rp2040 && !rp2350

package config

import (
	"os"
	"path/filepath"
	"testing"

	"smarthome-go/errcode"
	"smarthome-go/types"
)

const sampleYAML = `
poll_ms: 2
buttons:
  - name: hall
    pin: 14
    pull: Up
    long_press_ms: 800
dmx:
  channels: 4
  tx_pin: 16
  dir_pin: 17
  fps: 25
devices:
  - name: lamp
    kind: dimmable
    channel: 3
    step_speed: 10
bindings:
  - button: hall
    event: click
    device: lamp
    action: toggle
`

func TestParseYAML(t *testing.T) {
	c, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatal(err)
	}
	if c.PollMs != 2 || c.Buttons[0].LongPressMs != 800 || c.Buttons[0].Source != types.SourceGPIO {
		t.Fatalf("buttons: %+v", c.Buttons)
	}
	if c.DMX.Channels != 24 || c.DMX.DirPin == nil || *c.DMX.DirPin != 17 || c.DMX.RxPin != nil {
		t.Fatalf("dmx: %+v", c.DMX)
	}
	if c.Devices[0].Max != 255 || c.Bindings[0].Action != "toggle" {
		t.Fatalf("devices: %+v", c.Devices)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("dmx:\n  chanels: 24\n"))
	if errcode.Of(err) != errcode.InvalidPayload {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadRoundTrip(t *testing.T) {
	out, err := Marshal(cfgPico)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "home.yaml")
	if err := os.WriteFile(path, out, 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Devices) != len(cfgPico.Devices) || c.Console == nil || c.Console.UART != "uart0" {
		t.Fatalf("loaded %+v", c)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file must fail")
	}
}
