package config

import "smarthome-go/types"

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// -----------------------------------------------------------------------------

func pin(n int) *int { return &n }

var cfgPico = types.HomeConfig{
	PollMs: 5,
	Buttons: []types.ButtonConfig{
		{Name: "hall", Pin: 14, Pull: "up"},
		{Name: "lounge", Pin: 15, Pull: "up"},
	},
	DMX: types.DMXConfig{Channels: 24, TxPin: 16, DirPin: pin(17), FPS: 30},
	Devices: []types.DeviceConfig{
		{Name: "hall-light", Kind: types.KindBinary, Room: "hall", Channel: 1},
		{Name: "lounge-dimmer", Kind: types.KindDimmable, Room: "lounge", Channel: 2, Min: 10, Max: 255, StepSpeed: 8},
	},
	Bindings: []types.BindingConfig{
		{Button: "hall", Event: "click", Device: "hall-light", Action: "toggle"},
		{Button: "lounge", Event: "click", Device: "lounge-dimmer", Action: "toggle"},
		{Button: "lounge", Event: "longpress", Device: "lounge-dimmer", Action: "off"},
		{Button: "lounge", Event: "multiclick", Count: 2, Device: "lounge-dimmer", Action: "on"},
	},
	Console: &types.ConsoleConfig{UART: "uart0", Baud: 115200, TX: 0, RX: 1},
}

var cfgPicoExpander = types.HomeConfig{
	Expander: &types.ExpanderConfig{Bus: "i2c0", Addr: 0x20},
	Buttons: []types.ButtonConfig{
		{Name: "kitchen", Pin: 0, Source: types.SourceExpander, Pull: "up"},
		{Name: "landing", Pin: 1, Source: types.SourceExpander, Pull: "up"},
	},
	DMX: types.DMXConfig{Channels: 64, TxPin: 16, DirPin: pin(17), RxPin: pin(18)},
	Devices: []types.DeviceConfig{
		{Name: "kitchen-spots", Kind: types.KindDimmable, Room: "kitchen", Channel: 1, StepSpeed: 16},
		{Name: "landing-light", Kind: types.KindBinary, Room: "landing", Channel: 2},
	},
	Bindings: []types.BindingConfig{
		{Button: "kitchen", Event: "click", Device: "kitchen-spots", Action: "toggle"},
		{Button: "landing", Event: "click", Device: "landing-light", Action: "toggle"},
	},
}

var embeddedConfigs = map[string]types.HomeConfig{
	"pico":          cfgPico,
	"pico-expander": cfgPicoExpander,
}
