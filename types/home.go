package types

// Home configuration, published retained on "config/home".

type HomeConfig struct {
	// PollMs is the button poll period. Zero means 5 ms.
	PollMs   uint32          `yaml:"poll_ms"`
	Buttons  []ButtonConfig  `yaml:"buttons"`
	Expander *ExpanderConfig `yaml:"expander,omitempty"`
	DMX      DMXConfig       `yaml:"dmx"`
	Devices  []DeviceConfig  `yaml:"devices"`
	Bindings []BindingConfig `yaml:"bindings"`
	Console  *ConsoleConfig  `yaml:"console,omitempty"`
}

// Button sources.
const (
	SourceGPIO     = "gpio"
	SourceExpander = "expander"
)

type ButtonConfig struct {
	Name   string `yaml:"name"`
	Pin    int    `yaml:"pin"`
	Source string `yaml:"source"`
	// Rest is the idle level (true = high). A pull setting overrides it.
	Rest bool   `yaml:"rest"`
	Pull string `yaml:"pull"` // "none" | "up" | "down"

	DebounceMs   uint32 `yaml:"debounce_ms,omitempty"`
	LongPressMs  uint32 `yaml:"long_press_ms,omitempty"`
	MulticlickMs uint32 `yaml:"multiclick_ms,omitempty"`
}

// ExpanderConfig places an MCP23017 on an I2C bus.
type ExpanderConfig struct {
	Bus  string `yaml:"bus"`
	Addr uint16 `yaml:"addr"`
}

type DMXConfig struct {
	Channels int  `yaml:"channels"`
	TxPin    int  `yaml:"tx_pin"`
	DirPin   *int `yaml:"dir_pin,omitempty"`
	RxPin    *int `yaml:"rx_pin,omitempty"`
	// FPS paces the send ticker. Zero means 30.
	FPS uint32 `yaml:"fps"`
	// Serial names a USB-RS485 adaptor; host builds only.
	Serial string `yaml:"serial,omitempty"`
}

// Device kinds.
const (
	KindDimmable = "dimmable"
	KindBinary   = "binary"
)

type DeviceConfig struct {
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"`
	Room    string `yaml:"room,omitempty"`
	Channel int    `yaml:"channel"`

	// Dimmable only.
	Min       int `yaml:"min,omitempty"`
	Max       int `yaml:"max,omitempty"`
	StepSpeed int `yaml:"step_speed,omitempty"`
	Initial   int `yaml:"initial,omitempty"`
}

// BindingConfig routes a button gesture to a device action.
type BindingConfig struct {
	Button string `yaml:"button"`
	Event  string `yaml:"event"` // "click" | "longpress" | "multiclick" | "pressed" | "released"
	Count  int    `yaml:"count,omitempty"`
	Device string `yaml:"device"`
	Action string `yaml:"action"` // "toggle" | "on" | "off"
}

type ConsoleConfig struct {
	UART string `yaml:"uart"`
	Baud uint32 `yaml:"baud"`
	TX   int    `yaml:"tx"`
	RX   int    `yaml:"rx"`
}
