package types

// ---- Service state (retained) ----

type ServiceState struct {
	Level  string `yaml:"level"`  // "idle", "ready", "stopped"
	Status string `yaml:"status"` // short code
	TS     int64  `yaml:"ts_ms"`
}

// ---- Bus payloads ----

// ButtonEvent is published on home/button/<name>/event/<kind>.
type ButtonEvent struct {
	Button string
	Kind   string
	Count  int // multiclick only
	TS     int64
}

// DeviceValue is retained on home/device/<name>/value.
type DeviceValue struct {
	Device string
	Kind   string
	Room   string
	Level  int // 0..255 on the wire
	Target int // level being stepped toward
	On     bool
	TS     int64
}

// DeviceControl is the payload of home/device/<name>/control/set.
type DeviceControl struct {
	Level int
}

// Reply answers a control request. Error carries an errcode string.
type Reply struct {
	OK    bool
	Error string `yaml:",omitempty"`
	Value any    `yaml:",omitempty"`
}

// DMXStats is retained on home/dmx/stats.
type DMXStats struct {
	Frames        uint32
	SendErrors    uint32
	RxFrames      uint32
	FramingErrors uint32
	Overruns      uint32
}

// ChannelWrite is the payload of home/dmx/control/channel.
type ChannelWrite struct {
	Index int
	Value int
}

// HeartbeatConfig is the payload of config/heartbeat.
type HeartbeatConfig struct {
	IntervalMs uint32 `yaml:"interval_ms"`
}
