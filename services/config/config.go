package config

import (
	"context"
	"errors"
	"strconv"

	"smarthome-go/bus"
	"smarthome-go/errcode"
	"smarthome-go/services/hal/buttons"
	"smarthome-go/services/hal/dmx"
	"smarthome-go/types"
	"smarthome-go/x/mathx"
	"smarthome-go/x/strx"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

// Defaults applied by Normalize.
const (
	DefaultPollMs = 5
	DefaultFPS    = 30
	// MaxFPS is the frame rate of a full 512-channel universe.
	MaxFPS = 43
)

// TopicHome carries the retained home configuration.
func TopicHome() bus.Topic { return bus.T(configPrefix, "home") }

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) (types.HomeConfig, bool) {
	c, ok := embeddedConfigs[device]
	return c, ok
}

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig normalises the device's embedded config and publishes it
// retained on config/home.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errors.New("missing device ID in context")
	}
	cfg, ok := EmbeddedConfigLookup(device)
	if !ok {
		return errcode.Wrap(errcode.UnknownDevice, "config", "no embedded config for "+device)
	}
	if err := Normalize(&cfg); err != nil {
		return err
	}
	conn.Publish(conn.NewMessage(TopicHome(), cfg, true))
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config] publish failed:", err.Error())
		}
	}()
}

func invalid(op, msg string) error { return errcode.Wrap(errcode.InvalidParams, op, msg) }

// Normalize fills defaults and rejects configs the home service cannot build.
// The universe size is clamped silently, like dmx.NewUniverse does.
func Normalize(c *types.HomeConfig) error {
	if c.PollMs == 0 {
		c.PollMs = DefaultPollMs
	}
	if c.DMX.FPS == 0 {
		c.DMX.FPS = DefaultFPS
	}
	c.DMX.FPS = mathx.Clamp(c.DMX.FPS, 1, MaxFPS)
	c.DMX.Channels = mathx.Clamp(c.DMX.Channels, dmx.MinChannels, dmx.MaxChannels)

	btn := map[string]bool{}
	for i := range c.Buttons {
		b := &c.Buttons[i]
		if b.Name == "" {
			return invalid("buttons", "entry "+strconv.Itoa(i)+" has no name")
		}
		if btn[b.Name] {
			return invalid("buttons", "duplicate "+b.Name)
		}
		btn[b.Name] = true
		if _, ok := buttons.ParsePull(b.Pull); !ok {
			return invalid("buttons", b.Name+": pull "+b.Pull)
		}
		switch b.Source {
		case "":
			b.Source = types.SourceGPIO
		case types.SourceGPIO:
		case types.SourceExpander:
			if c.Expander == nil {
				return invalid("buttons", b.Name+": expander source without expander")
			}
		default:
			return invalid("buttons", b.Name+": source "+b.Source)
		}
	}
	if c.Expander != nil {
		c.Expander.Bus = strx.Coalesce(c.Expander.Bus, "i2c0")
	}

	dev := map[string]bool{}
	for i := range c.Devices {
		d := &c.Devices[i]
		if d.Name == "" {
			return invalid("devices", "entry "+strconv.Itoa(i)+" has no name")
		}
		if dev[d.Name] {
			return invalid("devices", "duplicate "+d.Name)
		}
		dev[d.Name] = true
		if !mathx.InRange(d.Channel, 1, c.DMX.Channels) {
			return errcode.Wrap(errcode.OutOfRange, "devices", d.Name+": channel "+strconv.Itoa(d.Channel))
		}
		switch d.Kind {
		case types.KindBinary:
		case types.KindDimmable:
			if d.Max == 0 {
				d.Max = 255
			}
			if !mathx.InRange(d.Min, 0, 255) || !mathx.InRange(d.Max, d.Min, 255) {
				return errcode.Wrap(errcode.InvalidValue, "devices", d.Name+": min/max")
			}
			if d.StepSpeed < 0 {
				return errcode.Wrap(errcode.InvalidValue, "devices", d.Name+": step_speed")
			}
			d.Initial = mathx.Clamp(d.Initial, d.Min, d.Max)
		default:
			return invalid("devices", d.Name+": kind "+d.Kind)
		}
	}

	for _, b := range c.Bindings {
		if !btn[b.Button] {
			return invalid("bindings", "unknown button "+b.Button)
		}
		if !dev[b.Device] {
			return invalid("bindings", "unknown device "+b.Device)
		}
		if _, ok := buttons.ParseKind(b.Event); !ok {
			return invalid("bindings", "event "+b.Event)
		}
		switch b.Action {
		case "toggle", "on", "off":
		default:
			return invalid("bindings", "action "+b.Action)
		}
	}

	if c.Console != nil {
		c.Console.UART = strx.Coalesce(c.Console.UART, "uart0")
		if c.Console.Baud == 0 {
			c.Console.Baud = 115200
		}
	}
	return nil
}
