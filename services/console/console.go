// Package console serves the operator command line over a byte stream (the
// device UART). Every command becomes a bus request to the home service;
// replies are one line: "ok [value]" or "err <code>".
package console

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/shlex"

	"smarthome-go/bus"
	"smarthome-go/errcode"
	"smarthome-go/services/home"
	"smarthome-go/types"
	"smarthome-go/x/conv"
	"smarthome-go/x/fmtx"
	"smarthome-go/x/strconvx"
)

const (
	DefaultTimeout = 500 * time.Millisecond
	MaxLine        = 128
)

// Port is a console byte stream. platform.ConsolePort satisfies it.
type Port interface {
	io.Writer
	RecvSomeContext(ctx context.Context, buf []byte) (int, error)
}

type command struct {
	args  int
	usage string
	run   func(c *Console, ctx context.Context, args []string) (string, error)
}

var commands map[string]command

func init() {
	device := func(op string) command {
		return command{1, op + " <device>", func(c *Console, ctx context.Context, a []string) (string, error) {
			return c.device(ctx, a[0], op, nil)
		}}
	}
	commands = map[string]command{
		"set": {2, "set <device> <level>", func(c *Console, ctx context.Context, a []string) (string, error) {
			lvl, err := number(a[1])
			if err != nil {
				return "", err
			}
			return c.device(ctx, a[0], "set", types.DeviceControl{Level: lvl})
		}},
		"on":     device("on"),
		"off":    device("off"),
		"toggle": device("toggle"),
		"get":    device("get"),
		"ch": {2, "ch <index> <value>", func(c *Console, ctx context.Context, a []string) (string, error) {
			idx, err := number(a[0])
			if err != nil {
				return "", err
			}
			v, err := number(a[1])
			if err != nil {
				return "", err
			}
			_, err = c.request(ctx, home.TopicDMXControl("channel"), types.ChannelWrite{Index: idx, Value: v})
			return "", err
		}},
		"fill": {1, "fill <value>", func(c *Console, ctx context.Context, a []string) (string, error) {
			v, err := number(a[0])
			if err != nil {
				return "", err
			}
			_, err = c.request(ctx, home.TopicDMXControl("fill"), v)
			return "", err
		}},
		"blackout": {0, "blackout", func(c *Console, ctx context.Context, _ []string) (string, error) {
			_, err := c.request(ctx, home.TopicDMXControl("blackout"), nil)
			return "", err
		}},
		"dump": {0, "dump", func(c *Console, ctx context.Context, _ []string) (string, error) {
			v, err := c.request(ctx, home.TopicDMXControl("dump"), nil)
			if err != nil {
				return "", err
			}
			b, ok := v.([]byte)
			if !ok {
				return "", errcode.InvalidPayload
			}
			return string(conv.HexDump(nil, b, 0)), nil
		}},
		"stats": {0, "stats", func(c *Console, ctx context.Context, _ []string) (string, error) {
			v, err := c.request(ctx, home.TopicDMXControl("stats"), nil)
			if err != nil {
				return "", err
			}
			st, ok := v.(types.DMXStats)
			if !ok {
				return "", errcode.InvalidPayload
			}
			return FormatStats(st), nil
		}},
		"devices": {0, "devices", func(c *Console, ctx context.Context, _ []string) (string, error) {
			v, err := c.request(ctx, home.TopicDMXControl("devices"), nil)
			if err != nil {
				return "", err
			}
			vals, ok := v.([]types.DeviceValue)
			if !ok {
				return "", errcode.InvalidPayload
			}
			parts := make([]string, len(vals))
			for i, dv := range vals {
				parts[i] = formatDevice(dv)
			}
			return strings.Join(parts, "; "), nil
		}},
		"help": {0, "help", func(*Console, context.Context, []string) (string, error) {
			return Help(), nil
		}},
	}
}

// Help lists the command names, sorted.
func Help() string {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, " ")
}

// FormatStats renders DMX counters as key=value pairs.
func FormatStats(st types.DMXStats) string {
	return fmtx.Sprintf("frames=%d send_errors=%d rx_frames=%d framing_errors=%d overruns=%d",
		st.Frames, st.SendErrors, st.RxFrames, st.FramingErrors, st.Overruns)
}

func formatDevice(v types.DeviceValue) string {
	return fmtx.Sprintf("%s level=%d target=%d on=%t", v.Device, v.Level, v.Target, v.On)
}

func number(s string) (int, error) {
	n, err := strconvx.Atoi(s)
	if err != nil {
		return 0, errcode.Wrap(errcode.InvalidParams, "console", "not a number: "+s)
	}
	return n, nil
}

type Console struct {
	conn    *bus.Connection
	timeout time.Duration
}

// New returns a console issuing requests on conn. timeout bounds each
// request; zero means DefaultTimeout.
func New(conn *bus.Connection, timeout time.Duration) *Console {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Console{conn: conn, timeout: timeout}
}

// Exec runs one command line and returns its reply. An empty line yields "".
func (c *Console) Exec(ctx context.Context, line string) string {
	args, err := shlex.Split(line)
	if err != nil {
		return "err " + string(errcode.InvalidParams)
	}
	if len(args) == 0 {
		return ""
	}
	cmd, ok := commands[strings.ToLower(args[0])]
	if !ok {
		return "err " + string(errcode.UnknownCommand)
	}
	if len(args)-1 != cmd.args {
		return "err " + string(errcode.InvalidParams) + " usage: " + cmd.usage
	}
	out, err := cmd.run(c, ctx, args[1:])
	if err != nil {
		return "err " + string(errcode.Of(err))
	}
	if out == "" {
		return "ok"
	}
	return "ok " + out
}

func (c *Console) device(ctx context.Context, name, op string, payload any) (string, error) {
	v, err := c.request(ctx, home.TopicDeviceControl(name, op), payload)
	if err != nil {
		return "", err
	}
	dv, ok := v.(types.DeviceValue)
	if !ok {
		return "", errcode.InvalidPayload
	}
	return formatDevice(dv), nil
}

func (c *Console) request(ctx context.Context, t bus.Topic, payload any) (any, error) {
	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	m, err := c.conn.RequestWait(rctx, c.conn.NewMessage(t, payload, false))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, errcode.Timeout
		}
		return nil, err
	}
	rep, ok := m.Payload.(types.Reply)
	if !ok {
		return nil, errcode.InvalidPayload
	}
	if !rep.OK {
		return nil, errcode.Code(rep.Error)
	}
	return rep.Value, nil
}

// Serve reads lines from p and writes one reply per line until ctx ends or
// the port fails. CR, LF and CRLF all end a line; backspace edits it. A line
// longer than MaxLine is answered with an error and dropped.
func (c *Console) Serve(ctx context.Context, p Port) error {
	buf := make([]byte, 64)
	line := make([]byte, 0, MaxLine)
	overflow := false
	for {
		n, err := p.RecvSomeContext(ctx, buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		for _, b := range buf[:n] {
			switch {
			case b == '\r' || b == '\n':
				var reply string
				if overflow {
					reply = "err " + string(errcode.InvalidParams) + " line too long"
				} else if len(line) > 0 {
					reply = c.Exec(ctx, string(line))
				}
				if reply != "" {
					if _, err := fmtx.Fprintf(p, "%s\r\n", reply); err != nil {
						return err
					}
				}
				line, overflow = line[:0], false
			case b == 0x08 || b == 0x7F:
				if len(line) > 0 {
					line = line[:len(line)-1]
				}
			case len(line) >= MaxLine:
				overflow = true
			default:
				line = append(line, b)
			}
		}
	}
}
