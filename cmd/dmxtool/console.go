//go:build !rp2040 && !rp2350

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"go.bug.st/serial"
)

var consoleTimeout time.Duration

var consoleCmd = &cobra.Command{
	Use:   "console <command> [args...]",
	Short: "Run one command on the device console",
	Long: `Sends one line to the device console UART and prints the reply.
Arguments are joined with quoting preserved, so
  dmxtool console -p /dev/ttyACM0 set "hall lamp" 128
reaches the device as one set command with a two-word device name.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConsole,
}

func init() {
	consoleCmd.Flags().DurationVar(&consoleTimeout, "timeout", 2*time.Second, "Reply timeout")
	rootCmd.AddCommand(consoleCmd)
}

var errNoReply = errors.New("no reply from device")

// quoteArgs rebuilds a console line whose shlex split equals args.
func quoteArgs(args []string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"'\\") {
			a = "'" + strings.ReplaceAll(a, "'", `'"'"'`) + "'"
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}

// exchange writes line and reads until the reply's line end. A read that
// returns nothing means the port's read timeout expired.
func exchange(rw io.ReadWriter, line string) (string, error) {
	if _, err := io.WriteString(rw, line+"\r\n"); err != nil {
		return "", err
	}
	var reply []byte
	buf := make([]byte, 256)
	for {
		n, err := rw.Read(buf)
		if err != nil {
			return "", err
		}
		if n == 0 {
			if len(reply) > 0 {
				return string(reply), nil
			}
			return "", errNoReply
		}
		for _, b := range buf[:n] {
			switch b {
			case '\n':
				if len(reply) > 0 {
					return string(reply), nil
				}
			case '\r':
			default:
				reply = append(reply, b)
			}
		}
	}
}

func openConsole() (serial.Port, error) {
	if portName == "" {
		return nil, fmt.Errorf("--port is required")
	}
	p, err := serial.Open(portName, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", portName, err)
	}
	if err := p.SetReadTimeout(consoleTimeout); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// deviceCommand runs line on the device and returns the value after "ok".
func deviceCommand(line string) (string, error) {
	p, err := openConsole()
	if err != nil {
		return "", err
	}
	defer p.Close()
	_ = p.ResetInputBuffer()
	reply, err := exchange(p, line)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(reply, "err") {
		return "", fmt.Errorf("device: %s", reply)
	}
	return strings.TrimSpace(strings.TrimPrefix(reply, "ok")), nil
}

func runConsole(cmd *cobra.Command, args []string) error {
	line := quoteArgs(args)
	if _, err := shlex.Split(line); err != nil {
		return err
	}
	out, err := deviceCommand(line)
	if err != nil {
		return err
	}
	if out == "" {
		out = "ok"
	}
	fmt.Println(out)
	return nil
}
