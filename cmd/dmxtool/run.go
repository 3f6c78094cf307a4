//go:build !rp2040 && !rp2350

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"smarthome-go/bus"
	"smarthome-go/services/console"
	"smarthome-go/services/hal/dmx"
	"smarthome-go/services/hal/platform"
	"smarthome-go/services/heartbeat"
	"smarthome-go/services/home"
)

var runCmd = &cobra.Command{
	Use:   "run <file.yaml | device-id>",
	Short: "Run the home service on this host with a console on stdin",
	Long: `Runs the firmware's home service against simulated pins. When the config
names dmx.serial (or --port is given) frames go out through that USB-RS485
adaptor; otherwise they are encoded onto a simulated line. Console commands
are read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// linePort adapts a reader and writer to a console port. Reads happen on a
// goroutine so RecvSomeContext can honour ctx.
type linePort struct {
	w    io.Writer
	data chan []byte
	errs chan error
}

func newLinePort(r io.Reader, w io.Writer) *linePort {
	p := &linePort{w: w, data: make(chan []byte), errs: make(chan error, 1)}
	go func() {
		for {
			buf := make([]byte, 256)
			n, err := r.Read(buf)
			if n > 0 {
				p.data <- buf[:n]
			}
			if err != nil {
				p.errs <- err
				return
			}
		}
	}()
	return p
}

func (p *linePort) Write(b []byte) (int, error) { return p.w.Write(b) }

func (p *linePort) RecvSomeContext(ctx context.Context, buf []byte) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case b := <-p.data:
		return copy(buf, b), nil
	case err := <-p.errs:
		return 0, err
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(args[0])
	if err != nil {
		return err
	}
	if portName != "" {
		cfg.DMX.Serial = portName
	}

	var opts home.Options
	if cfg.DMX.Serial != "" {
		out, err := dmx.OpenSerial(cfg.DMX.Serial)
		if err != nil {
			return fmt.Errorf("open %s: %w", cfg.DMX.Serial, err)
		}
		defer out.Close()
		opts.Sender = out
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	b := bus.NewBus(16)
	svc, err := home.New(b.NewConnection("home"), platform.DefaultResources(), cfg, opts)
	if err != nil {
		return err
	}
	go svc.Run(ctx)
	_ = (&heartbeat.Service{}).Start(ctx, b.NewConnection("heartbeat"))

	fmt.Printf("home running: %d devices, %d channels. Commands: %s\n", len(cfg.Devices), cfg.DMX.Channels, console.Help())
	err = console.New(b.NewConnection("console"), 0).Serve(ctx, newLinePort(os.Stdin, os.Stdout))
	if err == io.EOF || err == context.Canceled {
		return nil
	}
	return err
}
