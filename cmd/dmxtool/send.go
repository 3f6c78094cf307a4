//go:build !rp2040 && !rp2350

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"smarthome-go/services/hal/dmx"
	"smarthome-go/x/timex"
)

var (
	sendFill  int
	sendSet   []string
	sendFPS   uint32
	sendCount int
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Transmit a universe through a USB-RS485 adaptor",
	Long: `Builds a universe from --fill and --set and sends it at --fps until
--count frames went out or Ctrl+C. The adaptor's RTS line drives the
transceiver direction.`,
	Example: "  dmxtool send -p /dev/ttyUSB0 --set 1=255 --set 2=128 --count 1",
	RunE:    runSend,
}

func init() {
	sendCmd.Flags().IntVar(&sendFill, "fill", 0, "Value for every channel")
	sendCmd.Flags().StringSliceVar(&sendSet, "set", nil, "Channel assignment index=value (repeatable)")
	sendCmd.Flags().Uint32Var(&sendFPS, "fps", 30, "Frames per second")
	sendCmd.Flags().IntVar(&sendCount, "count", 0, "Frames to send (0 = until interrupted)")
	rootCmd.AddCommand(sendCmd)
}

// buildUniverse applies fill then each index=value assignment.
func buildUniverse(size, fill int, sets []string) (*dmx.Universe, error) {
	u := dmx.NewUniverse(size)
	if err := u.Fill(fill); err != nil {
		return nil, err
	}
	for _, s := range sets {
		k, v, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("bad assignment %q: want index=value", s)
		}
		idx, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("bad channel in %q", s)
		}
		val, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("bad value in %q", s)
		}
		if err := u.SetChannel(idx, val); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func runSend(cmd *cobra.Command, args []string) error {
	if portName == "" {
		return fmt.Errorf("--port is required")
	}
	u, err := buildUniverse(channels, sendFill, sendSet)
	if err != nil {
		return err
	}
	out, err := dmx.OpenSerial(portName)
	if err != nil {
		return fmt.Errorf("open %s: %w", portName, err)
	}
	defer out.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	fmt.Printf("Sending %d channels to %s at %d fps\n", u.Len(), portName, sendFPS)
	tick := time.NewTicker(timex.PeriodFromHz(sendFPS))
	defer tick.Stop()
	for n := 0; sendCount == 0 || n < sendCount; n++ {
		fctx, cancel := context.WithTimeout(ctx, time.Second)
		err := out.Send(fctx, u)
		cancel()
		if err != nil && ctx.Err() == nil {
			log.Printf("send: %v", err)
		}
		select {
		case <-ctx.Done():
			fmt.Printf("Interrupted after %d frames\n", out.Sent())
			return nil
		case <-tick.C:
		}
	}
	fmt.Printf("Sent %d frames\n", out.Sent())
	return nil
}
