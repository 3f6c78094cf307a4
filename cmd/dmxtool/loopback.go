//go:build !rp2040 && !rp2350

package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"smarthome-go/services/hal/dmx"
)

var (
	loopFrames int
	loopSeed   int64
	loopShow   bool
)

var loopbackCmd = &cobra.Command{
	Use:   "loopback",
	Short: "Encode random universes and decode them from the same line",
	Long: `Runs the line engine unpaced with its output wired into a decoder.
Every frame is checked slot by slot; the report compares the sampled tick
count with the nominal wire time.`,
	RunE: runLoopback,
}

func init() {
	loopbackCmd.Flags().IntVarP(&loopFrames, "frames", "n", 10, "Frames to send")
	loopbackCmd.Flags().Int64Var(&loopSeed, "seed", 0, "Random seed (0 = time)")
	loopbackCmd.Flags().BoolVar(&loopShow, "show", false, "Render the last received universe")
	rootCmd.AddCommand(loopbackCmd)
}

type loopReport struct {
	Frames     uint32
	Mismatches int
	Ticks      uint64
	Nominal    int
	Stats      dmx.RxStats
	Last       []byte
}

// loopbackRun sends frames random universes through an engine wired to a
// decoder and compares what comes back.
func loopbackRun(ctx context.Context, rng *rand.Rand, size, frames int) (loopReport, error) {
	tx := dmx.NewUniverse(size)
	rx := dmx.NewUniverse(size)
	got := dmx.NewUniverse(size)
	lb := dmx.NewLoopback(rx)
	eng := dmx.NewEngine(lb, dmx.NoWait)
	out := dmx.NewTransmitter(eng, nil)

	ectx, cancel := context.WithCancel(ctx)
	defer cancel()
	go eng.Run(ectx)

	var rep loopReport
	for i := 0; i < frames; i++ {
		for ch := 1; ch <= tx.Len(); ch++ {
			_ = tx.SetChannel(ch, rng.Intn(256))
		}
		if err := out.Send(ctx, tx); err != nil {
			return rep, err
		}
		if err := out.Flush(ctx); err != nil {
			return rep, err
		}
		lb.Snapshot(got)
		rep.Mismatches += diff(tx.Bytes(), got.Bytes())
	}
	// The decoder closes a frame on the next break.
	eng.Restart()
	if err := out.Flush(ctx); err != nil {
		return rep, err
	}
	rep.Stats = lb.Stats()
	rep.Frames = rep.Stats.Frames
	rep.Ticks = lb.Ticks()
	rep.Nominal = dmx.FrameUs(tx.Size())
	lb.Snapshot(got)
	rep.Last = got.Bytes()
	return rep, nil
}

func diff(a, b []byte) int {
	n := 0
	for i := range a {
		if i >= len(b) || a[i] != b[i] {
			n++
		}
	}
	return n
}

func runLoopback(cmd *cobra.Command, args []string) error {
	seed := loopSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	fmt.Printf("dmxtool loopback: %d frames, %d channels, seed %d\n", loopFrames, channels, seed)

	start := time.Now()
	rep, err := loopbackRun(cmd.Context(), rand.New(rand.NewSource(seed)), channels, loopFrames)
	if err != nil {
		return err
	}
	wall := time.Since(start)

	perFrame := uint64(0)
	if loopFrames > 0 {
		perFrame = rep.Ticks / uint64(loopFrames)
	}
	fmt.Printf("frames decoded:  %d\n", rep.Frames)
	fmt.Printf("slot mismatches: %d\n", rep.Mismatches)
	fmt.Printf("framing errors:  %d  overruns: %d\n", rep.Stats.FramingErrors, rep.Stats.Overruns)
	fmt.Printf("line ticks:      %d (%d per frame, nominal %d µs)\n", rep.Ticks, perFrame, rep.Nominal)
	fmt.Printf("wall time:       %s (real-time budget %s)\n", wall.Round(time.Microsecond),
		time.Duration(loopFrames*rep.Nominal)*time.Microsecond)
	if loopShow && rep.Last != nil {
		fmt.Println(renderGrid(rep.Last, 16))
	}
	if rep.Mismatches > 0 || int(rep.Frames) != loopFrames {
		return fmt.Errorf("loopback failed: %d mismatches, %d/%d frames", rep.Mismatches, rep.Frames, loopFrames)
	}
	return nil
}
