//go:build !rp2040 && !rp2350

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"smarthome-go/services/hal/dmx"
)

var dumpCols int

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Fetch the device universe and render it as a grid",
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().IntVar(&dumpCols, "cols", 16, "Channels per row")
	rootCmd.AddCommand(dumpCmd)
}

var (
	cellStyle  = lipgloss.NewStyle().Width(4).Align(lipgloss.Right)
	labelStyle = cellStyle.Foreground(lipgloss.Color("241"))
	litStyle   = cellStyle.Bold(true).Foreground(lipgloss.Color("214"))
	titleStyle = lipgloss.NewStyle().Bold(true)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// parseDump decodes the space-separated hex bytes of a console dump reply.
func parseDump(s string) ([]byte, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty dump")
	}
	out := make([]byte, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %q is not a hex byte", i, f)
		}
		out[i] = byte(v)
	}
	return out, nil
}

// renderGrid draws slot 0 as a title and the channels cols per row, each row
// labelled with its first channel number. Non-zero channels are highlighted.
func renderGrid(frame []byte, cols int) string {
	if len(frame) == 0 {
		return ""
	}
	if cols <= 0 {
		cols = 16
	}
	sc := frame[0]
	rows := []string{titleStyle.Render(fmt.Sprintf("start code 0x%02X (%s), %d channels", sc, dmx.StartCodeName(sc), len(frame)-1))}
	for i := 1; i < len(frame); i += cols {
		cells := []string{labelStyle.Render(strconv.Itoa(i)) + " │"}
		for j := i; j < i+cols && j < len(frame); j++ {
			st := cellStyle
			if frame[j] > 0 {
				st = litStyle
			}
			cells = append(cells, st.Render(strconv.Itoa(int(frame[j]))))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func runDump(cmd *cobra.Command, args []string) error {
	out, err := deviceCommand("dump")
	if err != nil {
		return err
	}
	frame, err := parseDump(out)
	if err != nil {
		return err
	}
	fmt.Println(renderGrid(frame, dumpCols))
	return nil
}
