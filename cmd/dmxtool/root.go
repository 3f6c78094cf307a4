//go:build !rp2040 && !rp2350

package main

import (
	"github.com/spf13/cobra"
)

var (
	portName string
	baudRate int
	channels int
)

var rootCmd = &cobra.Command{
	Use:   "dmxtool",
	Short: "DMX-512 line tools",
	Long: `dmxtool drives and inspects DMX-512 universes from a host.

  loopback  encode frames and decode them again, with a timing report
  send      transmit a universe through a USB-RS485 adaptor
  console   run one command on the device console
  dump      fetch the device universe and render it as a grid`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Console baud rate")
	rootCmd.PersistentFlags().IntVarP(&channels, "channels", "c", 512, "Universe size (24..512)")
}
