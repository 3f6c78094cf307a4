//go:build !rp2040 && !rp2350

// dmxtool is the host companion for the DMX firmware: line-engine self
// tests, USB-RS485 output and the device console.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
