//go:build !rp2040 && !rp2350

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"smarthome-go/services/config"
	"smarthome-go/types"
)

var configCmd = &cobra.Command{
	Use:   "config <file.yaml | device-id>",
	Short: "Validate a home config and print it normalised",
	Long: `Loads a YAML home config, applies defaults and validation, and prints the
result. A bare device ID prints the config embedded in the firmware instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func resolveConfig(arg string) (types.HomeConfig, error) {
	if _, err := os.Stat(arg); err == nil {
		return config.Load(arg)
	}
	c, ok := config.EmbeddedConfigLookup(arg)
	if !ok {
		return c, fmt.Errorf("%s: no such file or embedded config", arg)
	}
	return c, config.Normalize(&c)
}

func runConfig(cmd *cobra.Command, args []string) error {
	c, err := resolveConfig(args[0])
	if err != nil {
		return err
	}
	out, err := config.Marshal(c)
	if err != nil {
		return err
	}
	fmt.Printf("# %d buttons, %d devices, %d channels, %d fps\n",
		len(c.Buttons), len(c.Devices), c.DMX.Channels, c.DMX.FPS)
	os.Stdout.Write(out)
	return nil
}
