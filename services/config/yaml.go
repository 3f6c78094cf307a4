//go:build !rp2040 && !rp2350

package config

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"

	"smarthome-go/errcode"
	"smarthome-go/types"
)

// Parse decodes a YAML home config and normalises it. Unknown keys are errors.
func Parse(data []byte) (types.HomeConfig, error) {
	var c types.HomeConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return types.HomeConfig{}, &errcode.E{C: errcode.InvalidPayload, Op: "parse", Msg: err.Error(), Err: err}
	}
	if err := Normalize(&c); err != nil {
		return types.HomeConfig{}, err
	}
	return c, nil
}

// Load reads and parses a YAML file.
func Load(path string) (types.HomeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.HomeConfig{}, err
	}
	return Parse(data)
}

// Marshal renders a config as YAML.
func Marshal(c types.HomeConfig) ([]byte, error) {
	return yaml.Marshal(c)
}
