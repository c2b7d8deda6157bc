// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"fmt"

	"github.com/Adoni5/readfish-tools/internal/flowcell"
	"github.com/spf13/viper"
)

// FlowcellConfig is the layout of the flowcell the experiment ran on.
type FlowcellConfig struct {
	// Size is the number of channels on the flowcell
	Size int `mapstructure:"flowcell-size"`

	// Axis a 3000 channel flowcell is split between regions along, 0 for rows
	// and 1 for columns. Other sizes are split into contiguous channel ranges.
	Axis int `mapstructure:"split-axis"`
}

// Config is the root-level settings struct and is a mix
// of settings available in a settings file and those
// available from the command line
type Config struct {
	// Flowcell layout for region experiments
	Flowcell FlowcellConfig `mapstructure:",squash"`

	// Out is the path to write the JSON summary to, "-" for stdout
	Out string `mapstructure:"out"`

	// Progress is whether to show a progress bar while summarising
	Progress bool `mapstructure:"progress"`
}

// Defaults are the settings without a settings file or flags.
var Defaults = Config{
	Flowcell: FlowcellConfig{Size: flowcell.MinION, Axis: 1},
	Out:      "-",
}

// SetDefaults registers the default settings with v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("flowcell-size", Defaults.Flowcell.Size)
	v.SetDefault("split-axis", Defaults.Flowcell.Axis)
	v.SetDefault("out", Defaults.Out)
	v.SetDefault("progress", Defaults.Progress)
}

// New returns a new Config struct populated by
// Viper settings (either from a settings file)
// and/or command line arguments
func New() (Config, error) {
	return FromViper(viper.GetViper())
}

// FromViper decodes the settings held by v and checks them.
func FromViper(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("unable to decode settings: %v", err)
	}

	if c.Flowcell.Size < 1 {
		return c, fmt.Errorf("flowcell-size must be positive, got %d", c.Flowcell.Size)
	}
	if c.Flowcell.Axis != 0 && c.Flowcell.Axis != 1 {
		return c, fmt.Errorf("split-axis must be 0 (rows) or 1 (columns), got %d", c.Flowcell.Axis)
	}
	if c.Out == "" {
		c.Out = Defaults.Out
	}

	return c, nil
}
