// Package conditions is the typed model of an experiment's conditions: the
// flowcell regions or barcodes reads are demultiplexed into, their targets
// and their decision tables.
package conditions

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/Adoni5/readfish-tools/internal/targets"
	"github.com/mitchellh/mapstructure"
)

const (
	// defaultMinChunks is used when a condition has no min_chunks
	defaultMinChunks = 0

	// defaultMaxChunks is used when a condition has no max_chunks
	defaultMaxChunks = 4
)

// Condition is a single region or barcode of an experiment.
type Condition struct {
	// Name of the region or barcode, unique within its category
	Name string

	// Control conditions are sequenced without selection
	Control bool

	// MinChunks is the fewest chunks seen before a decision is acted on
	MinChunks uint8

	// MaxChunks is the most chunks seen before BelowMinChunks/AboveMaxChunks apply
	MaxChunks uint8

	// Targets are the condition's on-target intervals
	Targets *targets.Targets

	// Actions is the decision table, indexed by Decision
	Actions [6]Action

	// AboveMaxChunks is the action once MaxChunks is exceeded
	AboveMaxChunks Action

	// BelowMinChunks is the action before MinChunks is reached
	BelowMinChunks Action
}

// Action returns the condition's action for a decision.
func (c *Condition) Action(d Decision) Action {
	return c.Actions[d]
}

// OnTarget returns whether a coordinate is within the condition's targets.
func (c *Condition) OnTarget(contig string, strand targets.Strand, coord uint64) bool {
	return c.Targets.Contains(contig, strand, coord)
}

// rawCondition is a condition's table as written in the TOML.
type rawCondition struct {
	Name           string      `mapstructure:"name"`
	Control        bool        `mapstructure:"control"`
	MinChunks      *int64      `mapstructure:"min_chunks"`
	MaxChunks      *int64      `mapstructure:"max_chunks"`
	Targets        interface{} `mapstructure:"targets"`
	SingleOff      string      `mapstructure:"single_off"`
	SingleOn       string      `mapstructure:"single_on"`
	MultiOff       string      `mapstructure:"multi_off"`
	MultiOn        string      `mapstructure:"multi_on"`
	NoMap          string      `mapstructure:"no_map"`
	NoSeq          string      `mapstructure:"no_seq"`
	AboveMaxChunks string      `mapstructure:"above_max_chunks"`
	BelowMinChunks string      `mapstructure:"below_min_chunks"`
}

// NewCondition converts a condition's raw TOML table into a Condition.
// Unknown or missing keys and unknown actions are rejected. Relative target
// file paths that don't exist from the working directory are tried relative to dir.
func NewCondition(table map[string]interface{}, dir string) (*Condition, error) {
	var raw rawCondition
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &raw,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(table); err != nil {
		return nil, fmt.Errorf("failed to decode condition: %v", err)
	}

	if raw.Name == "" {
		return nil, fmt.Errorf("condition is missing required field \"name\"")
	}

	c := &Condition{Name: raw.Name, Control: raw.Control}

	if c.MinChunks, err = chunks("min_chunks", raw.MinChunks, defaultMinChunks); err != nil {
		return nil, fmt.Errorf("condition %s: %v", c.Name, err)
	}
	if c.MaxChunks, err = chunks("max_chunks", raw.MaxChunks, defaultMaxChunks); err != nil {
		return nil, fmt.Errorf("condition %s: %v", c.Name, err)
	}

	decisions := []string{raw.SingleOff, raw.SingleOn, raw.MultiOff, raw.MultiOn, raw.NoMap, raw.NoSeq}
	for i, keyword := range decisions {
		if keyword == "" {
			return nil, fmt.Errorf("condition %s is missing required field %q", c.Name, decisionKeys[i])
		}
		if c.Actions[i], err = ParseAction(keyword); err != nil {
			return nil, fmt.Errorf("condition %s, %s: %w", c.Name, decisionKeys[i], err)
		}
	}

	if c.AboveMaxChunks, err = optionalAction(raw.AboveMaxChunks, Unblock); err != nil {
		return nil, fmt.Errorf("condition %s, above_max_chunks: %w", c.Name, err)
	}
	if c.BelowMinChunks, err = optionalAction(raw.BelowMinChunks, Proceed); err != nil {
		return nil, fmt.Errorf("condition %s, below_min_chunks: %w", c.Name, err)
	}

	if c.Targets, err = parseTargets(raw.Targets, dir); err != nil {
		return nil, fmt.Errorf("condition %s: %v", c.Name, err)
	}

	return c, nil
}

// chunks validates a chunk threshold, using def when it's unset.
func chunks(key string, value *int64, def uint8) (uint8, error) {
	if value == nil {
		return def, nil
	}
	if *value < 0 || *value > math.MaxUint8 {
		return 0, fmt.Errorf("%s must be between 0 and %d, got %d", key, math.MaxUint8, *value)
	}
	return uint8(*value), nil
}

// optionalAction parses an action keyword, using def when it's unset.
func optionalAction(keyword string, def Action) (Action, error) {
	if keyword == "" {
		return def, nil
	}
	return ParseAction(keyword)
}

// parseTargets builds the targets of a condition from either a list of
// descriptors or the path to a target file.
func parseTargets(raw interface{}, dir string) (*targets.Targets, error) {
	switch t := raw.(type) {
	case nil:
		return targets.New(nil)
	case string:
		return targets.FromFile(resolvePath(t, dir))
	case []string:
		return targets.New(t)
	case []interface{}:
		descriptors := make([]string, 0, len(t))
		for _, d := range t {
			s, ok := d.(string)
			if !ok {
				return nil, fmt.Errorf("targets must be strings, got %T", d)
			}
			descriptors = append(descriptors, s)
		}
		return targets.New(descriptors)
	}
	return nil, fmt.Errorf("targets must be a list of targets or a file path, got %T", raw)
}

// resolvePath finds a target file relative to the working directory and,
// failing that, relative to the TOML's directory.
func resolvePath(path, dir string) string {
	if filepath.IsAbs(path) || dir == "" {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return filepath.Join(dir, path)
}
