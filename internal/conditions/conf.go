package conditions

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Adoni5/readfish-tools/internal/flowcell"
	"github.com/spf13/viper"
)

// Layout describes how a flowcell's channels are split between regions.
type Layout struct {
	// FlowcellSize is the number of channels on the flowcell
	FlowcellSize int

	// Axis the flowcell is split along: 0 for rows, 1 for columns
	Axis int
}

// DefaultLayout is a MinION flowcell split by columns.
var DefaultLayout = Layout{FlowcellSize: flowcell.MinION, Axis: 1}

// Conf is an experiment's conditions, indexed by channel and barcode.
type Conf struct {
	// Regions in the order they appear in the TOML
	Regions []*Condition

	// Barcodes by their lower-cased barcode call, the key of their TOML table
	Barcodes map[string]*Condition

	// Layout that channels were assigned to regions with
	Layout Layout

	// channels maps a channel to the index of its region
	channels map[int]int
}

// New creates a Conf from its regions and barcodes, keying each barcode by its
// name. Regions are assigned an even share of the flowcell's channels, split per layout.
func New(regions, barcodes []*Condition, layout Layout) (*Conf, error) {
	keyed := make(map[string]*Condition)
	for _, b := range barcodes {
		if _, ok := keyed[b.Name]; ok {
			return nil, fmt.Errorf("barcode name %q is used more than once", b.Name)
		}
		keyed[b.Name] = b
	}
	return newConf(regions, keyed, layout)
}

// newConf creates a Conf from its regions and barcodes keyed by barcode call.
func newConf(regions []*Condition, barcodes map[string]*Condition, layout Layout) (*Conf, error) {
	c := &Conf{
		Regions:  regions,
		Barcodes: make(map[string]*Condition),
		Layout:   layout,
		channels: make(map[int]int),
	}

	seen := make(map[string]bool)
	for _, r := range regions {
		if seen[r.Name] {
			return nil, fmt.Errorf("region name %q is used more than once", r.Name)
		}
		seen[r.Name] = true
	}

	names := make(map[string]string)
	for key, b := range barcodes {
		key = strings.ToLower(key)
		if other, ok := names[b.Name]; ok {
			return nil, fmt.Errorf("barcode name %q is used by both %s and %s", b.Name, other, key)
		}
		if _, ok := c.Barcodes[key]; ok {
			return nil, fmt.Errorf("barcode %q is used more than once", key)
		}
		names[b.Name] = key
		c.Barcodes[key] = b
	}

	if len(regions) > 0 {
		groups, err := flowcell.Split(layout.FlowcellSize, len(regions), layout.Axis, false)
		if err != nil {
			return nil, fmt.Errorf("failed to split flowcell between %d regions: %v", len(regions), err)
		}
		c.channels = flowcell.ChannelMap(groups)
	}

	return c, nil
}

// Load reads an experiment TOML: its [[regions]] array and [barcodes.*] tables.
// Other tables, such as caller and mapper settings, are ignored.
func Load(path string, layout Layout) (*Conf, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read experiment TOML %s: %v", path, err)
	}

	dir := filepath.Dir(path)

	var regions []*Condition
	if raw := v.Get("regions"); raw != nil {
		tables, ok := raw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("regions in %s must be an array of tables", path)
		}
		for i, t := range tables {
			table, ok := asTable(t)
			if !ok {
				return nil, fmt.Errorf("region %d in %s is not a table", i+1, path)
			}
			r, err := NewCondition(table, dir)
			if err != nil {
				return nil, fmt.Errorf("failed to parse region %d in %s: %v", i+1, path, err)
			}
			regions = append(regions, r)
		}
	}

	barcodes := make(map[string]*Condition)
	if raw := v.Get("barcodes"); raw != nil {
		tables, ok := asTable(raw)
		if !ok {
			return nil, fmt.Errorf("barcodes in %s must be a table", path)
		}

		keys := make([]string, 0, len(tables))
		for k := range tables {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			table, ok := asTable(tables[k])
			if !ok {
				return nil, fmt.Errorf("barcode %s in %s is not a table", k, path)
			}
			b, err := NewCondition(table, dir)
			if err != nil {
				return nil, fmt.Errorf("failed to parse barcode %s in %s: %v", k, path, err)
			}
			barcodes[k] = b
		}
	}

	if len(regions) == 0 && len(barcodes) == 0 {
		return nil, fmt.Errorf("no regions or barcodes in %s", path)
	}

	return newConf(regions, barcodes, layout)
}

// asTable asserts a decoded TOML value is a table.
func asTable(v interface{}) (map[string]interface{}, bool) {
	t, ok := v.(map[string]interface{})
	return t, ok
}

// HasBarcodes returns whether reads are demultiplexed by barcode.
func (c *Conf) HasBarcodes() bool {
	return len(c.Barcodes) > 0
}

// HasRegions returns whether reads are demultiplexed by channel.
func (c *Conf) HasRegions() bool {
	return len(c.Regions) > 0
}

// ForChannel returns the region a channel belongs to.
func (c *Conf) ForChannel(channel int) (*Condition, error) {
	if !c.HasRegions() {
		return nil, fmt.Errorf("no regions to assign channel %d to", channel)
	}
	i, ok := c.channels[channel]
	if !ok {
		return nil, fmt.Errorf("channel %d is not on the %d channel flowcell", channel, c.Layout.FlowcellSize)
	}
	return c.Regions[i], nil
}

// ForBarcode returns the condition for a barcode call, matched case-insensitively
// against the barcode table keys. Barcodes without a condition of their own fall
// back to the "classified" condition, if there is one; "unclassified" reads must
// have their own condition.
func (c *Conf) ForBarcode(barcode string) (*Condition, error) {
	if b, ok := c.Barcodes[barcode]; ok {
		return b, nil
	}
	call := strings.ToLower(barcode)
	if b, ok := c.Barcodes[call]; ok {
		return b, nil
	}
	if call != "unclassified" {
		if b, ok := c.Barcodes["classified"]; ok {
			return b, nil
		}
	}
	return nil, fmt.Errorf("no barcode condition for %q", barcode)
}

// BarcodeKeys returns the barcode calls with a condition, sorted.
func (c *Conf) BarcodeKeys() []string {
	keys := make([]string, 0, len(c.Barcodes))
	for key := range c.Barcodes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Names returns the condition names of every region and barcode, regions
// first, then barcodes in BarcodeKeys order.
func (c *Conf) Names() []string {
	names := make([]string, 0, len(c.Regions)+len(c.Barcodes))
	for _, r := range c.Regions {
		names = append(names, r.Name)
	}
	for _, key := range c.BarcodeKeys() {
		names = append(names, c.Barcodes[key].Name)
	}
	return names
}
