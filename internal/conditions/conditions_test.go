package conditions

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Adoni5/readfish-tools/internal/targets"
)

const regionTOML = `
[caller_settings]
config_name = "dna_r9.4.1_450bps_fast"

[[regions]]
name = "Rapid_CNS"
min_chunks = 1
max_chunks = 4
targets = "panel.bed"
single_on = "stop_receiving"
multi_on = "stop_receiving"
single_off = "unblock"
multi_off = "unblock"
no_seq = "proceed"
no_map = "proceed"

[[regions]]
name = "Direct_CNS"
control = true
targets = ["chr1", "chr2,3000,4000,-"]
single_on = "stop_receiving"
multi_on = "stop_receiving"
single_off = "stop_receiving"
multi_off = "stop_receiving"
no_seq = "stop_receiving"
no_map = "stop_receiving"
`

const barcodeTOML = `
[barcodes.barcode01]
name = "barcode01"
control = false
min_chunks = 0
max_chunks = 4
targets = ["NC_002516.2"]
single_on = "stop_receiving"
multi_on = "stop_receiving"
single_off = "unblock"
multi_off = "unblock"
no_seq = "proceed"
no_map = "proceed"
above_max_chunks = "proceed"

[barcodes.barcode02]
name = "barcode02"
targets = []
single_on = "unblock"
multi_on = "unblock"
single_off = "unblock"
multi_off = "unblock"
no_seq = "proceed"
no_map = "proceed"

[barcodes.unclassified]
name = "unclassified"
targets = []
single_on = "unblock"
multi_on = "unblock"
single_off = "unblock"
multi_off = "unblock"
no_seq = "proceed"
no_map = "proceed"

[barcodes.classified]
name = "classified"
targets = []
single_on = "unblock"
multi_on = "unblock"
single_off = "unblock"
multi_off = "unblock"
no_seq = "proceed"
no_map = "proceed"
`

// writeExperiment writes a TOML, and optional extra files, into a temp dir.
func writeExperiment(t *testing.T, toml string, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, contents := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(dir, "experiment.toml")
	if err := os.WriteFile(path, []byte(toml), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_regions(t *testing.T) {
	path := writeExperiment(t, regionTOML, map[string]string{
		"panel.bed": "chr7\t100\t200\tEGFR\t0\t+\n",
	})

	conf, err := Load(path, DefaultLayout)
	if err != nil {
		t.Fatal(err)
	}

	if len(conf.Regions) != 2 || conf.HasBarcodes() {
		t.Fatalf("Load() = %d regions, barcodes %v", len(conf.Regions), conf.HasBarcodes())
	}
	if conf.Regions[0].Name != "Rapid_CNS" || conf.Regions[1].Name != "Direct_CNS" {
		t.Errorf("regions out of order: %s, %s", conf.Regions[0].Name, conf.Regions[1].Name)
	}

	rapid := conf.Regions[0]
	if rapid.MinChunks != 1 || rapid.MaxChunks != 4 {
		t.Errorf("chunks = %d/%d, want 1/4", rapid.MinChunks, rapid.MaxChunks)
	}
	if rapid.Action(SingleOn) != StopReceiving || rapid.Action(SingleOff) != Unblock || rapid.Action(NoMap) != Proceed {
		t.Errorf("unexpected decision table: %v", rapid.Actions)
	}
	if !rapid.OnTarget("chr7", targets.Forward, 150) {
		t.Error("target from the relative BED path was not loaded")
	}

	direct := conf.Regions[1]
	if !direct.Control {
		t.Error("Direct_CNS should be a control")
	}
	if got := direct.Targets.Intervals(targets.Reverse, "chr2"); !reflect.DeepEqual(got, []targets.Interval{{Start: 3000, Stop: 4000}}) {
		t.Errorf("Direct_CNS chr2 reverse = %v", got)
	}
	if direct.MinChunks != defaultMinChunks || direct.MaxChunks != defaultMaxChunks {
		t.Errorf("default chunks = %d/%d, want 0/4", direct.MinChunks, direct.MaxChunks)
	}

	// MinION split in two by column
	first, err := conf.ForChannel(1)
	if err != nil {
		t.Fatal(err)
	}
	last, err := conf.ForChannel(512)
	if err != nil {
		t.Fatal(err)
	}
	if first.Name != "Rapid_CNS" || last.Name != "Direct_CNS" {
		t.Errorf("ForChannel(1), ForChannel(512) = %s, %s", first.Name, last.Name)
	}
	if _, err := conf.ForChannel(513); err == nil {
		t.Error("ForChannel(513) returned no error")
	}
}

func TestLoad_barcodes(t *testing.T) {
	conf, err := Load(writeExperiment(t, barcodeTOML, nil), DefaultLayout)
	if err != nil {
		t.Fatal(err)
	}

	if conf.HasRegions() || len(conf.Barcodes) != 4 {
		t.Fatalf("Load() = %d regions, %d barcodes", len(conf.Regions), len(conf.Barcodes))
	}

	b1, err := conf.ForBarcode("barcode01")
	if err != nil {
		t.Fatal(err)
	}
	if got := b1.Targets.Intervals(targets.Reverse, "NC_002516.2"); !reflect.DeepEqual(got, []targets.Interval{{Start: 0, Stop: targets.MaxCoord}}) {
		t.Errorf("barcode01 targets = %v", got)
	}
	if b1.AboveMaxChunks != Proceed || b1.BelowMinChunks != Proceed {
		t.Errorf("chunk actions = %v/%v", b1.AboveMaxChunks, b1.BelowMinChunks)
	}

	if b, _ := conf.ForBarcode("barcode07"); b == nil || b.Name != "classified" {
		t.Errorf("ForBarcode(barcode07) = %v, want classified", b)
	}
	if b, _ := conf.ForBarcode("unclassified"); b == nil || b.Name != "unclassified" {
		t.Errorf("ForBarcode(unclassified) = %v", b)
	}

	want := []string{"barcode01", "barcode02", "classified", "unclassified"}
	if got := conf.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

// barcode tables are found by their key, the barcode call, not by condition name
func TestLoad_barcodeKeys(t *testing.T) {
	const toml = `
[barcodes.Barcode01]
name = "sampleA"
targets = ["chr1"]
single_on = "stop_receiving"
multi_on = "stop_receiving"
single_off = "unblock"
multi_off = "unblock"
no_seq = "proceed"
no_map = "proceed"

[barcodes.classified]
name = "classified"
single_on = "unblock"
multi_on = "unblock"
single_off = "unblock"
multi_off = "unblock"
no_seq = "proceed"
no_map = "proceed"
`
	conf, err := Load(writeExperiment(t, toml, nil), DefaultLayout)
	if err != nil {
		t.Fatal(err)
	}

	for _, call := range []string{"barcode01", "Barcode01", "BARCODE01"} {
		if b, err := conf.ForBarcode(call); err != nil || b.Name != "sampleA" {
			t.Errorf("ForBarcode(%s) = %v, %v, want sampleA", call, b, err)
		}
	}
	if b, _ := conf.ForBarcode("sampleA"); b == nil || b.Name != "classified" {
		t.Errorf("ForBarcode(sampleA) = %v, want the classified fallback", b)
	}

	if got := conf.BarcodeKeys(); !reflect.DeepEqual(got, []string{"barcode01", "classified"}) {
		t.Errorf("BarcodeKeys() = %v", got)
	}
	if got := conf.Names(); !reflect.DeepEqual(got, []string{"sampleA", "classified"}) {
		t.Errorf("Names() = %v", got)
	}

	shared := strings.Replace(toml, `name = "classified"`, `name = "sampleA"`, 1)
	if _, err := Load(writeExperiment(t, shared, nil), DefaultLayout); err == nil {
		t.Error("Load() with two barcodes sharing a name returned no error")
	}
}

func TestConf_ForBarcode_noFallback(t *testing.T) {
	b := &Condition{Name: "barcode01"}
	conf, err := New(nil, []*Condition{b}, DefaultLayout)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := conf.ForBarcode("barcode02"); err == nil {
		t.Error("ForBarcode() without a classified condition returned no error")
	}
	if _, err := conf.ForChannel(1); err == nil {
		t.Error("ForChannel() without regions returned no error")
	}
}

func TestNew_duplicates(t *testing.T) {
	a := &Condition{Name: "A"}
	if _, err := New([]*Condition{a, a}, nil, DefaultLayout); err == nil {
		t.Error("New() with duplicate regions returned no error")
	}
	if _, err := New(nil, []*Condition{a, a}, DefaultLayout); err == nil {
		t.Error("New() with duplicate barcodes returned no error")
	}
	if _, err := New([]*Condition{a, {Name: "B"}, {Name: "C"}}, nil, DefaultLayout); err == nil {
		t.Error("New() with an uneven flowcell split returned no error")
	}
}

// complete is a valid raw condition.
func complete() map[string]interface{} {
	return map[string]interface{}{
		"name":       "A",
		"targets":    []interface{}{"chr1,10,20,+"},
		"single_off": "unblock",
		"single_on":  "stop_receiving",
		"multi_off":  "unblock",
		"multi_on":   "stop_receiving",
		"no_map":     "proceed",
		"no_seq":     "proceed",
	}
}

func TestNewCondition(t *testing.T) {
	c, err := NewCondition(complete(), "")
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "A" || c.MinChunks != 0 || c.MaxChunks != 4 {
		t.Errorf("NewCondition() = %+v", c)
	}
	if !c.OnTarget("chr1", targets.Forward, 15) || c.OnTarget("chr1", targets.Reverse, 15) {
		t.Error("condition targets not built")
	}
}

func TestNewCondition_errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]interface{})
		message string
	}{
		{"missing name", func(m map[string]interface{}) { delete(m, "name") }, "name"},
		{"missing action", func(m map[string]interface{}) { delete(m, "no_seq") }, "no_seq"},
		{"unknown action", func(m map[string]interface{}) { m["multi_on"] = "eject" }, "unknown action"},
		{"unknown key", func(m map[string]interface{}) { m["colour"] = "red" }, "colour"},
		{"chunks out of range", func(m map[string]interface{}) { m["max_chunks"] = int64(300) }, "max_chunks"},
		{"negative chunks", func(m map[string]interface{}) { m["min_chunks"] = int64(-1) }, "min_chunks"},
		{"malformed target", func(m map[string]interface{}) { m["targets"] = []interface{}{"chr1,10"} }, "target"},
		{"non-string target", func(m map[string]interface{}) { m["targets"] = []interface{}{int64(1)} }, "strings"},
		{"unreadable target file", func(m map[string]interface{}) { m["targets"] = "does/not/exist.bed" }, "exist.bed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := complete()
			tt.mutate(raw)
			_, err := NewCondition(raw, "")
			if err == nil {
				t.Fatal("NewCondition() returned no error")
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("NewCondition() error = %v, want it to mention %q", err, tt.message)
			}
		})
	}
}

func TestNewCondition_unknownActionIsSentinel(t *testing.T) {
	raw := complete()
	raw["single_on"] = "maybe"
	if _, err := NewCondition(raw, ""); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("NewCondition() error = %v, want ErrUnknownAction", err)
	}
}

func TestLoad_errors(t *testing.T) {
	if _, err := Load(writeExperiment(t, "[caller_settings]\nhost = \"ipc:///tmp/.guppy\"\n", nil), DefaultLayout); err == nil {
		t.Error("Load() of a TOML without conditions returned no error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml"), DefaultLayout); err == nil {
		t.Error("Load() of a missing file returned no error")
	}
	bad := strings.Replace(regionTOML, `no_map = "proceed"`, `no_map = "skip"`, 1)
	if _, err := Load(writeExperiment(t, bad, map[string]string{"panel.bed": ""}), DefaultLayout); err == nil {
		t.Error("Load() with an unknown action returned no error")
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		mappings int
		onTarget bool
		hasSeq   bool
		want     Decision
	}{
		{0, false, false, NoSeq},
		{0, false, true, NoMap},
		{1, true, true, SingleOn},
		{1, false, true, SingleOff},
		{3, true, true, MultiOn},
		{3, false, true, MultiOff},
	}
	for _, tt := range tests {
		if got := Decide(tt.mappings, tt.onTarget, tt.hasSeq); got != tt.want {
			t.Errorf("Decide(%d, %v, %v) = %v, want %v", tt.mappings, tt.onTarget, tt.hasSeq, got, tt.want)
		}
	}
}
