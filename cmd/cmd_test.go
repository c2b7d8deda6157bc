package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adoni5/readfish-tools/config"
	"github.com/Adoni5/readfish-tools/internal/conditions"
	"github.com/spf13/cobra"
)

const experiment = `
[[regions]]
name = "select"
targets = ["chr1,10,20,+"]
single_on = "stop_receiving"
multi_on = "stop_receiving"
single_off = "unblock"
multi_off = "unblock"
no_seq = "proceed"
no_map = "proceed"

[[regions]]
name = "control"
control = true
targets = []
single_on = "stop_receiving"
multi_on = "stop_receiving"
single_off = "stop_receiving"
multi_off = "stop_receiving"
no_seq = "stop_receiving"
no_map = "stop_receiving"
`

// writeInputs writes an experiment, its alignments and sequencing summary.
func writeInputs(t *testing.T) summariseFlags {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"experiment.toml": experiment,
		// channels 1-256 are the first region on a split MinION
		"reads.paf": "read-a\t100\t0\t100\t+\tchr1\t1000\t15\t115\t90\t100\t60\n" +
			"read-b\t200\t0\t200\t+\tchr1\t1000\t25\t225\t90\t100\t60\tch:i:2\n" +
			"read-c\t300\t0\t300\t+\tchr1\t1000\t15\t315\t90\t100\t60\n",
		"sequencing_summary.txt": "read_id\tchannel\tbarcode_arrangement\n" +
			"read-a\t1\tunclassified\n" +
			"read-c\t500\tunclassified\n",
	}
	for name, contents := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644); err != nil {
			t.Fatal(err)
		}
	}

	return summariseFlags{
		toml:   filepath.Join(dir, "experiment.toml"),
		paf:    filepath.Join(dir, "reads.paf"),
		seqSum: filepath.Join(dir, "sequencing_summary.txt"),
	}
}

func Test_runSummarise(t *testing.T) {
	flags := writeInputs(t)
	c := config.Defaults
	c.Out = filepath.Join(t.TempDir(), "summary.json")

	s, err := runSummarise(flags, c)
	if err != nil {
		t.Fatal(err)
	}

	selected, control := s.Conditions["select"], s.Conditions["control"]
	if selected == nil || selected.OnTargetReads != 1 || selected.OffTargetReads != 1 {
		t.Errorf("select = %+v", selected)
	}
	if control == nil || control.OffTargetReads != 1 || control.OffTargetYield != 300 {
		t.Errorf("control = %+v", control)
	}

	contents, err := os.ReadFile(c.Out)
	if err != nil {
		t.Fatal(err)
	}
	var out struct {
		Inputs     map[string]string          `json:"inputs"`
		Conditions map[string]json.RawMessage `json:"conditions"`
	}
	if err := json.Unmarshal(contents, &out); err != nil {
		t.Fatal(err)
	}
	if out.Inputs["seq_sum"] != flags.seqSum || len(out.Conditions) != 2 {
		t.Errorf("written summary = %s", contents)
	}
}

func Test_runSummarise_errors(t *testing.T) {
	good := writeInputs(t)
	c := config.Defaults
	c.Out = filepath.Join(t.TempDir(), "summary.json")

	noSeqSum := good
	noSeqSum.seqSum = ""

	missingPAF := good
	missingPAF.paf = filepath.Join(t.TempDir(), "missing.paf")

	uneven := c
	uneven.Flowcell.Size = 125

	tests := []struct {
		name  string
		flags summariseFlags
		c     config.Config
	}{
		{"untagged alignments without a sequencing summary", noSeqSum, c},
		{"missing alignments", missingPAF, c},
		{"flowcell that can't be split", good, uneven},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runSummarise(tt.flags, tt.c); err == nil {
				t.Error("runSummarise() returned no error")
			}
		})
	}

	if _, err := os.Stat(c.Out); err == nil {
		t.Error("a summary was written for a failed run")
	}
}

func Test_describe(t *testing.T) {
	flags := writeInputs(t)
	conf, err := conditions.Load(flags.toml, conditions.DefaultLayout)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	describe(&out, conf)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("describe() = %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "region select: 1 targets (1 contigs)") {
		t.Errorf("describe() line 0 = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "region control (control): 0 targets") || !strings.Contains(lines[1], "no_map=stop_receiving") {
		t.Errorf("describe() line 1 = %q", lines[1])
	}
}

func Test_writeGroups(t *testing.T) {
	var out bytes.Buffer
	writeGroups(&out, [][]int{{1, 2}, {3, 4}})

	want := "region 0: 2 channels\n[1 2]\nregion 1: 2 channels\n[3 4]\n"
	if out.String() != want {
		t.Errorf("writeGroups() = %q, want %q", out.String(), want)
	}
}

func Test_makeDocs(t *testing.T) {
	dir := t.TempDir()
	if err := makeDocs(dir); err != nil {
		t.Fatal(err)
	}

	contents, err := os.ReadFile(filepath.Join(dir, "readfish-tools_summarise.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(contents), "---\nlayout: default\ntitle: summarise\nparent: readfish-tools\n") {
		t.Errorf("summarise docs begin %q", string(contents[:80]))
	}

	if got := linkHandler("readfish-tools.md"); got != "/" {
		t.Errorf("linkHandler(root) = %q, want /", got)
	}
	if got := linkHandler("readfish-tools_validate.md"); got != "readfish-tools_validate" {
		t.Errorf("linkHandler(validate) = %q", got)
	}
}

func Test_describe_barcodes(t *testing.T) {
	b1, err := conditions.NewCondition(map[string]interface{}{
		"name":       "sampleA",
		"targets":    []interface{}{"chr1", "chr2,1,10,-"},
		"single_off": "unblock",
		"single_on":  "stop_receiving",
		"multi_off":  "unblock",
		"multi_on":   "stop_receiving",
		"no_map":     "proceed",
		"no_seq":     "proceed",
	}, "")
	if err != nil {
		t.Fatal(err)
	}
	conf, err := conditions.New(nil, []*conditions.Condition{b1}, conditions.DefaultLayout)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	describe(&out, conf)

	if !strings.HasPrefix(out.String(), "barcode samplea (sampleA): 3 targets (2 contigs), chunks 0-4") {
		t.Errorf("describe() = %q", out.String())
	}
}

func Test_layoutFlags(t *testing.T) {
	for _, cmd := range []*cobra.Command{summariseCmd, validateCmd, flowcellCmd} {
		axis := cmd.Flags().Lookup("split-axis")
		if axis == nil {
			t.Fatalf("%s has no split-axis flag", cmd.Name())
		}
		if !strings.Contains(axis.Usage, "3000 channel") || !strings.Contains(axis.Usage, "contiguous") {
			t.Errorf("%s split-axis usage = %q", cmd.Name(), axis.Usage)
		}
	}
}
