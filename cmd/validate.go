package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Adoni5/readfish-tools/config"
	"github.com/Adoni5/readfish-tools/internal/conditions"
	"github.com/Adoni5/readfish-tools/internal/targets"
	"github.com/spf13/cobra"
)

// validateCmd loads an experiment TOML and reports its conditions
var validateCmd = &cobra.Command{
	Use:                        "validate [toml]",
	Short:                      "Check an experiment TOML and list its conditions",
	Args:                       cobra.ExactArgs(1),
	SuggestionsMinimumDistance: 2,
	Long: `
Load the conditions of a readfish experiment TOML, with their targets, and
list them. Unknown keys, missing actions, malformed targets and flowcells that
can't be split evenly between the regions are reported as errors.`,
	PreRun: func(cmd *cobra.Command, args []string) {
		bindFlags(cmd, "flowcell-size", "split-axis")
	},
	Run: func(cmd *cobra.Command, args []string) {
		c, err := config.New()
		if err != nil {
			stderr.Fatalln(err)
		}

		layout := conditions.Layout{FlowcellSize: c.Flowcell.Size, Axis: c.Flowcell.Axis}
		conf, err := conditions.Load(args[0], layout)
		if err != nil {
			stderr.Fatalln(err)
		}

		describe(os.Stdout, conf)
	},
}

// describe writes a line per condition: its kind, targets and actions.
func describe(w io.Writer, conf *conditions.Conf) {
	for _, r := range conf.Regions {
		describeCondition(w, "region", r.Name, r)
	}
	for _, key := range conf.BarcodeKeys() {
		b := conf.Barcodes[key]
		label := key
		if b.Name != key {
			label = fmt.Sprintf("%s (%s)", key, b.Name)
		}
		describeCondition(w, "barcode", label, b)
	}
}

// describeCondition writes the line of a single condition.
func describeCondition(w io.Writer, kind, label string, c *conditions.Condition) {
	control := ""
	if c.Control {
		control = " (control)"
	}

	actions := make([]string, len(c.Actions))
	for i, a := range c.Actions {
		actions[i] = fmt.Sprintf("%s=%s", conditions.Decision(i), a)
	}

	fmt.Fprintf(w, "%s %s%s: %d targets (%d contigs), chunks %d-%d, %s\n",
		kind, label, control,
		c.Targets.Len(), contigCount(c.Targets),
		c.MinChunks, c.MaxChunks,
		strings.Join(actions, " "),
	)
}

// contigCount is the number of contigs with targets on either strand.
func contigCount(t *targets.Targets) int {
	contigs := make(map[string]bool)
	for _, s := range []targets.Strand{targets.Forward, targets.Reverse} {
		for _, contig := range t.Contigs(s) {
			contigs[contig] = true
		}
	}
	return len(contigs)
}

func init() {
	layoutFlags(validateCmd)

	rootCmd.AddCommand(validateCmd)
}
