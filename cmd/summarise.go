package cmd

import (
	"time"

	"github.com/Adoni5/readfish-tools/config"
	"github.com/Adoni5/readfish-tools/internal/conditions"
	"github.com/Adoni5/readfish-tools/internal/demux"
	"github.com/Adoni5/readfish-tools/internal/paf"
	"github.com/Adoni5/readfish-tools/internal/seqsum"
	"github.com/Adoni5/readfish-tools/internal/summary"
	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"
)

// summariseFlags are the input paths of a summary.
type summariseFlags struct {
	toml   string
	paf    string
	seqSum string
}

var summarise summariseFlags

// summariseCmd summarises the alignments of an experiment per condition and contig
var summariseCmd = &cobra.Command{
	Use:                        "summarise",
	Short:                      "Summarise the on and off target alignments of an experiment",
	Aliases:                    []string{"summarize"},
	SuggestionsMinimumDistance: 2,
	Long: `
Summarise the alignments of a readfish experiment, in PAF, against the
conditions of its TOML.

Each alignment is attributed to a condition by its barcode or by the region
of the flowcell its channel is in. Channels and barcodes are read from the
"ch" and "ba" tags of the PAF or, failing that, from the sequencing summary.
Alignments are then classified as on or off target and counted per condition
and per contig. The summary is written as JSON.`,
	PreRun: func(cmd *cobra.Command, args []string) {
		bindFlags(cmd, "flowcell-size", "split-axis", "out", "progress")
	},
	Run: func(cmd *cobra.Command, args []string) {
		c, err := config.New()
		if err != nil {
			stderr.Fatalln(err)
		}

		s, err := runSummarise(summarise, c)
		if err != nil {
			stderr.Fatalln(err)
		}

		if c.Out != "-" {
			logSummary(s)
		}
	},
}

// runSummarise makes a single pass over the alignments and writes their summary.
func runSummarise(flags summariseFlags, c config.Config) (*summary.Summary, error) {
	start := time.Now()

	layout := conditions.Layout{FlowcellSize: c.Flowcell.Size, Axis: c.Flowcell.Axis}
	conf, err := conditions.Load(flags.toml, layout)
	if err != nil {
		return nil, err
	}

	alignments, err := paf.Open(flags.paf)
	if err != nil {
		return nil, err
	}
	defer alignments.Close()

	var index demux.AuxIndex
	if flags.seqSum != "" {
		seqSum, err := seqsum.Open(flags.seqSum)
		if err != nil {
			return nil, err
		}
		defer seqSum.Close()
		index = seqSum
	}

	d := demux.New(conf, index)
	if c.Progress {
		bar := pb.Full.Start64(0)
		d.Progress = func() { bar.Increment() }
		defer bar.Finish()
	}

	s, err := d.Run(alignments)
	if err != nil {
		return nil, err
	}

	inputs := map[string]string{"toml": flags.toml, "paf": flags.paf}
	if flags.seqSum != "" {
		inputs["seq_sum"] = flags.seqSum
	}
	if _, err := s.Write(c.Out, inputs, time.Since(start).Seconds()); err != nil {
		return nil, err
	}

	return s, nil
}

// logSummary logs a line per condition to stderr.
func logSummary(s *summary.Summary) {
	for _, name := range s.Names() {
		c := s.Conditions[name]
		stderr.Printf(
			"%s: %d reads, %d on target (%d bases), %d off target (%d bases), %.2f%% off target, N50 %d\n",
			name, c.TotalReads, c.OnTargetReads, c.OnTargetYield, c.OffTargetReads, c.OffTargetYield, c.OffTargetPercent, c.N50,
		)
	}
}

func init() {
	summariseCmd.Flags().StringVarP(&summarise.toml, "toml", "t", "", "readfish experiment <TOML>")
	summariseCmd.Flags().StringVarP(&summarise.paf, "paf", "p", "", "alignments of the experiment's reads, '-' for stdin <PAF>")
	summariseCmd.Flags().StringVarP(&summarise.seqSum, "seq-sum", "q", "", "sequencing summary, for alignments without ch or ba tags <TSV>")
	summariseCmd.Flags().StringP("out", "o", config.Defaults.Out, "output file name, '-' for stdout, .gz to compress <JSON>")
	summariseCmd.Flags().BoolP("progress", "g", false, "show a progress bar")
	layoutFlags(summariseCmd)

	summariseCmd.MarkFlagRequired("toml")
	summariseCmd.MarkFlagRequired("paf")

	rootCmd.AddCommand(summariseCmd)
}

// layoutFlags adds the flowcell layout flags to a command.
func layoutFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("flowcell-size", "f", config.Defaults.Flowcell.Size, "number of channels on the flowcell")
	cmd.Flags().IntP("split-axis", "a", config.Defaults.Flowcell.Axis, "axis to split a 3000 channel flowcell between regions along, 0 for rows and 1 for columns. Other flowcells are split into contiguous channel ranges")
}
