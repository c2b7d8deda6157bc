package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/Adoni5/readfish-tools/config"
	"github.com/Adoni5/readfish-tools/internal/flowcell"
	"github.com/spf13/cobra"
)

// flowcellCmd prints how a flowcell's channels are split between regions
var flowcellCmd = &cobra.Command{
	Use:                        "flowcell",
	Short:                      "Show how a flowcell's channels are split between regions",
	SuggestionsMinimumDistance: 2,
	Long: `
Split the channels of a flowcell into equal groups, one per region of an
experiment, and list the channels in each. Regions are assigned groups in the
order they appear in the TOML.`,
	PreRun: func(cmd *cobra.Command, args []string) {
		bindFlags(cmd, "flowcell-size", "split-axis")
	},
	Run: func(cmd *cobra.Command, args []string) {
		c, err := config.New()
		if err != nil {
			stderr.Fatalln(err)
		}

		split, _ := cmd.Flags().GetInt("split")
		oddEven, _ := cmd.Flags().GetBool("odd-even")

		groups, err := flowcell.Split(c.Flowcell.Size, split, c.Flowcell.Axis, oddEven)
		if err != nil {
			stderr.Fatalln(err)
		}

		writeGroups(os.Stdout, groups)
	},
}

// writeGroups writes each group's channel count and its channels.
func writeGroups(w io.Writer, groups [][]int) {
	for i, g := range groups {
		fmt.Fprintf(w, "region %d: %d channels\n", i, len(g))
		fmt.Fprintln(w, g)
	}
}

func init() {
	flowcellCmd.Flags().IntP("split", "n", 1, "number of regions to split the flowcell into")
	flowcellCmd.Flags().Bool("odd-even", false, "split into odd and even channels instead")
	layoutFlags(flowcellCmd)

	rootCmd.AddCommand(flowcellCmd)
}
