package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	efficientnet "github.com/nvr-ai/go-efficientnet"
	"github.com/nvr-ai/go-efficientnet/weights"
)

// weightsCmd represents the efficientnet command for weights.
var weightsCmd = &cobra.Command{
	Use:          "weights [variant]",
	Short:        "List published weight entries and their metadata",
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		arch := ""
		if len(args) == 1 {
			variant, err := efficientnet.ParseVariant(args[0])
			if err != nil {
				return err
			}
			arch = variant.String()
		}
		return runWeights(arch)
	},
}

func runWeights(arch string) error {
	var entries []*weights.Entry
	if arch != "" {
		entries = weights.ForArch(arch)
		if len(entries) == 0 {
			return fmt.Errorf("no weight entries for %s", arch)
		}
	} else {
		for _, name := range weights.Names() {
			entry, err := weights.Lookup(name)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tACC@1\tACC@5\tPARAMS\tCROP\tSIZE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%s\t%d\t%s\n",
			e.Name,
			e.Meta.Acc1,
			e.Meta.Acc5,
			humanize.Comma(e.Meta.NumParams),
			e.Transform.CropSize,
			humanize.Bytes(uint64(e.Size)),
		)
	}
	return w.Flush()
}
