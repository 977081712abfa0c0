package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	efficientnet "github.com/nvr-ai/go-efficientnet"
)

var variantsOpts struct {
	Summary string
}

// variantsCmd represents the efficientnet command for variants.
var variantsCmd = &cobra.Command{
	Use:          "variants",
	Short:        "List the family's variants and their scaling parameters",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if variantsOpts.Summary != "" {
			return runVariantSummary(cmd.Context(), variantsOpts.Summary)
		}
		return runVariants()
	},
}

func init() {
	variantsCmd.Flags().StringVar(&variantsOpts.Summary, "summary", "",
		"print the full stage table of one variant instead of the family listing")
}

func runVariants() error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tWIDTH\tDEPTH\tDROPOUT\tRESOLUTION\tFEATURES\tPARAMS")
	for _, v := range efficientnet.Variants() {
		p, err := v.Params()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%.1f\t%d\t%d\t%s\n",
			v,
			p.WidthMult,
			p.DepthMult,
			p.Dropout,
			p.TrainSize,
			p.HeadChannels(),
			humanize.Comma(p.ParamCount(1000)),
		)
	}
	return w.Flush()
}

func runVariantSummary(ctx context.Context, name string) error {
	variant, err := efficientnet.ParseVariant(name)
	if err != nil {
		return err
	}

	model, err := efficientnet.New(ctx, variant, nil)
	if err != nil {
		return err
	}
	fmt.Print(model.Summary())
	return nil
}
