package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-efficientnet/hub"
	"github.com/nvr-ai/go-efficientnet/weights"
)

// fetchCmd represents the efficientnet command for fetch.
var fetchCmd = &cobra.Command{
	Use:          "fetch <weights-name>",
	Short:        "Download a checkpoint into the local cache",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFetch(cmd.Context(), args[0])
	},
}

func runFetch(ctx context.Context, name string) error {
	entry, err := weights.Lookup(name)
	if err != nil {
		return err
	}

	path, err := hub.Fetch(ctx, entry, &hub.Options{
		CacheDir:        rootOpts.CacheDir,
		DisableProgress: rootOpts.DisableProgress,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Successfully fetched %s (%s): %s\n", entry.Name, humanize.Bytes(uint64(entry.Size)), path)
	return nil
}
