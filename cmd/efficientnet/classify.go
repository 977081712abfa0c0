package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	efficientnet "github.com/nvr-ai/go-efficientnet"
	"github.com/nvr-ai/go-efficientnet/images"
	"github.com/nvr-ai/go-efficientnet/inference"
	"github.com/nvr-ai/go-efficientnet/util"
	"github.com/nvr-ai/go-efficientnet/weights"
)

var classifyOpts struct {
	Variant string
	Weights string
	TopK    int
	JSON    bool
}

// classifyCmd represents the efficientnet command for classify.
var classifyCmd = &cobra.Command{
	Use:          "classify [flags] <image|directory>...",
	Short:        "Classify images with a pretrained variant",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClassify(cmd.Context(), args)
	},
}

func init() {
	flags := classifyCmd.Flags()
	flags.StringVar(&classifyOpts.Variant, "variant", "b0", "specify the variant (b0-b7)")
	flags.StringVar(&classifyOpts.Weights, "weights", "", "specify a weight entry by name, defaults to the variant's default entry")
	flags.IntVar(&classifyOpts.TopK, "top-k", efficientnet.DefaultTopK, "number of predictions per image")
	flags.BoolVar(&classifyOpts.JSON, "json", false, "emit predictions as JSON")

	if err := viper.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("bind classify flags to viper: %w", err))
	}
}

// buildModel constructs the pretrained model shared by classify, bench
// and serve.
func buildModel(ctx context.Context, variantName, weightsName string, topK int) (*efficientnet.Model, error) {
	variant, err := efficientnet.ParseVariant(variantName)
	if err != nil {
		return nil, err
	}

	var entry *weights.Entry
	if weightsName != "" {
		entry, err = weights.Lookup(weightsName)
	} else {
		entry, err = weights.Default(variant.String())
	}
	if err != nil {
		return nil, err
	}

	provider, err := providerConfig()
	if err != nil {
		return nil, err
	}

	return efficientnet.New(ctx, variant, &efficientnet.Options{
		Weights:         entry,
		TopK:            topK,
		CacheDir:        rootOpts.CacheDir,
		DisableProgress: rootOpts.DisableProgress,
		Provider:        provider,
	})
}

// classified pairs an input path with its predictions for output.
type classified struct {
	Path        string                 `json:"path"`
	Predictions []inference.Prediction `json:"predictions"`
}

func runClassify(ctx context.Context, args []string) error {
	model, err := buildModel(ctx, classifyOpts.Variant, classifyOpts.Weights, classifyOpts.TopK)
	if err != nil {
		return err
	}
	defer model.Close()

	var results []classified
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return err
		}

		if info.IsDir() {
			dirResults, err := classifyDirectory(ctx, model, arg)
			if err != nil {
				return err
			}
			results = append(results, dirResults...)
			continue
		}

		img, _, err := images.DecodeFile(arg)
		if err != nil {
			return err
		}
		preds, err := model.Classify(ctx, img)
		if err != nil {
			return err
		}
		results = append(results, classified{Path: arg, Predictions: preds})
	}

	return printClassified(results)
}

func classifyDirectory(ctx context.Context, model *efficientnet.Model, dir string) ([]classified, error) {
	files, err := util.LoadImageFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no images found in %s", dir)
	}

	imgs := make([]image.Image, 0, len(files))
	for _, f := range files {
		img, _, err := images.Decode(f.Data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", f.Path, err)
		}
		imgs = append(imgs, img)
	}

	batches, err := model.ClassifyBatch(ctx, imgs)
	if err != nil {
		return nil, err
	}

	results := make([]classified, len(files))
	for i, f := range files {
		results[i] = classified{Path: f.Path, Predictions: batches[i]}
	}
	return results, nil
}

func printClassified(results []classified) error {
	if classifyOpts.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, r := range results {
		fmt.Printf("%s\n", r.Path)
		for _, p := range r.Predictions {
			fmt.Printf("  %6.2f%%  %s\n", p.Score*100, p.Label)
		}
	}
	return nil
}
