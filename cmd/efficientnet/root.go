package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nvr-ai/go-efficientnet/inference/providers"
)

// Persistent options shared by every subcommand.
var rootOpts struct {
	LogLevel        string
	CacheDir        string
	DisableProgress bool
	Provider        string
	IntraOpThreads  int
}

// rootCmd represents the efficientnet command.
var rootCmd = &cobra.Command{
	Use:               "efficientnet",
	Short:             "EfficientNet B0-B7 image classification from the command line",
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel, err := logrus.ParseLevel(rootOpts.LogLevel)
		if err != nil {
			return err
		}

		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
		return nil
	},
}

// Execute runs the root command. It is called once from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootOpts.LogLevel, "log-level", "info", "specify the log level (debug, info, warn, error)")
	flags.StringVar(&rootOpts.CacheDir, "cache-dir", "", "specify the checkpoint cache directory")
	flags.BoolVar(&rootOpts.DisableProgress, "no-progress", false, "disable the download progress bar")
	flags.StringVar(&rootOpts.Provider, "provider", "cpu", "specify the execution provider (cpu, cuda, coreml, openvino)")
	flags.IntVar(&rootOpts.IntraOpThreads, "threads", 0, "bound intra-op threads, 0 lets the runtime decide")

	viper.SetEnvPrefix("EFFICIENTNET")
	viper.AutomaticEnv()
	if err := viper.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("bind root flags to viper: %w", err))
	}

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(weightsCmd)
	rootCmd.AddCommand(variantsCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(serveCmd)
}

// providerConfig renders the persistent provider flags as a session
// provider configuration.
func providerConfig() (*providers.Config, error) {
	return providers.NewConfig(providers.Config{
		Backend:        providers.ProviderBackend(rootOpts.Provider),
		IntraOpThreads: rootOpts.IntraOpThreads,
	})
}
