package main

import (
	"github.com/spf13/cobra"

	"github.com/therealutkarshpriyadarshi/ytmeta/internal/config"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytmeta/internal/youtube"
)

func newRootCommand() *cobra.Command {
	return buildRootCommand(func(cfg *config.Config, logger *logging.Logger) videoClient {
		return youtube.NewClientFromConfig(cfg.YouTube, logger)
	})
}

func buildRootCommand(factory clientFactory) *cobra.Command {
	var configFlag string
	var verbose bool

	ctx := newCommandContext(&configFlag, &verbose, factory)

	rootCmd := &cobra.Command{
		Use:           "ytmeta",
		Short:         "Inspect YouTube URLs, metadata and captions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log backend activity to stderr")

	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newIDCommand())
	rootCmd.AddCommand(newInfoCommand(ctx))
	rootCmd.AddCommand(newCaptionsCommand(ctx))
	rootCmd.AddCommand(newTokenCommand(ctx))

	return rootCmd
}
