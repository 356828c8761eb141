package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ft-systems/frankentorch/internal/ftconfig"
)

// rootOptions holds flags shared across every subcommand.
type rootOptions struct {
	configPath string
	logger     *zap.Logger
	config     ftconfig.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "ftctl",
		Short:         "Thin demonstrator CLI over the tensor/dispatch/autograd/checkpoint/raptorq session façade",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := ftconfig.Default()
			if opts.configPath != "" {
				loaded, err := ftconfig.Load(opts.configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			opts.config = cfg

			level, err := zap.ParseAtomicLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			zapCfg := zap.NewProductionConfig()
			zapCfg.Level = level
			logger, err := zapCfg.Build()
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a TOML config file (defaults to built-in defaults)")

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newCheckpointCmd(opts))
	cmd.AddCommand(newSidecarCmd(opts))

	return cmd
}
