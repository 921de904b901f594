// Package app implements the marketauth command line: validating tokens,
// listing signing keys and serving a gated demo API.
package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tradepost/marketauth/config"
)

type rootOptions struct {
	configPath string
}

// NewRootCmd creates the marketauth root command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "marketauth",
		Short:         "Validate marketplace access tokens and derive caller permissions",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"path to a YAML config file (default ./marketauth.yaml or /etc/marketauth/marketauth.yaml)")

	cmd.AddCommand(
		newValidateCmd(opts),
		newKeysCmd(opts),
		newServeCmd(opts),
	)

	return cmd
}

func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	// Keep stdout for command output.
	zc.OutputPaths = []string{"stderr"}

	return zc.Build()
}
