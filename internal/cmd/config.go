package cmd

import (
	"fmt"
)

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/admission"
	"github.com/nanjiek/pixiu-cats/internal/config"
	"github.com/nanjiek/pixiu-cats/internal/limiter"
)

func newConfigCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	c.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load the config file and build every endpoint without serving",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := validateEndpoints(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d endpoints)\n", cfgFile, len(cfg.Endpoints))
			return nil
		},
	})
	c.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with defaults applied",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Redis.Password != "" {
				cfg.Redis.Password = "******"
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	})
	return c
}

// validateEndpoints builds the endpoints against a throwaway store so rate
// strings, policies and pagination strategies are checked too.
func validateEndpoints(cfg *config.Config) error {
	_, err := admission.Build(cfg, limiter.NewMemoryStore(), nil)
	return err
}
