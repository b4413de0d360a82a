// Package cmd wires the pixiu-cats command line.
package cmd

import (
	"github.com/spf13/cobra"
)

import (
	"github.com/nanjiek/pixiu-cats/internal/config"
)

var cfgFile string

var version = "dev"

// SetVersion is called by main with the build version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pixiu-cats",
		Short:         "Cats API with access control, throttling and pagination",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "configs/cats.yaml", "path to config file")

	root.AddCommand(newServeCmd())
	root.AddCommand(newConfigCmd())
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}
