// Package cmd provides the CLI commands for searchd.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hideoutdb/searchd/pkg/version"
)

// configPath is shared by every subcommand that loads configuration.
var configPath string

// NewRootCmd creates the root command for the searchd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "searchd",
		Short: "Full-text search service for the hideout catalog",
		Long: `searchd keeps a full-text index of the catalog in sync with the
upstream API and serves ranked and fuzzy queries over HTTP.

Running 'searchd' with no subcommand starts the server.`,
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			return runServe(cmd.Context())
		},
	}

	cmd.SetVersionTemplate("searchd version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to config file (environment overrides still apply)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
