package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "declroute",
	Short: "Declarative route registration with validation, docs and auth",
	Long: `declroute turns compact route descriptions into validated,
documented, authenticated HTTP endpoints.

Each registered route yields three artifacts:
  - a runtime validation schema for query/path/header/body input
  - an OpenAPI documentation entry served at /docs
  - an auth- and error-wrapped request handler

Quick start:
  declroute serve     # start the example API server`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "declroute.yaml", "config file path")
}
