package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bitrec",
	Short: "bitrec - schema-driven bit-packed record codec",
	Long: `bitrec packs named, variable-width bit fields into fixed-size binary
records and unpacks them back, bit for bit.

A schema file (JSON or YAML) declares the fields in wire order:

  [
    {"name": "version", "bitLength": 8},
    {"name": "magic", "bitLength": 56}
  ]`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
