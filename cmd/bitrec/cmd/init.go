package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitrec/bitrec/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a bitrec config file",
	Long: `Create a config file with a generated API key. Refuses to overwrite an
existing file.

Example:
  bitrec init --config ./bitrec.yaml --data-dir ./data`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		dataDir, _ := cmd.Flags().GetString("data-dir")

		if config.ConfigExists(configPath) {
			return fmt.Errorf("config file already exists: %s", configPath)
		}

		cfg, err := config.BootstrapConfig(configPath, dataDir)
		if err != nil {
			return err
		}

		cmd.Printf("wrote %s\n", configPath)
		cmd.Printf("API key: %s\n", cfg.Security.APIKey)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().String("config", config.GetDefaultConfigPath(), "Config file path")
	initCmd.Flags().String("data-dir", "./data", "Data directory for the schema registry")
}
