package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitrec/bitrec/pkg/api"
	"github.com/bitrec/bitrec/pkg/config"
	"github.com/bitrec/bitrec/pkg/registry"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bitrec HTTP service",
	Long: `Start the HTTP service: register schemas into the registry, then encode
and decode records by schema ID. Flags override the config file.

Examples:
  bitrec serve
  bitrec serve --config ./bitrec.yaml --port 9200
  bitrec serve --api-key mysecret --data-dir ./data`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		var cfg *config.Config
		if config.ConfigExists(configPath) {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
		} else {
			cfg = config.DefaultConfig()
		}

		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
		}
		if cmd.Flags().Changed("api-key") {
			cfg.Security.APIKey, _ = cmd.Flags().GetString("api-key")
		}
		if cfg.Security.APIKey == "auto" {
			key, err := config.GenerateSecureKey(32)
			if err != nil {
				return err
			}
			cfg.Security.APIKey = key
			cmd.Printf("generated API key: %s\n", key)
		}

		reg, err := registry.Open(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open schema registry: %w", err)
		}
		defer reg.Close()

		return api.StartServer(reg, api.ServerConfig{
			Port:   cfg.Port,
			Bind:   cfg.Bind,
			APIKey: cfg.Security.APIKey,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("config", config.GetDefaultConfigPath(), "Config file path")
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().String("data-dir", "./data", "Data directory for the schema registry")
	serveCmd.Flags().String("api-key", "", "API key for authentication (empty disables auth)")
}
