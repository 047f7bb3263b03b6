package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"sentinelfetch/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage sentinelfetch configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (SENTINELFETCH_*)
  - .env files (./.env and ~/.sentinelfetch.env)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'sentinelfetch.yaml'
unless a different path is specified with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging all sources.

The client secret is masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# sentinelfetch configuration
#
# Every option can also be set with an environment variable prefixed with
# SENTINELFETCH_, for example SENTINELFETCH_CLIENT_ID. Prefer
# 'sentinelfetch auth login' over putting the secret in this file.

sentinel_hub:
  client_id: ""
  client_secret: ""
  # Name of credentials stored with 'sentinelfetch auth login'
  account: ""
  token_url: "https://services.sentinel-hub.com/oauth/token"
  process_url: "https://services.sentinel-hub.com/api/v1/process"

input:
  # CSV with id, lat and long columns
  csv_path: "train.csv"

output:
  image_dir: "data/images"
  # Write through a temporary file so an interrupted run never leaves a
  # truncated PNG that would be skipped next time
  atomic_writes: true

request:
  collection: "sentinel-2-l2a"
  # Half the side of the bounding box, in degrees
  half_width_deg: 0.002
  width: 224
  height: 224
  time_from: "2023-01-01T00:00:00Z"
  time_to: "2023-12-31T23:59:59Z"

rate_limit:
  # fixed or token_bucket
  strategy: "fixed"
  # Pause after each request (fixed strategy)
  delay: "500ms"
  # Used by token_bucket
  requests_per_minute: 120

http:
  # 0 means no timeout
  timeout: "0s"

retry:
  enabled: false
  max_attempts: 1
  base_delay: "1s"
  max_delay: "30s"

metrics:
  enabled: false
  listen_addr: ":9464"

notifications:
  enabled: false

logging:
  level: "info"
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "sentinelfetch.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	console := newConsole()
	console.PrintSuccess("Configuration file created: %s", configPath)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Run 'sentinelfetch auth login' to store your OAuth client")
	fmt.Fprintln(out, "2. Run 'sentinelfetch config validate' to check the configuration")
	fmt.Fprintln(out, "3. Start downloading with 'sentinelfetch fetch'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := yaml.Marshal(maskConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	newConsole().PrintHighlight("Current Configuration")
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

// maskConfig returns a copy of cfg safe to print
func maskConfig(cfg *config.Config) *config.Config {
	display := *cfg
	if secret := display.SentinelHub.ClientSecret; secret != "" {
		if len(secret) > 8 {
			display.SentinelHub.ClientSecret = secret[:4] + "..." + secret[len(secret)-4:]
		} else {
			display.SentinelHub.ClientSecret = "***"
		}
	}
	return &display
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	console := newConsole()
	if configFile != "" {
		console.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	if !cfg.HasCredentials() {
		console.PrintWarning("No client credentials in configuration; stored credentials will be used")
	}
	console.PrintSuccess("Configuration is valid")
	return nil
}
