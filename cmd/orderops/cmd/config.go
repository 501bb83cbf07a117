package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deliverypicker/orderops/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file with defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(); err != nil {
			return err
		}
		path, _ := config.GetConfigPath()
		color.Green("✓ Config created: %s", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Set(args[0], args[1]); err != nil {
			return err
		}
		color.Green("✓ %s = %s", args[0], args[1])
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := config.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	header := color.New(color.FgCyan, color.Bold)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	header.Println("\n  CONFIGURATION")
	fmt.Println("  " + strings.Repeat("─", 40))
	fmt.Println()

	if path, err := config.GetConfigPath(); err == nil {
		status := "not created (using defaults)"
		if config.Exists() {
			status = path
		}
		fmt.Printf("  File:               %s\n", status)
	}
	fmt.Println()
	fmt.Printf("  catalog.file:        %s\n", cfg.Catalog.File)
	fmt.Printf("  relay.endpoint:      %s\n", displayValue(cfg.Relay.Endpoint))
	fmt.Printf("  relay.listen:        %s\n", cfg.Relay.Listen)
	fmt.Printf("  extract.endpoint:    %s\n", cfg.Extract.Endpoint)
	fmt.Printf("  extract.api_key_env: %s\n", cfg.Extract.APIKeyEnv)
	fmt.Printf("  extract.model:       %s\n", cfg.Extract.Model)
	fmt.Printf("  output.dir:          %s\n", cfg.Output.Dir)
	fmt.Printf("  database.use_db:     %v\n", cfg.Database.UseDB)
	fmt.Printf("  analytics.enabled:   %v\n", cfg.Analytics.Enabled)
	fmt.Println()
	return nil
}

func displayValue(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
