package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "orderops",
	Short: "Delivery Picker Operations Terminal",
	Long: color.New(color.FgCyan, color.Bold).Sprint(`
                 _
  ___  _ __ ___| | ___ _ __ ___  _ __  ___
 / _ \| '__/ _' |/ _ \ '__/ _ \| '_ \/ __|
| (_) | | | (_| |  __/ | | (_) | |_) \__ \
 \___/|_|  \__,_|\___|_|  \___/| .__/|___/
                               |_|
`) + `
Delivery Picker Operations Terminal - Order image toolkit

Compose shareable order images from selected catalog products,
match AI-extracted receipt lines back onto the catalog, and manage
the product catalog behind the storefront grid.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(relayCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(configCmd)
}
