package cmd

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deliverypicker/orderops/internal/config"
	"github.com/deliverypicker/orderops/internal/relay"
)

var relayListen string

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Image fetch relay",
}

var relayServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the image fetch relay",
	Long: `Serve the relay that fetches cross-origin product images and
returns them as data URIs. Only public HTTPS URLs are fetched;
requests for loopback, private or link-local addresses are refused.`,
	RunE: runRelay,
}

func init() {
	relayServeCmd.Flags().StringVar(&relayListen, "listen", "", "Listen address (default from config)")
	relayCmd.AddCommand(relayServeCmd)
}

func runRelay(cmd *cobra.Command, args []string) error {
	header := color.New(color.FgCyan, color.Bold)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	listen := cfg.Relay.Listen
	if relayListen != "" {
		listen = relayListen
	}

	header.Println("\n  IMAGE FETCH RELAY")
	fmt.Println("  " + strings.Repeat("─", 40))
	fmt.Println()
	color.Green("  Listening on %s\n", listen)
	fmt.Println()

	mux := http.NewServeMux()
	mux.Handle("/fetch-image", relay.NewServer())

	server := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}
