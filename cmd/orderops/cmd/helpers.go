package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/deliverypicker/orderops/internal/catalog"
	"github.com/deliverypicker/orderops/internal/config"
	"github.com/deliverypicker/orderops/internal/database/clickhouse"
	"github.com/deliverypicker/orderops/internal/database/postgres"
	"github.com/deliverypicker/orderops/internal/images"
	"github.com/deliverypicker/orderops/internal/relay"
	"github.com/deliverypicker/orderops/pkg/models"
)

// openStore loads the JSON catalog store from the configured path.
func openStore(cfg *config.Config) (*catalog.Store, error) {
	store := catalog.NewStore(cfg.Catalog.File)
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return store, nil
}

// connectPostgres connects to the configured PostgreSQL backend.
func connectPostgres(ctx context.Context, cfg *config.Config) (*postgres.Client, error) {
	pgCfg := postgres.ConfigFromEnv(cfg.Database.Postgres.UsernameEnv, cfg.Database.Postgres.PasswordEnv)
	pgCfg.Host = cfg.Database.Postgres.Host
	pgCfg.Port = cfg.Database.Postgres.Port
	pgCfg.Database = cfg.Database.Postgres.Database
	pgCfg.SSLMode = cfg.Database.Postgres.SSLMode

	client := postgres.NewClient(pgCfg)
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// connectAnalytics connects to ClickHouse if analytics is enabled.
// Returns nil without error when disabled.
func connectAnalytics(ctx context.Context, cfg *config.Config) (*clickhouse.Client, error) {
	if !cfg.Analytics.Enabled {
		return nil, nil
	}

	chCfg := clickhouse.ConfigFromEnv(cfg.Analytics.ClickHouse.UsernameEnv, cfg.Analytics.ClickHouse.PasswordEnv)
	chCfg.Host = cfg.Analytics.ClickHouse.Host
	chCfg.Port = cfg.Analytics.ClickHouse.Port
	chCfg.Database = cfg.Analytics.ClickHouse.Database
	chCfg.Secure = cfg.Analytics.ClickHouse.Secure

	client := clickhouse.NewClient(chCfg)
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	if err := client.EnsureSchema(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// loadCatalogProducts returns the full catalog in order, from PostgreSQL
// when the database backend is enabled and the JSON store otherwise.
func loadCatalogProducts(ctx context.Context, cfg *config.Config) ([]models.ProductRef, error) {
	if cfg.Database.UseDB {
		client, err := connectPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer client.Close()
		return postgres.NewCatalogRepo(client).List(ctx)
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	return store.List(), nil
}

// newLoader builds the image loader, wiring the relay fallback tier when an
// endpoint is configured.
func newLoader(cfg *config.Config, endpointOverride string) *images.ChainLoader {
	endpoint := cfg.Relay.Endpoint
	if endpointOverride != "" {
		endpoint = endpointOverride
	}
	if endpoint == "" {
		return images.NewChainLoader(nil)
	}
	return images.NewChainLoader(relay.NewClient(endpoint))
}

// readJSONFile decodes a JSON file into dst.
func readJSONFile(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeJSONFile encodes v as indented JSON to path.
func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// splitIDs parses a comma-separated ID list.
func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

// truncate shortens a string for table display.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
