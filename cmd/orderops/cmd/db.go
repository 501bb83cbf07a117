package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deliverypicker/orderops/internal/config"
	"github.com/deliverypicker/orderops/internal/database/postgres"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the PostgreSQL catalog backend",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runDBMigrate,
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database connection and migration status",
	RunE:  runDBStatus,
}

func init() {
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbStatusCmd)
}

func runDBMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client, err := connectPostgres(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	color.Yellow("Running migrations...")
	if err := client.RunMigrations(); err != nil {
		return err
	}

	version, dirty, err := client.MigrationVersion()
	if err != nil {
		return err
	}
	color.Green("✓ Migrations applied (version %d, dirty=%v)", version, dirty)
	return nil
}

func runDBStatus(cmd *cobra.Command, args []string) error {
	header := color.New(color.FgCyan, color.Bold)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	header.Println("\n  DATABASE STATUS")
	fmt.Println("  " + strings.Repeat("─", 40))
	fmt.Println()

	fmt.Printf("  Host:     %s:%d\n", cfg.Database.Postgres.Host, cfg.Database.Postgres.Port)
	fmt.Printf("  Database: %s\n", cfg.Database.Postgres.Database)
	fmt.Printf("  Enabled:  %v\n", cfg.Database.UseDB)
	fmt.Println()

	client, err := connectPostgres(cmd.Context(), cfg)
	if err != nil {
		color.Red("  ✗ Connection failed: %v\n", err)
		fmt.Println()
		return nil
	}
	defer client.Close()

	if err := client.Ping(cmd.Context()); err != nil {
		color.Red("  ✗ Ping failed: %v\n", err)
		fmt.Println()
		return nil
	}
	color.Green("  ✓ Connected")

	version, dirty, err := client.MigrationVersion()
	if err != nil {
		color.Yellow("  Migration version: unknown (%v)", err)
	} else {
		fmt.Printf("  Migration version: %d (dirty=%v)\n", version, dirty)
	}

	count, err := postgres.NewCatalogRepo(client).Count(cmd.Context())
	if err == nil {
		fmt.Printf("  Products: %d\n", count)
	}
	fmt.Println()
	return nil
}
