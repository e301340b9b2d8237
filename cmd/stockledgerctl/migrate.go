package main

import (
	"context"
	"fmt"

	"github.com/smallbiznis/stockledger/internal/config"
	"github.com/smallbiznis/stockledger/internal/migration"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			conn *gorm.DB
			cfg  config.Config
		)
		return runApp(cmd.Context(), func(ctx context.Context) error {
			if err := migration.Migrate(conn, cfg.DBType); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", cfg.DBType)
			return nil
		}, fx.Populate(&conn, &cfg))
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
