package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	companydomain "github.com/smallbiznis/stockledger/internal/company/domain"
	currencydomain "github.com/smallbiznis/stockledger/internal/currency/domain"
	invoicedomain "github.com/smallbiznis/stockledger/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/stockledger/internal/ledger/domain"
	perioddomain "github.com/smallbiznis/stockledger/internal/period/domain"
	productdomain "github.com/smallbiznis/stockledger/internal/product/domain"
	stockdomain "github.com/smallbiznis/stockledger/internal/stock/domain"
	warningdomain "github.com/smallbiznis/stockledger/internal/warning/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&currencydomain.Currency{},
		&currencydomain.Rate{},
		&companydomain.Company{},
		&ledgerdomain.Account{},
		&productdomain.Unit{},
		&productdomain.Category{},
		&productdomain.Product{},
		&perioddomain.FiscalYear{},
		&perioddomain.Period{},
		&ledgerdomain.Move{},
		&ledgerdomain.MoveLine{},
		&stockdomain.Move{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLine{},
		&stockdomain.InvoiceLineMove{},
		&warningdomain.Acknowledgement{},
	}
}

// Migrate applies the embedded SQL migrations on postgres and falls back to
// gorm AutoMigrate for the other dialects.
func Migrate(conn *gorm.DB, dbType string) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if dbType != "postgres" {
		return conn.AutoMigrate(Models()...)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// migrator.Close would close the shared *sql.DB.

	return nil
}
