package migrate

import (
	"context"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/Skotchmaster/coffee_shop/internal/config"
	"github.com/Skotchmaster/coffee_shop/internal/models"
)

//go:embed migrations/*.sql
var migrations embed.FS

const dir = "migrations"

// Up brings the schema to the latest version. Postgres runs the embedded goose
// migrations; sqlite (dev and tests) uses gorm AutoMigrate on the same models.
func Up(ctx context.Context, db *gorm.DB, driver string) error {
	switch driver {
	case config.DriverPostgres:
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("get sql.DB: %w", err)
		}
		goose.SetBaseFS(migrations)
		if err := goose.SetDialect("postgres"); err != nil {
			return fmt.Errorf("set goose dialect: %w", err)
		}
		if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
		return nil
	case config.DriverSQLite:
		if err := db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}
}
