// Package migrations хранит схему таблицы tasks для каждого диалекта
// и применяет её через golang-migrate.
package migrations

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"taskTracker/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Up применяет все миграции диалекта; повторный вызов ничего не меняет.
// Драйвер не закрывается - соединением владеет вызывающий.
// Отмена ctx останавливает применение после текущей миграции.
func Up(ctx context.Context, dialect string, driver database.Driver) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("применение миграций: %w", err)
	}

	src, err := iofs.New(files, dialect)
	if err != nil {
		return fmt.Errorf("источник миграций %s: %w", dialect, err)
	}
	defer src.Close()

	m, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		return fmt.Errorf("инициализация миграций: %w", err)
	}

	stop := context.AfterFunc(ctx, func() {
		select {
		case m.GracefulStop <- true:
		default:
		}
	})
	defer stop()

	err = m.Up()
	if ctxErr := ctx.Err(); err == nil && ctxErr != nil {
		err = ctxErr
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("Migrations: Схема актуальна", zap.String("dialect", dialect))
		return nil
	}
	if err != nil {
		return fmt.Errorf("применение миграций: %w", err)
	}

	version, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("версия схемы: %w", err)
	}
	logger.Info("Migrations: Миграции применены",
		zap.String("dialect", dialect),
		zap.Uint("version", version))
	return nil
}
