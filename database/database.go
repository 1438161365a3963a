package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"invoicer/config"
	"invoicer/models"
	"invoicer/utils"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database представляет подключение к базе данных
type Database struct {
	DB *gorm.DB
}

// Open открывает базу через произвольный диалектор (используется и в тестах)
func Open(dialector gorm.Dialector, cfg *gorm.Config) (*Database, error) {
	if cfg == nil {
		cfg = &gorm.Config{}
	}
	if cfg.Logger == nil {
		cfg.Logger = newGormLogger(utils.Logger(), gormlogger.Warn)
	}
	cfg.NowFunc = func() time.Time { return time.Now().UTC() }

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Database{DB: db}, nil
}

// Connect устанавливает соединение с базой данных и выполняет миграции
func Connect(cfg *config.Config) (*Database, error) {
	var dialector gorm.Dialector
	switch cfg.DB.Type {
	case "sqlite":
		dialector = sqlite.Open(cfg.DB.Path)
	default:
		dialector = postgres.Open(cfg.GetDBConnString())
	}

	d, err := Open(dialector, nil)
	if err != nil {
		return nil, err
	}

	// Настраиваем пул соединений
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection pool: %w", err)
	}
	if cfg.DB.Type == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)

		// SQL-миграции только для PostgreSQL, sqlite поднимается через AutoMigrate
		if err := runMigrations(cfg); err != nil {
			return nil, fmt.Errorf("failed to run SQL migrations: %w", err)
		}
	}

	if err := AutoMigrate(d.DB); err != nil {
		return nil, err
	}

	utils.LogInfo("connected to %s database", cfg.DB.Type)
	return d, nil
}

// OpenInMemory открывает изолированную sqlite-базу в памяти с примененной схемой
func OpenInMemory(name string) (*Database, error) {
	name = strings.NewReplacer("/", "_", " ", "_").Replace(name)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)

	d, err := Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		return nil, err
	}
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := AutoMigrate(d.DB); err != nil {
		return nil, err
	}
	return d, nil
}

// runMigrations выполняет SQL миграции
func runMigrations(cfg *config.Config) error {
	m, err := migrate.New(cfg.DB.MigrationsPath, cfg.GetMigrateURL())
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// AutoMigrate выполняет автоматическую миграцию моделей
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.CompanySettings{},
		&models.Quote{},
		&models.QuoteItem{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.Payment{},
		&models.Signature{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	return nil
}

// GetDB возвращает экземпляр GORM
func (d *Database) GetDB() *gorm.DB {
	return d.DB
}

// SQLX оборачивает пул GORM в sqlx для отчетных запросов
func (d *Database) SQLX() (*sqlx.DB, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, err
	}
	driver := "pgx"
	if d.DB.Dialector.Name() == "sqlite" {
		driver = "sqlite3"
	}
	return sqlx.NewDb(sqlDB, driver), nil
}

// Ping проверяет доступность базы
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close закрывает подключение к базе данных
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
