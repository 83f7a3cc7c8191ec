package config

import (
	"embed"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/yatube/models"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

var db *gorm.DB

// InitDatabase connects to the configured relational store and brings the schema up to date.
func InitDatabase(cfg AppConfig) *gorm.DB {
	if db != nil {
		return db
	}

	var dialector gorm.Dialector
	dsn := BuildDSN(cfg)
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		dialector = mysql.Open(dsn)
	}

	var err error
	db, err = Open(dialector, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get sql.DB: %v", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	// stay below the server side wait_timeout
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	// fail at boot on network/auth problems instead of on the first query
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("database ping failed: %v", err)
	}

	if cfg.DBDriver == "mysql" && cfg.DBMigrate {
		if err := RunMigrations(dsn); err != nil {
			log.Fatalf("schema migration failed: %v", err)
		}
		return db
	}

	if err := AutoMigrate(db); err != nil {
		log.Fatalf("auto migration failed: %v", err)
	}
	return db
}

// Open creates a gorm handle whose SQL logging follows the application log level.
func Open(dialector gorm.Dialector, logLevel string) (*gorm.DB, error) {
	gLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  toGormLogLevel(logLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	return gorm.Open(dialector, &gorm.Config{
		Logger:                                   gLogger,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
}

// AutoMigrate creates missing tables only; existing schema is left untouched.
func AutoMigrate(db *gorm.DB) error {
	for _, model := range models.All() {
		if db.Migrator().HasTable(model) {
			continue
		}
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("auto migration failed for %T: %w", model, err)
		}
	}
	return nil
}

// RunMigrations applies the embedded MySQL migrations.
func RunMigrations(dsn string) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(dsn))
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Println("no new migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}
	log.Println("migrations applied successfully")
	return nil
}

// BuildDSN returns DatabaseURI verbatim or assembles one for the configured driver.
func BuildDSN(cfg AppConfig) string {
	if cfg.DatabaseURI != "" {
		return cfg.DatabaseURI
	}
	if cfg.DBDriver == "postgres" {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
	)
}

// migrateURL turns a go-sql-driver DSN into the URL form golang-migrate expects.
// Migration files hold several statements each, so multiStatements is forced on.
func migrateURL(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return "mysql://" + dsn + sep + "multiStatements=true"
}

// toGormLogLevel maps application LogLevel to GORM's logger level.
func toGormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		// GORM 'Info' shows SQL; use with caution
		return logger.Info
	case "info", "", "warn":
		return logger.Warn
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Warn
	}
}
