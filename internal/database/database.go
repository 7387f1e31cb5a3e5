package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/thuvien-intelligence/library-insights/internal/config"
	"github.com/thuvien-intelligence/library-insights/internal/models"
)

// Connect opens the postgres connection and verifies it with a ping.
func Connect(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		cfg.Database.Host, cfg.Database.User, cfg.Database.Password,
		cfg.Database.Name, cfg.Database.Port, cfg.Database.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("database connection established",
		zap.String("host", cfg.Database.Host),
		zap.String("name", cfg.Database.Name))
	return db, nil
}

// AutoMigrate builds the schema straight from the model definitions.
// Local development setups use this instead of the SQL migration files.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Category{},
		&models.Author{},
		&models.Publisher{},
		&models.Book{},
		&models.Reader{},
		&models.BorrowSlip{},
		&models.Penalty{},
	)
}

// RunMigrations applies every migrations/*.up.sql file in order, tracking
// applied versions in schema_migrations so restarts are idempotent. When
// no migration files are present it falls back to AutoMigrate.
func RunMigrations(db *gorm.DB) error {
	files, err := filepath.Glob("migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("failed to glob migration files: %w", err)
	}
	if len(files) == 0 {
		return AutoMigrate(db)
	}
	sort.Strings(files)

	if err := createMigrationsTable(db); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, file := range files {
		if err := runMigration(db, file); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", file, err)
		}
	}

	return nil
}

func createMigrationsTable(db *gorm.DB) error {
	sql := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		id SERIAL PRIMARY KEY,
		version VARCHAR(255) NOT NULL UNIQUE,
		applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);
	`
	return db.Exec(sql).Error
}

func runMigration(db *gorm.DB, filePath string) error {
	version := strings.TrimSuffix(filepath.Base(filePath), ".up.sql")

	var count int64
	db.Table("schema_migrations").Where("version = ?", version).Count(&count)
	if count > 0 {
		return nil
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	for _, statement := range strings.Split(string(content), ";") {
		statement = strings.TrimSpace(statement)
		if statement == "" {
			continue
		}
		if err := db.Exec(statement).Error; err != nil {
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return fmt.Errorf("failed to execute statement: %w", err)
		}
	}

	if err := db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version).Error; err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return nil
}

// MigrationStatus represents one applied migration.
type MigrationStatus struct {
	Version   string `json:"version"`
	AppliedAt string `json:"applied_at"`
}

// GetMigrationStatus returns the applied migrations in order.
func GetMigrationStatus(db *gorm.DB) ([]MigrationStatus, error) {
	var migrations []MigrationStatus
	err := db.Table("schema_migrations").
		Select("version, applied_at").
		Order("applied_at ASC").
		Find(&migrations).Error
	return migrations, err
}
