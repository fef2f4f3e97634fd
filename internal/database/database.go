package database

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"agentscan/registry-indexer/internal/config"
	"agentscan/registry-indexer/internal/logging"
)

type Database struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func New(cfg *config.Config) (*Database, error) {
	dataDir := cfg.Storage.Directory
	// Make sure that we can read data dir, and create if it doesn't exist
	if _, err := os.Stat(dataDir); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read data dir: %w", err)
		}
		// Create data directory
		if err := os.MkdirAll(dataDir, fs.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}
	// Open sqlite DB
	dbPath := filepath.Join(
		dataDir,
		"data.sqlite",
	)
	// WAL journal mode and synchronous NORMAL for better performance
	connOpts := "_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := gorm.Open(
		sqlite.Open(
			fmt.Sprintf("file:%s?%s", dbPath, connOpts),
		),
		&gorm.Config{
			Logger:         gormlogger.Discard,
			TranslateError: true,
		},
	)
	if err != nil {
		return nil, err
	}
	d := &Database{
		db:     db,
		logger: logging.GetLogger().With("actor", "Database"),
	}
	for _, model := range MigrateModels {
		if err := d.db.AutoMigrate(model); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// NewInMemory opens a throwaway in-memory database, used by tests. Each call
// gets its own namespace so parallel tests do not share state.
func NewInMemory() (*Database, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(
		sqlite.Open(dsn),
		&gorm.Config{
			Logger:         gormlogger.Discard,
			TranslateError: true,
		},
	)
	if err != nil {
		return nil, err
	}
	d := &Database{
		db:     db,
		logger: logging.GetLogger().With("actor", "Database"),
	}
	for _, model := range MigrateModels {
		if err := d.db.AutoMigrate(model); err != nil {
			return nil, err
		}
	}
	return d, nil
}
