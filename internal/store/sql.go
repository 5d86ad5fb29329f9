package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Blob is one row of the blobs table.
type Blob struct {
	Key       string `gorm:"column:blob_key;primaryKey;size:512"`
	Value     []byte
	UpdatedAt time.Time
}

// SQL stores blobs in a SQLite database through gorm.
type SQL struct {
	db *gorm.DB
}

// NewSQL opens (creating if needed) the SQLite database at path and
// migrates the blobs table. ":memory:" gives a private in-memory database.
func NewSQL(path string) (*SQL, error) {
	if path == "" {
		return nil, errors.New("store.NewSQL: database path is required")
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store.NewSQL: open %s: %w", path, err)
	}
	if path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("store.NewSQL: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&Blob{}); err != nil {
		return nil, fmt.Errorf("store.NewSQL: migrate: %w", err)
	}
	return &SQL{db: db}, nil
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var b Blob
	err := s.db.WithContext(ctx).Where("blob_key = ?", key).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store.SQL.Get %q: %w", key, err)
	}
	return b.Value, nil
}

// Set upserts the blob for key.
func (s *SQL) Set(ctx context.Context, key string, value []byte) error {
	b := Blob{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "blob_key"}},
			UpdateAll: true,
		}).
		Create(&b).Error
	if err != nil {
		return fmt.Errorf("store.SQL.Set %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
