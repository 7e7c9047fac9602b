// Package storage persists analysis results to SQLite through GORM.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "ragasense.sqlite3"
const errDBClientNil = "db client is nil"

// DBClient wraps the GORM handle and the underlying sql.DB for pooling and
// shutdown.
type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// Analysis is one stored pipeline run: source, tuning, the top raga verdict
// and the rendered notation.
type Analysis struct {
	ID              string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Source          string  `gorm:"index:idx_source" json:"source"`
	ReferenceSaHz   float64 `json:"reference_sa_hz"`
	Algorithm       string  `json:"algorithm"`
	DurationMs      float64 `json:"duration_ms"`
	TopRaga         string  `gorm:"index:idx_top_raga" json:"top_raga"`
	TopRagaNumber   int     `json:"top_raga_number"`
	TopConfidence   float64 `json:"top_confidence"`
	SwaraSequence   string  `json:"swara_sequence"`
	NotationCompact string  `json:"notation_compact"`
	CreatedAt       time.Time
}

// NewDBClient opens the database at RAGASENSE_DB_PATH, falling back to the
// default file in the working directory.
func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("RAGASENSE_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

// NewDBClientWithPath opens (creating if needed) a SQLite database at the
// given path and runs migrations.
func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !os.IsExist(err) {
		if filepath.Dir(dbPath) != "." {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Analysis{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// SaveAnalysis persists an analysis record, assigning a UUID when the ID is
// empty, and returns the ID.
func (c *DBClient) SaveAnalysis(a *Analysis) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := c.DB.Create(a).Error; err != nil {
		return "", fmt.Errorf("creating analysis: %w", err)
	}
	return a.ID, nil
}

// GetAnalysisByID fetches a single analysis record. Returns
// gorm.ErrRecordNotFound when the ID is unknown.
func (c *DBClient) GetAnalysisByID(id string) (*Analysis, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var a Analysis
	if err := c.DB.Where("id = ?", id).First(&a).Error; err != nil {
		return nil, fmt.Errorf("querying analysis %s: %w", id, err)
	}
	return &a, nil
}

// ListAnalyses returns the most recent analyses, newest first. A limit of 0
// or less means no limit.
func (c *DBClient) ListAnalyses(limit int) ([]Analysis, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	query := c.DB.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []Analysis
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	return rows, nil
}

// DeleteAnalysisByID removes a stored analysis. Deleting an unknown ID is
// not an error.
func (c *DBClient) DeleteAnalysisByID(id string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	if err := c.DB.Where("id = ?", id).Delete(&Analysis{}).Error; err != nil {
		return fmt.Errorf("deleting analysis %s: %w", id, err)
	}
	return nil
}
