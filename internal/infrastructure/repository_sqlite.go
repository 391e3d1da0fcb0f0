package infrastructure

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/mediadl/internal/domain"
)

// filterColumns are the columns FindAll accepts as filter keys
var filterColumns = map[string]bool{
	"url":      true,
	"status":   true,
	"kind":     true,
	"platform": true,
}

// SQLiteHistoryRepository implements domain.HistoryRepository using SQLite
type SQLiteHistoryRepository struct {
	db *gorm.DB
}

// NewSQLiteHistoryRepository opens (and migrates) the history database
func NewSQLiteHistoryRepository(dbPath string) (*SQLiteHistoryRepository, error) {
	if dbPath != ":memory:" && dbPath != "file::memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.DownloadRequest{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteHistoryRepository{db: db}, nil
}

// Save inserts or updates a request snapshot
func (r *SQLiteHistoryRepository) Save(download *domain.DownloadRequest) error {
	return r.db.Save(download).Error
}

// Delete deletes a record by ID
func (r *SQLiteHistoryRepository) Delete(id string) error {
	result := r.db.Delete(&domain.DownloadRequest{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindByID finds a record by ID
func (r *SQLiteHistoryRepository) FindByID(id string) (*domain.DownloadRequest, error) {
	var download domain.DownloadRequest
	if err := r.db.First(&download, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &download, nil
}

// FindByURL finds the most recent record for a URL
func (r *SQLiteHistoryRepository) FindByURL(url string) (*domain.DownloadRequest, error) {
	var download domain.DownloadRequest
	err := r.db.Where("url = ?", url).Order("created_at DESC").First(&download).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &download, nil
}

// FindAll finds all records matching filters, newest first
func (r *SQLiteHistoryRepository) FindAll(filters map[string]interface{}) ([]*domain.DownloadRequest, error) {
	query := r.db.Model(&domain.DownloadRequest{})
	for key, value := range filters {
		if !filterColumns[key] {
			return nil, fmt.Errorf("unsupported filter %q", key)
		}
		query = query.Where(fmt.Sprintf("%s = ?", key), value)
	}

	var downloads []*domain.DownloadRequest
	err := query.Order("created_at DESC").Find(&downloads).Error
	return downloads, err
}

// GetStats returns download statistics
func (r *SQLiteHistoryRepository) GetStats() (*domain.DownloadStats, error) {
	var counts []struct {
		Status domain.DownloadStatus
		Count  int64
	}
	if err := r.db.Model(&domain.DownloadRequest{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}

	stats := &domain.DownloadStats{}
	for _, c := range counts {
		stats.Add(c.Status, c.Count)
	}
	return stats, nil
}

// Close closes the database connection
func (r *SQLiteHistoryRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
