package domain

import (
	"time"

	"github.com/google/uuid"
)

// DownloadStatus represents the current status of a download
type DownloadStatus string

const (
	StatusPending     DownloadStatus = "pending"
	StatusDownloading DownloadStatus = "downloading"
	StatusCompleted   DownloadStatus = "completed"
	StatusError       DownloadStatus = "error"
	StatusCancelled   DownloadStatus = "cancelled"
)

// IsTerminal checks if no further transitions are allowed from the status
func (s DownloadStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusCancelled
}

// DownloadRequest represents one queued download, keyed by URL while it is in the queue
type DownloadRequest struct {
	ID           string         `json:"id" gorm:"primaryKey"`
	URL          string         `json:"url" gorm:"not null;index"`
	DestDir      string         `json:"dest_dir" gorm:"not null"`
	Kind         MediaKind      `json:"kind" gorm:"not null"`
	Platform     Platform       `json:"platform,omitempty"`
	Title        string         `json:"title,omitempty"`
	Status       DownloadStatus `json:"status" gorm:"not null;index"`
	Progress     int            `json:"progress"`
	ErrorMessage string         `json:"error_message,omitempty"`
	FileName     string         `json:"file_name,omitempty"`
	FilePath     string         `json:"file_path,omitempty"`
	FromCache    bool           `json:"from_cache,omitempty"`
	CreatedAt    time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (DownloadRequest) TableName() string {
	return "download_history"
}

// NewDownloadRequest creates a pending request
func NewDownloadRequest(url, destDir string, kind MediaKind) *DownloadRequest {
	now := time.Now()
	return &DownloadRequest{
		ID:        uuid.New().String(),
		URL:       url,
		DestDir:   destDir,
		Kind:      kind,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkDownloading moves a pending request to downloading
func (d *DownloadRequest) MarkDownloading() bool {
	if d.Status != StatusPending {
		return false
	}
	d.Status = StatusDownloading
	now := time.Now()
	d.StartedAt = &now
	d.UpdatedAt = now
	return true
}

// MarkCompleted marks the download as completed
func (d *DownloadRequest) MarkCompleted(fileName, filePath string) bool {
	if d.Status != StatusDownloading {
		return false
	}
	d.Status = StatusCompleted
	d.Progress = 100
	d.FileName = fileName
	d.FilePath = filePath
	now := time.Now()
	d.CompletedAt = &now
	d.UpdatedAt = now
	return true
}

// MarkFailed marks the download as failed
func (d *DownloadRequest) MarkFailed(message string) bool {
	if d.Status.IsTerminal() {
		return false
	}
	d.Status = StatusError
	d.ErrorMessage = message
	now := time.Now()
	d.CompletedAt = &now
	d.UpdatedAt = now
	return true
}

// MarkCancelled marks the download as cancelled
func (d *DownloadRequest) MarkCancelled() bool {
	if d.Status.IsTerminal() {
		return false
	}
	d.Status = StatusCancelled
	now := time.Now()
	d.CompletedAt = &now
	d.UpdatedAt = now
	return true
}

// IsTerminal checks if the download is in a terminal state
func (d *DownloadRequest) IsTerminal() bool {
	return d.Status.IsTerminal()
}

// IsCancelled checks if cancellation was requested
func (d *DownloadRequest) IsCancelled() bool {
	return d.Status == StatusCancelled
}

// FinalFileName returns "{title}.{mp3|mp4}"
func (d *DownloadRequest) FinalFileName() string {
	title := d.Title
	if title == "" {
		title = "untitled"
	}
	return title + "." + d.Kind.Extension()
}

// ValidateStatus checks if a status string is valid
func ValidateStatus(status DownloadStatus) bool {
	switch status {
	case StatusPending, StatusDownloading, StatusCompleted, StatusError, StatusCancelled:
		return true
	}
	return false
}
