package domain

// HistoryRepository defines the interface for download history persistence
type HistoryRepository interface {
	// Save inserts or updates a request snapshot
	Save(download *DownloadRequest) error

	// Delete deletes a record by ID
	Delete(id string) error

	// FindByID finds a record by ID
	FindByID(id string) (*DownloadRequest, error)

	// FindByURL finds the most recent record for a URL
	FindByURL(url string) (*DownloadRequest, error)

	// FindAll finds all records with optional filters, newest first
	FindAll(filters map[string]interface{}) ([]*DownloadRequest, error)

	// GetStats returns download statistics
	GetStats() (*DownloadStats, error)
}

// DownloadStats represents download statistics
type DownloadStats struct {
	Total       int64 `json:"total"`
	Pending     int64 `json:"pending"`
	Downloading int64 `json:"downloading"`
	Completed   int64 `json:"completed"`
	Error       int64 `json:"error"`
	Cancelled   int64 `json:"cancelled"`
}

// Add counts one request with the given status
func (s *DownloadStats) Add(status DownloadStatus, n int64) {
	s.Total += n
	switch status {
	case StatusPending:
		s.Pending += n
	case StatusDownloading:
		s.Downloading += n
	case StatusCompleted:
		s.Completed += n
	case StatusError:
		s.Error += n
	case StatusCancelled:
		s.Cancelled += n
	}
}
