package domain

import "context"

// MediaInfo is the metadata resolved by a probe
type MediaInfo struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title"`
	Extractor string `json:"extractor,omitempty"`
	Ext       string `json:"ext,omitempty"`
	Raw       string `json:"-"`
}

// ProgressUpdate is reported by the extractor while a transfer runs
type ProgressUpdate struct {
	Status             string
	DownloadedBytes    int64
	TotalBytes         int64
	TotalBytesEstimate int64
	Speed              float64 // bytes per second, 0 when unknown
}

// ProgressFunc receives progress updates on the extractor's goroutine
type ProgressFunc func(update ProgressUpdate)

// Extractor defines the contract of the external content extraction library
type Extractor interface {
	// Probe resolves metadata without downloading
	Probe(ctx context.Context, url string, opts OptionBundle) (*MediaInfo, error)

	// Download transfers the media and returns the produced file path when known
	Download(ctx context.Context, url string, opts OptionBundle, progress ProgressFunc) (string, error)
}

// ContentCache defines the artifact cache consulted by download workers
type ContentCache interface {
	Lookup(url string, kind MediaKind) (string, bool)
	Store(url string, kind MediaKind, sourcePath string) bool
}
