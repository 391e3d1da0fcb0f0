package infrastructure

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/yourusername/mediadl/internal/domain"
)

// SortOrder selects how library listings are ordered
type SortOrder string

const (
	SortAlphabetical SortOrder = "alpha"
	SortByDate       SortOrder = "date"
	SortRandom       SortOrder = "random"
)

// ParseSortOrder parses a sort order, defaulting to alphabetical
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "alpha", "alphabetical", "name":
		return SortAlphabetical, nil
	case "date", "newest":
		return SortByDate, nil
	case "random", "shuffle":
		return SortRandom, nil
	}
	return "", fmt.Errorf("invalid sort order: %s", s)
}

// MediaFile describes one file of the library
type MediaFile struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Library manages the per-kind download folders
type Library struct {
	fs      afero.Fs
	baseDir string
}

// NewLibrary creates a library rooted at baseDir
func NewLibrary(fs afero.Fs, baseDir string) *Library {
	return &Library{fs: fs, baseDir: baseDir}
}

// BaseDir returns the library root
func (l *Library) BaseDir() string {
	return l.baseDir
}

// Dir returns the folder of a media kind
func (l *Library) Dir(kind domain.MediaKind) string {
	return filepath.Join(l.baseDir, kind.Dir())
}

// CreateFolders creates the base directory and one folder per media kind
func (l *Library) CreateFolders() error {
	for _, kind := range domain.MediaKinds {
		if err := l.fs.MkdirAll(l.Dir(kind), 0755); err != nil {
			return fmt.Errorf("failed to create %s folder: %w", kind.Dir(), err)
		}
	}
	return nil
}

// List returns the regular files of a kind's folder; a missing folder lists as empty
func (l *Library) List(kind domain.MediaKind, order SortOrder) ([]MediaFile, error) {
	dir := l.Dir(kind)
	infos, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []MediaFile{}, nil
		}
		return nil, err
	}

	files := make([]MediaFile, 0, len(infos))
	for _, info := range infos {
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, MediaFile{
			Name:    info.Name(),
			Path:    filepath.Join(dir, info.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	switch order {
	case SortByDate:
		sort.SliceStable(files, func(i, j int) bool { return files[i].ModTime.After(files[j].ModTime) })
	case SortRandom:
		rand.Shuffle(len(files), func(i, j int) { files[i], files[j] = files[j], files[i] })
	default:
		sort.SliceStable(files, func(i, j int) bool {
			return strings.ToLower(files[i].Name) < strings.ToLower(files[j].Name)
		})
	}
	return files, nil
}

// Delete removes a file from a kind's folder. name must be a bare file name.
func (l *Library) Delete(kind domain.MediaKind, name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("invalid file name: %q", name)
	}

	path := filepath.Join(l.Dir(kind), name)
	if err := l.fs.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}
