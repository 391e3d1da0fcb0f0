package domain

import (
	"fmt"
	"strings"
)

// MediaKind selects the format preset, the storage folder and the output extension
type MediaKind string

const (
	KindVideo MediaKind = "video"
	KindAudio MediaKind = "audio"
	KindMovie MediaKind = "movie"
)

// MediaKinds lists every supported kind in display order
var MediaKinds = []MediaKind{KindVideo, KindAudio, KindMovie}

// Dir returns the sub-directory name used under the download base directory
func (k MediaKind) Dir() string {
	switch k {
	case KindAudio:
		return "Música"
	case KindMovie:
		return "Películas"
	default:
		return "Videos"
	}
}

// Extension returns the extension of the final file (mp3 for audio, mp4 otherwise)
func (k MediaKind) Extension() string {
	if k == KindAudio {
		return "mp3"
	}
	return "mp4"
}

// IsValid checks if the kind is one of the known media kinds
func (k MediaKind) IsValid() bool {
	return k == KindVideo || k == KindAudio || k == KindMovie
}

// ParseMediaKind accepts canonical names, folder names and common aliases
func ParseMediaKind(s string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "video", "videos":
		return KindVideo, nil
	case "audio", "music", "música", "musica":
		return KindAudio, nil
	case "movie", "movies", "películas", "peliculas":
		return KindMovie, nil
	}
	return "", fmt.Errorf("invalid media kind: %q", s)
}
