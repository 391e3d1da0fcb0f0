package domain

import (
	"sort"
)

// DefaultUserAgent is sent to hosts that need a browser-like client but have no header set of their own
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultCookiesBrowser is the browser whose session cookies are reused
const DefaultCookiesBrowser = "chrome"

// AudioExtraction describes the audio transcode post-processing step
type AudioExtraction struct {
	Codec   string `json:"codec"`
	Quality string `json:"quality"`
}

// OptionBundle is the configuration handed to the extractor for one request
type OptionBundle struct {
	Format             string            `json:"format"`
	Referer            string            `json:"referer,omitempty"`
	Headers            map[string]string `json:"headers,omitempty"`
	ExtractAudio       *AudioExtraction  `json:"extract_audio,omitempty"`
	CookiesFromBrowser string            `json:"cookies_from_browser,omitempty"`
	NoFlatPlaylist     bool              `json:"no_flat_playlist,omitempty"`
	OutputTemplate     string            `json:"output_template,omitempty"`
}

type platformOptions struct {
	format         string
	referer        string
	headers        map[string]string
	noFlatPlaylist bool
}

var doodstreamHeaders = map[string]string{
	"User-Agent":                DefaultUserAgent,
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"DNT":                       "1",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
}

var platformTable = map[Platform]platformOptions{
	PlatformTikTok:    {format: "best"},
	PlatformInstagram: {format: "best"},
	PlatformCuevana:   {format: "bestvideo[height<=1080]+bestaudio/best"},
	PlatformYouTube: {
		format:         "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
		noFlatPlaylist: true,
	},
	PlatformStreamwish: {format: "best[protocol^=http]", referer: "https://streamwish.to/"},
	PlatformFilemoon:   {format: "best[protocol^=http]", referer: "https://filemoon.sx/"},
	PlatformStreamtape: {format: "best[protocol^=http]", referer: "https://streamtape.com/"},
	PlatformDoodstream: {
		format:  "best[protocol^=http]",
		referer: "https://doodstream.com/",
		headers: doodstreamHeaders,
	},
}

// BuildOptions maps a platform and media kind to extractor options.
// It is a pure function of its inputs and the static tables above.
func BuildOptions(platform Platform, kind MediaKind) OptionBundle {
	var opts OptionBundle

	if kind == KindAudio {
		opts.Format = "bestaudio/best"
		opts.NoFlatPlaylist = true
		opts.ExtractAudio = &AudioExtraction{Codec: "mp3", Quality: "192"}
	} else {
		opts.Format = "bestvideo+bestaudio/best"
		if p, ok := platformTable[platform]; ok {
			opts.Format = p.format
			opts.Referer = p.referer
			opts.NoFlatPlaylist = p.noFlatPlaylist
		}
	}

	if platform.UsesBrowserCookies() {
		opts.CookiesFromBrowser = DefaultCookiesBrowser
		if p, ok := platformTable[platform]; ok && len(p.headers) > 0 {
			opts.Headers = copyHeaders(p.headers)
		} else {
			opts.Headers = map[string]string{"User-Agent": DefaultUserAgent}
		}
	}

	return opts
}

// HeaderKeys returns the header names in sorted order
func (o OptionBundle) HeaderKeys() []string {
	keys := make([]string, 0, len(o.Headers))
	for k := range o.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Args renders the bundle as yt-dlp command-line flags
func (o OptionBundle) Args() []string {
	var args []string
	if o.Format != "" {
		args = append(args, "-f", o.Format)
	}
	if o.ExtractAudio != nil {
		args = append(args, "-x", "--audio-format", o.ExtractAudio.Codec, "--audio-quality", o.ExtractAudio.Quality)
	}
	if o.NoFlatPlaylist {
		args = append(args, "--no-flat-playlist")
	}
	if o.Referer != "" {
		args = append(args, "--referer", o.Referer)
	}
	for _, k := range o.HeaderKeys() {
		args = append(args, "--add-headers", k+":"+o.Headers[k])
	}
	if o.CookiesFromBrowser != "" {
		args = append(args, "--cookies-from-browser", o.CookiesFromBrowser)
	}
	if o.OutputTemplate != "" {
		args = append(args, "-o", o.OutputTemplate)
	}
	return args
}

func copyHeaders(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
