package infrastructure

import (
	"testing"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/stretchr/testify/assert"

	"github.com/yourusername/mediadl/internal/domain"
)

func TestFirstJSONLine(t *testing.T) {
	stdout := "[youtube] abc: Downloading webpage\n{\"id\":\"abc\",\"title\":\"Song\"}\n{\"id\":\"def\"}\n"

	assert.Equal(t, `{"id":"abc","title":"Song"}`, firstJSONLine(stdout))
	assert.Empty(t, firstJSONLine("no json here"))
}

func TestLastErrorLine(t *testing.T) {
	stderr := "WARNING: something\nERROR: [youtube] abc: first\nERROR: [youtube] abc: Video unavailable\n"

	assert.Equal(t, "ERROR: [youtube] abc: Video unavailable", lastErrorLine(stderr))
	assert.Empty(t, lastErrorLine("WARNING: only a warning"))
}

func TestYtdlpExtractor_WithCookiesBrowser(t *testing.T) {
	e := NewYtdlpExtractor(domain.ExtractorConfig{CookiesBrowser: "firefox"}, "", nil)

	facebook := e.withCookiesBrowser(domain.BuildOptions(domain.PlatformFacebook, domain.KindVideo))
	assert.Equal(t, "firefox", facebook.CookiesFromBrowser)

	// platforms outside the cookie group never gain a session directive
	youtube := e.withCookiesBrowser(domain.BuildOptions(domain.PlatformYouTube, domain.KindVideo))
	assert.Empty(t, youtube.CookiesFromBrowser)
}

func TestYtdlpExtractor_DefaultBinary(t *testing.T) {
	assert.Equal(t, "yt-dlp", NewYtdlpExtractor(domain.ExtractorConfig{}, "", nil).binary())
	assert.Equal(t, "/opt/yt-dlp", NewYtdlpExtractor(domain.ExtractorConfig{Binary: "/opt/yt-dlp"}, "", nil).binary())
}

func TestToProgressUpdate(t *testing.T) {
	now := time.Now()
	update := ytdlp.ProgressUpdate{
		Status:          ytdlp.ProgressStatusDownloading,
		DownloadedBytes: 2 * 1024 * 1024,
		TotalBytes:      8 * 1024 * 1024,
		Started:         now.Add(-2 * time.Second),
	}

	out := toProgressUpdate(update, &speedMeter{}, now)

	assert.Equal(t, "downloading", out.Status)
	assert.Equal(t, int64(2*1024*1024), out.DownloadedBytes)
	assert.Equal(t, int64(8*1024*1024), out.TotalBytes)
	assert.InDelta(t, 1024*1024, out.Speed, 1)

	assert.Zero(t, toProgressUpdate(ytdlp.ProgressUpdate{}, &speedMeter{}, now).Speed)
}

func TestSpeedMeter_UsesLatestInterval(t *testing.T) {
	start := time.Now()
	meter := &speedMeter{}

	// 4 MiB in the first 4s averages 1 MiB/s
	assert.InDelta(t, 1<<20, meter.sample(4<<20, start.Add(4*time.Second), start), 1)

	// 3 MiB more in the next second is 3 MiB/s, not the 1.4 MiB/s average
	assert.InDelta(t, 3<<20, meter.sample(7<<20, start.Add(5*time.Second), start), 1)

	// a stall reads as zero
	assert.Zero(t, meter.sample(7<<20, start.Add(6*time.Second), start))

	// the next file restarts the count and falls back to its own average
	restarted := start.Add(6 * time.Second)
	assert.InDelta(t, 1<<20, meter.sample(1<<20, restarted.Add(time.Second), restarted), 1)
}
