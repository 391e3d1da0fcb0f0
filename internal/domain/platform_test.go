package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPlatform(t *testing.T) {
	tests := []struct {
		url      string
		expected Platform
	}{
		{"https://streamwish.to/e/abc", PlatformStreamwish},
		{"https://filemoon.sx/e/abc", PlatformFilemoon},
		{"https://streamtape.com/v/abc", PlatformStreamtape},
		{"https://doodstream.com/e/abc", PlatformDoodstream},
		{"https://dooodster.com/e/abc", PlatformDoodstream},
		{"https://www.DOOD.TO/e/abc", PlatformDoodstream},
		{"https://dood.watch/d/xyz", PlatformDoodstream},
		{"https://streamlare.com/e/abc", PlatformStreamlare},
		{"https://uqload.com/embed-abc.html", PlatformUqload},
		{"https://voe.sx/e/abc", PlatformVoe},
		{"https://upstream.to/abc", PlatformUpstream},
		{"https://www.tiktok.com/@user/video/1", PlatformTikTok},
		{"https://www.instagram.com/reel/abc/", PlatformInstagram},
		{"https://www.facebook.com/watch/?v=1", PlatformFacebook},
		{"https://fb.watch/abc/", PlatformFacebook},
		{"https://twitter.com/user/status/1", PlatformTwitter},
		{"https://x.com/user/status/1", PlatformTwitter},
		{"https://cuevana3.me/pelicula/abc", PlatformCuevana},
		{"https://www.YouTube.com/watch?v=abc", PlatformYouTube},
		{"https://youtu.be/abc", PlatformYouTube},
		{"https://random.site/x", PlatformUnknown},
		{"", PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyPlatform(tt.url))
		})
	}
}

func TestClassifyPlatform_StreamingHostsWinOverGeneral(t *testing.T) {
	// A streaming host embedded in a social URL is classified by the first table.
	assert.Equal(t, PlatformStreamtape, ClassifyPlatform("https://x.com/share?u=https://streamtape.com/v/1"))
}

func TestPlatform_UsesBrowserCookies(t *testing.T) {
	assert.True(t, PlatformFacebook.UsesBrowserCookies())
	assert.True(t, PlatformInstagram.UsesBrowserCookies())
	assert.True(t, PlatformDoodstream.UsesBrowserCookies())
	assert.True(t, PlatformStreamwish.UsesBrowserCookies())
	assert.False(t, PlatformYouTube.UsesBrowserCookies())
	assert.False(t, PlatformVoe.UsesBrowserCookies())
	assert.False(t, PlatformUnknown.UsesBrowserCookies())
}
