package domain

import "strings"

// Platform identifies the host a URL belongs to
type Platform string

const (
	PlatformStreamwish Platform = "Streamwish"
	PlatformFilemoon   Platform = "Filemoon"
	PlatformStreamtape Platform = "Streamtape"
	PlatformDoodstream Platform = "Doodstream"
	PlatformStreamlare Platform = "Streamlare"
	PlatformUqload     Platform = "Uqload"
	PlatformVoe        Platform = "Voe"
	PlatformUpstream   Platform = "Upstream"
	PlatformTikTok     Platform = "TikTok"
	PlatformInstagram  Platform = "Instagram"
	PlatformFacebook   Platform = "Facebook"
	PlatformTwitter    Platform = "Twitter"
	PlatformCuevana    Platform = "Cuevana"
	PlatformYouTube    Platform = "YouTube"
	PlatformUnknown    Platform = "Unknown"
)

type hostPattern struct {
	substr   string
	platform Platform
}

// streamingHosts is checked first, in order. "dood." is deliberately broad
// and catches every dood.* mirror not listed above it.
var streamingHosts = []hostPattern{
	{"streamwish.to", PlatformStreamwish},
	{"filemoon.sx", PlatformFilemoon},
	{"streamtape.com", PlatformStreamtape},
	{"doodstream.com", PlatformDoodstream},
	{"dooodster.com", PlatformDoodstream},
	{"dood.", PlatformDoodstream},
	{"streamlare.com", PlatformStreamlare},
	{"uqload.com", PlatformUqload},
	{"voe.sx", PlatformVoe},
	{"upstream.to", PlatformUpstream},
}

var generalHosts = []hostPattern{
	{"tiktok.com", PlatformTikTok},
	{"instagram.com", PlatformInstagram},
	{"facebook.com", PlatformFacebook},
	{"fb.watch", PlatformFacebook},
	{"twitter.com", PlatformTwitter},
	{"x.com", PlatformTwitter},
	{"cuevana", PlatformCuevana},
	{"youtube.com", PlatformYouTube},
	{"youtu.be", PlatformYouTube},
}

// ClassifyPlatform detects the platform from a URL by ordered substring matching.
// It never fails; unmatched input yields PlatformUnknown.
func ClassifyPlatform(url string) Platform {
	url = strings.ToLower(url)

	for _, h := range streamingHosts {
		if strings.Contains(url, h.substr) {
			return h.platform
		}
	}
	for _, h := range generalHosts {
		if strings.Contains(url, h.substr) {
			return h.platform
		}
	}
	return PlatformUnknown
}

// IsStreamingHost reports whether the platform belongs to the streaming-host group
func (p Platform) IsStreamingHost() bool {
	switch p {
	case PlatformStreamwish, PlatformFilemoon, PlatformStreamtape, PlatformDoodstream:
		return true
	}
	return false
}

// UsesBrowserCookies reports whether downloads from the platform reuse browser session cookies
func (p Platform) UsesBrowserCookies() bool {
	return p == PlatformFacebook || p == PlatformInstagram || p.IsStreamingHost()
}
