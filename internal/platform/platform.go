package platform

import (
	"regexp"
	"strings"
)

// Platform identifies the social network a post URL belongs to.
type Platform string

const (
	Instagram Platform = "instagram"
	Facebook  Platform = "facebook"
	YouTube   Platform = "youtube"
	TikTok    Platform = "tiktok"
	LinkedIn  Platform = "linkedin"
	Web       Platform = "web"
)

// Of classifies a URL by host. Anything unrecognized is Web.
func Of(rawURL string) Platform {
	u := strings.ToLower(rawURL)
	switch {
	case strings.Contains(u, "instagram.com"):
		return Instagram
	case strings.Contains(u, "facebook.com"):
		return Facebook
	case strings.Contains(u, "youtube.com"), strings.Contains(u, "youtu.be"):
		return YouTube
	case strings.Contains(u, "tiktok.com"):
		return TikTok
	case strings.Contains(u, "linkedin.com"):
		return LinkedIn
	default:
		return Web
	}
}

// denyPatterns reject CDN, media, login and crawler URLs that search
// providers frequently return instead of actual posts. Checked before the
// allow-list and short-circuits to reject.
var denyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)cdninstagram\.com`),
	regexp.MustCompile(`(?i)fbcdn\.net`),
	regexp.MustCompile(`(?i)scontent[\w.-]*\.`),
	regexp.MustCompile(`(?i)/accounts/login`),
	regexp.MustCompile(`(?i)facebook\.com/login`),
	regexp.MustCompile(`(?i)facebook\.com/sharer`),
	regexp.MustCompile(`(?i)instagram\.com/explore/`),
	regexp.MustCompile(`(?i)google\.com/imgres`),
	regexp.MustCompile(`(?i)googleusercontent\.com`),
	regexp.MustCompile(`(?i)gstatic\.com`),
	regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp|mp4)(\?|$)`),
}

// allowPatterns are the canonical post-URL shapes per platform.
var allowPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)instagram\.com/(p|reel|tv)/[\w-]+`),
	regexp.MustCompile(`(?i)instagram\.com/[\w.]+/?$`),
	regexp.MustCompile(`(?i)facebook\.com/[^/]+/posts/`),
	regexp.MustCompile(`(?i)facebook\.com/[^/]+/photos/`),
	regexp.MustCompile(`(?i)facebook\.com/watch`),
	regexp.MustCompile(`(?i)m\.facebook\.com/`),
	regexp.MustCompile(`(?i)youtube\.com/watch\?`),
	regexp.MustCompile(`(?i)youtube\.com/shorts/[\w-]+`),
	regexp.MustCompile(`(?i)youtu\.be/[\w-]+`),
	regexp.MustCompile(`(?i)tiktok\.com/@[\w.]+/video/\d+`),
	regexp.MustCompile(`(?i)linkedin\.com/posts/`),
}

// IsValidPostURL reports whether a URL looks like a genuine content post on
// a supported platform rather than a CDN asset, login page or search artifact.
func IsValidPostURL(rawURL string) bool {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return false
	}
	for _, re := range denyPatterns {
		if re.MatchString(u) {
			return false
		}
	}
	for _, re := range allowPatterns {
		if re.MatchString(u) {
			return true
		}
	}
	return false
}
