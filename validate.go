package main

import (
	"net/url"
	"strings"
)

// Validator applies cheap, offline checks to candidate image links before
// any network verification happens. The lists are configuration; the
// defaults block video platforms whose "image" links resolve to players or
// interstitial pages.
type Validator struct {
	BlockedDomains  []string
	BlockedPatterns []string
	Extensions      []string
}

func NewValidator() *Validator {
	return &Validator{
		BlockedDomains: []string{
			"youtube.com",
			"youtu.be",
			"ytimg.com",
			"i.ytimg.com",
			"img.youtube.com",
			"tiktok.com",
			"twitch.tv",
		},
		BlockedPatterns: []string{
			"redirect.php",
			"proxy.php",
			"go.php",
		},
		Extensions: []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp"},
	}
}

// IsValidImageURL reports whether link plausibly points at a fetchable
// image. mime may be empty; when present it decides instead of the
// extension check.
func (v *Validator) IsValidImageURL(link string, mime string) bool {
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	path := strings.ToLower(u.Path)

	for _, domain := range v.BlockedDomains {
		if strings.Contains(host, domain) {
			return false
		}
	}
	for _, pattern := range v.BlockedPatterns {
		if strings.Contains(path, pattern) {
			return false
		}
	}
	if mime != "" {
		return strings.HasPrefix(strings.ToLower(mime), "image/")
	}
	for _, ext := range v.Extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
