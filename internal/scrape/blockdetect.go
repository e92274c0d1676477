package scrape

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of anti-bot page detected.
type BlockType string

// Block types reported by DetectBlock.
const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
	BlockDenied     BlockType = "denied"
)

var challengeMarkers = []struct {
	marker string
	block  BlockType
}{
	{"checking your browser", BlockCloudflare},
	{"cf-browser-verification", BlockCloudflare},
	{"just a moment", BlockCloudflare},
	{"attention required", BlockCloudflare},
	{"captcha", BlockCaptcha},
	{"enable javascript", BlockJSShell},
	{"please enable cookies", BlockJSShell},
	{"access denied", BlockDenied},
	{"403 forbidden", BlockDenied},
}

// challengeText matches page text against known challenge markers.
func challengeText(text string) BlockType {
	lower := strings.ToLower(text)
	for _, m := range challengeMarkers {
		if strings.Contains(lower, m.marker) {
			return m.block
		}
	}
	if strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge") {
		return BlockCloudflare
	}
	return BlockNone
}

// DetectBlock checks a response for signs of anti-bot protection.
func DetectBlock(status int, header http.Header, body []byte) BlockType {
	if status == http.StatusForbidden || status == http.StatusServiceUnavailable {
		if header.Get("cf-ray") != "" || header.Get("cf-cache-status") != "" ||
			strings.EqualFold(header.Get("server"), "cloudflare") {
			return BlockCloudflare
		}
	}

	if b := challengeText(string(body)); b != BlockNone {
		return b
	}

	// A tiny page that only redirects or asks for scripts is an app shell.
	if len(body) < 2000 {
		lower := strings.ToLower(string(body))
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return BlockJSShell
		}
		if strings.Contains(lower, `http-equiv="refresh"`) {
			return BlockJSShell
		}
	}
	return BlockNone
}
