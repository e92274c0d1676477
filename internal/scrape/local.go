package scrape

import (
	"context"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// maxBody caps how much of a page the local reader downloads.
const maxBody = 512 * 1024

// LocalScraper fetches HTML directly and reduces it to plain text. It costs
// nothing, so it runs first; blocked pages fall through to the readers.
type LocalScraper struct {
	client    *http.Client
	userAgent string
}

// NewLocalScraper creates a LocalScraper.
func NewLocalScraper() *LocalScraper {
	return &LocalScraper{
		userAgent: "Mozilla/5.0 (compatible; VisibilityAudit/1.0)",
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

// Name implements Scraper.
func (l *LocalScraper) Name() string { return "local_http" }

// Supports implements Scraper.
func (l *LocalScraper) Supports(_ string) bool { return true }

// Scrape fetches a URL, rejects blocked or empty pages and strips the HTML.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", l.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, eris.Wrap(err, "local_http: read body")
	}

	if b := DetectBlock(resp.StatusCode, resp.Header, body); b != BlockNone {
		return nil, eris.Errorf("local_http: blocked (%s)", b)
	}
	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("local_http: status %d", resp.StatusCode)
	}

	text := stripHTML(string(body))
	if len(text) < minContent {
		return nil, eris.New("local_http: empty page")
	}

	return &Result{
		Page: Page{
			URL:        resp.Request.URL.String(),
			Title:      extractTitle(body),
			Content:    text,
			StatusCode: resp.StatusCode,
		},
		Source: "local_http",
	}, nil
}

var (
	titleRe    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	dropRe     = regexp.MustCompile(`(?is)<(script|style|nav|footer|noscript|svg)\b[^>]*>.*?</(script|style|nav|footer|noscript|svg)>`)
	commentRe  = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockTagRe = regexp.MustCompile(`(?i)</?(p|div|h[1-6]|li|ul|ol|br|tr|section|article|header)\b[^>]*>`)
	tagRe      = regexp.MustCompile(`<[^>]+>`)
	spaceRe    = regexp.MustCompile(`[ \t\r\f\v]+`)
	lineRe     = regexp.MustCompile(` *\n[ \n]*`)
)

var entities = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
	"&nbsp;", " ",
)

func extractTitle(body []byte) string {
	m := titleRe.FindSubmatch(body)
	if len(m) > 1 {
		return entities.Replace(strings.TrimSpace(string(m[1])))
	}
	return ""
}

// stripHTML drops non-content blocks and tags, decodes common entities and
// collapses whitespace to one space per run and one newline per block.
func stripHTML(html string) string {
	html = commentRe.ReplaceAllString(html, "")
	html = titleRe.ReplaceAllString(html, "")
	html = dropRe.ReplaceAllString(html, "")
	html = blockTagRe.ReplaceAllString(html, "\n")
	html = tagRe.ReplaceAllString(html, " ")
	html = entities.Replace(html)
	html = spaceRe.ReplaceAllString(html, " ")
	html = lineRe.ReplaceAllString(html, "\n")
	return strings.TrimSpace(html)
}
