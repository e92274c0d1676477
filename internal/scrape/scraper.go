// Package scrape reads brand pages through a chain of readers, falling
// back from free local fetches to paid reader APIs.
package scrape

import "context"

// Page is the readable content of one URL.
type Page struct {
	URL        string
	Title      string
	Content    string
	StatusCode int
}

// Result holds a scraped page with its source.
type Result struct {
	Page   Page
	Source string // "local_http", "jina" or "firecrawl"
	// Tokens is the reader's billed token count, when it reports one.
	Tokens int
}

// Scraper fetches a single URL and returns its content.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
