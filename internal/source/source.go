// Package source implements the platform question sources and the selection
// policy used by the scheduled broadcast.
package source

import (
	"context"
	"math/rand/v2"
	"net/http"

	"github.com/gocolly/colly/v2"
)

// Default listing endpoints.
const (
	DefaultLeetCodeURL   = "https://leetcode.com/api/problems/all/"
	DefaultCodeforcesURL = "https://codeforces.com/api/problemset.problems"
	DefaultCodechefURL   = "https://www.codechef.com/practice/recent"
)

// Getter returns the raw body of a GET request.
type Getter interface {
	Get(ctx context.Context, url string, headers http.Header) ([]byte, error)
}

// Scraper visits a page and calls fn for every element matching selector.
type Scraper interface {
	Scrape(ctx context.Context, url, selector string, fn colly.HTMLCallback) error
}

// Picker returns a uniformly distributed index in [0, n).
type Picker func(n int) int

func defaultPicker(p Picker) Picker {
	if p == nil {
		return rand.IntN
	}
	return p
}

func jsonHeaders() http.Header {
	return http.Header{"Accept": {"application/json"}}
}
