// Package question defines the normalized problem record shared by every
// platform source, the source capability itself, and the fetch boundary that
// turns source faults into a "no result" outcome.
package question

import (
	"context"
	"errors"
	"fmt"
)

// Platform identifies one of the supported problem platforms.
type Platform string

// Supported platforms. The string values are the labels accepted by the
// subscription endpoint and returned in Question payloads.
const (
	LeetCode   Platform = "LeetCode"
	Codeforces Platform = "Codeforces"
	Codechef   Platform = "Codechef"
)

// Platforms lists every supported platform in a stable order.
func Platforms() []Platform {
	return []Platform{LeetCode, Codeforces, Codechef}
}

// ParsePlatform maps a request label onto a Platform.
func ParsePlatform(label string) (Platform, bool) {
	for _, p := range Platforms() {
		if string(p) == label {
			return p, true
		}
	}
	return "", false
}

// String implements fmt.Stringer.
func (p Platform) String() string {
	return string(p)
}

// Question is one normalized problem picked from a platform listing.
type Question struct {
	Platform   Platform `json:"platform"`
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Difficulty string   `json:"difficulty"`
}

// Source fetches one random question from a single platform.
type Source interface {
	Platform() Platform
	Random(ctx context.Context) (Question, error)
}

// ErrEmptyListing reports that a platform returned no candidate problems.
var ErrEmptyListing = errors.New("empty problem listing")

// FetchError wraps a network, decode or empty-listing failure from a source.
type FetchError struct {
	Platform Platform
	Op       string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %v", e.Platform, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError builds a FetchError for the given platform and operation.
func NewFetchError(platform Platform, op string, err error) *FetchError {
	return &FetchError{Platform: platform, Op: op, Err: err}
}
