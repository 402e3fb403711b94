package source

import (
	"context"
	"errors"

	"github.com/JakeFAU/questify/internal/question"
)

// DefaultBroadcastPlatforms is the broadcast source policy. CodeChef is left
// out because its page is scraped rather than served by an API.
var DefaultBroadcastPlatforms = []question.Platform{question.LeetCode, question.Codeforces}

// Selector picks one fetcher uniformly at random and returns its result unchanged.
type Selector struct {
	fetchers []*question.Fetcher
	pick     Picker
}

// NewSelector builds a Selector over fetchers.
func NewSelector(fetchers []*question.Fetcher, pick Picker) (*Selector, error) {
	if len(fetchers) == 0 {
		return nil, errors.New("selector needs at least one fetcher")
	}
	return &Selector{fetchers: fetchers, pick: defaultPicker(pick)}, nil
}

// Select fetches one question from a randomly chosen fetcher.
func (s *Selector) Select(ctx context.Context) (question.Question, bool) {
	return s.fetchers[s.pick(len(s.fetchers))].Fetch(ctx)
}

// Platforms returns the platforms the selector draws from.
func (s *Selector) Platforms() []question.Platform {
	out := make([]question.Platform, len(s.fetchers))
	for i, f := range s.fetchers {
		out[i] = f.Platform()
	}
	return out
}
