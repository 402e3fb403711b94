package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/questify/internal/question"
)

// Registry maps each platform onto its fetch boundary.
type Registry struct {
	fetchers map[question.Platform]*question.Fetcher
}

// NewRegistry wraps every source in a question.Fetcher.
func NewRegistry(logger *zap.Logger, sources ...question.Source) *Registry {
	r := &Registry{fetchers: make(map[question.Platform]*question.Fetcher, len(sources))}
	for _, s := range sources {
		r.fetchers[s.Platform()] = question.NewFetcher(s, logger)
	}
	return r
}

// Fetcher returns the fetcher for platform.
func (r *Registry) Fetcher(platform question.Platform) (*question.Fetcher, bool) {
	f, ok := r.fetchers[platform]
	return f, ok
}

// Fetch fetches one question from platform; ok is false on no result or an
// unregistered platform.
func (r *Registry) Fetch(ctx context.Context, platform question.Platform) (question.Question, bool) {
	f, ok := r.fetchers[platform]
	if !ok {
		return question.Question{}, false
	}
	return f.Fetch(ctx)
}

// Subset returns the fetchers for platforms, in order.
func (r *Registry) Subset(platforms []question.Platform) ([]*question.Fetcher, error) {
	out := make([]*question.Fetcher, 0, len(platforms))
	for _, p := range platforms {
		f, ok := r.fetchers[p]
		if !ok {
			return nil, fmt.Errorf("no source registered for platform %q", p)
		}
		out = append(out, f)
	}
	return out, nil
}
