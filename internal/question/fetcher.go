package question

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/JakeFAU/questify/internal/metrics"
)

// Fetcher is the boundary around a Source. Every fault, including a panic in
// the source, is logged and reported as ok == false.
type Fetcher struct {
	source Source
	logger *zap.Logger
}

// NewFetcher wraps source with logging and outcome metrics.
func NewFetcher(source Source, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		source: source,
		logger: logger.With(zap.String("platform", source.Platform().String())),
	}
}

// Platform returns the wrapped source's platform.
func (f *Fetcher) Platform() Platform {
	return f.source.Platform()
}

// Fetch returns one question, or ok == false when the source yielded nothing.
func (f *Fetcher) Fetch(ctx context.Context) (q Question, ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			f.logger.Error("question source panicked", zap.Any("panic", rec))
			metrics.ObserveFetch(f.Platform().String(), "error")
			q, ok = Question{}, false
		}
	}()

	q, err := f.source.Random(ctx)
	if err != nil {
		f.logger.Error("fetch question failed", zap.Error(err))
		metrics.ObserveFetch(f.Platform().String(), outcomeFor(err))
		return Question{}, false
	}
	metrics.ObserveFetch(f.Platform().String(), "ok")
	f.logger.Debug("question fetched", zap.String("title", q.Title), zap.String("url", q.URL))
	return q, true
}

func outcomeFor(err error) string {
	if errors.Is(err, ErrEmptyListing) {
		return "empty"
	}
	return "error"
}
