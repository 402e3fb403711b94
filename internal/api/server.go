package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/JakeFAU/questify/internal/metrics"
	"github.com/JakeFAU/questify/internal/question"
)

// SubscriberStore records subscriptions.
type SubscriberStore interface {
	Upsert(ctx context.Context, email string) error
}

// QuestionFetcher fetches one question from a named platform.
type QuestionFetcher interface {
	Fetch(ctx context.Context, platform question.Platform) (question.Question, bool)
}

// Mailer delivers one question to one recipient.
type Mailer interface {
	Send(ctx context.Context, path, recipient string, q question.Question, subject string) error
}

// Options tunes the HTTP layer.
type Options struct {
	// RequestTimeout bounds a whole request, including the fetch and the send.
	RequestTimeout time.Duration
}

const defaultRequestTimeout = 60 * time.Second

// Server wires HTTP handlers to the store, the fetchers and the mailer.
type Server struct {
	router  chi.Router
	store   SubscriberStore
	fetcher QuestionFetcher
	mailer  Mailer
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(store SubscriberStore, fetcher QuestionFetcher, mailer Mailer, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	s := &Server{
		store:   store,
		fetcher: fetcher,
		mailer:  mailer,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.Use(timeoutMiddleware(opts.RequestTimeout))

	r.Post("/store-email", s.storeEmail)

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}
