// Package collyfetcher implements the HTTP and HTML fetch primitives used by
// the platform sources, on top of gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultMaxBodySize = 32 << 20
)

// Config controls collector behavior.
type Config struct {
	UserAgent   string
	Timeout     time.Duration
	MaxBodySize int
}

// Fetcher issues one-shot GET requests through a cloned Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = defaultMaxBodySize
	}
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Get fetches url and returns the raw response body.
func (f *Fetcher) Get(ctx context.Context, url string, headers http.Header) ([]byte, error) {
	var (
		body     []byte
		fetchErr error
	)
	collector := f.buildCollector()
	configureHooks(collector, headers, &body, &fetchErr)

	if err := runCollector(ctx, collector, url, &fetchErr); err != nil {
		return nil, err
	}
	return body, nil
}

// Scrape fetches url and calls fn for every element matching selector.
func (f *Fetcher) Scrape(ctx context.Context, url, selector string, fn colly.HTMLCallback) error {
	var fetchErr error
	collector := f.buildCollector()
	configureHooks(collector, nil, nil, &fetchErr)
	collector.OnHTML(selector, fn)

	return runCollector(ctx, collector, url, &fetchErr)
}

func (f *Fetcher) buildCollector() *colly.Collector {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.MaxBodySize = f.cfg.MaxBodySize
	return collector
}

func configureHooks(hooks collectorHooks, headers http.Header, body *[]byte, fetchErr *error) {
	hooks.OnRequest(func(r *colly.Request) {
		copyHeaders(headers, r)
	})

	hooks.OnResponse(func(r *colly.Response) {
		if body != nil {
			*body = append([]byte(nil), r.Body...)
		}
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			*fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
			return
		}
		*fetchErr = err
	})
}

func runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		return nil
	}
}

func copyHeaders(headers http.Header, r *colly.Request) {
	for key, values := range headers {
		r.Headers.Del(key)
		for _, v := range values {
			r.Headers.Add(key, v)
		}
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
