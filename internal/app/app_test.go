package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/questify/internal/config"
	"github.com/JakeFAU/questify/internal/mail"
)

const leetCodeListing = `{"stat_status_pairs":[
	{"stat":{"question__title":"Two Sum","question__title_slug":"two-sum"},"difficulty":{"level":1}}
]}`

func testConfig(t *testing.T) config.Config {
	t.Helper()
	listing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, leetCodeListing)
	}))
	t.Cleanup(listing.Close)

	return config.Config{
		Server:    config.ServerConfig{Port: 3000, RequestTimeoutSeconds: 10, ShutdownTimeoutSecs: 5},
		Logging:   config.LoggingConfig{Level: "info"},
		Store:     config.StoreConfig{Driver: "memory", ConnectTimeoutSeconds: 1},
		Mail:      config.MailConfig{Host: "smtp.example.com", Port: 587, From: "questify@example.com"},
		HTTP:      config.HTTPConfig{TimeoutSeconds: 5, UserAgent: "questify-test"},
		Sources:   config.SourcesConfig{LeetCodeURL: listing.URL},
		Broadcast: config.BroadcastConfig{Enabled: true, Sources: []string{"LeetCode"}},
	}
}

func newTestApp(t *testing.T, cfg config.Config, transport *mail.MockTransport) *App {
	t.Helper()
	a, err := Build(context.Background(), cfg, WithLogger(zap.NewNop()), WithTransport(transport))
	require.NoError(t, err)
	return a
}

func TestBuildWiresScheduler(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, testConfig(t), &mail.MockTransport{})
	require.NotNil(t, a.scheduler)
	require.Equal(t, "Asia/Kolkata", a.scheduler.Location().String())
	require.NoError(t, a.Close(context.Background()))
}

func TestBuildWithoutScheduler(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Broadcast.Enabled = false
	a := newTestApp(t, cfg, &mail.MockTransport{})
	require.Nil(t, a.scheduler)
	require.NotNil(t, a.job)
	require.NoError(t, a.Close(context.Background()))
}

func TestBuildRejectsUnknownStoreDriver(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Store.Driver = "redis"
	_, err := Build(context.Background(), cfg, WithLogger(zap.NewNop()), WithTransport(&mail.MockTransport{}))
	require.ErrorContains(t, err, "store init failed")
}

func TestBroadcastSendsToEverySubscriber(t *testing.T) {
	t.Parallel()

	transport := &mail.MockTransport{}
	transport.On("Send", mock.Anything, mock.MatchedBy(func(m mail.Message) bool {
		return m.Subject == "Your Daily LeetCode Coding Challenge"
	})).Return(nil).Times(2)

	a := newTestApp(t, testConfig(t), transport)
	ctx := context.Background()
	require.NoError(t, a.store.Upsert(ctx, "ada@example.com"))
	require.NoError(t, a.store.Upsert(ctx, "grace@example.com"))

	require.NoError(t, a.Broadcast(ctx))

	transport.AssertExpectations(t)
	require.NoError(t, a.Close(ctx))
}

func TestServeEndToEnd(t *testing.T) {
	t.Parallel()

	transport := &mail.MockTransport{}
	transport.On("Send", mock.Anything, mock.MatchedBy(func(m mail.Message) bool {
		return m.To == "ada@example.com" && m.Subject == "Welcome!  LeetCode Question"
	})).Return(nil).Once()

	a := newTestApp(t, testConfig(t), transport)

	apiLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	metricsLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, apiLn, metricsLn) }()

	body := bytes.NewBufferString(`{"email":"ada@example.com","platform":"LeetCode"}`)
	resp, err := http.Post("http://"+apiLn.Addr().String()+"/store-email", "application/json", body)
	require.NoError(t, err)
	var payload struct {
		Status string `json:"status"`
		Data   struct {
			Platform string `json:"platform"`
			Title    string `json:"title"`
			URL      string `json:"url"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "success", payload.Status)
	require.Equal(t, "LeetCode", payload.Data.Platform)
	require.Equal(t, "Two Sum", payload.Data.Title)
	require.Equal(t, "https://leetcode.com/problems/two-sum/", payload.Data.URL)

	resp, err = http.Get("http://" + metricsLn.Addr().String() + "/metrics")
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Contains(t, string(raw), "questify_subscriptions_total")

	emails, err := a.store.ListEmails(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"ada@example.com"}, emails)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	transport.AssertExpectations(t)
}
