package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/questify/internal/mail"
	"github.com/JakeFAU/questify/internal/question"
	"github.com/JakeFAU/questify/internal/storage/memory"
)

type fakeStore struct {
	upserts []string
	err     error
}

func (f *fakeStore) Upsert(_ context.Context, email string) error {
	f.upserts = append(f.upserts, email)
	return f.err
}

type fakeFetcher struct {
	none      bool
	requested []question.Platform
}

func (f *fakeFetcher) Fetch(_ context.Context, p question.Platform) (question.Question, bool) {
	f.requested = append(f.requested, p)
	if f.none {
		return question.Question{}, false
	}
	return question.Question{
		Platform:   p,
		Title:      "Problem from " + p.String(),
		URL:        "https://example.com/" + p.String(),
		Difficulty: "Easy",
	}, true
}

type fakeMailer struct {
	err  error
	sent []string
}

func (f *fakeMailer) Send(_ context.Context, path, recipient string, _ question.Question, subject string) error {
	f.sent = append(f.sent, path+"|"+recipient+"|"+subject)
	return f.err
}

func post(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/store-email", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestStoreEmailSucceedsForEveryPlatform(t *testing.T) {
	t.Parallel()

	for _, p := range question.Platforms() {
		p := p
		t.Run(p.String(), func(t *testing.T) {
			t.Parallel()

			store := &fakeStore{}
			mailer := &fakeMailer{}
			s := NewServer(store, &fakeFetcher{}, mailer, Options{}, zap.NewNop())

			rec := post(t, s, `{"email":" ada@example.com ","platform":"`+p.String()+`"}`)

			require.Equal(t, http.StatusOK, rec.Code)
			require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			body := decode(t, rec)
			require.Equal(t, "success", body["status"])
			require.Equal(t, "Welcome email sent to ada@example.com with a "+p.String()+" coding problem.", body["message"])
			data, ok := body["data"].(map[string]any)
			require.True(t, ok)
			require.Equal(t, p.String(), data["platform"])
			require.Equal(t, []string{"ada@example.com"}, store.upserts)
			require.Equal(t, []string{"welcome|ada@example.com|Welcome!  " + p.String() + " Question"}, mailer.sent)
		})
	}
}

func TestStoreEmailRequiresFields(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{
		"malformed":        `{"email":`,
		"missing email":    `{"platform":"LeetCode"}`,
		"missing platform": `{"email":"ada@example.com"}`,
		"blank email":      `{"email":"   ","platform":"LeetCode"}`,
	} {
		body := body
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			store := &fakeStore{}
			s := NewServer(store, &fakeFetcher{}, &fakeMailer{}, Options{}, nil)

			rec := post(t, s, body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Equal(t, msgRequired, rec.Body.String())
			require.Empty(t, store.upserts)
		})
	}
}

func TestStoreEmailRejectsUnknownPlatformWithoutTouchingStore(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	fetcher := &fakeFetcher{}
	s := NewServer(store, fetcher, &fakeMailer{}, Options{}, nil)

	rec := post(t, s, `{"email":"ada@example.com","platform":"AtCoder"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.JSONEq(t, `{"status":"failure","message":"Invalid platform selected."}`, rec.Body.String())
	require.Empty(t, store.upserts)
	require.Empty(t, fetcher.requested)
}

func TestStoreEmailMalformedAddressFailsAtStore(t *testing.T) {
	t.Parallel()

	for _, email := range []string{"foo", "Ada <ada@example.com>"} {
		email := email
		t.Run(email, func(t *testing.T) {
			t.Parallel()
			store := memory.NewSubscriberStore()
			fetcher := &fakeFetcher{}
			s := NewServer(store, fetcher, &fakeMailer{}, Options{}, nil)

			rec := post(t, s, `{"email":"`+email+`","platform":"LeetCode"}`)

			require.Equal(t, http.StatusInternalServerError, rec.Code)
			require.Equal(t, msgSaveFailed, rec.Body.String())
			require.Empty(t, fetcher.requested)
			emails, err := store.ListEmails(context.Background())
			require.NoError(t, err)
			require.Empty(t, emails)
		})
	}
}

func TestStoreEmailStoreFailure(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{}
	s := NewServer(&fakeStore{err: errors.New("db down")}, fetcher, &fakeMailer{}, Options{}, nil)

	rec := post(t, s, `{"email":"ada@example.com","platform":"Codeforces"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, msgSaveFailed, rec.Body.String())
	require.Empty(t, fetcher.requested)
}

func TestStoreEmailNoQuestion(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	mailer := &fakeMailer{}
	s := NewServer(store, &fakeFetcher{none: true}, mailer, Options{}, nil)

	rec := post(t, s, `{"email":"ada@example.com","platform":"Codechef"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"status":"failure","message":"Failed to fetch a problem."}`, rec.Body.String())
	require.Len(t, store.upserts, 1)
	require.Empty(t, mailer.sent)
}

func TestStoreEmailMailFailure(t *testing.T) {
	t.Parallel()

	mailer := &fakeMailer{err: &mail.MailError{Recipient: "ada@example.com", Err: errors.New("535 auth")}}
	s := NewServer(&fakeStore{}, &fakeFetcher{}, mailer, Options{}, nil)

	rec := post(t, s, `{"email":"ada@example.com","platform":"LeetCode"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"status":"failure","message":"Failed to send email."}`, rec.Body.String())
}

func TestStoreEmailIsIdempotentAgainstMemoryStore(t *testing.T) {
	t.Parallel()

	store := memory.NewSubscriberStore()
	s := NewServer(store, &fakeFetcher{}, &fakeMailer{}, Options{}, nil)

	for i := 0; i < 2; i++ {
		rec := post(t, s, `{"email":"ada@example.com","platform":"LeetCode"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	emails, err := store.ListEmails(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"ada@example.com"}, emails)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeStore{}, &fakeFetcher{}, &fakeMailer{}, Options{}, nil)
	req := httptest.NewRequest(http.MethodOptions, "/store-email", nil)
	req.Header.Set("Origin", "https://questify.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Less(t, rec.Code, 300)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeStore{}, &fakeFetcher{}, &fakeMailer{}, Options{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	h := recoverMiddleware(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/store-email", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
