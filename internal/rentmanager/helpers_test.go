package rentmanager

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/rentmanager-adapter/internal/httpclient"
	"github.com/Checker-Finance/rentmanager-adapter/pkg/model"
)

const testToken = "tok-123"

// fakeRM serves canned JSON bodies keyed by path. Paths without a route
// answer 404 with a structured error.
type fakeRM struct {
	t      *testing.T
	mu     sync.Mutex
	routes map[string]string
	status map[string]int
	hits   map[string]int
	query  map[string]url.Values
	srv    *httptest.Server
}

func newFakeRM(t *testing.T) *fakeRM {
	f := &fakeRM{
		t:      t,
		routes: map[string]string{httpclient.AuthorizePath: `"` + testToken + `"`},
		status: map[string]int{},
		hits:   map[string]int{},
		query:  map[string]url.Values{},
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeRM) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	f.query[r.URL.Path] = r.URL.Query()
	body, ok := f.routes[r.URL.Path]
	status := f.status[r.URL.Path]
	f.mu.Unlock()

	if r.URL.Path != httpclient.AuthorizePath && r.Header.Get(TokenHeader) != testToken {
		status, body, ok = http.StatusUnauthorized, `{"error":{"code":"AUTH","message":"missing token"}}`, true
	}
	if !ok {
		status, body = http.StatusNotFound, `{"error":{"code":"NF","message":"not found"}}`
	}
	if status == 0 {
		status = http.StatusOK
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (f *fakeRM) handle(path, body string) { f.handleStatus(path, http.StatusOK, body) }

func (f *fakeRM) handleStatus(path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[path] = body
	f.status[path] = status
}

func (f *fakeRM) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeRM) lastQuery(path string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.query[path]
}

func (f *fakeRM) client() *Client {
	rest := httpclient.New(zap.NewNop(), f.srv.Client(), 0)
	return NewClient(zap.NewNop(), rest, f.srv.URL, Credentials{Username: "svc", Password: "pw"})
}

func (f *fakeRM) authedClient() *Client {
	c := f.client()
	require.NoError(f.t, c.Authenticate(context.Background()))
	return c
}

// memorySink records every emitted record.
type memorySink struct {
	name    string
	fail    bool
	records []model.Record
}

func (s *memorySink) Name() string { return s.name }

func (s *memorySink) Emit(_ context.Context, rec model.Record) error {
	if s.fail {
		return errors.New("sink down")
	}
	s.records = append(s.records, rec)
	return nil
}
