package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// roundTripFunc is an http.RoundTripper backed by a function.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newClientWithTransport(fn roundTripFunc) *Client {
	return New(zap.NewNop(), &http.Client{Transport: fn}, 0)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// ─── Authenticate ─────────────────────────────────────────────────────────────

func TestAuthenticate_PostsCredentialsAndReturnsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, AuthorizePath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"Username": "svc-user", "Password": "s3cret"}, body)

		writeJSON(w, http.StatusOK, `"token-123"`)
	}))
	defer srv.Close()

	c := New(zap.NewNop(), srv.Client(), 0)
	res := c.Authenticate(context.Background(), srv.URL+"/", "svc-user", "s3cret")

	require.True(t, res.OK(), res.Message())
	assert.Equal(t, "token-123", res.Payload())
}

func TestAuthenticate_RejectedCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":{"code":"AUTH01","message":"Invalid username or password"}}`)
	}))
	defer srv.Close()

	c := New(zap.NewNop(), srv.Client(), 0)
	res := c.Authenticate(context.Background(), srv.URL, "u", "bad")

	require.False(t, res.OK())
	assert.Equal(t, "Error from server, Status Code: 401 data returned: {'message': 'AUTH01', 'detail': 'Invalid username or password'}", res.Message())
}

// ─── Dispatch ─────────────────────────────────────────────────────────────────

func TestDispatch_GetSendsHeadersAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "tok", r.Header.Get("X-RM12Api-ApiToken"))
		assert.Equal(t, "IsActive,eq,true", r.URL.Query().Get("filters"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		writeJSON(w, http.StatusOK, `[{"PropertyID":1}]`)
	}))
	defer srv.Close()

	c := New(zap.NewNop(), srv.Client(), 0)
	res := c.Dispatch(context.Background(), Request{
		URL:     srv.URL + "/Properties?page=1",
		Method:  "get",
		Headers: map[string]string{"X-RM12Api-ApiToken": "tok"},
		Query:   url.Values{"filters": {"IsActive,eq,true"}},
	})

	require.True(t, res.OK(), res.Message())
	assert.Equal(t, []any{map[string]any{"PropertyID": json.Number("1")}}, res.Payload())
}

func TestDispatch_MethodLookupIsCaseInsensitive(t *testing.T) {
	var seen []string
	c := newClientWithTransport(func(req *http.Request) (*http.Response, error) {
		seen = append(seen, req.Method)
		return &http.Response{
			StatusCode: http.StatusNoContent,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(`{}`)),
		}, nil
	})

	for _, m := range []string{"GET", "post", "Put", "DELETE"} {
		res := c.Dispatch(context.Background(), Request{URL: "https://rm.test/x", Method: m})
		require.True(t, res.OK(), res.Message())
	}
	assert.Equal(t, []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}, seen)
}

func TestDispatch_UnsupportedMethodFailsBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	c := newClientWithTransport(func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, fmt.Errorf("should not be called")
	})

	res := c.Dispatch(context.Background(), Request{URL: "https://rm.test/Units", Method: "patch"})

	require.False(t, res.OK())
	assert.Equal(t, `Error Code: None. Error Message: unsupported HTTP method "patch"`, res.Message())
	assert.EqualValues(t, 0, calls.Load(), "no request may be issued for an unsupported verb")
}

func TestDispatch_TransportFaultBecomesFailure(t *testing.T) {
	c := newClientWithTransport(func(*http.Request) (*http.Response, error) {
		return nil, NewFault(7, "refused")
	})

	res := c.Dispatch(context.Background(), Request{URL: "https://rm.test/Units", Method: "get"})

	require.False(t, res.OK())
	assert.Equal(t, "Error Code: 7. Error Message: refused", res.Message())
}

func TestDispatch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	target := srv.URL
	srv.Close()

	c := New(zap.NewNop(), nil, time.Second)
	res := c.Dispatch(context.Background(), Request{URL: target, Method: "get"})

	require.False(t, res.OK())
	assert.Equal(t, fmt.Sprintf("Error Code: %d. Error Message: %s", int(syscall.ECONNREFUSED), syscall.ECONNREFUSED.Error()), res.Message())
}

func TestDispatch_TimeoutIsExplicit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeJSON(w, http.StatusOK, `{}`)
	}))
	defer srv.Close()

	c := New(zap.NewNop(), nil, 20*time.Millisecond)
	res := c.Dispatch(context.Background(), Request{URL: srv.URL, Method: "get"})

	require.False(t, res.OK())
	assert.Contains(t, res.Message(), "Error Code: None. Error Message: timeout:")
}

func TestDispatch_InvalidURL(t *testing.T) {
	c := newTestClient()
	res := c.Dispatch(context.Background(), Request{URL: "://missing-scheme", Method: "get"})

	require.False(t, res.OK())
	assert.Contains(t, res.Message(), "Error Code: None. Error Message: ")
	assert.Contains(t, res.Message(), "missing protocol scheme")
}

func TestDispatch_NonJSONServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<p>{gateway}</p>")
	}))
	defer srv.Close()

	c := New(zap.NewNop(), srv.Client(), 0)
	res := c.Dispatch(context.Background(), Request{URL: srv.URL, Method: "get"})

	require.False(t, res.OK())
	assert.Equal(t, "Can't process response from server. Status Code: 502 Data from server: <p>{{gateway}}</p>", res.Message())
}

func TestDispatch_PostBodyDelivered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"Name":"Elm"}`, string(b))
		writeJSON(w, http.StatusCreated, `{"PropertyID":9}`)
	}))
	defer srv.Close()

	c := New(zap.NewNop(), srv.Client(), 0)
	res := c.Dispatch(context.Background(), Request{URL: srv.URL, Method: "post", Body: []byte(`{"Name":"Elm"}`)})

	require.True(t, res.OK(), res.Message())
	assert.Equal(t, map[string]any{"PropertyID": json.Number("9")}, res.Payload())
}
