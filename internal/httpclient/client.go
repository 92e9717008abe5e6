package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AuthorizePath is the authentication endpoint, relative to the API base URL.
const AuthorizePath = "/Authentication/AuthorizeUser"

// allowedMethods is the closed set of verbs Dispatch will issue.
var allowedMethods = map[string]string{
	"get":    http.MethodGet,
	"post":   http.MethodPost,
	"put":    http.MethodPut,
	"delete": http.MethodDelete,
}

// Request describes a single REST call.
type Request struct {
	URL     string
	Method  string
	Headers map[string]string
	Query   url.Values
	Body    []byte
}

// Client issues synchronous REST calls and normalizes every outcome into a Result.
// It never retries and never returns transport failures as errors.
type Client struct {
	logger *zap.Logger
	http   *http.Client
}

// New creates a Client. A nil httpClient gets a client with the given timeout.
func New(logger *zap.Logger, httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		logger: logger,
		http:   httpClient,
	}
}

// Authenticate posts the username/password pair to baseURL + AuthorizePath.
// On success the payload is the session token as returned by the API.
func (c *Client) Authenticate(ctx context.Context, baseURL, username, password string) Result {
	body, err := json.Marshal(map[string]string{
		"Username": username,
		"Password": password,
	})
	if err != nil {
		return Failure(TranslateFault(err))
	}

	return c.Dispatch(ctx, Request{
		URL:     strings.TrimRight(baseURL, "/") + AuthorizePath,
		Method:  "post",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	})
}

// Dispatch issues r and classifies the response. Unsupported verbs fail
// before any network activity.
func (c *Client) Dispatch(ctx context.Context, r Request) Result {
	verb, ok := allowedMethods[strings.ToLower(r.Method)]
	if !ok {
		c.logger.Warn("httpclient.unsupported_method", zap.String("method", r.Method))
		return Failure(TranslateFault(NewFault(fmt.Sprintf("unsupported HTTP method %q", r.Method))))
	}

	req, err := newRequest(ctx, verb, r)
	if err != nil {
		c.logger.Warn("httpclient.request_build_failed",
			zap.String("url", r.URL),
			zap.Error(err))
		return Failure(TranslateFault(err))
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("httpclient.dispatch_failed",
			zap.String("method", verb),
			zap.String("url", req.URL.String()),
			zap.Error(err))
		return Failure(TranslateFault(err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("httpclient.body_read_failed",
			zap.String("url", req.URL.String()),
			zap.Error(err))
		return Failure(TranslateFault(err))
	}

	c.logger.Debug("httpclient.response",
		zap.String("method", verb),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	return c.Classify(Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       string(body),
	})
}

func newRequest(ctx context.Context, verb string, r Request) (*http.Request, error) {
	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, err
	}
	if len(r.Query) > 0 {
		q := u.Query()
		for k, vs := range r.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, verb, u.String(), body)
	if err != nil {
		return nil, err
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}
