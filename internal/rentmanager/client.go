package rentmanager

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/rentmanager-adapter/internal/httpclient"
	"github.com/Checker-Finance/rentmanager-adapter/internal/metrics"
	"github.com/Checker-Finance/rentmanager-adapter/pkg/utils"
)

// ErrNotAuthenticated is returned by data calls made before Authenticate.
var ErrNotAuthenticated = errors.New("rentmanager: not authenticated")

// Client wraps the Rent Manager REST endpoints on top of the normalizing
// httpclient. The session token is obtained once and reused for every call.
type Client struct {
	logger  *zap.Logger
	rest    *httpclient.Client
	baseURL string
	creds   Credentials
	token   string
}

// NewClient constructs a Rent Manager client. creds.BaseURL, when set, wins over baseURL.
func NewClient(logger *zap.Logger, rest *httpclient.Client, baseURL string, creds Credentials) *Client {
	if creds.BaseURL != "" {
		baseURL = creds.BaseURL
	}
	return &Client{
		logger:  logger,
		rest:    rest,
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
	}
}

// BaseURL returns the API root in use.
func (c *Client) BaseURL() string { return c.baseURL }

// Authenticated reports whether a session token is held.
func (c *Client) Authenticated() bool { return c.token != "" }

// Authenticate exchanges the credentials for a session token.
// POST /Authentication/AuthorizeUser
func (c *Client) Authenticate(ctx context.Context) error {
	start := time.Now()
	res := c.rest.Authenticate(ctx, c.baseURL, c.creds.Username, c.creds.Password)
	record("authorize_user", http.MethodPost, start, res)

	if !res.OK() {
		c.logger.Warn("rentmanager.auth_failed",
			zap.String("user", utils.MaskSecret(c.creds.Username)),
			zap.String("error", res.Message()))
		return fmt.Errorf("rentmanager: authenticate: %w", res.Err())
	}

	token, ok := res.Payload().(string)
	if !ok || token == "" {
		return fmt.Errorf("rentmanager: authenticate: unexpected token payload %T", res.Payload())
	}
	c.token = token

	c.logger.Info("rentmanager.authenticated",
		zap.String("user", utils.MaskSecret(c.creds.Username)),
		zap.String("base_url", c.baseURL))
	return nil
}

// UnitTypes returns unit type names keyed by UnitTypeID.
// GET /UnitTypes
func (c *Client) UnitTypes(ctx context.Context) (map[int64]string, error) {
	list, err := c.getList(ctx, "unit_types", "/UnitTypes", nil)
	if err != nil {
		return nil, err
	}
	types := make(map[int64]string, len(list))
	for _, ut := range list {
		if id := integer(ut, "UnitTypeID"); id != 0 {
			types[id] = str(ut, "Name")
		}
	}
	return types, nil
}

// ActiveProperties lists properties with IsActive = true.
// GET /Properties?filters=IsActive,eq,true
func (c *Client) ActiveProperties(ctx context.Context) ([]map[string]any, error) {
	return c.getList(ctx, "properties", "/Properties", url.Values{"filters": {activePropertiesFilter}})
}

// PropertyDetails returns a property's address, default bank and phone numbers.
// GET /Properties/{id}/Search
func (c *Client) PropertyDetails(ctx context.Context, propertyID int64) (map[string]any, error) {
	return c.getObject(ctx, "property_search", fmt.Sprintf("/Properties/%d/Search", propertyID), url.Values{
		"embeds": {propertySearchEmbeds},
		"fields": {propertySearchFields},
	})
}

// PropertyOwners lists a property's owners.
// GET /Properties/{id}/Owners
func (c *Client) PropertyOwners(ctx context.Context, propertyID int64) ([]map[string]any, error) {
	return c.getList(ctx, "property_owners", fmt.Sprintf("/Properties/%d/Owners", propertyID), nil)
}

// PropertyImages lists a property's images with their file metadata.
// GET /Properties/{id}/Images?embeds=File
func (c *Client) PropertyImages(ctx context.Context, propertyID int64) ([]map[string]any, error) {
	return c.getList(ctx, "property_images", fmt.Sprintf("/Properties/%d/Images", propertyID), url.Values{
		"embeds": {propertyImagesEmbeds},
	})
}

// OnlineListings lists units published for online listing.
// GET /Units/OnlineListings
func (c *Client) OnlineListings(ctx context.Context) ([]map[string]any, error) {
	return c.getList(ctx, "online_listings", "/Units/OnlineListings", nil)
}

// UnitDetails returns a unit's address, amenities, market rent, floor and type.
// GET /Units/{id}/Search
func (c *Client) UnitDetails(ctx context.Context, unitID int64) (map[string]any, error) {
	return c.getObject(ctx, "unit_search", fmt.Sprintf("/Units/%d/Search", unitID), url.Values{
		"embeds": {unitSearchEmbeds},
		"fields": {unitSearchFields},
	})
}

// get performs an authenticated GET and returns the classified result.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values) (httpclient.Result, error) {
	if !c.Authenticated() {
		return httpclient.Result{}, ErrNotAuthenticated
	}

	start := time.Now()
	res := c.rest.Dispatch(ctx, httpclient.Request{
		URL:     c.baseURL + path,
		Method:  "get",
		Headers: map[string]string{TokenHeader: c.token},
		Query:   query,
	})
	record(endpoint, http.MethodGet, start, res)

	if !res.OK() {
		c.logger.Debug("rentmanager.request_failed",
			zap.String("endpoint", endpoint),
			zap.String("path", path),
			zap.String("error", res.Message()))
		return res, fmt.Errorf("rentmanager: %s: %w", endpoint, res.Err())
	}
	return res, nil
}

func (c *Client) getList(ctx context.Context, endpoint, path string, query url.Values) ([]map[string]any, error) {
	res, err := c.get(ctx, endpoint, path, query)
	if err != nil {
		return nil, err
	}
	if res.Payload() == nil {
		return nil, nil
	}
	list, ok := res.Payload().([]any)
	if !ok {
		return nil, fmt.Errorf("rentmanager: %s: expected JSON array, got %T", endpoint, res.Payload())
	}
	return toObjects(list), nil
}

func (c *Client) getObject(ctx context.Context, endpoint, path string, query url.Values) (map[string]any, error) {
	res, err := c.get(ctx, endpoint, path, query)
	if err != nil {
		return nil, err
	}
	obj, ok := res.Payload().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("rentmanager: %s: expected JSON object, got %T", endpoint, res.Payload())
	}
	return obj, nil
}

func record(endpoint, method string, start time.Time, res httpclient.Result) {
	outcome := "success"
	if !res.OK() {
		outcome = "failure"
	}
	metrics.IncRequest(endpoint, method, outcome)
	metrics.ObserveDuration(metrics.RequestDuration, start, endpoint, method)
}
