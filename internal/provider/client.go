// Package provider implements the read-only client for the provider REST
// API. Authentication uses an OAuth2 client-credentials token fetched
// from the provider's login endpoint; the token source refreshes it
// transparently when it expires.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/agentstation/grafsync/pkg/errors"
	"github.com/agentstation/grafsync/pkg/sync"
)

// DefaultHTTPTimeout bounds every provider API request.
const DefaultHTTPTimeout = 30 * time.Second

// Config holds the provider connection settings.
type Config struct {
	Domain       string
	ClientID     string
	ClientSecret string
}

// Client is a provider API client. It implements sync.ProviderAPI.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ sync.ProviderAPI = (*Client)(nil)

// New creates a provider client. The context governs token fetches for
// the lifetime of the client.
func New(ctx context.Context, cfg Config) *Client {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf("https://%s/login/connect/token", cfg.Domain),
		AuthStyle:    oauth2.AuthStyleInParams,
		EndpointParams: url.Values{
			"response_type": {"token"},
		},
	}

	httpClient := cc.Client(ctx)
	httpClient.Timeout = DefaultHTTPTimeout

	return &Client{
		baseURL: fmt.Sprintf("https://%s/api/v1", cfg.Domain),
		http:    httpClient,
	}
}

// OwnCompany returns the company bound to the client credential.
func (c *Client) OwnCompany(ctx context.Context) (sync.Company, error) {
	var company companyJSON
	if err := c.get(ctx, "/Companies", &company); err != nil {
		return sync.Company{}, err
	}
	return sync.Company{ID: company.ID, Name: company.Name}, nil
}

// Company returns the company with the given ID.
func (c *Client) Company(ctx context.Context, id int64) (sync.Company, error) {
	var company companyJSON
	if err := c.get(ctx, fmt.Sprintf("/Companies/%d", id), &company); err != nil {
		return sync.Company{}, err
	}
	return sync.Company{ID: company.ID, Name: company.Name}, nil
}

// Users returns the full user list for a company.
func (c *Client) Users(ctx context.Context, companyID int64) ([]sync.User, error) {
	var list []userJSON
	if err := c.get(ctx, fmt.Sprintf("/Users?companyId=%d", companyID), &list); err != nil {
		return nil, err
	}

	users := make([]sync.User, 0, len(list))
	for _, u := range list {
		users = append(users, sync.User{
			Login:     u.Username,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			CompanyID: companyID,
			IsAdmin:   hasRole(u.GlobalRoles, "Admin"),
		})
	}
	return users, nil
}

// MetricSettings returns a company's telemetry settings. A company
// without telemetry yields errors.ErrNotFound via the 404 mapping.
func (c *Client) MetricSettings(ctx context.Context, companyID int64) (sync.MetricSettings, error) {
	var settings metricSettingsJSON
	if err := c.get(ctx, fmt.Sprintf("/Companies/%d/metricSettings", companyID), &settings); err != nil {
		return sync.MetricSettings{}, err
	}
	return sync.MetricSettings{
		DatabaseURL:   settings.DatabaseURL,
		DatabaseToken: settings.DatabaseToken,
	}, nil
}

// MetricDashboards lists the provider dashboards for a company.
func (c *Client) MetricDashboards(ctx context.Context, companyID int64) ([]sync.MetricDashboard, error) {
	var list []metricDashboardJSON
	if err := c.get(ctx, fmt.Sprintf("/MetricDashboards?companyId=%d", companyID), &list); err != nil {
		return nil, err
	}

	dashboards := make([]sync.MetricDashboard, 0, len(list))
	for _, d := range list {
		dashboards = append(dashboards, sync.MetricDashboard{Name: d.Name, Key: d.Key})
	}
	return dashboards, nil
}

// get performs a GET request and decodes the JSON response into target.
func (c *Client) get(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &errors.APIError{System: "provider", Endpoint: path, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &errors.APIError{System: "provider", Endpoint: path, Message: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.NewAPIError("provider", resp.StatusCode, path, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", path, err)
	}
	return nil
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

type companyJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type userJSON struct {
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	GlobalRoles []string `json:"globalRoles"`
}

type metricSettingsJSON struct {
	DatabaseURL   string `json:"databaseUrl"`
	DatabaseToken string `json:"databaseToken"`
}

type metricDashboardJSON struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}
