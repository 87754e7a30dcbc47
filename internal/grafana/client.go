// Package grafana implements the Grafana HTTP API client used by the
// reconciliation engine. Admin-scoped calls authenticate with the
// operator's basic credentials; organization-scoped calls use a minted
// API token, which pins them to the organization the token was created
// in regardless of the admin session.
package grafana

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

	"github.com/agentstation/grafsync/pkg/errors"
	"github.com/agentstation/grafsync/pkg/sync"
)

// DefaultHTTPTimeout bounds every Grafana API request.
const DefaultHTTPTimeout = 30 * time.Second

// orgListPageSize is passed to the org listing; organizations beyond one
// page are not expected for a single Grafana instance.
const orgListPageSize = 1000

// Client is a Grafana API client. It implements sync.GrafanaAPI.
type Client struct {
	baseURL string
	user    string
	pass    string
	http    *http.Client
}

var _ sync.GrafanaAPI = (*Client)(nil)

// New creates a Grafana client for the instance at grafanaURL,
// authenticating admin calls with the given basic credentials.
func New(grafanaURL, user, pass string) *Client {
	return &Client{
		baseURL: strings.TrimRight(grafanaURL, "/") + "/api",
		user:    user,
		pass:    pass,
		http:    &http.Client{Timeout: DefaultHTTPTimeout},
	}
}

// Orgs lists all organizations.
func (c *Client) Orgs(ctx context.Context) ([]sync.Org, error) {
	var list []orgJSON
	path := fmt.Sprintf("/orgs?perpage=%d", orgListPageSize)
	if err := c.doJSON(ctx, http.MethodGet, path, "", nil, &list); err != nil {
		return nil, err
	}

	orgs := make([]sync.Org, 0, len(list))
	for _, org := range list {
		orgs = append(orgs, sync.Org{ID: org.ID, Name: org.Name})
	}
	return orgs, nil
}

// CreateOrg creates an organization and returns its ID. The endpoint
// takes a form-encoded body.
func (c *Client) CreateOrg(ctx context.Context, name string) (int64, error) {
	var created struct {
		OrgID int64 `json:"orgId"`
	}
	form := url.Values{"name": {name}}
	if err := c.doForm(ctx, "/orgs", form, &created); err != nil {
		return 0, err
	}
	return created.OrgID, nil
}

// OrgUsers lists an organization's members.
func (c *Client) OrgUsers(ctx context.Context, orgID int64) ([]sync.OrgUser, error) {
	var list []orgUserJSON
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/orgs/%d/users", orgID), "", nil, &list); err != nil {
		return nil, err
	}

	members := make([]sync.OrgUser, 0, len(list))
	for _, m := range list {
		members = append(members, sync.OrgUser{UserID: m.UserID, Login: m.Login, Role: sync.Role(m.Role)})
	}
	return members, nil
}

// AddOrgUser adds an existing account to an organization with a role.
func (c *Client) AddOrgUser(ctx context.Context, orgID int64, login string, role sync.Role) error {
	payload := map[string]any{"loginOrEmail": login, "role": role}
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/orgs/%d/users", orgID), "", payload, nil)
}

// UpdateOrgUserRole changes a member's role in an organization.
func (c *Client) UpdateOrgUserRole(ctx context.Context, orgID, userID int64, role sync.Role) error {
	payload := map[string]any{"role": role}
	return c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/orgs/%d/users/%d", orgID, userID), "", payload, nil)
}

// RemoveOrgUser removes a member from an organization.
func (c *Client) RemoveOrgUser(ctx context.Context, orgID, userID int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/orgs/%d/users/%d", orgID, userID), "", nil, nil)
}

// CreateUser creates a global account pre-assigned into an organization.
// A 412 (login taken) surfaces as errors.ErrAlreadyExists.
func (c *Client) CreateUser(ctx context.Context, user sync.NewUser) error {
	payload := map[string]any{
		"login":    user.Login,
		"email":    user.Email,
		"name":     user.Name,
		"password": user.Password,
		"orgId":    user.OrgID,
	}
	return c.doJSON(ctx, http.MethodPost, "/admin/users", "", payload, nil)
}

// SwitchOrg moves the admin session into an organization.
func (c *Client) SwitchOrg(ctx context.Context, orgID int64) error {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/user/using/%d", orgID), "", nil, nil)
}

// APIKeys lists the API keys visible to the admin session.
func (c *Client) APIKeys(ctx context.Context) ([]sync.APIKey, error) {
	var list []apiKeyJSON
	if err := c.doJSON(ctx, http.MethodGet, "/auth/keys", "", nil, &list); err != nil {
		return nil, err
	}

	keys := make([]sync.APIKey, 0, len(list))
	for _, k := range list {
		keys = append(keys, sync.APIKey{ID: k.ID, Name: k.Name})
	}
	return keys, nil
}

// DeleteAPIKey deletes an API key by ID.
func (c *Client) DeleteAPIKey(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/auth/keys/%d", id), "", nil, nil)
}

// CreateAPIKey mints an API key in the session's current organization
// and returns its secret.
func (c *Client) CreateAPIKey(ctx context.Context, name string, role sync.Role) (string, error) {
	var created struct {
		Key string `json:"key"`
	}
	payload := map[string]any{"name": name, "role": role}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/keys", "", payload, &created); err != nil {
		return "", err
	}
	return created.Key, nil
}

// CurrentOrg resolves the organization a token is scoped to.
func (c *Client) CurrentOrg(ctx context.Context, token string) (int64, error) {
	var org struct {
		ID int64 `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/org", token, nil, &org); err != nil {
		return 0, err
	}
	return org.ID, nil
}

// Datasources lists the data sources of the token's organization.
func (c *Client) Datasources(ctx context.Context, token string) ([]sync.Datasource, error) {
	var list []struct {
		Name string `json:"name"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/datasources", token, nil, &list); err != nil {
		return nil, err
	}

	datasources := make([]sync.Datasource, 0, len(list))
	for _, ds := range list {
		datasources = append(datasources, sync.Datasource{Name: ds.Name})
	}
	return datasources, nil
}

// CreateDatasource creates a data source in the token's organization and
// returns the organization ID it actually landed in. A 409 (name taken)
// surfaces as errors.ErrAlreadyExists.
func (c *Client) CreateDatasource(ctx context.Context, token string, ds sync.Datasource) (int64, error) {
	var created struct {
		Datasource struct {
			OrgID int64 `json:"orgId"`
		} `json:"datasource"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/datasources", token, datasourcePayload(ds), &created); err != nil {
		return 0, err
	}
	return created.Datasource.OrgID, nil
}

// UpsertDashboard creates or overwrites a dashboard in the token's
// organization and returns its numeric ID.
func (c *Client) UpsertDashboard(ctx context.Context, token string, dashboard map[string]any) (int64, error) {
	var saved struct {
		ID int64 `json:"id"`
	}
	payload := map[string]any{"dashboard": dashboard, "overwrite": true}
	if err := c.doJSON(ctx, http.MethodPost, "/dashboards/db", token, payload, &saved); err != nil {
		return 0, err
	}
	return saved.ID, nil
}

// SetHomeDashboard makes a dashboard the home dashboard of the token's
// organization.
func (c *Client) SetHomeDashboard(ctx context.Context, token string, dashboardID int64) error {
	payload := map[string]any{"homeDashboardId": dashboardID}
	return c.doJSON(ctx, http.MethodPut, "/org/preferences", token, payload, nil)
}

// doJSON performs a request with an optional JSON payload and decodes
// the JSON response into target when target is non-nil. An empty token
// selects admin basic auth.
func (c *Client) doJSON(ctx context.Context, method, path, token string, payload, target any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.WrapParse("json", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &errors.APIError{System: "grafana", Endpoint: path, Message: "failed to build request", Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, path, token, target)
}

// doForm performs a POST with a form-encoded body under admin auth.
func (c *Client) doForm(ctx context.Context, path string, form url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return &errors.APIError{System: "grafana", Endpoint: path, Message: "failed to build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.send(req, path, "", target)
}

func (c *Client) send(req *http.Request, path, token string, target any) error {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.SetBasicAuth(c.user, c.pass)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &errors.APIError{System: "grafana", Endpoint: path, Message: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewAPIError("grafana", resp.StatusCode, path, strings.TrimSpace(string(body)))
	}
	if target != nil {
		if err := json.Unmarshal(body, target); err != nil {
			return errors.WrapParse("json", path, err)
		}
	}
	return nil
}

// datasourcePayload maps the engine's data-source description onto the
// Grafana wire format.
func datasourcePayload(ds sync.Datasource) map[string]any {
	return map[string]any{
		"name":           ds.Name,
		"type":           ds.Type,
		"typeName":       ds.TypeName,
		"typeLogoUrl":    ds.TypeLogoURL,
		"access":         ds.Access,
		"url":            ds.URL,
		"password":       ds.Password,
		"user":           ds.User,
		"database":       ds.Database,
		"basicAuth":      ds.BasicAuth,
		"isDefault":      ds.IsDefault,
		"jsonData":       ds.JSONData,
		"secureJsonData": ds.SecureJSONData,
		"readOnly":       ds.ReadOnly,
	}
}

type orgJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type orgUserJSON struct {
	UserID int64  `json:"userId"`
	Login  string `json:"login"`
	Role   string `json:"role"`
}

type apiKeyJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
