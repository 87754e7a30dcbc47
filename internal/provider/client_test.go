package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/grafsync/pkg/errors"
)

// testClient points a Client at an httptest server, bypassing the OAuth2
// transport; auth header injection is the token source's concern, not
// ours to re-test.
func testClient(srv *httptest.Server) *Client {
	return &Client{baseURL: srv.URL, http: srv.Client()}
}

func TestOwnCompany(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Companies", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`{"id": 7, "name": "Acme"}`))
	}))
	defer srv.Close()

	company, err := testClient(srv).OwnCompany(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), company.ID)
	assert.Equal(t, "Acme", company.Name)
}

func TestCompanyByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Companies/9", r.URL.Path)
		w.Write([]byte(`{"id": 9, "name": "Globex"}`))
	}))
	defer srv.Close()

	company, err := testClient(srv).Company(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "Globex", company.Name)
}

func TestUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Users", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("companyId"))
		w.Write([]byte(`[
			{"username": "alice", "email": "alice@acme.test", "firstName": "Alice", "lastName": "Ames", "globalRoles": ["Admin"]},
			{"username": "bob", "email": "bob@acme.test", "firstName": "Bob", "lastName": "Berg", "globalRoles": []}
		]`))
	}))
	defer srv.Close()

	users, err := testClient(srv).Users(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, "alice", users[0].Login)
	assert.Equal(t, "Alice Ames", users[0].DisplayName())
	assert.Equal(t, int64(7), users[0].CompanyID)
	assert.True(t, users[0].IsAdmin)
	assert.False(t, users[1].IsAdmin)
}

func TestMetricSettings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Companies/7/metricSettings", r.URL.Path)
		w.Write([]byte(`{"databaseUrl": "https://influx.acme.test", "databaseToken": "tok"}`))
	}))
	defer srv.Close()

	settings, err := testClient(srv).MetricSettings(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "https://influx.acme.test", settings.DatabaseURL)
	assert.Equal(t, "tok", settings.DatabaseToken)
}

func TestMetricSettingsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no metric settings", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv).MetricSettings(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestMetricDashboards(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/MetricDashboards", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("companyId"))
		w.Write([]byte(`[{"name": "Traffic", "key": "traffic"}]`))
	}))
	defer srv.Close()

	dashboards, err := testClient(srv).MetricDashboards(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, dashboards, 1)
	assert.Equal(t, "Traffic", dashboards[0].Name)
	assert.Equal(t, "traffic", dashboards[0].Key)
}

func TestServerErrorSurfacesAsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv).OwnCompany(context.Background())
	require.Error(t, err)

	var apiErr *errors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.StatusCode)
	assert.Equal(t, "provider", apiErr.System)
	assert.Contains(t, apiErr.Message, "boom")
}

func TestMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"id": `))
	}))
	defer srv.Close()

	_, err := testClient(srv).OwnCompany(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}
