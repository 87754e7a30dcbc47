package sync

import "context"

// ProviderAPI is the read-only slice of the provider REST API the engine
// consumes. Implemented by internal/provider; faked in tests.
type ProviderAPI interface {
	// OwnCompany returns the company bound to the calling credential.
	OwnCompany(ctx context.Context) (Company, error)

	// Company returns the company with the given ID.
	Company(ctx context.Context, id int64) (Company, error)

	// Users returns the full user list for a company.
	Users(ctx context.Context, companyID int64) ([]User, error)

	// MetricSettings returns a company's telemetry settings.
	// Returns errors.ErrNotFound when the company has no telemetry
	// configured; callers treat that as an expected branch.
	MetricSettings(ctx context.Context, companyID int64) (MetricSettings, error)

	// MetricDashboards lists the provider dashboards for a company.
	MetricDashboards(ctx context.Context, companyID int64) ([]MetricDashboard, error)
}

// GrafanaAPI is the slice of the Grafana HTTP API the engine consumes.
// Admin-session calls authenticate with the operator's basic credentials;
// calls taking a token are scoped to the organization the token was
// minted in. Implemented by internal/grafana; faked in tests.
type GrafanaAPI interface {
	Orgs(ctx context.Context) ([]Org, error)
	CreateOrg(ctx context.Context, name string) (int64, error)

	OrgUsers(ctx context.Context, orgID int64) ([]OrgUser, error)
	AddOrgUser(ctx context.Context, orgID int64, login string, role Role) error
	UpdateOrgUserRole(ctx context.Context, orgID, userID int64, role Role) error
	RemoveOrgUser(ctx context.Context, orgID, userID int64) error

	// CreateUser creates a global account pre-assigned into an org.
	// Returns errors.ErrAlreadyExists when the login is taken; callers
	// treat that as success.
	CreateUser(ctx context.Context, user NewUser) error

	// SwitchOrg moves the admin session into the given organization.
	// Required before minting an API key, which inherits the session org.
	SwitchOrg(ctx context.Context, orgID int64) error

	APIKeys(ctx context.Context) ([]APIKey, error)
	DeleteAPIKey(ctx context.Context, id int64) error
	CreateAPIKey(ctx context.Context, name string, role Role) (string, error)

	// CurrentOrg resolves the organization a token is scoped to.
	CurrentOrg(ctx context.Context, token string) (int64, error)

	Datasources(ctx context.Context, token string) ([]Datasource, error)

	// CreateDatasource returns the org ID the data source landed in, for
	// the post-create integrity check. Returns errors.ErrAlreadyExists
	// on a name conflict; callers treat that as success.
	CreateDatasource(ctx context.Context, token string, ds Datasource) (int64, error)

	UpsertDashboard(ctx context.Context, token string, dashboard map[string]any) (int64, error)
	SetHomeDashboard(ctx context.Context, token string, dashboardID int64) error
}

// DashboardTemplate renders the home dashboard document for one
// organization. Implemented by internal/dashboard.
type DashboardTemplate interface {
	// Render returns a copy of the template with the given UID and title,
	// and with every dashboard-list panel's content replaced by listHTML.
	Render(uid, title, listHTML string) map[string]any
}
