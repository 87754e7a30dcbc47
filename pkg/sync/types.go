// Package sync implements the reconciliation engine that brings Grafana
// organization state into agreement with provider company state. One run
// resolves companies to organizations, creates missing user accounts,
// reconciles role memberships, and provisions each organization's data
// source and home dashboard.
package sync

// Well-known resource names. The API key is rotated every run; the data
// source is created once and never updated.
const (
	// TokenName is the name of the per-organization API key minted for
	// org-scoped provisioning calls. At most one key with this name is
	// live at a time.
	TokenName = "mluviisync"

	// DatasourceName is the name of the per-organization metrics data source.
	DatasourceName = "InfluxDB"

	// homeDashboardUIDFormat derives the home dashboard UID from the
	// provider company ID.
	homeDashboardUIDFormat = "mluviihome%d"
)

// Role is a Grafana organization role.
type Role string

// Organization roles used by the reconciler.
const (
	RoleAdmin  Role = "Admin"
	RoleEditor Role = "Editor"
)

// Company is a provider company record.
type Company struct {
	ID   int64
	Name string
}

// Binding is the correspondence between one provider company and one
// Grafana organization. It is derived fresh every run and never persisted.
// OrgID is zero only during a dry run when the organization does not
// exist yet.
type Binding struct {
	Name      string
	CompanyID int64
	OrgID     int64
}

// User is a provider user record. Login is the cross-system key.
type User struct {
	Login     string
	Email     string
	FirstName string
	LastName  string
	CompanyID int64
	IsAdmin   bool
}

// DisplayName returns the Grafana account name for the user.
func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// Org is a Grafana organization.
type Org struct {
	ID   int64
	Name string
}

// OrgUser is a Grafana organization membership entry.
type OrgUser struct {
	UserID int64
	Login  string
	Role   Role
}

// NewUser describes a Grafana account to create.
type NewUser struct {
	Login    string
	Email    string
	Name     string
	Password string
	OrgID    int64
}

// MetricSettings holds a company's telemetry database coordinates.
type MetricSettings struct {
	DatabaseURL   string
	DatabaseToken string
}

// MetricDashboard is a provider-reported dashboard available to a company.
type MetricDashboard struct {
	Name string
	Key  string
}

// APIKey is a Grafana API key listing entry.
type APIKey struct {
	ID   int64
	Name string
}

// Datasource describes a Grafana data source.
type Datasource struct {
	Name           string
	Type           string
	TypeName       string
	TypeLogoURL    string
	Access         string
	URL            string
	User           string
	Password       string
	Database       string
	BasicAuth      bool
	IsDefault      bool
	ReadOnly       bool
	JSONData       map[string]any
	SecureJSONData map[string]string
}
