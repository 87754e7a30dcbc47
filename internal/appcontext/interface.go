// Package appcontext provides the shared application context interface
// used by all commands. This eliminates interface duplication across
// command packages and provides a single source of truth for app dependencies.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/grafsync/pkg/errors"
)

// Interface defines the application context interface that commands need.
// The App struct from cmd/grafsync/app automatically implements this
// interface, providing dependency injection for commands while maintaining
// testability.
//
// Commands should accept this interface rather than the concrete App type,
// allowing for easier testing with mock implementations.
type Interface interface {
	// Settings returns the resolved environment configuration.
	Settings() *Settings

	// Logger returns the configured logger instance.
	// Commands should use this for all logging operations.
	Logger() *zerolog.Logger

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}

// Settings holds the environment configuration shared by all commands.
// The provider credentials identify the OAuth2 client; the Grafana
// credentials belong to the operator account that performs every
// administrative call.
type Settings struct {
	Domain        string // provider domain, e.g. app.mluvii.com
	ClientID      string
	ClientSecret  string
	GrafanaURL    string
	GrafanaUser   string
	GrafanaPass   string
	DashboardFile string // home dashboard template path
}

// Validate checks that every required key is set.
func (s *Settings) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"MLUVII_DOMAIN", s.Domain},
		{"MLUVII_CLIENT_ID", s.ClientID},
		{"MLUVII_CLIENT_SECRET", s.ClientSecret},
		{"GRAFANA_URL", s.GrafanaURL},
		{"GRAFANA_USER", s.GrafanaUser},
		{"GRAFANA_PASS", s.GrafanaPass},
		{"HOME_DASHBOARD_FILE", s.DashboardFile},
	}
	for _, r := range required {
		if r.value == "" {
			return errors.NewConfigError(r.key, "required value is not set", nil)
		}
	}
	return nil
}
