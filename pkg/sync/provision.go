package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentstation/grafsync/pkg/errors"
	"github.com/agentstation/grafsync/pkg/logging"
)

// provision refreshes one organization's data source and home dashboard,
// operating through a freshly minted org-scoped API token. Under dry run
// the whole step is skipped: minting a token and switching the session
// org are themselves mutations.
func (s *Syncer) provision(ctx context.Context, binding Binding, result *Result) error {
	if s.opts.DryRun {
		logging.Ctx(ctx).Info().Msg("Dry run: skipping token rotation and resource provisioning")
		return nil
	}

	// The minted key inherits the admin session's current org, so the
	// switch must happen first.
	if err := s.grafana.SwitchOrg(ctx, binding.OrgID); err != nil {
		return err
	}

	token, err := s.rotateToken(ctx)
	if err != nil {
		return err
	}

	// Defends against an org-switch race or token-scoping bug before any
	// org-scoped mutation is attempted.
	orgID, err := s.grafana.CurrentOrg(ctx, token)
	if err != nil {
		return err
	}
	if orgID != binding.OrgID {
		return errors.NewIntegrityError("api token", orgID, binding.OrgID)
	}

	if err := s.syncDatasource(ctx, binding, token, result); err != nil {
		return err
	}
	return s.syncHomeDashboard(ctx, binding, token, result)
}

// rotateToken mints a new API key under the well-known name, deleting any
// existing key of that name first so at most one is live across runs.
func (s *Syncer) rotateToken(ctx context.Context) (string, error) {
	keys, err := s.grafana.APIKeys(ctx)
	if err != nil {
		return "", err
	}
	for _, key := range keys {
		if key.Name == TokenName {
			if err := s.grafana.DeleteAPIKey(ctx, key.ID); err != nil {
				return "", err
			}
			break
		}
	}
	return s.grafana.CreateAPIKey(ctx, TokenName, RoleAdmin)
}

// syncDatasource ensures the organization's metrics data source exists.
// Companies without telemetry configured are an expected branch, not an
// error. Data sources are never updated once created; URL or token
// rotation is not handled here.
func (s *Syncer) syncDatasource(ctx context.Context, binding Binding, token string, result *Result) error {
	settings, err := s.provider.MetricSettings(ctx, binding.CompanyID)
	if err != nil {
		if errors.IsNotFound(err) {
			logging.Ctx(ctx).Debug().Msg("No metric settings for company, skipping data source")
			return nil
		}
		return err
	}

	datasources, err := s.grafana.Datasources(ctx, token)
	if err != nil {
		return err
	}
	for _, ds := range datasources {
		if ds.Name == DatasourceName {
			return nil
		}
	}

	orgID, err := s.grafana.CreateDatasource(ctx, token, influxDatasource(binding, settings))
	if err != nil {
		if errors.IsAlreadyExists(err) {
			return nil
		}
		return err
	}
	if orgID != binding.OrgID {
		return errors.NewIntegrityError("datasource", orgID, binding.OrgID)
	}

	result.DatasourcesCreated = append(result.DatasourcesCreated, binding.OrgID)
	logging.Ctx(ctx).Info().Str("datasource", DatasourceName).Msg("Data source created")
	return nil
}

// influxDatasource builds the data-source payload for a company's
// telemetry database.
func influxDatasource(binding Binding, settings MetricSettings) Datasource {
	return Datasource{
		Name:        DatasourceName,
		Type:        "influxdb",
		TypeName:    "InfluxDB",
		TypeLogoURL: "public/app/plugins/datasource/influxdb/img/influxdb_logo.svg",
		Access:      "proxy",
		URL:         settings.DatabaseURL,
		BasicAuth:   true,
		IsDefault:   true,
		ReadOnly:    true,
		JSONData: map[string]any{
			"defaultBucket": "mluvii_realtime",
			"httpMode":      "POST",
			"organization":  fmt.Sprintf("company_%d", binding.CompanyID),
			"version":       "Flux",
		},
		SecureJSONData: map[string]string{
			"token": settings.DatabaseToken,
		},
	}
}

// syncHomeDashboard renders the home dashboard for the organization,
// upserts it, and sets it as the organization's home dashboard.
func (s *Syncer) syncHomeDashboard(ctx context.Context, binding Binding, token string, result *Result) error {
	links, err := s.dashboardLinks(ctx, binding)
	if err != nil {
		return err
	}

	uid := fmt.Sprintf(homeDashboardUIDFormat, binding.CompanyID)
	document := s.template.Render(uid, binding.Name, links)

	dashboardID, err := s.grafana.UpsertDashboard(ctx, token, document)
	if err != nil {
		return err
	}
	if err := s.grafana.SetHomeDashboard(ctx, token, dashboardID); err != nil {
		return err
	}

	result.DashboardsWritten = append(result.DashboardsWritten, binding.OrgID)
	logging.Ctx(ctx).Info().Str("uid", uid).Int64("dashboard_id", dashboardID).Msg("Home dashboard written")
	return nil
}

// dashboardLinks generates the HTML for the dashboard-list panel: one
// link per provider-reported dashboard, each embedding the dashboard's
// provider key and the organization ID.
func (s *Syncer) dashboardLinks(ctx context.Context, binding Binding) (string, error) {
	dashboards, err := s.provider.MetricDashboards(ctx, binding.CompanyID)
	if err != nil {
		return "", err
	}

	var html strings.Builder
	html.WriteString("<ul>\n")
	for _, d := range dashboards {
		fmt.Fprintf(&html, "\n<li style=\"display:flex; background: rgb(34, 37, 43); padding: 7px; margin: 3px;\">\n"+
			"<a style=\"display:flex; width: 100%%;\" href=\"/dashboard/script/mluvii.js?key=%s&orgId=%d\">%s</a>\n</li>\n",
			d.Key, binding.OrgID, d.Name)
	}
	html.WriteString("</ul>")
	return html.String(), nil
}
