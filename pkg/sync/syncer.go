package sync

import (
	"context"

	"github.com/agentstation/grafsync/pkg/logging"
)

// Syncer drives one reconciliation run. Execution is strictly sequential:
// no parallelism across organizations or users, every external call is
// synchronous, and the only shared state is the aggregate user map, which
// is written during phase 1 and only read during phase 2.
type Syncer struct {
	provider ProviderAPI
	grafana  GrafanaAPI
	template DashboardTemplate
	opts     *Options
}

// New creates a Syncer over the two API clients and the home dashboard
// template.
func New(provider ProviderAPI, grafana GrafanaAPI, template DashboardTemplate, opts ...Option) *Syncer {
	return &Syncer{
		provider: provider,
		grafana:  grafana,
		template: template,
		opts:     newOptions(opts...),
	}
}

// Run performs one reconciliation run in two phases. Phase 1 resolves
// company/organization bindings, then per organization creates missing
// accounts and provisions the data source and home dashboard, merging
// each organization's users into a running aggregate. Phase 2 reconciles
// role memberships per organization against the aggregate, which is only
// complete once phase 1 has visited every organization (a user's
// cross-organization visibility depends on the global admin flag carried
// in whichever record won the aggregate merge).
//
// Any error aborts the run; re-running after a partial failure is safe
// because all state is re-read before mutating.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	result := &Result{DryRun: s.opts.DryRun}

	bindings, err := s.resolveOrgs(ctx, result)
	if err != nil {
		return nil, err
	}

	// Aggregate user map across all organizations, keyed by login.
	// Bindings are sorted by company ID, so the last-write-wins merge
	// is deterministic run to run.
	all := make(map[string]User)

	for _, binding := range bindings {
		orgCtx := logging.WithOrg(logging.WithCompany(ctx, binding.CompanyID), binding.OrgID)

		users, err := s.provider.Users(orgCtx, binding.CompanyID)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			all[u.Login] = u
		}

		if err := s.syncUsers(orgCtx, binding, users, result); err != nil {
			return nil, err
		}
		if err := s.provision(orgCtx, binding, result); err != nil {
			return nil, err
		}
	}

	for _, binding := range bindings {
		orgCtx := logging.WithOrg(logging.WithCompany(ctx, binding.CompanyID), binding.OrgID)
		if err := s.syncRoles(orgCtx, binding, all, result); err != nil {
			return nil, err
		}
	}

	summary := result.Summary()
	logging.Ctx(ctx).Info().
		Bool("dry_run", result.DryRun).
		Int("orgs_created", summary.OrgsCreated).
		Int("users_created", summary.UsersCreated).
		Int("roles_added", summary.RolesAdded).
		Int("roles_updated", summary.RolesUpdated).
		Int("roles_removed", summary.RolesRemoved).
		Int("datasources_created", summary.DatasourcesCreated).
		Int("dashboards_written", summary.DashboardsWritten).
		Msg("Reconciliation run complete")

	return result, nil
}
