// Package sync implements the sync command, which runs one reconciliation
// pass against the provider API and the Grafana instance.
package sync

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/agentstation/grafsync/internal/appcontext"
	"github.com/agentstation/grafsync/internal/dashboard"
	"github.com/agentstation/grafsync/internal/grafana"
	"github.com/agentstation/grafsync/internal/provider"
	"github.com/agentstation/grafsync/pkg/logging"
	engine "github.com/agentstation/grafsync/pkg/sync"
)

// Flags holds the sync command flags.
type Flags struct {
	Companies []int64
	DryRun    bool
}

// NewCommand creates the sync command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile companies and users into Grafana organizations",
		Long: `Sync runs one reconciliation pass. For each selected provider company
it ensures a matching Grafana organization exists, creates missing user
accounts, aligns every organization's membership roles with the
provider, and provisions the organization's telemetry data source and
home dashboard.

Without --companies the company bound to the provider credential is
synced. With --companies the listed company IDs are synced instead,
which requires a credential that can read other companies.`,
		Example: `  grafsync sync                      # sync the credential's own company
  grafsync sync --companies 7,12,13  # sync an explicit set of companies
  grafsync sync --dry-run            # report deltas without changing anything`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, app, flags)
		},
	}

	cmd.Flags().Int64SliceVar(&flags.Companies, "companies", nil, "provider company IDs to sync (default: the credential's own company)")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "report what would change without making modifications")

	return cmd
}

func runSync(cmd *cobra.Command, app appcontext.Interface, flags *Flags) error {
	settings := app.Settings()
	if err := settings.Validate(); err != nil {
		return err
	}

	// Tag every log line of this run with a run ID.
	ctx := logging.WithLogger(cmd.Context(), app.Logger())
	ctx = logging.WithRunID(ctx, uuid.NewString())

	template, err := dashboard.Load(settings.DashboardFile)
	if err != nil {
		return err
	}

	providerClient := provider.New(ctx, provider.Config{
		Domain:       settings.Domain,
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
	})
	grafanaClient := grafana.New(settings.GrafanaURL, settings.GrafanaUser, settings.GrafanaPass)

	opts := []engine.Option{
		engine.WithOperatorLogin(settings.GrafanaUser),
	}
	if len(flags.Companies) > 0 {
		opts = append(opts, engine.WithCompanies(flags.Companies))
	}
	if flags.DryRun {
		opts = append(opts, engine.WithDryRun(true))
	}

	syncer := engine.New(providerClient, grafanaClient, template, opts...)
	result, err := syncer.Run(ctx)
	if err != nil {
		return err
	}

	printResult(cmd, result)
	return nil
}

// printResult writes a human-readable run summary to the command output.
func printResult(cmd *cobra.Command, result *engine.Result) {
	if result.DryRun {
		cmd.Printf("Dry run - no changes were made\n\n")
	}

	if !result.HasChanges() {
		cmd.Printf("All organizations are up to date - no changes needed\n")
		return
	}

	for _, binding := range result.OrgsCreated {
		cmd.Printf("organization %s created for company %d\n", binding.Name, binding.CompanyID)
	}
	for _, user := range result.UsersCreated {
		cmd.Printf("user %s created in organization %d\n", user.Login, user.OrgID)
	}
	for _, change := range result.RolesAdded {
		cmd.Printf("user %s added to organization %d as %s\n", change.Login, change.OrgID, change.Role)
	}
	for _, change := range result.RolesUpdated {
		cmd.Printf("user %s set to %s in organization %d\n", change.Login, change.Role, change.OrgID)
	}
	for _, change := range result.RolesRemoved {
		cmd.Printf("user %s removed from organization %d\n", change.Login, change.OrgID)
	}
	for _, orgID := range result.DatasourcesCreated {
		cmd.Printf("data source created in organization %d\n", orgID)
	}
	for _, orgID := range result.DashboardsWritten {
		cmd.Printf("home dashboard written in organization %d\n", orgID)
	}

	s := result.Summary()
	cmd.Printf("\n%d changes: %d orgs, %d users, %d roles added, %d roles updated, %d roles removed, %d data sources, %d dashboards\n",
		s.TotalChanges, s.OrgsCreated, s.UsersCreated, s.RolesAdded, s.RolesUpdated, s.RolesRemoved, s.DatasourcesCreated, s.DashboardsWritten)
}
