package sync

import (
	"context"
	"sort"

	"github.com/agentstation/grafsync/pkg/logging"
)

// resolveOrgs maps the target provider companies to Grafana organizations,
// creating organizations that do not exist yet. Lookup is by exact,
// case-sensitive name match. Returned bindings are sorted by company ID.
func (s *Syncer) resolveOrgs(ctx context.Context, result *Result) ([]Binding, error) {
	orgs, err := s.grafana.Orgs(ctx)
	if err != nil {
		return nil, err
	}
	existing := make(map[string]int64, len(orgs))
	for _, org := range orgs {
		existing[org.Name] = org.ID
	}

	companies, err := s.companies(ctx)
	if err != nil {
		return nil, err
	}

	bindings := make([]Binding, 0, len(companies))
	for _, company := range companies {
		binding := Binding{Name: company.Name, CompanyID: company.ID}

		if orgID, ok := existing[company.Name]; ok {
			binding.OrgID = orgID
			result.OrgsMatched++
		} else if s.opts.DryRun {
			// Org stays unresolved (OrgID zero); downstream steps
			// report everything for it as pending creation.
			result.OrgsCreated = append(result.OrgsCreated, binding)
			logging.Ctx(ctx).Info().
				Str("org", company.Name).
				Int64("company_id", company.ID).
				Msg("Would create organization")
		} else {
			orgID, err := s.grafana.CreateOrg(ctx, company.Name)
			if err != nil {
				return nil, err
			}
			binding.OrgID = orgID
			result.OrgsCreated = append(result.OrgsCreated, binding)
			logging.Ctx(ctx).Info().
				Str("org", company.Name).
				Int64("company_id", company.ID).
				Int64("org_id", orgID).
				Msg("Organization created")
		}

		bindings = append(bindings, binding)
	}

	sort.Slice(bindings, func(i, j int) bool {
		return bindings[i].CompanyID < bindings[j].CompanyID
	})
	return bindings, nil
}

// companies fetches the target companies. With an explicit ID list each
// company is looked up individually; without one, the single company
// bound to the provider credential is resolved. These are distinct modes,
// not one a special case of the other.
func (s *Syncer) companies(ctx context.Context) ([]Company, error) {
	if len(s.opts.Companies) == 0 {
		company, err := s.provider.OwnCompany(ctx)
		if err != nil {
			return nil, err
		}
		return []Company{company}, nil
	}

	companies := make([]Company, 0, len(s.opts.Companies))
	for _, id := range s.opts.Companies {
		company, err := s.provider.Company(ctx, id)
		if err != nil {
			return nil, err
		}
		// The binding keys on the requested ID, not the one echoed back.
		company.ID = id
		companies = append(companies, company)
	}
	return companies, nil
}
