package sync

import (
	"context"
	"sort"

	"github.com/agentstation/grafsync/pkg/logging"
)

// eligible reports whether a user should hold membership in the binding's
// organization: their home company matches, or they carry the provider's
// global admin flag (cross-organization visibility for operators).
func eligible(user User, binding Binding) bool {
	return user.CompanyID == binding.CompanyID || user.IsAdmin
}

// syncRoles reconciles the organization's role memberships against the
// aggregate user map built across all organizations in phase 1. Eligible
// users hold Editor; the Grafana operator account always holds Admin and
// is never removed; everyone else is removed. "Left the provider" and
// "ineligible in this organization" are deliberately one removal rule.
func (s *Syncer) syncRoles(ctx context.Context, binding Binding, all map[string]User, result *Result) error {
	if binding.OrgID == 0 {
		// Dry run against an organization that does not exist yet:
		// every membership would be an add.
		s.planRoles(ctx, binding, all, result)
		return nil
	}

	members, err := s.grafana.OrgUsers(ctx, binding.OrgID)
	if err != nil {
		return err
	}
	existing := make(map[string]OrgUser, len(members))
	for _, m := range members {
		existing[m.Login] = m
	}

	if _, ok := existing[s.opts.OperatorLogin]; !ok {
		if err := s.addOrgUser(ctx, binding, s.opts.OperatorLogin, RoleAdmin, result); err != nil {
			return err
		}
	}

	for _, login := range sortedLogins(all) {
		user := all[login]
		if !eligible(user, binding) {
			continue
		}
		// The operator's Admin role was ensured above and must never be
		// lowered to Editor, even if the operator shows up as a
		// provider user.
		if login == s.opts.OperatorLogin {
			continue
		}

		member, ok := existing[login]
		switch {
		case ok && member.Role != RoleEditor:
			if err := s.updateOrgUserRole(ctx, binding, member, RoleEditor, result); err != nil {
				return err
			}
		case !ok:
			if err := s.addOrgUser(ctx, binding, login, RoleEditor, result); err != nil {
				return err
			}
		}
	}

	for _, login := range sortedMemberLogins(existing) {
		// Hard invariant: the operator account is never removed, no
		// matter what the computed rule says.
		if login == s.opts.OperatorLogin {
			continue
		}
		user, ok := all[login]
		if ok && eligible(user, binding) {
			continue
		}
		if err := s.removeOrgUser(ctx, binding, existing[login], result); err != nil {
			return err
		}
	}

	return nil
}

// planRoles records the memberships a new organization would receive.
// Only reachable under dry run.
func (s *Syncer) planRoles(ctx context.Context, binding Binding, all map[string]User, result *Result) {
	result.RolesAdded = append(result.RolesAdded, RoleChange{
		Login: s.opts.OperatorLogin,
		OrgID: binding.OrgID,
		Role:  RoleAdmin,
	})
	for _, login := range sortedLogins(all) {
		if login == s.opts.OperatorLogin || !eligible(all[login], binding) {
			continue
		}
		result.RolesAdded = append(result.RolesAdded, RoleChange{Login: login, OrgID: binding.OrgID, Role: RoleEditor})
		logging.Ctx(ctx).Info().Str("login", login).Str("role", string(RoleEditor)).Msg("Would add user to org")
	}
}

func (s *Syncer) addOrgUser(ctx context.Context, binding Binding, login string, role Role, result *Result) error {
	if !s.opts.DryRun {
		if err := s.grafana.AddOrgUser(ctx, binding.OrgID, login, role); err != nil {
			return err
		}
	}
	result.RolesAdded = append(result.RolesAdded, RoleChange{Login: login, OrgID: binding.OrgID, Role: role})
	logging.Ctx(ctx).Info().
		Str("login", login).
		Str("role", string(role)).
		Bool("dry_run", s.opts.DryRun).
		Msg("User added to org")
	return nil
}

func (s *Syncer) updateOrgUserRole(ctx context.Context, binding Binding, member OrgUser, role Role, result *Result) error {
	if !s.opts.DryRun {
		if err := s.grafana.UpdateOrgUserRole(ctx, binding.OrgID, member.UserID, role); err != nil {
			return err
		}
	}
	result.RolesUpdated = append(result.RolesUpdated, RoleChange{Login: member.Login, OrgID: binding.OrgID, Role: role})
	logging.Ctx(ctx).Info().
		Str("login", member.Login).
		Str("role", string(role)).
		Bool("dry_run", s.opts.DryRun).
		Msg("User role updated")
	return nil
}

func (s *Syncer) removeOrgUser(ctx context.Context, binding Binding, member OrgUser, result *Result) error {
	if !s.opts.DryRun {
		if err := s.grafana.RemoveOrgUser(ctx, binding.OrgID, member.UserID); err != nil {
			return err
		}
	}
	result.RolesRemoved = append(result.RolesRemoved, RoleChange{Login: member.Login, OrgID: binding.OrgID, Role: member.Role})
	logging.Ctx(ctx).Info().
		Str("login", member.Login).
		Bool("dry_run", s.opts.DryRun).
		Msg("User removed from org")
	return nil
}

// sortedLogins returns the aggregate map's keys in stable order.
func sortedLogins(all map[string]User) []string {
	logins := make([]string, 0, len(all))
	for login := range all {
		logins = append(logins, login)
	}
	sort.Strings(logins)
	return logins
}

// sortedMemberLogins returns the membership map's keys in stable order.
func sortedMemberLogins(existing map[string]OrgUser) []string {
	logins := make([]string, 0, len(existing))
	for login := range existing {
		logins = append(logins, login)
	}
	sort.Strings(logins)
	return logins
}
