package sync

import (
	"context"
	"sort"

	"github.com/agentstation/grafsync/pkg/errors"
	"github.com/agentstation/grafsync/pkg/logging"
)

// syncUsers creates a Grafana account for every provider user of the
// binding's company that has no account in the organization yet. Existing
// accounts are never mutated here; role membership is reconciled
// separately once the aggregate user map is complete.
func (s *Syncer) syncUsers(ctx context.Context, binding Binding, users []User, result *Result) error {
	var existing map[string]OrgUser

	if binding.OrgID != 0 {
		members, err := s.grafana.OrgUsers(ctx, binding.OrgID)
		if err != nil {
			return err
		}
		existing = make(map[string]OrgUser, len(members))
		for _, m := range members {
			existing[m.Login] = m
		}
	}

	for _, user := range sortedByLogin(users) {
		if user.CompanyID != binding.CompanyID {
			continue
		}
		if _, ok := existing[user.Login]; ok {
			continue
		}

		if s.opts.DryRun {
			result.UsersCreated = append(result.UsersCreated, UserCreate{Login: user.Login, OrgID: binding.OrgID})
			logging.Ctx(ctx).Info().Str("login", user.Login).Msg("Would create user")
			continue
		}

		password, err := randomPassword()
		if err != nil {
			return err
		}
		err = s.grafana.CreateUser(ctx, NewUser{
			Login:    user.Login,
			Email:    user.Email,
			Name:     user.DisplayName(),
			Password: password,
			OrgID:    binding.OrgID,
		})
		if err != nil {
			// The account already existing globally is success: the run
			// is idempotent against accounts created by earlier runs or
			// other organizations.
			if !errors.IsAlreadyExists(err) {
				return err
			}
			logging.Ctx(ctx).Debug().Str("login", user.Login).Msg("User already exists")
			continue
		}

		result.UsersCreated = append(result.UsersCreated, UserCreate{Login: user.Login, OrgID: binding.OrgID})
		logging.Ctx(ctx).Info().Str("login", user.Login).Msg("User created")
	}

	return nil
}

// sortedByLogin returns the users ordered by login so create calls are
// issued in a stable order.
func sortedByLogin(users []User) []User {
	sorted := make([]User, len(users))
	copy(sorted, users)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Login < sorted[j].Login
	})
	return sorted
}
