package sync

// UserCreate records one Grafana account created (or, under dry run,
// scheduled for creation) for an organization.
type UserCreate struct {
	Login string
	OrgID int64
}

// RoleChange records one role membership delta. For removals, Role is
// the role the member held before removal.
type RoleChange struct {
	Login string
	OrgID int64
	Role  Role
}

// Result reports everything one reconciliation run changed, in the order
// changes were applied. Under dry run it reports what would change.
type Result struct {
	DryRun bool

	OrgsCreated  []Binding
	OrgsMatched  int
	UsersCreated []UserCreate

	RolesAdded   []RoleChange
	RolesUpdated []RoleChange
	RolesRemoved []RoleChange

	// DatasourcesCreated and DashboardsWritten hold org IDs.
	DatasourcesCreated []int64
	DashboardsWritten  []int64
}

// Summary provides per-category change counts for a run.
type Summary struct {
	OrgsCreated        int
	UsersCreated       int
	RolesAdded         int
	RolesUpdated       int
	RolesRemoved       int
	DatasourcesCreated int
	DashboardsWritten  int
	TotalChanges       int
}

// Summary computes the change counts for the result.
func (r *Result) Summary() Summary {
	s := Summary{
		OrgsCreated:        len(r.OrgsCreated),
		UsersCreated:       len(r.UsersCreated),
		RolesAdded:         len(r.RolesAdded),
		RolesUpdated:       len(r.RolesUpdated),
		RolesRemoved:       len(r.RolesRemoved),
		DatasourcesCreated: len(r.DatasourcesCreated),
		DashboardsWritten:  len(r.DashboardsWritten),
	}
	s.TotalChanges = s.OrgsCreated + s.UsersCreated + s.RolesAdded +
		s.RolesUpdated + s.RolesRemoved + s.DatasourcesCreated + s.DashboardsWritten
	return s
}

// HasChanges returns true if the run changed (or would change) anything.
func (r *Result) HasChanges() bool {
	return r.Summary().TotalChanges > 0
}
