package sync

import (
	"context"
	"fmt"

	"github.com/agentstation/grafsync/pkg/errors"
)

// fakeProvider is an in-memory ProviderAPI.
type fakeProvider struct {
	own        Company
	companies  map[int64]Company
	users      map[int64][]User
	settings   map[int64]MetricSettings
	dashboards map[int64][]MetricDashboard
}

func (f *fakeProvider) OwnCompany(_ context.Context) (Company, error) {
	return f.own, nil
}

func (f *fakeProvider) Company(_ context.Context, id int64) (Company, error) {
	company, ok := f.companies[id]
	if !ok {
		return Company{}, errors.NewAPIError("provider", 404, fmt.Sprintf("/Companies/%d", id), "no such company")
	}
	return company, nil
}

func (f *fakeProvider) Users(_ context.Context, companyID int64) ([]User, error) {
	return f.users[companyID], nil
}

func (f *fakeProvider) MetricSettings(_ context.Context, companyID int64) (MetricSettings, error) {
	settings, ok := f.settings[companyID]
	if !ok {
		return MetricSettings{}, errors.NewAPIError("provider", 404, fmt.Sprintf("/Companies/%d/metricSettings", companyID), "not found")
	}
	return settings, nil
}

func (f *fakeProvider) MetricDashboards(_ context.Context, companyID int64) ([]MetricDashboard, error) {
	return f.dashboards[companyID], nil
}

// fakeGrafana is a stateful in-memory GrafanaAPI. It records every
// mutating call by name so tests can assert what a run actually did.
type fakeGrafana struct {
	orgs        []Org
	nextOrgID   int64
	accounts    map[string]bool               // global accounts by login
	members     map[int64]map[string]OrgUser  // orgID -> login -> membership
	nextUserID  int64
	keys        []APIKey
	nextKeyID   int64
	datasources map[int64][]Datasource // orgID -> data sources
	sessionOrg  int64
	tokenOrg    map[string]int64
	nextToken   int

	// wrongTokenOrg makes minted tokens resolve to a bogus org,
	// simulating an org-switch race.
	wrongTokenOrg bool

	mutations []string
}

func newFakeGrafana() *fakeGrafana {
	return &fakeGrafana{
		nextOrgID:   1,
		accounts:    map[string]bool{},
		members:     map[int64]map[string]OrgUser{},
		nextUserID:  1,
		nextKeyID:   1,
		datasources: map[int64][]Datasource{},
		tokenOrg:    map[string]int64{},
	}
}

func (f *fakeGrafana) record(call string) {
	f.mutations = append(f.mutations, call)
}

func (f *fakeGrafana) count(call string) int {
	n := 0
	for _, c := range f.mutations {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeGrafana) addOrg(name string) int64 {
	id := f.nextOrgID
	f.nextOrgID++
	f.orgs = append(f.orgs, Org{ID: id, Name: name})
	f.members[id] = map[string]OrgUser{}
	return id
}

func (f *fakeGrafana) addMember(orgID int64, login string, role Role) {
	f.accounts[login] = true
	f.members[orgID][login] = OrgUser{UserID: f.nextUserID, Login: login, Role: role}
	f.nextUserID++
}

func (f *fakeGrafana) Orgs(_ context.Context) ([]Org, error) {
	return append([]Org(nil), f.orgs...), nil
}

func (f *fakeGrafana) CreateOrg(_ context.Context, name string) (int64, error) {
	f.record("CreateOrg")
	return f.addOrg(name), nil
}

func (f *fakeGrafana) OrgUsers(_ context.Context, orgID int64) ([]OrgUser, error) {
	var members []OrgUser
	for _, m := range f.members[orgID] {
		members = append(members, m)
	}
	return members, nil
}

func (f *fakeGrafana) AddOrgUser(_ context.Context, orgID int64, login string, role Role) error {
	f.record("AddOrgUser")
	f.addMember(orgID, login, role)
	return nil
}

func (f *fakeGrafana) UpdateOrgUserRole(_ context.Context, orgID, userID int64, role Role) error {
	f.record("UpdateOrgUserRole")
	for login, m := range f.members[orgID] {
		if m.UserID == userID {
			m.Role = role
			f.members[orgID][login] = m
		}
	}
	return nil
}

func (f *fakeGrafana) RemoveOrgUser(_ context.Context, orgID, userID int64) error {
	f.record("RemoveOrgUser")
	for login, m := range f.members[orgID] {
		if m.UserID == userID {
			delete(f.members[orgID], login)
		}
	}
	return nil
}

func (f *fakeGrafana) CreateUser(_ context.Context, user NewUser) error {
	f.record("CreateUser")
	if f.accounts[user.Login] {
		return errors.NewAPIError("grafana", 412, "/api/admin/users", "user already exists")
	}
	f.addMember(user.OrgID, user.Login, RoleEditor)
	return nil
}

func (f *fakeGrafana) SwitchOrg(_ context.Context, orgID int64) error {
	f.record("SwitchOrg")
	f.sessionOrg = orgID
	return nil
}

func (f *fakeGrafana) APIKeys(_ context.Context) ([]APIKey, error) {
	return append([]APIKey(nil), f.keys...), nil
}

func (f *fakeGrafana) DeleteAPIKey(_ context.Context, id int64) error {
	f.record("DeleteAPIKey")
	keys := f.keys[:0]
	for _, k := range f.keys {
		if k.ID != id {
			keys = append(keys, k)
		}
	}
	f.keys = keys
	return nil
}

func (f *fakeGrafana) CreateAPIKey(_ context.Context, name string, _ Role) (string, error) {
	f.record("CreateAPIKey")
	f.keys = append(f.keys, APIKey{ID: f.nextKeyID, Name: name})
	f.nextKeyID++
	f.nextToken++
	token := fmt.Sprintf("token-%d", f.nextToken)
	if f.wrongTokenOrg {
		f.tokenOrg[token] = f.sessionOrg + 1000
	} else {
		f.tokenOrg[token] = f.sessionOrg
	}
	return token, nil
}

func (f *fakeGrafana) CurrentOrg(_ context.Context, token string) (int64, error) {
	return f.tokenOrg[token], nil
}

func (f *fakeGrafana) Datasources(_ context.Context, token string) ([]Datasource, error) {
	return append([]Datasource(nil), f.datasources[f.tokenOrg[token]]...), nil
}

func (f *fakeGrafana) CreateDatasource(_ context.Context, token string, ds Datasource) (int64, error) {
	f.record("CreateDatasource")
	orgID := f.tokenOrg[token]
	for _, existing := range f.datasources[orgID] {
		if existing.Name == ds.Name {
			return 0, errors.NewAPIError("grafana", 409, "/api/datasources", "data source with the same name already exists")
		}
	}
	f.datasources[orgID] = append(f.datasources[orgID], ds)
	return orgID, nil
}

func (f *fakeGrafana) UpsertDashboard(_ context.Context, _ string, _ map[string]any) (int64, error) {
	f.record("UpsertDashboard")
	return 100, nil
}

func (f *fakeGrafana) SetHomeDashboard(_ context.Context, _ string, _ int64) error {
	f.record("SetHomeDashboard")
	return nil
}

// fakeTemplate captures the last rendered document.
type fakeTemplate struct {
	lastUID   string
	lastTitle string
	lastHTML  string
}

func (f *fakeTemplate) Render(uid, title, listHTML string) map[string]any {
	f.lastUID = uid
	f.lastTitle = title
	f.lastHTML = listHTML
	return map[string]any{"uid": uid, "title": title, "content": listHTML}
}
