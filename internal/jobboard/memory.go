package jobboard

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"jobsearch.app/internal/ids"
)

var _ Store = (*InMemory)(nil)

// InMemory implements Store with in-process concurrency safety. Listings are
// returned in id (creation) order.
type InMemory struct {
	mu           sync.RWMutex
	now          func() time.Time
	users        map[string]User
	companies    map[string]Company
	jobs         map[string]Job
	applications map[string]Application
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		now:          time.Now,
		users:        make(map[string]User),
		companies:    make(map[string]Company),
		jobs:         make(map[string]Job),
		applications: make(map[string]Application),
	}
}

func (s *InMemory) Users(context.Context) UserStore { return memUsers{s} }
func (s *InMemory) Companies(context.Context) CompanyStore { return memCompanies{s} }
func (s *InMemory) Jobs(context.Context) JobStore { return memJobs{s} }
func (s *InMemory) Applications(context.Context) ApplicationStore { return memApplications{s} }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func removeString(list []string, v string) []string {
	out := list[:0:0]
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// User store ---------------------------------------------------------------
type memUsers struct{ s *InMemory }

func (m memUsers) conflictsLocked(email, mobile, excludeID string) []string {
	var fields []string
	for id, u := range m.s.users {
		if id == excludeID {
			continue
		}
		if email != "" && strings.EqualFold(u.Email, email) && !containsString(fields, "email") {
			fields = append(fields, "email")
		}
		if mobile != "" && u.Mobile == mobile && !containsString(fields, "mobileNumber") {
			fields = append(fields, "mobileNumber")
		}
	}
	sort.Strings(fields)
	return fields
}

func (m memUsers) Create(_ context.Context, u *User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if fields := m.conflictsLocked(u.Email, u.Mobile, ""); len(fields) > 0 {
		return conflict("user", fields...)
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	now := m.s.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	m.s.users[u.ID] = u.clone()
	return nil
}

func (m memUsers) Find(_ context.Context, id string) (*User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := u.clone()
	return &out, nil
}

func (m memUsers) FindByEmail(_ context.Context, email string) (*User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, id := range sortedKeys(m.s.users) {
		if u := m.s.users[id]; strings.EqualFold(u.Email, email) {
			out := u.clone()
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m memUsers) FindByLogin(_ context.Context, email, mobile string) (*User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, id := range sortedKeys(m.s.users) {
		u := m.s.users[id]
		if email != "" && (strings.EqualFold(u.Email, email) || strings.EqualFold(u.RecoveryEmail, email)) ||
			mobile != "" && u.Mobile == mobile {
			out := u.clone()
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m memUsers) ListByRecoveryEmail(_ context.Context, email string) ([]User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var res []User
	for _, id := range sortedKeys(m.s.users) {
		if u := m.s.users[id]; strings.EqualFold(u.RecoveryEmail, email) {
			res = append(res, u.clone())
		}
	}
	return res, nil
}

func (m memUsers) Conflicts(_ context.Context, email, mobile, excludeID string) ([]string, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return m.conflictsLocked(email, mobile, excludeID), nil
}

func (m memUsers) Update(_ context.Context, u *User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	prev, ok := m.s.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	if fields := m.conflictsLocked(u.Email, u.Mobile, u.ID); len(fields) > 0 {
		return conflict("user", fields...)
	}
	u.CreatedAt = prev.CreatedAt
	u.UpdatedAt = m.s.now().UTC()
	m.s.users[u.ID] = u.clone()
	return nil
}

func (m memUsers) Confirm(_ context.Context, id string) (*User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok || u.Confirmed {
		return nil, ErrNotFound
	}
	u.Confirmed = true
	u.UpdatedAt = m.s.now().UTC()
	m.s.users[id] = u
	out := u.clone()
	return &out, nil
}

func (m memUsers) ClearExpiredOTPs(_ context.Context, before time.Time) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, u := range m.s.users {
		if u.OTPExpiresAt != nil && !before.Before(*u.OTPExpiresAt) {
			u.OTPHash, u.OTPExpiresAt = "", nil
			m.s.users[id] = u
			n++
		}
	}
	return n, nil
}

func (m memUsers) Delete(_ context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	_, ok := m.s.users[id]
	delete(m.s.users, id)
	return ok, nil
}

// Company store ------------------------------------------------------------
type memCompanies struct{ s *InMemory }

func (m memCompanies) conflictsLocked(name, email, excludeID string) []string {
	var fields []string
	for id, c := range m.s.companies {
		if id == excludeID {
			continue
		}
		if name != "" && strings.EqualFold(c.Name, name) && !containsString(fields, "companyName") {
			fields = append(fields, "companyName")
		}
		if email != "" && strings.EqualFold(c.Email, email) && !containsString(fields, "companyEmail") {
			fields = append(fields, "companyEmail")
		}
	}
	sort.Strings(fields)
	return fields
}

func (m memCompanies) Create(_ context.Context, c *Company) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if fields := m.conflictsLocked(c.Name, c.Email, ""); len(fields) > 0 {
		return conflict("company", fields...)
	}
	if c.ID == "" {
		c.ID = ids.New()
	}
	now := m.s.now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	c.JobIDs = cloneStrings(c.JobIDs)
	m.s.companies[c.ID] = c.clone()
	return nil
}

func (m memCompanies) Find(_ context.Context, id string) (*Company, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	c, ok := m.s.companies[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := c.clone()
	return &out, nil
}

func (m memCompanies) FindOwned(ctx context.Context, id, ownerID string) (*Company, error) {
	c, err := m.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m memCompanies) FindByName(_ context.Context, name string) (*Company, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, id := range sortedKeys(m.s.companies) {
		if c := m.s.companies[id]; strings.EqualFold(c.Name, name) {
			out := c.clone()
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (m memCompanies) Conflicts(_ context.Context, name, email, excludeID string) ([]string, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return m.conflictsLocked(name, email, excludeID), nil
}

func (m memCompanies) Update(_ context.Context, c *Company) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	prev, ok := m.s.companies[c.ID]
	if !ok {
		return ErrNotFound
	}
	if fields := m.conflictsLocked(c.Name, c.Email, c.ID); len(fields) > 0 {
		return conflict("company", fields...)
	}
	// The job list is maintained through AddJob/RemoveJob only.
	c.JobIDs = cloneStrings(prev.JobIDs)
	c.OwnerID = prev.OwnerID
	c.CreatedAt = prev.CreatedAt
	c.UpdatedAt = m.s.now().UTC()
	m.s.companies[c.ID] = c.clone()
	return nil
}

func (m memCompanies) Delete(_ context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	_, ok := m.s.companies[id]
	delete(m.s.companies, id)
	return ok, nil
}

func (m memCompanies) list(match func(Company) bool) []Company {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var res []Company
	for _, id := range sortedKeys(m.s.companies) {
		if c := m.s.companies[id]; match(c) {
			res = append(res, c.clone())
		}
	}
	return res
}

func (m memCompanies) List(context.Context) ([]Company, error) {
	return m.list(func(Company) bool { return true }), nil
}

func (m memCompanies) ListByOwner(_ context.Context, ownerID string) ([]Company, error) {
	return m.list(func(c Company) bool { return c.OwnerID == ownerID }), nil
}

func (m memCompanies) Search(_ context.Context, fragment string) ([]Company, error) {
	fragment = strings.ToLower(fragment)
	return m.list(func(c Company) bool { return strings.Contains(strings.ToLower(c.Name), fragment) }), nil
}

func (m memCompanies) AddJob(_ context.Context, companyID, jobID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.companies[companyID]
	if !ok {
		return ErrNotFound
	}
	if !containsString(c.JobIDs, jobID) {
		c.JobIDs = append(cloneStrings(c.JobIDs), jobID)
		m.s.companies[companyID] = c
	}
	return nil
}

func (m memCompanies) RemoveJob(_ context.Context, companyID, jobID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c, ok := m.s.companies[companyID]
	if !ok {
		return nil
	}
	c.JobIDs = removeString(c.JobIDs, jobID)
	m.s.companies[companyID] = c
	return nil
}

// Job store ----------------------------------------------------------------
type memJobs struct{ s *InMemory }

func (m memJobs) titleTakenLocked(title, excludeID string) bool {
	for id, j := range m.s.jobs {
		if id != excludeID && strings.EqualFold(j.Title, title) {
			return true
		}
	}
	return false
}

func (m memJobs) Create(_ context.Context, j *Job) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.titleTakenLocked(j.Title, "") {
		return conflict("job", "jobTitle")
	}
	if j.ID == "" {
		j.ID = ids.New()
	}
	now := m.s.now().UTC()
	j.CreatedAt, j.UpdatedAt = now, now
	j.ApplicationIDs = cloneStrings(j.ApplicationIDs)
	m.s.jobs[j.ID] = j.clone()
	return nil
}

func (m memJobs) Find(_ context.Context, id string) (*Job, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	j, ok := m.s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := j.clone()
	return &out, nil
}

func (m memJobs) FindScoped(ctx context.Context, id, companyID, addedBy string) (*Job, error) {
	j, err := m.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if j.CompanyID != companyID || j.AddedBy != addedBy {
		return nil, ErrNotFound
	}
	return j, nil
}

func (m memJobs) TitleTaken(_ context.Context, title, excludeID string) (bool, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return m.titleTakenLocked(title, excludeID), nil
}

func (m memJobs) Update(_ context.Context, j *Job) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	prev, ok := m.s.jobs[j.ID]
	if !ok {
		return ErrNotFound
	}
	if m.titleTakenLocked(j.Title, j.ID) {
		return conflict("job", "jobTitle")
	}
	j.ApplicationIDs = cloneStrings(prev.ApplicationIDs)
	j.CompanyID = prev.CompanyID
	j.AddedBy = prev.AddedBy
	j.CreatedAt = prev.CreatedAt
	j.UpdatedAt = m.s.now().UTC()
	m.s.jobs[j.ID] = j.clone()
	return nil
}

func (m memJobs) Delete(_ context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	_, ok := m.s.jobs[id]
	delete(m.s.jobs, id)
	return ok, nil
}

func (m memJobs) list(match func(Job) bool) []Job {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var res []Job
	for _, id := range sortedKeys(m.s.jobs) {
		if j := m.s.jobs[id]; match(j) {
			res = append(res, j.clone())
		}
	}
	return res
}

func (m memJobs) ListByCompany(_ context.Context, companyID string) ([]Job, error) {
	return m.list(func(j Job) bool { return j.CompanyID == companyID }), nil
}

func (m memJobs) ListByPoster(_ context.Context, userID string) ([]Job, error) {
	return m.list(func(j Job) bool { return j.AddedBy == userID }), nil
}

func (m memJobs) List(_ context.Context, f JobFilter) ([]Job, error) {
	title := strings.ToLower(f.Title)
	return m.list(func(j Job) bool {
		if f.WorkingTime != "" && j.WorkingTime != f.WorkingTime {
			return false
		}
		if f.Location != "" && j.Location != f.Location {
			return false
		}
		if f.Seniority != "" && j.Seniority != f.Seniority {
			return false
		}
		if title != "" && !strings.Contains(strings.ToLower(j.Title), title) {
			return false
		}
		if len(f.TechnicalSkills) > 0 {
			for _, want := range f.TechnicalSkills {
				if containsString(j.TechnicalSkills, want) {
					return true
				}
			}
			return false
		}
		return true
	}), nil
}

func (m memJobs) AddApplication(_ context.Context, jobID, applicationID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	j, ok := m.s.jobs[jobID]
	if !ok {
		return ErrNotFound
	}
	if !containsString(j.ApplicationIDs, applicationID) {
		j.ApplicationIDs = append(cloneStrings(j.ApplicationIDs), applicationID)
		m.s.jobs[jobID] = j
	}
	return nil
}

func (m memJobs) RemoveApplication(_ context.Context, jobID, applicationID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	j, ok := m.s.jobs[jobID]
	if !ok {
		return nil
	}
	j.ApplicationIDs = removeString(j.ApplicationIDs, applicationID)
	m.s.jobs[jobID] = j
	return nil
}

// Application store --------------------------------------------------------
type memApplications struct{ s *InMemory }

func (m memApplications) Create(_ context.Context, a *Application) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if a.ID == "" {
		a.ID = ids.New()
	}
	a.CreatedAt = m.s.now().UTC()
	m.s.applications[a.ID] = a.clone()
	return nil
}

func (m memApplications) Find(_ context.Context, id string) (*Application, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	a, ok := m.s.applications[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := a.clone()
	return &out, nil
}

func (m memApplications) list(match func(Application) bool) []Application {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	var res []Application
	for _, id := range sortedKeys(m.s.applications) {
		if a := m.s.applications[id]; match(a) {
			res = append(res, a.clone())
		}
	}
	return res
}

func (m memApplications) List(context.Context) ([]Application, error) {
	return m.list(func(Application) bool { return true }), nil
}

func (m memApplications) ListByJob(_ context.Context, jobID string) ([]Application, error) {
	return m.list(func(a Application) bool { return a.JobID == jobID }), nil
}

func (m memApplications) ListByUser(_ context.Context, userID string) ([]Application, error) {
	return m.list(func(a Application) bool { return a.UserID == userID }), nil
}

func (m memApplications) Delete(_ context.Context, id string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	_, ok := m.s.applications[id]
	delete(m.s.applications, id)
	return ok, nil
}

func (m memApplications) DeleteByJob(_ context.Context, jobID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, a := range m.s.applications {
		if a.JobID == jobID {
			delete(m.s.applications, id)
			n++
		}
	}
	return n, nil
}
