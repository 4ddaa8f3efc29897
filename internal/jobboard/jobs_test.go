package jobboard

import (
	"errors"
	"testing"

	"jobsearch.app/internal/auth"
)

func (f *fixture) job(poster auth.Principal, companyID, title string, skills ...string) *Job {
	f.t.Helper()
	j, err := f.svc.CreateJob(f.ctx, poster, companyID, JobInput{
		Title:           title,
		Location:        LocationRemotely,
		WorkingTime:     WorkingFullTime,
		Seniority:       SeniorityJunior,
		Description:     "write code",
		TechnicalSkills: skills,
		SoftSkills:      []string{"teamwork"},
	})
	if err != nil {
		f.t.Fatalf("CreateJob(%s): %v", title, err)
	}
	return j
}

func (f *fixture) apply(applicant auth.Principal, j *Job) *Application {
	f.t.Helper()
	a, err := f.svc.Apply(f.ctx, applicant, j.CompanyID, j.ID, ApplicationInput{
		TechSkills: []string{"go"},
		SoftSkills: []string{"patience"},
		Resume:     "cv.pdf",
	})
	if err != nil {
		f.t.Fatalf("Apply: %v", err)
	}
	return a
}

func TestCreateJobLinksCompany(t *testing.T) {
	f := newFixture(t)
	hr := f.activeUser("Hana", "hana@example.com", auth.RoleCompanyHR)
	c := f.company(hr, "Acme", "hr@acme.com")
	j := f.job(hr, c.ID, "Backend Engineer", "go", "sql")

	got, err := f.svc.CompanyWithJobs(f.ctx, c.ID)
	if err != nil {
		t.Fatalf("CompanyWithJobs: %v", err)
	}
	if len(got.Jobs) != 1 || got.Jobs[0].ID != j.ID {
		t.Fatalf("unexpected jobs %+v", got.Jobs)
	}
	if len(got.Company.JobIDs) != 1 || got.Company.JobIDs[0] != j.ID {
		t.Fatalf("company does not list job: %v", got.Company.JobIDs)
	}
	if _, err := f.svc.CreateJob(f.ctx, hr, c.ID, JobInput{Title: "Backend Engineer"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate title: expected conflict, got %v", err)
	}
	f.assertConsistent()
}

func TestCreateJobRequiresOwnedCompany(t *testing.T) {
	f := newFixture(t)
	owner := f.activeUser("Olga", "olga@example.com", auth.RoleCompanyHR)
	other := f.activeUser("Oscar", "oscar@example.com", auth.RoleCompanyHR)
	c := f.company(owner, "Acme", "hr@acme.com")

	if _, err := f.svc.CreateJob(f.ctx, other, c.ID, JobInput{Title: "Intruder"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	j := f.job(owner, c.ID, "Backend Engineer")
	title := "Renamed"
	if _, err := f.svc.UpdateJob(f.ctx, other, c.ID, j.ID, JobUpdate{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("non-poster update: expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.DeleteJob(f.ctx, other, c.ID, j.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("non-poster delete: expected ErrNotFound, got %v", err)
	}
	updated, err := f.svc.UpdateJob(f.ctx, owner, c.ID, j.ID, JobUpdate{Title: &title})
	if err != nil || updated.Title != "Renamed" {
		t.Fatalf("UpdateJob: %+v %v", updated, err)
	}
}

func TestApplyChecksCompany(t *testing.T) {
	f := newFixture(t)
	hr := f.activeUser("Hana", "hana@example.com", auth.RoleCompanyHR)
	seeker := f.activeUser("Sid", "sid@example.com", auth.RoleUser)
	acme := f.company(hr, "Acme", "hr@acme.com")
	globex := f.company(hr, "Globex", "hr@globex.com")
	j := f.job(hr, acme.ID, "Backend Engineer")

	if _, err := f.svc.Apply(f.ctx, seeker, globex.ID, j.ID, ApplicationInput{Resume: "cv.pdf"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("wrong company: expected ErrNotFound, got %v", err)
	}
	a := f.apply(seeker, j)
	if a.UserID != seeker.UserID || a.JobID != j.ID {
		t.Fatalf("unexpected application %+v", a)
	}
	f.assertConsistent()

	posted, err := f.svc.ApplicationsForPostedJobs(f.ctx, hr)
	if err != nil {
		t.Fatalf("ApplicationsForPostedJobs: %v", err)
	}
	if len(posted) != 1 || len(posted[0].Applications) != 1 || posted[0].Applications[0].ID != a.ID {
		t.Fatalf("unexpected %+v", posted)
	}

	company, apps, err := f.svc.CompanyApplications(f.ctx, hr, "Acme")
	if err != nil || company.ID != acme.ID || len(apps) != 1 {
		t.Fatalf("CompanyApplications: %+v %v %v", company, apps, err)
	}
	if _, _, err := f.svc.CompanyApplications(f.ctx, seeker, "Acme"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("non-owner export: expected ErrNotFound, got %v", err)
	}
}

func TestFilterJobs(t *testing.T) {
	f := newFixture(t)
	hr := f.activeUser("Hana", "hana@example.com", auth.RoleCompanyHR)
	c := f.company(hr, "Acme", "hr@acme.com")
	f.job(hr, c.ID, "Backend Engineer", "go", "sql")
	f.job(hr, c.ID, "Frontend Engineer", "typescript")
	onsite := LocationOnsite
	f.job(hr, c.ID, "Data Analyst", "sql")
	all, _ := f.svc.FilterJobs(f.ctx, JobFilter{})
	for _, j := range all {
		if j.Title == "Data Analyst" {
			if _, err := f.svc.UpdateJob(f.ctx, hr, c.ID, j.ID, JobUpdate{Location: &onsite}); err != nil {
				t.Fatalf("UpdateJob: %v", err)
			}
		}
	}

	cases := []struct {
		name   string
		filter JobFilter
		want   int
	}{
		{"all", JobFilter{}, 3},
		{"title substring", JobFilter{Title: "engineer"}, 2},
		{"any skill", JobFilter{TechnicalSkills: []string{"sql", "rust"}}, 2},
		{"location", JobFilter{Location: LocationOnsite}, 1},
		{"combined", JobFilter{Title: "engineer", TechnicalSkills: []string{"sql"}}, 1},
		{"no match", JobFilter{Seniority: SeniorityCTO}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.svc.FilterJobs(f.ctx, tc.filter)
			if err != nil {
				t.Fatalf("FilterJobs: %v", err)
			}
			if got == nil || len(got) != tc.want {
				t.Fatalf("expected %d jobs, got %d", tc.want, len(got))
			}
		})
	}
}

func TestJobsWithCompanies(t *testing.T) {
	f := newFixture(t)
	hr := f.activeUser("Hana", "hana@example.com", auth.RoleCompanyHR)
	c := f.company(hr, "Acme", "hr@acme.com")
	f.job(hr, c.ID, "Backend Engineer")
	f.job(hr, c.ID, "Frontend Engineer")

	list, err := f.svc.JobsWithCompanies(f.ctx)
	if err != nil {
		t.Fatalf("JobsWithCompanies: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(list))
	}
	for _, item := range list {
		if item.Company == nil || item.Company.Name != "Acme" {
			t.Fatalf("job %s missing company", item.ID)
		}
	}
	byName, err := f.svc.JobsForCompany(f.ctx, "Acme")
	if err != nil || len(byName.Jobs) != 2 {
		t.Fatalf("JobsForCompany: %+v %v", byName, err)
	}
	if _, err := f.svc.JobsForCompany(f.ctx, "Nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
