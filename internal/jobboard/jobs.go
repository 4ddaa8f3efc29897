package jobboard

import (
	"context"
	"strings"

	"jobsearch.app/internal/auth"
)

type JobInput struct {
	Title           string
	Location        JobLocation
	WorkingTime     WorkingTime
	Seniority       Seniority
	Description     string
	TechnicalSkills []string
	SoftSkills      []string
}

// JobUpdate carries optional field changes; nil fields are untouched.
type JobUpdate struct {
	Title           *string
	Location        *JobLocation
	WorkingTime     *WorkingTime
	Seniority       *Seniority
	Description     *string
	TechnicalSkills []string
	SoftSkills      []string
}

type ApplicationInput struct {
	TechSkills []string
	SoftSkills []string
	Resume     string
}

// CreateJob posts a job under a company owned by actor, then links it from
// the company's job list.
func (s *Service) CreateJob(ctx context.Context, actor auth.Principal, companyID string, in JobInput) (*Job, error) {
	companies := s.store.Companies(ctx)
	jobs := s.store.Jobs(ctx)
	if _, err := companies.FindOwned(ctx, companyID, actor.UserID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	taken, err := jobs.TitleTaken(ctx, title, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, conflict("job", "jobTitle")
	}
	j := &Job{
		Title:           title,
		Location:        in.Location,
		WorkingTime:     in.WorkingTime,
		Seniority:       in.Seniority,
		Description:     strings.TrimSpace(in.Description),
		TechnicalSkills: trimAll(in.TechnicalSkills),
		SoftSkills:      trimAll(in.SoftSkills),
		AddedBy:         actor.UserID,
		CompanyID:       companyID,
		ApplicationIDs:  []string{},
	}
	if err := jobs.Create(ctx, j); err != nil {
		return nil, err
	}
	if err := companies.AddJob(ctx, companyID, j.ID); err != nil {
		return nil, err
	}
	return j, nil
}

// UpdateJob edits a job matched on id, company and poster together.
func (s *Service) UpdateJob(ctx context.Context, actor auth.Principal, companyID, jobID string, upd JobUpdate) (*Job, error) {
	jobs := s.store.Jobs(ctx)
	j, err := jobs.FindScoped(ctx, jobID, companyID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		j.Title = strings.TrimSpace(*upd.Title)
		taken, err := jobs.TitleTaken(ctx, j.Title, j.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, conflict("job", "jobTitle")
		}
	}
	if upd.Location != nil {
		j.Location = *upd.Location
	}
	if upd.WorkingTime != nil {
		j.WorkingTime = *upd.WorkingTime
	}
	if upd.Seniority != nil {
		j.Seniority = *upd.Seniority
	}
	if upd.Description != nil {
		j.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.TechnicalSkills != nil {
		j.TechnicalSkills = trimAll(upd.TechnicalSkills)
	}
	if upd.SoftSkills != nil {
		j.SoftSkills = trimAll(upd.SoftSkills)
	}
	if err := jobs.Update(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

// DeleteJob removes a scoped job and its applications.
func (s *Service) DeleteJob(ctx context.Context, actor auth.Principal, companyID, jobID string) (CascadeReport, error) {
	if _, err := s.store.Jobs(ctx).FindScoped(ctx, jobID, companyID, actor.UserID); err != nil {
		return CascadeReport{}, err
	}
	return s.cascade.DeleteJob(ctx, jobID)
}

// JobsWithCompanies lists every job together with its company.
func (s *Service) JobsWithCompanies(ctx context.Context) ([]JobWithCompany, error) {
	jobs, err := s.store.Jobs(ctx).List(ctx, JobFilter{})
	if err != nil {
		return nil, err
	}
	companies := s.store.Companies(ctx)
	cache := map[string]*Company{}
	res := make([]JobWithCompany, 0, len(jobs))
	for _, j := range jobs {
		c, seen := cache[j.CompanyID]
		if !seen {
			c, err = companies.Find(ctx, j.CompanyID)
			if err != nil && !isNotFound(err) {
				return nil, err
			}
			cache[j.CompanyID] = c
		}
		res = append(res, JobWithCompany{Job: j, Company: c})
	}
	return res, nil
}

// JobsForCompany lists the jobs of the company with the given name.
func (s *Service) JobsForCompany(ctx context.Context, companyName string) (CompanyJobs, error) {
	c, err := s.store.Companies(ctx).FindByName(ctx, strings.TrimSpace(companyName))
	if err != nil {
		return CompanyJobs{}, err
	}
	jobs, err := s.store.Jobs(ctx).ListByCompany(ctx, c.ID)
	if err != nil {
		return CompanyJobs{}, err
	}
	return CompanyJobs{Company: *c, Jobs: nonNil(jobs)}, nil
}

// FilterJobs lists jobs matching every non-empty filter field.
func (s *Service) FilterJobs(ctx context.Context, f JobFilter) ([]Job, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.TechnicalSkills = trimAll(f.TechnicalSkills)
	jobs, err := s.store.Jobs(ctx).List(ctx, f)
	if err != nil {
		return nil, err
	}
	return nonNil(jobs), nil
}

// Apply records an application by actor to a job of the given company, then
// links it from the job's application list.
func (s *Service) Apply(ctx context.Context, actor auth.Principal, companyID, jobID string, in ApplicationInput) (*Application, error) {
	jobs := s.store.Jobs(ctx)
	j, err := jobs.Find(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j.CompanyID != companyID {
		return nil, ErrNotFound
	}
	a := &Application{
		JobID:      j.ID,
		UserID:     actor.UserID,
		TechSkills: trimAll(in.TechSkills),
		SoftSkills: trimAll(in.SoftSkills),
		Resume:     strings.TrimSpace(in.Resume),
	}
	if err := s.store.Applications(ctx).Create(ctx, a); err != nil {
		return nil, err
	}
	if err := jobs.AddApplication(ctx, j.ID, a.ID); err != nil {
		return nil, err
	}
	return a, nil
}
