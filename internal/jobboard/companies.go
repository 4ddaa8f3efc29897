package jobboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jobsearch.app/internal/auth"
)

type CompanyInput struct {
	Name              string
	Description       string
	Industry          string
	Address           string
	NumberOfEmployees *int
	Email             string
}

// CompanyUpdate carries optional field changes; nil fields are untouched.
type CompanyUpdate struct {
	Name              *string
	Description       *string
	Industry          *string
	Address           *string
	NumberOfEmployees *int
	Email             *string
}

// CreateCompany registers a company owned by actor.
func (s *Service) CreateCompany(ctx context.Context, actor auth.Principal, in CompanyInput) (*Company, error) {
	companies := s.store.Companies(ctx)
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	fields, err := companies.Conflicts(ctx, name, email, "")
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, conflict("company", fields...)
	}
	c := &Company{
		Name:              name,
		Description:       strings.TrimSpace(in.Description),
		Industry:          strings.TrimSpace(in.Industry),
		Address:           strings.TrimSpace(in.Address),
		NumberOfEmployees: in.NumberOfEmployees,
		Email:             email,
		OwnerID:           actor.UserID,
		JobIDs:            []string{},
	}
	if err := companies.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCompany edits a company the actor owns; anything else is ErrNotFound.
func (s *Service) UpdateCompany(ctx context.Context, actor auth.Principal, companyID string, upd CompanyUpdate) (*Company, error) {
	companies := s.store.Companies(ctx)
	c, err := companies.FindOwned(ctx, companyID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		c.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Email != nil {
		c.Email = normalizeEmail(*upd.Email)
	}
	fields, err := companies.Conflicts(ctx, c.Name, c.Email, c.ID)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, conflict("company", fields...)
	}
	if upd.Description != nil {
		c.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Industry != nil {
		c.Industry = strings.TrimSpace(*upd.Industry)
	}
	if upd.Address != nil {
		c.Address = strings.TrimSpace(*upd.Address)
	}
	if upd.NumberOfEmployees != nil {
		n := *upd.NumberOfEmployees
		c.NumberOfEmployees = &n
	}
	if err := companies.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCompany removes an owned company with its jobs and applications.
func (s *Service) DeleteCompany(ctx context.Context, actor auth.Principal, companyID string) (CascadeReport, error) {
	if _, err := s.store.Companies(ctx).FindOwned(ctx, companyID, actor.UserID); err != nil {
		return CascadeReport{}, err
	}
	return s.cascade.DeleteCompany(ctx, companyID)
}

// CompanyWithJobs returns a company and the jobs posted under it.
func (s *Service) CompanyWithJobs(ctx context.Context, companyID string) (CompanyJobs, error) {
	c, err := s.store.Companies(ctx).Find(ctx, companyID)
	if err != nil {
		return CompanyJobs{}, err
	}
	jobs, err := s.store.Jobs(ctx).ListByCompany(ctx, c.ID)
	if err != nil {
		return CompanyJobs{}, err
	}
	return CompanyJobs{Company: *c, Jobs: nonNil(jobs)}, nil
}

// SearchCompanies matches companies whose name contains fragment.
func (s *Service) SearchCompanies(ctx context.Context, fragment string) ([]Company, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, fmt.Errorf("%w: companyName", ErrInvalidInput)
	}
	res, err := s.store.Companies(ctx).Search(ctx, fragment)
	if err != nil {
		return nil, err
	}
	return nonNil(res), nil
}

// ApplicationsForPostedJobs lists every job the actor posted with the
// applications it received.
func (s *Service) ApplicationsForPostedJobs(ctx context.Context, actor auth.Principal) ([]JobApplications, error) {
	jobs, err := s.store.Jobs(ctx).ListByPoster(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	apps := s.store.Applications(ctx)
	res := make([]JobApplications, 0, len(jobs))
	for _, j := range jobs {
		list, err := apps.ListByJob(ctx, j.ID)
		if err != nil {
			return nil, err
		}
		res = append(res, JobApplications{Job: j, Applications: nonNil(list)})
	}
	return res, nil
}

// CompanyApplications returns every application to jobs of the named
// company. The company must be owned by actor.
func (s *Service) CompanyApplications(ctx context.Context, actor auth.Principal, companyName string) (*Company, []Application, error) {
	c, err := s.store.Companies(ctx).FindByName(ctx, strings.TrimSpace(companyName))
	if err != nil {
		return nil, nil, err
	}
	if c.OwnerID != actor.UserID {
		return nil, nil, ErrNotFound
	}
	jobs, err := s.store.Jobs(ctx).ListByCompany(ctx, c.ID)
	if err != nil {
		return nil, nil, err
	}
	apps := s.store.Applications(ctx)
	var res []Application
	for _, j := range jobs {
		list, err := apps.ListByJob(ctx, j.ID)
		if err != nil {
			return nil, nil, err
		}
		res = append(res, list...)
	}
	return c, nonNil(res), nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
