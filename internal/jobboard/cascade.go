package jobboard

import (
	"context"
	"fmt"

	"jobsearch.app/internal/obs"
)

// SessionRevoker ends a user's session.
type SessionRevoker interface {
	Revoke(ctx context.Context, userID string) error
}

// CascadeReport counts the records a cascading delete removed.
type CascadeReport struct {
	Users        int `json:"users"`
	Companies    int `json:"companies"`
	Jobs         int `json:"jobs"`
	Applications int `json:"applications"`
}

func (r *CascadeReport) add(o CascadeReport) {
	r.Users += o.Users
	r.Companies += o.Companies
	r.Jobs += o.Jobs
	r.Applications += o.Applications
}

func (r CascadeReport) record() {
	obs.CascadeDeleted.WithLabelValues("user").Add(float64(r.Users))
	obs.CascadeDeleted.WithLabelValues("company").Add(float64(r.Companies))
	obs.CascadeDeleted.WithLabelValues("job").Add(float64(r.Jobs))
	obs.CascadeDeleted.WithLabelValues("application").Add(float64(r.Applications))
}

// Cascade deletes an entity together with everything that references it.
// Steps run sequentially without a transaction; every step tolerates records
// that are already gone, so a repeated or interrupted delete can be re-run.
type Cascade struct {
	store    Store
	sessions SessionRevoker
}

func NewCascade(store Store, sessions SessionRevoker) *Cascade {
	return &Cascade{store: store, sessions: sessions}
}

// DeleteJob removes the job, unlinks it from its company, then removes its
// applications.
func (c *Cascade) DeleteJob(ctx context.Context, jobID string) (CascadeReport, error) {
	rep, err := c.deleteJob(ctx, jobID)
	rep.record()
	return rep, err
}

func (c *Cascade) deleteJob(ctx context.Context, jobID string) (CascadeReport, error) {
	var rep CascadeReport
	jobs := c.store.Jobs(ctx)
	job, err := jobs.Find(ctx, jobID)
	if err != nil && !isNotFound(err) {
		return rep, err
	}
	removed, err := jobs.Delete(ctx, jobID)
	if err != nil {
		return rep, fmt.Errorf("delete job %s: %w", jobID, err)
	}
	if removed {
		rep.Jobs++
	}
	if job != nil {
		if err := c.store.Companies(ctx).RemoveJob(ctx, job.CompanyID, jobID); err != nil {
			return rep, fmt.Errorf("unlink job %s: %w", jobID, err)
		}
	}
	n, err := c.store.Applications(ctx).DeleteByJob(ctx, jobID)
	if err != nil {
		return rep, fmt.Errorf("delete applications of job %s: %w", jobID, err)
	}
	rep.Applications += int(n)
	return rep, nil
}

// DeleteCompany removes the company, then each of its jobs after that job's
// applications.
func (c *Cascade) DeleteCompany(ctx context.Context, companyID string) (CascadeReport, error) {
	rep, err := c.deleteCompany(ctx, companyID)
	rep.record()
	return rep, err
}

func (c *Cascade) deleteCompany(ctx context.Context, companyID string) (CascadeReport, error) {
	var rep CascadeReport
	removed, err := c.store.Companies(ctx).Delete(ctx, companyID)
	if err != nil {
		return rep, fmt.Errorf("delete company %s: %w", companyID, err)
	}
	if removed {
		rep.Companies++
	}
	jobs := c.store.Jobs(ctx)
	list, err := jobs.ListByCompany(ctx, companyID)
	if err != nil {
		return rep, err
	}
	apps := c.store.Applications(ctx)
	for _, j := range list {
		n, err := apps.DeleteByJob(ctx, j.ID)
		if err != nil {
			return rep, fmt.Errorf("delete applications of job %s: %w", j.ID, err)
		}
		rep.Applications += int(n)
		gone, err := jobs.Delete(ctx, j.ID)
		if err != nil {
			return rep, fmt.Errorf("delete job %s: %w", j.ID, err)
		}
		if gone {
			rep.Jobs++
		}
	}
	return rep, nil
}

// DeleteUser removes the user, the companies the user owns, the jobs the
// user posted that were not already removed with those companies (jobs under
// another owner's company are left alone), the applications the user
// submitted, and finally the user's session.
func (c *Cascade) DeleteUser(ctx context.Context, userID string) (CascadeReport, error) {
	rep, err := c.deleteUser(ctx, userID)
	rep.record()
	return rep, err
}

func (c *Cascade) deleteUser(ctx context.Context, userID string) (CascadeReport, error) {
	var rep CascadeReport
	removed, err := c.store.Users(ctx).Delete(ctx, userID)
	if err != nil {
		return rep, fmt.Errorf("delete user %s: %w", userID, err)
	}
	if removed {
		rep.Users++
	}

	companies := c.store.Companies(ctx)
	owned, err := companies.ListByOwner(ctx, userID)
	if err != nil {
		return rep, err
	}
	for _, co := range owned {
		sub, err := c.deleteCompany(ctx, co.ID)
		rep.add(sub)
		if err != nil {
			return rep, err
		}
	}

	posted, err := c.store.Jobs(ctx).ListByPoster(ctx, userID)
	if err != nil {
		return rep, err
	}
	for _, j := range posted {
		co, err := companies.Find(ctx, j.CompanyID)
		switch {
		case err != nil && !isNotFound(err):
			return rep, err
		case err == nil && co.OwnerID != userID:
			continue
		}
		sub, err := c.deleteJob(ctx, j.ID)
		rep.add(sub)
		if err != nil {
			return rep, err
		}
	}

	apps := c.store.Applications(ctx)
	submitted, err := apps.ListByUser(ctx, userID)
	if err != nil {
		return rep, err
	}
	jobs := c.store.Jobs(ctx)
	for _, a := range submitted {
		if err := jobs.RemoveApplication(ctx, a.JobID, a.ID); err != nil {
			return rep, fmt.Errorf("unlink application %s: %w", a.ID, err)
		}
		gone, err := apps.Delete(ctx, a.ID)
		if err != nil {
			return rep, fmt.Errorf("delete application %s: %w", a.ID, err)
		}
		if gone {
			rep.Applications++
		}
	}

	if c.sessions != nil {
		if err := c.sessions.Revoke(ctx, userID); err != nil {
			return rep, err
		}
	}
	return rep, nil
}
