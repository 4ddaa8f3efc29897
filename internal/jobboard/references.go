package jobboard

import (
	"context"
	"fmt"
	"sort"
)

// CheckReferences walks the store and describes every broken link between
// companies, jobs and applications: ids listed on one side without the
// matching back-reference on the other, and references to missing records.
// An empty result means the store is consistent.
func CheckReferences(ctx context.Context, store Store) ([]string, error) {
	companies, err := store.Companies(ctx).List(ctx)
	if err != nil {
		return nil, err
	}
	jobs, err := store.Jobs(ctx).List(ctx, JobFilter{})
	if err != nil {
		return nil, err
	}
	apps, err := store.Applications(ctx).List(ctx)
	if err != nil {
		return nil, err
	}

	companyByID := make(map[string]Company, len(companies))
	for _, c := range companies {
		companyByID[c.ID] = c
	}
	jobByID := make(map[string]Job, len(jobs))
	for _, j := range jobs {
		jobByID[j.ID] = j
	}
	appByID := make(map[string]Application, len(apps))
	for _, a := range apps {
		appByID[a.ID] = a
	}

	var problems []string
	for _, c := range companies {
		for _, id := range c.JobIDs {
			j, ok := jobByID[id]
			switch {
			case !ok:
				problems = append(problems, fmt.Sprintf("company %s lists missing job %s", c.ID, id))
			case j.CompanyID != c.ID:
				problems = append(problems, fmt.Sprintf("company %s lists job %s of company %s", c.ID, id, j.CompanyID))
			}
		}
	}
	for _, j := range jobs {
		c, ok := companyByID[j.CompanyID]
		if !ok {
			problems = append(problems, fmt.Sprintf("job %s references missing company %s", j.ID, j.CompanyID))
		} else if !containsString(c.JobIDs, j.ID) {
			problems = append(problems, fmt.Sprintf("company %s does not list job %s", c.ID, j.ID))
		}
		for _, id := range j.ApplicationIDs {
			a, ok := appByID[id]
			switch {
			case !ok:
				problems = append(problems, fmt.Sprintf("job %s lists missing application %s", j.ID, id))
			case a.JobID != j.ID:
				problems = append(problems, fmt.Sprintf("job %s lists application %s of job %s", j.ID, id, a.JobID))
			}
		}
	}
	for _, a := range apps {
		j, ok := jobByID[a.JobID]
		if !ok {
			problems = append(problems, fmt.Sprintf("application %s references missing job %s", a.ID, a.JobID))
		} else if !containsString(j.ApplicationIDs, a.ID) {
			problems = append(problems, fmt.Sprintf("job %s does not list application %s", j.ID, a.ID))
		}
	}
	sort.Strings(problems)
	return problems, nil
}
