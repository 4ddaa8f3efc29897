package pg

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"jobsearch.app/internal/ids"
	"jobsearch.app/internal/jobboard"
)

const jobColumns = `id, title, location, working_time, seniority, description, technical_skills, soft_skills,
	added_by, company_id, application_ids, created_at, updated_at`

type jobs struct{ s *Store }

func scanJob(row rowScanner) (*jobboard.Job, error) {
	var (
		j                       jobboard.Job
		location, working, senr string
		tech, soft, appIDs      pq.StringArray
	)
	if err := row.Scan(&j.ID, &j.Title, &location, &working, &senr, &j.Description, &tech, &soft,
		&j.AddedBy, &j.CompanyID, &appIDs, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	j.Location = jobboard.JobLocation(location)
	j.WorkingTime = jobboard.WorkingTime(working)
	j.Seniority = jobboard.Seniority(senr)
	j.TechnicalSkills = nonNil(tech)
	j.SoftSkills = nonNil(soft)
	j.ApplicationIDs = nonNil(appIDs)
	return &j, nil
}

func (q jobs) query(ctx context.Context, where string, args ...any) ([]jobboard.Job, error) {
	rows, err := q.s.db.QueryContext(ctx, `select `+jobColumns+` from jobs `+where+` order by id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []jobboard.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *j)
	}
	return res, rows.Err()
}

func (q jobs) Create(ctx context.Context, j *jobboard.Job) error {
	if j.ID == "" {
		j.ID = ids.New()
	}
	now := q.s.stamp()
	j.TechnicalSkills = nonNil(j.TechnicalSkills)
	j.SoftSkills = nonNil(j.SoftSkills)
	j.ApplicationIDs = nonNil(j.ApplicationIDs)
	_, err := q.s.db.ExecContext(ctx, `
		insert into jobs (`+jobColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7::text[],$8::text[],$9,$10,$11::text[],$12,$12)
	`, j.ID, j.Title, string(j.Location), string(j.WorkingTime), string(j.Seniority), j.Description,
		pq.Array(j.TechnicalSkills), pq.Array(j.SoftSkills), j.AddedBy, j.CompanyID, pq.Array(j.ApplicationIDs), now)
	if err != nil {
		return translate(err)
	}
	j.CreatedAt, j.UpdatedAt = now, now
	return nil
}

func (q jobs) Find(ctx context.Context, id string) (*jobboard.Job, error) {
	return scanJob(q.s.db.QueryRowContext(ctx, `select `+jobColumns+` from jobs where id=$1`, id))
}

func (q jobs) FindScoped(ctx context.Context, id, companyID, addedBy string) (*jobboard.Job, error) {
	return scanJob(q.s.db.QueryRowContext(ctx,
		`select `+jobColumns+` from jobs where id=$1 and company_id=$2 and added_by=$3`, id, companyID, addedBy))
}

func (q jobs) TitleTaken(ctx context.Context, title, excludeID string) (bool, error) {
	var taken bool
	err := q.s.db.QueryRowContext(ctx,
		`select exists(select 1 from jobs where lower(title)=lower($1) and id <> $2)`, title, excludeID).Scan(&taken)
	return taken, err
}

// Update writes the editable fields; poster, company and application ids
// are left alone.
func (q jobs) Update(ctx context.Context, j *jobboard.Job) error {
	now := q.s.stamp()
	ok, err := rowsAffected(q.s.db.ExecContext(ctx, `
		update jobs set title=$2, location=$3, working_time=$4, seniority=$5, description=$6,
			technical_skills=$7::text[], soft_skills=$8::text[], updated_at=$9
		where id=$1
	`, j.ID, j.Title, string(j.Location), string(j.WorkingTime), string(j.Seniority), j.Description,
		pq.Array(nonNil(j.TechnicalSkills)), pq.Array(nonNil(j.SoftSkills)), now))
	if err != nil {
		return translate(err)
	}
	if !ok {
		return jobboard.ErrNotFound
	}
	j.UpdatedAt = now
	return nil
}

func (q jobs) Delete(ctx context.Context, id string) (bool, error) {
	return rowsAffected(q.s.db.ExecContext(ctx, `delete from jobs where id=$1`, id))
}

func (q jobs) ListByCompany(ctx context.Context, companyID string) ([]jobboard.Job, error) {
	return q.query(ctx, `where company_id=$1`, companyID)
}

func (q jobs) ListByPoster(ctx context.Context, userID string) ([]jobboard.Job, error) {
	return q.query(ctx, `where added_by=$1`, userID)
}

func (q jobs) List(ctx context.Context, f jobboard.JobFilter) ([]jobboard.Job, error) {
	where, args := jobFilterClause(f)
	return q.query(ctx, where, args...)
}

// jobFilterClause builds the where clause for f; empty fields are skipped.
func jobFilterClause(f jobboard.JobFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.WorkingTime != "" {
		add("working_time=$%d", string(f.WorkingTime))
	}
	if f.Location != "" {
		add("location=$%d", string(f.Location))
	}
	if f.Seniority != "" {
		add("seniority=$%d", string(f.Seniority))
	}
	if f.Title != "" {
		add("title ilike $%d", likePattern(f.Title))
	}
	if len(f.TechnicalSkills) > 0 {
		add("technical_skills && $%d::text[]", pq.Array(f.TechnicalSkills))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "where " + strings.Join(conds, " and "), args
}

func (q jobs) AddApplication(ctx context.Context, jobID, applicationID string) error {
	ok, err := rowsAffected(q.s.db.ExecContext(ctx, `
		update jobs
		set application_ids = case when $2 = any(application_ids) then application_ids
			else array_append(application_ids, $2) end
		where id=$1
	`, jobID, applicationID))
	if err != nil {
		return err
	}
	if !ok {
		return jobboard.ErrNotFound
	}
	return nil
}

func (q jobs) RemoveApplication(ctx context.Context, jobID, applicationID string) error {
	_, err := q.s.db.ExecContext(ctx,
		`update jobs set application_ids = array_remove(application_ids, $2) where id=$1`, jobID, applicationID)
	return err
}
