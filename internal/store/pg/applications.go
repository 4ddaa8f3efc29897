package pg

import (
	"context"

	"github.com/lib/pq"

	"jobsearch.app/internal/ids"
	"jobsearch.app/internal/jobboard"
)

const applicationColumns = `id, job_id, user_id, tech_skills, soft_skills, resume, created_at`

type applications struct{ s *Store }

func scanApplication(row rowScanner) (*jobboard.Application, error) {
	var (
		a          jobboard.Application
		tech, soft pq.StringArray
	)
	if err := row.Scan(&a.ID, &a.JobID, &a.UserID, &tech, &soft, &a.Resume, &a.CreatedAt); err != nil {
		return nil, translate(err)
	}
	a.TechSkills = nonNil(tech)
	a.SoftSkills = nonNil(soft)
	return &a, nil
}

func (q applications) query(ctx context.Context, where string, args ...any) ([]jobboard.Application, error) {
	rows, err := q.s.db.QueryContext(ctx, `select `+applicationColumns+` from applications `+where+` order by id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []jobboard.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *a)
	}
	return res, rows.Err()
}

func (q applications) Create(ctx context.Context, a *jobboard.Application) error {
	if a.ID == "" {
		a.ID = ids.New()
	}
	now := q.s.stamp()
	a.TechSkills = nonNil(a.TechSkills)
	a.SoftSkills = nonNil(a.SoftSkills)
	_, err := q.s.db.ExecContext(ctx, `
		insert into applications (`+applicationColumns+`)
		values ($1,$2,$3,$4::text[],$5::text[],$6,$7)
	`, a.ID, a.JobID, a.UserID, pq.Array(a.TechSkills), pq.Array(a.SoftSkills), a.Resume, now)
	if err != nil {
		return translate(err)
	}
	a.CreatedAt = now
	return nil
}

func (q applications) Find(ctx context.Context, id string) (*jobboard.Application, error) {
	return scanApplication(q.s.db.QueryRowContext(ctx,
		`select `+applicationColumns+` from applications where id=$1`, id))
}

func (q applications) List(ctx context.Context) ([]jobboard.Application, error) {
	return q.query(ctx, ``)
}

func (q applications) ListByJob(ctx context.Context, jobID string) ([]jobboard.Application, error) {
	return q.query(ctx, `where job_id=$1`, jobID)
}

func (q applications) ListByUser(ctx context.Context, userID string) ([]jobboard.Application, error) {
	return q.query(ctx, `where user_id=$1`, userID)
}

func (q applications) Delete(ctx context.Context, id string) (bool, error) {
	return rowsAffected(q.s.db.ExecContext(ctx, `delete from applications where id=$1`, id))
}

func (q applications) DeleteByJob(ctx context.Context, jobID string) (int64, error) {
	res, err := q.s.db.ExecContext(ctx, `delete from applications where job_id=$1`, jobID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
