package pg

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"

	"jobsearch.app/internal/ids"
	"jobsearch.app/internal/jobboard"
)

const companyColumns = `id, name, description, industry, address, number_of_employees, email, owner_id,
	job_ids, created_at, updated_at`

type companies struct{ s *Store }

func scanCompany(row rowScanner) (*jobboard.Company, error) {
	var (
		c         jobboard.Company
		employees sql.NullInt64
		jobIDs    pq.StringArray
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Industry, &c.Address, &employees, &c.Email,
		&c.OwnerID, &jobIDs, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	if employees.Valid {
		n := int(employees.Int64)
		c.NumberOfEmployees = &n
	}
	c.JobIDs = nonNil(jobIDs)
	return &c, nil
}

func (q companies) query(ctx context.Context, where string, args ...any) ([]jobboard.Company, error) {
	rows, err := q.s.db.QueryContext(ctx, `select `+companyColumns+` from companies `+where+` order by id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []jobboard.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *c)
	}
	return res, rows.Err()
}

func employeesArg(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func (q companies) Create(ctx context.Context, c *jobboard.Company) error {
	if c.ID == "" {
		c.ID = ids.New()
	}
	now := q.s.stamp()
	c.JobIDs = nonNil(c.JobIDs)
	_, err := q.s.db.ExecContext(ctx, `
		insert into companies (`+companyColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9::text[],$10,$10)
	`, c.ID, c.Name, c.Description, c.Industry, c.Address, employeesArg(c.NumberOfEmployees), c.Email,
		c.OwnerID, pq.Array(c.JobIDs), now)
	if err != nil {
		return translate(err)
	}
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

func (q companies) Find(ctx context.Context, id string) (*jobboard.Company, error) {
	return scanCompany(q.s.db.QueryRowContext(ctx, `select `+companyColumns+` from companies where id=$1`, id))
}

func (q companies) FindOwned(ctx context.Context, id, ownerID string) (*jobboard.Company, error) {
	return scanCompany(q.s.db.QueryRowContext(ctx,
		`select `+companyColumns+` from companies where id=$1 and owner_id=$2`, id, ownerID))
}

func (q companies) FindByName(ctx context.Context, name string) (*jobboard.Company, error) {
	return scanCompany(q.s.db.QueryRowContext(ctx,
		`select `+companyColumns+` from companies where lower(name)=lower($1)`, name))
}

func (q companies) Conflicts(ctx context.Context, name, email, excludeID string) ([]string, error) {
	var emailTaken, nameTaken bool
	err := q.s.db.QueryRowContext(ctx, `
		select
			coalesce(bool_or($1 <> '' and lower(email)=lower($1)), false),
			coalesce(bool_or($2 <> '' and lower(name)=lower($2)), false)
		from companies
		where id <> $3
	`, email, name, excludeID).Scan(&emailTaken, &nameTaken)
	if err != nil {
		return nil, err
	}
	var fields []string
	if emailTaken {
		fields = append(fields, "companyEmail")
	}
	if nameTaken {
		fields = append(fields, "companyName")
	}
	return fields, nil
}

// Update writes the editable fields; owner and job ids are left alone.
func (q companies) Update(ctx context.Context, c *jobboard.Company) error {
	now := q.s.stamp()
	ok, err := rowsAffected(q.s.db.ExecContext(ctx, `
		update companies set name=$2, description=$3, industry=$4, address=$5,
			number_of_employees=$6, email=$7, updated_at=$8
		where id=$1
	`, c.ID, c.Name, c.Description, c.Industry, c.Address, employeesArg(c.NumberOfEmployees), c.Email, now))
	if err != nil {
		return translate(err)
	}
	if !ok {
		return jobboard.ErrNotFound
	}
	c.UpdatedAt = now
	return nil
}

func (q companies) Delete(ctx context.Context, id string) (bool, error) {
	return rowsAffected(q.s.db.ExecContext(ctx, `delete from companies where id=$1`, id))
}

func (q companies) List(ctx context.Context) ([]jobboard.Company, error) {
	return q.query(ctx, ``)
}

func (q companies) ListByOwner(ctx context.Context, ownerID string) ([]jobboard.Company, error) {
	return q.query(ctx, `where owner_id=$1`, ownerID)
}

func (q companies) Search(ctx context.Context, fragment string) ([]jobboard.Company, error) {
	return q.query(ctx, `where name ilike $1`, likePattern(fragment))
}

func (q companies) AddJob(ctx context.Context, companyID, jobID string) error {
	res, err := q.s.db.ExecContext(ctx, `
		update companies
		set job_ids = case when $2 = any(job_ids) then job_ids else array_append(job_ids, $2) end
		where id=$1
	`, companyID, jobID)
	ok, err := rowsAffected(res, err)
	if err != nil {
		return err
	}
	if !ok {
		return jobboard.ErrNotFound
	}
	return nil
}

func (q companies) RemoveJob(ctx context.Context, companyID, jobID string) error {
	_, err := q.s.db.ExecContext(ctx,
		`update companies set job_ids = array_remove(job_ids, $2) where id=$1`, companyID, jobID)
	return err
}

// likePattern wraps s for a substring match with LIKE metacharacters escaped.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
