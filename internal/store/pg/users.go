package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jobsearch.app/internal/auth"
	"jobsearch.app/internal/ids"
	"jobsearch.app/internal/jobboard"
)

const userColumns = `id, first_name, last_name, username, email, password_hash, role, is_confirmed,
	otp_hash, otp_expires_at, recovery_email, dob, mobile_number, status, created_at, updated_at`

type users struct{ s *Store }

func scanUser(row rowScanner) (*jobboard.User, error) {
	var (
		u      jobboard.User
		role   string
		status string
		otpExp sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email, &u.PasswordHash, &role,
		&u.Confirmed, &u.OTPHash, &otpExp, &u.RecoveryEmail, &u.DOB, &u.Mobile, &status,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, translate(err)
	}
	r, err := auth.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", u.ID, err)
	}
	u.Role = r
	u.Status = jobboard.Status(status)
	if otpExp.Valid {
		t := otpExp.Time.UTC()
		u.OTPExpiresAt = &t
	}
	return &u, nil
}

func (q users) queryOne(ctx context.Context, where string, args ...any) (*jobboard.User, error) {
	row := q.s.db.QueryRowContext(ctx, `select `+userColumns+` from users where `+where+` order by id limit 1`, args...)
	return scanUser(row)
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (q users) Create(ctx context.Context, u *jobboard.User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	now := q.s.stamp()
	_, err := q.s.db.ExecContext(ctx, `
		insert into users (`+userColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$15)
	`, u.ID, u.FirstName, u.LastName, u.Username, u.Email, u.PasswordHash, u.Role.String(), u.Confirmed,
		u.OTPHash, nullTime(u.OTPExpiresAt), u.RecoveryEmail, u.DOB, u.Mobile, string(u.Status), now)
	if err != nil {
		return translate(err)
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

func (q users) Find(ctx context.Context, id string) (*jobboard.User, error) {
	return q.queryOne(ctx, `id=$1`, id)
}

func (q users) FindByEmail(ctx context.Context, email string) (*jobboard.User, error) {
	return q.queryOne(ctx, `lower(email)=lower($1)`, email)
}

func (q users) FindByLogin(ctx context.Context, email, mobile string) (*jobboard.User, error) {
	if email == "" && mobile == "" {
		return nil, jobboard.ErrNotFound
	}
	return q.queryOne(ctx, `
		($1 <> '' and (lower(email)=lower($1) or lower(recovery_email)=lower($1)))
		or ($2 <> '' and mobile_number=$2)`, email, mobile)
}

func (q users) ListByRecoveryEmail(ctx context.Context, email string) ([]jobboard.User, error) {
	rows, err := q.s.db.QueryContext(ctx,
		`select `+userColumns+` from users where lower(recovery_email)=lower($1) order by id`, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []jobboard.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	return res, rows.Err()
}

func (q users) Conflicts(ctx context.Context, email, mobile, excludeID string) ([]string, error) {
	var emailTaken, mobileTaken bool
	err := q.s.db.QueryRowContext(ctx, `
		select
			coalesce(bool_or($1 <> '' and lower(email)=lower($1)), false),
			coalesce(bool_or($2 <> '' and mobile_number=$2), false)
		from users
		where id <> $3
	`, email, mobile, excludeID).Scan(&emailTaken, &mobileTaken)
	if err != nil {
		return nil, err
	}
	var fields []string
	if emailTaken {
		fields = append(fields, "email")
	}
	if mobileTaken {
		fields = append(fields, "mobileNumber")
	}
	return fields, nil
}

func (q users) Update(ctx context.Context, u *jobboard.User) error {
	now := q.s.stamp()
	ok, err := rowsAffected(q.s.db.ExecContext(ctx, `
		update users set first_name=$2, last_name=$3, username=$4, email=$5, password_hash=$6, role=$7,
			is_confirmed=$8, otp_hash=$9, otp_expires_at=$10, recovery_email=$11, dob=$12,
			mobile_number=$13, status=$14, updated_at=$15
		where id=$1
	`, u.ID, u.FirstName, u.LastName, u.Username, u.Email, u.PasswordHash, u.Role.String(), u.Confirmed,
		u.OTPHash, nullTime(u.OTPExpiresAt), u.RecoveryEmail, u.DOB, u.Mobile, string(u.Status), now))
	if err != nil {
		return translate(err)
	}
	if !ok {
		return jobboard.ErrNotFound
	}
	u.UpdatedAt = now
	return nil
}

func (q users) Confirm(ctx context.Context, id string) (*jobboard.User, error) {
	row := q.s.db.QueryRowContext(ctx, `
		update users set is_confirmed=true, updated_at=$2
		where id=$1 and not is_confirmed
		returning `+userColumns, id, q.s.stamp())
	return scanUser(row)
}

func (q users) ClearExpiredOTPs(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.s.db.ExecContext(ctx, `
		update users set otp_hash='', otp_expires_at=null
		where otp_expires_at is not null and otp_expires_at <= $1
	`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q users) Delete(ctx context.Context, id string) (bool, error) {
	return rowsAffected(q.s.db.ExecContext(ctx, `delete from users where id=$1`, id))
}
