package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"jobsearch.app/internal/auth"
	"jobsearch.app/internal/jobboard"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s := New(db)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	return s, mock
}

var userCols = []string{"id", "first_name", "last_name", "username", "email", "password_hash", "role",
	"is_confirmed", "otp_hash", "otp_expires_at", "recovery_email", "dob", "mobile_number", "status",
	"created_at", "updated_at"}

func TestUserCreateAndLogin(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	now := s.stamp()

	mock.ExpectExec("insert into users").
		WithArgs("u1", "Ada", "Lovelace", "Ada Lovelace", "ada@example.com", "hash", "Company_HR", false,
			"", sqlmock.AnyArg(), "r@example.com", "1990-01-01", "01012345678", "offline", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &jobboard.User{
		ID: "u1", FirstName: "Ada", LastName: "Lovelace", Username: "Ada Lovelace", Email: "ada@example.com",
		PasswordHash: "hash", Role: auth.RoleCompanyHR, RecoveryEmail: "r@example.com", DOB: "1990-01-01",
		Mobile: "01012345678", Status: jobboard.StatusOffline,
	}
	if err := s.Users(ctx).Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !u.CreatedAt.Equal(now) {
		t.Fatalf("created_at not stamped: %v", u.CreatedAt)
	}

	mock.ExpectQuery("(?s)select.+from users where").
		WithArgs("r@example.com", "").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u1", "Ada", "Lovelace", "Ada Lovelace", "ada@example.com",
			"hash", "Company_HR", true, "", nil, "r@example.com", "1990-01-01", "01012345678", "online", now, now))
	got, err := s.Users(ctx).FindByLogin(ctx, "r@example.com", "")
	if err != nil {
		t.Fatalf("FindByLogin: %v", err)
	}
	if got.Role != auth.RoleCompanyHR || !got.Confirmed || got.Status != jobboard.StatusOnline || got.OTPExpiresAt != nil {
		t.Fatalf("unexpected user %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUniqueViolationBecomesConflict(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec("insert into users").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_mobile_number_key", TableName: "users"})
	err := s.Users(ctx).Create(ctx, &jobboard.User{ID: "u1", Role: auth.RoleUser})
	var ce *jobboard.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if len(ce.Fields) != 1 || ce.Fields[0] != "mobileNumber" || !errors.Is(err, jobboard.ErrConflict) {
		t.Fatalf("unexpected conflict %+v", ce)
	}

	mock.ExpectExec("insert into jobs").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "jobs_title_key", TableName: "jobs"})
	err = s.Jobs(ctx).Create(ctx, &jobboard.Job{Title: "Dup"})
	if !errors.As(err, &ce) || ce.Fields[0] != "jobTitle" {
		t.Fatalf("expected jobTitle conflict, got %v", err)
	}
}

func TestConfirmOnlyUnconfirmed(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	mock.ExpectQuery("update users set is_confirmed=true").
		WithArgs("u1", s.stamp()).
		WillReturnRows(sqlmock.NewRows(userCols))
	if _, err := s.Users(ctx).Confirm(ctx, "u1"); !errors.Is(err, jobboard.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserConflicts(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	mock.ExpectQuery("(?s)select.+from users").
		WithArgs("a@example.com", "0101", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"email", "mobile"}).AddRow(true, true))
	fields, err := s.Users(ctx).Conflicts(ctx, "a@example.com", "0101", "u1")
	if err != nil {
		t.Fatalf("Conflicts: %v", err)
	}
	if len(fields) != 2 || fields[0] != "email" || fields[1] != "mobileNumber" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

var companyCols = []string{"id", "name", "description", "industry", "address", "number_of_employees",
	"email", "owner_id", "job_ids", "created_at", "updated_at"}

func TestCompanyScanAndLinks(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	now := s.stamp()

	mock.ExpectQuery("(?s)select.+from companies where id=\\$1 and owner_id=\\$2").
		WithArgs("c1", "hr1").
		WillReturnRows(sqlmock.NewRows(companyCols).
			AddRow("c1", "Acme", "", "software", "", nil, "hr@acme.com", "hr1", "{j1,j2}", now, now))
	c, err := s.Companies(ctx).FindOwned(ctx, "c1", "hr1")
	if err != nil {
		t.Fatalf("FindOwned: %v", err)
	}
	if c.NumberOfEmployees != nil || len(c.JobIDs) != 2 || c.JobIDs[1] != "j2" {
		t.Fatalf("unexpected company %+v", c)
	}

	mock.ExpectQuery("(?s)select.+from companies where id=\\$1").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(companyCols))
	if _, err := s.Companies(ctx).Find(ctx, "missing"); !errors.Is(err, jobboard.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	mock.ExpectExec("update companies\\s+set job_ids").
		WithArgs("missing", "j3").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := s.Companies(ctx).AddJob(ctx, "missing", "j3"); !errors.Is(err, jobboard.ErrNotFound) {
		t.Fatalf("AddJob on missing company: expected ErrNotFound, got %v", err)
	}

	mock.ExpectExec("array_remove\\(job_ids").
		WithArgs("missing", "j3").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := s.Companies(ctx).RemoveJob(ctx, "missing", "j3"); err != nil {
		t.Fatalf("RemoveJob should tolerate missing company: %v", err)
	}

	mock.ExpectQuery("(?s)select.+from companies where name ilike \\$1").
		WithArgs(`%50\%\_off%`).
		WillReturnRows(sqlmock.NewRows(companyCols))
	res, err := s.Companies(ctx).Search(ctx, "50%_off")
	if err != nil || len(res) != 0 {
		t.Fatalf("Search: %v %v", res, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestJobFilterClause(t *testing.T) {
	where, args := jobFilterClause(jobboard.JobFilter{})
	if where != "" || len(args) != 0 {
		t.Fatalf("empty filter produced %q %v", where, args)
	}
	where, args = jobFilterClause(jobboard.JobFilter{
		Location:        jobboard.LocationHybrid,
		Title:           "engineer",
		TechnicalSkills: []string{"go"},
	})
	want := "where location=$1 and title ilike $2 and technical_skills && $3::text[]"
	if where != want {
		t.Fatalf("unexpected clause:\n got %q\nwant %q", where, want)
	}
	if len(args) != 3 || args[1] != "%engineer%" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestDeleteApplicationsByJob(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()
	mock.ExpectExec("delete from applications where job_id").
		WithArgs("j1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	n, err := s.Applications(ctx).DeleteByJob(ctx, "j1")
	if err != nil || n != 3 {
		t.Fatalf("DeleteByJob: %d %v", n, err)
	}
	mock.ExpectExec("delete from applications where id").
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	gone, err := s.Applications(ctx).Delete(ctx, "a1")
	if err != nil || gone {
		t.Fatalf("Delete of missing application: %v %v", gone, err)
	}
}
