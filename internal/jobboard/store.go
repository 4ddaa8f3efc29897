package jobboard

import (
	"context"
	"time"
)

// Store hands out per-entity stores. Implementations must enforce the unique
// fields (user email and mobile, company name and email, job title) at write
// time and report violations as *ConflictError.
type Store interface {
	Users(ctx context.Context) UserStore
	Companies(ctx context.Context) CompanyStore
	Jobs(ctx context.Context) JobStore
	Applications(ctx context.Context) ApplicationStore
}

type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByLogin matches email against the primary or recovery address and
	// mobile against the mobile number. Empty arguments are ignored.
	FindByLogin(ctx context.Context, email, mobile string) (*User, error)
	ListByRecoveryEmail(ctx context.Context, email string) ([]User, error)
	// Conflicts returns the unique fields already taken by a user other than excludeID.
	Conflicts(ctx context.Context, email, mobile, excludeID string) ([]string, error)
	Update(ctx context.Context, u *User) error
	// Confirm marks an unconfirmed user confirmed; confirmed or missing users yield ErrNotFound.
	Confirm(ctx context.Context, id string) (*User, error)
	ClearExpiredOTPs(ctx context.Context, before time.Time) (int64, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type CompanyStore interface {
	Create(ctx context.Context, c *Company) error
	Find(ctx context.Context, id string) (*Company, error)
	FindOwned(ctx context.Context, id, ownerID string) (*Company, error)
	FindByName(ctx context.Context, name string) (*Company, error)
	Conflicts(ctx context.Context, name, email, excludeID string) ([]string, error)
	Update(ctx context.Context, c *Company) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]Company, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Company, error)
	// Search matches name fragments case-insensitively.
	Search(ctx context.Context, fragment string) ([]Company, error)
	AddJob(ctx context.Context, companyID, jobID string) error
	// RemoveJob detaches jobID; a missing company or id is not an error.
	RemoveJob(ctx context.Context, companyID, jobID string) error
}

type JobStore interface {
	Create(ctx context.Context, j *Job) error
	Find(ctx context.Context, id string) (*Job, error)
	// FindScoped matches on id, company and poster together.
	FindScoped(ctx context.Context, id, companyID, addedBy string) (*Job, error)
	TitleTaken(ctx context.Context, title, excludeID string) (bool, error)
	Update(ctx context.Context, j *Job) error
	Delete(ctx context.Context, id string) (bool, error)
	ListByCompany(ctx context.Context, companyID string) ([]Job, error)
	ListByPoster(ctx context.Context, userID string) ([]Job, error)
	List(ctx context.Context, filter JobFilter) ([]Job, error)
	AddApplication(ctx context.Context, jobID, applicationID string) error
	// RemoveApplication detaches applicationID; a missing job or id is not an error.
	RemoveApplication(ctx context.Context, jobID, applicationID string) error
}

type ApplicationStore interface {
	Create(ctx context.Context, a *Application) error
	Find(ctx context.Context, id string) (*Application, error)
	List(ctx context.Context) ([]Application, error)
	ListByJob(ctx context.Context, jobID string) ([]Application, error)
	ListByUser(ctx context.Context, userID string) ([]Application, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByJob(ctx context.Context, jobID string) (int64, error)
}
