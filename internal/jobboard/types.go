package jobboard

import (
	"time"

	"jobsearch.app/internal/auth"
)

// Status is the presence flag flipped by sign in and sign out.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

type JobLocation string

const (
	LocationOnsite   JobLocation = "onsite"
	LocationRemotely JobLocation = "remotely"
	LocationHybrid   JobLocation = "hybrid"
)

type WorkingTime string

const (
	WorkingPartTime WorkingTime = "part-time"
	WorkingFullTime WorkingTime = "full-time"
)

type Seniority string

const (
	SeniorityJunior   Seniority = "Junior"
	SeniorityMidLevel Seniority = "Mid-Level"
	SenioritySenior   Seniority = "Senior"
	SeniorityTeamLead Seniority = "Team-Lead"
	SeniorityCTO      Seniority = "CTO"
)

// User is an account holder. Password and OTP hashes never leave the process.
type User struct {
	ID            string     `json:"id"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Role          auth.Role  `json:"role"`
	Confirmed     bool       `json:"isConfirmed"`
	OTPHash       string     `json:"-"`
	OTPExpiresAt  *time.Time `json:"-"`
	RecoveryEmail string     `json:"recoveryEmail"`
	DOB           string     `json:"DOB"`
	Mobile        string     `json:"mobileNumber"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Profile is the publicly visible projection of a User.
type Profile struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Username  string    `json:"username"`
	Role      auth.Role `json:"role"`
	Status    Status    `json:"status"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		Role:      u.Role,
		Status:    u.Status,
	}
}

// Principal converts u to the identity attached to authenticated requests.
func (u *User) Principal() auth.Principal {
	return auth.Principal{UserID: u.ID, Role: u.Role, Email: u.Email, Username: u.Username}
}

// AccountRef is the summary returned for recovery email lookups.
type AccountRef struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type Company struct {
	ID                string    `json:"id"`
	Name              string    `json:"companyName"`
	Description       string    `json:"description"`
	Industry          string    `json:"industry"`
	Address           string    `json:"address"`
	NumberOfEmployees *int      `json:"numberOfEmployees,omitempty"`
	Email             string    `json:"companyEmail"`
	OwnerID           string    `json:"companyHR"`
	JobIDs            []string  `json:"jobsId"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type Job struct {
	ID              string      `json:"id"`
	Title           string      `json:"jobTitle"`
	Location        JobLocation `json:"jobLocation"`
	WorkingTime     WorkingTime `json:"workingTime"`
	Seniority       Seniority   `json:"seniorityLevel"`
	Description     string      `json:"jobDescription"`
	TechnicalSkills []string    `json:"technicalSkills"`
	SoftSkills      []string    `json:"softSkills"`
	AddedBy         string      `json:"addedBy"`
	CompanyID       string      `json:"companyInfo"`
	ApplicationIDs  []string    `json:"applicationsId"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

type Application struct {
	ID         string    `json:"id"`
	JobID      string    `json:"jobId"`
	UserID     string    `json:"userId"`
	TechSkills []string  `json:"userTechSkills"`
	SoftSkills []string  `json:"userSoftSkills"`
	Resume     string    `json:"userResume"`
	CreatedAt  time.Time `json:"createdAt"`
}

// CompanyJobs pairs a company with its jobs.
type CompanyJobs struct {
	Company Company `json:"company"`
	Jobs    []Job   `json:"jobs"`
}

// JobWithCompany is a job together with the company it belongs to.
type JobWithCompany struct {
	Job
	Company *Company `json:"company,omitempty"`
}

// JobApplications is a job together with the applications it received.
type JobApplications struct {
	Job          Job           `json:"job"`
	Applications []Application `json:"applications"`
}

// JobFilter narrows job listings. Empty fields match everything; TechnicalSkills
// matches jobs requiring any of the listed skills.
type JobFilter struct {
	WorkingTime     WorkingTime
	Location        JobLocation
	Seniority       Seniority
	Title           string
	TechnicalSkills []string
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func (c Company) clone() Company {
	c.JobIDs = cloneStrings(c.JobIDs)
	if c.NumberOfEmployees != nil {
		n := *c.NumberOfEmployees
		c.NumberOfEmployees = &n
	}
	return c
}

func (j Job) clone() Job {
	j.TechnicalSkills = cloneStrings(j.TechnicalSkills)
	j.SoftSkills = cloneStrings(j.SoftSkills)
	j.ApplicationIDs = cloneStrings(j.ApplicationIDs)
	return j
}

func (a Application) clone() Application {
	a.TechSkills = cloneStrings(a.TechSkills)
	a.SoftSkills = cloneStrings(a.SoftSkills)
	return a
}

func (u User) clone() User {
	if u.OTPExpiresAt != nil {
		t := *u.OTPExpiresAt
		u.OTPExpiresAt = &t
	}
	return u
}
