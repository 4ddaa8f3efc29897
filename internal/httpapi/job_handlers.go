package httpapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"jobsearch.app/internal/audit"
	"jobsearch.app/internal/auth"
	"jobsearch.app/internal/jobboard"
)

type createJobRequest struct {
	Title           string   `json:"jobTitle" validate:"required,min=2"`
	Location        string   `json:"jobLocation" validate:"required,oneof=onsite remotely hybrid"`
	WorkingTime     string   `json:"workingTime" validate:"required,oneof=part-time full-time"`
	Seniority       string   `json:"seniorityLevel" validate:"required,oneof=Junior Mid-Level Senior Team-Lead CTO"`
	Description     string   `json:"jobDescription" validate:"required"`
	TechnicalSkills []string `json:"technicalSkills" validate:"required,min=1,dive,required"`
	SoftSkills      []string `json:"softSkills" validate:"required,min=1,dive,required"`
}

type updateJobRequest struct {
	Title           *string  `json:"jobTitle" validate:"omitempty,min=2"`
	Location        *string  `json:"jobLocation" validate:"omitempty,oneof=onsite remotely hybrid"`
	WorkingTime     *string  `json:"workingTime" validate:"omitempty,oneof=part-time full-time"`
	Seniority       *string  `json:"seniorityLevel" validate:"omitempty,oneof=Junior Mid-Level Senior Team-Lead CTO"`
	Description     *string  `json:"jobDescription"`
	TechnicalSkills []string `json:"technicalSkills" validate:"omitempty,dive,required"`
	SoftSkills      []string `json:"softSkills" validate:"omitempty,dive,required"`
}

type applyRequest struct {
	TechSkills []string `json:"userTechSkills" validate:"required,min=1,dive,required"`
	SoftSkills []string `json:"userSoftSkills" validate:"required,min=1,dive,required"`
	Resume     string   `json:"userResume" validate:"required,pdffile"`
}

// filterQuery mirrors the query string accepted by filter-jobs.
type filterQuery struct {
	Title       string `validate:"omitempty"`
	Location    string `validate:"omitempty,oneof=onsite remotely hybrid"`
	WorkingTime string `validate:"omitempty,oneof=part-time full-time"`
	Seniority   string `validate:"omitempty,oneof=Junior Mid-Level Senior Team-Lead CTO"`
}

func (a *API) jobRoutes(r *mux.Router) {
	hr := auth.RoleCompanyHR
	r.Handle("/job/jobs-with-companies", a.protect(a.jobsWithCompanies, auth.RoleUser, hr)).Methods(http.MethodGet)
	r.Handle("/job/jobs-with-one-company", a.protect(a.jobsForCompany, auth.RoleUser, hr)).Methods(http.MethodGet)
	r.Handle("/job/filter-jobs", a.protect(a.filterJobs, auth.RoleUser, hr)).Methods(http.MethodGet)
	r.Handle("/job/{companyId}/create", a.protect(a.createJob, hr)).Methods(http.MethodPost)
	r.Handle("/job/{companyId}/update/{jobId}", a.protect(a.updateJob, hr)).Methods(http.MethodPut)
	r.Handle("/job/{companyId}/delete/{jobId}", a.protect(a.deleteJob, hr)).Methods(http.MethodDelete)
	r.Handle("/job/{companyId}/apply-job/{jobId}", a.protect(a.applyJob, auth.RoleUser)).Methods(http.MethodPost)
}

func jobPath(r *http.Request) (companyID, jobID string, err error) {
	v := mux.Vars(r)
	companyID, jobID = v["companyId"], v["jobId"]
	if err = validateVar("companyId", companyID, "required,ulid"); err != nil {
		return "", "", err
	}
	if err = validateVar("jobId", jobID, "required,ulid"); err != nil {
		return "", "", err
	}
	return companyID, jobID, nil
}

func (a *API) createJob(w http.ResponseWriter, r *http.Request) {
	cid, err := companyID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req createJobRequest
	if err := bind(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	j, err := a.svc.CreateJob(r.Context(), principal(r), cid, jobboard.JobInput{
		Title:           req.Title,
		Location:        jobboard.JobLocation(req.Location),
		WorkingTime:     jobboard.WorkingTime(req.WorkingTime),
		Seniority:       jobboard.Seniority(req.Seniority),
		Description:     req.Description,
		TechnicalSkills: req.TechnicalSkills,
		SoftSkills:      req.SoftSkills,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "job.created", map[string]any{"job_id": j.ID, "company_id": cid})
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Job Created Successfully",
		"newJob":  j,
	})
}

func (a *API) updateJob(w http.ResponseWriter, r *http.Request) {
	cid, jid, err := jobPath(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req updateJobRequest
	if err := bind(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	upd := jobboard.JobUpdate{
		Title:           req.Title,
		Description:     req.Description,
		TechnicalSkills: req.TechnicalSkills,
		SoftSkills:      req.SoftSkills,
	}
	if req.Location != nil {
		v := jobboard.JobLocation(*req.Location)
		upd.Location = &v
	}
	if req.WorkingTime != nil {
		v := jobboard.WorkingTime(*req.WorkingTime)
		upd.WorkingTime = &v
	}
	if req.Seniority != nil {
		v := jobboard.Seniority(*req.Seniority)
		upd.Seniority = &v
	}
	j, err := a.svc.UpdateJob(r.Context(), principal(r), cid, jid, upd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "job.updated", map[string]any{"job_id": j.ID})
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "Job Updated Successfully",
		"updatedJob": j,
	})
}

func (a *API) deleteJob(w http.ResponseWriter, r *http.Request) {
	cid, jid, err := jobPath(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rep, err := a.svc.DeleteJob(r.Context(), principal(r), cid, jid)
	if err != nil {
		respondError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "job.deleted", map[string]any{"job_id": jid, "cascade": rep})
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Job Deleted Successfully",
		"deleted": rep,
	})
}

func (a *API) jobsWithCompanies(w http.ResponseWriter, r *http.Request) {
	list, err := a.svc.JobsWithCompanies(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) jobsForCompany(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("companyName")
	if err := validateVar("companyName", name, "required"); err != nil {
		respondError(w, r, err)
		return
	}
	cj, err := a.svc.JobsForCompany(r.Context(), name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cj)
}

func (a *API) filterJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fq := filterQuery{
		Title:       strings.TrimSpace(q.Get("jobTitle")),
		Location:    q.Get("jobLocation"),
		WorkingTime: q.Get("workingTime"),
		Seniority:   q.Get("seniorityLevel"),
	}
	if err := validateStruct(fq); err != nil {
		respondError(w, r, err)
		return
	}
	f := jobboard.JobFilter{
		Title:       fq.Title,
		Location:    jobboard.JobLocation(fq.Location),
		WorkingTime: jobboard.WorkingTime(fq.WorkingTime),
		Seniority:   jobboard.Seniority(fq.Seniority),
	}
	for _, s := range strings.Split(q.Get("technicalSkills"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			f.TechnicalSkills = append(f.TechnicalSkills, s)
		}
	}
	list, err := a.svc.FilterJobs(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) applyJob(w http.ResponseWriter, r *http.Request) {
	cid, jid, err := jobPath(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req applyRequest
	if err := bind(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	app, err := a.svc.Apply(r.Context(), principal(r), cid, jid, jobboard.ApplicationInput{
		TechSkills: req.TechSkills,
		SoftSkills: req.SoftSkills,
		Resume:     req.Resume,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "application.created", map[string]any{"application_id": app.ID, "job_id": jid})
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":        "Application Created Successfully",
		"newApplication": app,
	})
}
