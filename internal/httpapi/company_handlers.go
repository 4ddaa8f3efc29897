package httpapi

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"jobsearch.app/internal/audit"
	"jobsearch.app/internal/auth"
	"jobsearch.app/internal/export"
	"jobsearch.app/internal/jobboard"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type createCompanyRequest struct {
	Name              string `json:"companyName" validate:"required,min=3"`
	Description       string `json:"description" validate:"required"`
	Industry          string `json:"industry" validate:"required"`
	Address           string `json:"address" validate:"required"`
	NumberOfEmployees *int   `json:"numberOfEmployees" validate:"omitempty,min=10,max=100"`
	Email             string `json:"companyEmail" validate:"required,email"`
}

type updateCompanyRequest struct {
	Name              *string `json:"companyName" validate:"omitempty,min=3"`
	Description       *string `json:"description"`
	Industry          *string `json:"industry"`
	Address           *string `json:"address"`
	NumberOfEmployees *int    `json:"numberOfEmployees" validate:"omitempty,min=10,max=100"`
	Email             *string `json:"companyEmail" validate:"omitempty,email"`
}

func (a *API) companyRoutes(r *mux.Router) {
	hr := auth.RoleCompanyHR
	r.Handle("/company/create", a.protect(a.createCompany, hr)).Methods(http.MethodPost)
	r.Handle("/company/update/{companyId}", a.protect(a.updateCompany, hr)).Methods(http.MethodPut)
	r.Handle("/company/delete/{companyId}", a.protect(a.deleteCompany, hr)).Methods(http.MethodDelete)
	r.Handle("/company/get-company-jobs/{companyId}", a.protect(a.companyJobs, hr)).Methods(http.MethodGet)
	r.Handle("/company/search-company", a.protect(a.searchCompany, auth.RoleUser, hr)).Methods(http.MethodGet)
	r.Handle("/company/applications-jobs", a.protect(a.applicationsForJobs, hr)).Methods(http.MethodGet)
	r.Handle("/company/applications/excel", a.protect(a.applicationsExcel, hr)).Methods(http.MethodGet)
}

func companyID(r *http.Request) (string, error) {
	id := mux.Vars(r)["companyId"]
	return id, validateVar("companyId", id, "required,ulid")
}

func (a *API) createCompany(w http.ResponseWriter, r *http.Request) {
	var req createCompanyRequest
	if err := bind(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := a.svc.CreateCompany(r.Context(), principal(r), jobboard.CompanyInput{
		Name:              req.Name,
		Description:       req.Description,
		Industry:          req.Industry,
		Address:           req.Address,
		NumberOfEmployees: req.NumberOfEmployees,
		Email:             req.Email,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "company.created", map[string]any{"company_id": c.ID})
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "Company Created Successfully",
		"newCompany": c,
	})
}

func (a *API) updateCompany(w http.ResponseWriter, r *http.Request) {
	id, err := companyID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req updateCompanyRequest
	if err := bind(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := a.svc.UpdateCompany(r.Context(), principal(r), id, jobboard.CompanyUpdate{
		Name:              req.Name,
		Description:       req.Description,
		Industry:          req.Industry,
		Address:           req.Address,
		NumberOfEmployees: req.NumberOfEmployees,
		Email:             req.Email,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "company.updated", map[string]any{"company_id": c.ID})
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":        "Company Updated Successfully",
		"updatedCompany": c,
	})
}

func (a *API) deleteCompany(w http.ResponseWriter, r *http.Request) {
	id, err := companyID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rep, err := a.svc.DeleteCompany(r.Context(), principal(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "company.deleted", map[string]any{"company_id": id, "cascade": rep})
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Company Deleted Successfully",
		"deleted": rep,
	})
}

func (a *API) companyJobs(w http.ResponseWriter, r *http.Request) {
	id, err := companyID(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	cj, err := a.svc.CompanyWithJobs(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cj)
}

func (a *API) searchCompany(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("companyName")
	if err := validateVar("companyName", name, "required"); err != nil {
		respondError(w, r, err)
		return
	}
	list, err := a.svc.SearchCompanies(r.Context(), name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) applicationsForJobs(w http.ResponseWriter, r *http.Request) {
	out, err := a.svc.ApplicationsForPostedJobs(r.Context(), principal(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) applicationsExcel(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("companyName")
	if err := validateVar("companyName", name, "required"); err != nil {
		respondError(w, r, err)
		return
	}
	c, apps, err := a.svc.CompanyApplications(r.Context(), principal(r), name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	rows := make([]export.ApplicationRow, 0, len(apps))
	for _, app := range apps {
		rows = append(rows, export.ApplicationRow{
			ID:          app.ID,
			TechSkills:  app.TechSkills,
			SoftSkills:  app.SoftSkills,
			Resume:      app.Resume,
			PublishedAt: app.CreatedAt,
		})
	}
	body, err := export.Applications(rows)
	if err != nil {
		respondError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "company.applications_exported", map[string]any{"company_id": c.ID, "rows": len(rows)})
	filename := fmt.Sprintf("%s-applications.xlsx", c.Name)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(filename)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
