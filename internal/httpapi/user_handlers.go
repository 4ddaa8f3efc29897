package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"jobsearch.app/internal/audit"
	"jobsearch.app/internal/auth"
	"jobsearch.app/internal/jobboard"
)

type signupRequest struct {
	FirstName     string `json:"firstName" validate:"required,personname"`
	LastName      string `json:"lastName" validate:"required,personname"`
	Username      string `json:"username"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,password"`
	DOB           string `json:"DOB" validate:"required,datetime=2006-01-02"`
	Mobile        string `json:"mobileNumber" validate:"required,mobile"`
	Role          string `json:"role" validate:"required,oneof=User Company_HR"`
	Status        string `json:"status" validate:"omitempty,oneof=online offline"`
	RecoveryEmail string `json:"recoveryEmail" validate:"required,email"`
}

type signinRequest struct {
	Email    string `json:"email" validate:"required_without=Mobile,omitempty,email"`
	Mobile   string `json:"mobileNumber" validate:"required_without=Email"`
	Password string `json:"password" validate:"required"`
}

type updateAccountRequest struct {
	FirstName     *string `json:"firstName" validate:"omitempty,personname"`
	LastName      *string `json:"lastName" validate:"omitempty,personname"`
	Email         *string `json:"email" validate:"omitempty,email"`
	DOB           *string `json:"DOB" validate:"omitempty,datetime=2006-01-02"`
	Mobile        *string `json:"mobileNumber" validate:"omitempty,mobile"`
	RecoveryEmail *string `json:"recoveryEmail" validate:"omitempty,email"`
}

type updatePasswordRequest struct {
	Password string `json:"password" validate:"required,password"`
}

type forgetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,otp"`
}

// resetPasswordRequest accepts either the emailed code or a grant from
// verify-otp.
type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required_without=ResetToken,omitempty,email"`
	OTP         string `json:"otp" validate:"required_without=ResetToken,omitempty,otp"`
	ResetToken  string `json:"resetToken"`
	NewPassword string `json:"newPassword" validate:"required,password"`
}

func (a *API) userRoutes(r *mux.Router) {
	r.HandleFunc("/user/signup", a.signup).Methods(http.MethodPost)
	r.HandleFunc("/user/verify-email/{token}", a.verifyEmail).Methods(http.MethodGet)
	r.HandleFunc("/user/signin", a.signin).Methods(http.MethodPost)
	r.Handle("/user/signout", a.protect(a.signout)).Methods(http.MethodPost)
	r.Handle("/user/update-account", a.protect(a.updateAccount)).Methods(http.MethodPut)
	r.Handle("/user/delete-account", a.protect(a.deleteAccount)).Methods(http.MethodDelete)
	r.Handle("/user/user-account", a.protect(a.userAccount)).Methods(http.MethodGet)
	r.HandleFunc("/user/profile-data/{userId}", a.profileData).Methods(http.MethodGet)
	r.Handle("/user/update-password", a.protect(a.updatePassword)).Methods(http.MethodPost, http.MethodPatch)
	r.HandleFunc("/user/forget-password", a.forgetPassword).Methods(http.MethodPost)
	r.HandleFunc("/user/verify-otp", a.verifyOTP).Methods(http.MethodPost)
	r.HandleFunc("/user/reset-password", a.resetPassword).Methods(http.MethodPost, http.MethodPatch)
	r.HandleFunc("/user/recovery-email-associated", a.recoveryEmailAssociated).Methods(http.MethodGet)
}

func (a *API) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := bind(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		respondError(w, r, invalid("role must be one of [User, Company_HR]"))
		return
	}
	u, err := a.svc.SignUp(r.Context(), jobboard.SignUpInput{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Username:      req.Username,
		Email:         req.Email,
		Password:      req.Password,
		DOB:           req.DOB,
		Mobile:        req.Mobile,
		RecoveryEmail: req.RecoveryEmail,
		Role:          role,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.signup", map[string]any{"user_id": u.ID, "role": u.Role.String()})
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User Created Successfully, Please Verify Your Email",
		"newUser": u,
	})
}

func (a *API) verifyEmail(w http.ResponseWriter, r *http.Request) {
	u, err := a.svc.ConfirmEmail(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		respondError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.email_confirmed", map[string]any{"user_id": u.ID})
	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "User Verified Successfully",
		"confirmedUser": u,
	})
}

func (a *API) signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := bind(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	session, u, err := a.svc.SignIn(r.Context(), jobboard.SignInInput{
		Email:    req.Email,
		Mobile:   req.Mobile,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.signin", map[string]any{"user_id": u.ID})
	writeJSON(w, http.StatusCreated, map[string]any{
		"accessToken": session.Token,
		"expiresAt":   session.ExpiresAt,
		"user":        u,
	})
}

func (a *API) signout(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.SignOut(r.Context(), principal(r).UserID); err != nil {
		respondError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.signout", nil)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Signed Out Successfully"})
}

func (a *API) updateAccount(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := bind(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	u, emailChanged, err := a.svc.UpdateAccount(r.Context(), principal(r).UserID, jobboard.AccountUpdate{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		DOB:           req.DOB,
		Mobile:        req.Mobile,
		RecoveryEmail: req.RecoveryEmail,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.updated", map[string]any{"email_changed": emailChanged})
	msg := "User Account Updated Successfully"
	if emailChanged {
		msg = "User Account Updated Successfully, Please Verify Your New Email And Sign In Again"
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":        msg,
		"updatedAccount": u,
	})
}

func (a *API) deleteAccount(w http.ResponseWriter, r *http.Request) {
	rep, err := a.svc.DeleteAccount(r.Context(), principal(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.deleted", map[string]any{"cascade": rep})
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User Account Deleted Successfully",
		"deleted": rep,
	})
}

func (a *API) userAccount(w http.ResponseWriter, r *http.Request) {
	u, err := a.svc.Account(r.Context(), principal(r).UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *API) profileData(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["userId"]
	if err := validateVar("userId", id, "ulid"); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := a.svc.Profile(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) updatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if err := bind(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := a.svc.UpdatePassword(r.Context(), principal(r).UserID, req.Password); err != nil {
		respondError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.password_updated", nil)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Password Updated Successfully"})
}

func (a *API) forgetPassword(w http.ResponseWriter, r *http.Request) {
	var req forgetPasswordRequest
	if err := bind(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := a.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Password reset details sent to your email"})
}

func (a *API) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := bind(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	grant, err := a.svc.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":    "User Account Verified Successfully, Now You Can Reset Your Password With New One",
		"resetToken": grant,
	})
}

func (a *API) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := bind(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	var err error
	if req.ResetToken != "" {
		err = a.svc.RedeemPasswordReset(r.Context(), req.ResetToken, req.NewPassword)
	} else {
		err = a.svc.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword)
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.password_reset", nil)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "New Password Is Updated Successfully, You Can Signin Now"})
}

func (a *API) recoveryEmailAssociated(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("recoveryEmail")
	if err := validateVar("recoveryEmail", email, "required,email"); err != nil {
		respondError(w, r, err)
		return
	}
	refs, err := a.svc.AccountsByRecoveryEmail(r.Context(), email)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refs)
}
