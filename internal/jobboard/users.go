package jobboard

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"jobsearch.app/internal/auth"
	"jobsearch.app/internal/ids"
	"jobsearch.app/internal/mail"
	"jobsearch.app/internal/obs"
)

type SignUpInput struct {
	FirstName     string
	LastName      string
	Username      string
	Email         string
	Password      string
	DOB           string
	Mobile        string
	RecoveryEmail string
	Role          auth.Role
}

// SignInInput identifies the account by Email (primary or recovery) or Mobile.
type SignInInput struct {
	Email    string
	Mobile   string
	Password string
}

// AccountUpdate carries optional field changes; nil fields are untouched.
type AccountUpdate struct {
	FirstName     *string
	LastName      *string
	Email         *string
	DOB           *string
	Mobile        *string
	RecoveryEmail *string
}

// ResolvePrincipal implements auth.PrincipalResolver.
func (s *Service) ResolvePrincipal(ctx context.Context, userID string) (auth.Principal, error) {
	u, err := s.store.Users(ctx).Find(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return auth.Principal{}, fmt.Errorf("user %s: %w", userID, auth.ErrNotFound)
		}
		return auth.Principal{}, err
	}
	return u.Principal(), nil
}

func (s *Service) confirmationMessage(to, token string) mail.Message {
	link := s.baseURL + "/api/user/verify-email/" + token
	return mail.Message{
		To:      []string{to},
		Subject: "Welcome To Job Search App, Verify Your Email Address",
		Text:    "Please verify your email address: " + link,
		HTML:    fmt.Sprintf(`<a href="%s">Please Verify Your Email Address</a>`, html.EscapeString(link)),
	}
}

// SignUp registers an unconfirmed account. The confirmation email is sent
// before the account is stored, so a delivery failure leaves nothing behind.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*User, error) {
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: role", ErrInvalidInput)
	}
	users := s.store.Users(ctx)
	email := normalizeEmail(in.Email)
	mobile := strings.TrimSpace(in.Mobile)

	fields, err := users.Conflicts(ctx, email, mobile, "")
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		return nil, conflict("user", fields...)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: password", ErrInvalidInput)
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = strings.TrimSpace(in.FirstName) + " " + strings.TrimSpace(in.LastName)
	}
	u := &User{
		ID:            ids.New(),
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Username:      username,
		Email:         email,
		PasswordHash:  hash,
		Role:          in.Role,
		RecoveryEmail: normalizeEmail(in.RecoveryEmail),
		DOB:           strings.TrimSpace(in.DOB),
		Mobile:        mobile,
		Status:        StatusOffline,
	}

	token, err := s.tokens.SignEmailConfirmation(u.ID)
	if err != nil {
		return nil, err
	}
	if err := s.deliver(ctx, s.confirmationMessage(u.Email, token)); err != nil {
		return nil, err
	}
	if err := users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ConfirmEmail flips the confirmation flag of the user named by token.
func (s *Service) ConfirmEmail(ctx context.Context, token string) (*User, error) {
	userID, err := s.tokens.VerifyEmailConfirmation(token)
	if err != nil {
		return nil, fmt.Errorf("%w: confirmation link is invalid or expired", ErrInvalidInput)
	}
	u, err := s.store.Users(ctx).Confirm(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrAbsent
		}
		return nil, err
	}
	return u, nil
}

// SignIn checks credentials, marks the user online and issues a session
// token that replaces any previous one.
func (s *Service) SignIn(ctx context.Context, in SignInInput) (auth.SessionToken, *User, error) {
	email := normalizeEmail(in.Email)
	mobile := strings.TrimSpace(in.Mobile)
	if email == "" && mobile == "" {
		return auth.SessionToken{}, nil, ErrInvalidCredentials
	}
	users := s.store.Users(ctx)
	u, err := users.FindByLogin(ctx, email, mobile)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return auth.SessionToken{}, nil, ErrInvalidCredentials
		}
		return auth.SessionToken{}, nil, err
	}
	if err := auth.VerifyPassword(u.PasswordHash, in.Password); err != nil {
		return auth.SessionToken{}, nil, ErrInvalidCredentials
	}
	if !u.Confirmed {
		return auth.SessionToken{}, nil, ErrNotConfirmed
	}
	u.Status = StatusOnline
	if err := users.Update(ctx, u); err != nil {
		return auth.SessionToken{}, nil, err
	}
	session, err := s.tokens.Issue(ctx, u.ID)
	if err != nil {
		return auth.SessionToken{}, nil, err
	}
	obs.SessionsIssued.Inc()
	return session, u, nil
}

// SignOut marks the user offline and revokes the session.
func (s *Service) SignOut(ctx context.Context, userID string) error {
	users := s.store.Users(ctx)
	u, err := users.Find(ctx, userID)
	if err != nil {
		return err
	}
	u.Status = StatusOffline
	if err := users.Update(ctx, u); err != nil {
		return err
	}
	return s.tokens.Revoke(ctx, userID)
}

// UpdateAccount applies upd to the caller's account. Changing the email
// resets confirmation, sends a new confirmation link and ends the session;
// the second return value reports that case.
func (s *Service) UpdateAccount(ctx context.Context, userID string, upd AccountUpdate) (*User, bool, error) {
	users := s.store.Users(ctx)
	u, err := users.Find(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	emailChanged := false
	if upd.Email != nil {
		if e := normalizeEmail(*upd.Email); e != u.Email {
			u.Email = e
			emailChanged = true
		}
	}
	if upd.Mobile != nil {
		u.Mobile = strings.TrimSpace(*upd.Mobile)
	}
	fields, err := users.Conflicts(ctx, u.Email, u.Mobile, u.ID)
	if err != nil {
		return nil, false, err
	}
	if len(fields) > 0 {
		return nil, false, conflict("user", fields...)
	}
	if upd.FirstName != nil {
		u.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		u.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.DOB != nil {
		u.DOB = strings.TrimSpace(*upd.DOB)
	}
	if upd.RecoveryEmail != nil {
		u.RecoveryEmail = normalizeEmail(*upd.RecoveryEmail)
	}

	if emailChanged {
		token, err := s.tokens.SignEmailConfirmation(u.ID)
		if err != nil {
			return nil, false, err
		}
		if err := s.deliver(ctx, s.confirmationMessage(u.Email, token)); err != nil {
			return nil, false, err
		}
		u.Confirmed = false
		u.Status = StatusOffline
	}
	if err := users.Update(ctx, u); err != nil {
		return nil, false, err
	}
	if emailChanged {
		if err := s.tokens.Revoke(ctx, u.ID); err != nil {
			return nil, true, err
		}
	}
	return u, emailChanged, nil
}

// DeleteAccount removes the caller and everything the caller owns.
func (s *Service) DeleteAccount(ctx context.Context, userID string) (CascadeReport, error) {
	return s.cascade.DeleteUser(ctx, userID)
}

// Account returns the caller's own record.
func (s *Service) Account(ctx context.Context, userID string) (*User, error) {
	return s.store.Users(ctx).Find(ctx, userID)
}

// Profile returns the public projection of any user.
func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	u, err := s.store.Users(ctx).Find(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Profile{}, ErrAbsent
		}
		return Profile{}, err
	}
	return u.Profile(), nil
}

// UpdatePassword replaces the caller's password.
func (s *Service) UpdatePassword(ctx context.Context, userID, password string) error {
	users := s.store.Users(ctx)
	u, err := users.Find(ctx, userID)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("%w: password", ErrInvalidInput)
	}
	u.PasswordHash = hash
	return users.Update(ctx, u)
}

// ForgotPassword emails a one-time code to address, which may be the primary
// or the recovery email of the account. The code is stored hashed and
// expires with the password reset window.
func (s *Service) ForgotPassword(ctx context.Context, address string) error {
	address = normalizeEmail(address)
	users := s.store.Users(ctx)
	u, err := users.FindByLogin(ctx, address, "")
	if err != nil {
		return err
	}
	otp, err := auth.GenerateOTP()
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(otp)
	if err != nil {
		return err
	}
	expires := s.now().UTC().Add(auth.KindPasswordReset.TTL())
	u.OTPHash = hash
	u.OTPExpiresAt = &expires
	if err := users.Update(ctx, u); err != nil {
		return err
	}
	return s.deliver(ctx, mail.Message{
		To:      []string{address},
		Subject: "Password Reset Code",
		Text:    fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.", otp, int(auth.KindPasswordReset.TTL().Minutes())),
		HTML:    fmt.Sprintf("<p>Your password reset code is <b>%s</b>.</p>", otp),
	})
}

// VerifyOTP checks the emailed code and exchanges it for a password reset
// grant. The code is consumed.
func (s *Service) VerifyOTP(ctx context.Context, address, otp string) (string, error) {
	users := s.store.Users(ctx)
	u, err := users.FindByLogin(ctx, normalizeEmail(address), "")
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidOTP
		}
		return "", err
	}
	if u.OTPHash == "" || u.OTPExpiresAt == nil || !s.now().Before(*u.OTPExpiresAt) {
		return "", ErrInvalidOTP
	}
	if err := auth.VerifyPassword(u.OTPHash, strings.TrimSpace(otp)); err != nil {
		return "", ErrInvalidOTP
	}
	u.OTPHash, u.OTPExpiresAt = "", nil
	if err := users.Update(ctx, u); err != nil {
		return "", err
	}
	return s.tokens.SignPasswordReset(u.ID)
}

// RedeemPasswordReset sets a new password using a grant from VerifyOTP and
// ends any live session.
func (s *Service) RedeemPasswordReset(ctx context.Context, grant, password string) error {
	userID, err := s.tokens.VerifyPasswordReset(grant)
	if err != nil {
		return ErrInvalidOTP
	}
	users := s.store.Users(ctx)
	u, err := users.Find(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidOTP
		}
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("%w: password", ErrInvalidInput)
	}
	u.PasswordHash = hash
	u.Status = StatusOffline
	if err := users.Update(ctx, u); err != nil {
		return err
	}
	return s.tokens.Revoke(ctx, u.ID)
}

// ResetPassword verifies the code and sets the new password in one call.
func (s *Service) ResetPassword(ctx context.Context, address, otp, password string) error {
	grant, err := s.VerifyOTP(ctx, address, otp)
	if err != nil {
		return err
	}
	return s.RedeemPasswordReset(ctx, grant, password)
}

// AccountsByRecoveryEmail lists accounts sharing a recovery address.
func (s *Service) AccountsByRecoveryEmail(ctx context.Context, email string) ([]AccountRef, error) {
	users, err := s.store.Users(ctx).ListByRecoveryEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	refs := make([]AccountRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, AccountRef{ID: u.ID, Email: u.Email, Username: u.Username})
	}
	return refs, nil
}

// PurgeExpiredOTPs clears one-time codes past their expiry.
func (s *Service) PurgeExpiredOTPs(ctx context.Context) (int64, error) {
	return s.store.Users(ctx).ClearExpiredOTPs(ctx, s.now().UTC())
}
