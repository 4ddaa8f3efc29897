package jobboard

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"jobsearch.app/internal/auth"
	"jobsearch.app/internal/mail"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *InMemory
	tokens *auth.Service
	mailer *mail.Recorder
	svc    *Service
	clock  *testClock
	seq    int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &testClock{t: time.Now().UTC()}
	tokens, err := auth.NewService(auth.NewMemorySessionStore(), auth.Keys{
		Session:           []byte("s-secret"),
		EmailConfirmation: []byte("c-secret"),
		PasswordReset:     []byte("r-secret"),
	}, auth.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}
	store := NewInMemory()
	mailer := mail.NewRecorder()
	svc, err := NewService(store, tokens, mailer, WithBaseURL("https://jobs.example.com/"), WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &fixture{t: t, ctx: context.Background(), store: store, tokens: tokens, mailer: mailer, svc: svc, clock: clock}
}

var linkToken = regexp.MustCompile(`/api/user/verify-email/([A-Za-z0-9_\-.]+)`)
var otpPattern = regexp.MustCompile(`\b(\d{6})\b`)

func (f *fixture) confirmationToken(email string) string {
	f.t.Helper()
	msg, ok := f.mailer.Last(email)
	if !ok {
		f.t.Fatalf("no mail sent to %s", email)
	}
	m := linkToken.FindStringSubmatch(msg.Text)
	if m == nil {
		f.t.Fatalf("no confirmation link in %q", msg.Text)
	}
	return m[1]
}

func (f *fixture) otp(email string) string {
	f.t.Helper()
	msg, ok := f.mailer.Last(email)
	if !ok {
		f.t.Fatalf("no mail sent to %s", email)
	}
	m := otpPattern.FindStringSubmatch(msg.Text)
	if m == nil {
		f.t.Fatalf("no otp in %q", msg.Text)
	}
	return m[1]
}

func (f *fixture) signUp(first, email string, role auth.Role) *User {
	f.t.Helper()
	f.seq++
	u, err := f.svc.SignUp(f.ctx, SignUpInput{
		FirstName:     first,
		LastName:      "Tester",
		Email:         email,
		Password:      "Secret1!",
		DOB:           "1990-01-01",
		Mobile:        fmt.Sprintf("010%08d", f.seq),
		RecoveryEmail: "recovery-" + email,
		Role:          role,
	})
	if err != nil {
		f.t.Fatalf("SignUp(%s): %v", email, err)
	}
	return u
}

// activeUser signs up, confirms and signs in, returning the principal.
func (f *fixture) activeUser(first, email string, role auth.Role) auth.Principal {
	f.t.Helper()
	u := f.signUp(first, email, role)
	if _, err := f.svc.ConfirmEmail(f.ctx, f.confirmationToken(email)); err != nil {
		f.t.Fatalf("ConfirmEmail: %v", err)
	}
	return u.Principal()
}

func (f *fixture) assertConsistent() {
	f.t.Helper()
	problems, err := CheckReferences(f.ctx, f.store)
	if err != nil {
		f.t.Fatalf("CheckReferences: %v", err)
	}
	if len(problems) > 0 {
		f.t.Fatalf("inconsistent references:\n%s", strings.Join(problems, "\n"))
	}
}

func TestSignUpConfirmSignIn(t *testing.T) {
	f := newFixture(t)
	u := f.signUp("Alice", "Alice@Example.com", auth.RoleUser)
	if u.Email != "alice@example.com" || u.Confirmed || u.Status != StatusOffline {
		t.Fatalf("unexpected new user %+v", u)
	}

	_, _, err := f.svc.SignIn(f.ctx, SignInInput{Email: "alice@example.com", Password: "Secret1!"})
	if !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}

	token := f.confirmationToken("alice@example.com")
	confirmed, err := f.svc.ConfirmEmail(f.ctx, token)
	if err != nil {
		t.Fatalf("ConfirmEmail: %v", err)
	}
	if !confirmed.Confirmed {
		t.Fatal("user not confirmed")
	}
	if _, err := f.svc.ConfirmEmail(f.ctx, token); !errors.Is(err, ErrAbsent) {
		t.Fatalf("second confirmation: expected ErrAbsent, got %v", err)
	}

	first, user, err := f.svc.SignIn(f.ctx, SignInInput{Email: "alice@example.com", Password: "Secret1!"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if user.Status != StatusOnline {
		t.Fatalf("expected online status, got %s", user.Status)
	}
	second, _, err := f.svc.SignIn(f.ctx, SignInInput{Mobile: u.Mobile, Password: "Secret1!"})
	if err != nil {
		t.Fatalf("SignIn by mobile: %v", err)
	}
	if _, err := f.tokens.AuthenticateToken(f.ctx, first.Token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("first session should be replaced, got %v", err)
	}
	if _, err := f.tokens.AuthenticateToken(f.ctx, second.Token); err != nil {
		t.Fatalf("second session rejected: %v", err)
	}

	if _, _, err := f.svc.SignIn(f.ctx, SignInInput{Email: u.RecoveryEmail, Password: "Secret1!"}); err != nil {
		t.Fatalf("SignIn by recovery email: %v", err)
	}
	if _, _, err := f.svc.SignIn(f.ctx, SignInInput{Email: "alice@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := f.svc.SignIn(f.ctx, SignInInput{Email: "nobody@example.com", Password: "Secret1!"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestSignUpConflictNamesFields(t *testing.T) {
	f := newFixture(t)
	u := f.signUp("Alice", "alice@example.com", auth.RoleUser)

	_, err := f.svc.SignUp(f.ctx, SignUpInput{
		FirstName: "Alicia", LastName: "Other", Email: "ALICE@example.com", Password: "Secret1!",
		Mobile: u.Mobile, Role: auth.RoleUser,
	})
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if strings.Join(ce.Fields, ",") != "email,mobileNumber" {
		t.Fatalf("unexpected conflict fields %v", ce.Fields)
	}
	if !errors.Is(err, ErrConflict) {
		t.Fatal("ConflictError should unwrap to ErrConflict")
	}
}

func TestSignUpDeliveryFailureStoresNothing(t *testing.T) {
	f := newFixture(t)
	f.mailer.Reject("bounce@example.com")

	_, err := f.svc.SignUp(f.ctx, SignUpInput{
		FirstName: "Bob", LastName: "Bounce", Email: "bounce@example.com", Password: "Secret1!",
		Mobile: "01012345678", Role: auth.RoleUser,
	})
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if _, err := f.store.Users(f.ctx).FindByEmail(f.ctx, "bounce@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("user should not be stored, got %v", err)
	}
}

func TestConfirmEmailRejectsForeignAndExpiredTokens(t *testing.T) {
	f := newFixture(t)
	f.activeUser("Carol", "carol@example.com", auth.RoleUser)
	session, _, err := f.svc.SignIn(f.ctx, SignInInput{Email: "carol@example.com", Password: "Secret1!"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if _, err := f.svc.ConfirmEmail(f.ctx, session.Token); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	f.signUp("Dave", "dave@example.com", auth.RoleUser)
	token := f.confirmationToken("dave@example.com")
	f.clock.Advance(11 * time.Minute)
	if _, err := f.svc.ConfirmEmail(f.ctx, token); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expired confirmation: expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateAccountEmailChange(t *testing.T) {
	f := newFixture(t)
	p := f.activeUser("Erin", "erin@example.com", auth.RoleUser)
	other := f.activeUser("Frank", "frank@example.com", auth.RoleUser)
	session, _, err := f.svc.SignIn(f.ctx, SignInInput{Email: "erin@example.com", Password: "Secret1!"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	taken := other.Email
	if _, _, err := f.svc.UpdateAccount(f.ctx, p.UserID, AccountUpdate{Email: &taken}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	first := "Erina"
	u, changed, err := f.svc.UpdateAccount(f.ctx, p.UserID, AccountUpdate{FirstName: &first})
	if err != nil || changed {
		t.Fatalf("plain update: changed=%v err=%v", changed, err)
	}
	if u.FirstName != "Erina" || !u.Confirmed {
		t.Fatalf("unexpected user after update %+v", u)
	}

	fresh := "erin.new@example.com"
	u, changed, err = f.svc.UpdateAccount(f.ctx, p.UserID, AccountUpdate{Email: &fresh})
	if err != nil || !changed {
		t.Fatalf("email update: changed=%v err=%v", changed, err)
	}
	if u.Confirmed || u.Status != StatusOffline {
		t.Fatalf("email change should reset confirmation: %+v", u)
	}
	if _, ok := f.mailer.Last(fresh); !ok {
		t.Fatal("expected confirmation mail to new address")
	}
	if _, err := f.tokens.AuthenticateToken(f.ctx, session.Token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("session should be revoked, got %v", err)
	}
}

func TestPasswordResetWithOTP(t *testing.T) {
	f := newFixture(t)
	f.activeUser("Grace", "grace@example.com", auth.RoleUser)
	session, _, err := f.svc.SignIn(f.ctx, SignInInput{Email: "grace@example.com", Password: "Secret1!"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if err := f.svc.ForgotPassword(f.ctx, "grace@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	otp := f.otp("grace@example.com")
	wrong := "000000"
	if otp == wrong {
		wrong = "111111"
	}
	if err := f.svc.ResetPassword(f.ctx, "grace@example.com", wrong, "NewSecret1!"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("wrong otp: expected ErrInvalidOTP, got %v", err)
	}
	if err := f.svc.ResetPassword(f.ctx, "grace@example.com", otp, "NewSecret1!"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if err := f.svc.ResetPassword(f.ctx, "grace@example.com", otp, "Other1!x"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("otp reuse: expected ErrInvalidOTP, got %v", err)
	}
	if _, err := f.tokens.AuthenticateToken(f.ctx, session.Token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("reset should revoke session, got %v", err)
	}
	if _, _, err := f.svc.SignIn(f.ctx, SignInInput{Email: "grace@example.com", Password: "NewSecret1!"}); err != nil {
		t.Fatalf("SignIn with new password: %v", err)
	}
}

func TestPasswordResetOTPExpires(t *testing.T) {
	f := newFixture(t)
	f.activeUser("Heidi", "heidi@example.com", auth.RoleUser)
	if err := f.svc.ForgotPassword(f.ctx, "heidi@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	otp := f.otp("heidi@example.com")
	f.clock.Advance(21 * time.Minute)
	if _, err := f.svc.VerifyOTP(f.ctx, "heidi@example.com", otp); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}
	n, err := f.svc.PurgeExpiredOTPs(f.ctx)
	if err != nil || n != 1 {
		t.Fatalf("PurgeExpiredOTPs: n=%d err=%v", n, err)
	}
}

func TestAccountsByRecoveryEmail(t *testing.T) {
	f := newFixture(t)
	u := f.signUp("Ivan", "ivan@example.com", auth.RoleUser)
	refs, err := f.svc.AccountsByRecoveryEmail(f.ctx, u.RecoveryEmail)
	if err != nil {
		t.Fatalf("AccountsByRecoveryEmail: %v", err)
	}
	if len(refs) != 1 || refs[0].ID != u.ID {
		t.Fatalf("unexpected refs %+v", refs)
	}
	if _, err := f.svc.AccountsByRecoveryEmail(f.ctx, "none@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := f.svc.Profile(f.ctx, "missing"); !errors.Is(err, ErrAbsent) {
		t.Fatalf("expected ErrAbsent, got %v", err)
	}
}

func TestResolvePrincipal(t *testing.T) {
	f := newFixture(t)
	p := f.activeUser("Judy", "judy@example.com", auth.RoleCompanyHR)
	got, err := f.svc.ResolvePrincipal(f.ctx, p.UserID)
	if err != nil || got.Role != auth.RoleCompanyHR {
		t.Fatalf("ResolvePrincipal: %+v %v", got, err)
	}
	if _, err := f.svc.ResolvePrincipal(f.ctx, "gone"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected auth.ErrNotFound, got %v", err)
	}
}
