package auth

import (
	"errors"
	"testing"
)

func TestAuthorize(t *testing.T) {
	user := &Principal{UserID: "u", Role: RoleUser}
	hr := &Principal{UserID: "h", Role: RoleCompanyHR}
	bogus := &Principal{UserID: "x", Role: Role(42)}

	cases := []struct {
		name      string
		principal *Principal
		allowed   []Role
		want      error
	}{
		{"no identity", nil, []Role{RoleUser}, ErrUnauthenticated},
		{"user allowed", user, []Role{RoleUser}, nil},
		{"hr allowed in mixed set", hr, []Role{RoleUser, RoleCompanyHR}, nil},
		{"user denied", user, []Role{RoleCompanyHR}, ErrForbidden},
		{"empty set denies", hr, nil, ErrForbidden},
		{"undefined role denied", bogus, []Role{Role(42)}, ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.principal, tc.allowed...)
			if tc.want == nil && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestRoleText(t *testing.T) {
	for _, r := range Roles {
		b, err := r.MarshalText()
		if err != nil {
			t.Fatalf("marshal %v: %v", r, err)
		}
		var back Role
		if err := back.UnmarshalText(b); err != nil || back != r {
			t.Fatalf("round trip %v: got %v err %v", r, back, err)
		}
	}
	if _, err := ParseRole("Admin"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := Role(0).MarshalText(); err == nil {
		t.Fatal("zero role must not marshal")
	}
}
