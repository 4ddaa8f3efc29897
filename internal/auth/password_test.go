package auth

import "testing"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Secret1!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := VerifyPassword(hash, "Secret1!"); err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if err := VerifyPassword(hash, "secret1!"); err == nil {
		t.Fatal("expected mismatch")
	}
	if _, err := HashPassword(""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestPasswordMeetsPolicy(t *testing.T) {
	cases := map[string]bool{
		"Abcdef1!":   true,
		"Zz9@zzzz":   true,
		"abcdef1!":   false,
		"ABCDEF1!":   false,
		"Abcdefg!":   false,
		"Abcdefg1":   false,
		"Ab1!":       false,
		"Abcdef1!#":  false,
		"Abc def1!":  false,
		"Pässword1!": false,
	}
	for pw, want := range cases {
		if got := PasswordMeetsPolicy(pw); got != want {
			t.Fatalf("PasswordMeetsPolicy(%q)=%v, want %v", pw, got, want)
		}
	}
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 50; i++ {
		otp, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP: %v", err)
		}
		if len(otp) != 6 {
			t.Fatalf("unexpected otp length %q", otp)
		}
		for _, r := range otp {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit in otp %q", otp)
			}
		}
	}
}
