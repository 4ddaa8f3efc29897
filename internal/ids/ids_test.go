package ids

import (
	"testing"
	"time"
)

func TestNewIsMonotonic(t *testing.T) {
	prev := New()
	for i := 0; i < 1000; i++ {
		next := New()
		if next <= prev {
			t.Fatalf("ids not increasing: %s then %s", prev, next)
		}
		prev = next
	}
}

func TestValid(t *testing.T) {
	if !Valid(New()) {
		t.Fatal("fresh id reported invalid")
	}
	for _, bad := range []string{"", "abc", "01HZZZZZZZZZZZZZZZZZZZZZZZZZ", "not-a-ulid-at-all-0000000000"} {
		if Valid(bad) {
			t.Fatalf("Valid(%q) = true", bad)
		}
	}
}

func TestTime(t *testing.T) {
	before := time.Now().Add(-time.Second)
	ts, ok := Time(New())
	if !ok {
		t.Fatal("expected timestamp")
	}
	if ts.Before(before) {
		t.Fatalf("timestamp %v earlier than %v", ts, before)
	}
	if _, ok := Time("bogus"); ok {
		t.Fatal("expected failure for malformed id")
	}
}
