package migrate

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "files")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected file %s", name)
		}
	}
	if len(ups) == 0 {
		t.Fatal("no migrations embedded")
	}
	for v := range ups {
		if !downs[v] {
			t.Fatalf("migration %s has no down file", v)
		}
	}
}

func TestLatest(t *testing.T) {
	v, err := Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if v != 1 {
		t.Fatalf("expected latest version 1, got %d", v)
	}
}

func TestSchemaDefinesUniqueIndexes(t *testing.T) {
	raw, err := fs.ReadFile(migrationFiles, "files/000001_init.up.sql")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	schema := string(raw)
	for _, name := range []string{
		"users_email_key", "users_mobile_number_key",
		"companies_name_key", "companies_email_key", "jobs_title_key",
	} {
		if !strings.Contains(schema, "create unique index if not exists "+name) {
			t.Fatalf("schema lacks unique index %s", name)
		}
	}
}

func TestStatusString(t *testing.T) {
	cases := []struct {
		st   Status
		want string
	}{
		{Status{Version: 1, Latest: 1}, "version 1 (up to date)"},
		{Status{Version: 0, Latest: 1}, "version 0 (latest 1, 1 pending)"},
		{Status{Version: 1, Dirty: true, Latest: 1}, "version 1 (dirty, latest 1)"},
	}
	for _, tc := range cases {
		if got := tc.st.String(); got != tc.want {
			t.Fatalf("got %q want %q", got, tc.want)
		}
	}
}
