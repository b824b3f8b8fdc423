package userdb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func writeCreds(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ftpusers.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing credential file: %v", err)
	}
	return path
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load("/nonexistent/ftpusers.csv"); err == nil {
		t.Fatal("expected error for missing credential file")
	}
}

func TestLoadAndLookup(t *testing.T) {
	path := writeCreds(t, "alice,wonderland\nbob,builder\n")

	store, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	pass, ok := store.Lookup("alice")
	if !ok || pass != "wonderland" {
		t.Errorf("Lookup(alice) = %q, %v; want wonderland, true", pass, ok)
	}

	if _, ok := store.Lookup("mallory"); ok {
		t.Error("Lookup(mallory) succeeded, want miss")
	}
}

func TestParseEdgeCases(t *testing.T) {
	long := strings.Repeat("x", MaxFieldLength+1)

	tests := []struct {
		name      string
		content   string
		username  string
		wantPass  string
		wantFound bool
	}{
		{
			name:      "trailing CR tolerated",
			content:   "alice,wonderland\r\n",
			username:  "alice",
			wantPass:  "wonderland",
			wantFound: true,
		},
		{
			name:      "empty lines skipped",
			content:   "\n\nalice,wonderland\n\n",
			username:  "alice",
			wantPass:  "wonderland",
			wantFound: true,
		},
		{
			name:      "line without comma skipped",
			content:   "garbage\nalice,wonderland\n",
			username:  "garbage",
			wantFound: false,
		},
		{
			name:      "duplicate username first wins",
			content:   "alice,first\nalice,second\n",
			username:  "alice",
			wantPass:  "first",
			wantFound: true,
		},
		{
			name:      "overlong username skipped",
			content:   long + ",secret\n",
			username:  long,
			wantFound: false,
		},
		{
			name:      "overlong password skipped",
			content:   "alice," + long + "\n",
			username:  "alice",
			wantFound: false,
		},
		{
			name:      "password may contain commas",
			content:   "alice,pass,with,commas\n",
			username:  "alice",
			wantPass:  "pass,with,commas",
			wantFound: true,
		},
		{
			name:      "empty password allowed",
			content:   "alice,\n",
			username:  "alice",
			wantPass:  "",
			wantFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Load(writeCreds(t, tt.content))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			pass, ok := store.Lookup(tt.username)
			if ok != tt.wantFound {
				t.Fatalf("Lookup(%q) found = %v, want %v", tt.username, ok, tt.wantFound)
			}
			if ok && pass != tt.wantPass {
				t.Errorf("Lookup(%q) = %q, want %q", tt.username, pass, tt.wantPass)
			}
		})
	}
}

func TestVerifyPlaintext(t *testing.T) {
	store, err := Load(writeCreds(t, "alice,wonderland\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !store.Verify("alice", "wonderland") {
		t.Error("Verify with correct password failed")
	}

	if store.Verify("alice", "Wonderland") {
		t.Error("Verify is not byte-exact")
	}

	if store.Verify("alice", "wonderlan") {
		t.Error("Verify accepted a prefix")
	}

	if store.Verify("nobody", "wonderland") {
		t.Error("Verify accepted an unknown user")
	}
}

func TestVerifyBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("wonderland"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("generating bcrypt hash: %v", err)
	}

	store, err := Load(writeCreds(t, "alice,"+string(hash)+"\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !store.Verify("alice", "wonderland") {
		t.Error("Verify with correct password against bcrypt hash failed")
	}

	if store.Verify("alice", "wrong") {
		t.Error("Verify accepted wrong password against bcrypt hash")
	}
}

func TestReload(t *testing.T) {
	path := writeCreds(t, "alice,wonderland\n")

	store, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("bob,builder\n"), 0o644); err != nil {
		t.Fatalf("rewriting credential file: %v", err)
	}

	if err := store.Reload(path); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if _, ok := store.Lookup("alice"); ok {
		t.Error("alice still present after reload")
	}

	if !store.Verify("bob", "builder") {
		t.Error("bob missing after reload")
	}
}

func TestReloadFailureKeepsTable(t *testing.T) {
	path := writeCreds(t, "alice,wonderland\n")

	store, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := store.Reload(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected Reload of missing file to fail")
	}

	if !store.Verify("alice", "wonderland") {
		t.Error("previous table lost after failed reload")
	}
}
