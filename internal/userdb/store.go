// Package userdb provides the read-mostly credential store backing USER/PASS
// authentication. Credentials are loaded from a two-column CSV file of
// username,password records.
package userdb

import (
	"bufio"
	"crypto/subtle"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxFieldLength is the maximum accepted length of a username or password.
// Longer fields mark the record as malformed and it is skipped. Password
// fields holding a bcrypt hash ("$2" prefix) are exempt from the limit.
const MaxFieldLength = 49

// Store is a credential store mapping usernames to passwords.
// Lookups are safe for concurrent use; Reload swaps the whole table.
type Store struct {
	mu    sync.RWMutex
	users map[string]string
}

// Load reads the credential file at path and returns a populated Store.
// A missing or unreadable file is an error; the caller treats it as fatal
// at startup.
func Load(path string) (*Store, error) {
	users, err := parseFile(path)
	if err != nil {
		return nil, err
	}
	return &Store{users: users}, nil
}

// parseFile parses a two-column CSV credential file. Lines are
// username,password with an optional trailing CR. Empty and malformed
// lines are skipped. The first record for a username wins.
func parseFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening credential file: %w", err)
	}
	defer f.Close()

	users := make(map[string]string)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		name, pass, ok := strings.Cut(line, ",")
		if !ok || name == "" {
			continue
		}
		if len(name) > MaxFieldLength || (len(pass) > MaxFieldLength && !strings.HasPrefix(pass, "$2")) {
			continue
		}

		if _, exists := users[name]; exists {
			// First match wins
			continue
		}
		users[name] = pass
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading credential file: %w", err)
	}

	return users, nil
}

// Reload re-reads the credential file and atomically replaces the table.
// On parse failure the previous table is kept.
func (s *Store) Reload(path string) error {
	users, err := parseFile(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	return nil
}

// Lookup returns the stored password for username.
func (s *Store) Lookup(username string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pass, ok := s.users[username]
	return pass, ok
}

// Verify reports whether password matches the stored credential for
// username. Stored values with a bcrypt prefix are verified as hashes;
// anything else compares byte-exact in constant time.
func (s *Store) Verify(username, password string) bool {
	stored, ok := s.Lookup(username)
	if !ok {
		return false
	}

	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}

	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// Len returns the number of loaded users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}
