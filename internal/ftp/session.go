package ftp

import (
	"path/filepath"
	"strings"
)

// State represents the current state in the authentication state machine.
type State int

const (
	// StateUnauth is the initial state where only USER and QUIT are accepted.
	StateUnauth State = iota

	// StateUserNamed is entered after a USER naming a known account.
	StateUserNamed

	// StateAuthenticated is entered after a successful PASS.
	StateAuthenticated
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnauth:
		return "UNAUTH"
	case StateUserNamed:
		return "USER_NAMED"
	case StateAuthenticated:
		return "AUTHENTICATED"
	default:
		return "UNKNOWN"
	}
}

// Session holds the per-connection protocol state. All fields are owned by
// the connection's command loop; transfer workers only ever receive
// immutable snapshots (paths, endpoints, open handles).
type Session struct {
	state    State
	username string

	// rootDir is the canonical jail for the authenticated user, set once
	// at authentication and immutable afterwards.
	rootDir string

	// currentDir is always rootDir or a descendant of it.
	currentDir string

	// dataEndpoint is the client address declared by the last PORT command.
	// It is consumed by the next data-bearing command attempt.
	dataEndpoint *Endpoint

	// renameSource is the path recorded by RNFR, consumed by the next
	// command whatever it is.
	renameSource string
}

// NewSession creates a session in the unauthenticated state.
func NewSession() *Session {
	return &Session{state: StateUnauth}
}

// State returns the current authentication state.
func (s *Session) State() State {
	return s.state
}

// Username returns the named or authenticated user, if any.
func (s *Session) Username() string {
	return s.username
}

// SetNamed records a known username and enters StateUserNamed. Entering
// from StateAuthenticated drops the previous login.
func (s *Session) SetNamed(username string) {
	s.state = StateUserNamed
	s.username = username
	s.rootDir = ""
	s.currentDir = ""
}

// Reset drops any named user and returns to StateUnauth.
func (s *Session) Reset() {
	s.state = StateUnauth
	s.username = ""
	s.rootDir = ""
	s.currentDir = ""
}

// SetAuthenticated enters StateAuthenticated with the given canonical jail.
func (s *Session) SetAuthenticated(rootDir string) {
	s.state = StateAuthenticated
	s.rootDir = rootDir
	s.currentDir = rootDir
}

// RootDir returns the session jail, empty before authentication.
func (s *Session) RootDir() string {
	return s.rootDir
}

// CurrentDir returns the current working directory.
func (s *Session) CurrentDir() string {
	return s.currentDir
}

// SetCurrentDir updates the working directory. The caller must have
// resolved path inside the jail.
func (s *Session) SetCurrentDir(path string) {
	s.currentDir = path
}

// SetDataEndpoint records the client endpoint declared by PORT.
func (s *Session) SetDataEndpoint(ep Endpoint) {
	s.dataEndpoint = &ep
}

// TakeDataEndpoint consumes and returns the pending data endpoint, or nil
// when no PORT preceded. A consumed endpoint is never reused.
func (s *Session) TakeDataEndpoint() *Endpoint {
	ep := s.dataEndpoint
	s.dataEndpoint = nil
	return ep
}

// HasDataEndpoint reports whether a PORT endpoint is pending.
func (s *Session) HasDataEndpoint() bool {
	return s.dataEndpoint != nil
}

// SetRenameSource records the RNFR source path.
func (s *Session) SetRenameSource(path string) {
	s.renameSource = path
}

// TakeRenameSource consumes and returns the pending rename source.
func (s *Session) TakeRenameSource() string {
	src := s.renameSource
	s.renameSource = ""
	return src
}

// VirtualPath maps an absolute in-jail path to the client-visible form
// rooted at /<username>.
func (s *Session) VirtualPath(abs string) string {
	rel := strings.TrimPrefix(abs, s.rootDir)
	rel = strings.TrimPrefix(rel, string(filepath.Separator))
	if rel == "" {
		return "/" + s.username
	}
	return "/" + s.username + "/" + filepath.ToSlash(rel)
}
