package auth

import (
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrInvalidSession is returned when the session endpoint answers with a
// payload that is not a session object.
var ErrInvalidSession = errors.New("invalid session payload")

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Label is the role as shown in the UI, e.g. "Admin".
func (r Role) Label() string {
	if r == "" {
		return ""
	}
	return cases.Title(language.English).String(string(r))
}

type User struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Role     Role   `json:"role"`
}

// DisplayName prefers the full name, then the username, then the email.
func (u *User) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}

// Member is the membership record attached to a session. Its shape belongs
// to the API and is passed through untouched.
type Member map[string]any

// Session is what GET /api/auth/user returns for a signed-in caller.
type Session struct {
	User   *User  `json:"user"`
	Member Member `json:"member"`
}

// Credentials are sent once to the login endpoint and never stored.
type Credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// String omits the password so credentials never end up in logs.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Username:%q}", c.Username)
}

// DecodeSession parses a cached session payload. nil (absence) and JSON null
// decode to a nil session.
func DecodeSession(data json.RawMessage) (*Session, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return &s, nil
}

// State is the session as seen by views.
type State struct {
	User            *User  `json:"user"`
	Member          Member `json:"member"`
	IsLoading       bool   `json:"isLoading"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	IsAdmin         bool   `json:"isAdmin"`
	IsMember        bool   `json:"isMember"`
	IsLoggingIn     bool   `json:"isLoggingIn"`
	IsLoggingOut    bool   `json:"isLoggingOut"`
}

// DeriveState computes State from a session (nil when none is cached or the
// probe returned absence) and the in-flight flags.
func DeriveState(s *Session, loading bool) State {
	st := State{IsLoading: loading}
	if s == nil {
		return st
	}
	st.User = s.User
	st.Member = s.Member
	st.IsAuthenticated = s.User != nil
	if s.User != nil {
		st.IsAdmin = s.User.Role == RoleAdmin
		st.IsMember = s.User.Role == RoleMember
	}
	return st
}
