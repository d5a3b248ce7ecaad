package mockapi

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Account is a user the fake API accepts.
type Account struct {
	Username string
	Password string
	Email    string
	Name     string
	Role     string
	Member   map[string]any
}

// DefaultAccounts are the demo logins available in local runs.
func DefaultAccounts() []Account {
	return []Account{
		{
			Username: "admin",
			Password: "admin123",
			Email:    "admin@loci.app",
			Name:     "Loci Admin",
			Role:     "admin",
			Member:   map[string]any{"plan": "team", "status": "active"},
		},
		{
			Username: "demo",
			Password: "password123",
			Email:    "demo@loci.app",
			Name:     "Demo User",
			Role:     "member",
			Member:   map[string]any{"plan": "free", "status": "active"},
		},
	}
}

type account struct {
	Account
	ID           string
	passwordHash []byte
}

type accountStore struct {
	mu         sync.RWMutex
	byUsername map[string]*account
	byID       map[string]*account
}

func newAccountStore(accounts []Account, cost int) (*accountStore, error) {
	s := &accountStore{
		byUsername: make(map[string]*account, len(accounts)),
		byID:       make(map[string]*account, len(accounts)),
	}
	for _, a := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), cost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", a.Username, err)
		}
		stored := &account{Account: a, ID: uuid.NewString(), passwordHash: hash}
		stored.Password = ""
		s.byUsername[a.Username] = stored
		s.byID[stored.ID] = stored
	}
	return s, nil
}

// authenticate returns the account when username and password match.
func (s *accountStore) authenticate(username, password string) (*account, bool) {
	s.mu.RLock()
	a, ok := s.byUsername[username]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) != nil {
		return nil, false
	}
	return a, true
}

func (s *accountStore) byAccountID(id string) (*account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	return a, ok
}
