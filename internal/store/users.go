package store

import (
	"strings"

	"careline-be/internal/models"
)

// UpsertUser inserts or replaces a directory user. Insertion order is kept
// for directory listings.
func (s *Store) UpsertUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		return
	}
	if i, ok := s.userIndex[u.ID]; ok {
		s.users[i] = u
		return
	}
	s.userIndex[u.ID] = len(s.users)
	s.users = append(s.users, u)
}

// User returns the directory entry for id.
func (s *Store) User(id string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.userIndex[id]
	if !ok {
		return models.User{}, false
	}
	return s.users[i], true
}

// Users returns all directory users in insertion order.
func (s *Store) Users() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, len(s.users))
	copy(out, s.users)
	return out
}

// UserPatch updates a user in place; nil fields are left untouched.
type UserPatch struct {
	Name   *string
	Avatar *string
	Title  *string
	Phone  *string
}

// UpdateUser applies patch to the user with the given id. Unknown id is a
// no-op.
func (s *Store) UpdateUser(id string, patch UserPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.userIndex[id]
	if !ok {
		return
	}
	u := &s.users[i]
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Avatar != nil {
		u.Avatar = *patch.Avatar
	}
	if patch.Title != nil {
		u.Title = *patch.Title
	}
	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}
}

// userByPhone finds a user by phone number, ignoring formatting. Caller
// holds the lock.
func (s *Store) userByPhone(phone string) (models.User, bool) {
	want := normalizePhone(phone)
	if want == "" {
		return models.User{}, false
	}
	for _, u := range s.users {
		if normalizePhone(u.Phone) == want {
			return u, true
		}
	}
	return models.User{}, false
}

func normalizePhone(p string) string {
	var b strings.Builder
	for _, r := range p {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
