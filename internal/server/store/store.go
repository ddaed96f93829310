package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmitrijs2005/authserver/internal/common"
	"github.com/dmitrijs2005/authserver/internal/cryptox"
	"github.com/dmitrijs2005/authserver/internal/filex"
)

// Store is the single writer of the credential file. It is only ever called
// from the single dispatch goroutine, so it needs no locking.
//
// Every mutation is atomic: the whole record set is written to a temp file
// in the store's directory and renamed over the old file, and only then is
// the in-memory index updated. A flush failure leaves both unchanged.
type Store struct {
	path   string
	users  map[string]*User  // keyed by user id
	byName map[string]string // username -> user id
}

// Open loads the full record set from path into memory, creating the file
// (and its directory) if it does not exist yet.
func Open(path string) (*Store, error) {
	if err := filex.EnsureFile(path); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStore, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStore, err)
	}
	defer f.Close()

	s := &Store{
		path:   path,
		users:  make(map[string]*User),
		byName: make(map[string]string),
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		u, err := parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", common.ErrorStore, path, err)
		}
		s.users[u.ID] = u
		s.byName[u.Username] = u.ID
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStore, err)
	}
	return s, nil
}

// UserUpdate selects the fields EditUser should change; nil means keep.
type UserUpdate struct {
	Username  *string
	FirstName *string
	LastName  *string
	Email     *string
	Admin     *bool
}

// AddUser persists a new record. The username must not be taken.
func (s *Store) AddUser(u *User) error {
	if _, taken := s.byName[u.Username]; taken {
		return common.ErrorUserExists
	}

	record := *u
	if err := s.flush(append(s.snapshot(), &record)); err != nil {
		return err
	}
	s.users[record.ID] = &record
	s.byName[record.Username] = record.ID
	return nil
}

// EditUser applies a selective field update to the user with the given id.
// Renaming onto a username held by a different user is a conflict. Callers
// that clear the admin flag are expected to consult IsLastAdmin first.
func (s *Store) EditUser(id string, upd UserUpdate) error {
	u, ok := s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	if upd.Username != nil {
		if owner, taken := s.byName[*upd.Username]; taken && owner != id {
			return common.ErrorUserExists
		}
	}

	updated := *u
	if upd.Username != nil {
		updated.Username = *upd.Username
	}
	if upd.FirstName != nil {
		updated.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		updated.LastName = *upd.LastName
	}
	if upd.Email != nil {
		updated.Email = *upd.Email
	}
	if upd.Admin != nil {
		updated.Admin = *upd.Admin
	}

	if err := s.flush(s.snapshotReplacing(&updated)); err != nil {
		return err
	}
	delete(s.byName, u.Username)
	s.users[id] = &updated
	s.byName[updated.Username] = id
	return nil
}

// EditPassword verifies oldPassword against the stored hash and, on match,
// replaces salt and hash with freshly derived ones.
func (s *Store) EditPassword(id, oldPassword, newPassword string) error {
	u, ok := s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	if !cryptox.VerifyPassword(oldPassword, u.Salt, u.PasswordHash) {
		return common.ErrorWrongPassword
	}

	salt, err := cryptox.NewSalt()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStore, err)
	}
	hash, err := cryptox.HashPassword(newPassword, salt)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStore, err)
	}

	updated := *u
	updated.Salt = salt
	updated.PasswordHash = hash

	if err := s.flush(s.snapshotReplacing(&updated)); err != nil {
		return err
	}
	s.users[id] = &updated
	return nil
}

// DeleteUser removes the record with the given id.
func (s *Store) DeleteUser(id string) error {
	u, ok := s.users[id]
	if !ok {
		return common.ErrorNotFound
	}

	remaining := make([]*User, 0, len(s.users)-1)
	for _, other := range s.users {
		if other.ID != id {
			remaining = append(remaining, other)
		}
	}
	if err := s.flush(remaining); err != nil {
		return err
	}
	delete(s.users, id)
	delete(s.byName, u.Username)
	return nil
}

// FindByUsername returns a copy of the record with the given username.
func (s *Store) FindByUsername(username string) (*User, error) {
	id, ok := s.byName[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := *s.users[id]
	return &u, nil
}

// IsLastAdmin reports whether at most one admin user remains.
func (s *Store) IsLastAdmin() bool {
	n := 0
	for _, u := range s.users {
		if u.Admin {
			n++
			if n > 1 {
				return false
			}
		}
	}
	return true
}

// Users returns a snapshot of all records, sorted by username.
func (s *Store) Users() []*User {
	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.users)
}

func (s *Store) snapshot() []*User {
	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out
}

func (s *Store) snapshotReplacing(updated *User) []*User {
	out := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		if u.ID == updated.ID {
			out = append(out, updated)
		} else {
			out = append(out, u)
		}
	}
	return out
}

// flush writes the given record set to a temp file next to the store and
// renames it into place. Records are sorted by username so rewrites are
// deterministic.
func (s *Store) flush(users []*User) error {
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "db-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStore, err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, u := range users {
		if _, err := w.WriteString(marshalRecord(u) + "\n"); err != nil {
			tmp.Close()
			return fmt.Errorf("%w: %v", common.ErrorStore, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", common.ErrorStore, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", common.ErrorStore, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStore, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStore, err)
	}
	return nil
}
