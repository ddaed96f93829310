// Package store implements the credential store: an in-memory index of user
// records backed by a newline-delimited, comma-separated flat file. The
// in-memory index is authoritative for reads; every mutation is flushed to
// disk atomically before it becomes visible.
package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/authserver/internal/cryptox"
)

// User is a single credential record. Salt and PasswordHash are hex-encoded;
// the plaintext password never appears here.
type User struct {
	ID           string
	Username     string
	Salt         string
	PasswordHash string
	FirstName    string
	LastName     string
	Email        string
	Admin        bool
}

// NewUser builds a user record with a fresh id, salt, and password hash.
// Field validation (required fields, forbidden characters) is the caller's
// concern.
func NewUser(username, password, firstName, lastName, email string) (*User, error) {
	salt, err := cryptox.NewSalt()
	if err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	hash, err := cryptox.HashPassword(password, salt)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	return &User{
		ID:           uuid.NewString(),
		Username:     username,
		Salt:         salt,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
	}, nil
}

// On-disk field positions. The format is fixed by the external contract:
// one record per line, bare commas, no quoting.
const (
	posUsername = iota
	posSalt
	posHash
	posID
	posFirstName
	posLastName
	posEmail
	posAdmin
	numFields
)

func marshalRecord(u *User) string {
	return strings.Join([]string{
		u.Username,
		u.Salt,
		u.PasswordHash,
		u.ID,
		u.FirstName,
		u.LastName,
		u.Email,
		strconv.FormatBool(u.Admin),
	}, ",")
}

func parseRecord(line string) (*User, error) {
	fields := strings.Split(line, ",")
	if len(fields) != numFields {
		return nil, fmt.Errorf("record has %d fields, want %d", len(fields), numFields)
	}
	admin, err := strconv.ParseBool(fields[posAdmin])
	if err != nil {
		return nil, fmt.Errorf("parsing admin flag: %w", err)
	}
	return &User{
		ID:           fields[posID],
		Username:     fields[posUsername],
		Salt:         fields[posSalt],
		PasswordHash: fields[posHash],
		FirstName:    fields[posFirstName],
		LastName:     fields[posLastName],
		Email:        fields[posEmail],
		Admin:        admin,
	}, nil
}
