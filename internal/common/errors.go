// Package common defines shared constants and sentinel errors used across
// the auth server components. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("user does not exist")
	ErrorStore    = errors.New("store failure")

	// Protocol-level errors (malformed or unknown input).
	ErrorInvalidCommand = errors.New("invalid command")

	// Auth errors.
	ErrorInvalidSession = errors.New("session is not valid")
	ErrorWrongPassword  = errors.New("wrong password")

	// Permission / conflict errors.
	ErrorNoPermission = errors.New("no admin permissions")
	ErrorLastAdmin    = errors.New("you are the last admin")
	ErrorUserExists   = errors.New("user already exists")
)
