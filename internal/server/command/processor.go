package command

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authserver/internal/common"
	"github.com/dmitrijs2005/authserver/internal/server/audit"
	"github.com/dmitrijs2005/authserver/internal/server/session"
	"github.com/dmitrijs2005/authserver/internal/server/store"
)

// Message shown for store/internal failures. Deliberately vague: the real
// cause goes to the audit log only.
const msgInternal = "internal error, try again later"

// CredentialStore is the slice of the credential store the processor needs.
type CredentialStore interface {
	AddUser(u *store.User) error
	EditUser(id string, upd store.UserUpdate) error
	EditPassword(id, oldPassword, newPassword string) error
	DeleteUser(id string) error
	FindByUsername(username string) (*store.User, error)
	IsLastAdmin() bool
}

// SessionManager is the slice of the session manager the processor needs.
type SessionManager interface {
	New(userID, username string, admin bool) *session.Session
	GetBySessionID(id string) (*session.Session, error)
	RemoveByUserID(userID string)
	RemoveBySessionID(id string)
	RemoveByUsername(username string)
	UpdateUsername(oldUsername, newUsername string)
	UpdateAdmin(username string, admin bool)
}

// BanManager is the slice of the ban manager the processor needs.
type BanManager interface {
	AddFailedAttempt(ip string)
	Banned(ip string) (bool, time.Duration)
	ClearAttempts(ip string)
}

// Processor turns one request line into one Response. It checks the ban
// state before any parsing and composes session, store, ban, and audit
// calls per command.
type Processor struct {
	store    CredentialStore
	sessions SessionManager
	bans     BanManager
	audit    audit.Log
}

func NewProcessor(s CredentialStore, sm SessionManager, bm BanManager, a audit.Log) *Processor {
	return &Processor{store: s, sessions: sm, bans: bm, audit: a}
}

// Execute handles one request line from the given client IP. It always
// returns a Response and never panics on malformed input; only a programming
// error can escape, and the dispatcher recovers those.
func (p *Processor) Execute(line, ip string) Response {
	if banned, remaining := p.bans.Banned(ip); banned {
		return decline(fmt.Sprintf("temporarily banned, try again in %s", remaining.Round(time.Second)))
	}

	verb, opts, err := parseLine(line)
	if err != nil {
		return decline(err.Error())
	}

	switch verb {
	case cmdRegister:
		return p.register(opts, ip)
	case cmdLogin:
		return p.login(opts, ip)
	case cmdLogout:
		return p.logout(opts, ip)
	case cmdUpdateUser:
		return p.updateUser(opts, ip)
	case cmdResetPassword:
		return p.resetPassword(opts, ip)
	case cmdDeleteUser:
		return p.deleteUser(opts, ip)
	case cmdAddAdminUser:
		return p.editAdminUser(cmdAddAdminUser, opts, true, ip)
	case cmdRemoveAdminUser:
		return p.editAdminUser(cmdRemoveAdminUser, opts, false, ip)
	default:
		return decline(fmt.Sprintf("unknown command: %s", verb))
	}
}

// internalError hides the failure from the client but records the full
// cause in the audit log.
func (p *Processor) internalError(ip string, err error) Response {
	p.audit.LogError(ip, err)
	return decline(msgInternal)
}

// isStoreFailure distinguishes persistence failures from domain conflicts.
func isStoreFailure(err error) bool {
	return errors.Is(err, common.ErrorStore)
}
