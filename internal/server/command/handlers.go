package command

import (
	"fmt"

	"github.com/dmitrijs2005/authserver/internal/common"
	"github.com/dmitrijs2005/authserver/internal/cryptox"
	"github.com/dmitrijs2005/authserver/internal/server/store"
)

func (p *Processor) register(opts map[string]string, ip string) Response {
	username := opts[optUsername]
	password := opts[optPassword]
	firstName := opts[optFirstName]
	lastName := opts[optLastName]
	email := opts[optEmail]

	if username == "" || password == "" || firstName == "" || lastName == "" || email == "" {
		return decline("all fields are required")
	}
	if err := checkFieldValues(opts, optUsername, optPassword, optFirstName, optLastName, optEmail); err != nil {
		return decline(err.Error())
	}

	u, err := store.NewUser(username, password, firstName, lastName, email)
	if err != nil {
		return p.internalError(ip, err)
	}

	if err := p.store.AddUser(u); err != nil {
		if isStoreFailure(err) {
			return p.internalError(ip, err)
		}
		return decline(err.Error())
	}

	s := p.sessions.New(u.ID, u.Username, false)
	p.audit.LogLogin(u.ID, ip)
	return succeed(s.ID)
}

func (p *Processor) login(opts map[string]string, ip string) Response {
	if sessionID, ok := opts[optSessionID]; ok {
		return p.loginWithSession(sessionID, ip)
	}
	username, haveUser := opts[optUsername]
	password, havePass := opts[optPassword]
	if haveUser && havePass {
		return p.loginWithPassword(username, password, ip)
	}
	return decline("either --session-id or --username and --password are required")
}

func (p *Processor) loginWithSession(sessionID, ip string) Response {
	s, err := p.sessions.GetBySessionID(sessionID)
	if err != nil {
		p.audit.LogUnsuccessfulLogin("unknown user", ip)
		return decline(err.Error())
	}
	p.audit.LogLogin(s.UserID, ip)
	return succeed(s.ID)
}

func (p *Processor) loginWithPassword(username, password, ip string) Response {
	u, err := p.store.FindByUsername(username)
	if err != nil {
		if isStoreFailure(err) {
			return p.internalError(ip, err)
		}
		p.audit.LogUnsuccessfulLogin(username, ip)
		return decline(err.Error())
	}

	if !cryptox.VerifyPassword(password, u.Salt, u.PasswordHash) {
		p.bans.AddFailedAttempt(ip)
		p.audit.LogUnsuccessfulLogin(u.ID, ip)
		return decline(common.ErrorWrongPassword.Error())
	}

	// newest login wins: any previous session for this user is dropped
	p.sessions.RemoveByUserID(u.ID)
	s := p.sessions.New(u.ID, u.Username, u.Admin)
	p.bans.ClearAttempts(ip)
	p.audit.LogLogin(u.ID, ip)
	return succeed(s.ID)
}

func (p *Processor) logout(opts map[string]string, ip string) Response {
	sessionID, ok := opts[optSessionID]
	if !ok {
		return decline("--session-id is required")
	}
	s, err := p.sessions.GetBySessionID(sessionID)
	if err != nil {
		return decline(err.Error())
	}
	p.audit.LogLogout(s.UserID, ip)
	p.sessions.RemoveBySessionID(sessionID)
	return succeed("successfully logged out")
}

func (p *Processor) updateUser(opts map[string]string, ip string) Response {
	s, err := p.sessions.GetBySessionID(opts[optSessionID])
	if err != nil {
		return decline(err.Error())
	}

	newUsername, haveUsername := opts[optNewUsername]
	newFirstName, haveFirstName := opts[optNewFirstName]
	newLastName, haveLastName := opts[optNewLastName]
	newEmail, haveEmail := opts[optNewEmail]
	if !haveUsername && !haveFirstName && !haveLastName && !haveEmail {
		return decline("nothing to update")
	}
	if err := checkFieldValues(opts, optNewUsername, optNewFirstName, optNewLastName, optNewEmail); err != nil {
		return decline(err.Error())
	}

	upd := store.UserUpdate{}
	if haveUsername {
		upd.Username = &newUsername
	}
	if haveFirstName {
		upd.FirstName = &newFirstName
	}
	if haveLastName {
		upd.LastName = &newLastName
	}
	if haveEmail {
		upd.Email = &newEmail
	}

	oldUsername := s.Username
	p.audit.LogCommandStart(cmdUpdateUser, s.UserID, ip, fmt.Sprintf("update user %s", oldUsername))

	if err := p.store.EditUser(s.UserID, upd); err != nil {
		p.audit.LogCommandEnd(cmdUpdateUser, s.UserID, ip, "fail: "+err.Error())
		if isStoreFailure(err) {
			return p.internalError(ip, err)
		}
		return decline(err.Error())
	}

	if haveUsername {
		p.sessions.UpdateUsername(oldUsername, newUsername)
	}
	p.audit.LogCommandEnd(cmdUpdateUser, s.UserID, ip, "success")
	return succeed("successfully updated user")
}

func (p *Processor) resetPassword(opts map[string]string, ip string) Response {
	sessionID := opts[optSessionID]
	username := opts[optUsername]
	oldPassword := opts[optOldPassword]
	newPassword := opts[optNewPassword]
	if sessionID == "" || username == "" || oldPassword == "" || newPassword == "" {
		return decline("all arguments are required")
	}

	s, err := p.sessions.GetBySessionID(sessionID)
	if err != nil {
		return decline(err.Error())
	}
	if s.Username != username {
		return decline("username does not match session username")
	}

	p.audit.LogCommandStart(cmdResetPassword, s.UserID, ip, fmt.Sprintf("reset password of %s", username))

	if err := p.store.EditPassword(s.UserID, oldPassword, newPassword); err != nil {
		p.audit.LogCommandEnd(cmdResetPassword, s.UserID, ip, "fail: "+err.Error())
		if isStoreFailure(err) {
			return p.internalError(ip, err)
		}
		return decline(err.Error())
	}

	p.audit.LogCommandEnd(cmdResetPassword, s.UserID, ip, "success")
	return succeed("successfully reset password")
}

func (p *Processor) deleteUser(opts map[string]string, ip string) Response {
	sessionID := opts[optSessionID]
	username := opts[optUsername]
	if sessionID == "" || username == "" {
		return decline("all arguments are required")
	}

	s, err := p.sessions.GetBySessionID(sessionID)
	if err != nil {
		return decline(err.Error())
	}
	if !s.Admin {
		return decline(common.ErrorNoPermission.Error())
	}

	target, err := p.store.FindByUsername(username)
	if err != nil {
		if isStoreFailure(err) {
			return p.internalError(ip, err)
		}
		return decline(err.Error())
	}
	if target.Admin && p.store.IsLastAdmin() {
		return decline(common.ErrorLastAdmin.Error())
	}

	p.audit.LogCommandStart(cmdDeleteUser, s.UserID, ip, fmt.Sprintf("delete user %s", username))

	if err := p.store.DeleteUser(target.ID); err != nil {
		p.audit.LogCommandEnd(cmdDeleteUser, s.UserID, ip, "fail: "+err.Error())
		if isStoreFailure(err) {
			return p.internalError(ip, err)
		}
		return decline(err.Error())
	}

	p.sessions.RemoveByUsername(username)
	p.audit.LogCommandEnd(cmdDeleteUser, s.UserID, ip, "success")
	return succeed("deleted user")
}

func (p *Processor) editAdminUser(cmd string, opts map[string]string, admin bool, ip string) Response {
	sessionID := opts[optSessionID]
	username := opts[optUsername]
	if sessionID == "" || username == "" {
		return decline("all arguments are required")
	}

	s, err := p.sessions.GetBySessionID(sessionID)
	if err != nil {
		return decline(err.Error())
	}
	if !s.Admin {
		return decline(common.ErrorNoPermission.Error())
	}

	target, err := p.store.FindByUsername(username)
	if err != nil {
		if isStoreFailure(err) {
			return p.internalError(ip, err)
		}
		return decline(err.Error())
	}
	if !admin && target.Admin && p.store.IsLastAdmin() {
		return decline(common.ErrorLastAdmin.Error())
	}

	p.audit.LogCommandStart(cmd, s.UserID, ip, fmt.Sprintf("set admin status of %s to %t", username, admin))

	if err := p.store.EditUser(target.ID, store.UserUpdate{Admin: &admin}); err != nil {
		p.audit.LogCommandEnd(cmd, s.UserID, ip, "fail: "+err.Error())
		if isStoreFailure(err) {
			return p.internalError(ip, err)
		}
		return decline(err.Error())
	}

	p.sessions.UpdateAdmin(username, admin)
	p.audit.LogCommandEnd(cmd, s.UserID, ip, "success")
	if admin {
		return succeed("added admin user")
	}
	return succeed("removed admin user")
}
