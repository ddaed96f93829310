package command

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/authserver/internal/common"
)

// Command verbs.
const (
	cmdRegister        = "register"
	cmdLogin           = "login"
	cmdLogout          = "logout"
	cmdUpdateUser      = "update-user"
	cmdResetPassword   = "reset-password"
	cmdDeleteUser      = "delete-user"
	cmdAddAdminUser    = "add-admin-user"
	cmdRemoveAdminUser = "remove-admin-user"
)

// Option tokens. These are reserved words on the wire: an option value that
// equals one of them is rejected as a missing value.
const (
	optUsername     = "--username"
	optPassword     = "--password"
	optFirstName    = "--first-name"
	optLastName     = "--last-name"
	optEmail        = "--email"
	optSessionID    = "--session-id"
	optNewUsername  = "--new-username"
	optNewFirstName = "--new-first-name"
	optNewLastName  = "--new-last-name"
	optNewEmail     = "--new-email"
	optNewPassword  = "--new-password"
	optOldPassword  = "--old-password"
)

var knownOptions = map[string]struct{}{
	optUsername:     {},
	optPassword:     {},
	optFirstName:    {},
	optLastName:     {},
	optEmail:        {},
	optSessionID:    {},
	optNewUsername:  {},
	optNewFirstName: {},
	optNewLastName:  {},
	optNewEmail:     {},
	optNewPassword:  {},
	optOldPassword:  {},
}

// allowedOptions lists, per verb, the options that verb accepts. An option
// foreign to the verb is rejected, not silently ignored.
var allowedOptions = map[string][]string{
	cmdRegister:        {optUsername, optPassword, optFirstName, optLastName, optEmail},
	cmdLogin:           {optUsername, optPassword, optSessionID},
	cmdLogout:          {optSessionID},
	cmdUpdateUser:      {optSessionID, optNewUsername, optNewFirstName, optNewLastName, optNewEmail},
	cmdResetPassword:   {optSessionID, optUsername, optOldPassword, optNewPassword},
	cmdDeleteUser:      {optSessionID, optUsername},
	cmdAddAdminUser:    {optSessionID, optUsername},
	cmdRemoveAdminUser: {optSessionID, optUsername},
}

// parseLine splits one request line into a verb and its option map.
// Duplicate options keep the last value. For known verbs, options the verb
// does not accept are an error; an unknown verb is left for the dispatcher
// to decline.
func parseLine(line string) (string, map[string]string, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return "", nil, fmt.Errorf("%w: empty command", common.ErrorInvalidCommand)
	}

	verb := tokens[0]
	opts := make(map[string]string)

	for i := 1; i < len(tokens); i += 2 {
		opt := tokens[i]
		if _, ok := knownOptions[opt]; !ok {
			return "", nil, fmt.Errorf("%w: unknown option: %s", common.ErrorInvalidCommand, opt)
		}
		if i+1 >= len(tokens) {
			return "", nil, fmt.Errorf("%w: missing value for option: %s", common.ErrorInvalidCommand, opt)
		}
		value := tokens[i+1]
		if _, reserved := knownOptions[value]; reserved {
			return "", nil, fmt.Errorf("%w: invalid %s: %s", common.ErrorInvalidCommand, strings.TrimPrefix(opt, "--"), value)
		}
		opts[opt] = value
	}

	if accepted, known := allowedOptions[verb]; known {
		for opt := range opts {
			if !slices.Contains(accepted, opt) {
				return "", nil, fmt.Errorf("%w: unknown option for %s: %s", common.ErrorInvalidCommand, verb, opt)
			}
		}
	}

	return verb, opts, nil
}

// checkFieldValues rejects option values that would break the store's
// comma-separated, newline-delimited record format.
func checkFieldValues(opts map[string]string, keys ...string) error {
	for _, key := range keys {
		value, ok := opts[key]
		if !ok {
			continue
		}
		if strings.Contains(value, ",") {
			return fmt.Errorf("%w: , is forbidden in %s", common.ErrorInvalidCommand, strings.TrimPrefix(key, "--"))
		}
		if strings.ContainsAny(value, "\n\r") {
			return fmt.Errorf("%w: newline is forbidden in %s", common.ErrorInvalidCommand, strings.TrimPrefix(key, "--"))
		}
	}
	return nil
}
