// Package cli implements the interactive console client for the auth server.
// The REPL forwards protocol lines verbatim, except that register and login
// collect their fields interactively so the password is never typed in the
// clear on the command line.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/authserver/internal/common"
)

type App struct {
	conn   io.ReadWriter
	server *bufio.Reader
	in     *bufio.Reader
	out    io.Writer

	sessionID string
}

// NewApp builds a client over an established server connection. User input
// comes from in and user-facing output goes to out.
func NewApp(conn io.ReadWriter, in io.Reader, out io.Writer) *App {
	return &App{
		conn:   conn,
		server: bufio.NewReader(conn),
		in:     bufio.NewReader(in),
		out:    out,
	}
}

// Run starts the read-eval-print loop. It exits on EOF or when the user
// types "exit" or "quit". Command errors are printed, not returned; only a
// broken server connection ends the loop with an error.
func (a *App) Run() error {
	fmt.Fprintln(a.out, "auth client (type 'help' for commands)")

	for {
		fmt.Fprint(a.out, "auth> ")
		line, err := a.in.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "help":
			fmt.Fprintln(a.out, "Available commands: register, login, logout, update-user, reset-password, delete-user, add-admin-user, remove-admin-user, exit")

		case "register":
			err = a.register()

		case "login":
			err = a.login()

		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return nil

		default:
			// everything else goes to the server verbatim, with the stored
			// session id appended unless the user supplied one
			req := strings.TrimSpace(line)
			if a.sessionID != "" && !strings.Contains(req, "--session-id") {
				req += " --session-id " + a.sessionID
			}
			err = a.send(req)
		}

		if err != nil {
			return err
		}
	}
}

// send writes one request line and prints the one-line reply.
func (a *App) send(line string) error {
	if _, err := fmt.Fprintf(a.conn, "%s\n", line); err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	reply, err := a.server.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading reply: %w", err)
	}
	reply = strings.TrimSuffix(reply, "\n")
	fmt.Fprintln(a.out, reply)

	if id, ok := strings.CutPrefix(reply, "Success: "); ok {
		if looksLikeSessionID(id) {
			a.sessionID = id
			fmt.Fprintln(a.out, "(session id stored, it will be appended to your commands)")
		} else if id == "successfully logged out" {
			a.sessionID = ""
		}
	}
	return nil
}

func (a *App) register() error {
	username, err := GetSimpleText(a.in, "Enter username", a.out)
	if err != nil {
		return err
	}
	firstName, err := GetSimpleText(a.in, "Enter first name", a.out)
	if err != nil {
		return err
	}
	lastName, err := GetSimpleText(a.in, "Enter last name", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.in, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	return a.send(fmt.Sprintf(
		"register --username %s --password %s --first-name %s --last-name %s --email %s",
		username, password, firstName, lastName, email))
}

func (a *App) login() error {
	username, err := GetSimpleText(a.in, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	return a.send(fmt.Sprintf("login --username %s --password %s", username, password))
}

// looksLikeSessionID reports whether a success message is a bare session id
// rather than a human-readable confirmation. Session ids are single uuid
// tokens, confirmations contain spaces.
func looksLikeSessionID(msg string) bool {
	return msg != "" && !strings.Contains(msg, " ")
}
