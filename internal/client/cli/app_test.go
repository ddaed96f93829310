package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedServer answers each received line with the corresponding reply.
func scriptedServer(t *testing.T, replies ...string) net.Conn {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close() })

	go func() {
		defer server.Close()
		r := bufio.NewReader(server)
		for _, reply := range replies {
			if _, err := r.ReadString('\n'); err != nil {
				return
			}
			fmt.Fprintf(server, "%s\n", reply)
		}
	}()
	return client
}

func runApp(t *testing.T, conn net.Conn, input string) string {
	t.Helper()
	var out bytes.Buffer
	app := NewApp(conn, strings.NewReader(input), &out)
	require.NoError(t, app.Run())
	return out.String()
}

func TestRun_ExitsOnQuit(t *testing.T) {
	client, _ := net.Pipe()
	defer client.Close()

	out := runApp(t, client, "quit\n")
	assert.Contains(t, out, "Bye!")
}

func TestRun_ExitsOnEOF(t *testing.T) {
	client, _ := net.Pipe()
	defer client.Close()

	out := runApp(t, client, "")
	assert.Contains(t, out, "auth client")
}

func TestRun_Help(t *testing.T) {
	client, _ := net.Pipe()
	defer client.Close()

	out := runApp(t, client, "help\nexit\n")
	assert.Contains(t, out, "register, login, logout")
}

func TestRun_ForwardsLineAndPrintsReply(t *testing.T) {
	conn := scriptedServer(t, "Failure: session is not valid")

	out := runApp(t, conn, "logout --session-id nope\nexit\n")
	assert.Contains(t, out, "Failure: session is not valid")
}

func TestRun_LoginStoresSessionIDAndAppendsIt(t *testing.T) {
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close() })

	restore := readPassword
	readPassword = func(fd int) ([]byte, error) { return []byte("pw1"), nil }
	defer func() { readPassword = restore }()

	received := make(chan string, 2)
	go func() {
		defer server.Close()
		r := bufio.NewReader(server)
		for _, reply := range []string{"Success: abc-123", "Success: successfully updated user"} {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			received <- strings.TrimSuffix(line, "\n")
			fmt.Fprintf(server, "%s\n", reply)
		}
	}()

	out := runApp(t, client, "login\nalice\nupdate-user --new-email a@example.com\nexit\n")

	assert.Equal(t, "login --username alice --password pw1", <-received)
	assert.Equal(t, "update-user --new-email a@example.com --session-id abc-123", <-received)
	assert.Contains(t, out, "session id stored")
}

func TestRun_RegisterAssemblesAllFields(t *testing.T) {
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close() })

	restore := readPassword
	readPassword = func(fd int) ([]byte, error) { return []byte("secret"), nil }
	defer func() { readPassword = restore }()

	received := make(chan string, 1)
	go func() {
		defer server.Close()
		r := bufio.NewReader(server)
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		received <- strings.TrimSuffix(line, "\n")
		fmt.Fprintln(server, "Success: some-session-id")
	}()

	runApp(t, client, "register\nalice\nAda\nLovelace\na@example.com\nexit\n")

	assert.Equal(t,
		"register --username alice --password secret --first-name Ada --last-name Lovelace --email a@example.com",
		<-received)
}

func TestRun_ExplicitSessionIDNotOverridden(t *testing.T) {
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close() })

	received := make(chan string, 1)
	go func() {
		defer server.Close()
		r := bufio.NewReader(server)
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		received <- strings.TrimSuffix(line, "\n")
		fmt.Fprintln(server, "Failure: session is not valid")
	}()

	var out bytes.Buffer
	app := NewApp(client, strings.NewReader("logout --session-id mine\nexit\n"), &out)
	app.sessionID = "stored"
	require.NoError(t, app.Run())

	assert.Equal(t, "logout --session-id mine", <-received)
}

func TestLooksLikeSessionID(t *testing.T) {
	assert.True(t, looksLikeSessionID("8b3e9a6e-1111-2222-3333-444455556666"))
	assert.False(t, looksLikeSessionID("successfully logged out"))
	assert.False(t, looksLikeSessionID(""))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	r := bufio.NewReader(strings.NewReader("  alice  \n"))

	got, err := GetSimpleText(r, "Enter username", &out)
	require.NoError(t, err)
	assert.Equal(t, "alice", got)
	assert.Contains(t, out.String(), "Enter username")
}

func TestGetSimpleText_PartialLineOnEOF(t *testing.T) {
	var out bytes.Buffer
	r := bufio.NewReader(strings.NewReader("alice"))

	got, err := GetSimpleText(r, "Enter username", &out)
	require.NoError(t, err)
	assert.Equal(t, "alice", got)
}
