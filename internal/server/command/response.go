// Package command parses the wire protocol and dispatches commands to the
// session, ban, and credential components. It is the error boundary of the
// server: every failure becomes a Response, nothing escapes to the caller.
package command

// Response is the structured result of one command. It renders as a single
// protocol line: "Success: <message>" or "Failure: <message>".
type Response struct {
	Success bool
	Message string
}

func (r Response) String() string {
	if r.Success {
		return "Success: " + r.Message
	}
	return "Failure: " + r.Message
}

func succeed(msg string) Response {
	return Response{Success: true, Message: msg}
}

func decline(msg string) Response {
	return Response{Success: false, Message: msg}
}
