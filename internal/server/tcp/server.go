// Package tcp implements the line-based request transport. Connections are
// read and written concurrently, but every request is executed by a single
// dispatch goroutine, so the command processor and everything behind it run
// without locks.
package tcp

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/dmitrijs2005/authserver/internal/logging"
	"github.com/dmitrijs2005/authserver/internal/server/audit"
	"github.com/dmitrijs2005/authserver/internal/server/command"
)

// Processor executes one request line on behalf of a client IP.
type Processor interface {
	Execute(line, ip string) command.Response
}

// Sweeper drops expired sessions. It runs before every request.
type Sweeper interface {
	Clean()
}

// responseBacklog bounds the responses queued per connection. A client that
// stops draining its responses hits this bound and is disconnected instead
// of blocking the dispatch goroutine.
const responseBacklog = 32

// client pairs a connection with its response queue. The reader goroutine
// closes done when the read side ends; the writer goroutine owns all writes.
type client struct {
	conn net.Conn
	ip   string
	out  chan string
	done chan struct{}
}

type request struct {
	line   string
	client *client
}

type Server struct {
	addr           string
	readBufferSize int

	processor Processor
	sessions  Sweeper
	audit     audit.Log
	logger    logging.Logger

	listener net.Listener
	requests chan request
	clients  sync.Map // map[net.Conn]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewServer(addr string, readBufferSize int, p Processor, sw Sweeper, a audit.Log, l logging.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:           addr,
		readBufferSize: readBufferSize,
		processor:      p,
		sessions:       sw,
		audit:          a,
		logger:         l,
		requests:       make(chan request),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Start begins listening and serving. It returns once the listener is bound.
func (s *Server) Start() error {
	var err error
	s.listener, err = net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.wg.Add(2)
	go s.acceptConnections()
	go s.dispatch()

	return nil
}

// Stop closes the listener and all client connections and waits for the
// accept, reader, writer, and dispatch goroutines to finish.
func (s *Server) Stop() error {
	s.cancel()

	if s.listener != nil {
		s.listener.Close()
	}

	s.clients.Range(func(key, _ any) bool {
		if conn, ok := key.(net.Conn); ok {
			conn.Close()
		}
		return true
	})

	s.wg.Wait()
	return nil
}

// Addr returns the bound listener address, useful when listening on port 0.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Run starts the server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	s.logger.Info(ctx, "listening", "address", s.Addr())
	<-ctx.Done()
	return s.Stop()
}

func (s *Server) acceptConnections() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Warn(s.ctx, "accept failed", "error", err.Error())
			continue
		}

		c := &client{
			conn: conn,
			ip:   clientIP(conn),
			out:  make(chan string, responseBacklog),
			done: make(chan struct{}),
		}
		s.clients.Store(conn, struct{}{})
		s.wg.Add(2)
		go s.readConnection(c)
		go s.writeResponses(c)
	}
}

// readConnection feeds complete lines from one client into the request
// channel. It never writes to the connection; responses are queued for the
// connection's writer goroutine, so there is a single writer per connection.
func (s *Server) readConnection(c *client) {
	defer s.wg.Done()
	defer func() {
		close(c.done)
		c.conn.Close()
		s.clients.Delete(c.conn)
	}()

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, s.readBufferSize), s.readBufferSize)

	for scanner.Scan() {
		select {
		case s.requests <- request{line: scanner.Text(), client: c}:
		case <-s.ctx.Done():
			return
		}
	}

	if err := scanner.Err(); err != nil && s.ctx.Err() == nil {
		s.logger.Debug(s.ctx, "connection read failed", "ip", c.ip, "error", err.Error())
	}
}

// writeResponses drains one connection's response queue. A write failure
// closes only this connection; the blocking happens here, never in the
// dispatch goroutine.
func (s *Server) writeResponses(c *client) {
	defer s.wg.Done()
	defer c.conn.Close()

	for {
		select {
		case line := <-c.out:
			if _, err := fmt.Fprintf(c.conn, "%s\n", line); err != nil {
				s.logger.Debug(s.ctx, "response write failed", "ip", c.ip, "error", err.Error())
				return
			}
		case <-c.done:
			return
		case <-s.ctx.Done():
			return
		}
	}
}

// dispatch is the single goroutine that touches the processor and its
// collaborators. Expired sessions are swept before every request. Responses
// are handed off without blocking: a client whose response queue is full is
// disconnected so it cannot stall the other connections.
func (s *Server) dispatch() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case req := <-s.requests:
			s.sessions.Clean()
			resp := s.execute(req.line, req.client.ip)
			select {
			case req.client.out <- resp.String():
			default:
				s.logger.Warn(s.ctx, "client not draining responses, dropping connection", "ip", req.client.ip)
				req.client.conn.Close()
			}
		}
	}
}

// execute shields the dispatch loop from handler panics. A panic is reported
// to the client as a generic failure and recorded in the audit log.
func (s *Server) execute(line, ip string) (resp command.Response) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic while handling request: %v", r)
			s.audit.LogError(ip, err)
			s.logger.Error(s.ctx, "request handler panicked", "ip", ip, "error", err.Error())
			resp = command.Response{Message: "internal error, try again later"}
		}
	}()
	return s.processor.Execute(line, ip)
}

func clientIP(conn net.Conn) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}
