package rcon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"wurstmineberg/worldctl/internal/domain"
)

// Session errors. Each wraps the matching taxonomy sentinel so callers
// can classify without importing this package's internals.
var (
	// ErrNotAuthenticated is returned by Execute before a successful
	// Authenticate. The check is local; nothing is sent.
	ErrNotAuthenticated = fmt.Errorf("session not authenticated: %w", domain.ErrProtocol)

	// ErrRejected indicates the server refused the password.
	ErrRejected = fmt.Errorf("password rejected: %w", domain.ErrAuth)

	// ErrTimeout indicates the server did not answer within the
	// session's I/O deadline.
	ErrTimeout = fmt.Errorf("response timeout: %w", domain.ErrProtocol)

	// ErrClosed indicates the server closed the connection mid-exchange.
	ErrClosed = fmt.Errorf("connection closed: %w", domain.ErrProtocol)
)

const (
	// defaultTimeout bounds each network round trip.
	defaultTimeout = 10 * time.Second

	// fragmentWait is how long Execute waits for a follow-up response
	// packet before concluding the reply was not fragmented. The server
	// splits replies longer than one packet across several type-0
	// packets sharing the request id, with no explicit continuation
	// marker, so the only signal is a same-id packet arriving promptly.
	fragmentWait = 250 * time.Millisecond
)

// Session is a single authenticated connection to one running world.
// Sessions are opened at the start of an administrative operation and
// closed immediately after; they are never pooled or shared. A session
// whose handshake was interrupted must be discarded, not reused.
type Session struct {
	conn          net.Conn
	timeout       time.Duration
	nextID        int32
	authenticated bool
}

// Option adjusts session behavior.
type Option func(*Session)

// WithTimeout overrides the per-round-trip I/O deadline.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// Connect dials the endpoint and runs the login handshake in one step.
// The caller owns the returned session and must Close it.
func Connect(ctx context.Context, ep domain.Endpoint, opts ...Option) (*Session, error) {
	s, err := Dial(ctx, ep.Addr(), opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Authenticate(ep.Password); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Dial opens a TCP stream to the world's RCON endpoint. The returned
// session is unauthenticated; call Authenticate before Execute.
func Dial(ctx context.Context, addr string, opts ...Option) (*Session, error) {
	s := &Session{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(s)
	}

	d := net.Dialer{Timeout: s.timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("rcon dial %s: %v: %w", addr, err, domain.ErrConnection)
	}
	s.conn = conn
	return s, nil
}

// Close releases the underlying socket. Safe to call on every exit
// path, including after a failed Authenticate or Execute.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.authenticated = false
	return err
}

// allocID returns the next request correlation id. Ids only need to be
// unique within one short-lived session, so plain increment is enough.
func (s *Session) allocID() int32 {
	s.nextID++
	return s.nextID
}

// Authenticate performs the login handshake. On success the session
// accepts Execute calls; on ErrRejected the session is unusable and
// must be closed.
//
// Some servers send an extra empty response packet immediately after
// login, so the expected id is accepted in either of the first two
// packets read.
func (s *Session) Authenticate(password string) error {
	id := s.allocID()

	if err := s.write(packet{id: id, typ: typeLogin, payload: []byte(password)}); err != nil {
		return err
	}

	for i := 0; i < 2; i++ {
		p, err := s.read()
		if err != nil {
			return err
		}
		switch p.id {
		case authFailedID:
			return ErrRejected
		case id:
			s.authenticated = true
			return nil
		}
	}

	return fmt.Errorf("login not acknowledged: %w", domain.ErrProtocol)
}

// Execute sends a command and returns the server's text reply. Long
// replies fragmented across several response packets are concatenated.
func (s *Session) Execute(command string) (string, error) {
	if !s.authenticated {
		return "", ErrNotAuthenticated
	}

	id := s.allocID()
	if err := s.write(packet{id: id, typ: typeCommand, payload: []byte(command)}); err != nil {
		return "", err
	}

	var reply []byte
	for {
		p, err := s.read()
		if err != nil {
			return "", err
		}
		if p.id != id || p.typ != typeResponse {
			// Stale packet from an earlier exchange; skip it.
			continue
		}
		reply = append(reply, p.payload...)
		break
	}

	// Collect fragments: further same-id response packets arriving
	// within fragmentWait belong to this reply. A read timeout here
	// means the reply is complete, not an error.
	for {
		p, err := s.readWithin(fragmentWait)
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				break
			}
			return "", err
		}
		if p.id != id || p.typ != typeResponse {
			break
		}
		reply = append(reply, p.payload...)
	}

	return string(reply), nil
}

func (s *Session) write(p packet) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return fmt.Errorf("rcon: %v: %w", err, domain.ErrConnection)
	}
	if err := encode(s.conn, p); err != nil {
		return s.ioError(err)
	}
	return nil
}

func (s *Session) read() (packet, error) {
	return s.readWithin(s.timeout)
}

func (s *Session) readWithin(d time.Duration) (packet, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(d)); err != nil {
		return packet{}, fmt.Errorf("rcon: %v: %w", err, domain.ErrConnection)
	}
	p, err := decode(s.conn)
	if err != nil {
		return packet{}, s.ioError(err)
	}
	return p, nil
}

// ioError classifies a raw read/write failure into the session's error
// vocabulary. Framing errors pass through unchanged.
func (s *Session) ioError(err error) error {
	if errors.Is(err, ErrMalformed) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w (%v)", ErrTimeout, err)
	}
	return fmt.Errorf("%w (%v)", ErrClosed, err)
}
