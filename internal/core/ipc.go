package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Control commands understood by the control socket.
const (
	CommandReload = "reload"
	CommandPing   = "ping"
)

// ControlServer accepts one-line commands on a unix socket. Commands never
// touch the widget runtime directly; reload only posts a request on the
// channel the main loop selects on.
type ControlServer struct {
	path     string
	reloads  chan<- struct{}
	logger   *slog.Logger
	listener *net.UnixListener
	limiter  *rate.Limiter
}

// ControlOption configures a ControlServer.
type ControlOption func(*ControlServer)

// WithReloadLimit caps reload requests at r per second with the given burst.
func WithReloadLimit(r rate.Limit, burst int) ControlOption {
	return func(s *ControlServer) {
		s.limiter = rate.NewLimiter(r, burst)
	}
}

// NewControlServer listens on path, replacing a stale socket file.
func NewControlServer(path string, reloads chan<- struct{}, logger *slog.Logger, opts ...ControlOption) (*ControlServer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := os.Stat(path); err == nil {
		os.Remove(path)
	}
	listener, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("failed to create socket listener: %w", err)
	}
	s := &ControlServer{
		path:     path,
		reloads:  reloads,
		logger:   logger.With("component", "ipc"),
		listener: listener,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 4),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the socket path
func (s *ControlServer) Path() string {
	return s.path
}

// Run serves connections until ctx is done, then removes the socket.
func (s *ControlServer) Run(ctx context.Context) error {
	s.logger.Info("listening", "socket", s.path)

	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()
	defer os.Remove(s.path)

	for {
		conn, err := s.listener.AcceptUnix()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Warn("accept failed", "err", err)
			continue
		}
		go s.handle(conn)
	}
}

func (s *ControlServer) handle(conn *net.UnixConn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * time.Second))

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		s.logger.Debug("read failed", "err", err)
		return
	}
	msg := strings.TrimSpace(line)
	s.logger.Debug("received", "message", msg)

	fmt.Fprintln(conn, s.reply(msg))
}

func (s *ControlServer) reply(msg string) string {
	switch msg {
	case CommandPing:
		return "pong"
	case CommandReload:
		if !s.limiter.Allow() {
			return "error: rate limited"
		}
		select {
		case s.reloads <- struct{}{}:
			return "ok"
		default:
			return "ok (already pending)"
		}
	default:
		return fmt.Sprintf("error: unknown command %q", msg)
	}
}

// SendCommand sends cmd to the control socket at path and returns the reply.
func SendCommand(ctx context.Context, path, cmd string) (string, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return "", fmt.Errorf("failed to connect to %s (is catbar running?): %w", path, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	if _, err := fmt.Fprintln(conn, cmd); err != nil {
		return "", fmt.Errorf("failed to send command: %w", err)
	}
	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && reply == "" {
		return "", fmt.Errorf("failed to read reply: %w", err)
	}
	reply = strings.TrimSpace(reply)
	if strings.HasPrefix(reply, "error: ") {
		return reply, errors.New(strings.TrimPrefix(reply, "error: "))
	}
	return reply, nil
}
