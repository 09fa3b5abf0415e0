// Package ftptest runs a real FTP server over a throwaway directory for
// integration tests. The server speaks the full protocol on a loopback
// port, so client code is exercised against actual wire behavior instead
// of mocks.
package ftptest

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	ftpserver "goftp.io/server/core"
)

// Fixed credentials every test server accepts.
const (
	User     = "testuser"
	Password = "testpass"
)

// Server is an FTP server bound to a loopback port, serving the contents
// of a temporary directory.
type Server struct {
	addr   string
	root   string
	srv    *ftpserver.Server
	logins atomic.Int64
}

// New starts a server on an ephemeral port and registers its shutdown
// with t.Cleanup.
func New(t *testing.T) *Server {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ftptest: listen: %v", err)
	}

	s := &Server{
		addr: l.Addr().String(),
		root: t.TempDir(),
	}
	s.srv = ftpserver.NewServer(&ftpserver.ServerOpts{
		Name:           "ftptest",
		WelcomeMessage: "ftptest ready",
		Factory:        s,
		Hostname:       "127.0.0.1",
		Port:           l.Addr().(*net.TCPAddr).Port,
		Auth:           s,
		Logger:         quietLogger{},
	})

	go func() {
		// Serve returns once Shutdown closes the listener.
		_ = s.srv.Serve(l)
	}()
	t.Cleanup(func() { _ = s.srv.Shutdown() })

	return s
}

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return s.addr
}

// Root returns the local directory the server exposes. Tests may seed or
// inspect it directly.
func (s *Server) Root() string {
	return s.root
}

// Query builds a plain-FTP query for remotePath on this server.
func (s *Server) Query(remotePath string) string {
	return fmt.Sprintf("ftp://%s%s", s.addr, remotePath)
}

// Logins reports how many successful logins the server has seen. Each
// control connection logs in exactly once, so this counts dials.
func (s *Server) Logins() int64 {
	return s.logins.Load()
}

// WriteFile seeds a file under the served root, creating parents.
func (s *Server) WriteFile(t *testing.T, relPath string, data []byte) {
	t.Helper()

	full := filepath.Join(s.root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("ftptest: mkdir %s: %v", filepath.Dir(full), err)
	}
	if err := os.WriteFile(full, data, 0644); err != nil {
		t.Fatalf("ftptest: write %s: %v", full, err)
	}
}

// MkdirAll seeds a directory under the served root.
func (s *Server) MkdirAll(t *testing.T, relPath string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Join(s.root, filepath.FromSlash(relPath)), 0755); err != nil {
		t.Fatalf("ftptest: mkdir %s: %v", relPath, err)
	}
}

// NewDriver starts a new session for each client connection.
func (s *Server) NewDriver() (ftpserver.Driver, error) {
	return &driver{root: s.root}, nil
}

// CheckPasswd accepts only the fixed test credentials.
func (s *Server) CheckPasswd(user, pass string) (bool, error) {
	if user != User || pass != Password {
		return false, nil
	}
	s.logins.Add(1)
	return true, nil
}

// quietLogger keeps protocol chatter out of test output.
type quietLogger struct{}

func (quietLogger) Print(sessionID string, message interface{}) {}

func (quietLogger) Printf(sessionID string, format string, v ...interface{}) {}

func (quietLogger) PrintCommand(sessionID string, command string, params string) {}

func (quietLogger) PrintResponse(sessionID string, code int, message string) {}
