package ftp

import (
	"context"
	"crypto/tls"
	"io"
	"net/textproto"
	"path"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ftpstore/ftpstore/internal/buffer"
	"github.com/ftpstore/ftpstore/pkg/storage"
)

// Session is one authenticated control connection to an endpoint. Every
// object sharing the endpoint shares the Session; a mutex serializes
// commands because an FTP control connection handles one at a time. The
// connection is dialed lazily on first use and re-dialed after it drops,
// without changing the Session's identity in the pool.
type Session struct {
	endpoint Endpoint
	settings Settings
	log      logrus.FieldLogger

	mu   sync.Mutex
	conn *ftp.ServerConn // nil until dialed, or after a drop
}

func newSession(endpoint Endpoint, settings Settings, log logrus.FieldLogger) *Session {
	return &Session{
		endpoint: endpoint,
		settings: settings,
		log:      log.WithField("endpoint", endpoint.String()),
	}
}

// Endpoint returns the server identity this session is bound to.
func (s *Session) Endpoint() Endpoint {
	return s.endpoint
}

// Close quits the control connection if one is open.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Quit()
	s.conn = nil
	return err
}

// withConn runs fn with a live connection while holding the session lock.
// A failure that puts the connection in doubt discards it so the next
// command re-dials.
func (s *Session) withConn(ctx context.Context, fn func(conn *ftp.ServerConn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := s.connLocked(ctx)
	if err != nil {
		return err
	}

	err = fn(conn)
	if discardable(err) {
		s.log.WithField("error", err.Error()).Debug("discarding control connection")
		_ = s.conn.Quit()
		s.conn = nil
	}
	return err
}

func (s *Session) connLocked(ctx context.Context) (*ftp.ServerConn, error) {
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	s.conn = conn
	return conn, nil
}

func (s *Session) dial(ctx context.Context) (*ftp.ServerConn, error) {
	s.log.Debug("connecting")

	// LIST timestamps carry no zone. Parsing them as local time is right
	// whenever client and server share a clock, and no worse otherwise.
	opts := []ftp.DialOption{
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(s.settings.connectTimeout()),
		ftp.DialWithLocation(time.Local),
	}
	if s.endpoint.Scheme == SchemeSecure {
		opts = append(opts, ftp.DialWithExplicitTLS(&tls.Config{
			ServerName:         s.endpoint.Host,
			InsecureSkipVerify: s.settings.InsecureSkipVerify,
			MinVersion:         tls.VersionTLS12,
		}))
	}
	if s.settings.DisableEPSV {
		opts = append(opts, ftp.DialWithDisabledEPSV(true))
	}

	conn, err := ftp.Dial(s.endpoint.Addr(), opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to %s", s.endpoint.Addr())
	}
	if err := conn.Login(s.settings.user(), s.settings.password()); err != nil {
		_ = conn.Quit()
		return nil, errors.Wrapf(err, "login to %s", s.endpoint.Addr())
	}

	s.log.Debug("connected")
	return conn, nil
}

// stat finds the entry for p by listing its parent directory, which works
// on servers that lack SIZE and MDTM support. The root always exists and
// is synthesized. A missing path is storage.ErrNotExist.
func (s *Session) stat(ctx context.Context, p string) (storage.EntryInfo, error) {
	p = path.Clean(p)
	if p == "/" || p == "." {
		return storage.EntryInfo{Name: "/", IsDir: true, ModTime: time.Now()}, nil
	}

	dir := path.Dir(p)
	base := path.Base(p)

	var found storage.EntryInfo
	err := s.withConn(ctx, func(conn *ftp.ServerConn) error {
		entries, err := conn.List(dir)
		if err != nil {
			return translateNotExist(err)
		}
		for _, e := range entries {
			if e.Name == base {
				found = entryInfo(e)
				return nil
			}
		}
		return storage.ErrNotExist
	})
	if err != nil {
		return storage.EntryInfo{}, err
	}
	return found, nil
}

// list returns the entries of dir, dropping the "." and ".." entries some
// servers include.
func (s *Session) list(ctx context.Context, dir string) ([]storage.EntryInfo, error) {
	var out []storage.EntryInfo
	err := s.withConn(ctx, func(conn *ftp.ServerConn) error {
		entries, err := conn.List(dir)
		if err != nil {
			return translateNotExist(err)
		}
		out = out[:0]
		for _, e := range entries {
			if e.Name == "." || e.Name == ".." {
				continue
			}
			out = append(out, entryInfo(e))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// retrieve streams the remote file at p into w and returns the byte
// count. The copy runs inside the session lock; the data connection is
// tied to the control connection's single in-flight command.
func (s *Session) retrieve(ctx context.Context, p string, w io.Writer) (int64, error) {
	var n int64
	err := s.withConn(ctx, func(conn *ftp.ServerConn) error {
		resp, err := conn.Retr(p)
		if err != nil {
			return translateNotExist(err)
		}
		n, err = buffer.Copy(w, resp)
		closeErr := resp.Close()
		if err != nil {
			return err
		}
		return closeErr
	})
	return n, err
}

// store uploads r to the remote path p.
func (s *Session) store(ctx context.Context, p string, r io.Reader) error {
	return s.withConn(ctx, func(conn *ftp.ServerConn) error {
		return conn.Stor(p, r)
	})
}

// delete removes the remote file at p.
func (s *Session) delete(ctx context.Context, p string) error {
	return s.withConn(ctx, func(conn *ftp.ServerConn) error {
		return translateNotExist(conn.Delete(p))
	})
}

// makeDir creates dir, tolerating the replies servers send when it
// already exists: 550 per RFC 959, and the 521 some servers use instead.
func (s *Session) makeDir(ctx context.Context, dir string) error {
	return s.withConn(ctx, func(conn *ftp.ServerConn) error {
		err := conn.MakeDir(dir)
		var protoErr *textproto.Error
		if errors.As(err, &protoErr) {
			switch protoErr.Code {
			case ftp.StatusFileUnavailable, 521:
				return nil
			}
		}
		return err
	})
}

// removeDir removes the remote directory at dir, which must be empty.
func (s *Session) removeDir(ctx context.Context, dir string) error {
	return s.withConn(ctx, func(conn *ftp.ServerConn) error {
		return translateNotExist(conn.RemoveDir(dir))
	})
}

func entryInfo(e *ftp.Entry) storage.EntryInfo {
	return storage.EntryInfo{
		Name:    e.Name,
		Size:    int64(e.Size),
		ModTime: e.Time,
		IsDir:   e.Type == ftp.EntryTypeFolder,
	}
}
