package ftp

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ftpstore/ftpstore/pkg/retry"
	"github.com/ftpstore/ftpstore/pkg/storage"
)

// Object is one remote path on one endpoint, bound to the provider's
// pooled session for that endpoint. All remote work runs under the
// provider's retry policy.
type Object struct {
	provider *Provider
	query    ParsedQuery
	session  *Session
	log      logrus.FieldLogger
}

func newObject(p *Provider, query ParsedQuery, sess *Session) *Object {
	return &Object{
		provider: p,
		query:    query,
		session:  sess,
		log: p.log.WithFields(logrus.Fields{
			"endpoint": query.Endpoint().String(),
			"path":     query.Path(),
		}),
	}
}

// Query returns the query string the object was created from.
func (o *Object) Query() string {
	return o.query.String()
}

// LocalSuffix returns the path suffix hosts stage this object under.
func (o *Object) LocalSuffix() string {
	return o.query.LocalSuffix()
}

// retrier builds the retry wrapper for one remote operation. Transient
// failures are logged and counted before each reattempt.
func (o *Object) retrier(op string) *retry.Retryer {
	cfg := o.provider.retry
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		o.log.WithFields(logrus.Fields{
			"operation": op,
			"attempt":   attempt,
			"delay":     delay,
			"error":     err.Error(),
		}).Warn("retrying after transient failure")
		o.provider.metrics.RecordRetry(op)
	}
	return retry.New(cfg)
}

func (o *Object) statPath(ctx context.Context, op, p string) (storage.EntryInfo, error) {
	return retry.DoWithResult(ctx, o.retrier(op), func(ctx context.Context) (storage.EntryInfo, error) {
		return o.session.stat(ctx, p)
	})
}

func (o *Object) listDir(ctx context.Context, op, dir string) ([]storage.EntryInfo, error) {
	return retry.DoWithResult(ctx, o.retrier(op), func(ctx context.Context) ([]storage.EntryInfo, error) {
		return o.session.list(ctx, dir)
	})
}

// Exists reports whether the remote path is present as a file or
// directory. A connection failure is an error, never false.
func (o *Object) Exists(ctx context.Context) (ok bool, err error) {
	start := time.Now()
	defer func() { o.provider.metrics.RecordOperation("exists", time.Since(start), 0, err == nil) }()

	_, err = o.statPath(ctx, "exists", o.query.Path())
	if errors.Is(err, storage.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "exists %s", o.query)
	}
	return true, nil
}

// ModTime returns the remote modification time of the object.
func (o *Object) ModTime(ctx context.Context) (t time.Time, err error) {
	start := time.Now()
	defer func() { o.provider.metrics.RecordOperation("mtime", time.Since(start), 0, err == nil) }()

	info, err := o.statPath(ctx, "mtime", o.query.Path())
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "mtime %s", o.query)
	}
	return info.ModTime, nil
}

// Size returns the remote size in bytes. For directories the value is
// whatever the server reports for the entry, which varies between
// servers.
func (o *Object) Size(ctx context.Context) (n int64, err error) {
	start := time.Now()
	defer func() { o.provider.metrics.RecordOperation("size", time.Since(start), 0, err == nil) }()

	info, err := o.statPath(ctx, "size", o.query.Path())
	if err != nil {
		return 0, errors.Wrapf(err, "size %s", o.query)
	}
	return info.Size, nil
}

// Retrieve downloads the object to localPath. A file lands atomically
// through a temp file in the destination directory; a directory mirrors
// recursively, empty subdirectories included.
func (o *Object) Retrieve(ctx context.Context, localPath string) (err error) {
	start := time.Now()
	var transferred int64
	defer func() {
		o.provider.metrics.RecordOperation("retrieve", time.Since(start), transferred, err == nil)
	}()

	info, err := o.statPath(ctx, "retrieve", o.query.Path())
	if err != nil {
		return errors.Wrapf(err, "retrieve %s", o.query)
	}
	if info.IsDir {
		transferred, err = o.retrieveTree(ctx, o.query.Path(), localPath)
	} else {
		transferred, err = o.retrieveFile(ctx, o.query.Path(), localPath)
	}
	if err != nil {
		return errors.Wrapf(err, "retrieve %s", o.query)
	}
	return nil
}

// retrieveFile downloads one file. Every attempt lands in a fresh temp
// file that is renamed over localPath only after the transfer completed,
// so a retried attempt never exposes a torn file.
func (o *Object) retrieveFile(ctx context.Context, remotePath, localPath string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return 0, err
	}
	var n int64
	err := o.retrier("retrieve").DoWithContext(ctx, func(ctx context.Context) error {
		tmp, err := os.CreateTemp(filepath.Dir(localPath), ".ftpstore-*")
		if err != nil {
			return err
		}
		defer func() {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}()
		n, err = o.session.retrieve(ctx, remotePath, tmp)
		if err != nil {
			return err
		}
		if err := tmp.Chmod(0644); err != nil {
			return err
		}
		if err := tmp.Close(); err != nil {
			return err
		}
		return os.Rename(tmp.Name(), localPath)
	})
	if err != nil {
		return 0, err
	}
	o.log.WithFields(logrus.Fields{"remote": remotePath, "local": localPath, "bytes": n}).Debug("downloaded file")
	return n, nil
}

func (o *Object) retrieveTree(ctx context.Context, remoteDir, localDir string) (int64, error) {
	if err := os.MkdirAll(localDir, 0755); err != nil {
		return 0, err
	}
	entries, err := o.listDir(ctx, "retrieve", remoteDir)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		remote := path.Join(remoteDir, e.Name)
		local := filepath.Join(localDir, e.Name)
		var n int64
		if e.IsDir {
			n, err = o.retrieveTree(ctx, remote, local)
		} else {
			n, err = o.retrieveFile(ctx, remote, local)
		}
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// Store uploads localPath to the object's remote path, creating missing
// remote parent directories first. A local directory uploads recursively,
// empty subdirectories included.
func (o *Object) Store(ctx context.Context, localPath string) (err error) {
	start := time.Now()
	var transferred int64
	defer func() {
		o.provider.metrics.RecordOperation("store", time.Since(start), transferred, err == nil)
	}()

	fi, err := os.Stat(localPath)
	if err != nil {
		return errors.Wrapf(err, "store %s", o.query)
	}
	if err = o.ensureDir(ctx, path.Dir(o.query.Path())); err != nil {
		return errors.Wrapf(err, "store %s", o.query)
	}
	if fi.IsDir() {
		transferred, err = o.storeTree(ctx, localPath, o.query.Path())
	} else {
		transferred, err = o.storeFile(ctx, localPath, o.query.Path())
	}
	if err != nil {
		return errors.Wrapf(err, "store %s", o.query)
	}
	return nil
}

// ensureDir creates dir and any missing ancestors, deepest level last.
// Levels that already exist are left alone; a file in the way is an
// error.
func (o *Object) ensureDir(ctx context.Context, dir string) error {
	dir = path.Clean(dir)
	if dir == "/" || dir == "." {
		return nil
	}
	info, err := o.statPath(ctx, "store", dir)
	if err == nil {
		if info.IsDir {
			return nil
		}
		return errors.Errorf("remote path %s is a file, not a directory", dir)
	}
	if !errors.Is(err, storage.ErrNotExist) {
		return err
	}
	if err := o.ensureDir(ctx, path.Dir(dir)); err != nil {
		return err
	}
	return o.makeDirStep(ctx, dir)
}

func (o *Object) makeDirStep(ctx context.Context, dir string) error {
	return o.retrier("store").DoWithContext(ctx, func(ctx context.Context) error {
		return o.session.makeDir(ctx, dir)
	})
}

// storeFile uploads one file. Every attempt reopens the source so a
// half-consumed reader is never resent.
func (o *Object) storeFile(ctx context.Context, localPath, remotePath string) (int64, error) {
	var n int64
	err := o.retrier("store").DoWithContext(ctx, func(ctx context.Context) error {
		f, err := os.Open(localPath)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		fi, err := f.Stat()
		if err != nil {
			return err
		}
		if err := o.session.store(ctx, remotePath, f); err != nil {
			return err
		}
		n = fi.Size()
		return nil
	})
	if err != nil {
		return 0, err
	}
	o.log.WithFields(logrus.Fields{"local": localPath, "remote": remotePath, "bytes": n}).Debug("uploaded file")
	return n, nil
}

func (o *Object) storeTree(ctx context.Context, localRoot, remoteRoot string) (int64, error) {
	if err := o.ensureDir(ctx, remoteRoot); err != nil {
		return 0, err
	}
	var total int64
	err := filepath.WalkDir(localRoot, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(localRoot, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		remote := path.Join(remoteRoot, filepath.ToSlash(rel))
		if d.IsDir() {
			return o.makeDirStep(ctx, remote)
		}
		n, err := o.storeFile(ctx, p, remote)
		total += n
		return err
	})
	return total, err
}

// Remove deletes the object. A directory is removed with its entire
// subtree. A missing path is reported as storage.ErrNotExist.
func (o *Object) Remove(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { o.provider.metrics.RecordOperation("remove", time.Since(start), 0, err == nil) }()

	info, err := o.statPath(ctx, "remove", o.query.Path())
	if err != nil {
		return errors.Wrapf(err, "remove %s", o.query)
	}
	if info.IsDir {
		err = o.removeTree(ctx, o.query.Path())
	} else {
		err = o.deleteStep(ctx, o.query.Path())
	}
	if err != nil {
		return errors.Wrapf(err, "remove %s", o.query)
	}
	return nil
}

// removeTree deletes a subtree depth first; the protocol has no recursive
// delete of its own.
func (o *Object) removeTree(ctx context.Context, dir string) error {
	entries, err := o.listDir(ctx, "remove", dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		p := path.Join(dir, e.Name)
		if e.IsDir {
			err = o.removeTree(ctx, p)
		} else {
			err = o.deleteStep(ctx, p)
		}
		if err != nil {
			return err
		}
	}
	return o.retrier("remove").DoWithContext(ctx, func(ctx context.Context) error {
		return o.session.removeDir(ctx, dir)
	})
}

func (o *Object) deleteStep(ctx context.Context, p string) error {
	return o.retrier("remove").DoWithContext(ctx, func(ctx context.Context) error {
		return o.session.delete(ctx, p)
	})
}

// Candidates enumerates the remote paths a wildcard query should be
// matched against: every file under the query's wildcard-free prefix plus
// every directory with no entries at all. A file prefix is its own only
// candidate; a missing prefix yields none.
func (o *Object) Candidates(ctx context.Context) (paths []string, err error) {
	start := time.Now()
	defer func() { o.provider.metrics.RecordOperation("candidates", time.Since(start), 0, err == nil) }()

	paths, err = candidates(ctx, objectView{o: o, op: "candidates"}, o.query.Path())
	if err != nil {
		return nil, errors.Wrapf(err, "candidates %s", o.query)
	}
	return paths, nil
}
