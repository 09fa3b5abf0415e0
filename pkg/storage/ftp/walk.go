package ftp

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/ftpstore/ftpstore/pkg/storage"
)

// remoteView is the slice of a session the candidate walker needs. Tests
// substitute an in-memory tree.
type remoteView interface {
	stat(ctx context.Context, p string) (storage.EntryInfo, error)
	list(ctx context.Context, dir string) ([]storage.EntryInfo, error)
}

// objectView adapts an Object to remoteView, keeping the object's retry
// policy on every stat and list.
type objectView struct {
	o  *Object
	op string
}

func (v objectView) stat(ctx context.Context, p string) (storage.EntryInfo, error) {
	return v.o.statPath(ctx, v.op, p)
}

func (v objectView) list(ctx context.Context, dir string) ([]storage.EntryInfo, error) {
	return v.o.listDir(ctx, v.op, dir)
}

// wildcardPrefix returns the longest prefix of p that ends on a path
// segment boundary and contains no wildcard. A wildcard in the first
// segment leaves only the root.
func wildcardPrefix(p string) string {
	i := strings.IndexByte(p, '{')
	if i < 0 {
		return p
	}
	j := strings.LastIndexByte(p[:i], '/')
	if j <= 0 {
		return "/"
	}
	return p[:j]
}

// candidates enumerates the paths a wildcard pattern is matched against.
// The walk starts at the pattern's wildcard-free prefix and emits files at
// any depth below it plus directories that hold nothing at all. A file
// prefix is its own only candidate; a missing prefix yields none.
func candidates(ctx context.Context, view remoteView, pattern string) ([]string, error) {
	prefix := wildcardPrefix(pattern)
	info, err := view.stat(ctx, prefix)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir {
		return []string{prefix}, nil
	}
	var paths []string
	if err := walkCandidates(ctx, view, prefix, &paths); err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func walkCandidates(ctx context.Context, view remoteView, dir string, paths *[]string) error {
	entries, err := view.list(ctx, dir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		*paths = append(*paths, dir)
		return nil
	}
	for _, e := range entries {
		p := path.Join(dir, e.Name)
		if e.IsDir {
			if err := walkCandidates(ctx, view, p, paths); err != nil {
				return err
			}
			continue
		}
		*paths = append(*paths, p)
	}
	return nil
}
