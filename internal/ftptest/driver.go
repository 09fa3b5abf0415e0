package ftptest

import (
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"

	ftpserver "goftp.io/server/core"
)

// driver serves one client session from the local disk root. Directory
// creation is deliberately non-recursive and directory deletion refuses
// non-empty directories, matching common server behavior.
type driver struct {
	root string
}

// resolve maps a virtual path onto the served root. Cleaning the path as
// absolute keeps traversal inside the root.
func (d *driver) resolve(p string) string {
	return filepath.Join(d.root, filepath.FromSlash(path.Clean("/"+p)))
}

func (d *driver) Stat(p string) (ftpserver.FileInfo, error) {
	fi, err := os.Stat(d.resolve(p))
	if err != nil {
		return nil, err
	}
	return fileInfo{fi}, nil
}

func (d *driver) ChangeDir(p string) error {
	fi, err := os.Stat(d.resolve(p))
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return errors.New("not a directory")
	}
	return nil
}

func (d *driver) ListDir(p string, callback func(ftpserver.FileInfo) error) error {
	entries, err := os.ReadDir(d.resolve(p))
	if err != nil {
		return err
	}
	for _, entry := range entries {
		fi, err := entry.Info()
		if err != nil {
			return err
		}
		if err := callback(fileInfo{fi}); err != nil {
			return err
		}
	}
	return nil
}

func (d *driver) DeleteDir(p string) error {
	fi, err := os.Stat(d.resolve(p))
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return errors.New("not a directory")
	}
	return os.Remove(d.resolve(p))
}

func (d *driver) DeleteFile(p string) error {
	fi, err := os.Stat(d.resolve(p))
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return errors.New("not a file")
	}
	return os.Remove(d.resolve(p))
}

func (d *driver) Rename(oldName, newName string) error {
	return os.Rename(d.resolve(oldName), d.resolve(newName))
}

func (d *driver) MakeDir(p string) error {
	return os.Mkdir(d.resolve(p), 0755)
}

func (d *driver) GetFile(p string, offset int64) (int64, io.ReadCloser, error) {
	full := d.resolve(p)
	fi, err := os.Stat(full)
	if err != nil {
		return 0, nil, err
	}
	if fi.IsDir() {
		return 0, nil, errors.New("not a file")
	}

	f, err := os.Open(full)
	if err != nil {
		return 0, nil, err
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		_ = f.Close()
		return 0, nil, err
	}
	return fi.Size() - offset, f, nil
}

func (d *driver) PutFile(p string, data io.Reader, appendData bool) (int64, error) {
	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if appendData {
		flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	f, err := os.OpenFile(d.resolve(p), flag, 0644)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	return io.Copy(f, data)
}

// fileInfo adapts os.FileInfo to the server's listing interface.
type fileInfo struct {
	os.FileInfo
}

func (fileInfo) Owner() string { return "ftptest" }
func (fileInfo) Group() string { return "ftptest" }
