package pipeline

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/carbocation/pfx"
)

// copyFile copies src to dst byte-for-byte, preserving mode and modification
// time. The data goes through a temp file in the destination directory
// followed by a rename, so a partial file is never visible at dst. Returns
// the number of bytes copied.
func copyFile(src, dst string) (int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, pfx.Err(err)
	}
	in, err := os.Open(src)
	if err != nil {
		return 0, pfx.Err(err)
	}
	defer in.Close()

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, pfx.Err(err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(dst)+"-*")
	if err != nil {
		return 0, pfx.Err(err)
	}

	n, err := io.Copy(tmp, in)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return 0, pfx.Err(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return 0, pfx.Err(err)
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		os.Remove(tmp.Name())
		return 0, pfx.Err(err)
	}
	if err := os.Chtimes(tmp.Name(), info.ModTime(), info.ModTime()); err != nil {
		os.Remove(tmp.Name())
		return 0, pfx.Err(err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return 0, pfx.Err(err)
	}
	return n, nil
}

// CopyTree recursively copies the directory tree at src to dst, preserving
// file modification times. An existing dst is replaced wholesale, so
// repeated runs converge on the source tree instead of accreting stale
// files. Returns file count and total bytes.
func CopyTree(src, dst string) (int, int64, error) {
	if _, err := os.Stat(dst); err == nil {
		if err := os.RemoveAll(dst); err != nil {
			return 0, 0, pfx.Err(err)
		}
	}

	var files int
	var bytes int64
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		n, err := copyFile(path, target)
		if err != nil {
			return err
		}
		files++
		bytes += n
		return nil
	})
	if err != nil {
		return files, bytes, pfx.Err(err)
	}
	return files, bytes, nil
}
