package batch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/andybalholm/brotli"
)

// archive moves the document at path into dir and returns its new path.
// With compress set the archived copy is brotli compressed and gets a .br
// suffix.
func archive(path, dir string, compress bool) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(dir, filepath.Base(path))
	if compress {
		dst += ".br"
		if err := copyFile(path, dst, true); err != nil {
			return "", err
		}
		return dst, os.Remove(path)
	}

	if err := os.Rename(path, dst); err == nil {
		return dst, nil
	}
	// rename fails across devices
	if err := copyFile(path, dst, false); err != nil {
		return "", err
	}
	return dst, os.Remove(path)
}

func copyFile(src, dst string, compress bool) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dst)
		}
	}()

	var w io.Writer = out
	var bw *brotli.Writer
	if compress {
		bw = brotli.NewWriterLevel(out, brotli.DefaultCompression)
		w = bw
	}
	if _, err = io.Copy(w, in); err != nil {
		return fmt.Errorf("unable to copy %s: %w", src, err)
	}
	if bw != nil {
		err = bw.Close()
	}
	return err
}
