package pdfsource

import (
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFCPUUnlocker decrypts documents into temporary files with pdfcpu.
type PDFCPUUnlocker struct {
	// TempDir holds the decrypted copies. os.TempDir when empty.
	TempDir string
}

func NewPDFCPUUnlocker(tempDir string) *PDFCPUUnlocker {
	api.DisableConfigDir()
	return &PDFCPUUnlocker{TempDir: tempDir}
}

// Unlock writes a decrypted copy of path. A document without encryption is
// returned as is.
func (u *PDFCPUUnlocker) Unlock(path, passphrase string) (string, func(), error) {
	noop := func() {}

	out, err := os.CreateTemp(u.TempDir, "unlocked-*.pdf")
	if err != nil {
		return "", noop, err
	}
	out.Close()
	cleanup := func() { os.Remove(out.Name()) }

	conf := model.NewDefaultConfiguration()
	conf.UserPW = passphrase
	conf.OwnerPW = passphrase

	if err := api.DecryptFile(path, out.Name(), conf); err != nil {
		cleanup()
		if strings.Contains(err.Error(), "not encrypted") {
			return path, noop, nil
		}
		return "", noop, fmt.Errorf("%w: %s: %v", ErrDecrypt, path, err)
	}
	return out.Name(), cleanup, nil
}
