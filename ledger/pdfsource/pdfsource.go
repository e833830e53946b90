// Package pdfsource reads contract notes: it removes the password from a
// document and returns the text and candidate tables of every page.
package pdfsource

import (
	"errors"

	"github.com/plenert/cnledger"
)

var (
	ErrDecrypt = errors.New("pdfsource: unable to decrypt document")
	ErrExtract = errors.New("pdfsource: unable to extract pages")
)

// Page is the extracted content of one page.
type Page struct {
	Number int
	Text   string
	Tables []cnledger.RawTable
}

// Unlocker produces a readable copy of a password protected document.
// The returned cleanup func removes the copy and is never nil.
type Unlocker interface {
	Unlock(path, passphrase string) (unlocked string, cleanup func(), err error)
}

// Extractor returns the pages of a readable document in order.
type Extractor interface {
	Extract(path string) ([]Page, error)
}

// Texts returns the text of every page.
func Texts(pages []Page) []string {
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text
	}
	return texts
}

// Tables returns the candidate tables of every page.
func Tables(pages []Page) [][]cnledger.RawTable {
	tables := make([][]cnledger.RawTable, len(pages))
	for i, p := range pages {
		tables[i] = p.Tables
	}
	return tables
}
