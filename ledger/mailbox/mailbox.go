// Package mailbox downloads contract notes delivered by mail.
package mailbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/rs/zerolog"

	"github.com/plenert/cnledger/ledger/config"
)

var (
	ErrDateRange  = errors.New("mailbox: since must be before before")
	ErrNoFilename = errors.New("mailbox: attachment has no usable file name")
	ErrNoSubject  = errors.New("mailbox: subject filter is empty")
)

// Fetcher saves the attachments of matching messages into Dir.
type Fetcher struct {
	Mail config.Mail
	Dir  string
	Log  zerolog.Logger
}

func NewFetcher(cfg config.Mail, dir string, log zerolog.Logger) *Fetcher {
	return &Fetcher{Mail: cfg, Dir: dir, Log: log}
}

// Criteria selects messages received on or after since and strictly before
// before. Only the date part of either bound is used by IMAP servers.
func Criteria(since, before time.Time) (*imap.SearchCriteria, error) {
	if !before.IsZero() && !since.Before(before) {
		return nil, ErrDateRange
	}
	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	criteria.Before = before
	return criteria, nil
}

// MatchSubject reports whether subject contains substr, ignoring case.
func MatchSubject(subject, substr string) bool {
	return strings.Contains(strings.ToLower(subject), strings.ToLower(substr))
}

// Fetch searches the mailbox and saves the attachments of every message
// whose subject matches. It returns the saved paths.
func (f *Fetcher) Fetch(ctx context.Context, since, before time.Time) ([]string, error) {
	if strings.TrimSpace(f.Mail.Subject) == "" {
		return nil, ErrNoSubject
	}
	criteria, err := Criteria(since, before)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(f.Mail.Host, strconv.Itoa(f.Mail.Port))
	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("mailbox: dial %s: %w", addr, err)
	}
	defer c.Logout()

	if err := c.Login(f.Mail.Username, f.Mail.Password); err != nil {
		return nil, fmt.Errorf("mailbox: login: %w", err)
	}
	if _, err := c.Select(f.Mail.Mailbox, true); err != nil {
		return nil, fmt.Errorf("mailbox: select %s: %w", f.Mail.Mailbox, err)
	}

	ids, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("mailbox: search: %w", err)
	}
	f.Log.Info().Int("messages", len(ids)).Msg("messages in date range")
	if len(ids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)
	section := &imap.BodySectionName{Peek: true}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, []imap.FetchItem{section.FetchItem()}, messages)
	}()

	var (
		saved []string
		errs  []error
	)
	for msg := range messages {
		// drain the channel once cancelled
		if ctx.Err() != nil {
			continue
		}
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		paths, err := f.Save(body)
		if err != nil {
			errs = append(errs, fmt.Errorf("message %d: %w", msg.SeqNum, err))
		}
		saved = append(saved, paths...)
	}
	if err := <-done; err != nil {
		errs = append(errs, fmt.Errorf("mailbox: fetch: %w", err))
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return saved, errors.Join(errs...)
}

// Save reads one RFC 5322 message and, if its subject matches, writes its
// attachments into Dir. Files of the same name are replaced.
func (f *Fetcher) Save(r io.Reader) ([]string, error) {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("mailbox: %w", err)
	}
	defer mr.Close()

	subject, err := mr.Header.Subject()
	if err != nil {
		return nil, fmt.Errorf("mailbox: subject: %w", err)
	}
	if !MatchSubject(subject, f.Mail.Subject) {
		return nil, nil
	}
	from := mr.Header.Get("From")
	f.Log.Info().Str("from", from).Str("subject", subject).Msg("downloading attachments")

	var saved []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return saved, fmt.Errorf("mailbox: %w", err)
		}
		h, ok := part.Header.(*mail.AttachmentHeader)
		if !ok {
			continue
		}
		name, _ := h.Filename()
		path, err := f.write(name, part.Body)
		if err != nil {
			return saved, err
		}
		f.Log.Info().Str("file", path).Msg("attachment saved")
		saved = append(saved, path)
	}
	return saved, nil
}

func (f *Fetcher) write(name string, body io.Reader) (string, error) {
	name, err := SafeName(name)
	if err != nil {
		return "", err
	}
	path := filepath.Join(f.Dir, name)
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return path, out.Close()
}

// SafeName strips any directory from an attachment file name.
func SafeName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	name = filepath.Base(filepath.FromSlash(name))
	switch name {
	case "", ".", "..", string(filepath.Separator):
		return "", ErrNoFilename
	}
	return name, nil
}
