package mailbox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plenert/cnledger/ledger/config"
)

const noteMessage = "From: Broker <notes@broker.example>\r\n" +
	"To: me@example.com\r\n" +
	"Subject: =?UTF-8?Q?Contract_Note_for_Acc_No_1234_=E2=80=93_15-Jan?=\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"b1\"\r\n" +
	"\r\n" +
	"--b1\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Please find your contract note attached.\r\n" +
	"--b1\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=\"../CN_15012024.pdf\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"JVBERi0xLjQK\r\n" +
	"--b1--\r\n"

func testFetcher(t *testing.T, subject string) *Fetcher {
	t.Helper()
	cfg := config.Default().Mail
	cfg.Subject = subject
	return NewFetcher(cfg, t.TempDir(), zerolog.Nop())
}

func TestSave(t *testing.T) {
	f := testFetcher(t, "contract note for acc no 1234")

	saved, err := f.Save(strings.NewReader(noteMessage))
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(f.Dir, "CN_15012024.pdf")}, saved)

	data, err := os.ReadFile(saved[0])
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4\n", string(data))
}

func TestSaveSkipsOtherSubjects(t *testing.T) {
	f := testFetcher(t, "Account statement")

	saved, err := f.Save(strings.NewReader(noteMessage))
	require.NoError(t, err)
	assert.Empty(t, saved)

	entries, err := os.ReadDir(f.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCriteria(t *testing.T) {
	since := time.Date(2024, 8, 24, 0, 0, 0, 0, time.UTC)
	before := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)

	c, err := Criteria(since, before)
	require.NoError(t, err)
	assert.Equal(t, since, c.Since)
	assert.Equal(t, before, c.Before)

	c, err = Criteria(since, time.Time{})
	require.NoError(t, err)
	assert.True(t, c.Before.IsZero())

	_, err = Criteria(before, since)
	assert.ErrorIs(t, err, ErrDateRange)
}

func TestMatchSubject(t *testing.T) {
	assert.True(t, MatchSubject("Contract Note for Acc No 1234", "contract NOTE"))
	assert.True(t, MatchSubject("anything", ""))
	assert.False(t, MatchSubject("Ledger statement", "contract note"))
}

func TestSafeName(t *testing.T) {
	var tests = []struct {
		in, out string
		err     error
	}{
		{"note.pdf", "note.pdf", nil},
		{"../../etc/note.pdf", "note.pdf", nil},
		{`C:\tmp\note.pdf`, "note.pdf", nil},
		{"", "", ErrNoFilename},
		{"..", "", ErrNoFilename},
		{"/", "", ErrNoFilename},
	}
	for _, tc := range tests {
		out, err := SafeName(tc.in)
		assert.ErrorIs(t, err, tc.err, tc.in)
		assert.Equal(t, tc.out, out, tc.in)
	}
}
