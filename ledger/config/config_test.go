package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 11, cfg.Schema.Columns)
	assert.Equal(t, "Segment", cfg.Schema.HeaderMarker)
	assert.Equal(t, "Sub Total", cfg.Schema.SubtotalMarker)
	assert.Equal(t, "Journal", cfg.Accounting.VoucherType)
	assert.Equal(t, "Shares", cfg.Accounting.LedgerSuffix)
	assert.Empty(t, cfg.Document.Passphrase)
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[folders]
input = "/data/in"

[schema]
columns = 12

[archive]
compress = true

[mail]
port = 1993
`))
	require.NoError(t, err)

	assert.Equal(t, "/data/in", cfg.Folders.Input)
	assert.Equal(t, Default().Folders.Completed, cfg.Folders.Completed)
	assert.Equal(t, 12, cfg.Schema.Columns)
	assert.Equal(t, "Segment", cfg.Schema.HeaderMarker)
	assert.True(t, cfg.Archive.Compress)
	assert.Equal(t, 1993, cfg.Mail.Port)
	assert.Equal(t, "imap.gmail.com", cfg.Mail.Host)
}

func TestParseError(t *testing.T) {
	_, err := Parse([]byte("[folders\ninput = "))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cnledger.toml")
	require.NoError(t, os.WriteFile(path, []byte("[document]\npassphrase = \"from-file\"\n"), 0o600))

	t.Run("file", func(t *testing.T) {
		t.Setenv(PassphraseEnv, "")
		os.Unsetenv(PassphraseEnv)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "from-file", cfg.Document.Passphrase)
	})

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv(PassphraseEnv, "from-env")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Document.Passphrase)
	})

	t.Run("no file", func(t *testing.T) {
		t.Setenv(PassphraseEnv, "x")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default().Output, cfg.Output)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Output.BuyLedger = " "
	cfg.Schema.Columns = 0
	cfg.Folders.Completed = cfg.Folders.Input + string(filepath.Separator)

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "output.buy_ledger")
	assert.Contains(t, err.Error(), "schema.columns")
	assert.Contains(t, err.Error(), "folders.completed")
}

func TestValidateMail(t *testing.T) {
	cfg := Default()
	cfg.Mail.Host = ""
	err := cfg.ValidateMail()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, strings.Join([]string{
		"invalid configuration: mail.host is empty",
		"invalid configuration: mail.username is empty",
		"invalid configuration: mail.password is empty",
		"invalid configuration: mail.subject is empty",
	}, "\n"), err.Error())

	cfg.Mail.Host = "imap.example.com"
	cfg.Mail.Username = "me@example.com"
	cfg.Mail.Password = "secret"
	cfg.Mail.Subject = "Contract Note"
	assert.NoError(t, cfg.ValidateMail())
}

func TestMarshalMasksSecrets(t *testing.T) {
	cfg := Default()
	cfg.Document.Passphrase = "hunter2"
	cfg.Mail.Password = "secret"

	data, err := cfg.Marshal()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")
	assert.NotContains(t, string(data), "secret")
	assert.Contains(t, string(data), "header_marker")
	assert.Equal(t, "hunter2", cfg.Document.Passphrase)
}
