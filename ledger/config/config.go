// Package config holds the settings of a batch run. Values come from
// Default, optionally overlaid by a TOML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
)

// PassphraseEnv overrides Document.Passphrase when set.
const PassphraseEnv = "CNLEDGER_PASSPHRASE"

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Folders    Folders    `toml:"folders"`
	Document   Document   `toml:"document"`
	Output     Output     `toml:"output"`
	Schema     Schema     `toml:"schema"`
	Accounting Accounting `toml:"accounting"`
	Archive    Archive    `toml:"archive"`
	Mail       Mail       `toml:"mail"`
	Log        Log        `toml:"log"`
}

type Folders struct {
	Input     string `toml:"input"`
	Completed string `toml:"completed"`
}

type Document struct {
	Passphrase string `toml:"passphrase"`
}

type Output struct {
	Dir        string `toml:"dir"`
	BuyLedger  string `toml:"buy_ledger"`
	SellLedger string `toml:"sell_ledger"`
	TradeLog   string `toml:"trade_log"`
	Import     string `toml:"import"`
}

type Schema struct {
	Columns        int    `toml:"columns"`
	HeaderMarker   string `toml:"header_marker"`
	SubtotalMarker string `toml:"subtotal_marker"`
}

type Accounting struct {
	BrokerLedger string `toml:"broker_ledger"`
	VoucherType  string `toml:"voucher_type"`
	LedgerSuffix string `toml:"ledger_suffix"`
	GroupName    string `toml:"group_name"`
	GroupParent  string `toml:"group_parent"`
}

type Archive struct {
	// Compress stores archived documents brotli compressed.
	Compress bool `toml:"compress"`
}

type Mail struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Mailbox  string `toml:"mailbox"`
	Subject  string `toml:"subject"`
}

type Log struct {
	Level string `toml:"level"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Folders: Folders{
			Input:     "docs",
			Completed: filepath.Join("docs", "completed"),
		},
		Output: Output{
			Dir:        "csv",
			BuyLedger:  "buy_ledger.csv",
			SellLedger: "sell_ledger.csv",
			TradeLog:   "trades.csv",
			Import:     "tally_import.xml",
		},
		Schema: Schema{
			Columns:        11,
			HeaderMarker:   "Segment",
			SubtotalMarker: "Sub Total",
		},
		Accounting: Accounting{
			BrokerLedger: "Zerodha Broking",
			VoucherType:  "Journal",
			LedgerSuffix: "Shares",
			GroupName:    "Shares",
			GroupParent:  "Investments",
		},
		Mail: Mail{
			Host:    "imap.gmail.com",
			Port:    993,
			Mailbox: "INBOX",
		},
		Log: Log{Level: "info"},
	}
}

// Load returns Default overlaid with the file at path and the environment.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		tree, err := toml.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		cfg.apply(tree)
	}
	if pw, ok := os.LookupEnv(PassphraseEnv); ok {
		cfg.Document.Passphrase = pw
	}
	return cfg, nil
}

// Parse overlays Default with TOML data.
func Parse(data []byte) (*Config, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	cfg.apply(tree)
	return cfg, nil
}

// apply copies the keys present in tree. Absent keys keep their value.
func (c *Config) apply(tree *toml.Tree) {
	str := func(key string, dst *string) {
		if v, ok := tree.Get(key).(string); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := tree.Get(key).(int64); ok {
			*dst = int(v)
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := tree.Get(key).(bool); ok {
			*dst = v
		}
	}

	str("folders.input", &c.Folders.Input)
	str("folders.completed", &c.Folders.Completed)
	str("document.passphrase", &c.Document.Passphrase)

	str("output.dir", &c.Output.Dir)
	str("output.buy_ledger", &c.Output.BuyLedger)
	str("output.sell_ledger", &c.Output.SellLedger)
	str("output.trade_log", &c.Output.TradeLog)
	str("output.import", &c.Output.Import)

	num("schema.columns", &c.Schema.Columns)
	str("schema.header_marker", &c.Schema.HeaderMarker)
	str("schema.subtotal_marker", &c.Schema.SubtotalMarker)

	str("accounting.broker_ledger", &c.Accounting.BrokerLedger)
	str("accounting.voucher_type", &c.Accounting.VoucherType)
	str("accounting.ledger_suffix", &c.Accounting.LedgerSuffix)
	str("accounting.group_name", &c.Accounting.GroupName)
	str("accounting.group_parent", &c.Accounting.GroupParent)

	flag("archive.compress", &c.Archive.Compress)

	str("mail.host", &c.Mail.Host)
	num("mail.port", &c.Mail.Port)
	str("mail.username", &c.Mail.Username)
	str("mail.password", &c.Mail.Password)
	str("mail.mailbox", &c.Mail.Mailbox)
	str("mail.subject", &c.Mail.Subject)

	str("log.level", &c.Log.Level)
}

// Validate reports every missing or malformed setting needed by a batch run.
func (c *Config) Validate() error {
	var errs []error
	required := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("%w: %s is empty", ErrInvalid, name))
		}
	}
	required("folders.input", c.Folders.Input)
	required("folders.completed", c.Folders.Completed)
	required("output.dir", c.Output.Dir)
	required("output.buy_ledger", c.Output.BuyLedger)
	required("output.sell_ledger", c.Output.SellLedger)
	required("output.trade_log", c.Output.TradeLog)
	required("output.import", c.Output.Import)
	required("schema.header_marker", c.Schema.HeaderMarker)
	required("schema.subtotal_marker", c.Schema.SubtotalMarker)
	required("accounting.broker_ledger", c.Accounting.BrokerLedger)
	required("accounting.voucher_type", c.Accounting.VoucherType)
	required("accounting.group_name", c.Accounting.GroupName)

	if c.Schema.Columns < 1 {
		errs = append(errs, fmt.Errorf("%w: schema.columns must be positive, got %d", ErrInvalid, c.Schema.Columns))
	}
	if filepath.Clean(c.Folders.Input) == filepath.Clean(c.Folders.Completed) {
		errs = append(errs, fmt.Errorf("%w: folders.completed must differ from folders.input", ErrInvalid))
	}
	return errors.Join(errs...)
}

// ValidateMail reports the settings missing for fetching contract notes.
func (c *Config) ValidateMail() error {
	var errs []error
	for _, kv := range [][2]string{
		{"mail.host", c.Mail.Host},
		{"mail.username", c.Mail.Username},
		{"mail.password", c.Mail.Password},
		{"mail.subject", c.Mail.Subject},
	} {
		if strings.TrimSpace(kv[1]) == "" {
			errs = append(errs, fmt.Errorf("%w: %s is empty", ErrInvalid, kv[0]))
		}
	}
	if c.Mail.Port < 1 {
		errs = append(errs, fmt.Errorf("%w: mail.port must be positive, got %d", ErrInvalid, c.Mail.Port))
	}
	return errors.Join(errs...)
}

// Path joins an output file name with Output.Dir.
func (c *Config) Path(name string) string {
	return filepath.Join(c.Output.Dir, name)
}

// Marshal encodes the settings as TOML with secrets masked.
func (c *Config) Marshal() ([]byte, error) {
	masked := *c
	if masked.Document.Passphrase != "" {
		masked.Document.Passphrase = "********"
	}
	if masked.Mail.Password != "" {
		masked.Mail.Password = "********"
	}
	return toml.Marshal(masked)
}
