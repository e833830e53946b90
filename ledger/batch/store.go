package batch

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/patrickmn/go-cache"

	"github.com/plenert/cnledger"
)

// Store owns the files that persist across runs: the buy and sell ledgers
// and the trade log. Parsed ledgers and the speculation report are cached
// until the file they were read from changes.
type Store struct {
	BuyPath      string
	SellPath     string
	TradeLogPath string

	cache *cache.Cache
}

func NewStore(buyPath, sellPath, tradeLogPath string) *Store {
	return &Store{
		BuyPath:      buyPath,
		SellPath:     sellPath,
		TradeLogPath: tradeLogPath,
		cache:        cache.New(cache.NoExpiration, 0),
	}
}

// mark is the size of a file before a document was appended to it.
type mark struct {
	path    string
	size    int64
	existed bool
	dir     bool
}

func markFile(path string) (mark, error) {
	m := mark{path: path}
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return m, nil
	case err != nil:
		return m, err
	}
	m.existed = true
	m.size = info.Size()
	m.dir = info.IsDir()
	return m, nil
}

func (m mark) restore() error {
	switch {
	case m.dir:
		return nil
	case !m.existed:
		if err := os.Remove(m.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	return os.Truncate(m.path, m.size)
}

// Commit persists the trades and entries of one document. Either all three
// files take the document or none does: a failed write cuts every file back
// to its previous size. The returned func undoes a successful commit.
func (s *Store) Commit(tables []cnledger.FilteredTable, buys, sells []cnledger.LedgerEntry) (rollback func() error, err error) {
	var marks []mark
	for _, path := range []string{s.TradeLogPath, s.BuyPath, s.SellPath} {
		m, err := markFile(path)
		if err != nil {
			return nil, err
		}
		marks = append(marks, m)
	}
	rollback = func() error {
		s.invalidate()
		var errs []error
		for _, m := range marks {
			errs = append(errs, m.restore())
		}
		return errors.Join(errs...)
	}

	if err := s.AppendTrades(tables); err != nil {
		return nil, errors.Join(err, rollback())
	}
	if err := s.Append(buys, sells); err != nil {
		return nil, errors.Join(err, rollback())
	}
	return rollback, nil
}

// Append adds entries to the buy and sell ledgers.
func (s *Store) Append(buys, sells []cnledger.LedgerEntry) error {
	if err := s.appendLedger(s.BuyPath, buys); err != nil {
		return err
	}
	return s.appendLedger(s.SellPath, sells)
}

func (s *Store) appendLedger(path string, entries []cnledger.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	s.cache.Delete(path)
	return cnledger.AppendLedgerFile(path, entries)
}

// AppendTrades adds the data rows of tables to the trade log.
func (s *Store) AppendTrades(tables []cnledger.FilteredTable) error {
	if len(tables) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.TradeLogPath), 0o755); err != nil {
		return err
	}
	s.cache.Delete(s.TradeLogPath)
	return cnledger.AppendTradeLog(s.TradeLogPath, tables)
}

// Ledger returns the entries of the ledger file at path. A missing file
// holds no entries.
func (s *Store) Ledger(path string) ([]*cnledger.LedgerEntry, error) {
	if v, ok := s.cache.Get(path); ok {
		return v.([]*cnledger.LedgerEntry), nil
	}
	entries, err := cnledger.ParseLedgerFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(path, entries)
	return entries, nil
}

// Entries returns the buy ledger followed by the sell ledger.
func (s *Store) Entries() ([]*cnledger.LedgerEntry, error) {
	buys, err := s.Ledger(s.BuyPath)
	if err != nil {
		return nil, err
	}
	sells, err := s.Ledger(s.SellPath)
	if err != nil {
		return nil, err
	}
	all := make([]*cnledger.LedgerEntry, 0, len(buys)+len(sells))
	all = append(all, buys...)
	return append(all, sells...), nil
}

// Speculation runs the speculation detector over the trade log. No trade
// log means nothing was traded.
func (s *Store) Speculation() ([]cnledger.SpeculationRecord, error) {
	if v, ok := s.cache.Get(s.TradeLogPath); ok {
		return v.([]cnledger.SpeculationRecord), nil
	}
	records, err := cnledger.DetectSpeculationFile(s.TradeLogPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(s.TradeLogPath, records)
	return records, nil
}

func (s *Store) invalidate() {
	for _, path := range []string{s.BuyPath, s.SellPath, s.TradeLogPath} {
		s.cache.Delete(path)
	}
}

// Reset removes every persisted file.
func (s *Store) Reset() error {
	s.cache.Flush()
	var errs []error
	for _, path := range []string{s.BuyPath, s.SellPath, s.TradeLogPath} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
