// Package batch runs the contract note pipeline over an input folder.
//
// Every document is processed on its own: it is unlocked, its tables are
// filtered and classified, and the results are appended to the persistent
// ledgers. A document that fails stays in the input folder for the next
// run; the others are archived. Once all documents are done, Finalize
// reads the persisted files back to report speculation and rebuild the
// import document.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hako/durafmt"
	"github.com/rs/zerolog"

	"github.com/plenert/cnledger"
	"github.com/plenert/cnledger/ledger/config"
	"github.com/plenert/cnledger/ledger/pdfsource"
	"github.com/plenert/cnledger/ledger/tally"
)

var ErrNoTables = errors.New("no matching tables in document")

type Status int

const (
	StatusProcessed Status = iota
	StatusEmpty
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusProcessed:
		return "processed"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// DocumentResult describes what happened to one document.
type DocumentResult struct {
	Path      string
	Status    Status
	TradeDate cnledger.TradeDate
	Tables    int
	Buys      []cnledger.LedgerEntry
	Sells     []cnledger.LedgerEntry
	// Err is set for failed documents and for empty ones (ErrNoTables).
	Err error
	// Archived is the new location of the document, if it was moved.
	Archived string
}

// Finalization is the outcome of the cross document step.
type Finalization struct {
	Speculation []cnledger.SpeculationRecord
	Import      *tally.Envelope
	ImportPath  string
}

type Summary struct {
	Documents []DocumentResult
	Processed int
	Empty     int
	Failed    int
	Final     *Finalization
	Duration  time.Duration
}

type Processor struct {
	cfg        *config.Config
	unlocker   pdfsource.Unlocker
	extractor  pdfsource.Extractor
	classifier *cnledger.Classifier
	schema     cnledger.Schema
	store      *Store
	log        zerolog.Logger
	tallyOpts  []tally.Option
}

type Option func(*Processor)

func WithLogger(l zerolog.Logger) Option {
	return func(p *Processor) { p.log = l }
}

// WithDedupe builds the import document with one master per ledger name.
func WithDedupe() Option {
	return func(p *Processor) { p.tallyOpts = append(p.tallyOpts, tally.WithDedupe()) }
}

// New returns a Processor for cfg. The configuration is not modified.
func New(cfg *config.Config, unlocker pdfsource.Unlocker, extractor pdfsource.Extractor, opts ...Option) *Processor {
	p := &Processor{
		cfg:       cfg,
		unlocker:  unlocker,
		extractor: extractor,
		classifier: cnledger.NewClassifier(
			cfg.Accounting.BrokerLedger,
			cfg.Accounting.VoucherType,
			cfg.Accounting.LedgerSuffix,
		),
		schema: cnledger.Schema{
			Columns:        cfg.Schema.Columns,
			HeaderMarker:   cfg.Schema.HeaderMarker,
			SubtotalMarker: cfg.Schema.SubtotalMarker,
		},
		store: NewStore(
			cfg.Path(cfg.Output.BuyLedger),
			cfg.Path(cfg.Output.SellLedger),
			cfg.Path(cfg.Output.TradeLog),
		),
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) Store() *Store {
	return p.store
}

// Documents lists the PDF files of the input folder in name order.
func (p *Processor) Documents() ([]string, error) {
	dirEntries, err := os.ReadDir(p.cfg.Folders.Input)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, de := range dirEntries {
		if !de.Type().IsRegular() || !strings.EqualFold(filepath.Ext(de.Name()), ".pdf") {
			continue
		}
		paths = append(paths, filepath.Join(p.cfg.Folders.Input, de.Name()))
	}
	return paths, nil
}

// ProcessDocument runs the pipeline for one document and persists its
// trades and entries. Failures, panics of the extractor included, are
// reported in the result.
func (p *Processor) ProcessDocument(path string) DocumentResult {
	res, _ := p.process(path)
	return res
}

// process is ProcessDocument returning the undo of the persisted writes.
func (p *Processor) process(path string) (res DocumentResult, rollback func() error) {
	res.Path = path
	rollback = func() error { return nil }
	log := p.log.With().Str("document", filepath.Base(path)).Logger()

	fail := func(err error) (DocumentResult, func() error) {
		res.Status = StatusFailed
		res.Err = err
		log.Error().Err(err).Msg("document failed")
		return res, rollback
	}

	unlocked, cleanup, err := p.unlocker.Unlock(path, p.cfg.Document.Passphrase)
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	pages, err := p.extract(unlocked)
	if err != nil {
		return fail(err)
	}

	tables := p.schema.FilterPages(pdfsource.Tables(pages))
	res.Tables = len(tables)
	if len(tables) == 0 {
		res.Status = StatusEmpty
		res.Err = ErrNoTables
		log.Warn().Int("pages", len(pages)).Msg("no matching tables")
		return res, rollback
	}

	dateText := cnledger.FindTradeDate(pdfsource.Texts(pages))
	res.TradeDate = cnledger.ParseTradeDate(dateText)
	if res.TradeDate.IsZero() {
		log.Warn().Str("text", dateText).Msg("trade date not found, entries are undated")
	}

	buys, sells, cerr := p.classifier.Classify(tables, res.TradeDate)
	if cerr != nil {
		log.Warn().Err(cerr).Msg("skipped tables")
	}
	res.Buys, res.Sells = buys, sells

	undo, err := p.store.Commit(tables, buys, sells)
	if err != nil {
		return fail(fmt.Errorf("unable to write ledgers: %w", err))
	}

	res.Status = StatusProcessed
	log.Info().
		Str("trade_date", res.TradeDate.Text).
		Int("tables", len(tables)).
		Int("buys", len(buys)).
		Int("sells", len(sells)).
		Msg("document processed")
	return res, undo
}

func (p *Processor) extract(path string) (pages []pdfsource.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %s: %v", pdfsource.ErrExtract, path, r)
		}
	}()
	return p.extractor.Extract(path)
}

// Run processes every document of the input folder, archives the ones that
// did not fail and then finalizes. A document that cannot be archived has
// its writes undone and stays in place as failed. ctx is checked between
// documents.
func (p *Processor) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	for _, dir := range []string{p.cfg.Folders.Input, p.cfg.Folders.Completed, p.cfg.Output.Dir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	paths, err := p.Documents()
	if err != nil {
		return nil, err
	}
	p.log.Info().Int("documents", len(paths)).Str("folder", p.cfg.Folders.Input).Msg("batch started")

	summary := &Summary{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		res, rollback := p.process(path)
		if res.Status != StatusFailed {
			dst, err := archive(path, p.cfg.Folders.Completed, p.cfg.Archive.Compress)
			if err != nil {
				err = fmt.Errorf("unable to archive: %w", err)
				res.Status = StatusFailed
				res.Err = errors.Join(err, rollback())
				p.log.Error().Err(res.Err).Str("document", path).Msg("document failed")
			} else {
				res.Archived = dst
			}
		}
		switch res.Status {
		case StatusProcessed:
			summary.Processed++
		case StatusEmpty:
			summary.Empty++
		case StatusFailed:
			summary.Failed++
		}
		summary.Documents = append(summary.Documents, res)
	}

	final, err := p.Finalize()
	summary.Final = final
	summary.Duration = time.Since(start)

	p.log.Info().
		Int("processed", summary.Processed).
		Int("empty", summary.Empty).
		Int("failed", summary.Failed).
		Str("took", durafmt.Parse(summary.Duration).LimitFirstN(2).String()).
		Msg("batch finished")
	return summary, err
}

// Finalize reports speculative trades and rebuilds the import document
// from the full persisted buy and sell ledgers. The two steps fail
// independently; the import document is written even when speculation
// cannot be detected, and the returned error joins both failures.
func (p *Processor) Finalize() (*Finalization, error) {
	final := &Finalization{ImportPath: p.cfg.Path(p.cfg.Output.Import)}

	var specErr error
	final.Speculation, specErr = p.store.Speculation()
	if specErr != nil {
		specErr = fmt.Errorf("speculation: %w", specErr)
	}
	for _, s := range final.Speculation {
		p.log.Warn().
			Str("security", s.Security).
			Str("bought", s.Bought.String()).
			Str("sold", s.Sold.String()).
			Msg("speculation detected")
	}

	if err := p.writeImport(final); err != nil {
		return final, errors.Join(specErr, fmt.Errorf("import document: %w", err))
	}
	p.log.Info().Int("ledgers", len(final.Import.Ledgers())).Str("file", final.ImportPath).Msg("import document written")
	return final, specErr
}

func (p *Processor) writeImport(final *Finalization) error {
	entries, err := p.store.Entries()
	if err != nil {
		return err
	}
	final.Import = tally.NewImport(tally.GroupSpec{
		Name:   p.cfg.Accounting.GroupName,
		Parent: p.cfg.Accounting.GroupParent,
	}, entries, p.tallyOpts...)

	if err := os.MkdirAll(p.cfg.Output.Dir, 0o755); err != nil {
		return err
	}
	return tally.WriteFile(final.ImportPath, final.Import)
}

// Reset removes the persisted ledgers and trade log.
func (p *Processor) Reset() error {
	p.log.Info().Msg("clearing ledgers")
	return p.store.Reset()
}
