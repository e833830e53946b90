// Package tally builds the "All Masters" import document understood by
// Tally accounting: one group and one ledger master per journal entry.
package tally

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/plenert/cnledger"
)

const (
	RequestImport = "Import Data"
	ReportMasters = "All Masters"
	ActionCreate  = "Create"
)

var (
	ErrNotEnvelope = errors.New("tally: document root is not ENVELOPE")
	ErrNoGroup     = errors.New("tally: document has no group master")
)

// Envelope is the root of an import document.
type Envelope struct {
	XMLName xml.Name `xml:"ENVELOPE"`
	Header  Header   `xml:"HEADER"`
	Body    Body     `xml:"BODY"`
}

type Header struct {
	TallyRequest string `xml:"TALLYREQUEST"`
}

type Body struct {
	ImportData ImportData `xml:"IMPORTDATA"`
}

type ImportData struct {
	RequestDesc RequestDesc `xml:"REQUESTDESC"`
	RequestData RequestData `xml:"REQUESTDATA"`
}

type RequestDesc struct {
	ReportName string `xml:"REPORTNAME"`
}

type RequestData struct {
	Messages []Message `xml:"TALLYMESSAGE"`
}

// Message carries exactly one master.
type Message struct {
	Group  *Group  `xml:"GROUP,omitempty"`
	Ledger *Ledger `xml:"LEDGER,omitempty"`
}

// Group is a group master; ledgers are created under it.
type Group struct {
	Name     string   `xml:"NAME,attr"`
	Action   string   `xml:"ACTION,attr"`
	NameList NameList `xml:"NAME.LIST"`
	Parent   string   `xml:"PARENT"`
}

// Ledger is a ledger master.
type Ledger struct {
	Name           string   `xml:"NAME,attr"`
	Action         string   `xml:"ACTION,attr"`
	NameList       NameList `xml:"NAME.LIST"`
	Parent         string   `xml:"PARENT"`
	OpeningBalance string   `xml:"OPENINGBALANCE"`
	Narration      string   `xml:"NARRATION"`
}

type NameList struct {
	Names []string `xml:"NAME"`
}

// Groups returns the group masters of the document.
func (e *Envelope) Groups() []*Group {
	var out []*Group
	for _, m := range e.Body.ImportData.RequestData.Messages {
		if m.Group != nil {
			out = append(out, m.Group)
		}
	}
	return out
}

// Ledgers returns the ledger masters of the document, in order.
func (e *Envelope) Ledgers() []*Ledger {
	var out []*Ledger
	for _, m := range e.Body.ImportData.RequestData.Messages {
		if m.Ledger != nil {
			out = append(out, m.Ledger)
		}
	}
	return out
}

// GroupSpec names the group holding the security ledgers.
type GroupSpec struct {
	Name   string
	Parent string
}

type options struct {
	dedupe bool
}

// Option configures NewImport.
type Option func(*options)

// WithDedupe keeps only the first ledger master of every name. Without it
// every entry produces its own master, so a name traded on several notes
// is created several times with differing opening balances.
func WithDedupe() Option {
	return func(o *options) { o.dedupe = true }
}

// NewImport builds the import document: the group master followed by one
// ledger master per entry, named after the entry's debit ledger.
func NewImport(group GroupSpec, entries []*cnledger.LedgerEntry, opts ...Option) *Envelope {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	env := &Envelope{
		Header: Header{TallyRequest: RequestImport},
	}
	env.Body.ImportData.RequestDesc.ReportName = ReportMasters

	messages := []Message{{
		Group: &Group{
			Name:     group.Name,
			Action:   ActionCreate,
			NameList: NameList{Names: []string{group.Name}},
			Parent:   group.Parent,
		},
	}}

	seen := make(map[string]bool)
	for _, entry := range entries {
		name := ledgerName(entry.Debit)
		if o.dedupe {
			if seen[name] {
				continue
			}
			seen[name] = true
		}
		messages = append(messages, Message{
			Ledger: &Ledger{
				Name:           name,
				Action:         ActionCreate,
				NameList:       NameList{Names: []string{name}},
				Parent:         group.Name,
				OpeningBalance: entry.Amount.String(),
				Narration:      entry.Narration,
			},
		})
	}
	env.Body.ImportData.RequestData.Messages = messages
	return env
}

func ledgerName(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(s))
}

type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes env as indented XML with an XML declaration.
func (e *Encoder) Encode(env *Envelope) error {
	if _, err := io.WriteString(e.w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(e.w)
	enc.Indent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("tally: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(e.w, "\n")
	return err
}

type Decoder struct {
	r io.Reader
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode reads an import document. It fails if the root is not ENVELOPE or
// no group master is present.
func (d *Decoder) Decode() (*Envelope, error) {
	var env Envelope
	if err := xml.NewDecoder(d.r).Decode(&env); err != nil {
		var unexpected xml.UnmarshalError
		if errors.As(err, &unexpected) {
			return nil, fmt.Errorf("%w: %v", ErrNotEnvelope, err)
		}
		return nil, fmt.Errorf("tally: %w", err)
	}
	if len(env.Groups()) == 0 {
		return nil, ErrNoGroup
	}
	return &env, nil
}

// WriteFile encodes env to path, replacing any previous document.
func WriteFile(path string, env *Envelope) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := NewEncoder(f).Encode(env); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile decodes the import document at path.
func ReadFile(path string) (*Envelope, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewDecoder(f).Decode()
}
