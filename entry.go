package cnledger

import (
	"errors"
	"strings"
)

var (
	ErrMissingLedger    = errors.New("entry needs both a debit and a credit ledger")
	ErrSameLedger       = errors.New("entry debits and credits the same ledger")
	ErrNegativeAmount   = errors.New("entry amount is negative")
	ErrMissingNarration = errors.New("entry has no narration")
)

// Validate returns nil if the entry can be posted, otherwise an error.
// A blank trade date is allowed; it is reported through Date.IsZero.
func (e *LedgerEntry) Validate() error {
	debit := strings.TrimSpace(e.Debit)
	credit := strings.TrimSpace(e.Credit)

	switch {
	case debit == "" || credit == "":
		return ErrMissingLedger
	case debit == credit:
		return ErrSameLedger
	case e.Amount.Sign() < 0:
		return ErrNegativeAmount
	case strings.TrimSpace(e.Narration) == "":
		return ErrMissingNarration
	}
	return nil
}
