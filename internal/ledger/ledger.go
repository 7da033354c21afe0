// Package ledger holds the receipts of the expense currently being composed.
package ledger

import (
	"sync"

	"github.com/google/uuid"

	"udlaeg/internal/core"
)

// Ledger is the ordered in-session list of receipts. Insertion order is display
// order. Every Clear starts a new session; captures started in an earlier
// session are refused by AddFor.
type Ledger struct {
	mu       sync.Mutex
	receipts []core.Receipt
	session  uint64
	newID    func() string
}

func New() *Ledger {
	return &Ledger{newID: uuid.NewString}
}

// Session returns the token of the current session.
func (l *Ledger) Session() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session
}

// Add appends a receipt with a fresh id and a zero amount.
func (l *Ledger) Add(img core.Image, filename string) core.Receipt {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.appendLocked(img, filename)
}

// AddFor appends like Add, but only while session is still current.
func (l *Ledger) AddFor(session uint64, img core.Image, filename string) (core.Receipt, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if session != l.session {
		return core.Receipt{}, false
	}
	return l.appendLocked(img, filename), true
}

func (l *Ledger) appendLocked(img core.Image, filename string) core.Receipt {
	r := core.Receipt{
		ID:       l.newID(),
		Image:    img.DataURI(),
		Filename: filename,
	}
	l.receipts = append(l.receipts, r)
	return r
}

// SetAmount parses raw and stores it on the receipt. Unknown ids are ignored.
func (l *Ledger) SetAmount(id, raw string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.receipts {
		if l.receipts[i].ID == id {
			l.receipts[i].Amount = core.ParseAmount(raw)
			return true
		}
	}
	return false
}

// Remove drops the receipt with the given id, if present.
func (l *Ledger) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.receipts {
		if l.receipts[i].ID == id {
			l.receipts = append(l.receipts[:i], l.receipts[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns a copy of the receipt with the given id.
func (l *Ledger) Get(id string) (core.Receipt, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.receipts {
		if r.ID == id {
			return r, true
		}
	}
	return core.Receipt{}, false
}

// Receipts returns a snapshot in display order.
func (l *Ledger) Receipts() []core.Receipt {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Receipt(nil), l.receipts...)
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.receipts)
}

// Total sums all amounts; zero for an empty ledger.
func (l *Ledger) Total() core.Money {
	l.mu.Lock()
	defer l.mu.Unlock()
	return sum(l.receipts)
}

// Clear empties the ledger and starts a new session.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.receipts = nil
	l.session++
}

func sum(receipts []core.Receipt) core.Money {
	var total core.Money
	for _, r := range receipts {
		total = total.Add(r.Amount)
	}
	return total
}
