// Package view turns application state into the values the templates render.
package view

import (
	"fmt"
	"time"

	"udlaeg/internal/core"
)

const dateLayout = "02.01.2006"

type ReceiptRow struct {
	ID          string
	Label       string
	Filename    string
	Amount      string
	AmountInput string
	ImageURL    string
}

type SummaryRow struct {
	Label  string
	Amount string
}

// Summary is the per-receipt table with its "I alt" line. It is hidden for
// an empty ledger.
type Summary struct {
	Visible bool
	Rows    []SummaryRow
	Total   string
}

type HistoryItem struct {
	ID          string
	Description string
	Date        string
	Receipts    string
	Total       string
	Received    bool
	StatusIcon  string
	Class       string
}

type History struct {
	Items       []HistoryItem
	Placeholder string
}

func (h History) Empty() bool {
	return len(h.Items) == 0
}

// Receipts builds one row per receipt in ledger order.
func Receipts(receipts []core.Receipt) []ReceiptRow {
	rows := make([]ReceiptRow, 0, len(receipts))
	for i, r := range receipts {
		rows = append(rows, ReceiptRow{
			ID:          r.ID,
			Label:       receiptLabel(i),
			Filename:    r.Filename,
			Amount:      amount(r.Amount),
			AmountInput: amountInput(r.Amount),
			ImageURL:    "/receipts/" + r.ID + "/image",
		})
	}
	return rows
}

func NewSummary(receipts []core.Receipt, total core.Money) Summary {
	if len(receipts) == 0 {
		return Summary{}
	}
	s := Summary{Visible: true, Total: amount(total)}
	for i, r := range receipts {
		s.Rows = append(s.Rows, SummaryRow{Label: receiptLabel(i), Amount: amount(r.Amount)})
	}
	return s
}

// NewHistory renders entries newest first, exactly as stored.
func NewHistory(entries []core.HistoryEntry) History {
	h := History{Placeholder: core.MsgNoHistory}
	for _, e := range entries {
		item := HistoryItem{
			ID:          e.ID,
			Description: e.Description,
			Date:        e.Date.In(time.Local).Format(dateLayout),
			Receipts:    ReceiptCount(e.ReceiptsCount),
			Total:       amount(e.Total),
			Received:    e.Received,
			StatusIcon:  "🕐",
			Class:       "pending",
		}
		if e.Received {
			item.StatusIcon = "✅"
			item.Class = "received"
		}
		h.Items = append(h.Items, item)
	}
	return h
}

// ReceiptCount is "1 kvittering" or "N kvitteringer"; counts below two use
// the singular.
func ReceiptCount(n int) string {
	if n > 1 {
		return fmt.Sprintf("%d kvitteringer", n)
	}
	return fmt.Sprintf("%d kvittering", n)
}

func receiptLabel(index int) string {
	return fmt.Sprintf("Kvittering %d", index+1)
}

func amount(m core.Money) string {
	return core.FormatAmount(m) + " kr"
}

// amountInput is the value of a number input: empty for zero, dot decimal otherwise.
func amountInput(m core.Money) string {
	if m.IsZero() {
		return ""
	}
	return m.Decimal().StringFixed(2)
}
