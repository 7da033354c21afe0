// Package submission validates a pending expense, records it in the history
// and delivers it to the treasurer, by native share when possible and by a
// mail draft plus optional image downloads otherwise.
package submission

import (
	"context"
	"log/slog"
	"strings"

	"udlaeg/internal/core"
)

type (
	// ShareData is the payload offered to a native share target.
	ShareData struct {
		Title string
		Text  string
		Files []File
	}

	Sharer interface {
		CanShare(data ShareData) bool
		Share(ctx context.Context, data ShareData) error
	}

	MailOpener interface {
		OpenMail(ctx context.Context, uri string) error
	}

	Downloader interface {
		Download(ctx context.Context, f File) error
	}

	// Confirmer asks the user a yes/no question.
	Confirmer func(ctx context.Context, prompt string) bool

	HistoryRecorder interface {
		Record(ctx context.Context, description string, total core.Money, receiptsCount int) (core.HistoryEntry, error)
	}
)

type Delivery int

const (
	DeliveryShared Delivery = iota + 1
	DeliveryMail
)

func (d Delivery) String() string {
	switch d {
	case DeliveryShared:
		return "shared"
	case DeliveryMail:
		return "mail"
	default:
		return "none"
	}
}

type Options struct {
	ValidateEmail bool
	NativeShare   bool
}

func DefaultOptions() Options {
	return Options{ValidateEmail: true, NativeShare: true}
}

// Request is one send action. Receipts is a snapshot of the ledger in display order.
type Request struct {
	Description string
	Receipts    []core.Receipt
	Settings    core.Settings
	Mailer      MailOpener
	Confirm     Confirmer
}

type Outcome struct {
	Entry       core.HistoryEntry
	Subject     string
	Body        string
	Total       core.Money
	Delivery    Delivery
	SharedFiles int
	MailtoURI   string
	Downloaded  []string
}

type Orchestrator struct {
	history    HistoryRecorder
	sharer     Sharer
	downloader Downloader
	opts       Options
}

// New builds an orchestrator. sharer and downloader may be nil when the
// platform offers no such capability.
func New(history HistoryRecorder, sharer Sharer, downloader Downloader, opts Options) *Orchestrator {
	return &Orchestrator{history: history, sharer: sharer, downloader: downloader, opts: opts}
}

// Validate checks the preconditions in order and returns the first failure as
// a *core.ValidationError.
func (o *Orchestrator) Validate(req Request) error {
	switch {
	case strings.TrimSpace(req.Description) == "":
		return core.NewValidationError(core.ErrEmptyDescription)
	case len(req.Receipts) == 0:
		return core.NewValidationError(core.ErrNoReceipts)
	case req.Settings.TreasurerEmail == "":
		return core.NewValidationError(core.ErrMissingEmail)
	case o.opts.ValidateEmail && !core.IsValidEmail(req.Settings.TreasurerEmail):
		return core.NewValidationError(core.ErrInvalidEmail)
	}
	return nil
}

// Submit validates req, writes the history entry and delivers the message.
// Only validation failures are returned; delivery problems fall back or are logged.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (Outcome, error) {
	if err := o.Validate(req); err != nil {
		return Outcome{}, err
	}

	total := core.Money{}
	for _, r := range req.Receipts {
		total = total.Add(r.Amount)
	}
	out := Outcome{
		Subject: Subject(req.Settings),
		Body:    Body(req.Description, req.Receipts, total, req.Settings),
		Total:   total,
	}

	entry, err := o.history.Record(ctx, req.Description, total, len(req.Receipts))
	if err != nil {
		slog.ErrorContext(ctx, "Error recording submission in history", "error", err)
	} else {
		out.Entry = entry
	}

	if o.share(ctx, req, &out) {
		return out, nil
	}
	o.mail(ctx, req, &out)
	return out, nil
}

func (o *Orchestrator) share(ctx context.Context, req Request, out *Outcome) bool {
	if !o.opts.NativeShare || o.sharer == nil {
		return false
	}

	data := ShareData{
		Title: out.Subject,
		Text:  ShareText(out.Body, req.Settings.TreasurerEmail),
		Files: ToFiles(ctx, req.Receipts),
	}
	if !o.sharer.CanShare(data) {
		slog.InfoContext(ctx, "Native share unavailable for payload, using mail fallback",
			"files", len(data.Files))
		return false
	}
	if err := o.sharer.Share(ctx, data); err != nil {
		slog.WarnContext(ctx, "Native share failed, using mail fallback", "error", err)
		return false
	}

	out.Delivery = DeliveryShared
	out.SharedFiles = len(data.Files)
	slog.InfoContext(ctx, "Expense shared", "files", out.SharedFiles, "total", out.Total.String())
	return true
}

func (o *Orchestrator) mail(ctx context.Context, req Request, out *Outcome) {
	out.Delivery = DeliveryMail
	out.MailtoURI = MailtoURI(req.Settings.TreasurerEmail, out.Subject, out.Body)

	if req.Mailer != nil {
		if err := req.Mailer.OpenMail(ctx, out.MailtoURI); err != nil {
			slog.WarnContext(ctx, "Error opening mail draft", "error", err)
		}
	}

	if req.Confirm == nil || !req.Confirm(ctx, core.MsgDownloadPrompt) {
		return
	}
	if o.downloader == nil {
		slog.WarnContext(ctx, "Image download requested but no downloader is configured")
		return
	}
	for _, f := range ToFiles(ctx, req.Receipts) {
		if err := o.downloader.Download(ctx, f); err != nil {
			slog.ErrorContext(ctx, "Error downloading receipt image", "file", f.Name, "error", err)
			continue
		}
		out.Downloaded = append(out.Downloaded, f.Name)
	}
}
