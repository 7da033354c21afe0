// Package app holds the process-wide state of the expense app and the
// operations the UI performs on it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"udlaeg/internal/core"
	"udlaeg/internal/history"
	"udlaeg/internal/ledger"
	"udlaeg/internal/screen"
	"udlaeg/internal/settings"
	"udlaeg/internal/storage"
	"udlaeg/internal/submission"
)

// ErrNotOnExpenseScreen is returned when receipts are touched while the
// expense screen is not shown.
var ErrNotOnExpenseScreen = errors.New("expense screen not active")

type Deps struct {
	KV            storage.KV
	Sharer        submission.Sharer
	Downloader    submission.Downloader
	Options       submission.Options
	MaxImageBytes int64
}

type App struct {
	screens       *screen.Controller
	ledger        *ledger.Ledger
	intake        *ledger.Intake
	settingsStore *settings.Store
	history       *history.Store
	orchestrator  *submission.Orchestrator

	mu       sync.RWMutex
	settings core.Settings

	// afterScreenCheck runs between the screen check and decoding; tests use
	// it to navigate at that point.
	afterScreenCheck func()
}

// New wires the components and loads the saved settings.
func New(ctx context.Context, deps Deps) *App {
	l := ledger.New()
	hist := history.NewStore(deps.KV)

	a := &App{
		screens:       screen.NewController(),
		ledger:        l,
		intake:        ledger.NewIntake(l, deps.MaxImageBytes),
		settingsStore: settings.NewStore(deps.KV),
		history:       hist,
		orchestrator:  submission.New(hist, deps.Sharer, deps.Downloader, deps.Options),
	}
	a.screens.OnLeaveExpense(l.Clear)
	a.settings = a.settingsStore.Load(ctx)
	return a
}

func (a *App) Screen() screen.Screen {
	return a.screens.Current()
}

// OnLeaveExpense registers fn to run whenever the receipts are discarded by
// leaving the expense screen.
func (a *App) OnLeaveExpense(fn func()) {
	a.screens.OnLeaveExpense(fn)
}

// Show navigates to target. Leaving the expense screen discards the receipts.
func (a *App) Show(target screen.Screen) error {
	return a.screens.Show(target)
}

// Capture adds uploads to the open expense. The session token is read before
// the screen check, so navigating away in between discards the upload.
func (a *App) Capture(ctx context.Context, uploads []ledger.Upload) ([]core.Receipt, error) {
	session := a.ledger.Session()
	if a.screens.Current() != screen.Expense {
		return nil, ErrNotOnExpenseScreen
	}
	if a.afterScreenCheck != nil {
		a.afterScreenCheck()
	}
	return a.intake.CaptureFor(ctx, session, uploads)
}

func (a *App) SetAmount(id, raw string) bool {
	return a.ledger.SetAmount(id, raw)
}

func (a *App) RemoveReceipt(id string) bool {
	return a.ledger.Remove(id)
}

func (a *App) Receipt(id string) (core.Receipt, bool) {
	return a.ledger.Get(id)
}

func (a *App) Receipts() []core.Receipt {
	return a.ledger.Receipts()
}

func (a *App) Total() core.Money {
	return a.ledger.Total()
}

func (a *App) Settings() core.Settings {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.settings
}

// SaveSettings persists s and makes it the live settings.
func (a *App) SaveSettings(ctx context.Context, s core.Settings) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.settingsStore.Save(ctx, s); err != nil {
		return err
	}
	a.settings = s
	return nil
}

func (a *App) History(ctx context.Context) []core.HistoryEntry {
	return a.history.List(ctx)
}

func (a *App) ToggleReceived(ctx context.Context, id string) (bool, error) {
	return a.history.ToggleReceived(ctx, id)
}

func (a *App) ExportHistory(ctx context.Context, w io.Writer) error {
	if err := history.ExportXLSX(a.history.List(ctx), w); err != nil {
		return fmt.Errorf("export history: %w", err)
	}
	return nil
}

// Send submits the current receipts with description. mailer and confirm
// stand in for the mail handler and the download question of the fallback path.
func (a *App) Send(ctx context.Context, description string, mailer submission.MailOpener, confirm submission.Confirmer) (submission.Outcome, error) {
	req := submission.Request{
		Description: description,
		Receipts:    a.ledger.Receipts(),
		Settings:    a.Settings(),
		Mailer:      mailer,
		Confirm:     confirm,
	}
	out, err := a.orchestrator.Submit(ctx, req)
	if err != nil {
		return out, err
	}
	slog.InfoContext(ctx, "Expense sent",
		"delivery", out.Delivery.String(),
		"receipts", len(req.Receipts),
		"total", out.Total.String())
	return out, nil
}
