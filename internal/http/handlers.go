package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"

	"udlaeg/internal/app"
	"udlaeg/internal/core"
	applog "udlaeg/internal/log"
	"udlaeg/internal/screen"
	"udlaeg/internal/submission"
	"udlaeg/internal/view"
)

// pageData is everything the templates render.
type pageData struct {
	Screen   string
	Receipts []view.ReceiptRow
	Summary  view.Summary
	History  view.History
	Settings core.Settings
	Flash    string
}

func (s *Server) page(ctx context.Context, flash string) pageData {
	receipts := s.app.Receipts()
	return pageData{
		Screen:   string(s.app.Screen()),
		Receipts: view.Receipts(receipts),
		Summary:  view.NewSummary(receipts, s.app.Total()),
		History:  view.NewHistory(s.app.History(ctx)),
		Settings: s.app.Settings(),
		Flash:    flash,
	}
}

func (s *Server) execute(name string, data pageData) ([]byte, error) {
	if s.templates == nil {
		return nil, errors.New("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// respond renders the app fragment for htmx requests and redirects plain
// form posts back to the page.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder, flash string) {
	if !isHTMX(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	body, err := s.execute("app", s.page(r.Context(), flash))
	if err != nil {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentTemplate).
			ErrorContext(r.Context(), "Template execution failed", "error", err, "template", "app")
		InternalServerError("Der opstod en fejl").Write(w)
		return
	}
	resp.BodyHTML(body).Write(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	body, err := s.execute("index.html", s.page(r.Context(), ""))
	if err != nil {
		applog.FromContext(r.Context()).WithComponent(applog.ComponentTemplate).
			ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

func (s *Server) handleShowScreen(w http.ResponseWriter, r *http.Request) {
	target, err := screen.Parse(r.PathValue("name"))
	if err != nil {
		NotFoundError("Ukendt skærm").Write(w)
		return
	}
	if err := s.app.Show(target); err != nil {
		if errors.Is(err, screen.ErrInvalidTransition) {
			ConflictError("Gå til forsiden først").Write(w)
			return
		}
		InternalServerError("Der opstod en fejl").Write(w)
		return
	}
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Screen shown",
		applog.FieldOperation, applog.OpNavigate, applog.FieldScreen, string(target))
	s.respond(w, r, NewHTMXResponse(), "")
}

func (s *Server) handleCaptureReceipts(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context()).WithComponent(applog.ComponentLedger)

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		logger.WarnContext(r.Context(), "Invalid multipart upload", "error", err)
		BadRequestError("Billederne kunne ikke læses").Write(w)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	added, err := s.app.Capture(r.Context(), uploadsFromMultipart(r.MultipartForm))
	switch {
	case errors.Is(err, app.ErrNotOnExpenseScreen):
		ConflictError("Åbn et nyt udlæg først").Write(w)
		return
	case err != nil:
		logger.ErrorContext(r.Context(), "Capture failed", "error", err)
		InternalServerError("Billederne kunne ikke gemmes").Write(w)
		return
	}

	logger.InfoContext(r.Context(), "Receipts captured", applog.FieldOperation, applog.OpCapture, "added", len(added))
	s.respond(w, r, NewHTMXResponse(), "")
}

func (s *Server) handleSetAmount(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	// Unknown ids are ignored.
	s.app.SetAmount(r.PathValue("id"), r.PostFormValue("amount"))
	s.respond(w, r, NewHTMXResponse(), "")
}

func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.app.RemoveReceipt(id)
	s.images.Delete(id)
	s.respond(w, r, NewHTMXResponse(), "")
}

func (s *Server) handleReceiptImage(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.app.Receipt(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	img, ok := s.images.Get(rec.ID)
	if !ok {
		var err error
		img, err = core.ParseDataURI(rec.Image)
		if err != nil {
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Stored receipt image unreadable",
				applog.FieldReceiptID, rec.ID, "error", err)
			http.Error(w, "image unavailable", http.StatusInternalServerError)
			return
		}
		s.images.Set(rec.ID, img)
	}
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = w.Write(img.Data)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	if err := s.app.SaveSettings(r.Context(), settingsFromForm(r)); err != nil {
		s.requests.LogError(r.Context(), "Error saving settings", err, applog.ComponentStorage, applog.OpSave)
		InternalServerError("Indstillingerne kunne ikke gemmes").Write(w)
		return
	}
	s.respond(w, r, NewHTMXResponse().TriggerSuccessNotification(core.MsgSettingsSaved), core.MsgSettingsSaved)
}

// mailRedirect captures the mail draft URI so it can be handed to the browser.
type mailRedirect struct {
	uri string
}

func (m *mailRedirect) OpenMail(_ context.Context, uri string) error {
	m.uri = uri
	return nil
}

func (s *Server) handleSendExpense(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	mailer := &mailRedirect{}
	download := formBool(r, downloadImagesField)
	confirm := func(context.Context, string) bool { return download }

	out, err := s.app.Send(r.Context(), sanitizeInput(r.PostFormValue("description")), mailer, confirm)
	if err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			UnprocessableEntityError(ve.Message).Write(w)
			return
		}
		s.requests.LogError(r.Context(), "Error sending expense", err, applog.ComponentSubmission, applog.OpSubmit)
		InternalServerError("Udlægget kunne ikke sendes").Write(w)
		return
	}
	s.requests.LogSubmission(r.Context(), out.Entry.ReceiptsCount, out.Total.String(), out.Delivery.String())

	// The mail path navigates away, so only a notification rides along; the
	// share path re-renders the whole app including the history.
	resp := NewHTMXResponse()
	if len(out.Downloaded) > 0 {
		resp.TriggerSuccessNotification(strconv.Itoa(len(out.Downloaded)) + " kvitteringsbilleder gemt")
	}

	if out.Delivery == submission.DeliveryMail {
		if !isHTMX(r) {
			http.Redirect(w, r, out.MailtoURI, http.StatusSeeOther)
			return
		}
		resp.Redirect(out.MailtoURI).Write(w)
		return
	}
	s.respond(w, r, resp.TriggerSuccessNotification("Udlæg delt"), "Udlæg delt")
}

func (s *Server) handleToggleReceived(w http.ResponseWriter, r *http.Request) {
	if _, err := s.app.ToggleReceived(r.Context(), r.PathValue("id")); err != nil {
		s.requests.LogError(r.Context(), "Error toggling received flag", err, applog.ComponentStorage, applog.OpToggle)
		InternalServerError("Status kunne ikke gemmes").Write(w)
		return
	}
	s.respond(w, r, NewHTMXResponse(), "")
}

func (s *Server) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.app.ExportHistory(r.Context(), &buf); err != nil {
		s.requests.LogError(r.Context(), "Error exporting history", err, applog.ComponentStorage, applog.OpExport)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="udlaeg.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}
