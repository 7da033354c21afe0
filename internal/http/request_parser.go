package http

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"udlaeg/internal/core"
	"udlaeg/internal/ledger"
)

const (
	photosField         = "photos"
	downloadImagesField = "download_images"
)

// ParseFormOrFail parses the request form and returns an error response on failure.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Ugyldig forespørgsel")
	}
	return nil
}

// formBool reads a checkbox-style value: "on", "1", "true", "yes" and "ja"
// are true, anything else false.
func formBool(r *http.Request, key string) bool {
	v := strings.ToLower(strings.TrimSpace(r.FormValue(key)))
	switch v {
	case "on", "yes", "ja":
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

// settingsFromForm reads the three settings fields; values are kept as typed
// apart from control characters and surrounding whitespace.
func settingsFromForm(r *http.Request) core.Settings {
	return core.Settings{
		TreasurerEmail:  sanitizeInput(r.PostFormValue("treasurer_email")),
		AccountNumber:   sanitizeInput(r.PostFormValue("account_number")),
		AssociationName: sanitizeInput(r.PostFormValue("association_name")),
	}
}

// uploadsFromMultipart maps the photos field to ledger uploads. The files stay
// valid until the multipart form is removed.
func uploadsFromMultipart(form *multipart.Form) []ledger.Upload {
	if form == nil {
		return nil
	}
	headers := form.File[photosField]
	uploads := make([]ledger.Upload, 0, len(headers))
	for _, fh := range headers {
		uploads = append(uploads, ledger.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return uploads
}
