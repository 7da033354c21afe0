package core

import (
	"encoding/base64"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"
)

type (
	Money struct {
		Cents int64
	}

	// Image is a decoded receipt photo.
	Image struct {
		ContentType string
		Data        []byte
	}

	// Receipt is one captured proof of purchase plus its user-entered amount.
	// Image holds a data URI so it can be turned back into a file later.
	Receipt struct {
		ID       string
		Image    string
		Amount   Money
		Filename string
	}

	Settings struct {
		TreasurerEmail  string `json:"treasurerEmail"`
		AccountNumber   string `json:"accountNumber"`
		AssociationName string `json:"associationName"`
	}

	HistoryEntry struct {
		ID            string    `json:"id"`
		Date          time.Time `json:"date"`
		Description   string    `json:"description"`
		Total         Money     `json:"total"`
		ReceiptsCount int       `json:"receiptsCount"`
		Received      bool      `json:"received"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrNoReceipts       = errors.New("no receipts")
	ErrMissingEmail     = errors.New("treasurer email not set")
	ErrInvalidEmail     = errors.New("invalid treasurer email")
	ErrInvalidDataURI   = errors.New("invalid data uri")
)

// User-facing messages, shown verbatim.
const (
	MsgEmptyDescription = "Indtast venligst en beskrivelse"
	MsgNoReceipts       = "Tilføj venligst mindst én kvittering"
	MsgMissingEmail     = "Kassererens e-mail er ikke indstillet. Gå til indstillinger først."
	MsgInvalidEmail     = "Kassererens e-mail er ugyldig. Indtast en gyldig e-mailadresse."
	MsgSettingsSaved    = "Indstillinger gemt!"
	MsgDownloadPrompt   = "Vil du downloade kvitteringsbillederne, så du kan vedhæfte dem manuelt i din e-mail app?"
	MsgNoHistory        = "Ingen tidligere udlæg"
)

var validationMessages = map[error]string{
	ErrEmptyDescription: MsgEmptyDescription,
	ErrNoReceipts:       MsgNoReceipts,
	ErrMissingEmail:     MsgMissingEmail,
	ErrInvalidEmail:     MsgInvalidEmail,
}

// ValidationError is a blocking user input problem. Message is what the user sees.
type ValidationError struct {
	Err     error
	Message string
}

// NewValidationError wraps one of the validation sentinels with its user message.
func NewValidationError(err error) *ValidationError {
	msg, ok := validationMessages[err]
	if !ok {
		msg = err.Error()
	}
	return &ValidationError{Err: err, Message: msg}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail is a syntactic local@domain.tld check, not a deliverability check.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// DataURI encodes the image as a base64 data URI.
func (img Image) DataURI() string {
	ct := img.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// ParseDataURI decodes a data URI produced by DataURI. Plain percent-encoded
// payloads are accepted too.
func ParseDataURI(uri string) (Image, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return Image{}, ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, ErrInvalidDataURI
	}

	isBase64 := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		meta = m
		isBase64 = true
	}
	ct := meta
	if ct == "" {
		ct = "text/plain;charset=US-ASCII"
	}

	var data []byte
	if isBase64 {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return Image{}, ErrInvalidDataURI
		}
		data = b
	} else {
		s, err := url.PathUnescape(payload)
		if err != nil {
			return Image{}, ErrInvalidDataURI
		}
		data = []byte(s)
	}
	return Image{ContentType: ct, Data: data}, nil
}
