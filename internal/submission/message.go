package submission

import (
	"fmt"
	"strings"

	"udlaeg/internal/core"
)

const fallbackRecipientName = "foreningen"

// Subject is the mail subject for a reimbursement request.
func Subject(s core.Settings) string {
	name := s.AssociationName
	if name == "" {
		name = fallbackRecipientName
	}
	return "Udlæg for " + name
}

// Body composes the reimbursement message: one line per receipt in ledger
// order, the grand total, the description and, when set, the account number.
func Body(description string, receipts []core.Receipt, total core.Money, s core.Settings) string {
	var b strings.Builder
	b.WriteString("Hej,\n\nJeg har haft følgende udlæg:\n\n")
	for i, r := range receipts {
		fmt.Fprintf(&b, "Kvittering %d: %s kr\n", i+1, core.FormatAmount(r.Amount))
	}
	fmt.Fprintf(&b, "\nSamlet beløb: %s kr\n\n", core.FormatAmount(total))
	fmt.Fprintf(&b, "Beskrivelse: %s\n\n", description)
	if s.AccountNumber != "" {
		fmt.Fprintf(&b, "Konto: %s\n\n", s.AccountNumber)
	}
	b.WriteString("Kvitteringerne er vedhæftet som billeder.\n\nVenlig hilsen")
	return b.String()
}

// ShareText is the text handed to the native share sheet; it names the
// recipient since the share target picks its own addressee.
func ShareText(body, email string) string {
	return body + "\n\nTil: " + email
}

// MailtoURI addresses a mail draft. Recipient, subject and body are
// percent-encoded with encodeURIComponent rules.
func MailtoURI(email, subject, body string) string {
	return "mailto:" + encodeURIComponent(email) +
		"?subject=" + encodeURIComponent(subject) +
		"&body=" + encodeURIComponent(body)
}

const upperhex = "0123456789ABCDEF"

// encodeURIComponent leaves only A-Z a-z 0-9 and -_.!~*'() unescaped.
// url.QueryEscape differs: it writes spaces as '+', which mail clients keep literally.
func encodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
