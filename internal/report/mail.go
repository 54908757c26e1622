package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// Message describes a composed report mail.
type Message struct {
	From        string
	To          []string
	Subject     string
	Body        string
	Attachment  []byte
	Filename    string
	ContentType string
	Date        time.Time
}

// ComposeEmail writes msg as an RFC 5322 message with a plain text body and
// one attachment. The result can be opened by any mail client.
func ComposeEmail(w io.Writer, msg Message) error {
	var h mail.Header
	date := msg.Date
	if date.IsZero() {
		date = time.Now()
	}
	h.SetDate(date)
	h.SetSubject(msg.Subject)

	if msg.From != "" {
		from, err := mail.ParseAddress(msg.From)
		if err != nil {
			return fmt.Errorf("parse from address: %w", err)
		}
		h.SetAddressList("From", []*mail.Address{from})
	}

	var to []*mail.Address
	for _, raw := range msg.To {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		addr, err := mail.ParseAddress(raw)
		if err != nil {
			return fmt.Errorf("parse to address %q: %w", raw, err)
		}
		to = append(to, addr)
	}
	if len(to) > 0 {
		h.SetAddressList("To", to)
	}

	mw, err := mail.CreateWriter(w, h)
	if err != nil {
		return fmt.Errorf("create mail writer: %w", err)
	}

	iw, err := mw.CreateInline()
	if err != nil {
		return fmt.Errorf("create inline part: %w", err)
	}
	var th mail.InlineHeader
	th.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	pw, err := iw.CreatePart(th)
	if err != nil {
		return fmt.Errorf("create text part: %w", err)
	}
	if _, err := io.WriteString(pw, msg.Body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close text part: %w", err)
	}
	if err := iw.Close(); err != nil {
		return fmt.Errorf("close inline part: %w", err)
	}

	if msg.Attachment != nil {
		contentType := msg.ContentType
		if contentType == "" {
			contentType = "text/csv"
		}
		var ah mail.AttachmentHeader
		ah.SetContentType(contentType, map[string]string{"charset": "utf-8"})
		ah.SetFilename(msg.Filename)
		aw, err := mw.CreateAttachment(ah)
		if err != nil {
			return fmt.Errorf("create attachment: %w", err)
		}
		if _, err := aw.Write(msg.Attachment); err != nil {
			return fmt.Errorf("write attachment: %w", err)
		}
		if err := aw.Close(); err != nil {
			return fmt.Errorf("close attachment: %w", err)
		}
	}

	return mw.Close()
}
