// Package mailmsg converts between RFC 5322 messages and core.Message.
package mailmsg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/mikey/llm-mail-triage/internal/core"
)

// Parse reads a raw message. Text parts are joined; an HTML part is used
// only when the message has no plain text. Attachments are skipped.
// The returned message has no ID; the transport assigns one.
func Parse(r io.Reader) (*core.Message, error) {
	reader, err := mail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}
	defer reader.Close()

	msg := &core.Message{}
	if subject, err := reader.Header.Subject(); err == nil {
		msg.Subject = subject
	}
	if from, err := reader.Header.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = from[0].Address
	}
	if to, err := reader.Header.AddressList("To"); err == nil {
		for _, addr := range to {
			msg.To = append(msg.To, addr.Address)
		}
	}
	if date, err := reader.Header.Date(); err == nil && !date.IsZero() {
		msg.ReceivedAt = date
	}

	var text, html []string
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if len(text) > 0 || len(html) > 0 {
				break
			}
			return nil, fmt.Errorf("failed to read message part: %w", err)
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		mediaType, _, _ := header.ContentType()
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		switch {
		case mediaType == "" || strings.HasPrefix(mediaType, "text/plain"):
			text = append(text, string(body))
		case strings.HasPrefix(mediaType, "text/html"):
			html = append(html, string(body))
		}
	}

	if len(text) > 0 {
		msg.Body = strings.Join(text, "\n")
	} else {
		msg.Body = strings.Join(html, "\n")
	}
	return msg, nil
}

// Compose renders a UTF-8 text/plain message
func Compose(from, to, subject, body string, date time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{address(from)})
	h.SetAddressList("To", []*mail.Address{address(to)})
	h.SetSubject(subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message writer: %w", err)
	}
	if _, err := io.WriteString(w, body); err != nil {
		return nil, fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish message: %w", err)
	}
	return buf.Bytes(), nil
}

func address(s string) *mail.Address {
	if addr, err := mail.ParseAddress(s); err == nil {
		return addr
	}
	return &mail.Address{Address: strings.TrimSpace(s)}
}
