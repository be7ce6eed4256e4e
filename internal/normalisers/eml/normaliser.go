// Package eml parses RFC 5322 messages, as stored in .eml files or returned
// by the Gmail API in raw format, into mail messages with a plain text body.
package eml

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/normalisers/html"
)

// maxNesting bounds recursion into nested multipart bodies.
const maxNesting = 8

// Parse reads one message. Plain text parts are preferred over HTML parts;
// HTML is reduced to text. Attachments are ignored. A message without a
// parseable Date header has a zero Received time.
func Parse(r io.Reader) (domain.MailMessage, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return domain.MailMessage{}, fmt.Errorf("%w: parse message: %w", domain.ErrInvalidInput, err)
	}

	out := domain.MailMessage{
		Subject: decodeHeader(msg.Header.Get("Subject")),
		From:    sender(msg.Header.Get("From")),
	}
	if date, err := msg.Header.Date(); err == nil {
		out.Received = date
	}

	body, err := extractBody(msg.Header, msg.Body, 0)
	if err != nil {
		return domain.MailMessage{}, fmt.Errorf("%w: read body: %w", domain.ErrInvalidInput, err)
	}
	out.Body = body
	return out, nil
}

// ParseBytes is Parse over an in-memory message.
func ParseBytes(raw []byte) (domain.MailMessage, error) {
	return Parse(bytes.NewReader(raw))
}

// header is the subset of header access shared by mail and multipart.
type header interface {
	Get(key string) string
}

// decodeHeader decodes RFC 2047 encoded words, returning the input when it
// cannot be decoded.
func decodeHeader(value string) string {
	if value == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// sender returns the bare address of the From header when it parses.
func sender(value string) string {
	if value == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(value); err == nil {
		return addr.Address
	}
	return decodeHeader(value)
}

func extractBody(h header, body io.Reader, depth int) (string, error) {
	contentType := h.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		if depth >= maxNesting || params["boundary"] == "" {
			return "", nil
		}
		return extractMultipart(body, params["boundary"], depth+1)
	}

	content, err := io.ReadAll(decodeTransfer(h.Get("Content-Transfer-Encoding"), body))
	if err != nil {
		return "", err
	}
	return textOf(mediaType, string(content)), nil
}

func extractMultipart(r io.Reader, boundary string, depth int) (string, error) {
	mr := multipart.NewReader(r, boundary)
	var textParts, htmlParts []string

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep what was read before a malformed part.
			break
		}

		if disposition, _, _ := mime.ParseMediaType(part.Header.Get("Content-Disposition")); disposition == "attachment" {
			part.Close()
			continue
		}

		mediaType, _, parseErr := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if parseErr != nil {
			mediaType = "text/plain"
		}

		text, readErr := extractBody(part.Header, part, depth)
		part.Close()
		if readErr != nil || strings.TrimSpace(text) == "" {
			continue
		}

		switch {
		case mediaType == "text/html":
			htmlParts = append(htmlParts, text)
		case mediaType == "text/plain", strings.HasPrefix(mediaType, "multipart/"):
			textParts = append(textParts, text)
		}
	}

	if len(textParts) > 0 {
		return strings.Join(textParts, "\n"), nil
	}
	return strings.Join(htmlParts, "\n"), nil
}

// decodeTransfer undoes a Content-Transfer-Encoding. multipart.Reader has
// already decoded quoted-printable parts and removed their header.
func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

func textOf(mediaType, content string) string {
	switch mediaType {
	case "text/html":
		return html.ToText(content)
	case "text/plain":
		return strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	default:
		return ""
	}
}
