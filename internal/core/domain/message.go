package domain

import (
	"strings"
	"time"
)

// MissingField is written in place of an absent message header.
const MissingField = "N/A"

// MailMessage is one message as fetched from a message source.
type MailMessage struct {
	Subject  string
	From     string
	Received time.Time
	Body     string
}

// Flatten renders the message as the text item message sources return:
//
//	Subject: <subject>
//	From: <sender>
//	Received: <RFC 3339 timestamp>
//
//	Body:
//	<plain text body>
//
// Absent fields are written as MissingField.
func (m MailMessage) Flatten() string {
	received := MissingField
	if !m.Received.IsZero() {
		received = m.Received.UTC().Format(time.RFC3339)
	}
	body := strings.TrimSpace(m.Body)
	if body == "" {
		body = MissingField
	}

	var b strings.Builder
	b.WriteString("Subject: ")
	b.WriteString(orMissing(m.Subject))
	b.WriteString("\nFrom: ")
	b.WriteString(orMissing(m.From))
	b.WriteString("\nReceived: ")
	b.WriteString(received)
	b.WriteString("\n\nBody:\n")
	b.WriteString(body)
	return b.String()
}

// OnDay reports whether the message was received on the UTC calendar day
// of day.
func (m MailMessage) OnDay(day time.Time) bool {
	if m.Received.IsZero() {
		return false
	}
	y1, m1, d1 := m.Received.UTC().Date()
	y2, m2, d2 := day.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func orMissing(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return MissingField
	}
	return s
}
