package mailmsg

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestParse_PlainText(t *testing.T) {
	t.Parallel()

	raw := "From: Anna Svensson <anna@example.se>\r\n" +
		"To: kundtjanst@bengtssons.se\r\n" +
		"Subject: =?utf-8?q?Offertf=C3=B6rfr=C3=A5gan_-_Altanbygge?=\r\n" +
		"Date: Wed, 12 Mar 2025 09:30:00 +0100\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Hej! Jag planerar att bygga en altan.\r\n"

	msg, err := Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if msg.From != "anna@example.se" {
		t.Errorf("From = %q", msg.From)
	}
	if msg.Subject != "Offertförfrågan - Altanbygge" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if len(msg.To) != 1 || msg.To[0] != "kundtjanst@bengtssons.se" {
		t.Errorf("To = %v", msg.To)
	}
	if !strings.Contains(msg.Body, "bygga en altan") {
		t.Errorf("Body = %q", msg.Body)
	}
	if msg.ReceivedAt.IsZero() {
		t.Error("ReceivedAt not set")
	}
}

func TestParse_MultipartPrefersText(t *testing.T) {
	t.Parallel()

	raw := "From: erik@example.se\r\n" +
		"Subject: Klagomål\r\n" +
		"Content-Type: multipart/alternative; boundary=XYZ\r\n" +
		"\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Fel leverans.\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>Fel leverans.</p>\r\n" +
		"--XYZ--\r\n"

	msg, err := Parse(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if strings.Contains(msg.Body, "<p>") || !strings.Contains(msg.Body, "Fel leverans.") {
		t.Errorf("Body = %q", msg.Body)
	}
}

func TestComposeRoundTrip(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	raw, err := Compose("kundtjanst@bengtssons.se", "Lisa <lisa@example.se>", "Offert: Garage", "Totalpris: 740 SEK\nVänliga hälsningar", date)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !bytes.Contains(raw, []byte("Message-Id:")) && !bytes.Contains(raw, []byte("Message-ID:")) {
		t.Error("no Message-ID header")
	}

	msg, err := Parse(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if msg.From != "kundtjanst@bengtssons.se" || msg.Subject != "Offert: Garage" {
		t.Errorf("msg = %+v", msg)
	}
	if len(msg.To) != 1 || msg.To[0] != "lisa@example.se" {
		t.Errorf("To = %v", msg.To)
	}
	if !strings.Contains(msg.Body, "Vänliga hälsningar") {
		t.Errorf("Body = %q", msg.Body)
	}
}
