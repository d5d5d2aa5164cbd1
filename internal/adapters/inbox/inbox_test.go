package inbox

import (
	"context"
	"testing"

	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

func TestMemoryInbox(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	in := NewMemoryInbox(zap.NewNop())

	first := in.Deliver(core.Message{From: "a@example.se", Subject: "ett"})
	second := in.Deliver(core.Message{ID: "fixed", From: "b@example.se", Subject: "två"})
	if first == "" || second != "fixed" {
		t.Fatalf("ids = %q, %q", first, second)
	}

	unread, err := in.ListUnread(ctx)
	if err != nil {
		t.Fatalf("ListUnread: %v", err)
	}
	if len(unread) != 2 || unread[0].Subject != "ett" || unread[1].Subject != "två" {
		t.Fatalf("unread = %+v", unread)
	}
	if unread[0].ReceivedAt.IsZero() {
		t.Error("ReceivedAt not stamped")
	}

	if err := in.MarkRead(ctx, first); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	unread, _ = in.ListUnread(ctx)
	if len(unread) != 1 || unread[0].ID != "fixed" {
		t.Errorf("unread after MarkRead = %+v", unread)
	}

	if err := in.MarkRead(ctx, "missing"); err == nil {
		t.Error("MarkRead on unknown id succeeded")
	}
	if in.Len() != 2 {
		t.Errorf("Len = %d, want 2", in.Len())
	}
}

func TestRecordingSender(t *testing.T) {
	t.Parallel()

	s := NewRecordingSender(zap.NewNop())
	if err := s.Send(context.Background(), "kund@example.se", "Offert: Altan", "Totalpris: 740 SEK"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	sent := s.Sent()
	if len(sent) != 1 || sent[0].To != "kund@example.se" || sent[0].ID == "" {
		t.Errorf("sent = %+v", sent)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Send(ctx, "kund@example.se", "x", "y"); err == nil {
		t.Error("Send with cancelled context succeeded")
	}
}

func TestDemoTransport(t *testing.T) {
	t.Parallel()

	tr := NewDemoTransport(zap.NewNop())
	unread, err := tr.ListUnread(context.Background())
	if err != nil {
		t.Fatalf("ListUnread: %v", err)
	}
	if len(unread) != len(DemoMessages) {
		t.Fatalf("len(unread) = %d, want %d", len(unread), len(DemoMessages))
	}
	for i := 1; i < len(unread); i++ {
		if !unread[i].ReceivedAt.After(unread[i-1].ReceivedAt) {
			t.Errorf("message %d not after message %d", i, i-1)
		}
	}
}
