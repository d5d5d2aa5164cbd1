package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mikey/llm-mail-triage/internal/catalog"
	"github.com/mikey/llm-mail-triage/internal/core"
	"github.com/mikey/llm-mail-triage/internal/store"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

func newTestContainer(t *testing.T) (*dig.Container, *store.ComplaintStore, *store.ConversationStore) {
	t.Helper()
	dir := t.TempDir()
	logger := zap.NewNop()
	complaints := store.NewComplaintStore(filepath.Join(dir, "complaints.json"), logger)
	conversations := store.NewConversationStore(filepath.Join(dir, "conversations.json"), logger)
	quotes := store.NewQuoteStore(filepath.Join(dir, "quotes.json"), time.UTC, logger)

	c := dig.New()
	for _, p := range []any{
		catalog.Default,
		func() *store.ComplaintStore { return complaints },
		func() *store.ConversationStore { return conversations },
		func() *store.QuoteStore { return quotes },
	} {
		if err := c.Provide(p); err != nil {
			t.Fatalf("Provide: %v", err)
		}
	}
	return c, complaints, conversations
}

func TestComplaintCommands(t *testing.T) {
	t.Parallel()
	c, complaints, _ := newTestContainer(t)

	if _, _, err := complaints.Log(&core.Message{From: "erik@example.se", Subject: "Fel leverans"}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	var out bytes.Buffer
	if err := listComplaints(c, []string{"--open"}, &out); err != nil {
		t.Fatalf("complaints: %v", err)
	}
	if !strings.Contains(out.String(), "Fel leverans") {
		t.Errorf("complaints output = %q", out.String())
	}

	out.Reset()
	if err := closeComplaint(c, []string{"0"}, &out); err != nil {
		t.Fatalf("close-complaint: %v", err)
	}
	if err := closeComplaint(c, []string{"0"}, &out); err == nil {
		t.Error("closing a closed complaint succeeded")
	}
	if err := closeComplaint(c, []string{"zero"}, &out); err == nil {
		t.Error("non-numeric index accepted")
	}

	out.Reset()
	if err := listComplaints(c, []string{"--open"}, &out); err != nil {
		t.Fatalf("complaints: %v", err)
	}
	if strings.Contains(out.String(), "Fel leverans") {
		t.Errorf("closed complaint listed as open: %q", out.String())
	}
}

func TestCatalogCommands(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestContainer(t)

	var out bytes.Buffer
	if err := showPrice(c, []string{"regel_45x95_3m"}, &out); err != nil {
		t.Fatalf("price: %v", err)
	}
	if out.String() != "regel_45x95_3m: 95 SEK\n" {
		t.Errorf("price output = %q", out.String())
	}

	err := showPrice(c, []string{"regel_45x95"}, &out)
	if err == nil || !strings.Contains(err.Error(), "regel_45x95_3m") {
		t.Errorf("unknown product error = %v", err)
	}

	out.Reset()
	if err := searchCatalog(c, []string{"regel_45x95"}, &out); err != nil {
		t.Fatalf("search: %v", err)
	}
	// header plus four lengths
	if lines := strings.Count(out.String(), "\n"); lines != 5 {
		t.Errorf("search printed %d lines:\n%s", lines, out.String())
	}
}

func TestHistoryCommands(t *testing.T) {
	t.Parallel()
	c, _, conversations := newTestContainer(t)

	if _, err := conversations.Append("anna@example.se", core.RoleCustomer, "Altan", "Hej!"); err != nil {
		t.Fatalf("Append: %v", err)
	}

	var out bytes.Buffer
	if err := showHistory(c, []string{"Anna <anna@example.se>"}, &out); err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out.String(), "customer: Altan") {
		t.Errorf("history output = %q", out.String())
	}

	if err := clearHistory(c, []string{"anna@example.se"}, &out); err != nil {
		t.Fatalf("clear-history: %v", err)
	}
	if err := clearHistory(c, []string{"anna@example.se"}, &out); err == nil {
		t.Error("clearing an empty history succeeded")
	}
	if err := clearHistory(c, nil, &out); err != nil {
		t.Fatalf("clear-history all: %v", err)
	}
}
