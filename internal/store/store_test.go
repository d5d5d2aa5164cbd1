package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestParseError_Message(t *testing.T) {
	t.Parallel()

	inner := errors.New("unexpected end of JSON input")
	err := error(&ParseError{Path: "logs/sent_quotes.json", Line: 3, Err: inner})

	if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("Error() = %q, want line number", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("ParseError does not unwrap to its cause")
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Path != "logs/sent_quotes.json" {
		t.Errorf("errors.As = %+v", pe)
	}
}

func TestWriteFileAtomic_CreatesDirsAndReplaces(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "data.json")
	if err := writeFileAtomic(path, []byte("first")); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := writeFileAtomic(path, []byte("second")); err != nil {
		t.Fatalf("second write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1 (temp files left behind)", len(entries))
	}
}

func TestMarshal_NoASCIIEscaping(t *testing.T) {
	t.Parallel()

	data, err := marshal(map[string]string{"subject": "Klagomål <fel leverans> & skador"}, false)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(data)
	if !strings.Contains(got, "Klagomål <fel leverans> & skador") {
		t.Errorf("marshal escaped text: %s", got)
	}
	if strings.Contains(got, `\u00e5`) {
		t.Errorf("marshal produced unicode escapes: %s", got)
	}
}

func TestComplaintStore_Lifecycle(t *testing.T) {
	t.Parallel()

	s := NewComplaintStore(filepath.Join(t.TempDir(), "logs", "complaints.json"), zap.NewNop())

	msg := &core.Message{From: "erik@example.se", Subject: "Fel leverans", Body: "Fick 40 av 50 brädor."}
	c, idx, err := s.Log(msg)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if idx != 0 {
		t.Errorf("index = %d, want 0", idx)
	}
	if c.Status != core.ComplaintOpen {
		t.Errorf("status = %q, want open", c.Status)
	}

	ok, err := s.Close(0)
	if err != nil || !ok {
		t.Fatalf("Close(0) = (%v, %v), want (true, nil)", ok, err)
	}

	all, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(all) != 1 || all[0].Status != core.ComplaintClosed {
		t.Fatalf("after close = %+v, want one closed complaint", all)
	}
	if all[0].From != msg.From || all[0].Body != msg.Body {
		t.Errorf("stored complaint = %+v", all[0])
	}

	ok, err = s.Close(0)
	if err != nil || ok {
		t.Errorf("second Close(0) = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestComplaintStore_CloseOutOfRangeLeavesStoreUnchanged(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "complaints.json")
	s := NewComplaintStore(path, zap.NewNop())
	for _, subject := range []string{"a", "b"} {
		if _, _, err := s.Log(&core.Message{From: "x@example.se", Subject: subject}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	for _, idx := range []int{-1, 2, 99} {
		ok, err := s.Close(idx)
		if err != nil {
			t.Fatalf("Close(%d): %v", idx, err)
		}
		if ok {
			t.Errorf("Close(%d) = true, want false", idx)
		}
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(before) != string(after) {
		t.Errorf("store changed after out-of-range close:\nbefore %s\nafter  %s", before, after)
	}
}

func TestComplaintStore_Open(t *testing.T) {
	t.Parallel()

	s := NewComplaintStore(filepath.Join(t.TempDir(), "complaints.json"), zap.NewNop())
	for _, subject := range []string{"one", "two", "three"} {
		if _, _, err := s.Log(&core.Message{From: "x@example.se", Subject: subject}); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	if _, err := s.Close(1); err != nil {
		t.Fatalf("Close: %v", err)
	}

	open, err := s.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(open) != 2 || open[0].Index != 0 || open[1].Index != 2 {
		t.Errorf("Open = %+v, want indexes 0 and 2", open)
	}
}

func TestComplaintStore_FileFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "complaints.json")
	s := NewComplaintStore(path, zap.NewNop())
	if _, _, err := s.Log(&core.Message{From: "åsa@example.se", Subject: "Spruckna brädor", Body: "5 st"}); err != nil {
		t.Fatalf("Log: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	for _, want := range []string{`"from": "åsa@example.se"`, `"status": "open"`, "[\n"} {
		if !strings.Contains(text, want) {
			t.Errorf("file missing %q:\n%s", want, text)
		}
	}
}

func TestStores_MissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	complaints, err := NewComplaintStore(filepath.Join(dir, "c.json"), zap.NewNop()).Load()
	if err != nil || len(complaints) != 0 {
		t.Errorf("complaints = (%v, %v), want empty", complaints, err)
	}

	quotes, err := NewQuoteStore(filepath.Join(dir, "q.json"), nil, zap.NewNop()).Load()
	if err != nil || len(quotes) != 0 {
		t.Errorf("quotes = (%v, %v), want empty", quotes, err)
	}

	history, err := NewConversationStore(filepath.Join(dir, "h.json"), zap.NewNop()).Recent("x@example.se", 5)
	if err != nil || len(history) != 0 {
		t.Errorf("history = (%v, %v), want empty", history, err)
	}
}

func TestStores_MalformedFileFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cPath := filepath.Join(dir, "c.json")
	qPath := filepath.Join(dir, "q.json")
	hPath := filepath.Join(dir, "h.json")
	writeTestFile(t, cPath, `[{"from": "a@b.se", "subject": `)
	writeTestFile(t, qPath, "{\"customer\":\"a@b.se\",\"products\":{},\"date\":\"2025-01-01 10:00\",\"followed_up\":false}\nnot json\n")
	writeTestFile(t, hPath, `["not", "an", "object"]`)

	var pe *ParseError

	if _, err := NewComplaintStore(cPath, zap.NewNop()).Load(); !errors.As(err, &pe) {
		t.Errorf("complaints Load error = %v, want ParseError", err)
	}

	_, err := NewQuoteStore(qPath, nil, zap.NewNop()).Load()
	if !errors.As(err, &pe) {
		t.Fatalf("quotes Load error = %v, want ParseError", err)
	}
	if pe.Line != 2 {
		t.Errorf("quotes ParseError line = %d, want 2", pe.Line)
	}

	if _, err := NewConversationStore(hPath, zap.NewNop()).Recent("a@b.se", 5); !errors.As(err, &pe) {
		t.Errorf("conversations Recent error = %v, want ParseError", err)
	}
}

func TestComplaintStore_MalformedFileBlocksWrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "c.json")
	writeTestFile(t, path, `{"oops": true}`)
	s := NewComplaintStore(path, zap.NewNop())

	if _, _, err := s.Log(&core.Message{From: "a@b.se"}); err == nil {
		t.Fatal("Log on malformed store succeeded")
	}
	data, _ := os.ReadFile(path)
	if string(data) != `{"oops": true}` {
		t.Errorf("malformed file was overwritten: %s", data)
	}
}

func TestComplaintStore_UnknownStatus(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "c.json")
	writeTestFile(t, path, `[{"from":"a@b.se","subject":"s","body":"b","status":"pending"}]`)

	var pe *ParseError
	if _, err := NewComplaintStore(path, zap.NewNop()).Load(); !errors.As(err, &pe) {
		t.Errorf("Load error = %v, want ParseError", err)
	}
}

func TestQuoteStore_AppendAndLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "sent_quotes.json")
	s := NewQuoteStore(path, time.UTC, zap.NewNop())
	created := time.Date(2025, 12, 1, 9, 30, 0, 0, time.UTC)

	for i, customer := range []string{"anna@example.se", "anders@example.se"} {
		idx, err := s.Append(core.Quote{
			Customer:  customer,
			Subject:   "Prisförfrågan",
			Products:  map[string]int{"plywood_12mm": 20 + i},
			CreatedAt: created,
		})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if idx != i {
			t.Errorf("Append index = %d, want %d", idx, i)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("file has %d lines, want 2:\n%s", len(lines), data)
	}
	if !strings.Contains(lines[0], `"Prisförfrågan"`) {
		t.Errorf("line not UTF-8 verbatim: %s", lines[0])
	}

	quotes, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("Load returned %d quotes, want 2", len(quotes))
	}
	if quotes[1].Customer != "anders@example.se" || quotes[1].Products["plywood_12mm"] != 21 {
		t.Errorf("quote[1] = %+v", quotes[1])
	}
	if !quotes[0].CreatedAt.Equal(created) {
		t.Errorf("created = %v, want %v", quotes[0].CreatedAt, created)
	}
	if quotes[0].FollowedUp {
		t.Error("new quote is already followed up")
	}
}

func TestQuoteStore_LegacyDateFormat(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("CET", 3600)
	path := filepath.Join(t.TempDir(), "sent_quotes.json")
	writeTestFile(t, path, `{"customer": "anna@example.se", "subject": "Altan", "products": {"bräda_22x145_3m": 40}, "date": "2025-12-01 14:05", "followed_up": false}`+"\n\n")

	quotes, err := NewQuoteStore(path, loc, zap.NewNop()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(quotes) != 1 {
		t.Fatalf("Load returned %d quotes, want 1", len(quotes))
	}
	want := time.Date(2025, 12, 1, 14, 5, 0, 0, loc)
	if !quotes[0].CreatedAt.Equal(want) {
		t.Errorf("created = %v, want %v", quotes[0].CreatedAt, want)
	}
}

func TestQuoteStore_AppendAfterMissingTrailingNewline(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sent_quotes.json")
	writeTestFile(t, path, `{"customer": "anna@example.se", "subject": "Altan", "products": {"bräda_22x145_3m": 40}, "date": "2025-12-01 14:05", "followed_up": false}`)

	s := NewQuoteStore(path, time.UTC, zap.NewNop())
	idx, err := s.Append(core.Quote{Customer: "erik@example.se", Subject: "Garage", Products: map[string]int{"osb_11mm": 4}, CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if idx != 1 {
		t.Errorf("Append index = %d, want 1", idx)
	}

	quotes, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(quotes) != 2 || quotes[0].Customer != "anna@example.se" || quotes[1].Customer != "erik@example.se" {
		t.Errorf("quotes = %+v", quotes)
	}
}

func TestQuoteStore_MarkFollowedUp(t *testing.T) {
	t.Parallel()

	s := NewQuoteStore(filepath.Join(t.TempDir(), "q.json"), time.UTC, zap.NewNop())
	for _, c := range []string{"a@b.se", "c@d.se"} {
		if _, err := s.Append(core.Quote{Customer: c, Products: map[string]int{"osb_11mm": 1}, CreatedAt: time.Now()}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	ok, err := s.MarkFollowedUp(1)
	if err != nil || !ok {
		t.Fatalf("MarkFollowedUp(1) = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = s.MarkFollowedUp(1)
	if err != nil || ok {
		t.Errorf("second MarkFollowedUp(1) = (%v, %v), want (false, nil)", ok, err)
	}
	ok, err = s.MarkFollowedUp(7)
	if err != nil || ok {
		t.Errorf("MarkFollowedUp(7) = (%v, %v), want (false, nil)", ok, err)
	}

	quotes, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if quotes[0].FollowedUp || !quotes[1].FollowedUp {
		t.Errorf("flags = %v %v, want false true", quotes[0].FollowedUp, quotes[1].FollowedUp)
	}

	pending, err := s.Pending()
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Index != 0 {
		t.Errorf("Pending = %+v, want only index 0", pending)
	}

	if _, err := s.Append(core.Quote{Customer: "e@f.se", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("Append after rewrite: %v", err)
	}
	quotes, err = s.Load()
	if err != nil || len(quotes) != 3 {
		t.Fatalf("Load after rewrite = (%d quotes, %v), want 3", len(quotes), err)
	}
}

func TestConversationStore_RecentReturnsLastNInOrder(t *testing.T) {
	t.Parallel()

	s := NewConversationStore(filepath.Join(t.TempDir(), "conversations.json"), zap.NewNop())
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	customer := "maria@lindqvistbygg.se"
	for i := 1; i <= 7; i++ {
		role := core.RoleCustomer
		if i%2 == 0 {
			role = core.RoleAgent
		}
		if _, err := s.Append(customer, role, "Möte", strings.Repeat("x", i)); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}
	if _, err := s.Append("other@example.se", core.RoleCustomer, "", "hej"); err != nil {
		t.Fatalf("Append other: %v", err)
	}

	got, err := s.Recent(customer, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent returned %d entries, want 3", len(got))
	}
	for i, wantLen := range []int{5, 6, 7} {
		if len(got[i].Message) != wantLen {
			t.Errorf("entry %d message length = %d, want %d", i, len(got[i].Message), wantLen)
		}
	}
	if !got[0].Timestamp.Before(got[1].Timestamp) || !got[1].Timestamp.Before(got[2].Timestamp) {
		t.Error("entries not in chronological order")
	}

	all, err := s.Recent(customer, 0)
	if err != nil || len(all) != 7 {
		t.Errorf("Recent(0) = (%d, %v), want 7 entries", len(all), err)
	}
}

func TestConversationStore_InvalidRole(t *testing.T) {
	t.Parallel()

	s := NewConversationStore(filepath.Join(t.TempDir(), "h.json"), zap.NewNop())
	if _, err := s.Append("a@b.se", core.Role("bot"), "", "hej"); err == nil {
		t.Fatal("Append with invalid role succeeded")
	}
}

func TestConversationStore_Clear(t *testing.T) {
	t.Parallel()

	s := NewConversationStore(filepath.Join(t.TempDir(), "h.json"), zap.NewNop())
	for _, c := range []string{"a@b.se", "c@d.se"} {
		if _, err := s.Append(c, core.RoleCustomer, "", "hej"); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	ok, err := s.Clear("a@b.se")
	if err != nil || !ok {
		t.Fatalf("Clear(a) = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = s.Clear("a@b.se")
	if err != nil || ok {
		t.Errorf("second Clear(a) = (%v, %v), want (false, nil)", ok, err)
	}

	customers, err := s.Customers()
	if err != nil || len(customers) != 1 || customers[0] != "c@d.se" {
		t.Errorf("Customers = (%v, %v), want [c@d.se]", customers, err)
	}

	if err := s.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	customers, err = s.Customers()
	if err != nil || len(customers) != 0 {
		t.Errorf("Customers after ClearAll = (%v, %v), want none", customers, err)
	}
}

func TestFormatHistory(t *testing.T) {
	t.Parallel()

	if got := FormatHistory(nil, 500); got != "" {
		t.Errorf("FormatHistory(nil) = %q, want empty", got)
	}

	ts := time.Date(2025, 3, 4, 10, 15, 0, 0, time.UTC)
	long := strings.Repeat("ö", 600)
	got := FormatHistory([]core.ConversationEntry{
		{Timestamp: ts, Role: core.RoleCustomer, Subject: "Fel leverans", Message: long},
		{Timestamp: ts.Add(time.Hour), Role: core.RoleAgent, Message: "Vi återkommer."},
	}, 500)

	if !strings.Contains(got, "[2025-03-04 10:15] CUSTOMER [Fel leverans]:") {
		t.Errorf("missing customer header:\n%s", got)
	}
	if !strings.Contains(got, "[2025-03-04 11:15] US:") {
		t.Errorf("missing agent header:\n%s", got)
	}
	if strings.Contains(got, strings.Repeat("ö", 501)) {
		t.Error("message not truncated to 500 runes")
	}
	if !strings.Contains(got, strings.Repeat("ö", 500)) {
		t.Error("message truncated below 500 runes")
	}
}
