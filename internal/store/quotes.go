package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

// legacyDateLayout is the minute-resolution local time format older quote
// logs were written with
const legacyDateLayout = "2006-01-02 15:04"

// IndexedQuote is a quote together with its position in the log
type IndexedQuote struct {
	Index int `json:"index"`
	core.Quote
}

// quoteLine is the on-disk shape of one quote
type quoteLine struct {
	Customer   string         `json:"customer"`
	Subject    string         `json:"subject"`
	Products   map[string]int `json:"products"`
	Date       string         `json:"date"`
	FollowedUp bool           `json:"followed_up"`
}

// QuoteStore keeps sent quotes as newline-delimited JSON
type QuoteStore struct {
	path     string
	location *time.Location
	logger   *zap.Logger
	mu       sync.Mutex
}

// NewQuoteStore creates a quote store backed by path. Legacy dates without a
// zone are read in loc (time.Local when nil).
func NewQuoteStore(path string, loc *time.Location, logger *zap.Logger) *QuoteStore {
	if loc == nil {
		loc = time.Local
	}
	return &QuoteStore{
		path:     path,
		location: loc,
		logger:   logger,
	}
}

// Path returns the backing file
func (s *QuoteStore) Path() string {
	return s.path
}

// Load returns all quotes in insertion order
func (s *QuoteStore) Load() ([]core.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Append writes q as a new line at the end of the log and returns its index
func (s *QuoteStore) Append(q core.Quote) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quotes, err := s.load()
	if err != nil {
		return -1, err
	}

	line, err := marshal(toLine(q), false)
	if err != nil {
		return -1, fmt.Errorf("failed to encode quote: %w", err)
	}
	if err := appendLine(s.path, line); err != nil {
		return -1, err
	}

	index := len(quotes)
	s.logger.Info("Saved quote",
		zap.Int("quote_index", index),
		zap.String("customer", q.Customer),
		zap.Int("product_count", len(q.Products)))

	return index, nil
}

// Pending returns the quotes that have not been followed up yet
func (s *QuoteStore) Pending() ([]IndexedQuote, error) {
	quotes, err := s.Load()
	if err != nil {
		return nil, err
	}

	pending := make([]IndexedQuote, 0)
	for i, q := range quotes {
		if !q.FollowedUp {
			pending = append(pending, IndexedQuote{Index: i, Quote: q})
		}
	}
	return pending, nil
}

// MarkFollowedUp sets the follow-up flag of the quote at index and rewrites
// the log atomically. It returns false if the index is out of range or the
// flag was already set; the flag is never cleared.
func (s *QuoteStore) MarkFollowedUp(index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quotes, err := s.load()
	if err != nil {
		return false, err
	}
	if index < 0 || index >= len(quotes) || quotes[index].FollowedUp {
		return false, nil
	}

	quotes[index].FollowedUp = true

	var buf bytes.Buffer
	for _, q := range quotes {
		line, err := marshal(toLine(q), false)
		if err != nil {
			return false, fmt.Errorf("failed to encode quote: %w", err)
		}
		buf.Write(line)
	}
	if err := writeFileAtomic(s.path, buf.Bytes()); err != nil {
		return false, err
	}
	return true, nil
}

func (s *QuoteStore) load() ([]core.Quote, error) {
	data, ok, err := readFile(s.path)
	if err != nil {
		return nil, err
	}
	quotes := make([]core.Quote, 0)
	if !ok {
		return quotes, nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var line quoteLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, &ParseError{Path: s.path, Line: lineNo, Err: err}
		}
		q, err := s.fromLine(line)
		if err != nil {
			return nil, &ParseError{Path: s.path, Line: lineNo, Err: err}
		}
		quotes = append(quotes, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Path: s.path, Line: lineNo + 1, Err: err}
	}
	return quotes, nil
}

func (s *QuoteStore) fromLine(line quoteLine) (core.Quote, error) {
	if line.Customer == "" {
		return core.Quote{}, fmt.Errorf("quote has no customer")
	}
	created, err := s.parseDate(line.Date)
	if err != nil {
		return core.Quote{}, err
	}
	products := line.Products
	if products == nil {
		products = map[string]int{}
	}
	return core.Quote{
		Customer:   line.Customer,
		Subject:    line.Subject,
		Products:   products,
		CreatedAt:  created,
		FollowedUp: line.FollowedUp,
	}, nil
}

func (s *QuoteStore) parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(legacyDateLayout, value, s.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid quote date %q", value)
	}
	return t, nil
}

func toLine(q core.Quote) quoteLine {
	products := q.Products
	if products == nil {
		products = map[string]int{}
	}
	return quoteLine{
		Customer:   q.Customer,
		Subject:    q.Subject,
		Products:   products,
		Date:       q.CreatedAt.Format(time.RFC3339),
		FollowedUp: q.FollowedUp,
	}
}
