package store

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mikey/llm-mail-triage/internal/core"
	"go.uber.org/zap"
)

// IndexedComplaint is a complaint together with its store index
type IndexedComplaint struct {
	Index int `json:"index"`
	core.Complaint
}

// ComplaintStore keeps complaints as a JSON array
type ComplaintStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewComplaintStore creates a complaint store backed by path
func NewComplaintStore(path string, logger *zap.Logger) *ComplaintStore {
	return &ComplaintStore{
		path:   path,
		logger: logger,
	}
}

// Path returns the backing file
func (s *ComplaintStore) Path() string {
	return s.path
}

// Load returns all complaints in store order
func (s *ComplaintStore) Load() ([]core.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Log appends an open complaint for msg and returns it with its index
func (s *ComplaintStore) Log(msg *core.Message) (core.Complaint, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	complaints, err := s.load()
	if err != nil {
		return core.Complaint{}, -1, err
	}

	complaint := core.Complaint{
		From:    msg.From,
		Subject: msg.Subject,
		Body:    msg.Body,
		Status:  core.ComplaintOpen,
	}
	complaints = append(complaints, complaint)
	if err := s.save(complaints); err != nil {
		return core.Complaint{}, -1, err
	}

	index := len(complaints) - 1
	s.logger.Info("Logged complaint",
		zap.Int("complaint_index", index),
		zap.String("customer", msg.From),
		zap.String("subject", msg.Subject))

	return complaint, index, nil
}

// Open returns the complaints that are still open
func (s *ComplaintStore) Open() ([]IndexedComplaint, error) {
	complaints, err := s.Load()
	if err != nil {
		return nil, err
	}

	open := make([]IndexedComplaint, 0)
	for i, c := range complaints {
		if c.Status == core.ComplaintOpen {
			open = append(open, IndexedComplaint{Index: i, Complaint: c})
		}
	}
	return open, nil
}

// Close marks the complaint at index as closed. It returns false without
// touching the store if the index is out of range or already closed.
func (s *ComplaintStore) Close(index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	complaints, err := s.load()
	if err != nil {
		return false, err
	}
	if index < 0 || index >= len(complaints) {
		s.logger.Warn("Complaint index out of range",
			zap.Int("complaint_index", index),
			zap.Int("count", len(complaints)))
		return false, nil
	}
	if complaints[index].Status == core.ComplaintClosed {
		return false, nil
	}

	complaints[index].Status = core.ComplaintClosed
	if err := s.save(complaints); err != nil {
		return false, err
	}

	s.logger.Info("Closed complaint", zap.Int("complaint_index", index))
	return true, nil
}

func (s *ComplaintStore) load() ([]core.Complaint, error) {
	data, ok, err := readFile(s.path)
	if err != nil {
		return nil, err
	}
	if !ok || isBlank(data) {
		return []core.Complaint{}, nil
	}

	var complaints []core.Complaint
	if err := json.Unmarshal(data, &complaints); err != nil {
		return nil, &ParseError{Path: s.path, Err: err}
	}
	if complaints == nil {
		complaints = []core.Complaint{}
	}

	for i := range complaints {
		switch complaints[i].Status {
		case core.ComplaintOpen, core.ComplaintClosed:
		case "":
			complaints[i].Status = core.ComplaintOpen
		default:
			return nil, &ParseError{
				Path: s.path,
				Err:  fmt.Errorf("complaint %d has unknown status %q", i, complaints[i].Status),
			}
		}
	}
	return complaints, nil
}

func (s *ComplaintStore) save(complaints []core.Complaint) error {
	data, err := marshal(complaints, true)
	if err != nil {
		return fmt.Errorf("failed to encode complaints: %w", err)
	}
	return writeFileAtomic(s.path, data)
}
