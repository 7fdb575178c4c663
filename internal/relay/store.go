// Package relay polls a spreadsheet for submitted questions and pushes the
// moderation state to connected screens over websockets.
package relay

import (
	"fmt"
	"log/slog"
	"sync"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusRejected  Status = "Rejected"
	StatusProjected Status = "Projected"
)

// Question is one submitted row. ID is the row index, stable for the life of
// the process.
type Question struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Question string `json:"question"`
	Status   Status `json:"status"`
}

// Row is the raw content of a spreadsheet row.
type Row struct {
	Name     string
	Question string
}

// Lists is the payload of refresh_data.
type Lists struct {
	Pending  []Question `json:"pending"`
	Approved []Question `json:"approved"`
}

// Store keeps every question seen so far. Rows are only ever appended.
type Store struct {
	mu        sync.RWMutex
	questions []Question
}

func NewStore() *Store {
	return &Store{}
}

// Merge appends the rows past the ones already known and reports how many
// were added. A shorter row set changes nothing.
func (s *Store) Merge(rows []Row) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := len(s.questions)
	if len(rows) <= known {
		return 0
	}
	for i := known; i < len(rows); i++ {
		s.questions = append(s.questions, Question{
			ID:       i,
			Name:     rows[i].Name,
			Question: rows[i].Question,
			Status:   StatusPending,
		})
	}
	added := len(rows) - known
	slog.Info("relay: new questions", "count", added, "total", len(s.questions))
	return added
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.questions)
}

func (s *Store) Get(id int) (Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 0 || id >= len(s.questions) {
		return Question{}, false
	}
	return s.questions[id], true
}

func (s *Store) Approve(id int) error {
	_, err := s.setStatus(id, StatusApproved)
	return err
}

func (s *Store) Decline(id int) error {
	_, err := s.setStatus(id, StatusRejected)
	return err
}

// Project marks the question as projected and returns it as it was before
// the change, which is what goes out on project_live.
func (s *Store) Project(id int) (Question, error) {
	return s.setStatus(id, StatusProjected)
}

func (s *Store) setStatus(id int, status Status) (Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.questions) {
		return Question{}, fmt.Errorf("%w: %d", ErrUnknownQuestion, id)
	}
	prev := s.questions[id]
	s.questions[id].Status = status
	return prev, nil
}

// Lists partitions the questions by status. Rejected and projected ones are
// in neither list.
func (s *Store) Lists() Lists {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l := Lists{Pending: []Question{}, Approved: []Question{}}
	for _, q := range s.questions {
		switch q.Status {
		case StatusPending:
			l.Pending = append(l.Pending, q)
		case StatusApproved:
			l.Approved = append(l.Approved, q)
		}
	}
	return l
}
