// Package memory implements the store interface in process memory. Nothing survives a restart; it serves tests and
// single instance deployments without a database.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/architectjyothi/overledger-sdk-go/lib/store"
	"github.com/architectjyothi/overledger-sdk-go/lib/util"
)

// Memory is a store.DB safe for concurrent use.
type Memory struct {
	l    sync.RWMutex
	subs map[string]store.Submission
}

// New returns an empty store.
func New() *Memory {
	return &Memory{subs: make(map[string]store.Submission)}
}

// AddSubmission saves a new submission.
func (m *Memory) AddSubmission(s store.Submission) error {
	m.l.Lock()
	defer m.l.Unlock()

	if _, ok := m.subs[s.ID]; ok {
		return errors.Wrap(store.ErrDuplicate, s.ID)
	}

	m.subs[s.ID] = s

	return nil
}

// UpdateStatus sets the status of submission id.
func (m *Memory) UpdateStatus(id, status string) error {
	m.l.Lock()
	defer m.l.Unlock()

	s, ok := m.subs[id]
	if !ok {
		return errors.Wrap(store.ErrSubmissionNotFound, id)
	}

	s.Status, s.Updated = status, time.Now().UTC()
	m.subs[id] = s

	return nil
}

func (m *Memory) filter(keep func(store.Submission) bool) []store.Submission {
	m.l.RLock()
	defer m.l.RUnlock()

	subs := []store.Submission{}

	for _, s := range m.subs {
		if keep(s) {
			subs = append(subs, s)
		}
	}

	sort.Slice(subs, func(i, j int) bool {
		if subs[i].Created.Equal(subs[j].Created) {
			return subs[i].ID < subs[j].ID
		}

		return subs[i].Created.Before(subs[j].Created)
	})

	return subs
}

// GetSubmissions returns the submissions of the DLTs indicated, or all of them when dlts is empty.
func (m *Memory) GetSubmissions(dlts []string) ([]store.Submission, error) {
	dlts = util.Lower(dlts)

	return m.filter(func(s store.Submission) bool {
		return len(dlts) == 0 || util.In(dlts, s.Dlt)
	}), nil
}

// PendingSubmissions returns the submissions whose status is not final.
func (m *Memory) PendingSubmissions() ([]store.Submission, error) {
	return m.filter(func(s store.Submission) bool {
		return !store.Final(s.Status)
	}), nil
}
