// Package watch keeps the submissions a tracker is following and detects their status changes.
package watch

import (
	"sync"

	overledger "github.com/architectjyothi/overledger-sdk-go"
	"github.com/architectjyothi/overledger-sdk-go/lib/store"
)

// Status possible values, control whether a Watch is working or is/has to stop.
const (
	WORK int = 0
	STOP int = 1
)

// Change is a new status observed for a tracked submission.
type Change struct {
	Submission      store.Submission // as tracked before the change
	Status          string
	TransactionHash string
}

// Watch contains the submissions being tracked, keyed by submission id.
type Watch struct {
	l      sync.Mutex // guards everything below
	status int
	Cycles uint64                      // completed polling cycles
	Map    map[string]store.Submission // tracked submissions
}

// New returns a working Watch tracking subs.
func New(subs []store.Submission) *Watch {
	w := &Watch{Map: make(map[string]store.Submission, len(subs))}
	w.Load(subs)

	return w
}

// Load replaces the tracked set with the non final submissions of subs.
func (w *Watch) Load(subs []store.Submission) {
	w.l.Lock()
	defer w.l.Unlock()

	w.Map = make(map[string]store.Submission, len(subs))

	for _, s := range subs {
		if !store.Final(s.Status) {
			w.Map[s.ID] = s
		}
	}
}

// Len returns the number of tracked submissions.
func (w *Watch) Len() int {
	w.l.Lock()
	defer w.l.Unlock()

	return len(w.Map)
}

// TransactionIDs returns the gateway transaction ids to read, each once, however many DLT entries it holds.
func (w *Watch) TransactionIDs() []string {
	w.l.Lock()
	defer w.l.Unlock()

	seen := make(map[string]bool, len(w.Map))
	ids := make([]string, 0, len(w.Map))

	for _, s := range w.Map {
		if s.TransactionID != "" && !seen[s.TransactionID] {
			seen[s.TransactionID] = true
			ids = append(ids, s.TransactionID)
		}
	}

	return ids
}

// Scan compares the gateway view tr with the tracked submissions of that transaction and returns those whose status
// changed. Tracked entries are updated; the ones reaching a final status are no longer tracked.
func (w *Watch) Scan(tr *overledger.TransactionReply) []Change {
	w.l.Lock()
	defer w.l.Unlock()

	var r []Change

	for id, s := range w.Map {
		if s.TransactionID != tr.TransactionID {
			continue
		}

		e, ok := tr.Entry(s.Dlt)
		if !ok || e.Status == "" || string(e.Status) == s.Status {
			continue
		}

		r = append(r, Change{Submission: s, Status: string(e.Status), TransactionHash: e.TransactionHash})

		if store.Final(string(e.Status)) {
			delete(w.Map, id)

			continue
		}

		s.Status = string(e.Status)
		if e.TransactionHash != "" {
			s.TransactionHash = e.TransactionHash
		}

		w.Map[id] = s
	}

	return r
}

// Done counts a completed polling cycle.
func (w *Watch) Done() {
	w.l.Lock()
	w.Cycles++
	w.l.Unlock()
}

// Stop sets status to STOP.
func (w *Watch) Stop() {
	w.l.Lock()
	w.status = STOP
	w.l.Unlock()
}

// Start sets status to WORK.
func (w *Watch) Start() {
	w.l.Lock()
	w.status = WORK
	w.l.Unlock()
}

// Status returns the current Watch status.
func (w *Watch) Status() int {
	w.l.Lock()
	defer w.l.Unlock()

	return w.status
}
