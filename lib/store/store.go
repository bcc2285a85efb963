// Package store defines the interface for database implementations to the wallet and tracker microservices: a
// journal of the submissions sent to the gateway. Keys are never stored.
package store

import (
	"github.com/pkg/errors"

	"github.com/architectjyothi/overledger-sdk-go/lib/util"
)

// DB defines required methods for wallets and trackers
type DB interface {
	// methods for wallet service
	AddSubmission(Submission) error
	GetSubmissions(dlts []string) ([]Submission, error)
	// methods for tracker service
	PendingSubmissions() ([]Submission, error)
	UpdateStatus(id, status string) error
}

// Submission statuses. Any other status reported by the gateway is treated as pending.
const (
	StatusSubmitted = "submitted"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
	StatusRejected  = "rejected"
)

// FinalStatuses are the statuses a tracker stops polling at.
var FinalStatuses = []string{StatusConfirmed, StatusFailed, StatusRejected} //nolint:gochecknoglobals // constant list

// Final reports whether status is terminal.
func Final(status string) bool {
	return util.In(FinalStatuses, status)
}

// Errors returned
var (
	ErrSubmissionNotFound = errors.New("submission was not found in store")
	ErrDuplicate          = errors.New("submission already exists in store")
)
