// Package postgres implements the interface for PostgreSQL.
package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/architectjyothi/overledger-sdk-go/lib/store"
	"github.com/architectjyothi/overledger-sdk-go/lib/util"
)

const schema = `CREATE TABLE IF NOT EXISTS submissions (
	id                 TEXT PRIMARY KEY,
	mapp_id            TEXT NOT NULL,
	transaction_id     TEXT NOT NULL,
	dlt                TEXT NOT NULL,
	signed_transaction TEXT NOT NULL,
	transaction_hash   TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL,
	created            TIMESTAMPTZ NOT NULL,
	updated            TIMESTAMPTZ NOT NULL
)`

const columns = `id, mapp_id, transaction_id, dlt, signed_transaction, transaction_hash, status, created, updated`

// pgUniqueViolation is the SQLSTATE of a duplicate primary key.
const pgUniqueViolation = "23505"

// Postgres implements a connection to a PostgreSQL database.
type Postgres struct {
	db *sql.DB
}

// New returns a postgres client connection to the specified database in 'connection' and creates the submissions
// table if needed.
func New(connection string) (*Postgres, error) {
	db, err := sql.Open("postgres", connection)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot connect to DB in %s", connection)
	}

	if _, err = db.Exec(schema); err != nil {
		_ = db.Close()

		return nil, errors.Wrap(err, "cannot create submissions table")
	}

	return &Postgres{db: db}, nil
}

// ClosePostgres will close any database connection. Must be called at termination time.
func (p *Postgres) ClosePostgres() error {
	return p.db.Close()
}

// AddSubmission saves a new submission.
func (p *Postgres) AddSubmission(s store.Submission) error {
	_, err := p.db.Exec(`INSERT INTO submissions (`+columns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.MappID, s.TransactionID, s.Dlt, s.SignedTransaction, s.TransactionHash, s.Status, s.Created, s.Updated)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return errors.Wrap(store.ErrDuplicate, s.ID)
	}

	return errors.Wrap(err, "could not insert submission in db")
}

// UpdateStatus sets the status of submission id.
func (p *Postgres) UpdateStatus(id, status string) error {
	res, err := p.db.Exec(`UPDATE submissions SET status = $2, updated = $3 WHERE id = $1`, id, status,
		time.Now().UTC())
	if err != nil {
		return errors.Wrapf(err, "could not update submission %s", id)
	}

	if n, err := res.RowsAffected(); err == nil && n != 1 {
		return errors.Wrap(store.ErrSubmissionNotFound, id)
	}

	return nil
}

func (p *Postgres) query(q string, args ...interface{}) ([]store.Submission, error) {
	rows, err := p.db.Query(`SELECT `+columns+` FROM submissions `+q+` ORDER BY created`, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error querying submissions")
	}
	defer rows.Close()

	subs := []store.Submission{}

	for rows.Next() {
		var s store.Submission
		if err = rows.Scan(&s.ID, &s.MappID, &s.TransactionID, &s.Dlt, &s.SignedTransaction, &s.TransactionHash,
			&s.Status, &s.Created, &s.Updated); err != nil {
			return nil, errors.Wrap(err, "error reading submission")
		}

		subs = append(subs, s)
	}

	return subs, errors.Wrap(rows.Err(), "error reading submissions")
}

// GetSubmissions returns the submissions of the DLTs indicated, or all of them when dlts is empty.
func (p *Postgres) GetSubmissions(dlts []string) ([]store.Submission, error) {
	if len(dlts) == 0 {
		return p.query(``)
	}

	return p.query(`WHERE dlt = ANY($1)`, pq.Array(util.Lower(dlts)))
}

// PendingSubmissions returns the submissions whose status is not final.
func (p *Postgres) PendingSubmissions() ([]store.Submission, error) {
	return p.query(`WHERE NOT (status = ANY($1))`, pq.Array(store.FinalStatuses))
}

// DeleteSubmissions removes every submission. Used by tests.
func (p *Postgres) DeleteSubmissions() error {
	_, err := p.db.Exec(`DELETE FROM submissions`)

	return err
}
