// Package mongo implements the interface for MongoDB.
package mongo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	mgo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/architectjyothi/overledger-sdk-go/lib/store"
	"github.com/architectjyothi/overledger-sdk-go/lib/util"
)

const (
	database   = "ovl"
	collection = "submissions"
	timeout    = 5 * time.Second
)

// Mongo implements a connection to a MongoDB database.
type Mongo struct {
	c *mgo.Client
}

// New returns a Mongo client connection to the specified MongoDB database uri.
func New(uri string) (*Mongo, error) {
	// get a client
	c, err := mgo.NewClient(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot connect to mongo DB in %s", uri)
	}
	// connect client
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = c.Connect(ctx); err != nil {
		return nil, errors.Wrap(err, "error connecting to mongo DB")
	}

	return &Mongo{c: c}, nil
}

// CloseMongo will close a database connection. Must be called at termination time.
func (m *Mongo) CloseMongo() error {
	return m.c.Disconnect(context.Background())
}

func (m *Mongo) col() *mgo.Collection {
	return m.c.Database(database).Collection(collection)
}

// AddSubmission saves a new submission.
func (m *Mongo) AddSubmission(s store.Submission) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if _, err := m.col().InsertOne(ctx, s); err != nil {
		if mgo.IsDuplicateKeyError(err) {
			return errors.Wrap(store.ErrDuplicate, s.ID)
		}

		return errors.Wrap(err, "could not insert submission in db")
	}

	return nil
}

// UpdateStatus sets the status of submission id.
func (m *Mongo) UpdateStatus(id, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	res, err := m.col().UpdateOne(ctx,
		bson.M{"_id": id}, // filter
		bson.D{ // update
			{
				Key: "$set", Value: bson.D{
					{Key: "status", Value: status},
					{Key: "updated", Value: time.Now().UTC()},
				},
			},
		})
	if err != nil {
		return errors.Wrapf(err, "could not update submission %s", id)
	}

	if res.MatchedCount != 1 {
		return errors.Wrap(store.ErrSubmissionNotFound, id)
	}

	return nil
}

func (m *Mongo) find(filter interface{}) ([]store.Submission, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cur, err := m.col().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "error getting mongo DB object")
	}
	defer cur.Close(ctx)

	subs := []store.Submission{}

	for cur.Next(ctx) {
		var s store.Submission
		if err = cur.Decode(&s); err != nil {
			log.Warn().Err(err).Msg("skipping undecodable submission")

			continue
		}

		subs = append(subs, s)
	}

	return subs, errors.Wrap(cur.Err(), "error reading submissions")
}

// GetSubmissions returns the submissions of the DLTs indicated, or all of them when dlts is empty.
func (m *Mongo) GetSubmissions(dlts []string) ([]store.Submission, error) {
	filter := bson.M{}
	if len(dlts) > 0 {
		filter["dlt"] = bson.M{"$in": util.Lower(dlts)}
	}

	return m.find(filter)
}

// PendingSubmissions returns the submissions whose status is not final.
func (m *Mongo) PendingSubmissions() ([]store.Submission, error) {
	return m.find(bson.M{"status": bson.M{"$nin": store.FinalStatuses}})
}

// DeleteSubmissions removes every submission. Used by tests.
func (m *Mongo) DeleteSubmissions() error {
	_, err := m.col().DeleteMany(context.Background(), bson.D{})

	return err
}
