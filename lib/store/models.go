package store

import "time"

// Submission is one signed transaction of an envelope sent to the gateway.
type Submission struct {
	ID                string    `json:"id" bson:"_id"`
	MappID            string    `json:"mappId" bson:"mappId"`
	TransactionID     string    `json:"overledgerTransactionId" bson:"transactionId"`
	Dlt               string    `json:"dlt" bson:"dlt"`
	SignedTransaction string    `json:"signedTransaction" bson:"signedTransaction"`
	TransactionHash   string    `json:"transactionHash,omitempty" bson:"transactionHash,omitempty"`
	Status            string    `json:"status" bson:"status"`
	Created           time.Time `json:"created" bson:"created"`
	Updated           time.Time `json:"updated" bson:"updated"`
}
