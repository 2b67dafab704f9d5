package model

import "time"

// BookingLock is an advisory lock serializing commits for one
// (link, date, slot start) tuple. The lock ID encodes the tuple and the
// unique _id insert is what enforces mutual exclusion.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
