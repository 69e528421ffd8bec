package models

import "time"

// Activity types and actions recorded for the dashboard's audit feed.
const (
	ActivityTypeEnrollment = "enrollment"

	ActivityActionEnrolled = "enrolled"
	ActivityActionDropped  = "dropped"
)

// Activity is a best-effort audit record written after a successful
// enroll or drop. Failures to persist one never roll back the
// enrollment itself.
type Activity struct {
	ID        string    `db:"id" json:"id"`
	Type      string    `db:"type" json:"type"`
	Action    string    `db:"action" json:"action"`
	Details   []byte    `db:"details" json:"details,omitempty"`
	Actor     string    `db:"actor" json:"actor"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
