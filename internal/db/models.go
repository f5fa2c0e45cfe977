package db

import (
	"time"

	"gorm.io/datatypes"
)

// AccessEvent is one derived access-log row of a mirrored snapshot.
// Rows of superseded snapshots are removed by the retention pass.
type AccessEvent struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time

	// SnapshotID ties the row to the load that produced it.
	SnapshotID string `gorm:"index;size:36;not null"`

	Timestamp   time.Time `gorm:"index"`
	IPAddress   string    `gorm:"index;size:45"`
	Method      string    `gorm:"size:16"`
	Page        string    `gorm:"index"`
	StatusCode  int
	Country     string `gorm:"index;size:8"`
	JobType     string `gorm:"size:64"`
	RequestType string `gorm:"index;size:64"`
	SessionID   string `gorm:"index"`

	// Attributes holds the remaining derived fields (hour, week, product,
	// pages per session, session duration) so ad-hoc queries can use them
	// without schema changes.
	Attributes datatypes.JSONMap `gorm:"type:json"`
}

// SessionSummary stores the aggregates of one reconstructed session.
type SessionSummary struct {
	ID uint `gorm:"primaryKey"`

	SnapshotID string `gorm:"uniqueIndex:idx_session_summary_unique,priority:1;size:36;not null"`
	SessionID  string `gorm:"uniqueIndex:idx_session_summary_unique,priority:2;not null"`

	IPAddress       string    `gorm:"index;size:45;not null"`
	Seq             int       `gorm:"not null"`
	StartedAt       time.Time `gorm:"not null"`
	EndedAt         time.Time `gorm:"not null"`
	Events          int       `gorm:"not null"`
	DistinctPages   int       `gorm:"not null"`
	DurationMinutes float64   `gorm:"not null"`
}
