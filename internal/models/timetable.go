package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableStatus represents lifecycle phases for generated timetables.
type TimetableStatus string

const (
	TimetableStatusDraft     TimetableStatus = "DRAFT"
	TimetableStatusPublished TimetableStatus = "PUBLISHED"
	TimetableStatusArchived  TimetableStatus = "ARCHIVED"
)

// Timetable captures one versioned generation run over the stored roster.
type Timetable struct {
	ID          string          `db:"id" json:"id"`
	Version     int             `db:"version" json:"version"`
	Status      TimetableStatus `db:"status" json:"status"`
	FullyPlaced bool            `db:"fully_placed" json:"fully_placed"`
	Meta        types.JSONText  `db:"meta" json:"meta"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// TimetableEntry is one placed course inside a timetable version.
type TimetableEntry struct {
	ID          string    `db:"id" json:"id"`
	TimetableID string    `db:"timetable_id" json:"timetable_id"`
	Subject     string    `db:"subject" json:"subject"`
	Faculty     string    `db:"faculty" json:"faculty"`
	Day         string    `db:"day" json:"day"`
	Slot        string    `db:"slot" json:"slot"`
	Room        string    `db:"room" json:"room"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TimetableMeta is the JSON payload stored alongside a timetable version.
type TimetableMeta struct {
	Seed     int64    `json:"seed"`
	Attempts int      `json:"attempts"`
	Workers  int      `json:"workers"`
	Unplaced []string `json:"unplaced,omitempty"`
}
