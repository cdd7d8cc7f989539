package dto

import "time"

// GenerateTimetableRequest tunes one generation run over the stored roster.
// All fields are optional; zero values fall back to configured defaults.
type GenerateTimetableRequest struct {
	Seed        *int64 `json:"seed"`
	DeadlineMs  int    `json:"deadlineMs" validate:"omitempty,min=1,max=600000"`
	Parallelism int    `json:"parallelism" validate:"omitempty,min=1,max=64"`
	Async       bool   `json:"async"`
}

// TimetableEntryDTO is one placed course in API responses.
type TimetableEntryDTO struct {
	Subject string `json:"subject"`
	Faculty string `json:"faculty"`
	Day     string `json:"day"`
	Slot    string `json:"slot"`
	Room    string `json:"room"`
}

// GenerateTimetableResponse reports the outcome of a generation run.
type GenerateTimetableResponse struct {
	TimetableID string              `json:"timetableId"`
	Version     int                 `json:"version"`
	FullyPlaced bool                `json:"fullyPlaced"`
	Unplaced    []string            `json:"unplaced,omitempty"`
	Attempts    int                 `json:"attempts"`
	Entries     []TimetableEntryDTO `json:"entries"`
}

// GenerationJobStatus describes an asynchronous generation run.
type GenerationJobStatus struct {
	JobID       string     `json:"jobId"`
	State       string     `json:"state"`
	TimetableID string     `json:"timetableId,omitempty"`
	Error       string     `json:"error,omitempty"`
	EnqueuedAt  time.Time  `json:"enqueuedAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}

// WeeklyGrid is the slot-rows by day-columns projection rendered by the
// portal. Cells hold the occupying subject, empty strings mean a free window.
type WeeklyGrid struct {
	Days  []string   `json:"days"`
	Slots []string   `json:"slots"`
	Cells [][]string `json:"cells"`
}

// StudentTimetable is a student's personal view of the published timetable.
type StudentTimetable struct {
	StudentID   string              `json:"studentId"`
	StudentName string              `json:"studentName"`
	TimetableID string              `json:"timetableId"`
	Version     int                 `json:"version"`
	Grid        WeeklyGrid          `json:"grid"`
	Courses     []TimetableEntryDTO `json:"courses"`
}

// RosterImportResponse summarises an ingestion run.
type RosterImportResponse struct {
	Files       int      `json:"files"`
	Courses     int      `json:"courses"`
	Enrollments int      `json:"enrollments"`
	Skipped     []string `json:"skipped,omitempty"`
}
