package models

import "time"

// Course represents a stored course with its faculty label.
type Course struct {
	Subject   string    `db:"subject" json:"subject"`
	Faculty   string    `db:"faculty" json:"faculty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Enrollment links a student to a course subject.
type Enrollment struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	StudentName string    `db:"student_name" json:"student_name"`
	Subject     string    `db:"subject" json:"subject"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// RosterSummary aggregates roster size for admin views.
type RosterSummary struct {
	Courses     int `json:"courses"`
	Students    int `json:"students"`
	Enrollments int `json:"enrollments"`
}
