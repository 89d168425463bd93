package models

import "time"

// Course belongs to exactly one student.
type Course struct {
	ID         string    `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	CourseCode *string   `db:"course_code" json:"courseCode,omitempty"`
	StudentID  string    `db:"student_id" json:"studentId"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
