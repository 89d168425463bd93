package models

import (
	"time"

	"github.com/lib/pq"
)

// Chapter is the join point between a course, its uploaded files and the
// conversations held about it. FileIDs are kept in upload order.
type Chapter struct {
	ID              string         `db:"id" json:"id"`
	Title           string         `db:"title" json:"title"`
	StudentID       string         `db:"student_id" json:"studentId"`
	CourseID        string         `db:"course_id" json:"courseId"`
	FileIDs         pq.StringArray `db:"file_ids" json:"filesIds"`
	ConversationIDs pq.StringArray `db:"conversation_ids" json:"conversations"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
}

// SubjectFilePolicy picks the file a chapter's chat turns are answered against.
type SubjectFilePolicy func(chapter *Chapter) (string, bool)

// FirstUploaded selects the earliest uploaded file of the chapter.
func FirstUploaded(chapter *Chapter) (string, bool) {
	if chapter == nil || len(chapter.FileIDs) == 0 {
		return "", false
	}
	return chapter.FileIDs[0], true
}
