package grading

import (
	"time"

	"github.com/roeiles/voortgang/core/subject"
)

// Grade values
const (
	GradeNeedsImprovement = 1
	GradeSatisfactory     = 2
	GradeExcellent        = 3
)

// AverageWindow is the number of most recent grades a subject average is computed over.
const AverageWindow = 3

// Grade is an append-only assessment of a student on a subject.
type Grade struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	SubjectID int       `json:"subject_id"`
	Grade     int       `json:"grade"`
	TeacherID string    `json:"teacher_id"`
	Feedback  string    `json:"feedback"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// TestCompletion records one completion of a test by a student.
type TestCompletion struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	TestID    int       `json:"test_id"`
	Completed bool      `json:"completed"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryFeedback is narrative feedback on a student for a whole category.
type CategoryFeedback struct {
	ID        string           `json:"id"`
	StudentID string           `json:"student_id"`
	Category  subject.Category `json:"category"`
	Feedback  string           `json:"feedback"`
	TeacherID string           `json:"teacher_id"`
	Date      time.Time        `json:"date"`
	CreatedAt time.Time        `json:"created_at"`
}

type NewGrade struct {
	StudentID string `json:"student_id" validate:"required"`
	SubjectID int    `json:"subject_id" validate:"required"`
	Grade     int    `json:"grade" validate:"min=1,max=3"`
	TeacherID string `json:"teacher_id" validate:"required"`
	Feedback  string `json:"feedback" validate:"max=2000"`
}

type NewCategoryFeedback struct {
	StudentID string           `json:"student_id" validate:"required"`
	Category  subject.Category `json:"category" validate:"required"`
	Feedback  string           `json:"feedback" validate:"max=5000"`
	TeacherID string           `json:"teacher_id" validate:"required"`
}

// Repository filters. Zero fields do not filter; results are ordered newest first
// (date, then insertion) and truncated to Limit when Limit > 0.
type (
	GradeFilter struct {
		StudentID string
		SubjectID int
		Limit     int
	}

	CompletionFilter struct {
		StudentID     string
		TestID        int
		CompletedOnly bool
		Limit         int
	}

	FeedbackFilter struct {
		StudentID string
		Category  subject.Category
		Limit     int
	}
)
