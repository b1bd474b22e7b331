package grading

import (
	"context"
	"sort"
	"strconv"

	"github.com/roeiles/voortgang/core/subject"
)

// GradingInput is what a teacher submits for a student in one go.
type GradingInput struct {
	Grades   map[int]int                 `json:"grades"`   // subject ID -> grade
	Feedback map[subject.Category]string `json:"feedback"` // blank entries are skipped
	Tests    map[int]int                 `json:"tests"`    // test ID -> wanted completion count
}

type SaveFailure struct {
	Kind  string `json:"kind"` // grade | feedback | test
	Ref   string `json:"ref"`
	Error string `json:"error"`
}

// SaveResult reports a SaveGrading. Writes that succeeded stay applied when others fail.
type SaveResult struct {
	Attempted int           `json:"attempted"`
	Succeeded int           `json:"succeeded"`
	Failures  []SaveFailure `json:"failures"`
}

func (r *SaveResult) fail(kind, ref string, err error) {
	r.Failures = append(r.Failures, SaveFailure{Kind: kind, Ref: ref, Error: err.Error()})
}

// SaveGrading issues every write of in independently and reports how many went through.
func (svc *service) SaveGrading(ctx context.Context, teacherID, studentID string, in GradingInput) (SaveResult, error) {
	res := SaveResult{Failures: []SaveFailure{}}
	if _, err := svc.checkStudent(ctx, studentID); err != nil {
		return res, err
	}

	for _, subjectID := range sortedKeys(in.Grades) {
		res.Attempted++
		_, err := svc.AddGrade(ctx, NewGrade{
			StudentID: studentID,
			SubjectID: subjectID,
			Grade:     in.Grades[subjectID],
			TeacherID: teacherID,
		})
		if err != nil {
			res.fail("grade", strconv.Itoa(subjectID), err)
			continue
		}
		res.Succeeded++
	}

	for _, cat := range subject.AllCategories {
		text, ok := in.Feedback[cat]
		if !ok {
			continue
		}
		_, added, err := svc.AddCategoryFeedback(ctx, NewCategoryFeedback{
			StudentID: studentID,
			Category:  cat,
			Feedback:  text,
			TeacherID: teacherID,
		})
		if err == nil && !added {
			continue // blank
		}
		res.Attempted++
		if err != nil {
			res.fail("feedback", string(cat), err)
			continue
		}
		res.Succeeded++
	}
	for cat := range in.Feedback {
		if !cat.Valid() {
			res.Attempted++
			res.fail("feedback", string(cat), subject.ErrInvalidCategory)
		}
	}

	for _, testID := range sortedKeys(in.Tests) {
		target := in.Tests[testID]
		if target < 0 {
			target = 0
		}
		current, err := svc.CompletionCount(ctx, studentID, testID)
		if err != nil {
			res.Attempted++
			res.fail("test", strconv.Itoa(testID), err)
			continue
		}
		diff := target - current
		if diff < 0 {
			diff = -diff
		}
		if diff == 0 {
			continue
		}
		res.Attempted += diff
		applied, err := svc.SetCompletionCount(ctx, studentID, testID, target)
		res.Succeeded += applied
		if err != nil {
			res.fail("test", strconv.Itoa(testID), err)
		}
	}
	return res, nil
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
