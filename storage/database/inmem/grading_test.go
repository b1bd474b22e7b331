package inmemdb_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roeiles/voortgang/core/grading"
	inmemdb "github.com/roeiles/voortgang/storage/database/inmem"
)

func TestGradingRepository_QueryGrades(t *testing.T) {
	db, err := inmemdb.Open()
	require.NoError(t, err)
	repo := inmemdb.NewGradingRepository(db)
	ctx := context.Background()

	day := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	rows := []grading.Grade{
		{StudentID: "s1", SubjectID: 1, Grade: 1, Date: day},
		{StudentID: "s1", SubjectID: 1, Grade: 2, Date: day.Add(time.Hour)},
		{StudentID: "s1", SubjectID: 1, Grade: 3, Date: day}, // same date as the first
		{StudentID: "s1", SubjectID: 2, Grade: 3, Date: day},
		{StudentID: "s2", SubjectID: 1, Grade: 3, Date: day},
	}
	for _, g := range rows {
		_, err = repo.CreateGrade(ctx, g)
		require.NoError(t, err)
	}

	values := func(grades []grading.Grade) []int {
		vals := make([]int, len(grades))
		for i, g := range grades {
			vals[i] = g.Grade
		}
		return vals
	}

	tests := []struct {
		name   string
		filter grading.GradeFilter
		want   []int
	}{
		{name: "pair", filter: grading.GradeFilter{StudentID: "s1", SubjectID: 1}, want: []int{2, 3, 1}},
		{name: "limited", filter: grading.GradeFilter{StudentID: "s1", SubjectID: 1, Limit: 2}, want: []int{2, 3}},
		{name: "student", filter: grading.GradeFilter{StudentID: "s1"}, want: []int{2, 3, 3, 1}},
		{name: "none", filter: grading.GradeFilter{StudentID: "s3"}, want: []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.QueryGrades(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, values(got))
		})
	}
}

func TestGradingRepository_Completions(t *testing.T) {
	db, err := inmemdb.Open()
	require.NoError(t, err)
	repo := inmemdb.NewGradingRepository(db)
	ctx := context.Background()

	day := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		tc, err := repo.CreateCompletion(ctx, grading.TestCompletion{StudentID: "s1", TestID: 4, Completed: true, Date: day})
		require.NoError(t, err)
		ids = append(ids, tc.ID)
	}

	last, err := repo.QueryCompletions(ctx, grading.CompletionFilter{StudentID: "s1", TestID: 4, CompletedOnly: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, ids[2], last[0].ID, "newest insertion first")

	require.NoError(t, repo.DeleteCompletion(ctx, last[0].ID))
	assert.Error(t, repo.DeleteCompletion(ctx, last[0].ID))

	n, err := repo.CountCompletions(ctx, "s1", 4)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
