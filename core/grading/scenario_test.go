package grading_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roeiles/voortgang/core/grading"
	"github.com/roeiles/voortgang/core/session"
	"github.com/roeiles/voortgang/core/user"
	"github.com/roeiles/voortgang/testutil"
)

func TestScenario_gradeNewStudent(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	teacher := testutil.CreateTeacher(t, env.UserRepo, "Tom", "tom")

	jan, err := env.UserSvc.Create(ctx, user.NewUser{
		Username: "jan",
		Name:     "Jan",
		Password: "RiemenInHetWater",
		Role:     user.RoleStudent,
		Group:    user.GroupDiza,
	})
	require.NoError(t, err)

	g, err := env.GradingSvc.AddGrade(ctx, grading.NewGrade{
		StudentID: jan.ID,
		SubjectID: bootbehandeling,
		Grade:     grading.GradeExcellent,
		TeacherID: teacher.ID,
		Feedback:  "Goed",
	})
	require.NoError(t, err)

	latest, err := env.GradingSvc.LatestGrades(ctx, jan.ID, bootbehandeling, 1)
	require.NoError(t, err)
	assert.Equal(t, []grading.Grade{g}, latest)

	avg, err := env.GradingSvc.AverageGrade(ctx, jan.ID, bootbehandeling)
	require.NoError(t, err)
	assert.Equal(t, 3.0, avg)

	sess, err := env.SessionSvc.Login(ctx, "jan", "RiemenInHetWater")
	require.NoError(t, err)
	assert.NoError(t, session.StudentDashboard.Authorize(&sess))
	assert.Equal(t, session.ErrForbidden, session.AdminPanel.Authorize(&sess))
}

func TestScenario_disableGradedSubject(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.grade(t, bootbehandeling, 2)
	_, err := f.env.SubjectSvc.ToggleActive(ctx, bootbehandeling, false)
	require.NoError(t, err)

	form, err := f.svc.GradingForm(ctx, f.student.ID)
	require.NoError(t, err)
	for _, fs := range form.Categories[0].Subjects {
		assert.NotEqual(t, bootbehandeling, fs.Subject.ID, "not gradable")
	}

	ov, err := f.svc.StudentOverview(ctx, f.student.ID)
	require.NoError(t, err)
	boot := findSubject(t, ov.Categories[0].Subjects, bootbehandeling)
	assert.False(t, boot.Subject.Active)
	assert.Equal(t, []int{2}, gradeValues(boot.Grades), "history stays visible")

	_, err = f.svc.AddGrade(ctx, grading.NewGrade{StudentID: f.student.ID, SubjectID: bootbehandeling, Grade: 3, TeacherID: f.teacher.ID})
	assert.Error(t, err)
}
