package session

import (
	"github.com/pkg/errors"

	"github.com/roeiles/voortgang/core/user"
)

var (
	// errors
	ErrNoSession = errors.New("authentication required")
	ErrForbidden = errors.New("you do not have permission to access this page")
)

// LoginPath is where unauthenticated or refused clients are sent.
const LoginPath = "/"

// Authorize admits sess when its role is one of allowed. No allowed roles admits any session.
func Authorize(sess *Session, allowed ...user.Role) error {
	if sess == nil {
		return ErrNoSession
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, role := range allowed {
		if sess.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

// View is a gated screen of the application.
type View struct {
	Name  string
	Path  string
	Roles []user.Role
}

var (
	StudentDashboard = View{Name: "student", Path: "/student", Roles: []user.Role{user.RoleStudent}}
	TeacherGrading   = View{Name: "teacher", Path: "/teacher", Roles: []user.Role{user.RoleTeacher, user.RoleAdmin}}
	TeacherHistory   = View{Name: "teacher-history", Path: "/teacher/history", Roles: []user.Role{user.RoleTeacher, user.RoleAdmin}}
	AdminPanel       = View{Name: "admin", Path: "/admin", Roles: []user.Role{user.RoleAdmin}}
)

// Authorize checks sess against the roles of v.
func (v View) Authorize(sess *Session) error {
	return Authorize(sess, v.Roles...)
}

// LandingPath returns where a freshly logged-in user of role goes.
func LandingPath(role user.Role) string {
	switch role {
	case user.RoleStudent:
		return StudentDashboard.Path
	case user.RoleTeacher:
		return TeacherGrading.Path
	case user.RoleAdmin:
		return AdminPanel.Path
	default:
		return LoginPath
	}
}
