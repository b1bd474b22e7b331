package user

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/roeiles/voortgang/core"
)

type (
	Role  string
	Group string
)

// Roles
const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Groups (groep) a student can belong to.
const (
	GroupDiza Group = "diza"
	GroupDozo Group = "dozo"
	GroupNone Group = "none"
)

var (
	AllRoles  = []Role{RoleStudent, RoleTeacher, RoleAdmin}
	AllGroups = []Group{GroupDiza, GroupDozo, GroupNone}

	errGroupRequired  = errors.New("a student must belong to a group")
	errGroupForbidden = errors.New("only students belong to a group")
	errInvalidRole    = errors.New("invalid role")
	errInvalidGroup   = errors.New("invalid group")
)

func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

func (g Group) Valid() bool {
	for _, group := range AllGroups {
		if g == group {
			return true
		}
	}
	return false
}

// Profile holds what is specific to a User's role.
// Only StudentProfile carries a Group.
type Profile interface {
	Role() Role
	isProfile()
}

type (
	StudentProfile struct{ Group Group }
	TeacherProfile struct{}
	AdminProfile   struct{}
)

func (StudentProfile) Role() Role { return RoleStudent }
func (TeacherProfile) Role() Role { return RoleTeacher }
func (AdminProfile) Role() Role   { return RoleAdmin }

func (StudentProfile) isProfile() {}
func (TeacherProfile) isProfile() {}
func (AdminProfile) isProfile()   {}

// NewProfile builds the Profile matching role, checking the role/group coupling.
func NewProfile(role Role, group Group) (Profile, error) {
	switch role {
	case RoleStudent:
		if group == "" {
			return nil, errGroupRequired
		}
		if !group.Valid() {
			return nil, errInvalidGroup
		}
		return StudentProfile{Group: group}, nil
	case RoleTeacher, RoleAdmin:
		if group != "" {
			return nil, errGroupForbidden
		}
		if role == RoleTeacher {
			return TeacherProfile{}, nil
		}
		return AdminProfile{}, nil
	default:
		return nil, errInvalidRole
	}
}

type User struct {
	ID           string
	Username     string
	Name         string
	Profile      Profile
	PasswordHash []byte
	CreatedAt    time.Time // UTC
	UpdatedAt    time.Time // UTC
	LastLogin    time.Time // UTC
}

func (u User) Role() Role {
	if u.Profile == nil {
		return ""
	}
	return u.Profile.Role()
}

// Group returns the student's group, "" for any other role.
func (u User) Group() Group {
	if sp, ok := u.Profile.(StudentProfile); ok {
		return sp.Group
	}
	return ""
}

func (u User) IsStudent() bool { return u.Role() == RoleStudent }
func (u User) IsTeacher() bool { return u.Role() == RoleTeacher }
func (u User) IsAdmin() bool   { return u.Role() == RoleAdmin }

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

type userJSON struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Group     Group     `json:"groep,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	LastLogin time.Time `json:"last_login"`
}

func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(userJSON{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Role:      u.Role(),
		Group:     u.Group(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		LastLogin: u.LastLogin,
	})
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username string `json:"username" validate:"notblank,max=64"`
	Name     string `json:"name" validate:"notblank,max=128"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"required"`
	Group    Group  `json:"groep"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Name = core.CleanString(nu.Name)
	nu.Group = Group(core.CleanString(string(nu.Group), true /* lower */))
	return validate.Struct(nu)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Blank fields keep their current value; an empty Password leaves the password unchanged.
type UpdateUser struct {
	Username string `json:"username" validate:"notblank,max=64"`
	Name     string `json:"name" validate:"notblank,max=128"`
	Password string `json:"password"`
	Role     Role   `json:"role" validate:"required"`
	Group    Group  `json:"groep"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate) error {
	if uname := core.CleanString(uu.Username, true /* lower */); uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}

	if name := core.CleanString(uu.Name); name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	if uu.Role == "" {
		uu.Role = origUsr.Role()
	}
	uu.Group = Group(core.CleanString(string(uu.Group), true /* lower */))
	if uu.Group == "" && uu.Role == RoleStudent {
		uu.Group = origUsr.Group()
	}

	return validate.Struct(uu)
}

type QueryFilter struct {
	Search string  `query:"search"`
	Roles  []Role  `query:"role"`
	Groups []Group `query:"groep"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.Groups == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter selects a single User; the first non-empty field is used.
type GetFilter struct {
	ID       string
	Username string
}

// OrderingFields lists the fields users can be ordered by.
var OrderingFields = []string{"username", "name", "role", "created_at", "last_login"}
