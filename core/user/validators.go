package user

import (
	"fmt"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/roeiles/voortgang/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	groupTag  = "groep"
	groupText = "invalid group"

	groupRequiredTag  = "groep_required"
	groupRequiredText = "a student must belong to a group"

	groupForbiddenTag  = "groep_forbidden"
	groupForbiddenText = "only students belong to a group"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to the username or name"
)

// InitValidators registers the user validations on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(userStructValidation, NewUser{}, UpdateUser{})

	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)
	core.RegisterCustomTranslation(validate, translator, groupTag, groupText)
	core.RegisterCustomTranslation(validate, translator, groupRequiredTag, groupRequiredText)
	core.RegisterCustomTranslation(validate, translator, groupForbiddenTag, groupForbiddenText)
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// userStructValidation does struct level validation on NewUser and UpdateUser structs.
func userStructValidation(sl validator.StructLevel) {
	switch usr := sl.Current().Interface().(type) {
	case NewUser:
		validateRoleAndGroup(usr.Role, usr.Group, sl)
		validatePassword(usr.Password, usr.Username, usr.Name, sl)
	case UpdateUser:
		validateRoleAndGroup(usr.Role, usr.Group, sl)
		if usr.Password != "" {
			validatePassword(usr.Password, usr.Username, usr.Name, sl)
		}
	}
}

// validateRoleAndGroup checks that the role exists and that only students have a group.
func validateRoleAndGroup(role Role, group Group, sl validator.StructLevel) {
	if role == "" {
		return // reported by `required`
	}
	if !role.Valid() {
		sl.ReportError(role, "role", "Role", roleTag, "")
		return
	}
	if _, err := NewProfile(role, group); err != nil {
		var tag string
		switch err {
		case errGroupRequired:
			tag = groupRequiredTag
		case errGroupForbidden:
			tag = groupForbiddenTag
		default:
			tag = groupTag
		}
		sl.ReportError(group, "groep", "Group", tag, "")
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - no all numeric
// - no user attrs similarity
func validatePassword(pwd, uname, name string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	if len(pwd) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}

	var digitCount, charCount int
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
		charCount++
	}
	if digitCount == charCount {
		reportErr(pwdNotAllNumTag)
		return
	}

	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		pass, usrAttr = strings.ToLower(pass), strings.ToLower(usrAttr)
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	if getRatio(pwd, uname) >= pwdMaxSim || getRatio(pwd, name) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
	}
}
