package user

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/specedu/caseboard/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	rolesTag  = "roles"
	rolesText = "invalid roles"

	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "only alphanumeric characters and underscores are allowed"
	alphaNumUnderRegex = regexp.MustCompile(`^\w+$`)

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
	pwdAttrSimText = "password cannot be similar to user attributes"
)

// InitValidators registers the user validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	_ = validate.RegisterValidation(rolesTag, rolesValidation)
	core.RegisterCustomTranslation(validate, translator, rolesTag, rolesText)

	_ = validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	core.RegisterCustomTranslation(validate, translator, alphaNumUnderTag, alphaNumUnderText)

	validate.RegisterStructValidation(userStructValidation, NewUser{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// Validate cleans and validates the NewUser.
func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Username = core.CleanString(nu.Username)
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	return validate.Struct(nu)
}

// SplitRoles parses a comma separated list of roles, dropping blanks.
func SplitRoles(s string) []string {
	parts := strings.Split(s, ",")
	roles := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = core.CleanString(p, true); p != "" {
			roles = append(roles, p)
		}
	}
	return roles
}

// Custom Validators

func roleValidation(fl validator.FieldLevel) bool {
	return IsValidRole(fl.Field().String())
}

// rolesValidation accepts a slice of roles or a comma separated string of roles.
func rolesValidation(fl validator.FieldLevel) bool {
	var roles []string
	field := fl.Field()
	switch field.Kind() {
	case reflect.String:
		roles = SplitRoles(field.String())
	case reflect.Slice:
		for i := 0; i < field.Len(); i++ {
			elem := field.Index(i)
			if elem.Kind() != reflect.String {
				return false
			}
			roles = append(roles, core.CleanString(elem.String(), true))
		}
	default:
		return false
	}
	for _, role := range roles {
		if !IsValidRole(role) {
			return false
		}
	}
	return true
}

func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

// userStructValidation applies the password policy to NewUser.
func userStructValidation(sl validator.StructLevel) {
	if nu, ok := sl.Current().Interface().(NewUser); ok {
		validatePassword(nu.Password, nu.Name, nu.Username, nu.Email, sl)
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - no all numeric
// - no user attrs similarity
func validatePassword(pwd, name, uname, email string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	var digitCount int

	// - minLen: 8
	runes := []rune(pwd)
	if len(runes) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}
	for _, char := range runes {
		// - no whitespace
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
	}

	// - not all numeric
	if digitCount == len(runes) {
		reportErr(pwdNotAllNumTag)
		return
	}

	// - no user attrs similarity
	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(strings.ToLower(pass), ""), strings.Split(strings.ToLower(usrAttr), "")).QuickRatio()
	}
	if getRatio(pwd, name) >= pwdMaxSim ||
		getRatio(pwd, uname) >= pwdMaxSim ||
		getRatio(pwd, email) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
		return
	}
}
