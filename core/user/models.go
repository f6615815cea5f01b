package user

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/specedu/caseboard/core/sheet"
)

// Roles
const (
	RoleTeacher   = "teacher"
	RoleTherapist = "therapist"
	RoleParents   = "parents"
)

var (
	AllRoles = []string{RoleTeacher, RoleTherapist, RoleParents}

	Roles = []Role{
		{Name: "老師", Value: RoleTeacher},
		{Name: "治療師", Value: RoleTherapist},
		{Name: "家長", Value: RoleParents},
	}

	bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}
)

// IsValidRole reports whether role is one of AllRoles.
func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Identity is who is making a request, as carried by the bearer token.
type Identity struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Name     string `json:"name"`
}

// HasAnyRole reports whether the identity's role is in roles.
func (id Identity) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if strings.EqualFold(r, id.Role) {
			return true
		}
	}
	return false
}

// User is one row of the users table.
type User struct {
	Username string
	Password string // bcrypt hash, or plaintext for rows provisioned by hand
	Role     string
	Name     string
	Email    string
}

func (u User) Identity() Identity {
	return Identity{Username: u.Username, Role: u.Role, Name: u.Name}
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// HasHashedPassword reports whether the stored password is a bcrypt hash.
func (u *User) HasHashedPassword() bool {
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(u.Password, p) {
			return true
		}
	}
	return false
}

// CheckPassword compares pwd with the stored password.
// Plaintext stored values are only accepted when allowPlaintext is set.
func (u *User) CheckPassword(pwd string, allowPlaintext bool) error {
	if u.HasHashedPassword() {
		return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(pwd))
	}
	if !allowPlaintext || u.Password == "" {
		return ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(u.Password), []byte(pwd)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

func (u User) record() sheet.Record {
	return sheet.Record{
		"username": u.Username,
		"password": u.Password,
		"role":     u.Role,
		"name":     u.Name,
		"email":    u.Email,
	}
}

func fromRecord(rec sheet.Record) User {
	return User{
		Username: strings.TrimSpace(rec.Get("username")),
		Password: rec.Get("password"),
		Role:     strings.ToLower(strings.TrimSpace(rec.Get("role"))),
		Name:     rec.Get("name"),
		Email:    strings.TrimSpace(rec.Get("email")),
	}
}

// NewUser is the input for creating or updating a user from the admin CLI.
type NewUser struct {
	Name     string `json:"name" validate:"required,notblank"`
	Username string `json:"username" validate:"required,alphanum_"`
	Email    string `json:"email" validate:"omitempty,email"`
	Role     string `json:"role" validate:"required,role"`
	Password string `json:"password"`
}
