package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/topsell/tams/core"
)

// Roles
const (
	RoleTechnician = "teknisi"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

var AllRoles = []string{RoleTechnician, RoleSupervisor, RoleAdmin}

func ValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Credentials is the authentication identity of a user.
type Credentials struct {
	ID               string     `db:"id"`
	Email            string     `db:"email"`
	PasswordHash     []byte     `db:"password_hash"`
	FullName         string     `db:"full_name"`
	EmailConfirmedAt *time.Time `db:"email_confirmed_at"` // UTC
	CreatedAt        time.Time  `db:"created_at"`         // UTC
	UpdatedAt        time.Time  `db:"updated_at"`         // UTC
	LastLogin        *time.Time `db:"last_login"`         // UTC
}

func (c *Credentials) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.PasswordHash = hash
	return nil
}

func (c *Credentials) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(pwd))
}

func (c *Credentials) Confirm(at time.Time) {
	at = at.UTC()
	c.EmailConfirmedAt = &at
}

func (c *Credentials) IsConfirmed() bool {
	return c.EmailConfirmedAt != nil
}

// User is the public profile of an authenticated user.
type User struct {
	ID        string    `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (u *User) IsAdmin() bool      { return u.Role == RoleAdmin }
func (u *User) IsSupervisor() bool { return u.Role == RoleSupervisor }

// CanReview reports whether u may change the status of maintenance records.
func (u *User) CanReview() bool { return u.IsAdmin() || u.IsSupervisor() }

// RegisterUser contains information needed to self-register a technician.
type RegisterUser struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (ru *RegisterUser) Validate(validate *validator.Validate) error {
	ru.Email = core.CleanString(ru.Email, true /* lower */)
	ru.Name = core.CleanString(ru.Name)

	switch {
	case ru.Email == "" || ru.Password == "":
		return core.NewValidationError(errMissingCredentials)
	case len([]rune(ru.Password)) < pwdMinLen:
		return core.NewValidationError(errPasswordTooShort)
	case validate.Var(ru.Email, "email") != nil:
		return core.NewValidationError(errInvalidEmail)
	}
	return nil
}

// Registration is the outcome of a successful registration.
// Warning is set when the credentials were created but the profile was not.
type Registration struct {
	User    RegisteredUser `json:"user"`
	Warning string         `json:"warning,omitempty"`
}

type RegisteredUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type LoginUser struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (lu *LoginUser) Validate(validate *validator.Validate) error {
	lu.Email = core.CleanString(lu.Email, true /* lower */)
	return validate.Struct(lu)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required,pwdminlen"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

// GetFilter selects credentials by ID or by email.
type GetFilter struct {
	ID    string
	Email string
}
