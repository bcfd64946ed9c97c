package access

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/faithpod/portal/core"
)

type (
	Permission struct {
		ID   int    `json:"id,omitempty"`
		Name string `json:"name"`
	}

	Role struct {
		ID          int          `json:"id"`
		Name        string       `json:"name"`
		Permissions []Permission `json:"permissions,omitempty"`
	}

	// RoleInput creates or updates a Role; Permissions are Permission ids.
	RoleInput struct {
		Name        string `json:"name" validate:"required,max=100"`
		Permissions []int  `json:"permissions" validate:"dive,gt=0"`
	}

	// User is the member behind a session.
	User struct {
		ID               int             `json:"id"`
		MembershipNumber core.FlexString `json:"membership_number,omitempty"`
		FirstName        string          `json:"first_name"`
		MiddleName       string          `json:"middle_name,omitempty"`
		LastName         string          `json:"last_name"`
		Email            string          `json:"email"`
		PhoneNumber      string          `json:"phone_number,omitempty"`
		DateOfBirth      string          `json:"date_of_birth,omitempty"`
		Gender           string          `json:"gender,omitempty"`
		EmailVerifiedAt  *string         `json:"email_verified_at,omitempty"`
		Role             *Role           `json:"role,omitempty"`
	}

	Session struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}

	Credentials struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	Registration struct {
		FirstName       string `json:"first_name" validate:"required,max=100"`
		MiddleName      string `json:"middle_name" validate:"max=100"`
		LastName        string `json:"last_name" validate:"required,max=100"`
		Email           string `json:"email" validate:"required,email"`
		PhoneNumber     string `json:"phone_number" validate:"required,ke_phone"`
		Password        string `json:"password" validate:"required"`
		PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	}

	ProfileUpdate struct {
		FirstName   string `json:"first_name" validate:"required,max=100"`
		MiddleName  string `json:"middle_name" validate:"max=100"`
		LastName    string `json:"last_name" validate:"required,max=100"`
		Email       string `json:"email" validate:"required,email"`
		PhoneNumber string `json:"phone_number" validate:"omitempty,phone"`
		DateOfBirth string `json:"date_of_birth" validate:"omitempty,date"`
		Gender      string `json:"gender" validate:"omitempty,oneof=male female Male Female"`
	}

	PasswordChange struct {
		Password        string `json:"password" validate:"required"`
		PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`

		// used for the similarity policy, never sent
		user User
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	PasswordReset struct {
		Token                string `json:"token" validate:"required"`
		Email                string `json:"email" validate:"required,email"`
		Password             string `json:"password" validate:"required"`
		PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	}
)

func (u User) FullName() string {
	return core.CleanName(strings.Join([]string{u.FirstName, u.MiddleName, u.LastName}, " "))
}

// Permissions returns the names of the permissions granted by the User's role.
func (u User) Permissions() []string {
	if u.Role == nil {
		return []string{}
	}
	names := make([]string, 0, len(u.Role.Permissions))
	for _, p := range u.Role.Permissions {
		names = append(names, p.Name)
	}
	return names
}

func (u User) HasPermission(name string) bool {
	if u.Role == nil {
		return false
	}
	for _, p := range u.Role.Permissions {
		if p.Name == name {
			return true
		}
	}
	return false
}

// Person is how the User shows up in logs.
func (u User) Person() core.Person {
	return core.Person{ID: strconv.Itoa(u.ID), Username: u.FullName(), Email: u.Email}
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	return validate.Struct(c)
}

func (r *Registration) Validate(validate *validator.Validate) error {
	r.FirstName = core.CleanName(r.FirstName)
	r.MiddleName = core.CleanName(r.MiddleName)
	r.LastName = core.CleanName(r.LastName)
	r.Email = core.CleanString(r.Email, true /* lower */)
	r.PhoneNumber = core.NormalizeKenyanPhone(r.PhoneNumber)
	return validate.Struct(r)
}

func (pu *ProfileUpdate) Validate(validate *validator.Validate) error {
	pu.FirstName = core.CleanName(pu.FirstName)
	pu.MiddleName = core.CleanName(pu.MiddleName)
	pu.LastName = core.CleanName(pu.LastName)
	pu.Email = core.CleanString(pu.Email, true /* lower */)
	pu.PhoneNumber = core.CleanPhone(pu.PhoneNumber)
	pu.Gender = core.CleanString(pu.Gender)
	return validate.Struct(pu)
}

// Validate checks pc against the password policy; usr is the User changing their password.
func (pc *PasswordChange) Validate(validate *validator.Validate, usr User) error {
	pc.user = usr
	return validate.Struct(pc)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}

func (pr *PasswordReset) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	pr.Token = core.CleanString(pr.Token)
	return validate.Struct(pr)
}

func (ri *RoleInput) Validate(validate *validator.Validate) error {
	ri.Name = core.CleanName(ri.Name)
	return validate.Struct(ri)
}
