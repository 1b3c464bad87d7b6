package models

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role identifies what an authenticated user is allowed to do.
type Role string

const (
	RoleDirector Role = "Director"
	RoleManager  Role = "Manager"
	RoleSales    Role = "Sales"
)

// IsValidRole reports whether r is a recognised role.
func IsValidRole(r Role) bool {
	return r == RoleDirector || r == RoleManager || r == RoleSales
}

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// User is a system account. PasswordHash is a bcrypt digest and is never
// serialised into responses.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	Branch       Branch             `bson:"branch" json:"branch"`
	Contact      string             `bson:"contact" json:"contact"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Actor is the authenticated principal attached to every request. The core
// trusts it verbatim; credential verification happens at login only.
type Actor struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Branch Branch `json:"branch"`
}

// BranchScoped reports whether the actor only sees records from its own
// branch. Directors see across branches.
func (a Actor) BranchScoped() bool {
	return a.Role != RoleDirector
}

// UserRequest is the payload for creating or updating a user account.
type UserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
	Branch   Branch `json:"branch"`
	Contact  string `json:"contact"`
}

// Validate checks a user payload. Password is only required on creation;
// pass requirePassword=false for updates where the password is optional.
func (r UserRequest) Validate(requirePassword bool) error {
	v := &ValidationError{}

	if len(r.Name) < 3 {
		v.Add("name", "must be at least 3 characters")
	}
	if !emailPattern.MatchString(r.Email) {
		v.Add("email", "must be a valid email address")
	}
	if requirePassword && len(r.Password) < 6 {
		v.Add("password", "must be at least 6 characters")
	}
	if !requirePassword && r.Password != "" && len(r.Password) < 6 {
		v.Add("password", "must be at least 6 characters")
	}
	if !IsValidRole(r.Role) {
		v.Add("role", "must be Director, Manager or Sales")
	}
	if r.Branch != BranchHeadOffice && !IsTradingBranch(r.Branch) {
		v.Add("branch", "must be Head Office, MAGANJO or MATUGGA")
	}
	if !IsValidContact(r.Contact) {
		v.Add("contact", "must be a valid Ugandan phone number")
	}

	if v.HasErrors() {
		return v
	}
	return nil
}
