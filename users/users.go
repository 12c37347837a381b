package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// RoleType is the school role carried in the access token's roles claim.
type RoleType string

const (
	RoleStudent RoleType = "student" // Own attendance, timetable, assessments, fees
	RoleParent  RoleType = "parent"  // Read-only views of linked students
	RoleFaculty RoleType = "faculty" // Marks attendance and assessments, posts announcements
	RoleAdmin   RoleType = "admin"   // Everything faculty can do, across all classes
)

type User struct {
	ID           string     `json:"id,omitempty"`          // Unique identifier, also the userId claim
	Username     string     `json:"username,omitempty"`    // Login name, e.g. an admission number
	Email        string     `json:"email,omitempty"`       // User's email address
	PasswordHash string     `json:"-"`                     // Hashed password - never serialize
	FirstName    string     `json:"first_name,omitempty"`  // First name of the user
	LastName     string     `json:"last_name,omitempty"`   // Last name of the user
	Roles        []RoleType `json:"roles,omitempty"`       // School roles
	DateJoined   time.Time  `json:"date_joined,omitempty"` // Date and time when the user registered
	LastLogin    time.Time  `json:"last_login,omitempty"`  // Last successful password grant

	Verified bool `json:"verified,omitempty"` // Verified, has the account been confirmed by the school
	Blocked  bool `json:"blocked,omitempty"`  // Blocked, has the user been blocked from logging in
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword checks a password against the user's hash
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}

func (u *User) HasRole(role RoleType) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleNames returns the roles as plain strings for token claims.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, string(r))
	}
	return names
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
