// Package model holds the entities exchanged with the MediLabo backends.
package model

import (
	"strings"
	"time"
)

// Entity is implemented by every record kept in a collection slice.
type Entity interface {
	EntityID() string
}

// Role is the authority carried by the session token.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Gender as encoded by user-ms.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// Label returns the French display label.
func (g Gender) Label() string {
	switch g {
	case GenderMale:
		return "Homme"
	case GenderFemale:
		return "Femme"
	default:
		return ""
	}
}

// Patient is a record of user-ms /patients.
type Patient struct {
	ID          string `json:"id,omitempty"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      Gender `json:"gender"`
	Email       string `json:"email"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DoctorID    string `json:"doctorId"`
}

func (p Patient) EntityID() string { return p.ID }

// FullName joins first and last name.
func (p Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// User is an account managed by administrators. New accounts get a
// generated password from the user service.
type User struct {
	ID          string `json:"id,omitempty"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      Gender `json:"gender"`
	Email       string `json:"email"`
	Address     string `json:"address,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Role        Role   `json:"role,omitempty"`
}

func (u User) EntityID() string { return u.ID }

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Profile is the connected user as returned by /user/profile.
type Profile = User

// Note is a clinical note from note-ms.
type Note struct {
	ID        string `json:"id,omitempty"`
	PatientID string `json:"patientId"`
	DateTime  string `json:"dateTime,omitempty"`
	Note      string `json:"note"`
}

func (n Note) EntityID() string { return n.ID }

var localDateTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339Nano,
}

// Time parses DateTime, which note-ms serializes without a zone.
// The zero time is returned when it cannot be parsed.
func (n Note) Time() time.Time {
	for _, layout := range localDateTimeLayouts {
		if t, err := time.Parse(layout, n.DateTime); err == nil {
			return t
		}
	}
	return time.Time{}
}

// RiskLevel is the diabetes risk computed by evaluation-ms.
type RiskLevel string

const (
	RiskNone       RiskLevel = "NONE"
	RiskBorderline RiskLevel = "BORDERLINE"
	RiskInDanger   RiskLevel = "IN_DANGER"
	RiskEarlyOnset RiskLevel = "EARLY_ONSET"
)

var riskLabels = map[RiskLevel]string{
	RiskNone:       "Aucun risque",
	RiskBorderline: "Risque borderline",
	RiskInDanger:   "Risque danger",
	RiskEarlyOnset: "Risque précoce",
}

// Label returns the display label, or an empty string for unknown levels.
func (r RiskLevel) Label() string {
	return riskLabels[r]
}

// Credentials is the login form body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body of a successful /auth/login.
type LoginResponse struct {
	Token string `json:"token"`
}

// PasswordChange is the body of /password/update.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Credential is the durable pair read by the session guard.
type Credential struct {
	Token string
	Role  Role
}

// IsZero reports whether no credential is stored.
func (c Credential) IsZero() bool {
	return c.Token == "" && c.Role == ""
}
