package user

import (
	"errors"
	"time"
)

// Gender is the closed set of genders a record may carry.
type Gender string

const (
	GenderMale      Gender = "Male"
	GenderFemale    Gender = "Female"
	GenderNonBinary Gender = "Non-Binary"
)

// Status is the activity state of a record.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// Genders lists every valid Gender.
var Genders = []Gender{GenderMale, GenderFemale, GenderNonBinary}

// Statuses lists every valid Status.
var Statuses = []Status{StatusActive, StatusInactive}

// Repository errors. Storage adapters translate driver errors into these.
var (
	ErrNotFound             = errors.New("user not found")
	ErrDuplicateFingerprint = errors.New("user fingerprint already exists")
)

// User represents a directory record.
type User struct {
	ID          string // ID is the textual UUID assigned at creation
	FirstName   string
	LastName    string
	Email       string
	Gender      Gender
	Status      Status
	Fingerprint string // Fingerprint is the uniqueness token derived from BusinessFields
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BusinessFields returns the fields covered by the fingerprint, keyed by their
// wire names. Status is not included: records differing only in
// status are duplicates.
func (u *User) BusinessFields() map[string]string {
	return map[string]string{
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"email":      u.Email,
		"gender":     string(u.Gender),
	}
}
