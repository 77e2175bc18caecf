package models

import (
	"regexp"
	"time"
)

const maxProfileIDLength = 64

var profileIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type Profile struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ValidProfileID reports whether id is well-formed. It says nothing about
// whether the profile exists.
func ValidProfileID(id string) bool {
	if id == "" || len(id) > maxProfileIDLength {
		return false
	}
	return profileIDPattern.MatchString(id)
}
