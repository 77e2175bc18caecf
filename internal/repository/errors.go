package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrHandshakeExists   = errors.New("repository: handshake state already exists")
	ErrHandshakeNotFound = errors.New("repository: handshake not found or expired")
	ErrHandshakeConsumed = errors.New("repository: handshake already consumed")
	ErrProfileNotFound   = errors.New("repository: profile not found")
	ErrDuplicateAccount  = errors.New("repository: social account already linked")
	ErrAccountNotFound   = errors.New("repository: social account not found")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func pqErrorCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
