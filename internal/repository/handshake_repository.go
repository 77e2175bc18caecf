package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/maheshrc27/social-link-api/internal/models"
)

// HandshakeRepository is the correlation store for in-flight handshakes.
//
// Create is insert-if-absent and returns ErrHandshakeExists on a state token
// collision. Claim atomically marks the record consumed and returns it; it
// fails with ErrHandshakeNotFound for unknown or expired tokens and with
// ErrHandshakeConsumed when the record was already claimed.
type HandshakeRepository interface {
	Create(ctx context.Context, rec *models.HandshakeRecord) error
	Claim(ctx context.Context, stateToken string, now time.Time) (*models.HandshakeRecord, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type handshakeRepository struct {
	db *sql.DB
}

func NewHandshakeRepository(db *sql.DB) HandshakeRepository {
	return &handshakeRepository{db: db}
}

func (r *handshakeRepository) Create(ctx context.Context, rec *models.HandshakeRecord) error {
	query := `
		INSERT INTO handshake_records (
			state_token,
			platform,
			profile_id,
			proof_verifier,
			created_at,
			expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (state_token) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		rec.StateToken,
		rec.Platform,
		rec.ProfileID,
		sql.NullString{String: rec.ProofVerifier, Valid: rec.ProofVerifier != ""},
		rec.CreatedAt,
		rec.ExpiresAt,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return ErrHandshakeExists
	}

	return nil
}

func (r *handshakeRepository) Claim(ctx context.Context, stateToken string, now time.Time) (*models.HandshakeRecord, error) {
	claimQuery := `
		UPDATE handshake_records
		SET consumed_at = $2
		WHERE state_token = $1
			AND consumed_at IS NULL
			AND expires_at > $2
		RETURNING state_token, platform, profile_id, proof_verifier, created_at, expires_at, consumed_at
	`

	rec, err := scanHandshake(r.db.QueryRowContext(ctx, claimQuery, stateToken, now))
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		slog.Info(err.Error())
		return nil, err
	}

	// Nothing was claimed; find out why.
	var consumedAt sql.NullTime
	var expiresAt time.Time
	err = r.db.QueryRowContext(ctx,
		`SELECT consumed_at, expires_at FROM handshake_records WHERE state_token = $1`,
		stateToken,
	).Scan(&consumedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHandshakeNotFound
	}
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if !now.Before(expiresAt) {
		return nil, ErrHandshakeNotFound
	}
	if consumedAt.Valid {
		return nil, ErrHandshakeConsumed
	}
	return nil, ErrHandshakeNotFound
}

func (r *handshakeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM handshake_records WHERE expires_at <= $1`, now)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return affected, nil
}

func scanHandshake(row *sql.Row) (*models.HandshakeRecord, error) {
	var rec models.HandshakeRecord
	var verifier sql.NullString
	var consumedAt sql.NullTime

	err := row.Scan(&rec.StateToken, &rec.Platform, &rec.ProfileID, &verifier,
		&rec.CreatedAt, &rec.ExpiresAt, &consumedAt)
	if err != nil {
		return nil, err
	}

	rec.ProofVerifier = verifier.String
	if consumedAt.Valid {
		t := consumedAt.Time
		rec.ConsumedAt = &t
	}
	return &rec, nil
}
