package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/social-link-api/internal/models"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type profileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (id, name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query, profile.ID, profile.Name, profile.CreatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT id, name, created_at FROM profiles WHERE id = $1`

	var profile models.Profile
	err := r.db.QueryRowContext(ctx, query, id).Scan(&profile.ID, &profile.Name, &profile.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepository) Exists(ctx context.Context, id string) (bool, error) {
	query := "SELECT 1 FROM profiles WHERE id = $1"

	var result int
	err := r.db.QueryRowContext(ctx, query, id).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}
