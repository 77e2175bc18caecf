package repository

import (
	"context"
	"database/sql"
	"log/slog"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/maheshrc27/social-link-api/internal/models"
)

// SocialAccountRepository persists linked accounts. (platform, platform_id)
// is unique across all profiles; Create reports a violation as
// ErrDuplicateAccount and an unknown profile as ErrProfileNotFound.
type SocialAccountRepository interface {
	Create(ctx context.Context, sa *models.SocialAccount) (*models.SocialAccount, error)
	GetByID(ctx context.Context, id string) (*models.SocialAccount, error)
	GetByPlatformID(ctx context.Context, platform models.Platform, platformID string) (*models.SocialAccount, error)
	ListByProfileID(ctx context.Context, profileID string) ([]*models.SocialAccount, error)
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
}

type socialAccountRepository struct {
	db *sql.DB
}

func NewSocialAccountRepository(db *sql.DB) SocialAccountRepository {
	return &socialAccountRepository{db: db}
}

const socialAccountColumns = `
	id,
	profile_id,
	platform,
	platform_id,
	username,
	display_name,
	avatar_url,
	profile_url,
	follower_count,
	following_count,
	post_count,
	engagement_rate,
	verified,
	last_synced_at,
	created_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSocialAccount(row rowScanner) (*models.SocialAccount, error) {
	var sa models.SocialAccount
	err := row.Scan(&sa.ID, &sa.ProfileID, &sa.Platform, &sa.PlatformID, &sa.Username,
		&sa.DisplayName, &sa.AvatarURL, &sa.ProfileURL, &sa.FollowerCount, &sa.FollowingCount,
		&sa.PostCount, &sa.EngagementRate, &sa.Verified, &sa.LastSyncedAt, &sa.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sa, nil
}

func (r *socialAccountRepository) Create(ctx context.Context, sa *models.SocialAccount) (*models.SocialAccount, error) {
	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	insertQuery := `
		INSERT INTO social_accounts (` + socialAccountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + socialAccountColumns

	created, err := scanSocialAccount(r.db.QueryRowContext(ctx, insertQuery,
		id,
		sa.ProfileID,
		sa.Platform,
		sa.PlatformID,
		sa.Username,
		sa.DisplayName,
		sa.AvatarURL,
		sa.ProfileURL,
		sa.FollowerCount,
		sa.FollowingCount,
		sa.PostCount,
		sa.EngagementRate,
		sa.Verified,
		sa.LastSyncedAt,
		sa.CreatedAt,
	))
	if err != nil {
		switch pqErrorCode(err) {
		case pqUniqueViolation:
			return nil, ErrDuplicateAccount
		case pqForeignKeyViolation:
			return nil, ErrProfileNotFound
		}
		slog.Info(err.Error())
		return nil, err
	}

	return created, nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, id string) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE id = $1`

	sa, err := scanSocialAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sa, nil
}

func (r *socialAccountRepository) GetByPlatformID(ctx context.Context, platform models.Platform, platformID string) (*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE platform = $1 AND platform_id = $2`

	sa, err := scanSocialAccount(r.db.QueryRowContext(ctx, query, platform, platformID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return sa, nil
}

func (r *socialAccountRepository) ListByProfileID(ctx context.Context, profileID string) ([]*models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + `
		FROM social_accounts
		WHERE profile_id = $1
		ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, profileID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		sa, err := scanSocialAccount(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, sa)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return accounts, nil
}

func (r *socialAccountRepository) UpdateAvatar(ctx context.Context, id, avatarURL string) error {
	query := `UPDATE social_accounts SET avatar_url = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, avatarURL)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return ErrAccountNotFound
	}
	return nil
}
