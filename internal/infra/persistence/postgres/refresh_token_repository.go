package postgres

import (
	"context"

	"authd/internal/domain/entity"
	"authd/internal/domain/repository"
	"authd/internal/duration"
	"authd/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// refreshTokenRepository implements the domain.RefreshTokenRepository interface.
type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository is the constructor for refreshTokenRepository.
func NewRefreshTokenRepository(db *gorm.DB) repository.RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// Create persists a new session with a fresh opaque token value and an
// absolute expiry computed from the ttl duration string.
func (repo *refreshTokenRepository) Create(ctx context.Context, userID uuid.UUID, ttl string) (*entity.RefreshToken, error) {
	expiresAt, err := duration.Parse(ttl)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute refresh token expiry")
	}

	tokenM := &model.RefreshTokenModel{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     uuid.NewString(),
		ExpiresAt: expiresAt,
	}

	if err := repo.db.WithContext(ctx).Create(tokenM).Error; err != nil {
		return nil, errors.Wrap(err, "failed to create refresh token")
	}

	return toRefreshTokenDomain(tokenM), nil
}

// FindByToken retrieves a session by its opaque token value. Expiry is not
// checked here; callers own the expiry decision.
func (repo *refreshTokenRepository) FindByToken(ctx context.Context, token string) (*entity.RefreshToken, error) {
	var tokenM model.RefreshTokenModel
	if err := repo.db.WithContext(ctx).
		Where("token = ?", token).
		First(&tokenM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRefreshTokenNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toRefreshTokenDomain(&tokenM), nil
}

// Rotate replaces the session's token value in place, keyed by the row id.
// With slide set, the expiry is recomputed from now; otherwise the stored
// expiry is carried over unchanged.
func (repo *refreshTokenRepository) Rotate(ctx context.Context, existing *entity.RefreshToken, slide bool, ttl string) (*entity.RefreshToken, error) {
	expiresAt := existing.ExpiresAt
	if slide {
		slid, err := duration.Parse(ttl)
		if err != nil {
			return nil, errors.Wrap(err, "failed to compute refresh token expiry")
		}
		expiresAt = slid
	}

	newToken := uuid.NewString()

	result := repo.db.WithContext(ctx).
		Model(&model.RefreshTokenModel{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"token":      newToken,
			"expires_at": expiresAt,
		})
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to rotate refresh token")
	}
	if result.RowsAffected == 0 {
		return nil, repository.ErrRefreshTokenNotFound
	}

	return &entity.RefreshToken{
		ID:        existing.ID,
		UserID:    existing.UserID,
		Token:     newToken,
		ExpiresAt: expiresAt,
		CreatedAt: existing.CreatedAt,
	}, nil
}

// Revoke deletes the session with the given token value.
func (repo *refreshTokenRepository) Revoke(ctx context.Context, token string) error {
	result := repo.db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&model.RefreshTokenModel{})

	if result.Error != nil {
		return errors.WithStack(result.Error)
	}

	if result.RowsAffected == 0 {
		return repository.ErrRefreshTokenNotFound
	}

	return nil
}

// --- Mapper Functions ---

// toRefreshTokenDomain converts a GORM RefreshTokenModel to a domain RefreshToken entity.
func toRefreshTokenDomain(data *model.RefreshTokenModel) *entity.RefreshToken {
	if data == nil {
		return nil
	}

	return &entity.RefreshToken{
		ID:        data.ID,
		UserID:    data.UserID,
		Token:     data.Token,
		ExpiresAt: data.ExpiresAt,
		CreatedAt: data.CreatedAt,
	}
}
