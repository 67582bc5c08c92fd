package repositories

import (
	"context"
	"time"

	"loantracker/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// sessionRepository implements SessionRepository interface
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create creates a new session
func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetValid gets an unexpired session whose owner is still active
func (r *sessionRepository) GetValid(ctx context.Context, tokenHash string, now time.Time) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).
		Joins("JOIN users ON users.id = sessions.user_id").
		Where("sessions.id = ?", tokenHash).
		Where("sessions.expires_at > ?", now).
		Where("users.is_active = ?", true).
		Preload("User").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete deletes a session; deleting a missing session is not an error
func (r *sessionRepository) Delete(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", tokenHash).
		Delete(&models.Session{}).Error
}

// DeleteByUserID deletes every session of a user
func (r *sessionRepository) DeleteByUserID(ctx context.Context, userID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.Session{})
	return result.RowsAffected, result.Error
}

// DeleteExpired deletes all expired sessions (cleanup job)
func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.Session{})
	return result.RowsAffected, result.Error
}
