package notification

import (
	"context"
	"errors"
	"time"

	"WasteGuard-Backend/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	NotificationRepository interface {
		ClaimAlert(ctx context.Context, userID string, now time.Time, cooldown time.Duration) (bool, error)
		RegisterDeviceToken(ctx context.Context, token *entities.DeviceToken) error
		GetDeviceTokens(ctx context.Context, userID string) ([]*entities.DeviceToken, error)
		GetAlertableUserIDs(ctx context.Context) ([]string, error)
		GetUserEmail(ctx context.Context, userID string) (string, error)
	}

	notificationRepository struct {
		db *gorm.DB
	}
)

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// ClaimAlert advances the user's cooldown clock to now, but only when the
// previous alert is at least a full cooldown old. The conditional upsert
// is a single statement, so concurrent evaluation passes cannot both
// claim the same window; exactly one caller sees true.
func (r *notificationRepository) ClaimAlert(ctx context.Context, userID string, now time.Time, cooldown time.Duration) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		INSERT INTO alert_states (id, user_id, last_alert_time, created_at, updated_at)
		VALUES (uuid_generate_v4(), ?, ?, now(), now())
		ON CONFLICT (user_id) DO UPDATE
		SET last_alert_time = EXCLUDED.last_alert_time, updated_at = now()
		WHERE alert_states.last_alert_time <= ?`,
		userID, now, now.Add(-cooldown))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *notificationRepository) RegisterDeviceToken(ctx context.Context, token *entities.DeviceToken) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "updated_at"}),
		}).
		Create(token).Error
}

func (r *notificationRepository) GetDeviceTokens(ctx context.Context, userID string) ([]*entities.DeviceToken, error) {
	var tokens []*entities.DeviceToken
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}

// GetAlertableUserIDs lists users the recurring sweep should evaluate:
// anyone holding a product inside the expiring window. Delivery channel
// does not matter here; token-less users are still reached by email.
func (r *notificationRepository) GetAlertableUserIDs(ctx context.Context) ([]string, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&entities.ProductWithDaysLeft{}).
		Where("days_left <= ?", ExpiringWindowDays).
		Distinct().Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out, nil
}

func (r *notificationRepository) GetUserEmail(ctx context.Context, userID string) (string, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Select("email").Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return user.Email, nil
}
