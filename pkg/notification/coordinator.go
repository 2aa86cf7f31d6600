package notification

import (
	"context"
	"time"

	"WasteGuard-Backend/domain"
	"WasteGuard-Backend/entities"
	"WasteGuard-Backend/pkg/logger"
	"WasteGuard-Backend/pkg/product"

	"github.com/google/uuid"
)

const (
	// AlertCooldown is the minimum gap between two alerts to the same
	// user, across all trigger paths and process restarts.
	AlertCooldown = 3 * time.Hour

	// InitialCheckDelay postpones the first sweep after startup so the
	// app is fully wired before any alert goes out.
	InitialCheckDelay = 5 * time.Second

	// SweepInterval drives the recurring background check.
	SweepInterval = 6 * time.Hour

	// ExpiringWindowDays is how far ahead a product counts as expiring
	// soon. A non-positive days-left value counts as expired instead.
	ExpiringWindowDays = 3
)

type (
	// ExpiryCoordinator decides when to alert a user about expired and
	// expiring products. All trigger paths share one cooldown clock per
	// user, persisted so restarts cannot repeat a recent alert.
	ExpiryCoordinator interface {
		HandleAppState(ctx context.Context, userID, state string) (domain.ExpiryCheckResponse, error)
		CheckNow(ctx context.Context, userID string) (domain.ExpiryCheckResponse, error)
		CleanupExpired(ctx context.Context, userID string) (domain.CleanupResponse, error)
		RegisterDevice(ctx context.Context, userID string, req domain.RegisterDeviceRequest) error
		Start(ctx context.Context)
	}

	expiryCoordinator struct {
		repo     NotificationRepository
		products product.ProductService
		push     PushSender
		mailer   Mailer
		now      func() time.Time
	}
)

func NewExpiryCoordinator(repo NotificationRepository, products product.ProductService, push PushSender, mailer Mailer) ExpiryCoordinator {
	return &expiryCoordinator{
		repo:     repo,
		products: products,
		push:     push,
		mailer:   mailer,
		now:      time.Now,
	}
}

// Start runs the delayed startup check and the recurring sweep until
// ctx is cancelled.
func (c *expiryCoordinator) Start(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(InitialCheckDelay):
			c.sweep(ctx)
		}

		ticker := time.NewTicker(SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep(ctx)
			}
		}
	}()
}

func (c *expiryCoordinator) sweep(ctx context.Context) {
	userIDs, err := c.repo.GetAlertableUserIDs(ctx)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("expiry sweep: failed to list users")
		return
	}
	for _, userID := range userIDs {
		if _, err := c.CheckNow(ctx, userID); err != nil {
			logger.Logger.Error().Err(err).Str("user_id", userID).
				Msg("expiry sweep: check failed")
		}
	}
}

// HandleAppState runs an expiry check on a foreground or background
// transition. Both transitions evaluate; the shared cooldown decides
// whether anything is actually sent.
func (c *expiryCoordinator) HandleAppState(ctx context.Context, userID, state string) (domain.ExpiryCheckResponse, error) {
	if state != domain.AppStateForeground && state != domain.AppStateBackground {
		return domain.ExpiryCheckResponse{}, domain.ErrInvalidAppState
	}
	return c.CheckNow(ctx, userID)
}

func (c *expiryCoordinator) CheckNow(ctx context.Context, userID string) (domain.ExpiryCheckResponse, error) {
	expired, expiring, err := c.classify(ctx, userID)
	if err != nil {
		return domain.ExpiryCheckResponse{}, err
	}

	resp := domain.ExpiryCheckResponse{
		ExpiredCount:  len(expired),
		ExpiringCount: len(expiring),
		OfferCleanup:  len(expired) > 0,
	}
	if resp.ExpiredCount == 0 && resp.ExpiringCount == 0 {
		return resp, nil
	}

	// Charge the cooldown before delivering. The claim is atomic, so
	// racing evaluation passes (check endpoint, app-state hook, sweep)
	// cannot each send an alert for the same window.
	claimed, err := c.repo.ClaimAlert(ctx, userID, c.now(), AlertCooldown)
	if err != nil {
		return domain.ExpiryCheckResponse{}, err
	}
	if !claimed {
		return resp, nil
	}

	title, body := composeAlert(resp.ExpiredCount, resp.ExpiringCount)
	c.deliver(ctx, userID, title, body)

	resp.Alerted = true
	resp.Title = title
	resp.Body = body
	return resp, nil
}

// classify splits the user's near-expiry products into expired and
// expiring-soon. The sets are disjoint; zero days left means expired.
func (c *expiryCoordinator) classify(ctx context.Context, userID string) (expired, expiring []domain.ProductItem, err error) {
	items, err := c.products.GetExpiringSoonProducts(ctx, userID, ExpiringWindowDays)
	if err != nil {
		return nil, nil, err
	}
	for _, item := range items {
		if item.DaysLeft <= 0 {
			expired = append(expired, item)
		} else {
			expiring = append(expiring, item)
		}
	}
	return expired, expiring, nil
}

// deliver fans the alert out to every registered device and to the
// user's email. Delivery failures are logged, never surfaced; the
// cooldown is charged beforehand so a flaky channel cannot cause a
// burst of repeats.
func (c *expiryCoordinator) deliver(ctx context.Context, userID, title, body string) {
	tokens, err := c.repo.GetDeviceTokens(ctx, userID)
	if err != nil {
		logger.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to load device tokens")
	} else {
		raw := make([]string, 0, len(tokens))
		for _, t := range tokens {
			raw = append(raw, t.Token)
		}
		if err := c.push.Send(ctx, raw, title, body, map[string]string{"screen": "expiring"}); err != nil {
			logger.Logger.Error().Err(err).Str("user_id", userID).Msg("push delivery failed")
		}
	}

	email, err := c.repo.GetUserEmail(ctx, userID)
	if err != nil {
		logger.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to load user email")
		return
	}
	if email == "" {
		return
	}
	if err := c.mailer.SendExpiryAlert(email, title, body); err != nil {
		logger.Logger.Error().Err(err).Str("user_id", userID).Msg("email delivery failed")
	}
}

// CleanupExpired bulk-deletes every expired product through the normal
// delete path, so images are removed and change events published.
func (c *expiryCoordinator) CleanupExpired(ctx context.Context, userID string) (domain.CleanupResponse, error) {
	expired, _, err := c.classify(ctx, userID)
	if err != nil {
		return domain.CleanupResponse{}, err
	}
	if len(expired) == 0 {
		return domain.CleanupResponse{}, nil
	}

	ids := make([]string, 0, len(expired))
	for _, item := range expired {
		ids = append(ids, item.ID)
	}
	if err := c.products.DeleteProducts(ctx, ids, userID); err != nil {
		return domain.CleanupResponse{}, err
	}

	logger.Logger.Info().Str("user_id", userID).Int("deleted", len(ids)).
		Msg("expired products cleaned up")
	return domain.CleanupResponse{DeletedCount: len(ids)}, nil
}

func (c *expiryCoordinator) RegisterDevice(ctx context.Context, userID string, req domain.RegisterDeviceRequest) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}
	return c.repo.RegisterDeviceToken(ctx, &entities.DeviceToken{
		UserID:   uid,
		Token:    req.Token,
		Platform: req.Platform,
	})
}
