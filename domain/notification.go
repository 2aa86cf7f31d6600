package domain

import (
	"errors"
)

var (
	MessageSuccessRegisterDevice = "device registered for push notifications"
	MessageSuccessAppState       = "app state transition processed"
	MessageSuccessExpiryCheck    = "expiry check completed"
	MessageSuccessCleanup        = "expired products cleaned up"

	MessageFailedRegisterDevice = "failed to register device"
	MessageFailedAppState       = "failed to process app state transition"
	MessageFailedExpiryCheck    = "failed to run expiry check"
	MessageFailedCleanup        = "failed to clean up expired products"

	ErrInvalidAppState = errors.New("app state must be foreground or background")
)

const (
	AppStateForeground = "foreground"
	AppStateBackground = "background"
)

type (
	RegisterDeviceRequest struct {
		Token    string `json:"token" validate:"required"`
		Platform string `json:"platform" validate:"required,oneof=ios android"`
	}

	AppStateRequest struct {
		State string `json:"state" validate:"required,oneof=foreground background"`
	}

	// ExpiryCheckResponse reports one evaluation pass of the coordinator.
	// Alerted is false when the cooldown window suppressed the alert or
	// nothing was found. OfferCleanup is set when expired products exist so
	// the client can present the clean-up confirmation.
	ExpiryCheckResponse struct {
		ExpiredCount  int    `json:"expired_count"`
		ExpiringCount int    `json:"expiring_count"`
		Alerted       bool   `json:"alerted"`
		Title         string `json:"title,omitempty"`
		Body          string `json:"body,omitempty"`
		OfferCleanup  bool   `json:"offer_cleanup"`
	}

	CleanupResponse struct {
		DeletedCount int `json:"deleted_count"`
	}
)
