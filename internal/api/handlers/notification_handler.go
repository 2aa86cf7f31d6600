package handlers

import (
	"WasteGuard-Backend/domain"
	"WasteGuard-Backend/internal/api/presenters"
	"WasteGuard-Backend/pkg/notification"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	NotificationHandler interface {
		RegisterDevice(c *fiber.Ctx) error
		AppStateTransition(c *fiber.Ctx) error
		CheckExpiry(c *fiber.Ctx) error
		CleanupExpired(c *fiber.Ctx) error
	}

	notificationHandler struct {
		coordinator notification.ExpiryCoordinator
		validator   *validator.Validate
	}
)

func NewNotificationHandler(coordinator notification.ExpiryCoordinator, validator *validator.Validate) NotificationHandler {
	return &notificationHandler{
		coordinator: coordinator,
		validator:   validator,
	}
}

func (h *notificationHandler) RegisterDevice(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	req := new(domain.RegisterDeviceRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRegisterDevice, err)
	}

	if err := h.coordinator.RegisterDevice(c.Context(), userID, *req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRegisterDevice, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusCreated, domain.MessageSuccessRegisterDevice)
}

func (h *notificationHandler) AppStateTransition(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	req := new(domain.AppStateRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAppState, err)
	}

	res, err := h.coordinator.HandleAppState(c.Context(), userID, req.State)
	if err != nil {
		status := fiber.StatusBadRequest
		if errors.Is(err, domain.ErrRemote) {
			status = fiber.StatusBadGateway
		}
		return presenters.ErrorResponse(c, status, domain.MessageFailedAppState, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessAppState)
}

func (h *notificationHandler) CheckExpiry(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	res, err := h.coordinator.CheckNow(c.Context(), userID)
	if err != nil {
		status := fiber.StatusBadRequest
		if errors.Is(err, domain.ErrRemote) {
			status = fiber.StatusBadGateway
		}
		return presenters.ErrorResponse(c, status, domain.MessageFailedExpiryCheck, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessExpiryCheck)
}

func (h *notificationHandler) CleanupExpired(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	res, err := h.coordinator.CleanupExpired(c.Context(), userID)
	if err != nil {
		status := fiber.StatusBadRequest
		if errors.Is(err, domain.ErrRemote) {
			status = fiber.StatusBadGateway
		}
		return presenters.ErrorResponse(c, status, domain.MessageFailedCleanup, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessCleanup)
}
