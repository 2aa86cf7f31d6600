package handlers

import (
	"WasteGuard-Backend/domain"
	"WasteGuard-Backend/internal/api/presenters"
	"WasteGuard-Backend/pkg/productcache"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	ProductHandler interface {
		GetProducts(c *fiber.Ctx) error
		GetExpiringSoonProducts(c *fiber.Ctx) error
		SearchProducts(c *fiber.Ctx) error
		CreateProduct(c *fiber.Ctx) error
		UpdateProduct(c *fiber.Ctx) error
		DeleteProduct(c *fiber.Ctx) error
		DeleteProducts(c *fiber.Ctx) error
		MarkProductAsUsed(c *fiber.Ctx) error
		UploadProductImage(c *fiber.Ctx) error
		GetCategories(c *fiber.Ctx) error
		AddCategory(c *fiber.Ctx) error
		GetUserStatistics(c *fiber.Ctx) error
		GetUserAnalytics(c *fiber.Ctx) error
		GetUsageHistory(c *fiber.Ctx) error
	}

	productHandler struct {
		products  *productcache.Cache
		validator *validator.Validate
	}
)

func NewProductHandler(products *productcache.Cache, validator *validator.Validate) ProductHandler {
	return &productHandler{
		products:  products,
		validator: validator,
	}
}

func productErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrUserNotAllowed):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrProductNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrRemote):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusBadRequest
	}
}

// GetProducts serves the full list, optionally narrowed by a category
// query parameter.
func (h *productHandler) GetProducts(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	var (
		res []domain.ProductItem
		err error
	)
	if category := c.Query("category"); category != "" {
		res, err = h.products.GetProductsByCategory(c.Context(), userID, category)
	} else {
		res, err = h.products.GetProducts(c.Context(), userID)
	}
	if err != nil {
		return presenters.ErrorResponse(c, productErrorStatus(err), domain.MessageFailedGetProducts, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetProducts)
}

func (h *productHandler) GetExpiringSoonProducts(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	withinDays := 3
	if raw := c.Query("within_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedGetProducts, errors.New("within_days must be a non-negative integer"))
		}
		withinDays = parsed
	}

	res, err := h.products.GetExpiringSoonProducts(c.Context(), userID, withinDays)
	if err != nil {
		return presenters.ErrorResponse(c, productErrorStatus(err), domain.MessageFailedGetProducts, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetProducts)
}

func (h *productHandler) SearchProducts(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	query := c.Query("q")
	if query == "" {
		return presenters.SuccessResponse(c, []domain.ProductItem{}, fiber.StatusOK, domain.MessageSuccessGetProducts)
	}

	res, err := h.products.SearchProducts(c.Context(), userID, query)
	if err != nil {
		return presenters.ErrorResponse(c, productErrorStatus(err), domain.MessageFailedGetProducts, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetProducts)
}

func (h *productHandler) CreateProduct(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	req := new(domain.CreateProductRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAddProduct, err)
	}

	res, err := h.products.CreateProduct(c.Context(), *req, userID)
	if err != nil {
		return presenters.ErrorResponse(c, productErrorStatus(err), domain.MessageFailedAddProduct, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessAddProduct)
}

func (h *productHandler) UpdateProduct(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	productID := c.Params("id")
	req := new(domain.UpdateProductRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateProduct, err)
	}

	res, err := h.products.UpdateProduct(c.Context(), productID, *req, userID)
	if err != nil {
		return presenters.ErrorResponse(c, productErrorStatus(err), domain.MessageFailedUpdateProduct, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateProduct)
}

func (h *productHandler) DeleteProduct(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	productID := c.Params("id")

	if err := h.products.DeleteProduct(c.Context(), productID, userID); err != nil {
		return presenters.ErrorResponse(c, productErrorStatus(err), domain.MessageFailedDeleteProduct, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeleteProduct)
}

func (h *productHandler) DeleteProducts(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	req := new(domain.DeleteProductsRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedDeleteProduct, err)
	}

	if err := h.products.DeleteProducts(c.Context(), req.ProductIDs, userID); err != nil {
		return presenters.ErrorResponse(c, productErrorStatus(err), domain.MessageFailedDeleteProduct, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeleteProducts)
}

func (h *productHandler) MarkProductAsUsed(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	productID := c.Params("id")
	req := new(domain.MarkAsUsedRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedMarkAsUsed, err)
	}

	if err := h.products.MarkProductAsUsed(c.Context(), productID, *req, userID); err != nil {
		return presenters.ErrorResponse(c, productErrorStatus(err), domain.MessageFailedMarkAsUsed, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessMarkAsUsed)
}

func (h *productHandler) UploadProductImage(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	productID := c.Params("id")

	file, err := c.FormFile("image")
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUploadImage, err)
	}

	url, err := h.products.UploadProductImage(c.Context(), productID, file, userID)
	if err != nil {
		return presenters.ErrorResponse(c, productErrorStatus(err), domain.MessageFailedUploadImage, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{"image_url": url}, fiber.StatusOK, domain.MessageSuccessUploadImage)
}

func (h *productHandler) GetCategories(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	res, err := h.products.GetCategories(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, productErrorStatus(err), domain.MessageFailedGetCategories, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetCategories)
}

func (h *productHandler) AddCategory(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	req := new(domain.AddCategoryRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedAddCategory, err)
	}

	if err := h.products.AddCategory(c.Context(), req.Name, userID); err != nil {
		return presenters.ErrorResponse(c, productErrorStatus(err), domain.MessageFailedAddCategory, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusCreated, domain.MessageSuccessAddCategory)
}

func (h *productHandler) GetUserStatistics(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	res, err := h.products.GetUserStatistics(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, productErrorStatus(err), domain.MessageFailedGetStatistics, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetStatistics)
}

func (h *productHandler) GetUserAnalytics(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	res, err := h.products.GetUserAnalytics(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, productErrorStatus(err), domain.MessageFailedGetAnalytics, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetAnalytics)
}

func (h *productHandler) GetUsageHistory(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	res, err := h.products.GetUsageHistory(c.Context(), userID)
	if err != nil {
		return presenters.ErrorResponse(c, productErrorStatus(err), domain.MessageFailedGetUsageHistory, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetUsageHistory)
}
