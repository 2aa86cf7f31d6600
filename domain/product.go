package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessAddProduct      = "product added successfully"
	MessageSuccessUpdateProduct   = "product updated successfully"
	MessageSuccessDeleteProduct   = "product deleted successfully"
	MessageSuccessDeleteProducts  = "products deleted successfully"
	MessageSuccessGetProducts     = "products retrieved successfully"
	MessageSuccessGetCategories   = "categories retrieved successfully"
	MessageSuccessAddCategory     = "category added successfully"
	MessageSuccessMarkAsUsed      = "product marked as used"
	MessageSuccessUploadImage     = "product image uploaded successfully"

	MessageFailedAddProduct     = "failed to add product"
	MessageFailedUpdateProduct  = "failed to update product"
	MessageFailedDeleteProduct  = "failed to delete product"
	MessageFailedGetProducts    = "failed to retrieve products"
	MessageFailedGetCategories  = "failed to retrieve categories"
	MessageFailedAddCategory    = "failed to add category"
	MessageFailedMarkAsUsed     = "failed to mark product as used"
	MessageFailedUploadImage    = "failed to upload product image"

	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidExpiryDate = errors.New("invalid expiry date")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrEmptyProductName  = errors.New("product name must not be empty")
	ErrNoProductIDs      = errors.New("no product ids provided")
	ErrRemote            = errors.New("remote store request failed")
)

type (
	// ProductItem is the in-app shape. DaysLeft is derived on every read,
	// either from the days_left view column or computed locally.
	ProductItem struct {
		ID         string    `json:"id"`
		Name       string    `json:"name"`
		Category   string    `json:"category"`
		ExpiryDate time.Time `json:"expiry_date"`
		DaysLeft   int       `json:"days_left"`
		Quantity   int       `json:"quantity"`
		Notes      string    `json:"notes,omitempty"`
		ImageURL   string    `json:"image_url,omitempty"`
		CreatedAt  time.Time `json:"created_at"`
	}

	CreateProductRequest struct {
		Name       string `json:"name" validate:"required"`
		Category   string `json:"category" validate:"required"`
		ExpiryDate string `json:"expiry_date" validate:"required"`
		Quantity   int    `json:"quantity" validate:"omitempty,min=1"`
		Notes      string `json:"notes"`
		ImageURL   string `json:"image_url"`
	}

	// UpdateProductRequest carries partial-update semantics: only non-nil
	// fields are applied.
	UpdateProductRequest struct {
		Name       *string `json:"name" validate:"omitempty,min=1"`
		Category   *string `json:"category" validate:"omitempty,min=1"`
		ExpiryDate *string `json:"expiry_date"`
		Quantity   *int    `json:"quantity" validate:"omitempty,min=1"`
		Notes      *string `json:"notes"`
		ImageURL   *string `json:"image_url"`
	}

	DeleteProductsRequest struct {
		ProductIDs []string `json:"product_ids" validate:"required,min=1,dive,uuid"`
	}

	// MarkAsUsedRequest with a nil QuantityUsed means the entire remaining
	// quantity is used.
	MarkAsUsedRequest struct {
		QuantityUsed *int   `json:"quantity_used" validate:"omitempty,min=1"`
		UsageNotes   string `json:"usage_notes"`
	}

	AddCategoryRequest struct {
		Name string `json:"name" validate:"required,min=1"`
	}
)

// RemoteError wraps a failure of the underlying store and carries the
// backend's message for the caller to surface.
type RemoteError struct {
	Op      string
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return "remote " + e.Op + ": " + e.Message
	}
	return "remote " + e.Op + ": " + e.Err.Error()
}

func (e *RemoteError) Unwrap() error { return e.Err }

func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

func NewRemoteError(op string, err error) *RemoteError {
	return &RemoteError{Op: op, Message: err.Error(), Err: err}
}
