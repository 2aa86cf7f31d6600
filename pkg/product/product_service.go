package product

import (
	"context"
	"errors"
	"mime/multipart"
	"sync"
	"time"

	"WasteGuard-Backend/domain"
	"WasteGuard-Backend/entities"
	"WasteGuard-Backend/internal/utils/storage"
	"WasteGuard-Backend/pkg/events"
	"WasteGuard-Backend/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultCategories is the seed of the open category set; user-created
// categories are merged with it at read time.
var DefaultCategories = []string{
	"Snacks",
	"Beverages",
	"Cosmetics",
	"Dairy",
	"Frozen",
	"Groceries",
	"Pantry",
}

type (
	ProductService interface {
		GetProducts(ctx context.Context, userID string) ([]domain.ProductItem, error)
		GetProductsByCategory(ctx context.Context, userID string, category string) ([]domain.ProductItem, error)
		GetExpiringSoonProducts(ctx context.Context, userID string, withinDays int) ([]domain.ProductItem, error)
		SearchProducts(ctx context.Context, userID string, query string) ([]domain.ProductItem, error)
		CreateProduct(ctx context.Context, req domain.CreateProductRequest, userID string) (domain.ProductItem, error)
		UpdateProduct(ctx context.Context, id string, req domain.UpdateProductRequest, userID string) (domain.ProductItem, error)
		DeleteProduct(ctx context.Context, id string, userID string) error
		DeleteProducts(ctx context.Context, ids []string, userID string) error
		MarkProductAsUsed(ctx context.Context, id string, req domain.MarkAsUsedRequest, userID string) error
		UploadProductImage(ctx context.Context, id string, image *multipart.FileHeader, userID string) (string, error)

		GetCategories(ctx context.Context, userID string) ([]string, error)
		AddCategory(ctx context.Context, name string, userID string) error

		GetUserStatistics(ctx context.Context, userID string) (domain.UserStatisticsResponse, error)
		GetUserAnalytics(ctx context.Context, userID string) (domain.UserAnalyticsResponse, error)
		GetUsageHistory(ctx context.Context, userID string) ([]domain.UsageHistoryItem, error)
	}

	productService struct {
		productRepository ProductRepository
		s3                storage.AwsS3
		publisher         events.Publisher
		now               func() time.Time
	}
)

func NewProductService(productRepository ProductRepository, s3 storage.AwsS3, publisher events.Publisher) ProductService {
	return &productService{
		productRepository: productRepository,
		s3:                s3,
		publisher:         publisher,
		now:               time.Now,
	}
}

func toProductItem(p *entities.ProductWithDaysLeft) domain.ProductItem {
	return domain.ProductItem{
		ID:         p.ID.String(),
		Name:       p.Name,
		Category:   p.Category,
		ExpiryDate: p.ExpiryDate,
		DaysLeft:   p.DaysLeft,
		Quantity:   p.Quantity,
		Notes:      p.Notes,
		ImageURL:   p.ImageURL,
		CreatedAt:  p.CreatedAt,
	}
}

func toProductItems(products []*entities.ProductWithDaysLeft) []domain.ProductItem {
	items := make([]domain.ProductItem, 0, len(products))
	for _, p := range products {
		items = append(items, toProductItem(p))
	}
	return items
}

func (s *productService) GetProducts(ctx context.Context, userID string) ([]domain.ProductItem, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, domain.ErrNotAuthenticated
	}

	products, err := s.productRepository.GetProducts(ctx, userID)
	if err != nil {
		logger.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to fetch products")
		return nil, domain.NewRemoteError("list products", err)
	}

	return toProductItems(products), nil
}

func (s *productService) GetProductsByCategory(ctx context.Context, userID string, category string) ([]domain.ProductItem, error) {
	products, err := s.productRepository.GetProductsByCategory(ctx, userID, category)
	if err != nil {
		logger.Logger.Error().Err(err).Str("user_id", userID).Str("category", category).Msg("failed to fetch products by category")
		return nil, domain.NewRemoteError("list products by category", err)
	}

	return toProductItems(products), nil
}

func (s *productService) GetExpiringSoonProducts(ctx context.Context, userID string, withinDays int) ([]domain.ProductItem, error) {
	products, err := s.productRepository.GetExpiringProducts(ctx, userID, withinDays)
	if err != nil {
		logger.Logger.Error().Err(err).Str("user_id", userID).Int("within_days", withinDays).Msg("failed to fetch expiring products")
		return nil, domain.NewRemoteError("list expiring products", err)
	}

	return toProductItems(products), nil
}

func (s *productService) SearchProducts(ctx context.Context, userID string, query string) ([]domain.ProductItem, error) {
	products, err := s.productRepository.SearchProducts(ctx, userID, query)
	if err != nil {
		logger.Logger.Error().Err(err).Str("user_id", userID).Str("query", query).Msg("failed to search products")
		return nil, domain.NewRemoteError("search products", err)
	}

	return toProductItems(products), nil
}

func (s *productService) CreateProduct(ctx context.Context, req domain.CreateProductRequest, userID string) (domain.ProductItem, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ProductItem{}, domain.ErrNotAuthenticated
	}

	if req.Name == "" {
		return domain.ProductItem{}, domain.ErrEmptyProductName
	}

	expiryDate, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		return domain.ProductItem{}, domain.ErrInvalidExpiryDate
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		return domain.ProductItem{}, domain.ErrInvalidQuantity
	}

	product := &entities.Product{
		ID:         uuid.New(),
		UserID:     userUUID,
		Name:       req.Name,
		Category:   req.Category,
		ExpiryDate: expiryDate,
		Quantity:   quantity,
		Notes:      req.Notes,
		ImageURL:   req.ImageURL,
	}

	if err := s.productRepository.CreateProduct(ctx, product); err != nil {
		logger.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to create product")
		return domain.ProductItem{}, domain.NewRemoteError("create product", err)
	}

	s.publishChange(ctx, events.EventTypeProductCreated, userID, product.ID.String())

	// The insert round-trip does not include the derived view column, so
	// days-left is computed locally for immediate display.
	return domain.ProductItem{
		ID:         product.ID.String(),
		Name:       product.Name,
		Category:   product.Category,
		ExpiryDate: product.ExpiryDate,
		DaysLeft:   DaysLeft(product.ExpiryDate, s.now()),
		Quantity:   product.Quantity,
		Notes:      product.Notes,
		ImageURL:   product.ImageURL,
		CreatedAt:  product.CreatedAt,
	}, nil
}

func (s *productService) getOwnedProduct(ctx context.Context, id string, userID string) (*entities.Product, error) {
	product, err := s.productRepository.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.NewRemoteError("get product", err)
	}

	if product.UserID.String() != userID {
		return nil, domain.ErrUserNotAllowed
	}

	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id string, req domain.UpdateProductRequest, userID string) (domain.ProductItem, error) {
	product, err := s.getOwnedProduct(ctx, id, userID)
	if err != nil {
		return domain.ProductItem{}, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return domain.ProductItem{}, domain.ErrEmptyProductName
		}
		product.Name = *req.Name
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.ExpiryDate != nil {
		expiryDate, err := time.Parse("2006-01-02", *req.ExpiryDate)
		if err != nil {
			return domain.ProductItem{}, domain.ErrInvalidExpiryDate
		}
		product.ExpiryDate = expiryDate
	}
	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return domain.ProductItem{}, domain.ErrInvalidQuantity
		}
		product.Quantity = *req.Quantity
	}
	if req.Notes != nil {
		product.Notes = *req.Notes
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}

	if err := s.productRepository.UpdateProduct(ctx, product); err != nil {
		logger.Logger.Error().Err(err).Str("product_id", id).Msg("failed to update product")
		return domain.ProductItem{}, domain.NewRemoteError("update product", err)
	}

	s.publishChange(ctx, events.EventTypeProductUpdated, userID, id)

	return domain.ProductItem{
		ID:         product.ID.String(),
		Name:       product.Name,
		Category:   product.Category,
		ExpiryDate: product.ExpiryDate,
		DaysLeft:   DaysLeft(product.ExpiryDate, s.now()),
		Quantity:   product.Quantity,
		Notes:      product.Notes,
		ImageURL:   product.ImageURL,
		CreatedAt:  product.CreatedAt,
	}, nil
}

// deleteImageIfOwned removes the stored image behind imageURL when it points
// at the app's own bucket. Failures are logged and swallowed; image cleanup
// must never block a product deletion.
func (s *productService) deleteImageIfOwned(imageURL string) {
	if imageURL == "" {
		return
	}

	objectKey := s.s3.GetObjectKeyFromLink(imageURL)
	if objectKey == "" {
		return
	}

	if err := s.s3.DeleteFile(objectKey); err != nil {
		logger.Logger.Warn().Err(err).Str("object_key", objectKey).Msg("failed to delete product image")
	}
}

func (s *productService) DeleteProduct(ctx context.Context, id string, userID string) error {
	product, err := s.getOwnedProduct(ctx, id, userID)
	if err != nil {
		return err
	}

	s.deleteImageIfOwned(product.ImageURL)

	if err := s.productRepository.DeleteProduct(ctx, id); err != nil {
		logger.Logger.Error().Err(err).Str("product_id", id).Msg("failed to delete product")
		return domain.NewRemoteError("delete product", err)
	}

	s.publishChange(ctx, events.EventTypeProductDeleted, userID, id)
	return nil
}

func (s *productService) DeleteProducts(ctx context.Context, ids []string, userID string) error {
	if len(ids) == 0 {
		return domain.ErrNoProductIDs
	}

	products, err := s.productRepository.GetProductsByIDs(ctx, ids)
	if err != nil {
		logger.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to fetch products for bulk delete")
		return domain.NewRemoteError("bulk delete products", err)
	}

	owned := make([]string, 0, len(products))
	var wg sync.WaitGroup
	for _, p := range products {
		if p.UserID.String() != userID {
			continue
		}
		owned = append(owned, p.ID.String())

		// Image deletions run concurrently and independently; a single
		// failure aborts neither the batch nor the other deletions.
		if p.ImageURL != "" {
			wg.Add(1)
			go func(imageURL string) {
				defer wg.Done()
				s.deleteImageIfOwned(imageURL)
			}(p.ImageURL)
		}
	}
	wg.Wait()

	if len(owned) == 0 {
		return domain.ErrProductNotFound
	}

	if err := s.productRepository.DeleteProducts(ctx, owned); err != nil {
		logger.Logger.Error().Err(err).Int("count", len(owned)).Msg("failed to bulk delete products")
		return domain.NewRemoteError("bulk delete products", err)
	}

	for _, id := range owned {
		s.publishChange(ctx, events.EventTypeProductDeleted, userID, id)
	}
	return nil
}

func (s *productService) MarkProductAsUsed(ctx context.Context, id string, req domain.MarkAsUsedRequest, userID string) error {
	if _, err := s.getOwnedProduct(ctx, id, userID); err != nil {
		return err
	}

	if req.QuantityUsed != nil && *req.QuantityUsed <= 0 {
		return domain.ErrInvalidQuantity
	}

	if err := s.productRepository.MarkProductAsUsed(ctx, id, req.QuantityUsed, req.UsageNotes); err != nil {
		logger.Logger.Error().Err(err).Str("product_id", id).Msg("failed to mark product as used")
		return domain.NewRemoteError("mark product as used", err)
	}

	s.publishChange(ctx, events.EventTypeProductUsed, userID, id)
	return nil
}

func (s *productService) UploadProductImage(ctx context.Context, id string, image *multipart.FileHeader, userID string) (string, error) {
	product, err := s.getOwnedProduct(ctx, id, userID)
	if err != nil {
		return "", err
	}

	objectKey, err := s.s3.UploadFile(userID, image, storage.AllowImage...)
	if err != nil {
		return "", err
	}

	// Replace, then clean up the superseded image best-effort.
	oldImageURL := product.ImageURL
	product.ImageURL = s.s3.GetPublicLinkKey(objectKey)

	if err := s.productRepository.UpdateProduct(ctx, product); err != nil {
		logger.Logger.Error().Err(err).Str("product_id", id).Msg("failed to save product image url")
		return "", domain.NewRemoteError("upload product image", err)
	}

	s.deleteImageIfOwned(oldImageURL)
	s.publishChange(ctx, events.EventTypeProductUpdated, userID, id)

	return product.ImageURL, nil
}

func (s *productService) GetCategories(ctx context.Context, userID string) ([]string, error) {
	used, err := s.productRepository.GetProductCategories(ctx, userID)
	if err != nil {
		logger.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to fetch product categories")
		return nil, domain.NewRemoteError("list categories", err)
	}

	custom, err := s.productRepository.GetCustomCategories(ctx, userID)
	if err != nil {
		logger.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to fetch custom categories")
		return nil, domain.NewRemoteError("list categories", err)
	}

	seen := make(map[string]bool)
	merged := make([]string, 0, len(DefaultCategories)+len(used)+len(custom))
	for _, group := range [][]string{DefaultCategories, custom, used} {
		for _, c := range group {
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			merged = append(merged, c)
		}
	}

	return merged, nil
}

func (s *productService) AddCategory(ctx context.Context, name string, userID string) error {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrNotAuthenticated
	}

	existing, err := s.productRepository.GetCustomCategories(ctx, userID)
	if err != nil {
		return domain.NewRemoteError("add category", err)
	}
	for _, c := range existing {
		if c == name {
			return nil
		}
	}

	category := &entities.Category{
		ID:     uuid.New(),
		UserID: userUUID,
		Name:   name,
	}

	if err := s.productRepository.AddCustomCategory(ctx, category); err != nil {
		logger.Logger.Error().Err(err).Str("user_id", userID).Str("category", name).Msg("failed to add category")
		return domain.NewRemoteError("add category", err)
	}

	return nil
}

func toStatisticsResponse(stats *entities.UserStatistics) domain.UserStatisticsResponse {
	return domain.UserStatisticsResponse{
		TotalProductsAdded:       stats.TotalProductsAdded,
		TotalProductsUsed:        stats.TotalProductsUsed,
		TotalProductsExpired:     stats.TotalProductsExpired,
		ActiveProducts:           stats.ActiveProducts,
		ProductsUsedBeforeExpiry: stats.ProductsUsedBeforeExpiry,
		ProductsUsedAfterExpiry:  stats.ProductsUsedAfterExpiry,
	}
}

func (s *productService) GetUserStatistics(ctx context.Context, userID string) (domain.UserStatisticsResponse, error) {
	stats, err := s.productRepository.GetUserStatistics(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No mutations yet; the aggregate row is created lazily.
			return domain.UserStatisticsResponse{}, nil
		}
		logger.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to fetch user statistics")
		return domain.UserStatisticsResponse{}, domain.NewRemoteError("get user statistics", err)
	}

	return toStatisticsResponse(stats), nil
}

func (s *productService) GetUserAnalytics(ctx context.Context, userID string) (domain.UserAnalyticsResponse, error) {
	stats, err := s.GetUserStatistics(ctx, userID)
	if err != nil {
		return domain.UserAnalyticsResponse{}, err
	}

	analytics := domain.UserAnalyticsResponse{UserStatisticsResponse: stats}
	if stats.TotalProductsAdded > 0 {
		analytics.UsagePercentage = float64(stats.TotalProductsUsed) / float64(stats.TotalProductsAdded) * 100
	}

	return analytics, nil
}

func (s *productService) GetUsageHistory(ctx context.Context, userID string) ([]domain.UsageHistoryItem, error) {
	history, err := s.productRepository.GetUsageHistory(ctx, userID)
	if err != nil {
		logger.Logger.Error().Err(err).Str("user_id", userID).Msg("failed to fetch usage history")
		return nil, domain.NewRemoteError("get usage history", err)
	}

	items := make([]domain.UsageHistoryItem, 0, len(history))
	for _, h := range history {
		items = append(items, domain.UsageHistoryItem{
			ID:               h.ID.String(),
			ProductName:      h.ProductName,
			ProductCategory:  h.ProductCategory,
			QuantityUsed:     h.QuantityUsed,
			WasExpired:       h.WasExpired,
			DaysBeforeExpiry: h.DaysBeforeExpiry,
			UsageNotes:       h.UsageNotes,
			UsedAt:           h.CreatedAt,
		})
	}

	return items, nil
}

// publishChange pushes a change-feed event. The feed is advisory; failures
// are logged and swallowed so a mutation never fails on a broker outage.
func (s *productService) publishChange(ctx context.Context, eventType string, userID string, productID string) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.PublishProductChange(ctx, events.ProductChangeEvent{
		EventType: eventType,
		UserID:    userID,
		ProductID: productID,
	})
	if err != nil {
		logger.Logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish product change")
	}
}
