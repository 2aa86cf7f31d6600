package product

import (
	"context"

	"WasteGuard-Backend/entities"

	"gorm.io/gorm"
)

type (
	ProductRepository interface {
		GetProducts(ctx context.Context, userID string) ([]*entities.ProductWithDaysLeft, error)
		GetProductsByCategory(ctx context.Context, userID string, category string) ([]*entities.ProductWithDaysLeft, error)
		GetExpiringProducts(ctx context.Context, userID string, withinDays int) ([]*entities.ProductWithDaysLeft, error)
		SearchProducts(ctx context.Context, userID string, query string) ([]*entities.ProductWithDaysLeft, error)
		GetProductByID(ctx context.Context, id string) (*entities.Product, error)
		GetProductsByIDs(ctx context.Context, ids []string) ([]*entities.Product, error)
		CreateProduct(ctx context.Context, product *entities.Product) error
		UpdateProduct(ctx context.Context, product *entities.Product) error
		DeleteProduct(ctx context.Context, id string) error
		DeleteProducts(ctx context.Context, ids []string) error
		MarkProductAsUsed(ctx context.Context, id string, quantityUsed *int, usageNotes string) error

		GetProductCategories(ctx context.Context, userID string) ([]string, error)
		GetCustomCategories(ctx context.Context, userID string) ([]string, error)
		AddCustomCategory(ctx context.Context, category *entities.Category) error

		GetUserStatistics(ctx context.Context, userID string) (*entities.UserStatistics, error)
		GetUsageHistory(ctx context.Context, userID string) ([]*entities.UsageHistory, error)
	}

	productRepository struct {
		db *gorm.DB
	}
)

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetProducts(ctx context.Context, userID string) ([]*entities.ProductWithDaysLeft, error) {
	var products []*entities.ProductWithDaysLeft

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("expiry_date asc").
		Find(&products).Error; err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepository) GetProductsByCategory(ctx context.Context, userID string, category string) ([]*entities.ProductWithDaysLeft, error) {
	var products []*entities.ProductWithDaysLeft

	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND category = ?", userID, category).
		Order("expiry_date asc").
		Find(&products).Error; err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepository) GetExpiringProducts(ctx context.Context, userID string, withinDays int) ([]*entities.ProductWithDaysLeft, error) {
	var products []*entities.ProductWithDaysLeft

	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND days_left <= ?", userID, withinDays).
		Order("expiry_date asc").
		Find(&products).Error; err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepository) SearchProducts(ctx context.Context, userID string, query string) ([]*entities.ProductWithDaysLeft, error) {
	var products []*entities.ProductWithDaysLeft

	pattern := "%" + query + "%"
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND (name ILIKE ? OR category ILIKE ?)", userID, pattern, pattern).
		Order("expiry_date asc").
		Find(&products).Error; err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id string) (*entities.Product, error) {
	var product entities.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) GetProductsByIDs(ctx context.Context, ids []string) ([]*entities.Product, error) {
	var products []*entities.Product

	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, product *entities.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepository) UpdateProduct(ctx context.Context, product *entities.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *productRepository) DeleteProduct(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Product{}).Error
}

func (r *productRepository) DeleteProducts(ctx context.Context, ids []string) error {
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&entities.Product{}).Error
}

// MarkProductAsUsed delegates to the mark_product_as_used procedure, which
// atomically decrements quantity (deleting at zero), appends the usage
// history row and updates the user statistics. A nil quantityUsed consumes
// the entire remaining quantity.
func (r *productRepository) MarkProductAsUsed(ctx context.Context, id string, quantityUsed *int, usageNotes string) error {
	return r.db.WithContext(ctx).
		Exec("SELECT mark_product_as_used(?::uuid, ?::integer, ?::text)", id, quantityUsed, usageNotes).Error
}

func (r *productRepository) GetProductCategories(ctx context.Context, userID string) ([]string, error) {
	var categories []string

	if err := r.db.WithContext(ctx).Model(&entities.Product{}).
		Where("user_id = ?", userID).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error; err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *productRepository) GetCustomCategories(ctx context.Context, userID string) ([]string, error) {
	var categories []string

	if err := r.db.WithContext(ctx).Model(&entities.Category{}).
		Where("user_id = ?", userID).
		Order("name").
		Pluck("name", &categories).Error; err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *productRepository) AddCustomCategory(ctx context.Context, category *entities.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *productRepository) GetUserStatistics(ctx context.Context, userID string) (*entities.UserStatistics, error) {
	var stats entities.UserStatistics
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *productRepository) GetUsageHistory(ctx context.Context, userID string) ([]*entities.UsageHistory, error) {
	var history []*entities.UsageHistory

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&history).Error; err != nil {
		return nil, err
	}

	return history, nil
}
