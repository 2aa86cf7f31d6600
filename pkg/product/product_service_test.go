package product

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"
	"time"

	"WasteGuard-Backend/domain"
	"WasteGuard-Backend/entities"
	"WasteGuard-Backend/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeRepository struct {
	products   map[string]*entities.Product
	listErr    error
	createErr  error
	updateErr  error
	deleteErr  error
	markErr    error
	used       []string
	custom     []string
	statistics *entities.UserStatistics

	deletedIDs []string
	markedID   string
	markedQty  *int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{products: make(map[string]*entities.Product)}
}

func (f *fakeRepository) withView() []*entities.ProductWithDaysLeft {
	out := make([]*entities.ProductWithDaysLeft, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, &entities.ProductWithDaysLeft{Product: *p})
	}
	return out
}

func (f *fakeRepository) GetProducts(ctx context.Context, userID string) ([]*entities.ProductWithDaysLeft, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.withView(), nil
}

func (f *fakeRepository) GetProductsByCategory(ctx context.Context, userID, category string) ([]*entities.ProductWithDaysLeft, error) {
	return f.GetProducts(ctx, userID)
}

func (f *fakeRepository) GetExpiringProducts(ctx context.Context, userID string, withinDays int) ([]*entities.ProductWithDaysLeft, error) {
	return f.GetProducts(ctx, userID)
}

func (f *fakeRepository) SearchProducts(ctx context.Context, userID, query string) ([]*entities.ProductWithDaysLeft, error) {
	return f.GetProducts(ctx, userID)
}

func (f *fakeRepository) GetProductByID(ctx context.Context, id string) (*entities.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeRepository) GetProductsByIDs(ctx context.Context, ids []string) ([]*entities.Product, error) {
	var out []*entities.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepository) CreateProduct(ctx context.Context, product *entities.Product) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.products[product.ID.String()] = product
	return nil
}

func (f *fakeRepository) UpdateProduct(ctx context.Context, product *entities.Product) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.products[product.ID.String()] = product
	return nil
}

func (f *fakeRepository) DeleteProduct(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.products, id)
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

func (f *fakeRepository) DeleteProducts(ctx context.Context, ids []string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for _, id := range ids {
		delete(f.products, id)
	}
	f.deletedIDs = append(f.deletedIDs, ids...)
	return nil
}

func (f *fakeRepository) MarkProductAsUsed(ctx context.Context, id string, quantityUsed *int, usageNotes string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.markedID = id
	f.markedQty = quantityUsed
	return nil
}

func (f *fakeRepository) GetProductCategories(ctx context.Context, userID string) ([]string, error) {
	return f.used, nil
}

func (f *fakeRepository) GetCustomCategories(ctx context.Context, userID string) ([]string, error) {
	return f.custom, nil
}

func (f *fakeRepository) AddCustomCategory(ctx context.Context, category *entities.Category) error {
	f.custom = append(f.custom, category.Name)
	return nil
}

func (f *fakeRepository) GetUserStatistics(ctx context.Context, userID string) (*entities.UserStatistics, error) {
	if f.statistics == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.statistics, nil
}

func (f *fakeRepository) GetUsageHistory(ctx context.Context, userID string) ([]*entities.UsageHistory, error) {
	return nil, nil
}

type fakeStorage struct {
	uploaded string
	deleted  []string
	prefix   string
}

func (f *fakeStorage) UploadFile(userID string, file *multipart.FileHeader, allowedExt ...string) (string, error) {
	f.uploaded = userID + "/123.jpg"
	return f.uploaded, nil
}

func (f *fakeStorage) DeleteFile(objectKey string) error {
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func (f *fakeStorage) GetObjectKeyFromLink(link string) string {
	prefix := f.prefix
	if prefix == "" {
		prefix = "https://bucket.s3.region.amazonaws.com/"
	}
	if len(link) > len(prefix) && link[:len(prefix)] == prefix {
		return link[len(prefix):]
	}
	return ""
}

func (f *fakeStorage) GetPublicLinkKey(objectKey string) string {
	return "https://bucket.s3.region.amazonaws.com/" + objectKey
}

type fakePublisher struct {
	events []events.ProductChangeEvent
}

func (f *fakePublisher) PublishProductChange(ctx context.Context, event events.ProductChangeEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func newTestService(repo *fakeRepository) (*productService, *fakePublisher) {
	pub := &fakePublisher{}
	svc := &productService{
		productRepository: repo,
		s3:                &fakeStorage{},
		publisher:         pub,
		now: func() time.Time {
			return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
		},
	}
	return svc, pub
}

func TestCreateProductDefaultsQuantity(t *testing.T) {
	repo := newFakeRepository()
	svc, pub := newTestService(repo)
	userID := uuid.NewString()

	item, err := svc.CreateProduct(context.Background(), domain.CreateProductRequest{
		Name:       "Milk",
		Category:   "Dairy",
		ExpiryDate: "2025-06-13",
	}, userID)

	require.NoError(t, err)
	require.Equal(t, 1, item.Quantity)
	require.Equal(t, 3, item.DaysLeft)
	require.Len(t, pub.events, 1)
	require.Equal(t, events.EventTypeProductCreated, pub.events[0].EventType)
}

func TestCreateProductRejectsBadInput(t *testing.T) {
	repo := newFakeRepository()
	svc, _ := newTestService(repo)
	userID := uuid.NewString()

	_, err := svc.CreateProduct(context.Background(), domain.CreateProductRequest{
		Name: "Milk", Category: "Dairy", ExpiryDate: "13-06-2025",
	}, userID)
	require.ErrorIs(t, err, domain.ErrInvalidExpiryDate)

	_, err = svc.CreateProduct(context.Background(), domain.CreateProductRequest{
		Category: "Dairy", ExpiryDate: "2025-06-13",
	}, userID)
	require.ErrorIs(t, err, domain.ErrEmptyProductName)

	_, err = svc.CreateProduct(context.Background(), domain.CreateProductRequest{
		Name: "Milk", Category: "Dairy", ExpiryDate: "2025-06-13",
	}, "not-a-uuid")
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestCreateProductWrapsRepositoryFailure(t *testing.T) {
	repo := newFakeRepository()
	repo.createErr = errors.New("connection refused")
	svc, pub := newTestService(repo)

	_, err := svc.CreateProduct(context.Background(), domain.CreateProductRequest{
		Name: "Milk", Category: "Dairy", ExpiryDate: "2025-06-13",
	}, uuid.NewString())

	require.ErrorIs(t, err, domain.ErrRemote)
	require.Empty(t, pub.events)
}

func seedProduct(repo *fakeRepository, userID uuid.UUID, imageURL string) *entities.Product {
	p := &entities.Product{
		ID:         uuid.New(),
		UserID:     userID,
		Name:       "Yogurt",
		Category:   "Dairy",
		ExpiryDate: time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		Quantity:   2,
		ImageURL:   imageURL,
	}
	repo.products[p.ID.String()] = p
	return p
}

func TestUpdateProductAppliesPartialFields(t *testing.T) {
	repo := newFakeRepository()
	svc, _ := newTestService(repo)
	owner := uuid.New()
	p := seedProduct(repo, owner, "")

	name := "Greek Yogurt"
	qty := 5
	item, err := svc.UpdateProduct(context.Background(), p.ID.String(), domain.UpdateProductRequest{
		Name:     &name,
		Quantity: &qty,
	}, owner.String())

	require.NoError(t, err)
	require.Equal(t, "Greek Yogurt", item.Name)
	require.Equal(t, 5, item.Quantity)
	require.Equal(t, "Dairy", item.Category)
}

func TestUpdateProductEnforcesOwnership(t *testing.T) {
	repo := newFakeRepository()
	svc, _ := newTestService(repo)
	p := seedProduct(repo, uuid.New(), "")

	name := "Stolen"
	_, err := svc.UpdateProduct(context.Background(), p.ID.String(), domain.UpdateProductRequest{Name: &name}, uuid.NewString())
	require.ErrorIs(t, err, domain.ErrUserNotAllowed)

	_, err = svc.UpdateProduct(context.Background(), uuid.NewString(), domain.UpdateProductRequest{Name: &name}, uuid.NewString())
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestDeleteProductRemovesOwnedImage(t *testing.T) {
	repo := newFakeRepository()
	svc, _ := newTestService(repo)
	s3 := svc.s3.(*fakeStorage)
	owner := uuid.New()
	p := seedProduct(repo, owner, "https://bucket.s3.region.amazonaws.com/"+owner.String()+"/img.jpg")

	require.NoError(t, svc.DeleteProduct(context.Background(), p.ID.String(), owner.String()))
	require.Equal(t, []string{owner.String() + "/img.jpg"}, s3.deleted)
	require.Empty(t, repo.products)
}

func TestDeleteProductSkipsForeignImage(t *testing.T) {
	repo := newFakeRepository()
	svc, _ := newTestService(repo)
	s3 := svc.s3.(*fakeStorage)
	owner := uuid.New()
	p := seedProduct(repo, owner, "https://example.com/other.jpg")

	require.NoError(t, svc.DeleteProduct(context.Background(), p.ID.String(), owner.String()))
	require.Empty(t, s3.deleted)
}

func TestDeleteProductsFiltersOwnership(t *testing.T) {
	repo := newFakeRepository()
	svc, _ := newTestService(repo)
	owner := uuid.New()
	mine := seedProduct(repo, owner, "")
	theirs := seedProduct(repo, uuid.New(), "")

	err := svc.DeleteProducts(context.Background(), []string{mine.ID.String(), theirs.ID.String()}, owner.String())
	require.NoError(t, err)
	require.Equal(t, []string{mine.ID.String()}, repo.deletedIDs)
	require.Contains(t, repo.products, theirs.ID.String())
}

func TestDeleteProductsRequiresIDs(t *testing.T) {
	repo := newFakeRepository()
	svc, _ := newTestService(repo)

	err := svc.DeleteProducts(context.Background(), nil, uuid.NewString())
	require.ErrorIs(t, err, domain.ErrNoProductIDs)
}

func TestMarkProductAsUsedDelegates(t *testing.T) {
	repo := newFakeRepository()
	svc, pub := newTestService(repo)
	owner := uuid.New()
	p := seedProduct(repo, owner, "")

	qty := 1
	err := svc.MarkProductAsUsed(context.Background(), p.ID.String(), domain.MarkAsUsedRequest{QuantityUsed: &qty}, owner.String())
	require.NoError(t, err)
	require.Equal(t, p.ID.String(), repo.markedID)
	require.Equal(t, &qty, repo.markedQty)
	require.Equal(t, events.EventTypeProductUsed, pub.events[len(pub.events)-1].EventType)
}

func TestMarkProductAsUsedRejectsNonPositiveQuantity(t *testing.T) {
	repo := newFakeRepository()
	svc, _ := newTestService(repo)
	owner := uuid.New()
	p := seedProduct(repo, owner, "")

	qty := 0
	err := svc.MarkProductAsUsed(context.Background(), p.ID.String(), domain.MarkAsUsedRequest{QuantityUsed: &qty}, owner.String())
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestGetCategoriesMergesDefaultsAndCustom(t *testing.T) {
	repo := newFakeRepository()
	repo.custom = []string{"Spices", "Dairy"}
	repo.used = []string{"Dairy", "Leftovers"}
	svc, _ := newTestService(repo)

	categories, err := svc.GetCategories(context.Background(), uuid.NewString())
	require.NoError(t, err)

	require.Subset(t, categories, DefaultCategories)
	require.Contains(t, categories, "Spices")
	require.Contains(t, categories, "Leftovers")

	seen := make(map[string]int)
	for _, c := range categories {
		seen[c]++
	}
	require.Equal(t, 1, seen["Dairy"])
}

func TestAddCategoryIsIdempotent(t *testing.T) {
	repo := newFakeRepository()
	svc, _ := newTestService(repo)
	userID := uuid.NewString()

	require.NoError(t, svc.AddCategory(context.Background(), "Spices", userID))
	require.NoError(t, svc.AddCategory(context.Background(), "Spices", userID))
	require.Equal(t, []string{"Spices"}, repo.custom)
}

func TestGetUserStatisticsZeroValueWhenMissing(t *testing.T) {
	repo := newFakeRepository()
	svc, _ := newTestService(repo)

	stats, err := svc.GetUserStatistics(context.Background(), uuid.NewString())
	require.NoError(t, err)
	require.Equal(t, domain.UserStatisticsResponse{}, stats)
}

func TestGetUserAnalyticsComputesUsagePercentage(t *testing.T) {
	repo := newFakeRepository()
	repo.statistics = &entities.UserStatistics{
		TotalProductsAdded: 8,
		TotalProductsUsed:  6,
	}
	svc, _ := newTestService(repo)

	analytics, err := svc.GetUserAnalytics(context.Background(), uuid.NewString())
	require.NoError(t, err)
	require.InDelta(t, 75.0, analytics.UsagePercentage, 0.001)
}
