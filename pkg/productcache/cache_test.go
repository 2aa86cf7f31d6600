package productcache

import (
	"context"
	"errors"
	"mime/multipart"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"WasteGuard-Backend/domain"

	"github.com/stretchr/testify/require"
)

// fakeService counts calls and serves canned data so cache behavior can
// be observed without a backend.
type fakeService struct {
	items     []domain.ProductItem
	listCalls atomic.Int64

	listErr   error
	createErr error
	updateErr error
	deleteErr error
	markErr   error

	created domain.ProductItem
	updated domain.ProductItem
}

func (f *fakeService) GetProducts(ctx context.Context, userID string) ([]domain.ProductItem, error) {
	f.listCalls.Add(1)
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.ProductItem, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeService) GetProductsByCategory(ctx context.Context, userID, category string) ([]domain.ProductItem, error) {
	return f.GetProducts(ctx, userID)
}

func (f *fakeService) GetExpiringSoonProducts(ctx context.Context, userID string, withinDays int) ([]domain.ProductItem, error) {
	return f.GetProducts(ctx, userID)
}

func (f *fakeService) SearchProducts(ctx context.Context, userID, query string) ([]domain.ProductItem, error) {
	return f.GetProducts(ctx, userID)
}

func (f *fakeService) CreateProduct(ctx context.Context, req domain.CreateProductRequest, userID string) (domain.ProductItem, error) {
	if f.createErr != nil {
		return domain.ProductItem{}, f.createErr
	}
	return f.created, nil
}

func (f *fakeService) UpdateProduct(ctx context.Context, id string, req domain.UpdateProductRequest, userID string) (domain.ProductItem, error) {
	if f.updateErr != nil {
		return domain.ProductItem{}, f.updateErr
	}
	return f.updated, nil
}

func (f *fakeService) DeleteProduct(ctx context.Context, id string, userID string) error {
	return f.deleteErr
}

func (f *fakeService) DeleteProducts(ctx context.Context, ids []string, userID string) error {
	return f.deleteErr
}

func (f *fakeService) MarkProductAsUsed(ctx context.Context, id string, req domain.MarkAsUsedRequest, userID string) error {
	return f.markErr
}

func (f *fakeService) UploadProductImage(ctx context.Context, id string, image *multipart.FileHeader, userID string) (string, error) {
	return "", nil
}

func (f *fakeService) GetCategories(ctx context.Context, userID string) ([]string, error) {
	return []string{"Dairy"}, nil
}

func (f *fakeService) AddCategory(ctx context.Context, name string, userID string) error {
	return nil
}

func (f *fakeService) GetUserStatistics(ctx context.Context, userID string) (domain.UserStatisticsResponse, error) {
	return domain.UserStatisticsResponse{}, nil
}

func (f *fakeService) GetUserAnalytics(ctx context.Context, userID string) (domain.UserAnalyticsResponse, error) {
	return domain.UserAnalyticsResponse{}, nil
}

func (f *fakeService) GetUsageHistory(ctx context.Context, userID string) ([]domain.UsageHistoryItem, error) {
	return nil, nil
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxReadRetries = 1
	cfg.RetryInitialInterval = time.Millisecond
	cfg.RetryMaxInterval = 2 * time.Millisecond
	cfg.MutationRetryDelay = time.Millisecond
	return cfg
}

func newTestCache(svc *fakeService) *Cache {
	c := New(svc, testConfig())
	base := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	return c
}

func ids(items []domain.ProductItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	sort.Strings(out)
	return out
}

const testUser = "4b1c5a8e-0000-0000-0000-000000000001"

func TestFreshEntryServedWithoutRefetch(t *testing.T) {
	svc := &fakeService{items: []domain.ProductItem{{ID: "p1", Name: "Milk"}}}
	c := newTestCache(svc)

	first, err := c.GetProducts(context.Background(), testUser)
	require.NoError(t, err)
	second, err := c.GetProducts(context.Background(), testUser)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.EqualValues(t, 1, svc.listCalls.Load())
}

func TestStaleEntryRefetched(t *testing.T) {
	svc := &fakeService{items: []domain.ProductItem{{ID: "p1"}}}
	c := newTestCache(svc)

	_, err := c.GetProducts(context.Background(), testUser)
	require.NoError(t, err)

	base := c.now()
	c.now = func() time.Time { return base.Add(c.cfg.StaleAll + time.Second) }

	_, err = c.GetProducts(context.Background(), testUser)
	require.NoError(t, err)
	require.EqualValues(t, 2, svc.listCalls.Load())
}

func TestStaleEntryServedWhenBackendDown(t *testing.T) {
	svc := &fakeService{items: []domain.ProductItem{{ID: "p1", Name: "Milk"}}}
	c := newTestCache(svc)

	_, err := c.GetProducts(context.Background(), testUser)
	require.NoError(t, err)

	base := c.now()
	c.now = func() time.Time { return base.Add(c.cfg.StaleAll + time.Second) }
	svc.listErr = domain.NewRemoteError("list products", errors.New("timeout"))

	items, err := c.GetProducts(context.Background(), testUser)
	require.NoError(t, err)
	require.Equal(t, []string{"p1"}, ids(items))
}

func TestColdMissSurfacesError(t *testing.T) {
	svc := &fakeService{listErr: domain.NewRemoteError("list products", errors.New("timeout"))}
	c := newTestCache(svc)

	_, err := c.GetProducts(context.Background(), testUser)
	require.ErrorIs(t, err, domain.ErrRemote)
}

func TestReadRetriesRemoteErrorsOnly(t *testing.T) {
	svc := &fakeService{listErr: domain.NewRemoteError("list products", errors.New("timeout"))}
	c := newTestCache(svc)

	_, err := c.GetProducts(context.Background(), testUser)
	require.Error(t, err)
	// first attempt plus one retry
	require.EqualValues(t, 2, svc.listCalls.Load())

	svc.listCalls.Store(0)
	svc.listErr = domain.ErrNotAuthenticated
	_, err = c.GetProducts(context.Background(), "other-user")
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)
	require.EqualValues(t, 1, svc.listCalls.Load())
}

func TestCreateReplacesPlaceholderOnSuccess(t *testing.T) {
	svc := &fakeService{
		items:   []domain.ProductItem{{ID: "p1"}},
		created: domain.ProductItem{ID: "p2", Name: "Cheese"},
	}
	c := newTestCache(svc)

	_, err := c.GetProducts(context.Background(), testUser)
	require.NoError(t, err)

	created, err := c.CreateProduct(context.Background(), domain.CreateProductRequest{
		Name: "Cheese", Category: "Dairy", ExpiryDate: "2025-06-20",
	}, testUser)
	require.NoError(t, err)
	require.Equal(t, "p2", created.ID)

	items, err := c.GetProducts(context.Background(), testUser)
	require.NoError(t, err)
	require.Equal(t, []string{"p1", "p2"}, ids(items))
	for _, item := range items {
		require.False(t, IsTempID(item.ID))
	}
}

func TestCreateRollsBackOnFailure(t *testing.T) {
	svc := &fakeService{items: []domain.ProductItem{{ID: "p1"}}}
	c := newTestCache(svc)

	before, err := c.GetProducts(context.Background(), testUser)
	require.NoError(t, err)

	svc.createErr = domain.ErrInvalidExpiryDate
	_, err = c.CreateProduct(context.Background(), domain.CreateProductRequest{
		Name: "Cheese", Category: "Dairy", ExpiryDate: "bad",
	}, testUser)
	require.Error(t, err)

	after, err := c.GetProducts(context.Background(), testUser)
	require.NoError(t, err)
	require.Equal(t, ids(before), ids(after))
}

func TestUpdateRollsBackSingleItem(t *testing.T) {
	svc := &fakeService{items: []domain.ProductItem{{ID: "p1", Name: "Milk", Quantity: 2}}}
	c := newTestCache(svc)

	_, err := c.GetProducts(context.Background(), testUser)
	require.NoError(t, err)

	svc.updateErr = domain.NewRemoteError("update product", errors.New("timeout"))
	name := "Oat Milk"
	_, err = c.UpdateProduct(context.Background(), "p1", domain.UpdateProductRequest{Name: &name}, testUser)
	require.Error(t, err)

	items, err := c.GetProducts(context.Background(), testUser)
	require.NoError(t, err)
	require.Equal(t, "Milk", items[0].Name)
}

func TestDeleteRollsBackOnFailure(t *testing.T) {
	svc := &fakeService{items: []domain.ProductItem{{ID: "p1"}, {ID: "p2"}}}
	c := newTestCache(svc)

	before, err := c.GetProducts(context.Background(), testUser)
	require.NoError(t, err)

	svc.deleteErr = domain.NewRemoteError("delete product", errors.New("timeout"))
	err = c.DeleteProduct(context.Background(), "p1", testUser)
	require.Error(t, err)

	after, err := c.GetProducts(context.Background(), testUser)
	require.NoError(t, err)
	require.Equal(t, ids(before), ids(after))
}

func TestMarkAsUsedDecrementsOrRemoves(t *testing.T) {
	svc := &fakeService{items: []domain.ProductItem{{ID: "p1", Quantity: 3}}}
	c := newTestCache(svc)

	_, err := c.GetProducts(context.Background(), testUser)
	require.NoError(t, err)

	qty := 2
	require.NoError(t, c.MarkProductAsUsed(context.Background(), "p1", domain.MarkAsUsedRequest{QuantityUsed: &qty}, testUser))

	c.mu.Lock()
	entry := c.entries[keyAll(testUser)]
	require.Len(t, entry.products, 1)
	require.Equal(t, 1, entry.products[0].Quantity)
	c.mu.Unlock()

	// nil quantity consumes the remainder and drops the item
	require.NoError(t, c.MarkProductAsUsed(context.Background(), "p1", domain.MarkAsUsedRequest{}, testUser))

	c.mu.Lock()
	entry = c.entries[keyAll(testUser)]
	require.Empty(t, entry.products)
	c.mu.Unlock()
}

func TestMarkAsUsedOverQuantityRemovesItem(t *testing.T) {
	svc := &fakeService{items: []domain.ProductItem{{ID: "p1", Quantity: 3}}}
	c := newTestCache(svc)

	_, err := c.GetProducts(context.Background(), testUser)
	require.NoError(t, err)

	// Using more than is left clamps to the remainder and removes the
	// item, matching the stored procedure.
	qty := 5
	require.NoError(t, c.MarkProductAsUsed(context.Background(), "p1", domain.MarkAsUsedRequest{QuantityUsed: &qty}, testUser))

	c.mu.Lock()
	entry := c.entries[keyAll(testUser)]
	require.Empty(t, entry.products)
	c.mu.Unlock()
}

func TestMutationInvalidatesDerivedKeys(t *testing.T) {
	svc := &fakeService{items: []domain.ProductItem{{ID: "p1", Quantity: 1}}}
	c := newTestCache(svc)

	_, err := c.GetProducts(context.Background(), testUser)
	require.NoError(t, err)
	_, err = c.GetUserStatistics(context.Background(), testUser)
	require.NoError(t, err)
	_, err = c.GetExpiringSoonProducts(context.Background(), testUser, 3)
	require.NoError(t, err)

	require.NoError(t, c.MarkProductAsUsed(context.Background(), "p1", domain.MarkAsUsedRequest{}, testUser))

	c.mu.Lock()
	defer c.mu.Unlock()
	require.Contains(t, c.entries, keyAll(testUser))
	require.NotContains(t, c.entries, keyStatistics(testUser))
	require.NotContains(t, c.entries, keyExpiring(testUser, 3))
}

func TestInvalidateUserDropsAllKeys(t *testing.T) {
	svc := &fakeService{items: []domain.ProductItem{{ID: "p1"}}}
	c := newTestCache(svc)

	_, err := c.GetProducts(context.Background(), testUser)
	require.NoError(t, err)
	_, err = c.GetCategories(context.Background(), testUser)
	require.NoError(t, err)

	c.InvalidateUser(testUser)

	c.mu.Lock()
	defer c.mu.Unlock()
	require.Empty(t, c.entries)
}

func TestMutationNotRetriedOnAuthError(t *testing.T) {
	svc := &fakeService{items: []domain.ProductItem{{ID: "p1"}}}
	c := newTestCache(svc)

	svc.deleteErr = domain.ErrUserNotAllowed
	err := c.DeleteProduct(context.Background(), "p1", testUser)
	require.ErrorIs(t, err, domain.ErrUserNotAllowed)
}

func TestEvictExpiredDropsOldEntries(t *testing.T) {
	svc := &fakeService{items: []domain.ProductItem{{ID: "p1"}}}
	c := newTestCache(svc)

	_, err := c.GetProducts(context.Background(), testUser)
	require.NoError(t, err)

	base := c.now()
	c.now = func() time.Time {
		return base.Add(c.cfg.StaleAll*time.Duration(c.cfg.GCFactor) + time.Second)
	}
	c.evictExpired()

	c.mu.Lock()
	defer c.mu.Unlock()
	require.Empty(t, c.entries)
}
