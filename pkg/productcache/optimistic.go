package productcache

import (
	"context"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"WasteGuard-Backend/domain"
	"WasteGuard-Backend/pkg/product"
)

// TempIDPrefix marks placeholder ids assigned to optimistically created
// products before the backend confirms them.
const TempIDPrefix = "temp-"

// IsTempID reports whether id belongs to an unconfirmed placeholder.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

func (c *Cache) nextTempID() string {
	return TempIDPrefix + strconv.FormatInt(c.now().UnixNano(), 10)
}

// patchList applies mutate to the cached full product list under the
// lock, bumps the entry version, and returns a snapshot of the list as
// it was before the patch. ok is false when no list is cached, in which
// case nothing was changed and there is nothing to roll back.
func (c *Cache) patchList(key queryKey, mutate func([]domain.ProductItem) []domain.ProductItem) (snapshot []domain.ProductItem, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, found := c.entries[key]
	if !found {
		return nil, false
	}
	snapshot = cloneItems(e.products)
	e.products = mutate(e.products)
	e.version++
	return snapshot, true
}

// restoreList puts a pre-mutation snapshot back, discarding the
// optimistic patch.
func (c *Cache) restoreList(key queryKey, snapshot []domain.ProductItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, found := c.entries[key]
	if !found {
		return
	}
	e.products = snapshot
	e.version++
}

// CreateProduct inserts a placeholder into the cached list, then asks
// the backend to create the product. On success the placeholder is
// replaced with the confirmed item; on failure it is removed, leaving
// the list exactly as it was before the call.
func (c *Cache) CreateProduct(ctx context.Context, req domain.CreateProductRequest, userID string) (domain.ProductItem, error) {
	key := keyAll(userID)

	var placeholder domain.ProductItem
	snapshot, patched := c.patchList(key, func(items []domain.ProductItem) []domain.ProductItem {
		placeholder = c.placeholderFor(req)
		return append(items, placeholder)
	})

	var created domain.ProductItem
	err := c.retryMutation(ctx, func() error {
		var err error
		created, err = c.service.CreateProduct(ctx, req, userID)
		return err
	})
	if err != nil {
		if patched {
			c.restoreList(key, snapshot)
		}
		return domain.ProductItem{}, err
	}

	if patched {
		c.patchList(key, func(items []domain.ProductItem) []domain.ProductItem {
			for i := range items {
				if items[i].ID == placeholder.ID {
					items[i] = created
				}
			}
			return items
		})
	}
	c.invalidateDerived(userID, key)
	return created, nil
}

func (c *Cache) placeholderFor(req domain.CreateProductRequest) domain.ProductItem {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	item := domain.ProductItem{
		ID:        c.nextTempID(),
		Name:      req.Name,
		Category:  req.Category,
		Quantity:  quantity,
		Notes:     req.Notes,
		ImageURL:  req.ImageURL,
		CreatedAt: c.now(),
	}
	if expiry, err := time.Parse("2006-01-02", req.ExpiryDate); err == nil {
		item.ExpiryDate = expiry
		item.DaysLeft = product.DaysLeft(expiry, c.now())
	}
	return item
}

// UpdateProduct patches the cached item in place, then sends the update.
// A failure restores only the patched item from the snapshot.
func (c *Cache) UpdateProduct(ctx context.Context, id string, req domain.UpdateProductRequest, userID string) (domain.ProductItem, error) {
	key := keyAll(userID)

	snapshot, patched := c.patchList(key, func(items []domain.ProductItem) []domain.ProductItem {
		for i := range items {
			if items[i].ID == id {
				c.applyPatch(&items[i], req)
			}
		}
		return items
	})

	var updated domain.ProductItem
	err := c.retryMutation(ctx, func() error {
		var err error
		updated, err = c.service.UpdateProduct(ctx, id, req, userID)
		return err
	})
	if err != nil {
		if patched {
			c.restoreList(key, snapshot)
		}
		return domain.ProductItem{}, err
	}

	if patched {
		c.patchList(key, func(items []domain.ProductItem) []domain.ProductItem {
			for i := range items {
				if items[i].ID == id {
					items[i] = updated
				}
			}
			return items
		})
	}
	c.invalidateDerived(userID, key)
	return updated, nil
}

func (c *Cache) applyPatch(item *domain.ProductItem, req domain.UpdateProductRequest) {
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.ExpiryDate != nil {
		if expiry, err := time.Parse("2006-01-02", *req.ExpiryDate); err == nil {
			item.ExpiryDate = expiry
			item.DaysLeft = product.DaysLeft(expiry, c.now())
		}
	}
	if req.Quantity != nil {
		item.Quantity = *req.Quantity
	}
	if req.Notes != nil {
		item.Notes = *req.Notes
	}
	if req.ImageURL != nil {
		item.ImageURL = *req.ImageURL
	}
}

// DeleteProduct removes the item from the cached list before the
// backend call and restores the whole list if the call fails.
func (c *Cache) DeleteProduct(ctx context.Context, id string, userID string) error {
	return c.deleteFromList(ctx, userID, []string{id}, func(ctx context.Context) error {
		return c.service.DeleteProduct(ctx, id, userID)
	})
}

// DeleteProducts is the bulk form of DeleteProduct with the same
// optimistic-removal and rollback behavior.
func (c *Cache) DeleteProducts(ctx context.Context, ids []string, userID string) error {
	return c.deleteFromList(ctx, userID, ids, func(ctx context.Context) error {
		return c.service.DeleteProducts(ctx, ids, userID)
	})
}

func (c *Cache) deleteFromList(ctx context.Context, userID string, ids []string, remove func(context.Context) error) error {
	key := keyAll(userID)
	doomed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		doomed[id] = struct{}{}
	}

	snapshot, patched := c.patchList(key, func(items []domain.ProductItem) []domain.ProductItem {
		kept := items[:0]
		for _, item := range items {
			if _, gone := doomed[item.ID]; !gone {
				kept = append(kept, item)
			}
		}
		return kept
	})

	err := c.retryMutation(ctx, func() error { return remove(ctx) })
	if err != nil {
		if patched {
			c.restoreList(key, snapshot)
		}
		return err
	}
	c.invalidateDerived(userID, key)
	return nil
}

// MarkProductAsUsed decrements the cached quantity, removing the item
// when it reaches zero, then delegates to the backend. The stored
// procedure is the source of truth; the cached patch only mirrors its
// decrement-or-delete behavior until the next refresh.
func (c *Cache) MarkProductAsUsed(ctx context.Context, id string, req domain.MarkAsUsedRequest, userID string) error {
	key := keyAll(userID)

	snapshot, patched := c.patchList(key, func(items []domain.ProductItem) []domain.ProductItem {
		kept := items[:0]
		for _, item := range items {
			if item.ID == id {
				used := item.Quantity
				if req.QuantityUsed != nil {
					used = *req.QuantityUsed
				}
				item.Quantity -= used
				if item.Quantity <= 0 {
					continue
				}
			}
			kept = append(kept, item)
		}
		return kept
	})

	err := c.retryMutation(ctx, func() error {
		return c.service.MarkProductAsUsed(ctx, id, req, userID)
	})
	if err != nil {
		if patched {
			c.restoreList(key, snapshot)
		}
		return err
	}
	c.invalidateDerived(userID, key)
	return nil
}

// UploadProductImage is not patched optimistically; the resulting URL
// is unknown until the upload completes. The lists are invalidated so
// the next read picks up the new image.
func (c *Cache) UploadProductImage(ctx context.Context, id string, image *multipart.FileHeader, userID string) (string, error) {
	url, err := c.service.UploadProductImage(ctx, id, image, userID)
	if err != nil {
		return "", err
	}
	c.InvalidateUser(userID)
	return url, nil
}

// AddCategory writes through and drops the cached category list.
func (c *Cache) AddCategory(ctx context.Context, name string, userID string) error {
	err := c.retryMutation(ctx, func() error {
		return c.service.AddCategory(ctx, name, userID)
	})
	if err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.entries, keyCategories(userID))
	c.mu.Unlock()
	return nil
}
