package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/Skotchmaster/coffee_shop/internal/logging"
	"github.com/Skotchmaster/coffee_shop/internal/models"
	"github.com/Skotchmaster/coffee_shop/internal/repo"
)

type CartService struct {
	Repo *repo.GormRepo
	// Serialized runs every cart mutation under one in-process lock and
	// appends items under a row lock.
	Serialized bool

	mu sync.Mutex
}

func (s *CartService) lock() func() {
	if !s.Serialized {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *CartService) EnsureActiveCart(ctx context.Context) (*models.Cart, error) {
	unlock := s.lock()
	defer unlock()

	cart, err := s.Repo.EnsureActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("ensure active cart: %w", err)
	}
	return cart, nil
}

// GetEnrichedActiveCart joins each item with the current catalog record.
// Items whose product no longer exists are returned as stored.
func (s *CartService) GetEnrichedActiveCart(ctx context.Context) (*models.EnrichedCart, error) {
	cart, err := s.Repo.GetActive(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no active cart found: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}

	items := make([]models.EnrichedCartItem, 0, len(cart.Items))
	var dangling int
	for _, it := range cart.Items {
		e := models.EnrichedCartItem{CartItem: it}
		if p, ok := products[it.ProductID]; ok {
			price := p.Price
			e.Name = p.Name
			e.Price = &price
			e.ImageSrc = p.ImageSrc
			e.Description = p.Description
		} else {
			dangling++
		}
		items = append(items, e)
	}
	if dangling > 0 {
		logging.FromContext(ctx).Debug("cart_dangling_items", "cart_id", cart.ID, "count", dangling)
	}

	return &models.EnrichedCart{ID: cart.ID, Items: items, Active: cart.Active}, nil
}

// UpdateActiveCart replaces the active cart's items with the productId and
// quantity of each input item and returns the input unchanged.
// Items with a zero productId or quantity are rejected with ErrValidation
// instead of being stored.
func (s *CartService) UpdateActiveCart(ctx context.Context, items []models.EnrichedCartItem) ([]models.EnrichedCartItem, error) {
	if items == nil {
		items = []models.EnrichedCartItem{}
	}
	raw := make([]models.CartItem, 0, len(items))
	for i, it := range items {
		if it.ProductID == 0 || it.Quantity == 0 {
			return nil, fmt.Errorf("item %d: productId and quantity must be positive: %w", i, ErrValidation)
		}
		raw = append(raw, it.CartItem)
	}

	unlock := s.lock()
	defer unlock()

	if err := s.Repo.ReplaceActiveItems(ctx, raw); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no active cart found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("replace cart items: %w", err)
	}
	return items, nil
}

func (s *CartService) AddItem(ctx context.Context, productID, quantity uint) error {
	if productID == 0 {
		return fmt.Errorf("productId must be set: %w", ErrValidation)
	}
	if quantity == 0 {
		return fmt.Errorf("quantity must be more than zero: %w", ErrValidation)
	}

	unlock := s.lock()
	defer unlock()

	item := models.CartItem{ProductID: productID, Quantity: quantity}
	err := s.appendItem(ctx, item)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// lazily open a cart, as on the read path
		if _, err = s.Repo.EnsureActive(ctx); err != nil {
			return fmt.Errorf("ensure active cart: %w", err)
		}
		err = s.appendItem(ctx, item)
	}
	if err != nil {
		return fmt.Errorf("append cart item: %w", err)
	}
	return nil
}

// Checkout closes the active cart and opens an empty one. No order is recorded.
func (s *CartService) Checkout(ctx context.Context) (*models.Cart, error) {
	unlock := s.lock()
	defer unlock()

	cart, err := s.Repo.Rotate(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	return cart, nil
}

func (s *CartService) appendItem(ctx context.Context, item models.CartItem) error {
	if s.Serialized {
		return s.Repo.AppendActiveItemLocked(ctx, item)
	}
	return s.Repo.AppendActiveItem(ctx, item)
}
