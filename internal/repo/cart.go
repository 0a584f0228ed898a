package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/coffee_shop/internal/logging"
	"github.com/Skotchmaster/coffee_shop/internal/models"
)

func activeCart(ctx context.Context, db *gorm.DB) (*models.Cart, error) {
	var carts []models.Cart
	if err := db.Where("active = ?", true).Order("id ASC").Limit(2).Find(&carts).Error; err != nil {
		return nil, err
	}
	if len(carts) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	if len(carts) > 1 {
		logging.FromContext(ctx).Error("single_active_cart_violated",
			"cart_ids", []uint{carts[0].ID, carts[1].ID},
			"picked", carts[0].ID,
		)
	}
	cart := carts[0]
	if cart.Items == nil {
		cart.Items = datatypes.JSONSlice[models.CartItem]{}
	}
	return &cart, nil
}

// GetActive returns the active cart or gorm.ErrRecordNotFound.
func (r *GormRepo) GetActive(ctx context.Context) (*models.Cart, error) {
	return activeCart(ctx, r.DB.WithContext(ctx))
}

func (r *GormRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Cart{}).Where("active = ?", true).Count(&n).Error
	return n, err
}

func replaceActiveItems(db *gorm.DB, items []models.CartItem) error {
	if items == nil {
		items = []models.CartItem{}
	}
	res := db.Model(&models.Cart{}).
		Where("active = ?", true).
		Update("items", datatypes.JSONSlice[models.CartItem](items))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceActiveItems overwrites the item list of the active cart.
func (r *GormRepo) ReplaceActiveItems(ctx context.Context, items []models.CartItem) error {
	return replaceActiveItems(r.DB.WithContext(ctx), items)
}

func closeActive(db *gorm.DB) error {
	return db.Model(&models.Cart{}).Where("active = ?", true).Update("active", false).Error
}

// CloseActive deactivates the active cart. It is a no-op when none is active.
func (r *GormRepo) CloseActive(ctx context.Context) error {
	return closeActive(r.DB.WithContext(ctx))
}

func ensureActive(ctx context.Context, db *gorm.DB) (*models.Cart, error) {
	cart, err := activeCart(ctx, db)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// DO NOTHING keeps an enclosing postgres transaction usable when a
	// concurrent ensure already holds the single-active index.
	fresh := models.Cart{Items: datatypes.JSONSlice[models.CartItem]{}, Active: true}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh)
	if res.Error != nil {
		return nil, fmt.Errorf("create active cart: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		winner, err := activeCart(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("read concurrent active cart: %w", err)
		}
		logging.FromContext(ctx).Debug("active_cart_create_lost", "cart_id", winner.ID)
		return winner, nil
	}
	return &fresh, nil
}

// EnsureActive returns the active cart, creating an empty one when none exists.
func (r *GormRepo) EnsureActive(ctx context.Context) (*models.Cart, error) {
	return ensureActive(ctx, r.DB.WithContext(ctx))
}

// Rotate closes the active cart and opens a fresh one in a single transaction.
func (r *GormRepo) Rotate(ctx context.Context) (*models.Cart, error) {
	var cart *models.Cart
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := closeActive(tx); err != nil {
			return err
		}
		c, err := ensureActive(ctx, tx)
		if err != nil {
			return err
		}
		cart = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// AppendActiveItem is a read-modify-write over two statements. Concurrent
// callers can overwrite each other's append.
func (r *GormRepo) AppendActiveItem(ctx context.Context, item models.CartItem) error {
	db := r.DB.WithContext(ctx)
	cart, err := activeCart(ctx, db)
	if err != nil {
		return err
	}
	return replaceActiveItems(db, append([]models.CartItem(cart.Items), item))
}

// AppendActiveItemLocked appends under a row lock inside a transaction.
func (r *GormRepo) AppendActiveItemLocked(ctx context.Context, item models.CartItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() != "sqlite" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var cart models.Cart
		if err := q.Where("active = ?", true).
			Order("id ASC").
			First(&cart).Error; err != nil {
			return err
		}
		items := append([]models.CartItem(cart.Items), item)
		return tx.Model(&models.Cart{}).
			Where("id = ?", cart.ID).
			Update("items", datatypes.JSONSlice[models.CartItem](items)).Error
	})
}
