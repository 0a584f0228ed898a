package repo

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Skotchmaster/coffee_shop/internal/logging"
	"github.com/Skotchmaster/coffee_shop/internal/models"
)

func TestGetActive_NoCart(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.GetActive(context.Background())
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestEnsureActive_Idempotent(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	first, err := r.EnsureActive(ctx)
	require.NoError(t, err)
	assert.True(t, first.Active)
	assert.Empty(t, first.Items)

	second, err := r.EnsureActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	n, err := r.CountActive(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestReplaceActiveItems(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	err := r.ReplaceActiveItems(ctx, []models.CartItem{{ProductID: 1, Quantity: 1}})
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound), "no active cart yet")

	_, err = r.EnsureActive(ctx)
	require.NoError(t, err)

	items := []models.CartItem{{ProductID: 7, Quantity: 2}, {ProductID: 3, Quantity: 1}}
	require.NoError(t, r.ReplaceActiveItems(ctx, items))

	cart, err := r.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, items, []models.CartItem(cart.Items))

	require.NoError(t, r.ReplaceActiveItems(ctx, nil))
	cart, err = r.GetActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCloseActive(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.CloseActive(ctx), "closing with no active cart is a no-op")

	_, err := r.EnsureActive(ctx)
	require.NoError(t, err)
	require.NoError(t, r.CloseActive(ctx))

	n, err := r.CountActive(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRotate_KeepsSingleActiveCart(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	old, err := r.EnsureActive(ctx)
	require.NoError(t, err)
	require.NoError(t, r.ReplaceActiveItems(ctx, []models.CartItem{{ProductID: 1, Quantity: 4}}))

	fresh, err := r.Rotate(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, fresh.ID)
	assert.Empty(t, fresh.Items)

	var closed models.Cart
	require.NoError(t, r.DB.First(&closed, old.ID).Error)
	assert.False(t, closed.Active)
	assert.Equal(t, []models.CartItem{{ProductID: 1, Quantity: 4}}, []models.CartItem(closed.Items))

	n, err := r.CountActive(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestRotate_WithoutActiveCart(t *testing.T) {
	r := newTestRepo(t)

	cart, err := r.Rotate(context.Background())
	require.NoError(t, err)
	assert.True(t, cart.Active)
}

func TestAppendActiveItem(t *testing.T) {
	for _, locked := range []bool{false, true} {
		name := "best_effort"
		if locked {
			name = "locked"
		}
		t.Run(name, func(t *testing.T) {
			r := newTestRepo(t)
			ctx := context.Background()

			appendFn := r.AppendActiveItem
			if locked {
				appendFn = r.AppendActiveItemLocked
			}

			err := appendFn(ctx, models.CartItem{ProductID: 1, Quantity: 1})
			require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

			_, err = r.EnsureActive(ctx)
			require.NoError(t, err)

			require.NoError(t, appendFn(ctx, models.CartItem{ProductID: 1, Quantity: 1}))
			require.NoError(t, appendFn(ctx, models.CartItem{ProductID: 2, Quantity: 5}))

			cart, err := r.GetActive(ctx)
			require.NoError(t, err)
			assert.Equal(t, []models.CartItem{
				{ProductID: 1, Quantity: 1},
				{ProductID: 2, Quantity: 5},
			}, []models.CartItem(cart.Items))
		})
	}
}

func TestSingleActiveIndex_RejectsSecondActiveCart(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.EnsureActive(ctx)
	require.NoError(t, err)

	second := models.Cart{Items: datatypes.JSONSlice[models.CartItem]{}, Active: true}
	require.Error(t, r.DB.Create(&second).Error)

	closed := models.Cart{Items: datatypes.JSONSlice[models.CartItem]{}, Active: false}
	require.NoError(t, r.DB.Create(&closed).Error)

	n, err := r.CountActive(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestGetActive_MultipleActivePicksLowestID(t *testing.T) {
	r := newTestRepo(t)
	require.NoError(t, r.DB.Exec("DROP INDEX idx_shopping_carts_single_active").Error)

	first := models.Cart{Items: datatypes.JSONSlice[models.CartItem]{}, Active: true}
	second := models.Cart{Items: datatypes.JSONSlice[models.CartItem]{}, Active: true}
	require.NoError(t, r.DB.Create(&first).Error)
	require.NoError(t, r.DB.Create(&second).Error)
	require.Less(t, first.ID, second.ID)

	var buf bytes.Buffer
	ctx := logging.IntoContext(context.Background(), logging.NewWithWriter(&buf, "debug"))

	cart, err := r.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, cart.ID)
	assert.Contains(t, buf.String(), "single_active_cart_violated")
}

// insertCompetingCart makes the next cart insert find an active cart that
// another writer committed between the read and the insert. The returned
// pointer holds that cart's id once the hook has fired.
func insertCompetingCart(t *testing.T, r *GormRepo) *uint {
	t.Helper()
	var winnerID uint
	fired := false
	err := r.DB.Callback().Create().Before("gorm:create").Register("test:competing_cart", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "shopping_carts" {
			return
		}
		fired = true
		sess := tx.Session(&gorm.Session{NewDB: true})
		now := time.Now()
		if err := sess.Exec(
			"INSERT INTO shopping_carts (items, active, created_at, updated_at) VALUES (?, ?, ?, ?)",
			"[]", true, now, now,
		).Error; err != nil {
			_ = tx.AddError(err)
			return
		}
		_ = tx.AddError(sess.Raw("SELECT id FROM shopping_carts WHERE active = ?", true).Scan(&winnerID).Error)
	})
	require.NoError(t, err)
	return &winnerID
}

func totalCarts(t *testing.T, r *GormRepo) int64 {
	t.Helper()
	var n int64
	require.NoError(t, r.DB.Model(&models.Cart{}).Count(&n).Error)
	return n
}

func TestEnsureActive_ReturnsConcurrentWinner(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	winnerID := insertCompetingCart(t, r)

	cart, err := r.EnsureActive(ctx)
	require.NoError(t, err)
	require.NotZero(t, *winnerID)
	assert.Equal(t, *winnerID, cart.ID)
	assert.True(t, cart.Active)

	n, err := r.CountActive(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.EqualValues(t, 1, totalCarts(t, r))
}

func TestRotate_ReturnsConcurrentWinner(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	old, err := r.EnsureActive(ctx)
	require.NoError(t, err)
	winnerID := insertCompetingCart(t, r)

	cart, err := r.Rotate(ctx)
	require.NoError(t, err)
	require.NotZero(t, *winnerID)
	assert.Equal(t, *winnerID, cart.ID)
	assert.NotEqual(t, old.ID, cart.ID)

	var closed models.Cart
	require.NoError(t, r.DB.First(&closed, old.ID).Error)
	assert.False(t, closed.Active)

	n, err := r.CountActive(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.EqualValues(t, 2, totalCarts(t, r))
}
