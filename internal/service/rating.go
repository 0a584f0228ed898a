package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/coffee_shop/internal/repo"
)

// RatingAggregator derives a product's rating from its comment ledger.
type RatingAggregator struct {
	Repo *repo.GormRepo
}

// Recompute returns the arithmetic mean of every rating recorded for the
// product, or 0 when there are none.
func (a *RatingAggregator) Recompute(ctx context.Context, productID uint) (float64, error) {
	ratings, err := a.Repo.RatingsFor(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("load ratings for product %d: %w", productID, err)
	}
	return Mean(ratings), nil
}

func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
