package repo

import (
	"context"

	"github.com/Skotchmaster/coffee_shop/internal/models"
)

func (r *GormRepo) AddComment(ctx context.Context, comment *models.Comment) error {
	return r.DB.WithContext(ctx).Create(comment).Error
}

func (r *GormRepo) ListComments(ctx context.Context, productID uint) ([]models.Comment, error) {
	items := make([]models.Comment, 0)
	if err := r.DB.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) RatingsFor(ctx context.Context, productID uint) ([]float64, error) {
	ratings := make([]float64, 0)
	if err := r.DB.WithContext(ctx).
		Model(&models.Comment{}).
		Where("product_id = ?", productID).
		Order("id ASC").
		Pluck("rating", &ratings).Error; err != nil {
		return nil, err
	}
	return ratings, nil
}
