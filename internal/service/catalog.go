package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/Skotchmaster/coffee_shop/internal/cache"
	"github.com/Skotchmaster/coffee_shop/internal/es"
	"github.com/Skotchmaster/coffee_shop/internal/logging"
	"github.com/Skotchmaster/coffee_shop/internal/models"
	"github.com/Skotchmaster/coffee_shop/internal/repo"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
)

type CatalogService struct {
	Repo  *repo.GormRepo
	Cache cache.ProductCache
	Index es.ProductIndex
	// Serialized runs comment append, recompute and rating write as one
	// transaction under an in-process lock.
	Serialized bool

	mu sync.Mutex
}

func (s *CatalogService) cache() cache.ProductCache {
	if s.Cache == nil {
		return cache.Noop{}
	}
	return s.Cache
}

func (s *CatalogService) index() es.ProductIndex {
	if s.Index == nil {
		return es.Disabled{}
	}
	return s.Index
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s not found: %w", what, ErrNotFound)
	}
	return err
}

// sync drops the cached copy and pushes the current row to the search index.
// Failures are logged; the database stays the source of truth.
func (s *CatalogService) sync(ctx context.Context, p *models.Product) {
	l := logging.FromContext(ctx).With("svc", "catalog.sync", "product_id", p.ID)
	if err := s.cache().Invalidate(ctx, p.ID); err != nil {
		l.Warn("cache_invalidate_failed", "error", err)
	}
	if err := s.index().Index(ctx, p); err != nil {
		l.Warn("index_product_failed", "error", err)
	}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.Repo.ListProducts(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.get_product", "product_id", id)

	p, err := s.cache().Get(ctx, id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		l.Warn("cache_get_failed", "error", err)
	}

	p, err = s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if err := s.cache().Set(ctx, p); err != nil {
		l.Warn("cache_set_failed", "error", err)
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.ProductRequest) (*models.Product, error) {
	if err := transport.Validate(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrValidation)
	}
	p := req.ToModel(0)
	if err := s.Repo.CreateProduct(ctx, &p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.sync(ctx, &p)
	return &p, nil
}

// UpdateProduct replaces every client-owned field. The stored rating is kept.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, req transport.ProductRequest) (*models.Product, error) {
	if err := transport.Validate(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrValidation)
	}
	p := req.ToModel(id)
	if err := s.Repo.ReplaceProduct(ctx, &p); err != nil {
		return nil, notFound(err, "product")
	}
	s.sync(ctx, &p)
	return &p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return notFound(err, "product")
	}
	l := logging.FromContext(ctx).With("svc", "catalog.delete_product", "product_id", id)
	if err := s.cache().Invalidate(ctx, id); err != nil {
		l.Warn("cache_invalidate_failed", "error", err)
	}
	if err := s.index().Delete(ctx, id); err != nil {
		l.Warn("unindex_product_failed", "error", err)
	}
	return nil
}

// AddComment appends to the ledger, recomputes the product rating and writes it
// back, returning the new rating. Outside serialized mode the three steps are
// separate statements and a failure after the insert leaves the comment stored.
func (s *CatalogService) AddComment(ctx context.Context, productID uint, req transport.CommentRequest) (float64, error) {
	if err := transport.Validate(req); err != nil {
		return 0, fmt.Errorf("%v: %w", err, ErrValidation)
	}
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return 0, notFound(err, "product")
	}

	comment := models.Comment{
		ProductID: productID,
		Username:  req.Username,
		Comment:   req.Comment,
		Rating:    req.Rating,
	}

	var rating float64
	if s.Serialized {
		s.mu.Lock()
		defer s.mu.Unlock()
		err := s.Repo.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			r, err := appendAndRecompute(ctx, repo.New(tx), &comment)
			rating = r
			return err
		})
		if err != nil {
			return 0, notFound(err, "product")
		}
	} else {
		r, err := appendAndRecompute(ctx, s.Repo, &comment)
		if err != nil {
			return 0, notFound(err, "product")
		}
		rating = r
	}

	if p, err := s.Repo.GetProduct(ctx, productID); err == nil {
		s.sync(ctx, p)
	}
	return rating, nil
}

func appendAndRecompute(ctx context.Context, r *repo.GormRepo, c *models.Comment) (float64, error) {
	if err := r.AddComment(ctx, c); err != nil {
		return 0, fmt.Errorf("add comment: %w", err)
	}
	rating, err := (&RatingAggregator{Repo: r}).Recompute(ctx, c.ProductID)
	if err != nil {
		return 0, err
	}
	if err := r.SetProductRating(ctx, c.ProductID, rating); err != nil {
		return 0, fmt.Errorf("write product rating: %w", err)
	}
	return rating, nil
}

func (s *CatalogService) ListComments(ctx context.Context, productID uint) ([]models.Comment, error) {
	return s.Repo.ListComments(ctx, productID)
}

// SearchProducts queries the search index when one is configured and falls
// back to a SQL LIKE match otherwise or when the index errors.
func (s *CatalogService) SearchProducts(ctx context.Context, q string) ([]models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("query must not be empty: %w", ErrValidation)
	}

	if idx := s.index(); idx.Enabled() {
		items, err := idx.Search(ctx, q)
		if err == nil {
			return items, nil
		}
		logging.FromContext(ctx).Warn("index_search_failed", "svc", "catalog.search", "error", err)
	}
	return s.Repo.SearchProducts(ctx, q)
}
