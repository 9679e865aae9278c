package services

import (
	"context"
	"time"

	"shopfront/internal/cache"
	"shopfront/internal/domain"
	"shopfront/internal/query"
)

// RelatedLimit caps the "you may also like" list on the product page.
const RelatedLimit = "12"

type CatalogService struct {
	API   CatalogAPI
	Cache *cache.Cache
	// Stale is how long fetched lists stay fresh.
	Stale time.Duration
}

func NewCatalogService(api CatalogAPI, c *cache.Cache, stale time.Duration) *CatalogService {
	return &CatalogService{API: api, Cache: c, Stale: stale}
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	return cache.Fetch(ctx, s.Cache, "categories", s.Stale, s.API.Categories)
}

// Products is keyed by the whole encoded config, so any filter change is a
// different entry.
func (s *CatalogService) Products(ctx context.Context, cfg query.Config) (domain.ProductList, error) {
	return cache.Fetch(ctx, s.Cache, cache.Key("products", cfg.Encode()), s.Stale, func(ctx context.Context) (domain.ProductList, error) {
		return s.API.Products(ctx, cfg)
	})
}

func (s *CatalogService) Product(ctx context.Context, id string) (domain.Product, error) {
	return cache.Fetch(ctx, s.Cache, cache.Key("product", id), s.Stale, func(ctx context.Context) (domain.Product, error) {
		return s.API.Product(ctx, id)
	})
}

// Related lists other products of p's category.
func (s *CatalogService) Related(ctx context.Context, p domain.Product) ([]domain.Product, error) {
	if p.Category.ID == "" {
		return nil, nil
	}
	cfg := query.Config{query.Page: query.DefaultPage, query.Limit: RelatedLimit, query.Category: p.Category.ID}
	list, err := s.Products(ctx, cfg)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(list.Products))
	for _, x := range list.Products {
		if x.ID != p.ID {
			out = append(out, x)
		}
	}
	return out, nil
}
