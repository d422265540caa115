package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"infohub/internal/backend"
	"infohub/internal/domain"
	"infohub/internal/localstore"
)

type Backend interface {
	Products(ctx context.Context, q backend.ProductQuery) ([]domain.Product, error)
	Product(ctx context.Context, id int64) (domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
}

const keyCategories = "catalog:categories"

// Service reads products and categories from the backend. Successful reads refresh the cache;
// when the backend is unavailable the last cached copy is served.
type Service struct {
	backend Backend
	cache   localstore.Store
	logger  *log.Logger
}

func New(b Backend, cache localstore.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if cache == nil {
		cache = localstore.NewMemory()
	}
	return &Service{backend: b, cache: cache, logger: logger}
}

// productsKey leaves the search text out so user input cannot grow the cache. Searches are
// answered from the cached listing of the same category when the backend is down.
func productsKey(q backend.ProductQuery) string {
	return fmt.Sprintf("catalog:products:%d:%t", q.CategoryID, q.OnSale)
}

func productKey(id int64) string {
	return "catalog:product:" + strconv.FormatInt(id, 10)
}

// Products never fails; an empty list means neither backend nor cache had data.
func (s *Service) Products(ctx context.Context, q backend.ProductQuery) []domain.Product {
	key := productsKey(q)
	search := strings.ToLower(strings.TrimSpace(q.Search))
	products, err := s.backend.Products(ctx, q)
	if err == nil {
		// unknown category ids come back empty and are not worth a key
		if search == "" && (q.CategoryID == 0 || len(products) > 0) {
			s.store(ctx, key, products)
		}
		return products
	}
	s.logger.Printf("catalog: products key=%s search=%q error=%v", key, search, err)

	var cached []domain.Product
	if !s.load(ctx, key, &cached) {
		return []domain.Product{}
	}
	if search == "" {
		return cached
	}
	out := []domain.Product{}
	for _, p := range cached {
		if strings.Contains(strings.ToLower(p.Name), search) {
			out = append(out, p)
		}
	}
	return out
}

// Promotions are products whose old price is above the current one.
func (s *Service) Promotions(ctx context.Context) []domain.Product {
	var out []domain.Product
	for _, p := range s.Products(ctx, backend.ProductQuery{OnSale: true}) {
		if p.OldPrice != nil && p.OldPrice.GreaterThan(p.Price) {
			out = append(out, p)
		}
	}
	if out == nil {
		return []domain.Product{}
	}
	return out
}

// Product returns domain.ErrNotFound when the backend says so or when it is down and nothing is cached.
func (s *Service) Product(ctx context.Context, id int64) (domain.Product, error) {
	p, err := s.backend.Product(ctx, id)
	if err == nil {
		s.store(ctx, productKey(id), p)
		return p, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	s.logger.Printf("catalog: product id=%d error=%v", id, err)

	if s.load(ctx, productKey(id), &p) {
		return p, nil
	}
	var all []domain.Product
	if s.load(ctx, productsKey(backend.ProductQuery{}), &all) {
		for _, candidate := range all {
			if candidate.ID == id {
				return candidate, nil
			}
		}
	}
	return domain.Product{}, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
}

func (s *Service) Categories(ctx context.Context) []domain.Category {
	categories, err := s.backend.Categories(ctx)
	if err == nil {
		s.store(ctx, keyCategories, categories)
		return categories
	}
	s.logger.Printf("catalog: categories error=%v", err)

	var cached []domain.Category
	if s.load(ctx, keyCategories, &cached) {
		return cached
	}
	return []domain.Category{}
}

func (s *Service) store(ctx context.Context, key string, v interface{}) {
	if err := localstore.SetJSON(ctx, s.cache, key, v); err != nil {
		s.logger.Printf("catalog: cache set key=%s error=%v", key, err)
	}
}

func (s *Service) load(ctx context.Context, key string, out interface{}) bool {
	if err := localstore.GetJSON(ctx, s.cache, key, out); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Printf("catalog: cache get key=%s error=%v", key, err)
		}
		return false
	}
	return true
}
