package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"infohub/internal/backend"
	"infohub/internal/domain"
	"infohub/internal/localstore"
)

type stubBackend struct {
	products   []domain.Product
	categories []domain.Category
	err        error
	lastQuery  backend.ProductQuery
}

func (s *stubBackend) Products(_ context.Context, q backend.ProductQuery) ([]domain.Product, error) {
	s.lastQuery = q
	return s.products, s.err
}

func (s *stubBackend) Product(_ context.Context, id int64) (domain.Product, error) {
	if s.err != nil {
		return domain.Product{}, s.err
	}
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("backend status 404: %w", domain.ErrNotFound)
}

func (s *stubBackend) Categories(context.Context) ([]domain.Category, error) {
	return s.categories, s.err
}

func priced(id int64, price, old string) domain.Product {
	p := domain.Product{ID: id, Name: "p", Price: decimal.RequireFromString(price)}
	if old != "" {
		o := decimal.RequireFromString(old)
		p.OldPrice = &o
	}
	return p
}

func TestProductsFallBackToCache(t *testing.T) {
	b := &stubBackend{products: []domain.Product{priced(1, "10", ""), priced(2, "20", "")}}
	svc := New(b, localstore.NewMemory(), nil)
	ctx := context.Background()

	if got := svc.Products(ctx, backend.ProductQuery{}); len(got) != 2 {
		t.Fatalf("expected 2 products, got %d", len(got))
	}

	b.err = domain.ErrBackendUnavailable
	got := svc.Products(ctx, backend.ProductQuery{})
	if len(got) != 2 || !got[1].Price.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected cached products, got %+v", got)
	}

	if got := svc.Products(ctx, backend.ProductQuery{CategoryID: 9}); got == nil || len(got) != 0 {
		t.Fatalf("expected empty list for an uncached query, got %+v", got)
	}
}

func TestSearchesDoNotGrowCache(t *testing.T) {
	b := &stubBackend{products: []domain.Product{
		{ID: 1, Name: "Mouse Gamer", Price: decimal.NewFromInt(10)},
		{ID: 2, Name: "Teclado", Price: decimal.NewFromInt(20)},
	}}
	cache := localstore.NewMemory()
	svc := New(b, cache, nil)
	ctx := context.Background()

	svc.Products(ctx, backend.ProductQuery{})
	before := cache.Len()
	for i := 0; i < 500; i++ {
		svc.Products(ctx, backend.ProductQuery{Search: fmt.Sprintf("busca %d", i)})
	}
	b.products = nil
	for i := 0; i < 500; i++ {
		svc.Products(ctx, backend.ProductQuery{CategoryID: int64(1000 + i)})
	}
	if cache.Len() != before {
		t.Fatalf("cache grew from %d to %d keys", before, cache.Len())
	}

	b.err = domain.ErrBackendUnavailable
	got := svc.Products(ctx, backend.ProductQuery{Search: " mouse "})
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("expected search answered from the cached listing, got %+v", got)
	}
}

func TestProductFallbacks(t *testing.T) {
	b := &stubBackend{products: []domain.Product{priced(1, "10", ""), priced(2, "20", "")}}
	svc := New(b, nil, nil)
	ctx := context.Background()

	if _, err := svc.Product(ctx, 99); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found from backend, got %v", err)
	}

	_ = svc.Products(ctx, backend.ProductQuery{})
	b.err = domain.ErrBackendUnavailable

	p, err := svc.Product(ctx, 2)
	if err != nil || p.ID != 2 {
		t.Fatalf("expected product from cached list, got %+v err=%v", p, err)
	}
	if _, err := svc.Product(ctx, 3); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found with nothing cached, got %v", err)
	}
}

func TestPromotions(t *testing.T) {
	b := &stubBackend{products: []domain.Product{priced(1, "10", "15"), priced(2, "20", "20"), priced(3, "5", "")}}
	svc := New(b, nil, nil)

	promos := svc.Promotions(context.Background())
	if len(promos) != 1 || promos[0].ID != 1 {
		t.Fatalf("unexpected promotions %+v", promos)
	}
	if !b.lastQuery.OnSale {
		t.Fatalf("expected sale filter sent to backend")
	}
}

func TestCategoriesDegrade(t *testing.T) {
	b := &stubBackend{err: domain.ErrBackendUnavailable}
	svc := New(b, nil, nil)
	if got := svc.Categories(context.Background()); got == nil || len(got) != 0 {
		t.Fatalf("expected empty categories, got %v", got)
	}

	b.err = nil
	b.categories = []domain.Category{{ID: 1, Name: "Hardware"}}
	_ = svc.Categories(context.Background())
	b.err = domain.ErrBackendUnavailable
	if got := svc.Categories(context.Background()); len(got) != 1 || got[0].Name != "Hardware" {
		t.Fatalf("expected cached categories, got %v", got)
	}
}
