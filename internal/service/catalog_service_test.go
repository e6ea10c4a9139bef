package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"parfumerie/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// mockCatalogRepository applies the filter contract in memory: match,
// sort with the id tie-break, then slice one page.
type mockCatalogRepository struct {
	products []catalogRow
	err      error
}

type catalogRow struct {
	summary domain.ProductSummary
	price   int64
	created int64
}

func (m *mockCatalogRepository) FilterProducts(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	if m.err != nil {
		return nil, m.err
	}

	matched := make([]catalogRow, 0, len(m.products))
	for _, row := range m.products {
		if filter.PriceRange != nil && (row.price < filter.PriceRange.Min || row.price > filter.PriceRange.Max) {
			continue
		}
		matched = append(matched, row)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		var less, equal bool
		switch filter.SortBy {
		case domain.SortByPrice:
			less, equal = matched[i].price < matched[j].price, matched[i].price == matched[j].price
		default:
			less, equal = matched[i].created < matched[j].created, matched[i].created == matched[j].created
		}
		if filter.SortOrder == domain.SortDesc {
			less = !less && !equal
		}
		if equal {
			return matched[i].summary.ID < matched[j].summary.ID
		}
		return less
	})

	page := &domain.ProductPage{
		Items:      []domain.ProductSummary{},
		TotalCount: len(matched),
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}

	start := (filter.Page - 1) * filter.PageSize
	for i := start; i < len(matched) && i < start+filter.PageSize; i++ {
		page.Items = append(page.Items, matched[i].summary)
	}

	return page, nil
}

func TestQueryProductsRejectsInvalidFilters(t *testing.T) {
	service := NewCatalogService(&mockCatalogRepository{})
	ctx := context.Background()

	tests := []struct {
		name   string
		filter domain.ProductFilter
		field  string
	}{
		{
			"inverted price range",
			domain.ProductFilter{PriceRange: &domain.IntRange{Min: 100, Max: 50}, Page: 1, PageSize: 10},
			"price_range",
		},
		{
			"inverted volume range",
			domain.ProductFilter{VolumeRange: &domain.IntRange{Min: 100, Max: 30}, Page: 1, PageSize: 10},
			"volume_range",
		},
		{
			"inverted release year range",
			domain.ProductFilter{ReleaseYearRange: &domain.IntRange{Min: 2024, Max: 1999}, Page: 1, PageSize: 10},
			"release_year_range",
		},
		{
			"zero page",
			domain.ProductFilter{Page: 0, PageSize: 10},
			"page",
		},
		{
			"zero page size",
			domain.ProductFilter{Page: 1, PageSize: 0},
			"page_size",
		},
		{
			"unknown sort key",
			domain.ProductFilter{SortBy: "popularity", Page: 1, PageSize: 10},
			"sort_by",
		},
		{
			"unknown sort order",
			domain.ProductFilter{SortOrder: "sideways", Page: 1, PageSize: 10},
			"sort_order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.QueryProducts(ctx, tt.filter)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, vErr.Field)
			}
		})
	}
}

func TestQueryProductsDefaultsSort(t *testing.T) {
	repo := &mockCatalogRepository{}
	service := NewCatalogService(repo)

	page, err := service.QueryProducts(context.Background(), domain.ProductFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.TotalCount != 0 || len(page.Items) != 0 {
		t.Errorf("expected empty page, got %d items, total %d", len(page.Items), page.TotalCount)
	}
}

func TestQueryProductsWrapsExecutorFailure(t *testing.T) {
	repo := &mockCatalogRepository{err: errors.New("connection refused")}
	service := NewCatalogService(repo)

	_, err := service.QueryProducts(context.Background(), domain.ProductFilter{Page: 1, PageSize: 10})
	if !errors.Is(err, ErrQueryExecution) {
		t.Fatalf("expected ErrQueryExecution, got %v", err)
	}
	if err.Error() == ErrQueryExecution.Error() {
		t.Error("expected the underlying failure message to be preserved")
	}
}

func seededCatalog(n int) *mockCatalogRepository {
	repo := &mockCatalogRepository{}
	for i := 0; i < n; i++ {
		repo.products = append(repo.products, catalogRow{
			summary: domain.ProductSummary{
				ID:   int64(i + 1),
				Name: fmt.Sprintf("Eau de Test %d", i+1),
				Slug: fmt.Sprintf("eau-de-test-%d", i+1),
			},
			// Duplicated prices force the id tie-break to do real work.
			price:   int64((i % 7) * 500),
			created: int64(i % 5),
		})
	}
	return repo
}

// Feature: storefront-core, Property 1: A page never exceeds its size
// and the total count is the full match count
func TestProperty_PageSizeAndTotalCount(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("page holds at most page_size items and total counts all matches", prop.ForAll(
		func(productCount, page, pageSize int) bool {
			repo := seededCatalog(productCount)
			service := NewCatalogService(repo)

			result, err := service.QueryProducts(context.Background(), domain.ProductFilter{
				Page:     page,
				PageSize: pageSize,
			})
			if err != nil {
				t.Logf("query failed: %v", err)
				return false
			}

			if len(result.Items) > pageSize {
				t.Logf("page of %d items exceeds page size %d", len(result.Items), pageSize)
				return false
			}
			if result.TotalCount != productCount {
				t.Logf("expected total %d, got %d", productCount, result.TotalCount)
				return false
			}
			return true
		},
		gen.IntRange(0, 60),
		gen.IntRange(1, 10),
		gen.IntRange(1, 25),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: storefront-core, Property 2: Paginating the full result set
// yields every match exactly once
func TestProperty_PaginationHasNoDuplicatesOrGaps(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("walking all pages visits each product exactly once", prop.ForAll(
		func(productCount, pageSize int, sortDesc bool) bool {
			repo := seededCatalog(productCount)
			service := NewCatalogService(repo)

			order := domain.SortAsc
			if sortDesc {
				order = domain.SortDesc
			}

			seen := map[int64]int{}
			for page := 1; ; page++ {
				result, err := service.QueryProducts(context.Background(), domain.ProductFilter{
					SortBy:    domain.SortByPrice,
					SortOrder: order,
					Page:      page,
					PageSize:  pageSize,
				})
				if err != nil {
					t.Logf("query failed on page %d: %v", page, err)
					return false
				}
				for _, item := range result.Items {
					seen[item.ID]++
				}
				if len(result.Items) < pageSize {
					break
				}
			}

			if len(seen) != productCount {
				t.Logf("expected %d distinct products, saw %d", productCount, len(seen))
				return false
			}
			for id, count := range seen {
				if count != 1 {
					t.Logf("product %d appeared %d times", id, count)
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 60),
		gen.IntRange(1, 9),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
