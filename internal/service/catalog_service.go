package service

import (
	"context"
	"errors"
	"fmt"

	"parfumerie/internal/domain"
	"parfumerie/internal/repository"
)

// ErrQueryExecution wraps a failure of the delegated query executor.
// The underlying message is preserved; the call is never retried here.
var ErrQueryExecution = errors.New("catalog query execution failed")

// ValidationError reports a malformed request field, rejected before
// any delegated call is made
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CatalogService defines the catalog query contract
type CatalogService interface {
	QueryProducts(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error)
}

type catalogService struct {
	catalogRepo repository.CatalogRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(catalogRepo repository.CatalogRepository) CatalogService {
	return &catalogService{catalogRepo: catalogRepo}
}

// QueryProducts validates the filter and delegates the match to the
// external executor in a single call
func (s *catalogService) QueryProducts(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	if err := validateFilter(&filter); err != nil {
		return nil, err
	}

	page, err := s.catalogRepo.FilterProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecution, err)
	}

	return page, nil
}

// validateFilter checks structural constraints and normalizes the sort
// defaults in place
func validateFilter(filter *domain.ProductFilter) error {
	ranges := map[string]*domain.IntRange{
		"price_range":        filter.PriceRange,
		"volume_range":       filter.VolumeRange,
		"release_year_range": filter.ReleaseYearRange,
	}
	for field, r := range ranges {
		if r == nil {
			continue
		}
		if r.Min > r.Max {
			return &ValidationError{Field: field, Reason: "min must not exceed max"}
		}
	}

	if filter.Page < 1 {
		return &ValidationError{Field: "page", Reason: "must be at least 1"}
	}
	if filter.PageSize < 1 {
		return &ValidationError{Field: "page_size", Reason: "must be at least 1"}
	}

	switch filter.SortBy {
	case "":
		filter.SortBy = domain.SortByCreatedAt
	case domain.SortByName, domain.SortByPrice, domain.SortByCreatedAt, domain.SortByReleaseYear:
	default:
		return &ValidationError{Field: "sort_by", Reason: "unknown sort key"}
	}

	switch filter.SortOrder {
	case "":
		filter.SortOrder = domain.SortAsc
	case domain.SortAsc, domain.SortDesc:
	default:
		return &ValidationError{Field: "sort_order", Reason: "must be asc or desc"}
	}

	return nil
}
