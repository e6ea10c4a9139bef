package transport

import (
	"errors"
	"net/http"

	"parfumerie/internal/domain"
	"parfumerie/internal/middleware"
	"parfumerie/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RangePayload is an inclusive numeric bound in a query request
type RangePayload struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// ProductQueryRequest is the faceted catalog query payload
type ProductQueryRequest struct {
	BrandIDs         []int64       `json:"brand_ids"`
	CategoryIDs      []int64       `json:"category_ids"`
	GenderIDs        []int64       `json:"gender_ids"`
	IngredientIDs    []int64       `json:"ingredient_ids"`
	LabelIDs         []int64       `json:"label_ids"`
	PriceRange       *RangePayload `json:"price_range"`
	VolumeRange      *RangePayload `json:"volume_range"`
	ReleaseYearRange *RangePayload `json:"release_year_range"`
	OnSale           bool          `json:"on_sale"`
	InStock          bool          `json:"in_stock"`
	SearchTerm       string        `json:"search_term" validate:"omitempty,max=200"`
	OriginCountry    string        `json:"origin_country" validate:"omitempty,max=100"`
	SortBy           string        `json:"sort_by" validate:"omitempty,oneof=name price created_at release_year"`
	SortOrder        string        `json:"sort_order" validate:"omitempty,oneof=asc desc"`
	Page             int           `json:"page" validate:"required,gte=1"`
	PageSize         int           `json:"page_size" validate:"required,gte=1,lte=100"`
}

// CatalogHandler handles HTTP requests for catalog queries
type CatalogHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// RegisterRoutes registers the catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/catalog/query", h.Query)
}

// Query handles the faceted product query
func (h *CatalogHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req ProductQueryRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Catalog query validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	page, err := h.catalogService.QueryProducts(r.Context(), toDomainFilter(req))
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			middleware.RespondWithError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		if errors.Is(err, service.ErrQueryExecution) {
			h.logger.Error("Catalog query failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusBadGateway, "catalog query failed")
			return
		}

		h.logger.Error("Unexpected catalog query error", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to query products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func toDomainFilter(req ProductQueryRequest) domain.ProductFilter {
	return domain.ProductFilter{
		BrandIDs:         req.BrandIDs,
		CategoryIDs:      req.CategoryIDs,
		GenderIDs:        req.GenderIDs,
		IngredientIDs:    req.IngredientIDs,
		LabelIDs:         req.LabelIDs,
		PriceRange:       toDomainRange(req.PriceRange),
		VolumeRange:      toDomainRange(req.VolumeRange),
		ReleaseYearRange: toDomainRange(req.ReleaseYearRange),
		OnSale:           req.OnSale,
		InStock:          req.InStock,
		SearchTerm:       req.SearchTerm,
		OriginCountry:    req.OriginCountry,
		SortBy:           domain.SortKey(req.SortBy),
		SortOrder:        domain.SortOrder(req.SortOrder),
		Page:             req.Page,
		PageSize:         req.PageSize,
	}
}

func toDomainRange(r *RangePayload) *domain.IntRange {
	if r == nil {
		return nil
	}
	return &domain.IntRange{Min: r.Min, Max: r.Max}
}
