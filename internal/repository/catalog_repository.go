package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"parfumerie/internal/domain"
)

// CatalogRepository delegates faceted catalog queries to the
// relational executor in a single round trip
type CatalogRepository interface {
	FilterProducts(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error)
}

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new instance of CatalogRepository
func NewCatalogRepository(db *sql.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// sortColumns maps exposed sort keys to SQL expressions. Anything not
// in this map falls back to created_at.
var sortColumns = map[domain.SortKey]string{
	domain.SortByName:        "p.name",
	domain.SortByPrice:       "min_price",
	domain.SortByCreatedAt:   "p.created_at",
	domain.SortByReleaseYear: "p.release_year",
}

// FilterProducts runs the whole faceted query as one statement. The
// executor repeats the total match count on every row via a window
// function; it is unpacked into a single TotalCount here and never
// leaks past this boundary.
func (r *catalogRepository) FilterProducts(ctx context.Context, filter domain.ProductFilter) (*domain.ProductPage, error) {
	where := []string{}
	args := []interface{}{}
	argIndex := 1

	arg := func(v interface{}) string {
		args = append(args, v)
		placeholder := fmt.Sprintf("$%d", argIndex)
		argIndex++
		return placeholder
	}

	if len(filter.BrandIDs) > 0 {
		where = append(where, fmt.Sprintf("p.brand_id = ANY(%s)", arg(filter.BrandIDs)))
	}
	if len(filter.GenderIDs) > 0 {
		where = append(where, fmt.Sprintf("p.gender_id = ANY(%s)", arg(filter.GenderIDs)))
	}
	if len(filter.CategoryIDs) > 0 {
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = p.id AND pc.category_id = ANY(%s))",
			arg(filter.CategoryIDs)))
	}
	if len(filter.IngredientIDs) > 0 {
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM product_ingredients pi WHERE pi.product_id = p.id AND pi.ingredient_id = ANY(%s))",
			arg(filter.IngredientIDs)))
	}
	if len(filter.LabelIDs) > 0 {
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM product_labels pl WHERE pl.product_id = p.id AND pl.label_id = ANY(%s))",
			arg(filter.LabelIDs)))
	}
	if filter.PriceRange != nil {
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM product_variants pv WHERE pv.product_id = p.id AND COALESCE(pv.sale_price, pv.price) BETWEEN %s AND %s)",
			arg(filter.PriceRange.Min), arg(filter.PriceRange.Max)))
	}
	if filter.VolumeRange != nil {
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM product_variants pv WHERE pv.product_id = p.id AND pv.volume_ml BETWEEN %s AND %s)",
			arg(filter.VolumeRange.Min), arg(filter.VolumeRange.Max)))
	}
	if filter.ReleaseYearRange != nil {
		where = append(where, fmt.Sprintf(
			"p.release_year BETWEEN %s AND %s",
			arg(filter.ReleaseYearRange.Min), arg(filter.ReleaseYearRange.Max)))
	}
	if filter.OnSale {
		where = append(where,
			"EXISTS (SELECT 1 FROM product_variants pv WHERE pv.product_id = p.id AND pv.sale_price IS NOT NULL AND pv.sale_price < pv.price)")
	}
	if filter.InStock {
		where = append(where,
			"EXISTS (SELECT 1 FROM product_variants pv WHERE pv.product_id = p.id AND pv.stock > 0)")
	}
	if term := strings.TrimSpace(filter.SearchTerm); term != "" {
		pattern := arg("%" + term + "%")
		where = append(where, fmt.Sprintf("(p.name ILIKE %s OR p.description ILIKE %s)", pattern, pattern))
	}
	if filter.OriginCountry != "" {
		where = append(where, fmt.Sprintf("p.origin_country = %s", arg(filter.OriginCountry)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	sortColumn, ok := sortColumns[filter.SortBy]
	if !ok {
		sortColumn = "p.created_at"
	}
	direction := "ASC"
	if filter.SortOrder == domain.SortDesc {
		direction = "DESC"
	}

	offset := (filter.Page - 1) * filter.PageSize

	// The id tie-break keeps pagination stable when the primary sort
	// key has duplicates; without it rows can repeat or vanish across
	// adjacent pages.
	query := fmt.Sprintf(`
		SELECT p.id, p.name, p.slug, p.description, p.image_url, b.name,
		       MIN(v.price) AS min_price,
		       MAX(v.price) AS max_price,
		       MIN(v.sale_price) AS min_sale_price,
		       MAX(v.sale_price) AS max_sale_price,
		       BOOL_OR(v.sale_price IS NOT NULL AND v.sale_price < v.price) AS on_sale,
		       COUNT(*) OVER () AS total_count
		FROM products p
		JOIN brands b ON b.id = p.brand_id
		JOIN product_variants v ON v.product_id = p.id
		%s
		GROUP BY p.id, p.name, p.slug, p.description, p.image_url, p.created_at, p.release_year, b.name
		ORDER BY %s %s, p.id ASC
		LIMIT %s OFFSET %s
	`, whereClause, sortColumn, direction, arg(filter.PageSize), arg(offset))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter products: %w", err)
	}
	defer rows.Close()

	page := &domain.ProductPage{
		Items:    []domain.ProductSummary{},
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}

	for rows.Next() {
		var (
			item       domain.ProductSummary
			totalCount int
		)
		err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Slug,
			&item.Description,
			&item.ImageURL,
			&item.BrandName,
			&item.MinPrice,
			&item.MaxPrice,
			&item.MinSalePrice,
			&item.MaxSalePrice,
			&item.OnSale,
			&totalCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product summary: %w", err)
		}

		if item.OnSale && item.MinSalePrice != nil && item.MinPrice > 0 {
			pct := int((item.MinPrice - *item.MinSalePrice) * 100 / item.MinPrice)
			item.DiscountPercent = &pct
		}

		page.Items = append(page.Items, item)
		page.TotalCount = totalCount
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product summaries: %w", err)
	}

	return page, nil
}
