package domain

// SortKey identifies a catalog sort column
type SortKey string

const (
	SortByName        SortKey = "name"
	SortByPrice       SortKey = "price"
	SortByCreatedAt   SortKey = "created_at"
	SortByReleaseYear SortKey = "release_year"
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// IntRange is an inclusive integer bound used by facet filters
type IntRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// ProductFilter is the structured request for a single catalog query.
// A nil range or empty slice means the facet is unconstrained.
type ProductFilter struct {
	BrandIDs         []int64   `json:"brand_ids"`
	CategoryIDs      []int64   `json:"category_ids"`
	GenderIDs        []int64   `json:"gender_ids"`
	IngredientIDs    []int64   `json:"ingredient_ids"`
	LabelIDs         []int64   `json:"label_ids"`
	PriceRange       *IntRange `json:"price_range"`
	VolumeRange      *IntRange `json:"volume_range"`
	ReleaseYearRange *IntRange `json:"release_year_range"`
	OnSale           bool      `json:"on_sale"`
	InStock          bool      `json:"in_stock"`
	SearchTerm       string    `json:"search_term"`
	OriginCountry    string    `json:"origin_country"`
	SortBy           SortKey   `json:"sort_by"`
	SortOrder        SortOrder `json:"sort_order"`
	Page             int       `json:"page"`
	PageSize         int       `json:"page_size"`
}

// ProductSummary is one catalog result row. Prices are in minor
// currency units, aggregated across the product's variants.
type ProductSummary struct {
	ID              int64  `json:"id" db:"id"`
	Name            string `json:"name" db:"name"`
	Slug            string `json:"slug" db:"slug"`
	Description     string `json:"description" db:"description"`
	ImageURL        string `json:"image_url" db:"image_url"`
	BrandName       string `json:"brand_name" db:"brand_name"`
	MinPrice        int64  `json:"min_price" db:"min_price"`
	MaxPrice        int64  `json:"max_price" db:"max_price"`
	MinSalePrice    *int64 `json:"min_sale_price" db:"min_sale_price"`
	MaxSalePrice    *int64 `json:"max_sale_price" db:"max_sale_price"`
	OnSale          bool   `json:"on_sale" db:"on_sale"`
	DiscountPercent *int   `json:"discount_percent" db:"discount_percent"`
}

// ProductPage is one page of catalog results. TotalCount is the number
// of matching products across all pages, carried once rather than
// repeated per row.
type ProductPage struct {
	Items      []ProductSummary `json:"items"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
}
