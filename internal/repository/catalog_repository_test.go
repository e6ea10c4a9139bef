package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"testing"
	"time"

	"parfumerie/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var testDB *sql.DB

func setupTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, err
	}

	connStr := "postgres://" + dbUser + ":" + dbPwd + "@" + dbHost + ":" + dbPort.Port() + "/" + dbName + "?sslmode=disable"
	testDB, err = sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	// The same migrations the server runs at startup
	if err := goose.SetDialect("postgres"); err != nil {
		return dbContainer.Terminate, err
	}
	if err := goose.Up(testDB, "../../migrations"); err != nil {
		return dbContainer.Terminate, err
	}

	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	teardown, err := setupTestDB()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("could not teardown postgres container: %v", err)
		}
	}
}

// seededProduct is the reference view of one seeded product, used to
// compute expected query results in Go.
type seededProduct struct {
	id    int64
	price int64
}

// seedCatalog inserts one brand and n single-variant products with
// deterministic prices. Duplicate prices are intentional so the id
// tie-break is exercised.
func seedCatalog(t *testing.T, n int) []seededProduct {
	t.Helper()

	var brandID int64
	err := testDB.QueryRow(
		"INSERT INTO brands (name) VALUES ($1) RETURNING id",
		fmt.Sprintf("Maison Test %d", time.Now().UnixNano()),
	).Scan(&brandID)
	if err != nil {
		t.Fatalf("Failed to seed brand: %v", err)
	}

	seeded := make([]seededProduct, 0, n)
	for i := 0; i < n; i++ {
		price := int64((i%6)*1000 + 500)

		var productID int64
		err := testDB.QueryRow(`
			INSERT INTO products (name, slug, description, brand_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`,
			fmt.Sprintf("Essence %d", i),
			fmt.Sprintf("essence-%d-%d", time.Now().UnixNano(), i),
			"A test fragrance",
			brandID,
		).Scan(&productID)
		if err != nil {
			t.Fatalf("Failed to seed product: %v", err)
		}

		_, err = testDB.Exec(`
			INSERT INTO product_variants (product_id, volume_ml, price, stock)
			VALUES ($1, $2, $3, $4)
		`, productID, 50, price, 10)
		if err != nil {
			t.Fatalf("Failed to seed variant: %v", err)
		}

		seeded = append(seeded, seededProduct{id: productID, price: price})
	}

	t.Cleanup(func() {
		for _, p := range seeded {
			_, _ = testDB.Exec("DELETE FROM products WHERE id = $1", p.id)
		}
		_, _ = testDB.Exec("DELETE FROM brands WHERE id = $1", brandID)
	})

	return seeded
}

func TestFilterProductsEmptyResult(t *testing.T) {
	repo := NewCatalogRepository(testDB)

	page, err := repo.FilterProducts(context.Background(), domain.ProductFilter{
		SearchTerm: "no-such-product-anywhere",
		SortBy:     domain.SortByCreatedAt,
		SortOrder:  domain.SortAsc,
		Page:       1,
		PageSize:   10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.TotalCount != 0 {
		t.Errorf("expected total 0, got %d", page.TotalCount)
	}
	if len(page.Items) != 0 {
		t.Errorf("expected no items, got %d", len(page.Items))
	}
}

// Feature: storefront-core, Property 7: The delegated query matches,
// counts, sorts and paginates in one statement
func TestProperty_FilterProductsMatchesAndPaginates(t *testing.T) {
	seeded := seedCatalog(t, 30)
	repo := NewCatalogRepository(testDB)
	ctx := context.Background()

	seededByID := map[int64]seededProduct{}
	for _, p := range seeded {
		seededByID[p.id] = p
	}

	properties := gopter.NewProperties(nil)

	properties.Property("price-filtered pages cover exactly the matching products", prop.ForAll(
		func(minPrice, span int64, pageSize int) bool {
			maxPrice := minPrice + span

			expected := map[int64]bool{}
			for _, p := range seeded {
				if p.price >= minPrice && p.price <= maxPrice {
					expected[p.id] = true
				}
			}

			collected := map[int64]int{}
			var lastPrice int64 = -1
			var lastID int64 = -1

			for pageNum := 1; ; pageNum++ {
				page, err := repo.FilterProducts(ctx, domain.ProductFilter{
					PriceRange: &domain.IntRange{Min: minPrice, Max: maxPrice},
					SortBy:     domain.SortByPrice,
					SortOrder:  domain.SortAsc,
					Page:       pageNum,
					PageSize:   pageSize,
				})
				if err != nil {
					t.Logf("FAIL: query failed on page %d: %v", pageNum, err)
					return false
				}

				if len(page.Items) > pageSize {
					t.Logf("FAIL: page %d holds %d items, page size is %d", pageNum, len(page.Items), pageSize)
					return false
				}
				if len(page.Items) > 0 && page.TotalCount != len(expected) {
					t.Logf("FAIL: expected total %d, got %d", len(expected), page.TotalCount)
					return false
				}

				for _, item := range page.Items {
					ref, mine := seededByID[item.ID]
					if !mine {
						t.Logf("FAIL: unexpected product %d in results", item.ID)
						return false
					}
					if !expected[item.ID] {
						t.Logf("FAIL: product %d (price %d) outside range [%d,%d]", item.ID, ref.price, minPrice, maxPrice)
						return false
					}
					collected[item.ID]++

					// Sorted by price, id breaks ties
					if item.MinPrice < lastPrice || (item.MinPrice == lastPrice && item.ID <= lastID) {
						t.Logf("FAIL: ordering violated at product %d", item.ID)
						return false
					}
					lastPrice, lastID = item.MinPrice, item.ID
				}

				if len(page.Items) < pageSize {
					break
				}
			}

			for id := range expected {
				if collected[id] != 1 {
					t.Logf("FAIL: product %d seen %d times across pages", id, collected[id])
					return false
				}
			}
			return true
		},
		gen.Int64Range(0, 4000),
		gen.Int64Range(0, 3000),
		gen.IntRange(1, 7),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestFilterProductsFacets(t *testing.T) {
	seeded := seedCatalog(t, 5)
	repo := NewCatalogRepository(testDB)
	ctx := context.Background()

	t.Run("in stock filter matches seeded variants", func(t *testing.T) {
		page, err := repo.FilterProducts(ctx, domain.ProductFilter{
			InStock:    true,
			PriceRange: &domain.IntRange{Min: 0, Max: 100_000},
			SortBy:     domain.SortByPrice,
			SortOrder:  domain.SortAsc,
			Page:       1,
			PageSize:   100,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		found := map[int64]bool{}
		for _, item := range page.Items {
			found[item.ID] = true
		}
		for _, p := range seeded {
			if !found[p.id] {
				t.Errorf("seeded in-stock product %d missing from results", p.id)
			}
		}
	})

	t.Run("on sale filter excludes full-price products", func(t *testing.T) {
		page, err := repo.FilterProducts(ctx, domain.ProductFilter{
			OnSale:    true,
			SortBy:    domain.SortByPrice,
			SortOrder: domain.SortAsc,
			Page:      1,
			PageSize:  100,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, item := range page.Items {
			for _, p := range seeded {
				if item.ID == p.id {
					t.Errorf("full-price product %d returned by on-sale filter", p.id)
				}
			}
		}
	})

	t.Run("search matches by name", func(t *testing.T) {
		page, err := repo.FilterProducts(ctx, domain.ProductFilter{
			SearchTerm: "Essence",
			SortBy:     domain.SortByName,
			SortOrder:  domain.SortAsc,
			Page:       1,
			PageSize:   100,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.TotalCount < len(seeded) {
			t.Errorf("expected at least %d matches for name search, got %d", len(seeded), page.TotalCount)
		}
	})
}

func TestFilterProductsSalePricing(t *testing.T) {
	repo := NewCatalogRepository(testDB)
	ctx := context.Background()

	var brandID int64
	err := testDB.QueryRow(
		"INSERT INTO brands (name) VALUES ($1) RETURNING id",
		fmt.Sprintf("Sale Brand %d", time.Now().UnixNano()),
	).Scan(&brandID)
	if err != nil {
		t.Fatalf("Failed to seed brand: %v", err)
	}

	slug := fmt.Sprintf("soldes-%d", time.Now().UnixNano())
	var productID int64
	err = testDB.QueryRow(`
		INSERT INTO products (name, slug, description, brand_id)
		VALUES ('Soldes Privee', $1, 'Discounted fragrance', $2)
		RETURNING id
	`, slug, brandID).Scan(&productID)
	if err != nil {
		t.Fatalf("Failed to seed product: %v", err)
	}

	_, err = testDB.Exec(`
		INSERT INTO product_variants (product_id, volume_ml, price, sale_price, stock)
		VALUES ($1, 100, 10000, 7500, 3)
	`, productID)
	if err != nil {
		t.Fatalf("Failed to seed variant: %v", err)
	}

	t.Cleanup(func() {
		_, _ = testDB.Exec("DELETE FROM products WHERE id = $1", productID)
		_, _ = testDB.Exec("DELETE FROM brands WHERE id = $1", brandID)
	})

	page, err := repo.FilterProducts(ctx, domain.ProductFilter{
		SearchTerm: "Soldes Privee",
		OnSale:     true,
		SortBy:     domain.SortByPrice,
		SortOrder:  domain.SortAsc,
		Page:       1,
		PageSize:   10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected one sale product, got %d", len(page.Items))
	}

	item := page.Items[0]
	if !item.OnSale {
		t.Error("expected product to be flagged on sale")
	}
	if item.MinSalePrice == nil || *item.MinSalePrice != 7500 {
		t.Errorf("expected min sale price 7500, got %v", item.MinSalePrice)
	}
	if item.DiscountPercent == nil || *item.DiscountPercent != 25 {
		t.Errorf("expected 25%% discount, got %v", item.DiscountPercent)
	}
}
