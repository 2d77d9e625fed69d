package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var seededTee = uuid.MustParse("6f1c1a52-7d0e-4b53-9a57-0d7c8a1e0001")

func TestRepositorySeededCatalog(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())
	ctx := context.Background()

	product, err := repo.FindActiveByID(ctx, seededTee)
	if err != nil {
		t.Fatalf("find seeded product: %v", err)
	}
	if product.Name != "Classic Cotton Tee" {
		t.Fatalf("unexpected name %q", product.Name)
	}
	if !product.Price.Equal(decimal.RequireFromString("24.99")) {
		t.Fatalf("unexpected price %s", product.Price)
	}
	if !product.HasVariant("M") || product.HasVariant("XXL") {
		t.Fatalf("unexpected variants %v", product.Variants)
	}
}

func TestRepositoryProductFlow(t *testing.T) {
	repo := NewRepository(dbtest.Open(t).DB())
	ctx := context.Background()

	created, err := repo.CreateProduct(ctx, &models.Product{
		Name:     "Linen Shirt",
		Category: enums.ProductCategoryApparel,
		Price:    decimal.RequireFromString("54.00"),
		Variants: []string{"S", "M"},
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected product id to be generated")
	}

	created.Name = "Linen Shirt (washed)"
	if _, err := repo.UpdateProduct(ctx, created); err != nil {
		t.Fatalf("update product: %v", err)
	}
	fetched, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find product: %v", err)
	}
	if fetched.Name != "Linen Shirt (washed)" {
		t.Fatalf("expected updated name, got %s", fetched.Name)
	}

	ok, err := repo.DeactivateProduct(ctx, created.ID)
	if err != nil || !ok {
		t.Fatalf("deactivate: ok=%v err=%v", ok, err)
	}
	if ok, _ := repo.DeactivateProduct(ctx, created.ID); ok {
		t.Fatal("second deactivate should report no change")
	}
	if _, err := repo.FindActiveByID(ctx, created.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found for inactive product, got %v", err)
	}
	if _, err := repo.FindByID(ctx, created.ID); err != nil {
		t.Fatalf("inactive product should remain readable: %v", err)
	}
}

func TestRepositoryListFiltersAndPaginates(t *testing.T) {
	client := dbtest.Open(t)
	conn := client.DB()
	repo := NewRepository(conn)
	ctx := context.Background()

	if err := conn.Exec("DELETE FROM products").Error; err != nil {
		t.Fatalf("clear seed: %v", err)
	}

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	names := []string{"Alpha Mug", "Beta Mug", "Gamma Lamp", "Delta Mug", "Hidden Mug"}
	for i, name := range names {
		category := enums.ProductCategoryHome
		if name == "Gamma Lamp" {
			category = enums.ProductCategoryElectronics
		}
		_, err := repo.CreateProduct(ctx, &models.Product{
			Name:      name,
			Category:  category,
			Price:     decimal.NewFromInt(int64(10 + i)),
			IsActive:  name != "Hidden Mug",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	home := enums.ProductCategoryHome
	page, next, err := repo.ListProducts(ctx, ListProductsInput{
		Category:   &home,
		Query:      "mug",
		Pagination: pagination.Params{Limit: 2},
	})
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	if len(page) != 2 || page[0].Name != "Delta Mug" || page[1].Name != "Beta Mug" {
		t.Fatalf("unexpected first page %v", productNames(page))
	}
	if next == "" {
		t.Fatal("expected next cursor")
	}

	page, next, err = repo.ListProducts(ctx, ListProductsInput{
		Category:   &home,
		Query:      "MUG",
		Pagination: pagination.Params{Limit: 2, Cursor: next},
	})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(page) != 1 || page[0].Name != "Alpha Mug" || next != "" {
		t.Fatalf("unexpected second page %v next=%q", productNames(page), next)
	}

	all, _, err := repo.ListProducts(ctx, ListProductsInput{IncludeInactive: true})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != len(names) {
		t.Fatalf("expected %d products including inactive, got %d", len(names), len(all))
	}
}

func productNames(rows []models.Product) []string {
	out := make([]string, len(rows))
	for i, p := range rows {
		out[i] = p.Name
	}
	return out
}
