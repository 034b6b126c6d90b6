package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/allsale/allsale-api/internal/postgres"
)

func setupTestDB(t *testing.T) *Repo {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pg, err := pgcontainer.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		pgcontainer.WithDatabase("testdb"),
		pgcontainer.WithUsername("testuser"),
		pgcontainer.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(dsn))

	db, err := postgres.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return &Repo{DB: db}
}

func str(s string) *string { return &s }

func boubouInput() *CreateProductInput {
	return &CreateProductInput{
		Handle:      "boubou-wax",
		Title:       "Boubou en Wax",
		Description: str("Boubou traditionnel en tissu wax"),
		Vendor:      str("Atelier Dakar"),
		ProductType: str("Vetements"),
		Tags:        []string{"wax", "traditionnel"},
		Variants: []VariantInput{
			{Title: "M", SKU: str("BW-M"), PriceAmount: "15000", PriceCurrency: "XOF", QuantityAvailable: 5,
				SelectedOptions: []SelectedOption{{Name: "Taille", Value: "M"}}},
			{Title: "L", SKU: str("BW-L"), PriceAmount: "17500", PriceCurrency: "XOF", QuantityAvailable: 2,
				SelectedOptions: []SelectedOption{{Name: "Taille", Value: "L"}}},
		},
		Options: []OptionInput{{Name: "Taille", Values: []string{"M", "L"}}},
		Images:  []ImageInput{{URL: "https://img.allsale.sn/boubou.jpg", AltText: str("Boubou")}},
	}
}

func TestCreateAndGetProduct(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	p, err := repo.CreateProduct(ctx, boubouInput())
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)

	got, err := repo.GetProductByHandle(ctx, "boubou-wax")
	require.NoError(t, err)
	assert.Equal(t, "Boubou en Wax", got.Title)
	assert.True(t, got.AvailableForSale)
	require.Len(t, got.Variants, 2)
	assert.Equal(t, "15000", got.PriceRange.MinVariantPrice.Amount)
	assert.Equal(t, "17500", got.PriceRange.MaxVariantPrice.Amount)
	require.Len(t, got.Options, 1)
	assert.Equal(t, []string{"M", "L"}, got.Options[0].Values)
	require.NotNil(t, got.FeaturedImage)
	assert.Equal(t, "https://img.allsale.sn/boubou.jpg", got.FeaturedImage.URL)
}

func TestGetProduct_NotFound(t *testing.T) {
	repo := setupTestDB(t)
	_, err := repo.GetProductByHandle(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListProducts_Search(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.CreateProduct(ctx, boubouInput())
	require.NoError(t, err)
	sandales := boubouInput()
	sandales.Handle = "sandales-cuir"
	sandales.Title = "Sandales en cuir"
	_, err = repo.CreateProduct(ctx, sandales)
	require.NoError(t, err)

	all, err := repo.ListProducts(ctx, "", "", false, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := repo.ListProducts(ctx, "sandales", "", false, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "sandales-cuir", found[0].Handle)

	byTitle, err := repo.ListProducts(ctx, "", "TITLE", false, 10)
	require.NoError(t, err)
	require.Len(t, byTitle, 2)
	assert.Equal(t, "Boubou en Wax", byTitle[0].Title)
}

func TestUpdateProduct_ReplacesVariants(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	p, err := repo.CreateProduct(ctx, boubouInput())
	require.NoError(t, err)

	in := boubouInput()
	in.Title = "Boubou en Wax Premium"
	in.Variants = []VariantInput{
		{Title: "XL", PriceAmount: "20000", PriceCurrency: "XOF", QuantityAvailable: 1},
	}
	got, err := repo.UpdateProduct(ctx, p.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Boubou en Wax Premium", got.Title)
	require.Len(t, got.Variants, 1)
	assert.Equal(t, "XL", got.Variants[0].Title)
}

func TestDeleteProduct(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	p, err := repo.CreateProduct(ctx, boubouInput())
	require.NoError(t, err)
	require.NoError(t, repo.DeleteProduct(ctx, p.ID))

	_, err = repo.GetProductByID(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.DeleteProduct(ctx, p.ID), ErrNotFound)
}

func TestCollections(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	c, err := repo.CreateCollection(ctx, &CreateCollectionInput{
		Handle:      "nouveautes",
		Title:       "Nouveautés",
		Description: str("Les derniers arrivages"),
	})
	require.NoError(t, err)
	assert.Equal(t, "/search/nouveautes", c.Path)

	in := boubouInput()
	in.CollectionIDs = []string{c.ID}
	_, err = repo.CreateProduct(ctx, in)
	require.NoError(t, err)

	got, err := repo.GetCollectionByHandle(ctx, "nouveautes")
	require.NoError(t, err)
	assert.Equal(t, "Nouveautés", got.Title)

	products, err := repo.CollectionProducts(ctx, "nouveautes", 10)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "boubou-wax", products[0].Handle)
}

func TestMenus(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	items := []MenuItem{
		{Title: "Accueil", Path: "/"},
		{Title: "Nouveautés", Path: "/search/nouveautes"},
	}
	require.NoError(t, repo.UpsertMenu(ctx, "main-menu", items))

	got, err := repo.GetMenu(ctx, "main-menu")
	require.NoError(t, err)
	assert.Equal(t, items, got)

	// upsert replaces
	require.NoError(t, repo.UpsertMenu(ctx, "main-menu", items[:1]))
	got, err = repo.GetMenu(ctx, "main-menu")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// unknown handle is an empty menu, not an error
	got, err = repo.GetMenu(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Empty(t, got)
}
