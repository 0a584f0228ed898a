package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/coffee_shop/internal/config"
	"github.com/Skotchmaster/coffee_shop/internal/db"
	"github.com/Skotchmaster/coffee_shop/internal/migrate"
	"github.com/Skotchmaster/coffee_shop/internal/models"
	"github.com/Skotchmaster/coffee_shop/internal/repo"
	"github.com/Skotchmaster/coffee_shop/internal/transport"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.Open(ctx, config.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, migrate.Up(ctx, gdb, config.DriverSQLite))
	t.Cleanup(func() { _ = db.Close(gdb) })

	return repo.New(gdb)
}

func createProduct(t *testing.T, r *repo.GormRepo, name string, price float64) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Description: name, ImageSrc: "/img/" + name}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

func price(f float64) *float64 { return &f }

func productRequest(name string, p float64) transport.ProductRequest {
	return transport.ProductRequest{
		Name:             name,
		Price:            price(p),
		Description:      "desc",
		ImageSrc:         "/img.png",
		Details:          "250g",
		TasteDescription: "nutty",
		Ingredients:      "arabica",
		CountryOfOrigin:  "Brazil",
	}
}
