package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paintify/backend-paintify/internal/common"
	"github.com/paintify/backend-paintify/internal/shop"
	"github.com/paintify/backend-paintify/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	repo, err := shop.NewRepository(context.Background(), store.NewMemoryKV())
	require.NoError(t, err)
	svc, err := NewService(ServiceConfig{Repo: repo, LowStockThreshold: 10})
	require.NoError(t, err)
	return svc
}

func TestAddAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	product, err := svc.Add(ctx, ProductInput{
		Name:         "Emulsion",
		LitersPerCan: 20,
		Quantity:     30,
		DP:           1000,
		BillPercent:  10,
		CDPercent:    5,
		GSTPercent:   18,
	})
	require.NoError(t, err)
	require.NotEmpty(t, product.ID)

	got, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, product, got)
}

func TestAddValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := map[string]ProductInput{
		"missing name":   {LitersPerCan: 1, Quantity: 1},
		"zero liters":    {Name: "X", LitersPerCan: 0, Quantity: 1},
		"negative stock": {Name: "X", LitersPerCan: 1, Quantity: -1},
		"negative dp":    {Name: "X", LitersPerCan: 1, Quantity: 1, DP: -5},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Add(ctx, in)
			var appErr *common.AppError
			require.True(t, errors.As(err, &appErr))
			require.Equal(t, common.CodeValidation, appErr.Code)
		})
	}
}

func TestAddAllowsOutOfRangePercents(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Add(context.Background(), ProductInput{
		Name:         "Clearance Stock",
		LitersPerCan: 1,
		Quantity:     5,
		BillPercent:  150,
		CDPercent:    -10,
	})
	require.NoError(t, err)
}

func TestUpdateMergesPatch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	product, err := svc.Add(ctx, ProductInput{Name: "Primer", LitersPerCan: 4, Quantity: 8, DP: 900})
	require.NoError(t, err)

	dp := 950.0
	updated, err := svc.Update(ctx, product.ID, PatchInput{DP: &dp})
	require.NoError(t, err)
	require.Equal(t, 950.0, updated.DP)
	require.Equal(t, "Primer", updated.Name)

	_, err = svc.Update(ctx, "missing", PatchInput{DP: &dp})
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, common.CodeNotFound, appErr.Code)
}

func TestGetUnknownProduct(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Get(context.Background(), "missing")
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, common.CodeNotFound, appErr.Code)
}

func TestListLowStockFilter(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, ProductInput{Name: "Low", LitersPerCan: 1, Quantity: 3})
	require.NoError(t, err)
	_, err = svc.Add(ctx, ProductInput{Name: "High", LitersPerCan: 1, Quantity: 50})
	require.NoError(t, err)

	all := svc.List(ctx, false)
	require.Len(t, all, 2)

	low := svc.List(ctx, true)
	require.Len(t, low, 1)
	require.Equal(t, "Low", low[0].Name)
}

func TestStats(t *testing.T) {
	repo, err := shop.NewRepository(context.Background(), store.NewMemoryKV())
	require.NoError(t, err)
	svc, err := NewService(ServiceConfig{Repo: repo, LowStockThreshold: 10})
	require.NoError(t, err)
	ctx := context.Background()

	p1, err := svc.Add(ctx, ProductInput{Name: "Low", LitersPerCan: 1, Quantity: 4})
	require.NoError(t, err)
	_, err = svc.Add(ctx, ProductInput{Name: "High", LitersPerCan: 1, Quantity: 20})
	require.NoError(t, err)

	_, err = repo.RecordSale(ctx, p1.ID, 1, func(p shop.Product) (shop.Sale, error) {
		return shop.Sale{ProductID: p.ID, ProductName: p.Name, QuantitySold: 1, TotalAmount: 123.5}, nil
	})
	require.NoError(t, err)

	stats := svc.Stats(ctx)
	require.Equal(t, 2, stats.ProductCount)
	require.EqualValues(t, 23, stats.TotalStock)
	require.Equal(t, 1, stats.SaleCount)
	require.Equal(t, 123.5, stats.TotalRevenue)
	require.Equal(t, 1, stats.LowStockCount)
}
