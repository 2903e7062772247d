package ledger

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/paintify/backend-paintify/internal/common"
	"github.com/paintify/backend-paintify/internal/shop"
	"github.com/paintify/backend-paintify/internal/store"
)

func newTestService(t *testing.T) (*Service, *shop.Repository) {
	t.Helper()
	repo, err := shop.NewRepository(context.Background(), store.NewMemoryKV())
	require.NoError(t, err)
	svc, err := NewService(repo, nil, 0)
	require.NoError(t, err)
	return svc, repo
}

func seedProduct(t *testing.T, repo *shop.Repository) shop.Product {
	t.Helper()
	product, err := repo.AddProduct(context.Background(), shop.Product{
		Name:         "Emulsion",
		LitersPerCan: 20,
		Quantity:     10,
		DP:           1000,
		BillPercent:  10,
		CDPercent:    5,
		GSTPercent:   18,
	})
	require.NoError(t, err)
	return product
}

func TestRecordSaleComputesBreakdown(t *testing.T) {
	svc, repo := newTestService(t)
	product := seedProduct(t, repo)

	sale, err := svc.RecordSale(context.Background(), SaleInput{ProductID: product.ID, QuantitySold: 5})
	require.NoError(t, err)

	require.Equal(t, product.ID, sale.ProductID)
	require.Equal(t, "Emulsion", sale.ProductName)
	require.InDelta(t, 5000.0, sale.Calculations.BaseDP, 1e-9)
	require.InDelta(t, 500.0, sale.Calculations.BillDiscountAmount, 1e-9)
	require.InDelta(t, 225.0, sale.Calculations.CDDiscountAmount, 1e-9)
	require.InDelta(t, 769.5, sale.Calculations.GSTAmount, 1e-9)
	require.InDelta(t, 5044.5, sale.TotalAmount, 1e-9)
	require.InDelta(t, 100.0, sale.TotalLiters, 1e-9)
	require.InDelta(t, 1008.9, sale.RatePerCan, 1e-9)
	require.NotEmpty(t, sale.ID)
	require.False(t, sale.Date.IsZero())

	got, err := repo.GetProduct(context.Background(), product.ID)
	require.NoError(t, err)
	require.EqualValues(t, 5, got.Quantity)
}

func TestRecordSaleValidation(t *testing.T) {
	svc, repo := newTestService(t)
	product := seedProduct(t, repo)

	for name, in := range map[string]SaleInput{
		"missing product": {QuantitySold: 1},
		"zero quantity":   {ProductID: product.ID, QuantitySold: 0},
		"negative":        {ProductID: product.ID, QuantitySold: -2},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.RecordSale(context.Background(), in)
			var appErr *common.AppError
			require.True(t, errors.As(err, &appErr))
			require.Equal(t, common.CodeValidation, appErr.Code)
		})
	}
}

func TestRecordSaleUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.RecordSale(context.Background(), SaleInput{ProductID: "missing", QuantitySold: 1})
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, common.CodeNotFound, appErr.Code)
}

func TestRecordSaleInsufficientStock(t *testing.T) {
	svc, repo := newTestService(t)
	product := seedProduct(t, repo)

	_, err := svc.RecordSale(context.Background(), SaleInput{ProductID: product.ID, QuantitySold: 11})
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, common.CodeInsufficientStock, appErr.Code)
	require.Equal(t, http.StatusConflict, appErr.HTTPStatus)

	got, err := repo.GetProduct(context.Background(), product.ID)
	require.NoError(t, err)
	require.EqualValues(t, 10, got.Quantity)
	require.Empty(t, svc.List(context.Background()))
}

type recordingLocker struct {
	keys []string
	ttls []time.Duration
}

func (l *recordingLocker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	l.keys = append(l.keys, key)
	l.ttls = append(l.ttls, ttl)
	return fn(ctx)
}

func TestRecordSaleUsesPerProductLock(t *testing.T) {
	repo, err := shop.NewRepository(context.Background(), store.NewMemoryKV())
	require.NoError(t, err)
	locker := &recordingLocker{}
	svc, err := NewService(repo, locker, 10*time.Second)
	require.NoError(t, err)
	product := seedProduct(t, repo)

	_, err = svc.RecordSale(context.Background(), SaleInput{ProductID: product.ID, QuantitySold: 1})
	require.NoError(t, err)
	require.Equal(t, []string{"sale:" + product.ID}, locker.keys)
	require.Equal(t, []time.Duration{10 * time.Second}, locker.ttls)
}

func TestListNewestFirst(t *testing.T) {
	svc, repo := newTestService(t)
	product := seedProduct(t, repo)
	ctx := context.Background()

	first, err := svc.RecordSale(ctx, SaleInput{ProductID: product.ID, QuantitySold: 1})
	require.NoError(t, err)
	second, err := svc.RecordSale(ctx, SaleInput{ProductID: product.ID, QuantitySold: 2})
	require.NoError(t, err)

	sales := svc.List(ctx)
	require.Len(t, sales, 2)
	require.Equal(t, second.ID, sales[0].ID)
	require.Equal(t, first.ID, sales[1].ID)
}
