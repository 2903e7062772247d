// Package ledger records completed sales and keeps the catalog stock in step
// with them.
package ledger

import (
	"context"
	"errors"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"

	"github.com/paintify/backend-paintify/internal/billing"
	"github.com/paintify/backend-paintify/internal/common"
	"github.com/paintify/backend-paintify/internal/obs"
	"github.com/paintify/backend-paintify/internal/shop"
)

// Locker serialises sale recording across processes sharing the same store.
// The in-process repository mutex already covers a single process.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// SaleInput is the request to record a sale.
type SaleInput struct {
	ProductID    string `json:"productId" validate:"required"`
	QuantitySold int64  `json:"quantitySold" validate:"gt=0"`
}

// Service runs the sale pipeline as one atomic step: look up the product,
// compute the billing breakdown, snapshot it into a Sale, decrement stock,
// and persist.
type Service struct {
	Repo     *shop.Repository
	Locker   Locker
	LockTTL  time.Duration
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(repo *shop.Repository, locker Locker, lockTTL time.Duration) (*Service, error) {
	if repo == nil {
		return nil, errors.New("ledger: repository is required")
	}
	return &Service{Repo: repo, Locker: locker, LockTTL: lockTTL, validate: validator.New()}, nil
}

// RecordSale records the sale of qty cans of the given product. Stock
// sufficiency is enforced: a sale may never drive quantity negative.
func (s *Service) RecordSale(ctx context.Context, in SaleInput) (shop.Sale, error) {
	if err := s.validate.Struct(in); err != nil {
		s.observeResult("invalid")
		return shop.Sale{}, common.Validation("productId and a positive quantitySold are required", nil)
	}

	var sale shop.Sale
	record := func(ctx context.Context) error {
		var err error
		sale, err = s.Repo.RecordSale(ctx, in.ProductID, in.QuantitySold, func(p shop.Product) (shop.Sale, error) {
			breakdown, err := billing.Compute(billing.Snapshot{
				DP:           p.DP,
				BillPercent:  p.BillPercent,
				CDPercent:    p.CDPercent,
				GSTPercent:   p.GSTPercent,
				LitersPerCan: p.LitersPerCan,
			}, in.QuantitySold)
			if err != nil {
				return shop.Sale{}, err
			}
			return shop.Sale{
				ProductID:    p.ID,
				ProductName:  p.Name,
				QuantitySold: in.QuantitySold,
				LitersPerCan: p.LitersPerCan,
				RatePerCan:   breakdown.RatePerCan,
				TotalLiters:  breakdown.TotalLiters,
				TotalAmount:  breakdown.TotalAmount,
				Calculations: shop.SaleCalculations{
					BaseDP:             breakdown.BaseDP,
					BillDiscountAmount: breakdown.BillDiscountAmount,
					CDDiscountAmount:   breakdown.CDDiscountAmount,
					GSTAmount:          breakdown.GSTAmount,
				},
			}, nil
		})
		return err
	}

	var err error
	if s.Locker != nil {
		err = s.Locker.WithLock(ctx, "sale:"+in.ProductID, s.LockTTL, record)
	} else {
		err = record(ctx)
	}
	if err != nil {
		switch {
		case errors.Is(err, shop.ErrProductNotFound):
			s.observeResult("not_found")
			return shop.Sale{}, common.NotFound("product not found")
		case errors.Is(err, shop.ErrInsufficientStock):
			s.observeResult("insufficient_stock")
			return shop.Sale{}, common.NewAppError(common.CodeInsufficientStock, "not enough cans in stock", http.StatusConflict, err)
		case errors.Is(err, billing.ErrInvalidQuantity):
			s.observeResult("invalid")
			return shop.Sale{}, common.Validation("quantitySold must be positive", nil)
		default:
			s.observeResult("storage_error")
			return shop.Sale{}, common.StorageFailure(err)
		}
	}

	s.observeResult("ok")
	if obs.SaleAmountTotal != nil {
		obs.SaleAmountTotal.Add(sale.TotalAmount)
	}
	if obs.StockLevel != nil {
		if p, err := s.Repo.GetProduct(ctx, in.ProductID); err == nil {
			obs.StockLevel.WithLabelValues(p.Name).Set(float64(p.Quantity))
		}
	}
	return sale, nil
}

// List returns the ledger, newest first.
func (s *Service) List(ctx context.Context) []shop.Sale {
	return s.Repo.Sales(ctx)
}

func (s *Service) observeResult(result string) {
	if obs.SalesRecordedTotal != nil {
		obs.SalesRecordedTotal.WithLabelValues(result).Inc()
	}
}
