// Package catalog exposes CRUD operations over the unit catalog.
package catalog

import (
	"context"
	"errors"

	validator "github.com/go-playground/validator/v10"

	"github.com/paintify/backend-paintify/internal/common"
	"github.com/paintify/backend-paintify/internal/obs"
	"github.com/paintify/backend-paintify/internal/shop"
)

// ProductInput carries the attributes for a new product; the id is assigned
// by the repository. Pricing percentages are deliberately unconstrained.
type ProductInput struct {
	Name         string  `json:"name" validate:"required"`
	LitersPerCan float64 `json:"litersPerCan" validate:"gt=0"`
	Quantity     int64   `json:"quantity" validate:"gte=0"`
	DP           float64 `json:"dp" validate:"gte=0"`
	BillPercent  float64 `json:"billPercent"`
	CDPercent    float64 `json:"cdPercent"`
	GSTPercent   float64 `json:"gstPercent"`
}

// PatchInput carries a partial update; nil fields are left untouched.
type PatchInput struct {
	Name         *string  `json:"name" validate:"omitempty,min=1"`
	LitersPerCan *float64 `json:"litersPerCan" validate:"omitempty,gt=0"`
	Quantity     *int64   `json:"quantity" validate:"omitempty,gte=0"`
	DP           *float64 `json:"dp" validate:"omitempty,gte=0"`
	BillPercent  *float64 `json:"billPercent"`
	CDPercent    *float64 `json:"cdPercent"`
	GSTPercent   *float64 `json:"gstPercent"`
}

// Stats summarises the catalog and ledger for the dashboard.
type Stats struct {
	ProductCount  int     `json:"productCount"`
	TotalStock    int64   `json:"totalStock"`
	SaleCount     int     `json:"saleCount"`
	TotalRevenue  float64 `json:"totalRevenue"`
	LowStockCount int     `json:"lowStockCount"`
}

// Service orchestrates catalog reads and writes over the shop repository.
type Service struct {
	repo              *shop.Repository
	validate          *validator.Validate
	lowStockThreshold int64
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Repo              *shop.Repository
	LowStockThreshold int64
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repo == nil {
		return nil, errors.New("catalog: repository is required")
	}
	threshold := cfg.LowStockThreshold
	if threshold <= 0 {
		threshold = 10
	}
	return &Service{
		repo:              cfg.Repo,
		validate:          validator.New(),
		lowStockThreshold: threshold,
	}, nil
}

// List returns every product, optionally filtered to low-stock entries.
func (s *Service) List(ctx context.Context, lowStockOnly bool) []shop.Product {
	products := s.repo.Products(ctx)
	if !lowStockOnly {
		return products
	}
	low := make([]shop.Product, 0, len(products))
	for _, p := range products {
		if p.Quantity < s.lowStockThreshold {
			low = append(low, p)
		}
	}
	return low
}

// Get returns the product matching id.
func (s *Service) Get(ctx context.Context, id string) (shop.Product, error) {
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, shop.ErrProductNotFound) {
			return shop.Product{}, common.NotFound("product not found")
		}
		return shop.Product{}, err
	}
	return product, nil
}

// Add validates the attributes and creates a new product.
func (s *Service) Add(ctx context.Context, in ProductInput) (shop.Product, error) {
	if err := s.validate.Struct(in); err != nil {
		return shop.Product{}, common.Validation("invalid product attributes", validationDetails(err))
	}
	product, err := s.repo.AddProduct(ctx, shop.Product{
		Name:         in.Name,
		LitersPerCan: in.LitersPerCan,
		Quantity:     in.Quantity,
		DP:           in.DP,
		BillPercent:  in.BillPercent,
		CDPercent:    in.CDPercent,
		GSTPercent:   in.GSTPercent,
	})
	if err != nil {
		return shop.Product{}, common.StorageFailure(err)
	}
	s.observeStock(product)
	return product, nil
}

// Update merges the patch into the product matching id.
func (s *Service) Update(ctx context.Context, id string, in PatchInput) (shop.Product, error) {
	if err := s.validate.Struct(in); err != nil {
		return shop.Product{}, common.Validation("invalid product attributes", validationDetails(err))
	}
	product, err := s.repo.UpdateProduct(ctx, id, shop.ProductPatch{
		Name:         in.Name,
		LitersPerCan: in.LitersPerCan,
		Quantity:     in.Quantity,
		DP:           in.DP,
		BillPercent:  in.BillPercent,
		CDPercent:    in.CDPercent,
		GSTPercent:   in.GSTPercent,
	})
	if err != nil {
		if errors.Is(err, shop.ErrProductNotFound) {
			return shop.Product{}, common.NotFound("product not found")
		}
		return shop.Product{}, common.StorageFailure(err)
	}
	s.observeStock(product)
	return product, nil
}

// Delete removes the product matching id; absent ids are a no-op. Existing
// sales keep their snapshots.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return common.StorageFailure(err)
	}
	return nil
}

// Stats aggregates the dashboard summary.
func (s *Service) Stats(ctx context.Context) Stats {
	products := s.repo.Products(ctx)
	sales := s.repo.Sales(ctx)

	stats := Stats{ProductCount: len(products), SaleCount: len(sales)}
	for _, p := range products {
		stats.TotalStock += p.Quantity
		if p.Quantity < s.lowStockThreshold {
			stats.LowStockCount++
		}
	}
	for _, sale := range sales {
		stats.TotalRevenue += sale.TotalAmount
	}
	if obs.LowStockProducts != nil {
		obs.LowStockProducts.Set(float64(stats.LowStockCount))
	}
	return stats
}

// LowStockThreshold reports the configured threshold.
func (s *Service) LowStockThreshold() int64 { return s.lowStockThreshold }

func (s *Service) observeStock(p shop.Product) {
	if obs.StockLevel != nil {
		obs.StockLevel.WithLabelValues(p.Name).Set(float64(p.Quantity))
	}
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
