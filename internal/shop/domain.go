// Package shop holds the persisted business state of the paint shop: the
// unit catalog and the sales ledger, stored together as one JSON document.
package shop

import "time"

// Product is a sellable stock-keeping unit.
type Product struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	LitersPerCan float64 `json:"litersPerCan"`
	Quantity     int64   `json:"quantity"`
	DP           float64 `json:"dp"`
	BillPercent  float64 `json:"billPercent"`
	CDPercent    float64 `json:"cdPercent"`
	GSTPercent   float64 `json:"gstPercent"`
}

// SaleCalculations is the audit trail of how a sale's total was derived.
type SaleCalculations struct {
	BaseDP             float64 `json:"baseDp"`
	BillDiscountAmount float64 `json:"billDiscountAmount"`
	CDDiscountAmount   float64 `json:"cdDiscountAmount"`
	GSTAmount          float64 `json:"gstAmount"`
}

// Sale is an immutable ledger entry. It embeds a snapshot of the product at
// the time of sale, so later catalog edits or deletions never touch it.
type Sale struct {
	ID           string           `json:"id"`
	Date         time.Time        `json:"date"`
	ProductID    string           `json:"productId"`
	ProductName  string           `json:"productName"`
	QuantitySold int64            `json:"quantitySold"`
	LitersPerCan float64          `json:"litersPerCan"`
	RatePerCan   float64          `json:"ratePerCan"`
	TotalLiters  float64          `json:"totalLiters"`
	TotalAmount  float64          `json:"totalAmount"`
	Calculations SaleCalculations `json:"calculations"`
}

// ProductPatch carries a partial product update. Nil fields are left as-is.
type ProductPatch struct {
	Name         *string  `json:"name"`
	LitersPerCan *float64 `json:"litersPerCan"`
	Quantity     *int64   `json:"quantity"`
	DP           *float64 `json:"dp"`
	BillPercent  *float64 `json:"billPercent"`
	CDPercent    *float64 `json:"cdPercent"`
	GSTPercent   *float64 `json:"gstPercent"`
}

func (p ProductPatch) apply(target Product) Product {
	if p.Name != nil {
		target.Name = *p.Name
	}
	if p.LitersPerCan != nil {
		target.LitersPerCan = *p.LitersPerCan
	}
	if p.Quantity != nil {
		target.Quantity = *p.Quantity
	}
	if p.DP != nil {
		target.DP = *p.DP
	}
	if p.BillPercent != nil {
		target.BillPercent = *p.BillPercent
	}
	if p.CDPercent != nil {
		target.CDPercent = *p.CDPercent
	}
	if p.GSTPercent != nil {
		target.GSTPercent = *p.GSTPercent
	}
	return target
}
