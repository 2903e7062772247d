// Package billing computes the financial breakdown of a sale. The engine is
// a pure function over a pricing snapshot: same inputs, same outputs, no
// state touched.
package billing

import "errors"

// ErrInvalidQuantity rejects non-positive sale quantities before any
// computation happens.
var ErrInvalidQuantity = errors.New("billing: quantity sold must be positive")

// Snapshot carries a product's pricing attributes at the moment of sale,
// decoupled from later catalog edits.
type Snapshot struct {
	DP           float64
	BillPercent  float64
	CDPercent    float64
	GSTPercent   float64
	LitersPerCan float64
}

// Breakdown is the full derivation of a sale's payable amount. Amounts are
// kept unrounded; rounding to display precision is a rendering concern.
type Breakdown struct {
	BaseDP             float64
	BillDiscountAmount float64
	CDDiscountAmount   float64
	GSTAmount          float64
	TotalAmount        float64
	TotalLiters        float64
	RatePerCan         float64
}

// Compute derives the breakdown for selling qty cans priced by snap.
//
// The adjustments apply in a fixed order: the bill discount on the gross
// dealer price, the cash discount on the bill-discounted subtotal (the two
// discounts compound sequentially, not additively), and GST on the fully
// discounted subtotal. Percentages outside [0,100] are not rejected; they
// compute mathematically, so a negative percentage increases the amount.
func Compute(snap Snapshot, qty int64) (Breakdown, error) {
	if qty <= 0 {
		return Breakdown{}, ErrInvalidQuantity
	}

	baseDP := snap.DP * float64(qty)
	billDiscount := baseDP * snap.BillPercent / 100
	afterBill := baseDP - billDiscount
	cdDiscount := afterBill * snap.CDPercent / 100
	afterCD := afterBill - cdDiscount
	gst := afterCD * snap.GSTPercent / 100
	total := afterCD + gst

	return Breakdown{
		BaseDP:             baseDP,
		BillDiscountAmount: billDiscount,
		CDDiscountAmount:   cdDiscount,
		GSTAmount:          gst,
		TotalAmount:        total,
		TotalLiters:        snap.LitersPerCan * float64(qty),
		RatePerCan:         total / float64(qty),
	}, nil
}
