package billing_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paintify/backend-paintify/internal/billing"
)

func TestComputeBreakdown(t *testing.T) {
	snap := billing.Snapshot{
		DP:           1000,
		BillPercent:  10,
		CDPercent:    5,
		GSTPercent:   18,
		LitersPerCan: 20,
	}

	got, err := billing.Compute(snap, 5)
	require.NoError(t, err)

	require.InDelta(t, 5000, got.BaseDP, 1e-9)
	require.InDelta(t, 500, got.BillDiscountAmount, 1e-9)
	require.InDelta(t, 225, got.CDDiscountAmount, 1e-9)
	require.InDelta(t, 769.5, got.GSTAmount, 1e-9)
	require.InDelta(t, 5044.5, got.TotalAmount, 1e-9)
	require.InDelta(t, 100, got.TotalLiters, 1e-9)
	require.InDelta(t, 1008.9, got.RatePerCan, 1e-9)
}

func TestComputeMatchesClosedForm(t *testing.T) {
	cases := []struct {
		name string
		snap billing.Snapshot
		qty  int64
	}{
		{"plain", billing.Snapshot{DP: 1250.50, BillPercent: 12.5, CDPercent: 3, GSTPercent: 18, LitersPerCan: 4}, 7},
		{"zero percents", billing.Snapshot{DP: 99.99, LitersPerCan: 1}, 3},
		{"full discount", billing.Snapshot{DP: 500, BillPercent: 100, CDPercent: 50, GSTPercent: 18, LitersPerCan: 10}, 2},
		{"negative percent raises amount", billing.Snapshot{DP: 100, BillPercent: -10, CDPercent: 0, GSTPercent: 18, LitersPerCan: 1}, 1},
		{"over hundred percent", billing.Snapshot{DP: 100, BillPercent: 150, CDPercent: 0, GSTPercent: 0, LitersPerCan: 1}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := billing.Compute(tc.snap, tc.qty)
			require.NoError(t, err)

			gross := tc.snap.DP * float64(tc.qty)
			want := gross * (1 - tc.snap.BillPercent/100) * (1 - tc.snap.CDPercent/100) * (1 + tc.snap.GSTPercent/100)
			require.InDelta(t, want, got.TotalAmount, math.Abs(want)*1e-12+1e-9)
		})
	}
}

func TestComputeIsPure(t *testing.T) {
	snap := billing.Snapshot{DP: 820, BillPercent: 7, CDPercent: 2, GSTPercent: 18, LitersPerCan: 20}
	first, err := billing.Compute(snap, 3)
	require.NoError(t, err)
	second, err := billing.Compute(snap, 3)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestComputeRejectsNonPositiveQuantity(t *testing.T) {
	snap := billing.Snapshot{DP: 100, LitersPerCan: 1}
	for _, qty := range []int64{0, -1, -50} {
		_, err := billing.Compute(snap, qty)
		require.ErrorIs(t, err, billing.ErrInvalidQuantity)
	}
}

func TestNegativePercentIncreasesAmount(t *testing.T) {
	base := billing.Snapshot{DP: 100, LitersPerCan: 1}
	neg := base
	neg.BillPercent = -25

	plain, err := billing.Compute(base, 1)
	require.NoError(t, err)
	raised, err := billing.Compute(neg, 1)
	require.NoError(t, err)
	require.Greater(t, raised.TotalAmount, plain.TotalAmount)
}
