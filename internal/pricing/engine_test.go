package pricing

import (
	"math"
	"testing"
)

func TestComputeQuoteForwardChain(t *testing.T) {
	q := ComputeQuote(100, ModeOriginal, Rule12)

	want := map[string]float64{
		"original":     100,
		"new":          93.75,
		"intermediate": 93.75 * 100 / 105,
		"final":        93.75 * 100 / 105 * 0.80,
		"gst":          93.75 * 100 / 105 * 0.80 * 0.05,
	}

	got := map[string]float64{
		"original":     q.OriginalMRP,
		"new":          q.NewMRP,
		"intermediate": q.IntermediateTradePrice,
		"final":        q.FinalTradePrice,
		"gst":          q.GSTAmount,
	}

	for name, w := range want {
		if math.Abs(got[name]-w) > 1e-9 {
			t.Errorf("%s = %v, want %v", name, got[name], w)
		}
	}

	// spot-check literal expectations
	if math.Abs(q.IntermediateTradePrice-89.28571428571429) > 1e-9 {
		t.Errorf("intermediate trade price = %v", q.IntermediateTradePrice)
	}
	if math.Abs(q.FinalTradePrice-71.42857142857143) > 1e-9 {
		t.Errorf("final trade price = %v", q.FinalTradePrice)
	}
	if math.Abs(q.GSTAmount-3.5714285714285716) > 1e-9 {
		t.Errorf("gst amount = %v", q.GSTAmount)
	}
}

func TestComputeQuoteSecondRule(t *testing.T) {
	q := ComputeQuote(100, ModeOriginal, Rule18)
	if math.Abs(q.NewMRP-88.98) > 1e-9 {
		t.Errorf("new MRP = %v, want 88.98", q.NewMRP)
	}
}

func TestModeRoundTripSymmetry(t *testing.T) {
	amounts := []float64{0.01, 1, 7.77, 100, 249.99, 12345.6789, 1e6}

	for _, rule := range Rules() {
		for _, a := range amounts {
			forward := ComputeQuote(a, ModeOriginal, rule)
			back := ComputeQuote(forward.NewMRP, ModeNew, rule)

			rel := math.Abs(back.OriginalMRP-a) / a
			if rel > 1e-9 {
				t.Errorf("rule %s amount %v: round trip gave %v (rel err %v)",
					rule.ID, a, back.OriginalMRP, rel)
			}
		}
	}
}

func TestQuoteNonNegativity(t *testing.T) {
	amounts := []float64{0.001, 0.5, 1, 99.99, 1e3, 1e9}

	for _, rule := range Rules() {
		for _, mode := range []Mode{ModeOriginal, ModeNew} {
			for _, a := range amounts {
				q := ComputeQuote(a, mode, rule)
				fields := []float64{
					q.OriginalMRP, q.NewMRP, q.IntermediateTradePrice,
					q.FinalTradePrice, q.GSTAmount,
				}
				for i, f := range fields {
					if f < 0 {
						t.Errorf("rule %s mode %s amount %v: field %d negative (%v)",
							rule.ID, mode, a, i, f)
					}
				}
			}
		}
	}
}

func TestComputeSnapshotUsesBothRules(t *testing.T) {
	s := ComputeSnapshot(250, ModeOriginal)
	if s.Quote12.Rule != Rule12 || s.Quote18.Rule != Rule18 {
		t.Fatalf("snapshot rules = %v / %v", s.Quote12.Rule.ID, s.Quote18.Rule.ID)
	}
	if math.Abs(s.Quote12.NewMRP-234.375) > 1e-9 {
		t.Errorf("12%% new MRP = %v, want 234.375", s.Quote12.NewMRP)
	}
	if math.Abs(s.Quote18.NewMRP-222.45) > 1e-9 {
		t.Errorf("18%% new MRP = %v, want 222.45", s.Quote18.NewMRP)
	}
}

func TestComputeQuoteDeterministic(t *testing.T) {
	a := ComputeQuote(123.45, ModeNew, Rule18)
	b := ComputeQuote(123.45, ModeNew, Rule18)
	if a != b {
		t.Errorf("identical inputs produced different quotes: %+v vs %+v", a, b)
	}
}
