package pricing

// Mode selects which end of the price transformation the input amount refers to.
type Mode string

const (
	// ModeOriginal treats the input as the pre-reduction MRP.
	ModeOriginal Mode = "original"
	// ModeNew treats the input as the already-reduced MRP.
	ModeNew Mode = "new"
)

func (m Mode) Valid() bool { return m == ModeOriginal || m == ModeNew }

// Quote is the full set of derived prices for one rule. All arithmetic stays in
// float64; rounding happens only at presentation.
type Quote struct {
	Rule                   ReductionRule `json:"rule"`
	OriginalMRP            float64       `json:"original_mrp"`
	NewMRP                 float64       `json:"new_mrp"`
	IntermediateTradePrice float64       `json:"intermediate_trade_price"`
	FinalTradePrice        float64       `json:"final_trade_price"`
	GSTAmount              float64       `json:"gst_amount"`
}

// Snapshot holds both rule rows computed from the same input. It is built fresh
// on every recalculation and never mutated in place.
type Snapshot struct {
	Quote12 Quote `json:"quote_12"`
	Quote18 Quote `json:"quote_18"`
}

// ComputeQuote derives all prices for one rule. amount must be a finite
// positive number; invalid amounts are filtered upstream. In original mode the
// reduction runs forward, in new mode it is inverted, so feeding a forward
// result back through new mode reproduces the original amount.
func ComputeQuote(amount float64, mode Mode, rule ReductionRule) Quote {
	factor := 1 - rule.ReductionPercent/100

	var originalMRP, newMRP float64
	if mode == ModeNew {
		newMRP = amount
		originalMRP = amount / factor
	} else {
		originalMRP = amount
		newMRP = amount * factor
	}

	// New MRP embeds 5% GST; strip it, then apply the 20% retail margin.
	intermediate := newMRP * (100.0 / 105.0)
	final := intermediate * 0.80
	gst := final * 0.05

	return Quote{
		Rule:                   rule,
		OriginalMRP:            originalMRP,
		NewMRP:                 newMRP,
		IntermediateTradePrice: intermediate,
		FinalTradePrice:        final,
		GSTAmount:              gst,
	}
}

// ComputeSnapshot evaluates both fixed rules for one input. This is the sole
// entry point consumers use.
func ComputeSnapshot(amount float64, mode Mode) Snapshot {
	return Snapshot{
		Quote12: ComputeQuote(amount, mode, Rule12),
		Quote18: ComputeQuote(amount, mode, Rule18),
	}
}
