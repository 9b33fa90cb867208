package pricing

// ReductionRule is one of the two fixed GST reduction scenarios. Instances are
// immutable for the lifetime of the process.
type ReductionRule struct {
	ID               string  `json:"id"`
	Label            string  `json:"label"`
	ReductionPercent float64 `json:"reduction_percent"`
}

var (
	// Rule12 is the 12% GST bracket scenario: MRP drops by 6.25%.
	Rule12 = ReductionRule{ID: "gst12", Label: "12% GST Rule", ReductionPercent: 6.25}

	// Rule18 is the 18% GST bracket scenario: MRP drops by 11.02%.
	Rule18 = ReductionRule{ID: "gst18", Label: "18% GST Rule", ReductionPercent: 11.02}
)

// Rules returns the fixed rule set in presentation order.
func Rules() []ReductionRule {
	return []ReductionRule{Rule12, Rule18}
}
