package pricing

// Cost is the monetary cost of one completed request in USD.
// Values are kept at full float64 precision; rounding is a presentation
// concern, never applied before persistence.
type Cost struct {
	// InputCost is prompt tokens times the per-token input price.
	InputCost float64

	// OutputCost is completion tokens times the per-token output price.
	OutputCost float64

	// TotalCost is InputCost + OutputCost.
	TotalCost float64
}

// Compute calculates the cost of a request from a resolved quote and the
// observed token counts.
func Compute(q Quote, inputTokens, outputTokens int) Cost {
	in := float64(inputTokens) * q.InputPrice
	out := float64(outputTokens) * q.OutputPrice
	return Cost{
		InputCost:  in,
		OutputCost: out,
		TotalCost:  in + out,
	}
}
