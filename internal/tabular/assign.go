package tabular

import "math"

// Fields is the per-row result of numeric field assignment.
type Fields struct {
	Quantity int64
	AvgPrice float64
	Profit   int64
}

// Assigner maps a row's numeric candidates to quantity, average price and
// profit. It is a strategy so alternative tie-break policies can be swapped
// without touching row clustering or symbol location.
type Assigner interface {
	Assign(candidates []NumericCandidate, anchors Anchors) Fields
}

// AnchorDistanceAssigner is the default strategy: each field takes the
// candidate nearest its column anchor, with positional fallbacks when the
// header row yielded no anchor. Quantity and profit are resolved before
// price because price selection excludes already-claimed values.
type AnchorDistanceAssigner struct {
	// PriceMin and PriceMax bound the plausible average-price range used
	// by the anchorless price fallback.
	PriceMin float64
	PriceMax float64
}

// DefaultAssigner returns the anchor-distance strategy with the standard
// price-plausibility bounds.
func DefaultAssigner() *AnchorDistanceAssigner {
	return &AnchorDistanceAssigner{PriceMin: 0, PriceMax: 10000}
}

// Assign implements Assigner. With no candidates every field stays zero;
// the row is still emitted since a truncated screenshot may legitimately
// show only a symbol.
func (a *AnchorDistanceAssigner) Assign(candidates []NumericCandidate, anchors Anchors) Fields {
	var out Fields
	if len(candidates) == 0 {
		return out
	}

	qty := a.pickQuantity(candidates, anchors)
	profit := a.pickProfit(candidates, anchors)
	price := a.pickPrice(candidates, anchors, qty, profit)

	if qty != nil {
		out.Quantity = int64(math.Abs(qty.Value))
	}
	if profit != nil {
		value := math.Abs(profit.Value)
		switch profit.ColorSign {
		case -1:
			out.Profit = -int64(value)
		case 1:
			out.Profit = int64(value)
		default:
			out.Profit = int64(profit.Value)
		}
	}
	if price != nil {
		out.AvgPrice = price.Value
	}
	return out
}

func (a *AnchorDistanceAssigner) pickQuantity(candidates []NumericCandidate, anchors Anchors) *NumericCandidate {
	if x, ok := anchors[FieldQuantity]; ok {
		return nearest(candidates, x)
	}
	for i := range candidates {
		if candidates[i].IsInteger() && candidates[i].Value > 0 {
			return &candidates[i]
		}
	}
	return nil
}

func (a *AnchorDistanceAssigner) pickProfit(candidates []NumericCandidate, anchors Anchors) *NumericCandidate {
	if x, ok := anchors[FieldProfit]; ok {
		return nearest(candidates, x)
	}
	for i := len(candidates) - 1; i >= 0; i-- {
		if candidates[i].IsInteger() {
			return &candidates[i]
		}
	}
	return nil
}

func (a *AnchorDistanceAssigner) pickPrice(candidates []NumericCandidate, anchors Anchors, qty, profit *NumericCandidate) *NumericCandidate {
	if x, ok := anchors[FieldPrice]; ok {
		return nearest(candidates, x)
	}

	claimed := func(c *NumericCandidate) bool {
		return (qty != nil && c.Value == qty.Value) || (profit != nil && c.Value == profit.Value)
	}

	// Prefer a fractional candidate in the plausible range.
	for i := range candidates {
		c := &candidates[i]
		if !c.IsInteger() && c.Value > a.PriceMin && c.Value < a.PriceMax && !claimed(c) {
			return c
		}
	}
	for i := range candidates {
		c := &candidates[i]
		if c.Value > a.PriceMin && c.Value < a.PriceMax && !claimed(c) {
			return c
		}
	}
	return nil
}

// nearest returns the candidate whose x position is closest to the anchor.
func nearest(candidates []NumericCandidate, anchorX float64) *NumericCandidate {
	best := -1
	bestDist := math.MaxFloat64
	for i := range candidates {
		d := math.Abs(candidates[i].XPosition - anchorX)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best < 0 {
		return nil
	}
	return &candidates[best]
}
