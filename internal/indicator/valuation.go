package indicator

// ValuationStatus buckets
const (
	StatusUnknown     = "unknown"
	StatusUndervalued = "undervalued"
	StatusLow         = "low"
	StatusFair        = "fair"
	StatusHigh        = "high"
	StatusOvervalued  = "overvalued"
)

// Percentile returns the share of valid history values strictly below
// current, in percent rounded to 2 decimals. Non-positive and non-finite
// history values are ignored; a history without valid values yields !ok.
func Percentile(current float64, history []float64) (float64, bool) {
	var n, below int
	for _, v := range history {
		if v <= 0 || !finite(v) {
			continue
		}
		n++
		if v < current {
			below++
		}
	}
	if n == 0 || !finite(current) {
		return 0, false
	}
	return Round(float64(below)/float64(n)*100, 2), true
}

// ValuationStatus maps a historical percentile to a valuation bucket
func ValuationStatus(percentile *float64) string {
	if percentile == nil {
		return StatusUnknown
	}

	p := *percentile
	switch {
	case p < 20:
		return StatusUndervalued
	case p < 50:
		return StatusLow
	case p < 80:
		return StatusFair
	case p < 90:
		return StatusHigh
	default:
		return StatusOvervalued
	}
}
