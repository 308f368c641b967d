package router

import (
	"github.com/Cogwheel-Validator/spectra-swap/models"
)

// PickBetter returns the better of two quotes for the same request. The quote with the
// larger output wins. On equal output the quote with the HIGHER estimated gas wins, and
// on equal gas a wins.
func PickBetter(a, b *models.QuoteEstimate) *models.QuoteEstimate {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}

	switch a.Output().Cmp(b.Output()) {
	case 1:
		return a
	case -1:
		return b
	}

	if b.Gas().Cmp(a.Gas()) > 0 {
		return b
	}
	return a
}

// PickBest folds PickBetter over quotes from left to right. Nil entries are skipped.
func PickBest(quotes ...*models.QuoteEstimate) *models.QuoteEstimate {
	var best *models.QuoteEstimate
	for _, q := range quotes {
		best = PickBetter(best, q)
	}
	return best
}
