// Package quality scores how complete a product's declared data is.
package quality

import (
	"math"

	"github.com/sells-group/lca-cli/internal/model"
)

// Deductions are the points removed per detected signal.
var Deductions = map[model.SignalKind]float64{
	model.SignalEnergyMixOmitted: 5,
	model.SignalTransportOmitted: 15,
	model.SignalGenericLocation:  5,
	model.SignalUsePhaseExcluded: 10,
}

// Ratings.
const (
	RatingExcellent = "excellent"
	RatingGood      = "good"
	RatingFair      = "fair"
	RatingPoor      = "poor"
)

// Score starts at 100 and deducts for every signal warning on p.
func Score(p *model.ValidatedProduct) model.DataQuality {
	score := 100.0
	var ded []model.Deduction
	for _, w := range p.Warnings {
		pts, ok := Deductions[w.Code]
		if !ok {
			continue
		}
		score -= pts
		ded = append(ded, model.Deduction{Signal: w.Code, Points: pts, Detail: w.Message})
	}
	score = math.Max(0, math.Min(100, score))
	return model.DataQuality{Score: score, Rating: Rate(score), Deductions: ded}
}

// Rate maps a score to its rating band.
func Rate(score float64) string {
	switch {
	case score >= 90:
		return RatingExcellent
	case score >= 75:
		return RatingGood
	case score >= 50:
		return RatingFair
	}
	return RatingPoor
}
