// Package correlation computes Pearson correlation between VWAP series
// and searches, per symbol, for the best-correlated lagged window
// across every tracked symbol including itself.
package correlation

import (
	"math"

	"tradepulse/internal/models"
	"tradepulse/internal/vwaphistory"
)

// Pearson computes the Pearson correlation coefficient between two
// equal-length series. It returns NaN if the denominator is zero
// (either series has zero variance).
func Pearson(x, y []float64) float64 {
	n := float64(len(x))

	var sumX, sumY, sumXX, sumYY, sumXY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXX += x[i] * x[i]
		sumYY += y[i] * y[i]
		sumXY += x[i] * y[i]
	}

	numerator := n*sumXY - sumX*sumY
	denominator := math.Sqrt((n*sumXX - sumX*sumX) * (n*sumYY - sumY*sumY))
	if denominator == 0 {
		return math.NaN()
	}
	return numerator / denominator
}

// Candidate is the best lagged match found against one target history.
type Candidate struct {
	Corr              float64
	PeerEndMinuteTsMs int64
	Found             bool
}

// FindBestLaggedCorrelation searches target for the windowLen-point
// slice, at an offset between minOffset and maxLagMinutes minutes back
// from its most recent point, with the greatest absolute correlation to
// src. Ties keep the first (smallest-offset) match found.
func FindBestLaggedCorrelation(src []float64, target *vwaphistory.History, windowLen, minOffset, maxLagMinutes int) Candidate {
	best := Candidate{Corr: math.NaN()}

	target.Search(windowLen, func(histLen int, at func(offset int) ([]models.VwapPoint, bool)) {
		if histLen < windowLen+minOffset {
			return
		}

		maxOffset := histLen - windowLen
		maxSearchOffset := maxLagMinutes
		if maxOffset < maxSearchOffset {
			maxSearchOffset = maxOffset
		}

		for offset := minOffset; offset <= maxSearchOffset; offset++ {
			window, ok := at(offset)
			if !ok {
				continue
			}
			targetVec := make([]float64, windowLen)
			for i, pt := range window {
				targetVec[i] = pt.Vwap
			}

			corr := Pearson(src, targetVec)
			if math.IsNaN(corr) {
				continue
			}

			if !best.Found || math.Abs(corr) > math.Abs(best.Corr) {
				best = Candidate{
					Corr:              corr,
					PeerEndMinuteTsMs: window[windowLen-1].MinuteTsMs,
					Found:             true,
				}
			}
		}
	})

	return best
}

// BestPeer is the winning cross-symbol (or self-lagged) match for one
// source symbol at a given minute.
type BestPeer struct {
	PeerSymbolID      int
	Corr              float64
	PeerEndMinuteTsMs int64
	Found             bool
}

// FindBestPeer runs FindBestLaggedCorrelation against every symbol's
// history (including srcSymbolID's own, using a non-overlapping
// min-offset), returning the single peer with the greatest absolute
// correlation.
func FindBestPeer(srcSymbolID int, src []float64, histories []*vwaphistory.History, windowLen, maxLagMinutes int) BestPeer {
	var best BestPeer

	for j, hist := range histories {
		minOffset := 0
		if j == srcSymbolID {
			minOffset = windowLen
		}

		cand := FindBestLaggedCorrelation(src, hist, windowLen, minOffset, maxLagMinutes)
		if !cand.Found {
			continue
		}

		if !best.Found || math.Abs(cand.Corr) > math.Abs(best.Corr) {
			best = BestPeer{
				PeerSymbolID:      j,
				Corr:              cand.Corr,
				PeerEndMinuteTsMs: cand.PeerEndMinuteTsMs,
				Found:             true,
			}
		}
	}

	return best
}

// ToRecord converts a winning BestPeer into the outbound record shape,
// resolving symbol ids to names via the given table.
func ToRecord(srcSymbolID int, minuteTsMs int64, best BestPeer, symbols *models.SymbolTable) models.CorrelationRecord {
	return models.CorrelationRecord{
		Symbol:            symbols.Name(srcSymbolID),
		MinuteTsMs:        minuteTsMs,
		PeerSymbol:        symbols.Name(best.PeerSymbolID),
		R:                 best.Corr,
		PeerEndMinuteTsMs: best.PeerEndMinuteTsMs,
	}
}
