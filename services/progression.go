package services

import (
	"sort"

	"github.com/Returnacy/chepizzadasalva-sub000/models"
)

// defaultCycleSize is the cycle span used when a business has no prizes
// configured at all.
const defaultCycleSize = 15

// Progression is the derived position of a stamp count within the reward
// cycle. It is computed on demand and never persisted, so it cannot drift
// from the coupon ledger.
type Progression struct {
	StampsLastPrize int    `json:"stampsLastPrize"`
	StampsNextPrize int    `json:"stampsNextPrize"`
	LastPrizeName   string `json:"lastPrizeName,omitempty"`
	NextPrizeName   string `json:"nextPrizeName,omitempty"`
}

// ProgressionSequence builds the ordered prize sequence that defines one
// reward cycle: non-promotional prizes ascending by threshold, or all prizes
// when the business only has promotional ones.
func ProgressionSequence(prizes []models.Prize) []models.Prize {
	var seq []models.Prize
	for _, p := range prizes {
		if !p.IsPromotional {
			seq = append(seq, p)
		}
	}
	if len(seq) == 0 {
		seq = append(seq, prizes...)
	}
	sort.SliceStable(seq, func(i, j int) bool {
		return seq[i].PointsRequired < seq[j].PointsRequired
	})
	return seq
}

// ComputeProgression maps a stamp count onto the last crossed and next
// upcoming thresholds of the sequence. Pure: the CRM bulk listing and the
// per-transaction path both call it and must agree.
//
// With no prizes the cycle is a fixed 15 stamps. With one prize its threshold
// is the cycle size. With two or more, thresholds are absolute within one
// cycle spanning the largest threshold; counts beyond that restart at
// intervals of the first threshold.
func ComputeProgression(stamps int, seq []models.Prize) Progression {
	switch len(seq) {
	case 0:
		last := stamps / defaultCycleSize * defaultCycleSize
		return Progression{StampsLastPrize: last, StampsNextPrize: last + defaultCycleSize}
	case 1:
		cycle := seq[0].PointsRequired
		last := stamps / cycle * cycle
		return Progression{
			StampsLastPrize: last,
			StampsNextPrize: last + cycle,
			LastPrizeName:   seq[0].Name,
			NextPrizeName:   seq[0].Name,
		}
	}

	maxConfig := seq[len(seq)-1].PointsRequired
	baseStep := seq[0].PointsRequired

	var last, next int
	if stamps <= maxConfig {
		for _, p := range seq {
			if p.PointsRequired <= stamps {
				last = p.PointsRequired
			}
		}
		for i := len(seq) - 1; i >= 0; i-- {
			if seq[i].PointsRequired > stamps {
				next = seq[i].PointsRequired
			}
		}
		if next == 0 {
			// only reachable at exactly maxConfig
			next = last + baseStep
		}
	} else {
		last = stamps / baseStep * baseStep
		next = last + baseStep
	}

	p := Progression{
		StampsLastPrize: last,
		StampsNextPrize: next,
		LastPrizeName:   prizeNameAt(seq, last),
		NextPrizeName:   prizeNameAt(seq, next),
	}
	if p.NextPrizeName == "" {
		// post-max restart: the next reward repeats the first stage
		p.NextPrizeName = prizeNameAt(seq, baseStep)
	}
	return p
}

func prizeNameAt(seq []models.Prize, points int) string {
	for _, p := range seq {
		if p.PointsRequired == points {
			return p.Name
		}
	}
	return ""
}
