package services

import (
	"testing"

	"github.com/Returnacy/chepizzadasalva-sub000/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prize(name string, points int) models.Prize {
	return models.Prize{ID: uuid.New(), Name: name, PointsRequired: points}
}

func promoPrize(name string, points int) models.Prize {
	p := prize(name, points)
	p.IsPromotional = true
	return p
}

func TestComputeProgressionNoPrizes(t *testing.T) {
	p := ComputeProgression(37, nil)

	assert.Equal(t, 30, p.StampsLastPrize)
	assert.Equal(t, 45, p.StampsNextPrize)
	assert.Empty(t, p.LastPrizeName)
	assert.Empty(t, p.NextPrizeName)
}

func TestComputeProgressionSinglePrize(t *testing.T) {
	seq := []models.Prize{prize("Margherita", 10)}

	p := ComputeProgression(23, seq)

	assert.Equal(t, 20, p.StampsLastPrize)
	assert.Equal(t, 30, p.StampsNextPrize)
	assert.Equal(t, "Margherita", p.LastPrizeName)
	assert.Equal(t, "Margherita", p.NextPrizeName)
}

func TestComputeProgressionWithinCycle(t *testing.T) {
	seq := []models.Prize{prize("Bibita", 5), prize("Margherita", 10), prize("Pizza grande", 20)}

	p := ComputeProgression(12, seq)

	assert.Equal(t, 10, p.StampsLastPrize)
	assert.Equal(t, 20, p.StampsNextPrize)
	assert.Equal(t, "Margherita", p.LastPrizeName)
	assert.Equal(t, "Pizza grande", p.NextPrizeName)
}

func TestComputeProgressionBelowFirstThreshold(t *testing.T) {
	seq := []models.Prize{prize("Bibita", 5), prize("Margherita", 10)}

	p := ComputeProgression(3, seq)

	assert.Equal(t, 0, p.StampsLastPrize)
	assert.Equal(t, 5, p.StampsNextPrize)
	assert.Empty(t, p.LastPrizeName)
	assert.Equal(t, "Bibita", p.NextPrizeName)
}

func TestComputeProgressionAtExactMax(t *testing.T) {
	seq := []models.Prize{prize("Bibita", 5), prize("Margherita", 10), prize("Pizza grande", 20)}

	p := ComputeProgression(20, seq)

	assert.Equal(t, 20, p.StampsLastPrize)
	assert.Equal(t, 25, p.StampsNextPrize)
	assert.Equal(t, "Pizza grande", p.LastPrizeName)
	// no exact match at 25: falls back to the first stage
	assert.Equal(t, "Bibita", p.NextPrizeName)
}

func TestComputeProgressionPastMaxRestarts(t *testing.T) {
	seq := []models.Prize{prize("Bibita", 5), prize("Margherita", 10), prize("Pizza grande", 20)}

	p := ComputeProgression(25, seq)

	assert.Equal(t, 25, p.StampsLastPrize)
	assert.Equal(t, 30, p.StampsNextPrize)
	assert.Equal(t, "Bibita", p.NextPrizeName)
}

func TestComputeProgressionMonotonic(t *testing.T) {
	sequences := [][]models.Prize{
		nil,
		{prize("A", 7)},
		{prize("A", 5), prize("B", 10)},
		{prize("A", 5), prize("B", 10), prize("C", 20)},
		{prize("A", 3), prize("B", 11), prize("C", 14), prize("D", 40)},
	}

	for _, seq := range sequences {
		for stamps := 0; stamps <= 100; stamps++ {
			p := ComputeProgression(stamps, seq)
			assert.GreaterOrEqual(t, p.StampsLastPrize, 0, "stamps=%d", stamps)
			assert.Greater(t, p.StampsNextPrize, p.StampsLastPrize, "stamps=%d", stamps)
		}
	}
}

func TestComputeProgressionIsPure(t *testing.T) {
	seq := []models.Prize{prize("A", 5), prize("B", 10), prize("C", 20)}

	first := ComputeProgression(17, seq)
	second := ComputeProgression(17, seq)

	assert.Equal(t, first, second)
}

func TestProgressionSequenceFiltersPromotional(t *testing.T) {
	prizes := []models.Prize{
		promoPrize("Promo", 3),
		prize("Margherita", 10),
		prize("Bibita", 5),
	}

	seq := ProgressionSequence(prizes)

	require.Len(t, seq, 2)
	assert.Equal(t, "Bibita", seq[0].Name)
	assert.Equal(t, "Margherita", seq[1].Name)
}

func TestProgressionSequenceFallsBackToPromotional(t *testing.T) {
	prizes := []models.Prize{
		promoPrize("Promo B", 8),
		promoPrize("Promo A", 4),
	}

	seq := ProgressionSequence(prizes)

	require.Len(t, seq, 2)
	assert.Equal(t, "Promo A", seq[0].Name)
	assert.Equal(t, "Promo B", seq[1].Name)
}

func TestProgressionSequenceEmpty(t *testing.T) {
	assert.Empty(t, ProgressionSequence(nil))
}
