package services

import (
	"earn-service/models"
)

// countWinners splits selected winners into podium and bonus holders.
func countWinners(winners []models.Submission) (podium, bonus int) {
	for i := range winners {
		if winners[i].IsBonus() {
			bonus++
		} else {
			podium++
		}
	}
	return podium, bonus
}

// ValidateWinners checks that the sponsor picked enough winners to announce.
//
// Every position must be filled, with one exception: bonus slots may stay
// empty when every podium rank is taken and no eligible submission is left to
// choose from. remaining is the number of active, non-archived submissions
// that are not winners.
func ValidateWinners(sch Schedule, winners []models.Submission, remaining int64) error {
	total := sch.TotalPositions()
	if total == 0 || len(winners) == total {
		return nil
	}

	podium, bonus := countWinners(winners)
	remainingBonusSpots := sch.MaxBonusSpots() - bonus
	podiumFilled := podium == len(sch.Podium)

	if podiumFilled && remainingBonusSpots > 0 && remaining == 0 {
		return nil
	}
	return ErrIncompleteWinners
}
