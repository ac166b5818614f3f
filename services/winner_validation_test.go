package services

import (
	"testing"

	"earn-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func winnerAt(pos int) models.Submission {
	p := pos
	return models.Submission{IsWinner: true, WinnerPosition: &p, IsActive: true}
}

func winnersAt(positions ...int) []models.Submission {
	out := make([]models.Submission, len(positions))
	for i, p := range positions {
		out[i] = winnerAt(p)
	}
	return out
}

func TestValidateWinners(t *testing.T) {
	podiumAndBonus, err := ScheduleFromRewards(models.RewardMap{"1": 500, "2": 300, "99": 100}, 3)
	require.NoError(t, err)

	tests := []struct {
		name      string
		schedule  Schedule
		winners   []models.Submission
		remaining int64
		wantErr   error
	}{
		{
			name:     "no reward positions",
			schedule: Schedule{},
			wantErr:  nil,
		},
		{
			name:     "every position filled",
			schedule: podiumAndBonus,
			winners:  winnersAt(1, 2, 99, 99, 99),
			wantErr:  nil,
		},
		{
			name:      "bonus starved with no submissions left",
			schedule:  podiumAndBonus,
			winners:   winnersAt(1, 2, 99),
			remaining: 0,
			wantErr:   nil,
		},
		{
			name:      "bonus open while submissions remain",
			schedule:  podiumAndBonus,
			winners:   winnersAt(1, 2, 99),
			remaining: 2,
			wantErr:   ErrIncompleteWinners,
		},
		{
			name:      "podium incomplete",
			schedule:  podiumAndBonus,
			winners:   winnersAt(1, 99, 99, 99),
			remaining: 0,
			wantErr:   ErrIncompleteWinners,
		},
		{
			name:      "no winners at all",
			schedule:  podiumAndBonus,
			remaining: 0,
			wantErr:   ErrIncompleteWinners,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWinners(tt.schedule, tt.winners, tt.remaining)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
