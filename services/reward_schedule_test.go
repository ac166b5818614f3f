package services

import (
	"testing"

	"earn-service/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleFromRewards(t *testing.T) {
	sch, err := ScheduleFromRewards(models.RewardMap{"2": 300, "1": 500, "99": 100, "3": 0}, 3)
	require.NoError(t, err)

	require.Len(t, sch.Podium, 2)
	assert.Equal(t, 1, sch.Podium[0].Rank)
	assert.Equal(t, 2, sch.Podium[1].Rank)
	require.NotNil(t, sch.Bonus)
	assert.Equal(t, 3, sch.Bonus.MaxSlots)

	assert.Equal(t, 5, sch.TotalPositions())
	assert.True(t, sch.TotalAmount().Equal(decimal.NewFromInt(1100)))

	amount, ok := sch.AmountFor(99)
	assert.True(t, ok)
	assert.True(t, amount.Equal(decimal.NewFromInt(100)))

	_, ok = sch.AmountFor(3)
	assert.False(t, ok, "zero-amount ranks are not prizes")
}

func TestScheduleFromRewardsRejectsBadRanks(t *testing.T) {
	for _, key := range []string{"first", "0", "-1"} {
		_, err := ScheduleFromRewards(models.RewardMap{key: 100}, 0)
		assert.Error(t, err, key)
	}
}

func TestScheduleRoundTrip(t *testing.T) {
	in := models.RewardMap{"1": 1000, "2": 500.5, "99": 25}
	sch, err := ScheduleFromRewards(in, 4)
	require.NoError(t, err)

	assert.Equal(t, in, sch.Rewards())
	assert.Equal(t, 4, sch.MaxBonusSpots())
}

func TestScheduleWithoutBonus(t *testing.T) {
	sch, err := ScheduleFromRewards(models.RewardMap{"1": 100}, 5)
	require.NoError(t, err)

	assert.Nil(t, sch.Bonus)
	assert.Equal(t, 0, sch.MaxBonusSpots())
	assert.Equal(t, 1, sch.TotalPositions())
	_, ok := sch.AmountFor(models.BonusRewardPosition)
	assert.False(t, ok)
}
