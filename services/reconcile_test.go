package services

import (
	"testing"

	"earn-service/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	sch, err := ScheduleFromRewards(models.RewardMap{"1": 500, "2": 300, "99": 100}, 3)
	require.NoError(t, err)
	total := sch.TotalAmount() // 1100

	t.Run("all bonus slots used", func(t *testing.T) {
		rec := Reconcile(sch, total, winnersAt(1, 2, 99, 99, 99))
		assert.False(t, rec.RecomputeUSD)
		assert.True(t, rec.RewardAmount.Equal(total))
		assert.Equal(t, 3, rec.Schedule.MaxBonusSpots())
	})

	t.Run("one bonus winner", func(t *testing.T) {
		rec := Reconcile(sch, total, winnersAt(1, 2, 99))
		assert.True(t, rec.RecomputeUSD)
		assert.Equal(t, 1, rec.Schedule.MaxBonusSpots())
		assert.True(t, rec.RewardAmount.Equal(decimal.NewFromInt(900)), rec.RewardAmount.String())
		assert.Equal(t, models.RewardMap{"1": 500, "2": 300, "99": 100}, rec.Schedule.Rewards())
	})

	t.Run("no bonus winners removes the tier", func(t *testing.T) {
		rec := Reconcile(sch, total, winnersAt(1, 2))
		assert.True(t, rec.RecomputeUSD)
		assert.Nil(t, rec.Schedule.Bonus)
		assert.True(t, rec.RewardAmount.Equal(decimal.NewFromInt(800)))
		assert.NotContains(t, rec.Schedule.Rewards(), "99")
	})

	t.Run("idempotent", func(t *testing.T) {
		first := Reconcile(sch, total, winnersAt(1, 2, 99, 99))
		second := Reconcile(first.Schedule, first.RewardAmount, winnersAt(1, 2, 99, 99))
		assert.False(t, second.RecomputeUSD)
		assert.True(t, second.RewardAmount.Equal(first.RewardAmount))
		assert.Equal(t, first.Schedule.Rewards(), second.Schedule.Rewards())
		assert.Equal(t, first.Schedule.MaxBonusSpots(), second.Schedule.MaxBonusSpots())
	})

	t.Run("does not mutate the input schedule", func(t *testing.T) {
		_ = Reconcile(sch, total, winnersAt(1, 2))
		require.NotNil(t, sch.Bonus)
		assert.Equal(t, 3, sch.Bonus.MaxSlots)
	})
}

func TestRecomputedUSDValue(t *testing.T) {
	sch, err := ScheduleFromRewards(models.RewardMap{"1": 500, "2": 300, "99": 100}, 3)
	require.NoError(t, err)

	// 1000 budget with two bonus winners: one $100 slot released.
	rec := Reconcile(sch, decimal.NewFromInt(1000), winnersAt(1, 2, 99, 99))
	require.True(t, rec.RewardAmount.Equal(decimal.NewFromInt(900)))

	usd := rec.RewardAmount.Mul(decimal.RequireFromString("1.5"))
	assert.True(t, usd.Equal(decimal.NewFromInt(1350)), usd.String())
}

func TestRewardInUSD(t *testing.T) {
	got := RewardInUSD(decimal.NewFromInt(1350), decimal.NewFromInt(900), decimal.NewFromInt(500))
	assert.True(t, got.Equal(decimal.NewFromInt(750)), got.String())

	assert.True(t, RewardInUSD(decimal.NewFromInt(10), decimal.Zero, decimal.NewFromInt(5)).IsZero())
}

func TestReconcileBonusWithoutSlots(t *testing.T) {
	sch, err := ScheduleFromRewards(models.RewardMap{"1": 500, "99": 100}, 0)
	require.NoError(t, err)
	require.NotNil(t, sch.Bonus)

	rec := Reconcile(sch, decimal.NewFromInt(500), winnersAt(1))
	assert.False(t, rec.RecomputeUSD, "nothing released, nothing to reprice")
	assert.True(t, rec.RewardAmount.Equal(decimal.NewFromInt(500)))
	assert.Nil(t, rec.Schedule.Bonus)
}
