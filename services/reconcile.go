package services

import (
	"earn-service/models"

	"github.com/shopspring/decimal"
)

// Reconciliation is the reward state after unused bonus slots are released.
type Reconciliation struct {
	Schedule     Schedule
	RewardAmount decimal.Decimal
	// RecomputeUSD is set when RewardAmount changed and usdValue is now stale.
	RecomputeUSD bool
}

// Reconcile shrinks the bonus tier to the number of bonus winners actually
// selected and deducts the released slots from rewardAmount. A tier with no
// bonus winners is removed entirely.
func Reconcile(sch Schedule, rewardAmount decimal.Decimal, winners []models.Submission) Reconciliation {
	out := Reconciliation{
		Schedule:     Schedule{Podium: append([]PodiumPrize(nil), sch.Podium...)},
		RewardAmount: rewardAmount,
	}
	if sch.Bonus == nil {
		return out
	}
	bonus := *sch.Bonus
	out.Schedule.Bonus = &bonus

	_, selected := countWinners(winners)
	released := decimal.Zero
	switch {
	case selected == 0:
		released = bonus.Amount.Mul(decimal.NewFromInt(int64(bonus.MaxSlots)))
		out.Schedule.Bonus = nil
	case selected < bonus.MaxSlots:
		released = bonus.Amount.Mul(decimal.NewFromInt(int64(bonus.MaxSlots - selected)))
		out.Schedule.Bonus.MaxSlots = selected
	}
	if !released.IsZero() {
		out.RewardAmount = rewardAmount.Sub(released)
		out.RecomputeUSD = true
	}
	return out
}

// RewardInUSD converts a rank amount with the listing's USD rate.
func RewardInUSD(usdValue, rewardAmount, rankAmount decimal.Decimal) decimal.Decimal {
	if rewardAmount.IsZero() {
		return decimal.Zero
	}
	return usdValue.Div(rewardAmount).Mul(rankAmount)
}
