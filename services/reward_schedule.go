package services

import (
	"fmt"
	"sort"
	"strconv"

	"earn-service/models"

	"github.com/shopspring/decimal"
)

// PodiumPrize is a numbered rank with a single winner.
type PodiumPrize struct {
	Rank   int
	Amount decimal.Decimal
}

// BonusTier is the repeatable lower prize awarded to up to MaxSlots winners.
type BonusTier struct {
	Amount   decimal.Decimal
	MaxSlots int
}

// Schedule is the typed form of a listing's reward map.
type Schedule struct {
	Podium []PodiumPrize // sorted by rank
	Bonus  *BonusTier
}

// ScheduleFromRewards converts the stored rank → amount map. The bonus key takes
// its slot count from maxBonusSpots. Zero amounts are not prizes.
func ScheduleFromRewards(rewards models.RewardMap, maxBonusSpots int) (Schedule, error) {
	var sch Schedule
	for key, amount := range rewards {
		rank, err := strconv.Atoi(key)
		if err != nil || rank <= 0 {
			return Schedule{}, fmt.Errorf("invalid reward rank %q", key)
		}
		if amount <= 0 {
			continue
		}
		if rank == models.BonusRewardPosition {
			sch.Bonus = &BonusTier{Amount: decimal.NewFromFloat(amount), MaxSlots: maxBonusSpots}
			continue
		}
		sch.Podium = append(sch.Podium, PodiumPrize{Rank: rank, Amount: decimal.NewFromFloat(amount)})
	}
	sort.Slice(sch.Podium, func(i, j int) bool { return sch.Podium[i].Rank < sch.Podium[j].Rank })
	return sch, nil
}

// Rewards converts the schedule back to the stored map.
func (s Schedule) Rewards() models.RewardMap {
	out := make(models.RewardMap, len(s.Podium)+1)
	for _, p := range s.Podium {
		out[strconv.Itoa(p.Rank)] = p.Amount.InexactFloat64()
	}
	if s.Bonus != nil {
		out[strconv.Itoa(models.BonusRewardPosition)] = s.Bonus.Amount.InexactFloat64()
	}
	return out
}

// MaxBonusSpots is zero when there is no bonus tier.
func (s Schedule) MaxBonusSpots() int {
	if s.Bonus == nil {
		return 0
	}
	return s.Bonus.MaxSlots
}

// TotalPositions counts every winner slot: one per podium rank plus each bonus slot.
func (s Schedule) TotalPositions() int {
	return len(s.Podium) + s.MaxBonusSpots()
}

// TotalAmount is the budget implied by the schedule.
func (s Schedule) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Podium {
		total = total.Add(p.Amount)
	}
	if s.Bonus != nil {
		total = total.Add(s.Bonus.Amount.Mul(decimal.NewFromInt(int64(s.Bonus.MaxSlots))))
	}
	return total
}

// AmountFor returns the prize for a winner position and whether the position exists.
func (s Schedule) AmountFor(position int) (decimal.Decimal, bool) {
	if position == models.BonusRewardPosition {
		if s.Bonus == nil {
			return decimal.Zero, false
		}
		return s.Bonus.Amount, true
	}
	for _, p := range s.Podium {
		if p.Rank == position {
			return p.Amount, true
		}
	}
	return decimal.Zero, false
}
