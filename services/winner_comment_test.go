package services

import (
	"testing"
	"time"

	"earn-service/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMentions(t *testing.T) {
	assert.Equal(t, "", FormatMentions(nil))
	assert.Equal(t, "@alice", FormatMentions([]string{"alice"}))
	assert.Equal(t, "@alice and @bob", FormatMentions([]string{"alice", "bob"}))
	assert.Equal(t, "@alice, @bob, and @carol", FormatMentions([]string{"alice", "bob", "carol"}))
}

func TestPodiumWinners(t *testing.T) {
	now := time.Now()
	sub := func(id string, pos *int, created time.Time) models.Submission {
		return models.Submission{ID: id, IsWinner: true, WinnerPosition: pos, CreatedAt: created}
	}
	one, two, bonus := 1, 2, models.BonusRewardPosition

	got := PodiumWinners([]models.Submission{
		sub("bonus", &bonus, now),
		sub("no-pos-old", nil, now.Add(-time.Hour)),
		sub("second", &two, now),
		sub("no-pos-new", nil, now),
		sub("first", &one, now),
	})

	ids := make([]string, len(got))
	for i, s := range got {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"first", "second", "no-pos-new", "no-pos-old"}, ids)
}

func TestWinnerComment(t *testing.T) {
	listing := &models.Listing{Title: "Build a Dashboard"}
	one, two, three := 1, 2, 3
	winners := []models.Submission{
		{WinnerPosition: &three, User: models.User{Username: "carol"}},
		{WinnerPosition: &one, User: models.User{Username: "alice"}},
		{WinnerPosition: &two, User: models.User{Username: "bob"}},
	}
	first := func(int) int { return 0 }

	msg := WinnerComment(listing, winners, first)
	assert.Equal(t, "Congratulations to @alice, @bob, and @carol for winning Build a Dashboard! 🎉 Thank you to everyone who participated.", msg)

	bonus := models.BonusRewardPosition
	onlyBonus := []models.Submission{{WinnerPosition: &bonus, User: models.User{Username: "dave"}}}
	assert.Empty(t, WinnerComment(listing, onlyBonus, first))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1,350.5 USDC", FormatAmount(decimal.RequireFromString("1350.5"), "USDC"))
	assert.Equal(t, "1,000", FormatAmount(decimal.NewFromInt(1000), ""))
}
