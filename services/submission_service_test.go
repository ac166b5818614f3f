package services

import (
	"context"
	"testing"
	"time"

	"earn-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetWinnerPosition(t *testing.T) {
	f := newFixture(t, models.RewardMap{"1": 500, "2": 300, "99": 50}, 1)
	svc := NewSubmissionService(f.db, nopLogger())
	owner := Caller{UserID: f.owner.ID}
	ctx := context.Background()

	alice := f.addSubmission(t, "alice", nil, true)
	bob := f.addSubmission(t, "bob", nil, true)
	carol := f.addSubmission(t, "carol", nil, true)

	sub, err := svc.SetWinnerPosition(ctx, owner, alice.ID, intPtr(1))
	require.NoError(t, err)
	assert.True(t, sub.IsWinner)

	_, err = svc.SetWinnerPosition(ctx, owner, bob.ID, intPtr(1))
	assert.ErrorIs(t, err, ErrPositionTaken)

	_, err = svc.SetWinnerPosition(ctx, owner, bob.ID, intPtr(3))
	assert.ErrorIs(t, err, ErrInvalidPosition)

	_, err = svc.SetWinnerPosition(ctx, owner, bob.ID, intPtr(models.BonusRewardPosition))
	require.NoError(t, err)
	_, err = svc.SetWinnerPosition(ctx, owner, carol.ID, intPtr(models.BonusRewardPosition))
	assert.ErrorIs(t, err, ErrBonusSpotsFull)

	// Re-selecting the same rank for the same submission is allowed.
	_, err = svc.SetWinnerPosition(ctx, owner, alice.ID, intPtr(1))
	assert.NoError(t, err)

	sub, err = svc.SetWinnerPosition(ctx, owner, alice.ID, nil)
	require.NoError(t, err)
	assert.False(t, sub.IsWinner)
	assert.Nil(t, sub.WinnerPosition)

	var stored models.Submission
	require.NoError(t, f.db.First(&stored, "id = ?", alice.ID).Error)
	assert.False(t, stored.IsWinner)
	assert.Nil(t, stored.WinnerPosition)

	_, err = svc.SetWinnerPosition(ctx, Caller{UserID: "outsider"}, carol.ID, intPtr(2))
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.SetWinnerPosition(ctx, owner, "missing", intPtr(2))
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestSetWinnerPositionAfterAnnouncement(t *testing.T) {
	f := newFixture(t, models.RewardMap{"1": 500}, 0)
	svc := NewSubmissionService(f.db, nopLogger())
	alice := f.addSubmission(t, "alice", nil, true)
	require.NoError(t, f.db.Model(&models.Listing{}).Where("id = ?", f.listing.ID).Update("is_winners_announced", true).Error)

	_, err := svc.SetWinnerPosition(context.Background(), Caller{UserID: f.owner.ID}, alice.ID, intPtr(1))
	assert.ErrorIs(t, err, ErrAlreadyAnnounced)
}

func TestSubmit(t *testing.T) {
	f := newFixture(t, models.RewardMap{"1": 500}, 0)
	svc := NewSubmissionService(f.db, nopLogger())
	ctx := context.Background()
	require.NoError(t, f.db.Create(&models.User{ID: "talent", Username: "talent"}).Error)

	sub, err := svc.Submit(ctx, "talent", f.listing.ID, "https://example.com/work", "")
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusPending, sub.Status)
	assert.Equal(t, models.LabelUnreviewed, sub.Label)

	_, err = svc.Submit(ctx, "talent", f.listing.ID, "https://example.com/again", "")
	assert.ErrorIs(t, err, ErrDuplicateSubmission)

	_, err = svc.Submit(ctx, "talent", "missing", "https://example.com/work", "")
	assert.ErrorIs(t, err, ErrListingNotFound)

	past := time.Now().Add(-time.Hour).UTC()
	require.NoError(t, f.db.Model(&models.Listing{}).Where("id = ?", f.listing.ID).Update("deadline", past).Error)
	_, err = svc.Submit(ctx, "someone-else", f.listing.ID, "https://example.com/late", "")
	assert.ErrorIs(t, err, ErrListingClosed)
}
