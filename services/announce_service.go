package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"earn-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// deadlineBackdate is how far in the past an open deadline is moved on announcement.
const deadlineBackdate = 2 * time.Minute

// AnnounceService closes listings and pays out their winners.
type AnnounceService struct {
	DB       *gorm.DB
	Log      *zap.Logger
	Prices   PriceOracle
	Notifier *Notifier
	Runner   JobRunner

	now func() time.Time
}

func NewAnnounceService(db *gorm.DB, log *zap.Logger, prices PriceOracle, notifier *Notifier, runner JobRunner) *AnnounceService {
	return &AnnounceService{
		DB:       db,
		Log:      log,
		Prices:   prices,
		Notifier: notifier,
		Runner:   runner,
		now:      time.Now,
	}
}

// AnnounceWinners handles POST /api/listings/announce/:id.
func (s *AnnounceService) AnnounceWinners(c *fiber.Ctx) error {
	caller := CallerFromCtx(c)
	if caller.UserID == "" {
		return unauthenticated(c)
	}
	listingID := c.Params("id")

	if _, err := s.Announce(c.UserContext(), caller, listingID); err != nil {
		s.Log.Warn("🚫 [ANNOUNCE] announcement rejected",
			zap.String("listing_id", listingID), zap.String("user_id", caller.UserID), zap.Error(err))
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	// The notifier outlives the request; its failures never reach the sponsor.
	announcement := Announcement{ListingID: listingID, AnnouncedBy: caller.UserID}
	s.Runner.Run("announce-notify:"+listingID, func(ctx context.Context) {
		s.Notifier.Notify(ctx, announcement)
	})

	return c.JSON(fiber.Map{"message": "Success"})
}

// Announce validates, reconciles and commits a winner announcement. The
// listing row stays locked from validation to commit so winner selections
// cannot slip in between.
func (s *AnnounceService) Announce(ctx context.Context, caller Caller, listingID string) (*models.Listing, error) {
	log := s.Log.With(zap.String("listing_id", listingID))
	db := s.DB.WithContext(ctx)

	listing, err := authorizeSponsor(db, caller, listingID)
	if err != nil {
		return nil, err
	}
	if err := checkAnnounceable(listing); err != nil {
		return nil, err
	}

	// The price API is a network call and stays outside the transaction.
	price, priced := s.unitPrice(ctx, log, listing)

	var announced models.Listing
	var winnerCount int
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&announced, "id = ?", listingID).Error; err != nil {
			return fmt.Errorf("lock listing: %w", err)
		}
		if err := checkAnnounceable(&announced); err != nil {
			return err
		}

		var winners []models.Submission
		if err := tx.Where("listing_id = ? AND is_winner = ? AND is_active = ? AND is_archived = ?", listingID, true, true, false).
			Find(&winners).Error; err != nil {
			return fmt.Errorf("load winners: %w", err)
		}
		schedule, err := ScheduleFromRewards(announced.Rewards.Data(), announced.MaxBonusSpots)
		if err != nil {
			return err
		}
		var remaining int64
		if err := tx.Model(&models.Submission{}).
			Where("listing_id = ? AND is_winner = ? AND is_active = ? AND is_archived = ?", listingID, false, true, false).
			Count(&remaining).Error; err != nil {
			return fmt.Errorf("count remaining submissions: %w", err)
		}
		if err := ValidateWinners(schedule, winners, remaining); err != nil {
			return err
		}

		rec := Reconcile(schedule, announced.RewardAmount, winners)
		usdValue := announced.UsdValue
		if rec.RecomputeUSD {
			if priced {
				usdValue = rec.RewardAmount.Mul(price)
			} else {
				log.Warn("⚠️ [ANNOUNCE] reward amount changed without a token price, keeping previous usd value",
					zap.String("token", announced.Token))
			}
		}

		winnerCount = len(winners)
		return commit(tx, &announced, rec, usdValue, winners, s.now())
	})
	if err != nil {
		return nil, err
	}

	log.Info("✅ [ANNOUNCE] winners announced",
		zap.Int("winners", winnerCount),
		zap.String("reward_amount", announced.RewardAmount.String()),
		zap.String("usd_value", announced.UsdValue.String()))
	return &announced, nil
}

// authorizeSponsor loads the listing and checks the caller belongs to its sponsor.
func authorizeSponsor(db *gorm.DB, caller Caller, listingID string) (*models.Listing, error) {
	var listing models.Listing
	if err := db.First(&listing, "id = ?", listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("load listing: %w", err)
	}

	var user models.User
	if err := db.First(&user, "id = ?", caller.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if user.Role == models.UserRoleGod || caller.HasRole(models.UserRoleGod) {
		return &listing, nil
	}
	if user.CurrentSponsorID == nil || *user.CurrentSponsorID != listing.SponsorID {
		return nil, ErrUnauthorized
	}
	return &listing, nil
}

func checkAnnounceable(l *models.Listing) error {
	switch {
	case l.IsWinnersAnnounced:
		return ErrAlreadyAnnounced
	case !l.IsActive:
		return ErrListingNotActive
	case !l.IsPublished:
		return ErrListingNotPublished
	}
	return nil
}

// unitPrice looks up the token's USD price at the listing's publish date.
// Only a bonus tier with open slots can change the reward amount, so other
// listings skip the lookup. A failed lookup reports false.
func (s *AnnounceService) unitPrice(ctx context.Context, log *zap.Logger, l *models.Listing) (decimal.Decimal, bool) {
	sch, err := ScheduleFromRewards(l.Rewards.Data(), l.MaxBonusSpots)
	if err != nil || sch.MaxBonusSpots() == 0 || l.Token == "" {
		return decimal.Zero, false
	}
	at := s.now()
	if l.PublishedAt != nil {
		at = *l.PublishedAt
	}
	price, err := s.Prices.HistoricalUSDPrice(ctx, l.Token, at)
	if err != nil {
		log.Warn("⚠️ [ANNOUNCE] token price unavailable",
			zap.String("token", l.Token), zap.Time("at", at), zap.Error(err))
		return decimal.Zero, false
	}
	return price, true
}

type winnerUpdate struct {
	submissionID string
	userID       string
	rewardInUSD  decimal.Decimal
	label        models.SubmissionLabel
}

func planWinnerUpdates(sch Schedule, usdValue, rewardAmount decimal.Decimal, winners []models.Submission) []winnerUpdate {
	updates := make([]winnerUpdate, 0, len(winners))
	for _, w := range winners {
		amount := decimal.Zero
		if w.WinnerPosition != nil {
			amount, _ = sch.AmountFor(*w.WinnerPosition)
		}
		label := w.Label
		if label == models.LabelUnreviewed || label == "" {
			label = models.LabelReviewed
		}
		updates = append(updates, winnerUpdate{
			submissionID: w.ID,
			userID:       w.UserID,
			rewardInUSD:  RewardInUSD(usdValue, rewardAmount, amount),
			label:        label,
		})
	}
	return updates
}

// firstOfNextMonth is when a win credit becomes usable.
func firstOfNextMonth(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC)
}

// commit writes the announcement inside tx. The flag is flipped with a
// conditional update as a second guard against a double announcement.
func commit(tx *gorm.DB, l *models.Listing, rec Reconciliation, usdValue decimal.Decimal, winners []models.Submission, now time.Time) error {
	listingUpdates := map[string]any{
		"is_winners_announced": true,
		"winners_announced_at": now,
		"status":               models.ListingStatusClosed,
		"rewards":              datatypes.NewJSONType(rec.Schedule.Rewards()),
		"max_bonus_spots":      rec.Schedule.MaxBonusSpots(),
		"reward_amount":        rec.RewardAmount,
		"usd_value":            usdValue,
	}
	deadline := l.Deadline
	if deadline == nil || deadline.After(now) {
		backdated := now.Add(-deadlineBackdate)
		deadline = &backdated
		listingUpdates["deadline"] = backdated
	}

	updates := planWinnerUpdates(rec.Schedule, usdValue, rec.RewardAmount, winners)

	res := tx.Model(&models.Listing{}).
		Where("id = ? AND is_winners_announced = ?", l.ID, false).
		Updates(listingUpdates)
	if res.Error != nil {
		return fmt.Errorf("update listing: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyAnnounced
	}

	for _, u := range updates {
		if err := tx.Model(&models.Submission{}).
			Where("id = ?", u.submissionID).
			Updates(map[string]any{
				"status":        models.SubmissionStatusApproved,
				"reward_in_usd": u.rewardInUSD,
				"label":         u.label,
			}).Error; err != nil {
			return fmt.Errorf("update submission %s: %w", u.submissionID, err)
		}
	}

	if len(updates) > 0 {
		credits := make([]models.CreditEntry, 0, len(updates))
		for _, u := range updates {
			credits = append(credits, models.CreditEntry{
				ID:             uuid.NewString(),
				UserID:         u.userID,
				SubmissionID:   u.submissionID,
				Type:           models.CreditWinBonus,
				Change:         1,
				EffectiveMonth: firstOfNextMonth(now),
			})
		}
		if err := tx.Create(&credits).Error; err != nil {
			return fmt.Errorf("award win credits: %w", err)
		}
	}

	l.IsWinnersAnnounced = true
	l.WinnersAnnouncedAt = &now
	l.Status = models.ListingStatusClosed
	l.Deadline = deadline
	l.Rewards = datatypes.NewJSONType(rec.Schedule.Rewards())
	l.MaxBonusSpots = rec.Schedule.MaxBonusSpots()
	l.RewardAmount = rec.RewardAmount
	l.UsdValue = usdValue
	return nil
}
