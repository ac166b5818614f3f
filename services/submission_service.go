package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"earn-service/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmissionService takes entries and records the sponsor's winner picks.
type SubmissionService struct {
	DB  *gorm.DB
	Log *zap.Logger

	now func() time.Time
}

func NewSubmissionService(db *gorm.DB, log *zap.Logger) *SubmissionService {
	return &SubmissionService{DB: db, Log: log, now: time.Now}
}

type createSubmissionRequest struct {
	Link  string `json:"link"`
	Notes string `json:"notes"`
}

// CreateSubmission enters the caller into a listing. One active submission per user.
func (s *SubmissionService) CreateSubmission(c *fiber.Ctx) error {
	caller := CallerFromCtx(c)
	if caller.UserID == "" {
		return unauthenticated(c)
	}

	var req createSubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	req.Link = strings.TrimSpace(req.Link)
	if req.Link == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "link is required"})
	}

	sub, err := s.Submit(c.UserContext(), caller.UserID, c.Params("id"), req.Link, req.Notes)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}

// Submit checks the listing accepts entries and stores the submission.
func (s *SubmissionService) Submit(ctx context.Context, userID, listingID, link, notes string) (*models.Submission, error) {
	db := s.DB.WithContext(ctx)

	var listing models.Listing
	if err := db.First(&listing, "id = ?", listingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("load listing: %w", err)
	}
	switch {
	case !listing.IsPublished:
		return nil, ErrListingNotPublished
	case !listing.IsActive || listing.IsArchived:
		return nil, ErrListingNotActive
	case listing.IsWinnersAnnounced,
		listing.Status == models.ListingStatusClosed,
		listing.Deadline != nil && listing.Deadline.Before(s.now()):
		return nil, ErrListingClosed
	}

	var existing int64
	if err := db.Model(&models.Submission{}).
		Where("listing_id = ? AND user_id = ? AND is_active = ? AND is_archived = ?", listingID, userID, true, false).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("check existing submission: %w", err)
	}
	if existing > 0 {
		return nil, ErrDuplicateSubmission
	}

	sub := models.Submission{
		ID:        uuid.NewString(),
		ListingID: listingID,
		UserID:    userID,
		Link:      link,
		Notes:     notes,
		Status:    models.SubmissionStatusPending,
		Label:     models.LabelUnreviewed,
		IsActive:  true,
	}
	if err := db.Create(&sub).Error; err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}
	s.Log.Info("📥 [SUBMISSION] created", zap.String("listing_id", listingID), zap.String("user_id", userID))
	return &sub, nil
}

// GetListingSubmissions lists a listing's active submissions for its sponsor.
func (s *SubmissionService) GetListingSubmissions(c *fiber.Ctx) error {
	caller := CallerFromCtx(c)
	if caller.UserID == "" {
		return unauthenticated(c)
	}
	db := s.DB.WithContext(c.UserContext())

	listing, err := authorizeSponsor(db, caller, c.Params("id"))
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}

	var subs []models.Submission
	if err := db.Preload("User").
		Where("listing_id = ? AND is_active = ? AND is_archived = ?", listing.ID, true, false).
		Order("created_at DESC").
		Find(&subs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load submissions"})
	}
	return c.JSON(subs)
}

// SelectWinnerRequest sets (or with a null position clears) a winner.
type SelectWinnerRequest struct {
	Position *int `json:"position"`
}

// SelectWinner handles PUT /api/submissions/:id/winner.
func (s *SubmissionService) SelectWinner(c *fiber.Ctx) error {
	caller := CallerFromCtx(c)
	if caller.UserID == "" {
		return unauthenticated(c)
	}
	var req SelectWinnerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	sub, err := s.SetWinnerPosition(c.UserContext(), caller, c.Params("id"), req.Position)
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(sub)
}

// SetWinnerPosition assigns a rank from the listing's schedule to a submission.
// Podium ranks hold one winner each; the bonus rank holds up to the listing's bonus spots.
func (s *SubmissionService) SetWinnerPosition(ctx context.Context, caller Caller, submissionID string, position *int) (*models.Submission, error) {
	db := s.DB.WithContext(ctx)

	var sub models.Submission
	if err := db.First(&sub, "id = ?", submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("load submission: %w", err)
	}
	if _, err := authorizeSponsor(db, caller, sub.ListingID); err != nil {
		return nil, err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		// Lock the listing row so concurrent selections see each other's ranks.
		var listing models.Listing
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&listing, "id = ?", sub.ListingID).Error; err != nil {
			return fmt.Errorf("lock listing: %w", err)
		}
		if listing.IsWinnersAnnounced {
			return ErrAlreadyAnnounced
		}

		if position == nil {
			sub.IsWinner = false
			sub.WinnerPosition = nil
			return tx.Model(&models.Submission{}).Where("id = ?", sub.ID).
				Updates(map[string]any{"is_winner": false, "winner_position": nil}).Error
		}

		sch, err := ScheduleFromRewards(listing.Rewards.Data(), listing.MaxBonusSpots)
		if err != nil {
			return err
		}
		if _, ok := sch.AmountFor(*position); !ok {
			return ErrInvalidPosition
		}

		var taken int64
		if err := tx.Model(&models.Submission{}).
			Where("listing_id = ? AND id <> ? AND is_winner = ? AND winner_position = ? AND is_active = ? AND is_archived = ?",
				listing.ID, sub.ID, true, *position, true, false).
			Count(&taken).Error; err != nil {
			return fmt.Errorf("count winners at position: %w", err)
		}
		if *position == models.BonusRewardPosition {
			if taken >= int64(sch.MaxBonusSpots()) {
				return ErrBonusSpotsFull
			}
		} else if taken > 0 {
			return ErrPositionTaken
		}

		sub.IsWinner = true
		sub.WinnerPosition = position
		return tx.Model(&models.Submission{}).Where("id = ?", sub.ID).
			Updates(map[string]any{"is_winner": true, "winner_position": *position}).Error
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("🏅 [SUBMISSION] winner position updated",
		zap.String("submission_id", sub.ID), zap.String("listing_id", sub.ListingID), zap.Any("position", position))
	return &sub, nil
}
