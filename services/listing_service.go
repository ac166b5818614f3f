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
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ListingService owns listing drafts and their publication.
type ListingService struct {
	DB     *gorm.DB
	Log    *zap.Logger
	Prices PriceOracle

	now func() time.Time
}

func NewListingService(db *gorm.DB, log *zap.Logger, prices PriceOracle) *ListingService {
	return &ListingService{DB: db, Log: log, Prices: prices, now: time.Now}
}

// CreateListingRequest is the body of POST /api/listings.
type CreateListingRequest struct {
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	Type             models.ListingType `json:"type"`
	Token            string             `json:"token"`
	Rewards          models.RewardMap   `json:"rewards"`
	MaxBonusSpots    int                `json:"max_bonus_spots"`
	Deadline         *time.Time         `json:"deadline"`
	IsPlatformPaying bool               `json:"is_platform_paying"`
}

// listingSlug makes a URL-safe slug with a short random suffix so titles may repeat.
func listingSlug(title string) string {
	return slug.Make(title) + "-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
}

// CreateListing creates an unpublished listing owned by the caller's current sponsor.
func (s *ListingService) CreateListing(c *fiber.Ctx) error {
	caller := CallerFromCtx(c)
	if caller.UserID == "" {
		return unauthenticated(c)
	}

	var req CreateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title is required"})
	}
	switch req.Type {
	case "":
		req.Type = models.ListingTypeBounty
	case models.ListingTypeBounty, models.ListingTypeProject, models.ListingTypeHackathon:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid type (use: bounty, project, hackathon)"})
	}

	schedule, err := ScheduleFromRewards(req.Rewards, req.MaxBonusSpots)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var user models.User
	if err := s.DB.WithContext(c.UserContext()).First(&user, "id = ?", caller.UserID).Error; err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": ErrUserNotFound.Error()})
	}
	if user.CurrentSponsorID == nil || *user.CurrentSponsorID == "" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you are not a member of any sponsor"})
	}

	listing := models.Listing{
		ID:               uuid.NewString(),
		Slug:             listingSlug(req.Title),
		Title:            req.Title,
		Description:      req.Description,
		Type:             req.Type,
		SponsorID:        *user.CurrentSponsorID,
		PocID:            user.ID,
		Rewards:          datatypes.NewJSONType(schedule.Rewards()),
		MaxBonusSpots:    schedule.MaxBonusSpots(),
		RewardAmount:     schedule.TotalAmount(),
		Token:            strings.ToUpper(req.Token),
		Deadline:         req.Deadline,
		IsActive:         true,
		Status:           models.ListingStatusOpen,
		IsPlatformPaying: req.IsPlatformPaying,
	}
	if err := s.DB.WithContext(c.UserContext()).Create(&listing).Error; err != nil {
		s.Log.Error("❌ [LISTING] create failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create listing"})
	}

	s.Log.Info("📝 [LISTING] draft created", zap.String("listing_id", listing.ID), zap.String("slug", listing.Slug))
	return c.Status(fiber.StatusCreated).JSON(listing)
}

// GetListingBySlug returns a published, active listing.
func (s *ListingService) GetListingBySlug(c *fiber.Ctx) error {
	var listing models.Listing
	err := s.DB.WithContext(c.UserContext()).
		Where("slug = ? AND is_published = ? AND is_active = ? AND is_archived = ?", c.Params("slug"), true, true, false).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": ErrListingNotFound.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load listing"})
	}
	return c.JSON(listing)
}

// PublishListing publishes immediately.
func (s *ListingService) PublishListing(c *fiber.Ctx) error {
	caller := CallerFromCtx(c)
	if caller.UserID == "" {
		return unauthenticated(c)
	}
	db := s.DB.WithContext(c.UserContext())

	listing, err := authorizeSponsor(db, caller, c.Params("id"))
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	if listing.IsPublished {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrAlreadyPublished.Error()})
	}
	if err := s.publish(c.UserContext(), listing); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to publish listing"})
	}
	return c.JSON(listing)
}

type schedulePublishRequest struct {
	PublishAt string `json:"publish_at"`
}

// SchedulePublish sets publish_at; the publish sweep picks the listing up once it passes.
func (s *ListingService) SchedulePublish(c *fiber.Ctx) error {
	caller := CallerFromCtx(c)
	if caller.UserID == "" {
		return unauthenticated(c)
	}

	var req schedulePublishRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	publishAt, err := time.Parse(time.RFC3339, req.PublishAt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid publish_at — use RFC3339 (e.g., 2025-12-31T23:00:00Z)",
		})
	}
	if !publishAt.After(s.now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "publish_at must be in the future"})
	}

	db := s.DB.WithContext(c.UserContext())
	listing, err := authorizeSponsor(db, caller, c.Params("id"))
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	if listing.IsPublished {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrAlreadyPublished.Error()})
	}

	if err := db.Model(listing).Update("publish_at", publishAt).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to schedule listing"})
	}
	listing.PublishAt = &publishAt
	s.Log.Info("🗓️ [LISTING] publish scheduled", zap.String("listing_id", listing.ID), zap.Time("publish_at", publishAt))
	return c.JSON(listing)
}

// CancelScheduledPublish clears publish_at on an unpublished listing.
func (s *ListingService) CancelScheduledPublish(c *fiber.Ctx) error {
	caller := CallerFromCtx(c)
	if caller.UserID == "" {
		return unauthenticated(c)
	}
	db := s.DB.WithContext(c.UserContext())

	listing, err := authorizeSponsor(db, caller, c.Params("id"))
	if err != nil {
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	if listing.IsPublished {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrAlreadyPublished.Error()})
	}
	if err := db.Model(listing).Update("publish_at", nil).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to cancel schedule"})
	}
	listing.PublishAt = nil
	return c.JSON(listing)
}

// GetListingComments returns the listing's comments, newest first.
func (s *ListingService) GetListingComments(c *fiber.Ctx) error {
	var comments []models.Comment
	if err := s.DB.WithContext(c.UserContext()).
		Where("ref_id = ? AND ref_type = ?", c.Params("id"), models.CommentRefBounty).
		Order("created_at DESC").
		Find(&comments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load comments"})
	}
	return c.JSON(comments)
}

// PublishScheduled publishes every listing whose publish_at has passed.
// It runs from the scheduler every minute.
func (s *ListingService) PublishScheduled(ctx context.Context) {
	var listings []models.Listing
	err := s.DB.WithContext(ctx).
		Where("is_published = ? AND publish_at IS NOT NULL AND publish_at <= ?", false, s.now()).
		Find(&listings).Error
	if err != nil {
		s.Log.Error("[SCHEDULER] failed to load scheduled listings", zap.Error(err))
		return
	}

	for i := range listings {
		if err := s.publish(ctx, &listings[i]); err != nil {
			continue
		}
		s.Log.Info("✅ [SCHEDULER] auto-published listing", zap.String("listing_id", listings[i].ID), zap.String("title", listings[i].Title))
	}
}

// publish flips the listing live and prices its reward in USD at publish time.
func (s *ListingService) publish(ctx context.Context, l *models.Listing) error {
	now := s.now()
	updates := map[string]any{
		"is_published": true,
		"published_at": now,
		"publish_at":   nil,
	}
	if s.Prices != nil && l.Token != "" {
		price, err := s.Prices.HistoricalUSDPrice(ctx, l.Token, now)
		if err != nil {
			s.Log.Warn("⚠️ [LISTING] token price unavailable at publish", zap.String("listing_id", l.ID), zap.Error(err))
		} else {
			usd := l.RewardAmount.Mul(price)
			updates["usd_value"] = usd
			l.UsdValue = usd
		}
	}

	if err := s.DB.WithContext(ctx).Model(&models.Listing{}).Where("id = ?", l.ID).Updates(updates).Error; err != nil {
		s.Log.Error("❌ [LISTING] publish failed", zap.String("listing_id", l.ID), zap.Error(err))
		return fmt.Errorf("publish listing %s: %w", l.ID, err)
	}
	l.IsPublished = true
	l.PublishedAt = &now
	l.PublishAt = nil
	return nil
}
