package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"earn-service/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ObjectStore uploads a file and returns its public URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// Announcement identifies a committed winner announcement.
type Announcement struct {
	ListingID   string
	AnnouncedBy string
}

// NotifyReport lists the steps that failed. Failures are never surfaced to the sponsor.
type NotifyReport struct {
	Failed []string
}

// Notifier runs the best-effort follow-ups of an announcement. Chat, Sync
// and Store are optional.
type Notifier struct {
	DB          *gorm.DB
	Log         *zap.Logger
	Chat        Webhook
	Emails      *EmailQueue
	Sync        RecordSyncer
	Store       ObjectStore
	FrontendURL string

	pick func(n int) int
	now  func() time.Time
}

func NewNotifier(db *gorm.DB, log *zap.Logger, emails *EmailQueue, frontendURL string) *Notifier {
	return &Notifier{
		DB:          db,
		Log:         log,
		Emails:      emails,
		FrontendURL: frontendURL,
		pick:        rand.IntN,
		now:         time.Now,
	}
}

type announcementData struct {
	listing      models.Listing
	sponsor      models.Sponsor
	schedule     Schedule
	winners      []models.Submission
	participants []models.User
}

// Notify runs every step even when earlier ones fail.
func (n *Notifier) Notify(ctx context.Context, a Announcement) NotifyReport {
	log := n.Log.With(zap.String("listing_id", a.ListingID))
	var report NotifyReport

	data, err := n.load(ctx, a.ListingID)
	if err != nil {
		log.Error("❌ [NOTIFY] failed to load announcement", zap.Error(err))
		report.Failed = append(report.Failed, "load")
		return report
	}

	steps := []struct {
		name string
		fn   func(context.Context, *announcementData) error
	}{
		{"chat_webhook", n.postChatMessage},
		{"winner_comment", func(ctx context.Context, d *announcementData) error { return n.postWinnerComment(ctx, d, a.AnnouncedBy) }},
		{"announcement_emails", n.queueAnnouncementEmails},
		{"payments", n.createPayments},
		{"record_sync", n.syncRecord},
	}
	for _, step := range steps {
		if err := n.runStep(ctx, step.name, data, step.fn); err != nil {
			log.Error("⚠️ [NOTIFY] step failed", zap.String("step", step.name), zap.Error(err))
			report.Failed = append(report.Failed, step.name)
			continue
		}
		log.Info("✅ [NOTIFY] step done", zap.String("step", step.name))
	}
	return report
}

// runStep turns a panic inside a step into an error.
func (n *Notifier) runStep(ctx context.Context, name string, data *announcementData, fn func(context.Context, *announcementData) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", name, r)
		}
	}()
	return fn(ctx, data)
}

func (n *Notifier) load(ctx context.Context, listingID string) (*announcementData, error) {
	db := n.DB.WithContext(ctx)
	var d announcementData

	if err := db.First(&d.listing, "id = ?", listingID).Error; err != nil {
		return nil, fmt.Errorf("load listing: %w", err)
	}
	sch, err := ScheduleFromRewards(d.listing.Rewards.Data(), d.listing.MaxBonusSpots)
	if err != nil {
		return nil, err
	}
	d.schedule = sch

	if err := db.First(&d.sponsor, "id = ?", d.listing.SponsorID).Error; err != nil {
		n.Log.Warn("⚠️ [NOTIFY] sponsor not found", zap.String("sponsor_id", d.listing.SponsorID), zap.Error(err))
	}

	if err := db.Preload("User").
		Where("listing_id = ? AND is_winner = ? AND is_active = ? AND is_archived = ?", listingID, true, true, false).
		Order("created_at DESC").
		Find(&d.winners).Error; err != nil {
		return nil, fmt.Errorf("load winners: %w", err)
	}

	var userIDs []string
	if err := db.Model(&models.Submission{}).
		Where("listing_id = ?", listingID).
		Distinct().
		Pluck("user_id", &userIDs).Error; err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	if len(userIDs) > 0 {
		if err := db.Where("id IN ?", userIDs).Find(&d.participants).Error; err != nil {
			return nil, fmt.Errorf("load participants: %w", err)
		}
	}
	return &d, nil
}

func (n *Notifier) listingURL(l *models.Listing) string {
	return fmt.Sprintf("%s/listings/%s/%s", n.FrontendURL, l.Type, l.Slug)
}

func (n *Notifier) postChatMessage(ctx context.Context, d *announcementData) error {
	if n.Chat == nil {
		n.Log.Debug("[NOTIFY] chat webhook not configured, skipping")
		return nil
	}
	sponsor := d.sponsor.Name
	if sponsor == "" {
		sponsor = "A sponsor"
	}
	msg := fmt.Sprintf("🏆 %s announced the winners of **%s** (%s, %d winners)\n%s",
		sponsor, d.listing.Title, FormatAmount(d.listing.RewardAmount, d.listing.Token), len(d.winners), n.listingURL(&d.listing))
	return n.Chat.Send(ctx, msg)
}

func (n *Notifier) postWinnerComment(ctx context.Context, d *announcementData, authorID string) error {
	msg := WinnerComment(&d.listing, d.winners, n.pick)
	if msg == "" {
		return nil
	}
	if authorID == "" {
		authorID = d.listing.PocID
	}
	comment := models.Comment{
		ID:       uuid.NewString(),
		RefID:    d.listing.ID,
		RefType:  models.CommentRefBounty,
		AuthorID: authorID,
		Message:  msg,
		Type:     models.CommentTypeWinnerAnnouncement,
	}
	return n.DB.WithContext(ctx).Create(&comment).Error
}

func (n *Notifier) queueAnnouncementEmails(ctx context.Context, d *announcementData) error {
	count, err := n.Emails.Enqueue(ctx, models.EmailWinnersAnnounced, d.listing.ID, d.participants)
	if err != nil {
		return err
	}
	n.Log.Info("📧 [NOTIFY] announcement e-mails queued", zap.String("listing_id", d.listing.ID), zap.Int("count", count))
	return nil
}

func winnerUsers(winners []models.Submission) []models.User {
	users := make([]models.User, 0, len(winners))
	for _, w := range winners {
		users = append(users, w.User)
	}
	return users
}

// createPayments records treasury payouts for KYC-verified winners when the
// platform pays on the sponsor's behalf, then tells winners who pays them.
func (n *Notifier) createPayments(ctx context.Context, d *announcementData) error {
	if d.listing.Type == models.ListingTypeProject || !d.listing.IsPlatformPaying {
		_, err := n.Emails.Enqueue(ctx, models.EmailPaidBySponsor, d.listing.ID, winnerUsers(d.winners))
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, w := range d.winners {
		log := n.Log.With(zap.String("listing_id", d.listing.ID), zap.String("submission_id", w.ID), zap.String("user_id", w.UserID))
		if !w.User.IsKYCVerified {
			log.Info("⏭️ [NOTIFY] winner not KYC verified, skipping payment")
			continue
		}
		amount := decimal.Zero
		if w.WinnerPosition != nil {
			amount, _ = d.schedule.AmountFor(*w.WinnerPosition)
		}
		g.Go(func() error {
			payment := models.Payment{
				ID:            uuid.NewString(),
				ListingID:     d.listing.ID,
				SubmissionID:  w.ID,
				UserID:        w.UserID,
				Amount:        amount,
				Token:         d.listing.Token,
				WalletAddress: w.User.WalletAddress,
				Status:        models.PaymentStatusPending,
			}
			err := n.DB.WithContext(gctx).
				Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "submission_id"}}, DoNothing: true}).
				Create(&payment).Error
			if err != nil {
				log.Error("❌ [NOTIFY] failed to create payment", zap.Error(err))
				return nil
			}
			log.Info("💸 [NOTIFY] payment created", zap.String("amount", amount.String()))
			return nil
		})
	}
	_ = g.Wait()

	_, err := n.Emails.Enqueue(ctx, models.EmailPaidByPlatform, d.listing.ID, winnerUsers(d.winners))
	return err
}

// syncRecord exports the winners sheet (when storage is configured) and
// pushes the announcement to the sync service.
func (n *Notifier) syncRecord(ctx context.Context, d *announcementData) error {
	rec := AnnouncementRecord{
		ListingID:    d.listing.ID,
		Slug:         d.listing.Slug,
		Title:        d.listing.Title,
		SponsorID:    d.listing.SponsorID,
		Token:        d.listing.Token,
		RewardAmount: d.listing.RewardAmount,
		UsdValue:     d.listing.UsdValue,
		AnnouncedAt:  n.now().UTC(),
	}
	if d.listing.WinnersAnnouncedAt != nil {
		rec.AnnouncedAt = d.listing.WinnersAnnouncedAt.UTC()
	}
	for _, w := range d.winners {
		pos := 0
		if w.WinnerPosition != nil {
			pos = *w.WinnerPosition
		}
		rec.Winners = append(rec.Winners, WinnerRecord{
			SubmissionID: w.ID,
			UserID:       w.UserID,
			Username:     w.User.Username,
			Position:     pos,
			RewardInUSD:  w.RewardInUSD,
		})
	}

	if n.Store != nil {
		sheet, err := winnersCSV(rec)
		if err != nil {
			return err
		}
		key := fmt.Sprintf("exports/winners/%s-%s.csv", slug.Make(d.listing.Slug), rec.AnnouncedAt.Format("20060102150405"))
		url, err := n.Store.Put(ctx, key, sheet, "text/csv")
		if err != nil {
			return err
		}
		rec.ExportURL = url
	}

	if n.Sync == nil {
		return nil
	}
	return n.Sync.SyncAnnouncement(ctx, rec)
}

func winnersCSV(rec AnnouncementRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"listing", "position", "username", "user_id", "submission_id", "reward_in_usd"})
	for _, win := range rec.Winners {
		_ = w.Write([]string{
			rec.Title,
			strconv.Itoa(win.Position),
			win.Username,
			win.UserID,
			win.SubmissionID,
			win.RewardInUSD.StringFixed(2),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
