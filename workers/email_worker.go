// workers/email_worker.go
package workers

import (
	"context"
	"fmt"
	"time"

	"earn-service/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	emailBatchSize   = 50
	emailMaxAttempts = 3
	// A job left in "sending" this long belongs to a worker that died mid-batch.
	emailStaleAfter = 5 * time.Minute
)

// EmailWorker drains the email_jobs table through a Sender.
type EmailWorker struct {
	db          *gorm.DB
	sender      Sender
	log         *zap.Logger
	frontendURL string
	now         func() time.Time
}

func NewEmailWorker(db *gorm.DB, sender Sender, log *zap.Logger, frontendURL string) *EmailWorker {
	return &EmailWorker{
		db:          db,
		sender:      sender,
		log:         log,
		frontendURL: frontendURL,
		now:         time.Now,
	}
}

// Drain sends one batch of pending e-mails. It is scheduled every EMAIL_POLL_INTERVAL.
func (w *EmailWorker) Drain(ctx context.Context) {
	jobs, err := w.claim(ctx)
	if err != nil {
		w.log.Error("❌ [EMAIL] failed to claim jobs", zap.Error(err))
		return
	}
	if len(jobs) == 0 {
		return
	}
	w.log.Info("📤 [EMAIL] sending batch", zap.Int("count", len(jobs)))

	var sent, failed int
	for i := range jobs {
		if ctx.Err() != nil {
			// Unsent claimed jobs go back to the queue.
			w.release(jobs[i:])
			return
		}
		if err := w.deliver(ctx, &jobs[i]); err != nil {
			failed++
			w.recordFailure(ctx, &jobs[i], err)
			continue
		}
		sent++
	}
	w.log.Info("✅ [EMAIL] batch done", zap.Int("sent", sent), zap.Int("failed", failed))
}

// claim moves up to emailBatchSize pending jobs to "sending", along with
// any job stuck in "sending" for longer than emailStaleAfter. Concurrent
// workers skip rows another worker has locked.
func (w *EmailWorker) claim(ctx context.Context) ([]models.EmailJob, error) {
	staleBefore := w.now().UTC().Add(-emailStaleAfter)
	var jobs []models.EmailJob
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? OR (status = ? AND updated_at < ?)",
				models.EmailStatusPending, models.EmailStatusSending, staleBefore).
			Order("created_at").
			Limit(emailBatchSize).
			Find(&jobs).Error; err != nil {
			return err
		}
		if len(jobs) == 0 {
			return nil
		}
		ids := make([]string, len(jobs))
		for i, j := range jobs {
			ids[i] = j.ID
		}
		return tx.Model(&models.EmailJob{}).Where("id IN ?", ids).
			Updates(map[string]any{"status": models.EmailStatusSending, "updated_at": w.now().UTC()}).Error
	})
	return jobs, err
}

func (w *EmailWorker) deliver(ctx context.Context, job *models.EmailJob) error {
	db := w.db.WithContext(ctx)

	var listing models.Listing
	if err := db.First(&listing, "id = ?", job.ListingID).Error; err != nil {
		return fmt.Errorf("load listing: %w", err)
	}
	data := emailData{
		Name:         "there",
		ListingTitle: listing.Title,
		ListingURL:   fmt.Sprintf("%s/listings/%s/%s", w.frontendURL, listing.Type, listing.Slug),
	}
	var user models.User
	if err := db.First(&user, "id = ?", job.UserID).Error; err == nil {
		data.Name = user.DisplayName()
	}

	email, err := renderEmail(job.Kind, job.ToEmail, data)
	if err != nil {
		return err
	}
	if err := w.sender.Send(ctx, email); err != nil {
		return err
	}

	// The e-mail is out; record it even if the drain was cancelled meanwhile.
	sentAt := w.now()
	return w.db.WithContext(context.WithoutCancel(ctx)).Model(job).Updates(map[string]any{
		"status":   models.EmailStatusSent,
		"attempts": job.Attempts + 1,
		"sent_at":  sentAt,
	}).Error
}

// recordFailure requeues the job until it has used emailMaxAttempts.
func (w *EmailWorker) recordFailure(ctx context.Context, job *models.EmailJob, sendErr error) {
	attempts := job.Attempts + 1
	status := models.EmailStatusPending
	if attempts >= emailMaxAttempts {
		status = models.EmailStatusFailed
	}
	w.log.Warn("⚠️ [EMAIL] send failed",
		zap.String("job_id", job.ID), zap.String("kind", string(job.Kind)),
		zap.Int("attempts", attempts), zap.String("status", string(status)), zap.Error(sendErr))

	if err := w.db.WithContext(context.WithoutCancel(ctx)).Model(job).Updates(map[string]any{
		"status":     status,
		"attempts":   attempts,
		"last_error": sendErr.Error(),
	}).Error; err != nil {
		w.log.Error("❌ [EMAIL] failed to record failure", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (w *EmailWorker) release(jobs []models.EmailJob) {
	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	if err := w.db.Model(&models.EmailJob{}).Where("id IN ?", ids).
		Update("status", models.EmailStatusPending).Error; err != nil {
		w.log.Error("❌ [EMAIL] failed to release jobs", zap.Int("count", len(ids)), zap.Error(err))
	}
}
