package services

import (
	"context"

	"earn-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EmailQueue stores outbound e-mails as rows for the e-mail worker to drain.
type EmailQueue struct {
	DB *gorm.DB
}

func NewEmailQueue(db *gorm.DB) *EmailQueue {
	return &EmailQueue{DB: db}
}

// Enqueue adds one pending job per recipient with an e-mail address and
// returns how many were queued.
func (q *EmailQueue) Enqueue(ctx context.Context, kind models.EmailKind, listingID string, recipients []models.User) (int, error) {
	jobs := make([]models.EmailJob, 0, len(recipients))
	for _, u := range recipients {
		if u.Email == "" {
			continue
		}
		jobs = append(jobs, models.EmailJob{
			ID:        uuid.NewString(),
			Kind:      kind,
			ListingID: listingID,
			UserID:    u.ID,
			ToEmail:   u.Email,
			Status:    models.EmailStatusPending,
		})
	}
	if len(jobs) == 0 {
		return 0, nil
	}
	if err := q.DB.WithContext(ctx).CreateInBatches(&jobs, 100).Error; err != nil {
		return 0, err
	}
	return len(jobs), nil
}
