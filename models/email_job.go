package models

import "time"

type EmailKind string

const (
	EmailWinnersAnnounced EmailKind = "announcement"
	EmailPaidByPlatform   EmailKind = "fndnPaying"
	EmailPaidBySponsor    EmailKind = "sponsorPaying"
)

type EmailStatus string

const (
	EmailStatusPending EmailStatus = "pending"
	EmailStatusSending EmailStatus = "sending"
	EmailStatusSent    EmailStatus = "sent"
	EmailStatusFailed  EmailStatus = "failed"
)

// EmailJob is one queued outbound e-mail. The table is the queue.
type EmailJob struct {
	ID        string      `gorm:"primaryKey" json:"id"`
	Kind      EmailKind   `gorm:"type:varchar(32);not null;index" json:"kind"`
	ListingID string      `gorm:"index" json:"listing_id"`
	UserID    string      `gorm:"index" json:"user_id"`
	ToEmail   string      `gorm:"not null" json:"to_email"`
	Status    EmailStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	Attempts  int         `gorm:"default:0" json:"attempts"`
	LastError string      `gorm:"type:text" json:"last_error,omitempty"`
	CreatedAt time.Time   `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time   `json:"updated_at" gorm:"autoUpdateTime;index"`
	SentAt    *time.Time  `json:"sent_at,omitempty"`
}
