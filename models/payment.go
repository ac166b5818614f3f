package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// Payment is a treasury payout owed to a winner when the platform pays on the sponsor's behalf.
type Payment struct {
	ID            string          `gorm:"primaryKey" json:"id"`
	ListingID     string          `gorm:"index;not null" json:"listing_id"`
	SubmissionID  string          `gorm:"uniqueIndex;not null" json:"submission_id"`
	UserID        string          `gorm:"index;not null" json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	Token         string          `gorm:"type:varchar(32)" json:"token"`
	WalletAddress string          `gorm:"type:varchar(128)" json:"wallet_address"`
	Status        PaymentStatus   `gorm:"type:varchar(16);default:'PENDING'" json:"status"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

type CreditType string

const (
	CreditWinBonus CreditType = "WIN_BONUS"
)

// CreditEntry is one row of the submission-credit ledger.
type CreditEntry struct {
	ID             string     `gorm:"primaryKey" json:"id"`
	UserID         string     `gorm:"index;not null" json:"user_id"`
	SubmissionID   string     `gorm:"index" json:"submission_id"`
	Type           CreditType `gorm:"type:varchar(32);not null" json:"type"`
	Change         int        `gorm:"not null" json:"change"`
	EffectiveMonth time.Time  `gorm:"not null" json:"effective_month"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`
}
