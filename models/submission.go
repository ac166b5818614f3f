package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "Pending"
	SubmissionStatusApproved SubmissionStatus = "Approved"
	SubmissionStatusRejected SubmissionStatus = "Rejected"
)

// SubmissionLabel is the sponsor's review classification.
type SubmissionLabel string

const (
	LabelUnreviewed  SubmissionLabel = "Unreviewed"
	LabelReviewed    SubmissionLabel = "Reviewed"
	LabelShortlisted SubmissionLabel = "Shortlisted"
	LabelSpam        SubmissionLabel = "Spam"
	LabelLowQuality  SubmissionLabel = "Low_Quality"
	LabelMidQuality  SubmissionLabel = "Mid_Quality"
	LabelHighQuality SubmissionLabel = "High_Quality"
)

// Submission is a talent's entry against a listing.
type Submission struct {
	ID             string           `json:"id" gorm:"primaryKey"`
	ListingID      string           `json:"listing_id" gorm:"index;not null"`
	UserID         string           `json:"user_id" gorm:"index;not null"`
	Link           string           `json:"link"`
	Notes          string           `json:"notes" gorm:"type:text"`
	IsWinner       bool             `json:"is_winner" gorm:"default:false"`
	WinnerPosition *int             `json:"winner_position,omitempty"`
	Status         SubmissionStatus `json:"status" gorm:"type:varchar(16);default:'Pending'"`
	Label          SubmissionLabel  `json:"label" gorm:"type:varchar(16);default:'Unreviewed'"`
	RewardInUSD    decimal.Decimal  `json:"reward_in_usd" gorm:"type:numeric"`
	IsActive       bool             `json:"is_active" gorm:"not null"`
	IsArchived     bool             `json:"is_archived" gorm:"default:false"`
	CreatedAt      time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time        `json:"updated_at" gorm:"autoUpdateTime"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// IsBonus reports whether the submission holds the bonus position.
func (s *Submission) IsBonus() bool {
	return s.WinnerPosition != nil && *s.WinnerPosition == BonusRewardPosition
}
