package models

import "time"

type CommentRefType string

const (
	CommentRefBounty CommentRefType = "BOUNTY"
)

type CommentType string

const (
	CommentTypeNormal             CommentType = "NORMAL"
	CommentTypeWinnerAnnouncement CommentType = "WINNER_ANNOUNCEMENT"
)

// Comment is a public message attached to a listing.
type Comment struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	RefID     string         `json:"ref_id" gorm:"index;not null"`
	RefType   CommentRefType `json:"ref_type" gorm:"type:varchar(16);not null"`
	AuthorID  string         `json:"author_id" gorm:"index;not null"`
	Message   string         `json:"message" gorm:"type:text;not null"`
	Type      CommentType    `json:"type" gorm:"type:varchar(32);default:'NORMAL'"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
}
