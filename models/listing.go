package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// BonusRewardPosition is the rank key reserved for the repeatable bonus tier.
const BonusRewardPosition = 99

type ListingType string

const (
	ListingTypeBounty    ListingType = "bounty"
	ListingTypeProject   ListingType = "project"
	ListingTypeHackathon ListingType = "hackathon"
)

type ListingStatus string

const (
	ListingStatusOpen   ListingStatus = "OPEN"
	ListingStatusClosed ListingStatus = "CLOSED"
)

// RewardMap is the stored shape of a reward schedule: rank ("1", "2", ..., "99") → amount.
type RewardMap map[string]float64

// Listing is a sponsor-owned bounty or project.
type Listing struct {
	ID               string                        `json:"id" gorm:"primaryKey"`
	Slug             string                        `json:"slug" gorm:"uniqueIndex;not null"`
	Title            string                        `json:"title" gorm:"not null"`
	Description      string                        `json:"description" gorm:"type:text"`
	Type             ListingType                   `json:"type" gorm:"type:varchar(16);not null;default:'bounty'"`
	SponsorID        string                        `json:"sponsor_id" gorm:"index;not null"`
	PocID            string                        `json:"poc_id" gorm:"index"`
	Rewards          datatypes.JSONType[RewardMap] `json:"rewards"`
	MaxBonusSpots    int                           `json:"max_bonus_spots" gorm:"default:0"`
	RewardAmount     decimal.Decimal               `json:"reward_amount" gorm:"type:numeric"`
	UsdValue         decimal.Decimal               `json:"usd_value" gorm:"type:numeric"`
	Token            string                        `json:"token"`
	Deadline         *time.Time                    `json:"deadline,omitempty"`
	IsPublished      bool                          `json:"is_published" gorm:"default:false"`
	PublishedAt      *time.Time                    `json:"published_at,omitempty" gorm:"index"`
	PublishAt        *time.Time                    `json:"publish_at,omitempty"`
	IsActive         bool                          `json:"is_active" gorm:"not null"`
	IsArchived       bool                          `json:"is_archived" gorm:"default:false"`
	Status           ListingStatus                 `json:"status" gorm:"type:varchar(16);default:'OPEN'"`
	IsPlatformPaying bool                          `json:"is_platform_paying" gorm:"default:false"`

	IsWinnersAnnounced bool       `json:"is_winners_announced" gorm:"default:false"`
	WinnersAnnouncedAt *time.Time `json:"winners_announced_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Sponsor is the organisation that owns listings.
type Sponsor struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Slug      string    `json:"slug" gorm:"uniqueIndex"`
	LogoURL   string    `json:"logo_url"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
