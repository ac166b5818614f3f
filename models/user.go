package models

import (
	"time"
)

type UserRole string

const (
	UserRoleUser UserRole = "USER"
	UserRoleGod  UserRole = "GOD"
)

// User is a local snapshot of a talent or sponsor member profile.
// Populated by the profile sync worker from the profile service.
type User struct {
	ID               string    `gorm:"primaryKey" json:"id"` // The profile service's external id
	Username         string    `gorm:"index;not null" json:"username"`
	Email            string    `json:"email,omitempty"`
	FirstName        *string   `json:"first_name,omitempty"`
	LastName         *string   `json:"last_name,omitempty"`
	PhotoURL         *string   `json:"photo_url,omitempty"`
	CurrentSponsorID *string   `gorm:"index" json:"current_sponsor_id,omitempty"`
	Role             UserRole  `gorm:"type:varchar(8);default:'USER'" json:"role"`
	IsKYCVerified    bool      `gorm:"default:false" json:"is_kyc_verified"`
	WalletAddress    string    `gorm:"type:varchar(128)" json:"wallet_address,omitempty"`
	CreatedAt        time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DisplayName prefers the first name, falling back to the username.
func (u *User) DisplayName() string {
	if u.FirstName != nil && *u.FirstName != "" {
		return *u.FirstName
	}
	return u.Username
}
