package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	StatusOwned     = "owned"
	StatusPlaying   = "playing"
	StatusCompleted = "completed"
	StatusWishlist  = "wishlist"
)

const (
	KindDigital      = "digital"
	KindPhysical     = "physical"
	KindSubscription = "subscription"
)

// Ownership is one user's acquisition of one game. A loan does not transfer
// the row: OwnerID stays, LoanedTo points at the borrower.
type Ownership struct {
	ID           uint           `gorm:"primaryKey" json:"ownership_id"`
	OwnerID      uint           `gorm:"not null;uniqueIndex:idx_user_games_owner_game,where:deleted_at IS NULL" json:"owner_id"`
	GameID       uint           `gorm:"not null;index;uniqueIndex:idx_user_games_owner_game,where:deleted_at IS NULL" json:"game_id"`
	Kind         string         `gorm:"not null" json:"type"`
	AcquiredAt   time.Time      `gorm:"not null" json:"acquired_at"`
	HoursPlayed  float64        `gorm:"not null;default:0" json:"hours_played"`
	Status       string         `gorm:"not null" json:"status"`
	LoanedTo     *uint          `gorm:"index" json:"loaned_to,omitempty"`
	LoanDuration *int           `json:"loan_duration,omitempty"`
	LoanStart    *time.Time     `json:"loan_start,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Ownership) TableName() string { return "user_games" }

// OnLoan reports whether the loan fields are set.
func (o *Ownership) OnLoan() bool {
	return o.LoanedTo != nil
}
