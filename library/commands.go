package library

import (
	"sort"
	"strings"

	"github.com/theEricHoang/coal/models"
	"github.com/theEricHoang/coal/utils"
)

// AddToLibrary acquires a game for the session user.
type AddToLibrary struct {
	GameID uint   `json:"game_id" validate:"required,gte=1"`
	Kind   string `json:"type" validate:"required,oneof=digital physical subscription"`
}

// Loan lends a copy to another user for DurationDays.
type Loan struct {
	OwnershipID  uint `json:"-" validate:"required"`
	BorrowerID   uint `json:"borrower_id" validate:"required,gte=1"`
	DurationDays int  `json:"duration_days" validate:"gte=1"`
}

// UpdatePlaytime adds DeltaHours to the cumulative playtime. A single
// report is capped at 10000 hours.
type UpdatePlaytime struct {
	OwnershipID uint    `json:"-" validate:"required"`
	DeltaHours  float64 `json:"hours" validate:"gte=0,lte=10000"`
}

// SetStatus changes the lifecycle status.
type SetStatus struct {
	OwnershipID uint   `json:"-" validate:"required"`
	Status      string `json:"status" validate:"required,oneof=owned playing completed wishlist"`
}

// validateCommand runs the struct tags and folds failures into
// ErrInvalidArgument.
func validateCommand(cmd interface{}) error {
	err := utils.ValidateStruct(cmd)
	if err == nil {
		return nil
	}
	messages := utils.ValidationMessages(err)
	if messages == nil {
		return errorf(models.ErrInvalidArgument, "%v", err)
	}
	parts := make([]string, 0, len(messages))
	for _, msg := range messages {
		parts = append(parts, msg)
	}
	sort.Strings(parts)
	return errorf(models.ErrInvalidArgument, "%s", strings.Join(parts, "; "))
}
