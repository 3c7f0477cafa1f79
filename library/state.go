package library

import (
	"time"

	"github.com/theEricHoang/coal/models"
)

// LoanState is derived from the loan columns, never stored.
type LoanState int

const (
	Available LoanState = iota
	OnLoan
)

func (s LoanState) String() string {
	if s == OnLoan {
		return "on_loan"
	}
	return "available"
}

func StateOf(rec *models.Ownership) LoanState {
	if rec.OnLoan() {
		return OnLoan
	}
	return Available
}

// startLoan moves rec from Available to OnLoan. The three loan columns are
// always written together.
func startLoan(rec *models.Ownership, borrowerID uint, days int, now time.Time) error {
	if StateOf(rec) != Available {
		return errorf(models.ErrInvalidState, "ownership %d is already on loan", rec.ID)
	}
	if borrowerID == rec.OwnerID {
		return errorf(models.ErrInvalidArgument, "cannot loan a game to its owner")
	}
	if days < 1 {
		return errorf(models.ErrInvalidArgument, "loan duration must be at least 1 day")
	}
	start := now.UTC()
	rec.LoanedTo = &borrowerID
	rec.LoanDuration = &days
	rec.LoanStart = &start
	return nil
}

// endLoan moves rec from OnLoan to Available.
func endLoan(rec *models.Ownership) error {
	if StateOf(rec) != OnLoan {
		return errorf(models.ErrInvalidState, "ownership %d is not on loan", rec.ID)
	}
	rec.LoanedTo = nil
	rec.LoanDuration = nil
	rec.LoanStart = nil
	return nil
}

// DaysRemaining is the whole days left on the loan, clamped at zero. Only
// meaningful for records in OnLoan.
func DaysRemaining(rec *models.Ownership, now time.Time) int {
	if rec.LoanDuration == nil || rec.LoanStart == nil {
		return 0
	}
	elapsed := int(now.Sub(*rec.LoanStart) / (24 * time.Hour))
	if elapsed < 0 {
		elapsed = 0
	}
	return max(*rec.LoanDuration-elapsed, 0)
}
