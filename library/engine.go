package library

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/theEricHoang/coal/auth"
	"github.com/theEricHoang/coal/models"
	"github.com/theEricHoang/coal/monitoring"
	"github.com/theEricHoang/coal/utils"
)

// Catalog resolves game metadata. Unknown ids are omitted from the result.
type Catalog interface {
	GetGamesByIDs(ctx context.Context, ids []uint) (map[uint]models.Game, error)
}

// Engine applies library commands. Every command runs as one store
// operation, so it either commits entirely or not at all.
type Engine struct {
	store   Store
	catalog Catalog
	now     func() time.Time
}

func NewEngine(store Store, catalog Catalog) *Engine {
	return &Engine{store: store, catalog: catalog, now: time.Now}
}

// Get returns a record visible to the session (owner, borrower or admin).
func (e *Engine) Get(ctx context.Context, s auth.Session, ownershipID uint) (*models.Ownership, error) {
	rec, err := e.store.Get(ctx, ownershipID)
	if err != nil {
		return nil, err
	}
	if err := authorizeHolder(s, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (e *Engine) AddToLibrary(ctx context.Context, s auth.Session, cmd AddToLibrary) (rec *models.Ownership, err error) {
	defer observe("add", &err)

	if err = requireSession(s); err != nil {
		return nil, err
	}
	if err = validateCommand(cmd); err != nil {
		return nil, err
	}

	games, err := e.catalog.GetGamesByIDs(ctx, []uint{cmd.GameID})
	if err != nil {
		return nil, err
	}
	if _, ok := games[cmd.GameID]; !ok {
		return nil, errorf(models.ErrNotFound, "game %d", cmd.GameID)
	}

	rec, err = e.store.Create(ctx, s.UserID, cmd.GameID, cmd.Kind, e.now())
	if err != nil {
		return nil, err
	}

	utils.Log.WithFields(logrus.Fields{
		"ownership_id": rec.ID,
		"user_id":      s.UserID,
		"game_id":      cmd.GameID,
		"kind":         cmd.Kind,
	}).Info("Game added to library")
	return rec, nil
}

func (e *Engine) Loan(ctx context.Context, s auth.Session, cmd Loan) (rec *models.Ownership, err error) {
	defer observe("loan", &err)

	if err = requireSession(s); err != nil {
		return nil, err
	}
	if err = validateCommand(cmd); err != nil {
		return nil, err
	}

	rec, err = e.store.Update(ctx, cmd.OwnershipID, func(r *models.Ownership) error {
		if err := authorizeOwner(s, r); err != nil {
			return err
		}
		return startLoan(r, cmd.BorrowerID, cmd.DurationDays, e.now())
	})
	if err != nil {
		return nil, err
	}

	monitoring.ActiveLoans.Inc()
	utils.Log.WithFields(logrus.Fields{
		"ownership_id":  rec.ID,
		"owner_id":      rec.OwnerID,
		"borrower_id":   cmd.BorrowerID,
		"duration_days": cmd.DurationDays,
	}).Info("Loan started")
	return rec, nil
}

func (e *Engine) ReturnLoan(ctx context.Context, s auth.Session, ownershipID uint) (rec *models.Ownership, err error) {
	defer observe("return", &err)

	if err = requireSession(s); err != nil {
		return nil, err
	}

	var borrowerID uint
	rec, err = e.store.Update(ctx, ownershipID, func(r *models.Ownership) error {
		if err := authorizeHolder(s, r); err != nil {
			return err
		}
		if r.LoanedTo != nil {
			borrowerID = *r.LoanedTo
		}
		return endLoan(r)
	})
	if err != nil {
		return nil, err
	}

	monitoring.ActiveLoans.Dec()
	utils.Log.WithFields(logrus.Fields{
		"ownership_id": rec.ID,
		"owner_id":     rec.OwnerID,
		"borrower_id":  borrowerID,
		"returned_by":  s.UserID,
	}).Info("Loan returned")
	return rec, nil
}

func (e *Engine) UpdatePlaytime(ctx context.Context, s auth.Session, cmd UpdatePlaytime) (rec *models.Ownership, err error) {
	defer observe("playtime", &err)

	if err = requireSession(s); err != nil {
		return nil, err
	}
	if err = validateCommand(cmd); err != nil {
		return nil, err
	}

	return e.store.Update(ctx, cmd.OwnershipID, func(r *models.Ownership) error {
		if err := authorizeHolder(s, r); err != nil {
			return err
		}
		total := r.HoursPlayed + cmd.DeltaHours
		if math.IsInf(total, 0) || math.IsNaN(total) {
			return errorf(models.ErrInvalidArgument, "hours_played overflow for ownership %d", r.ID)
		}
		r.HoursPlayed = total
		return nil
	})
}

func (e *Engine) SetStatus(ctx context.Context, s auth.Session, cmd SetStatus) (rec *models.Ownership, err error) {
	defer observe("status", &err)

	if err = requireSession(s); err != nil {
		return nil, err
	}
	if err = validateCommand(cmd); err != nil {
		return nil, err
	}

	return e.store.Update(ctx, cmd.OwnershipID, func(r *models.Ownership) error {
		if err := authorizeOwner(s, r); err != nil {
			return err
		}
		r.Status = cmd.Status
		return nil
	})
}

// RemoveFromLibrary soft-deletes a record that is not on loan.
func (e *Engine) RemoveFromLibrary(ctx context.Context, s auth.Session, ownershipID uint) (err error) {
	defer observe("remove", &err)

	if err = requireSession(s); err != nil {
		return err
	}

	err = e.store.Delete(ctx, ownershipID, func(r *models.Ownership) error {
		if err := authorizeOwner(s, r); err != nil {
			return err
		}
		if StateOf(r) == OnLoan {
			return errorf(models.ErrInvalidState, "ownership %d is on loan", r.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	utils.Log.WithFields(logrus.Fields{
		"ownership_id": ownershipID,
		"user_id":      s.UserID,
	}).Info("Game removed from library")
	return nil
}

func observe(command string, err *error) {
	monitoring.ObserveCommand(command, outcome(*err))
}

func requireSession(s auth.Session) error {
	if s.UserID == 0 {
		return errorf(models.ErrForbidden, "no session")
	}
	return nil
}

func authorizeOwner(s auth.Session, rec *models.Ownership) error {
	if s.IsAdmin() || rec.OwnerID == s.UserID {
		return nil
	}
	return errorf(models.ErrForbidden, "user %d does not own ownership %d", s.UserID, rec.ID)
}

// authorizeHolder admits the owner and the current borrower.
func authorizeHolder(s auth.Session, rec *models.Ownership) error {
	if rec.LoanedTo != nil && *rec.LoanedTo == s.UserID {
		return nil
	}
	return authorizeOwner(s, rec)
}
