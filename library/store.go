package library

import (
	"context"
	"errors"
	"time"

	"github.com/theEricHoang/coal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists ownership records. Update and Delete are atomic per record.
type Store interface {
	Create(ctx context.Context, ownerID, gameID uint, kind string, acquiredAt time.Time) (*models.Ownership, error)
	Get(ctx context.Context, id uint) (*models.Ownership, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Ownership, error)
	ListLoanedOut(ctx context.Context, ownerID uint) ([]models.Ownership, error)
	CountOwned(ctx context.Context, ownerID uint) (int64, error)
	CountLoanedOut(ctx context.Context, ownerID uint) (int64, error)
	Update(ctx context.Context, id uint, mutate func(*models.Ownership) error) (*models.Ownership, error)
	Delete(ctx context.Context, id uint, guard func(*models.Ownership) error) error
}

// GormStore is the relational Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, ownerID, gameID uint, kind string, acquiredAt time.Time) (*models.Ownership, error) {
	rec := &models.Ownership{
		OwnerID:    ownerID,
		GameID:     gameID,
		Kind:       kind,
		AcquiredAt: acquiredAt.UTC(),
		Status:     models.StatusOwned,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Ownership{}).
			Where("owner_id = ? AND game_id = ?", ownerID, gameID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return errorf(models.ErrDuplicateOwnership, "user %d already owns game %d", ownerID, gameID)
		}
		return tx.Create(rec).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, errorf(models.ErrDuplicateOwnership, "user %d already owns game %d", ownerID, gameID)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *GormStore) Get(ctx context.Context, id uint) (*models.Ownership, error) {
	var rec models.Ownership
	if err := s.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, notFound(err, id)
	}
	return &rec, nil
}

// ListForUser returns the user's own copies and the copies lent to them, in
// insertion order.
func (s *GormStore) ListForUser(ctx context.Context, userID uint) ([]models.Ownership, error) {
	var recs []models.Ownership
	err := s.db.WithContext(ctx).
		Where("owner_id = ? OR loaned_to = ?", userID, userID).
		Order("id ASC").
		Find(&recs).Error
	return recs, err
}

func (s *GormStore) ListLoanedOut(ctx context.Context, ownerID uint) ([]models.Ownership, error) {
	var recs []models.Ownership
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND loaned_to IS NOT NULL", ownerID).
		Order("id ASC").
		Find(&recs).Error
	return recs, err
}

func (s *GormStore) CountOwned(ctx context.Context, ownerID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Ownership{}).Where("owner_id = ?", ownerID).Count(&n).Error
	return n, err
}

func (s *GormStore) CountLoanedOut(ctx context.Context, ownerID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Ownership{}).
		Where("owner_id = ? AND loaned_to IS NOT NULL", ownerID).
		Count(&n).Error
	return n, err
}

// Update locks the row, applies mutate and writes every column back. If
// mutate fails nothing is written.
func (s *GormStore) Update(ctx context.Context, id uint, mutate func(*models.Ownership) error) (*models.Ownership, error) {
	var rec models.Ownership
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRow(tx, &rec, id); err != nil {
			return err
		}
		if err := mutate(&rec); err != nil {
			return err
		}
		return tx.Save(&rec).Error
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete soft-deletes the record if guard allows it.
func (s *GormStore) Delete(ctx context.Context, id uint, guard func(*models.Ownership) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.Ownership
		if err := lockRow(tx, &rec, id); err != nil {
			return err
		}
		if guard != nil {
			if err := guard(&rec); err != nil {
				return err
			}
		}
		return tx.Delete(&rec).Error
	})
}

func lockRow(tx *gorm.DB, rec *models.Ownership, id uint) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(rec, id).Error
	return notFound(err, id)
}

func notFound(err error, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorf(models.ErrNotFound, "ownership %d", id)
	}
	return err
}

// CountActiveLoans counts every record currently on loan.
func (s *GormStore) CountActiveLoans(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Ownership{}).Where("loaned_to IS NOT NULL").Count(&n).Error
	return n, err
}
