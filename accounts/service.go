package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/theEricHoang/coal/auth"
	"github.com/theEricHoang/coal/cache"
	"github.com/theEricHoang/coal/models"
	"github.com/theEricHoang/coal/monitoring"
	"github.com/theEricHoang/coal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// OwnershipCounter supplies the library totals shown on a profile.
type OwnershipCounter interface {
	CountOwned(ctx context.Context, ownerID uint) (int64, error)
	CountLoanedOut(ctx context.Context, ownerID uint) (int64, error)
}

// Service manages user accounts and resolves usernames for display.
type Service struct {
	db       *gorm.DB
	cache    *cache.Cache
	counter  OwnershipCounter
	hashCost int
}

func NewService(db *gorm.DB, c *cache.Cache, counter OwnershipCounter) *Service {
	return &Service{db: db, cache: c, counter: counter, hashCost: bcrypt.DefaultCost}
}

func (s *Service) Register(ctx context.Context, in models.RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if err := utils.ValidateStruct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidArgument, err)
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}

	var taken int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR username = ?", in.Email, in.Username).
		Count(&taken).Error; err != nil {
		return nil, err
	}
	if taken > 0 {
		return nil, fmt.Errorf("%w: email or username already exists", models.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hash),
		Role:     in.Role,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email or username already exists", models.ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	utils.LogInfo("User registered", map[string]interface{}{"user_id": user.ID, "role": user.Role})
	return &user, nil
}

// Authenticate checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, in models.LoginInput) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(in.Email))).
		First(&user).Error
	if err == nil {
		err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password))
	}
	if err != nil {
		monitoring.AuthenticationAttempts.WithLabelValues("failure").Inc()
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, models.ErrUnauthorized
		}
		return nil, err
	}
	if user.IsBanned {
		monitoring.AuthenticationAttempts.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("%w: account is banned", models.ErrForbidden)
	}

	monitoring.AuthenticationAttempts.WithLabelValues("success").Inc()
	return &user, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", models.ErrNotFound, id)
		}
		return nil, err
	}
	return &user, nil
}

// Profile returns the user with library totals.
func (s *Service) Profile(ctx context.Context, id uint) (*models.UserProfile, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	total, err := s.counter.CountOwned(ctx, id)
	if err != nil {
		return nil, err
	}
	loaned, err := s.counter.CountLoanedOut(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.UserProfile{User: *user, TotalGames: total, LoanedOut: loaned}, nil
}

func (s *Service) Username(ctx context.Context, id uint) (string, error) {
	names, err := s.Usernames(ctx, []uint{id})
	if err != nil {
		return "", err
	}
	name, ok := names[id]
	if !ok {
		return "", fmt.Errorf("%w: user %d", models.ErrNotFound, id)
	}
	return name, nil
}

// Usernames resolves ids through the cache, then the database. Unknown ids
// are left out.
func (s *Service) Usernames(ctx context.Context, ids []uint) (map[uint]string, error) {
	out := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cache.UserKey(id)
	}
	cached, err := s.cache.GetMany(ctx, keys)
	if err != nil {
		utils.Log.WithError(err).Warn("Username cache read failed")
	}

	var missing []uint
	for i, id := range ids {
		var name string
		if cached[i] != nil && json.Unmarshal(cached[i], &name) == nil {
			out[id] = name
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	var rows []struct {
		ID       uint
		Username string
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("id, username").
		Where("id IN ?", missing).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load usernames: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row.Username
		if err := s.cache.Set(ctx, cache.UserKey(row.ID), row.Username, cache.UsernameTTL); err != nil {
			utils.Log.WithError(err).WithField("user_id", row.ID).Warn("Username cache write failed")
		}
	}
	return out, nil
}

// SetBanned toggles the ban flag. Banned users cannot log in.
func (s *Service) SetBanned(ctx context.Context, actor auth.Session, id uint, banned bool) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: admins only", models.ErrForbidden)
	}
	if actor.UserID == id {
		return nil, fmt.Errorf("%w: cannot change your own ban status", models.ErrInvalidArgument)
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("is_banned", banned).Error; err != nil {
		return nil, err
	}
	user.IsBanned = banned

	utils.LogInfo("User ban status changed", map[string]interface{}{
		"user_id":  id,
		"banned":   banned,
		"actor_id": actor.UserID,
	})
	return user, nil
}

// Refresh reloads the session's user so bans and role changes apply before
// the token expires.
func (s *Service) Refresh(ctx context.Context, session auth.Session) (auth.Session, error) {
	user, err := s.Get(ctx, session.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return auth.Session{}, models.ErrUnauthorized
	}
	if err != nil {
		return auth.Session{}, err
	}
	if user.IsBanned {
		return auth.Session{}, fmt.Errorf("%w: account is banned", models.ErrForbidden)
	}
	return auth.Session{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}
