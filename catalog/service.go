package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/theEricHoang/coal/auth"
	"github.com/theEricHoang/coal/cache"
	"github.com/theEricHoang/coal/models"
	"github.com/theEricHoang/coal/utils"
	"gorm.io/gorm"
)

// ListQuery filters the store listing.
type ListQuery struct {
	Genre    string `form:"genre"`
	Platform string `form:"platform"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}

// Service owns game metadata.
type Service struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewService(db *gorm.DB, c *cache.Cache) *Service {
	return &Service{db: db, cache: c}
}

// GetGamesByIDs resolves ids through the cache, then the database. Unknown
// ids are left out of the result.
func (s *Service) GetGamesByIDs(ctx context.Context, ids []uint) (map[uint]models.Game, error) {
	out := make(map[uint]models.Game, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cache.GameKey(id)
	}
	cached, err := s.cache.GetMany(ctx, keys)
	if err != nil {
		utils.Log.WithError(err).Warn("Catalog cache read failed")
	}

	var missing []uint
	for i, id := range ids {
		if cached[i] != nil {
			var game models.Game
			if json.Unmarshal(cached[i], &game) == nil {
				out[id] = game
				continue
			}
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		utils.Log.WithField("games", len(ids)).Debug("Cache HIT: games")
		return out, nil
	}

	var games []models.Game
	if err := s.db.WithContext(ctx).Where("id IN ?", missing).Find(&games).Error; err != nil {
		return nil, fmt.Errorf("load games: %w", err)
	}
	for _, game := range games {
		out[game.ID] = game
		if err := s.cache.Set(ctx, cache.GameKey(game.ID), game, cache.GameTTL); err != nil {
			utils.Log.WithError(err).WithField("game_id", game.ID).Warn("Catalog cache write failed")
		}
	}
	return out, nil
}

// Get reads one game through the cache.
func (s *Service) Get(ctx context.Context, id uint) (*models.Game, error) {
	var game models.Game
	err := s.cache.Get(ctx, cache.GameKey(id), &game)
	if err == nil {
		utils.LogDebug("Cache HIT: game", map[string]interface{}{"game_id": id})
		return &game, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		utils.Log.WithError(err).WithField("game_id", id).Warn("Catalog cache read failed")
	}

	if err := s.db.WithContext(ctx).First(&game, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: game %d", models.ErrNotFound, id)
		}
		return nil, err
	}
	if err := s.cache.Set(ctx, cache.GameKey(id), game, cache.GameTTL); err != nil {
		utils.Log.WithError(err).WithField("game_id", id).Warn("Catalog cache write failed")
	}
	return &game, nil
}

// List returns the newest games first.
func (s *Service) List(ctx context.Context, q ListQuery) ([]models.Game, error) {
	query := s.db.WithContext(ctx).Model(&models.Game{})
	if q.Genre != "" {
		query = query.Where("LOWER(genre) = ?", strings.ToLower(q.Genre))
	}
	if q.Platform != "" {
		query = query.Where("LOWER(platform) LIKE ?", "%"+strings.ToLower(q.Platform)+"%")
	}

	var games []models.Game
	err := query.Order("created_at DESC, id DESC").
		Limit(clampLimit(q.Limit)).
		Offset(max(q.Offset, 0)).
		Find(&games).Error
	return games, err
}

// Search matches a case-insensitive title substring.
func (s *Service) Search(ctx context.Context, title string, limit int) ([]models.Game, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: search query is required", models.ErrInvalidArgument)
	}

	var games []models.Game
	err := s.db.WithContext(ctx).
		Where("LOWER(title) LIKE ?", "%"+strings.ToLower(title)+"%").
		Order("title ASC").
		Limit(clampLimit(limit)).
		Find(&games).Error
	return games, err
}

// Publish creates a catalog entry owned by the session's studio.
func (s *Service) Publish(ctx context.Context, session auth.Session, in models.PublishGameInput) (*models.Game, error) {
	if session.Role != models.RoleStudio && !session.IsAdmin() {
		return nil, fmt.Errorf("%w: studios or admins only", models.ErrForbidden)
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidArgument, err)
	}

	game := models.Game{
		Title:       strings.TrimSpace(in.Title),
		Genre:       in.Genre,
		Developer:   in.Developer,
		Platform:    in.Platform,
		Tags:        in.Tags,
		Description: in.Description,
		Price:       in.Price,
		Thumbnail:   in.Thumbnail,
		ReleaseDate: in.ReleaseDate,
		StudioID:    session.UserID,
	}
	if game.Developer == "" {
		game.Developer = session.Username
	}
	if game.Tags == nil {
		game.Tags = []string{}
	}

	if err := s.db.WithContext(ctx).Create(&game).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: game already exists", models.ErrConflict)
		}
		return nil, fmt.Errorf("create game: %w", err)
	}

	utils.Log.WithFields(logrus.Fields{
		"game_id":   game.ID,
		"studio_id": game.StudioID,
		"title":     game.Title,
	}).Info("Game published")
	return &game, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	return min(limit, 100)
}
