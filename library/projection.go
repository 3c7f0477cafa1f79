package library

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/theEricHoang/coal/models"
	"golang.org/x/sync/errgroup"
)

// Directory resolves user ids to usernames. Unknown ids are omitted.
type Directory interface {
	Usernames(ctx context.Context, ids []uint) (map[uint]string, error)
}

const (
	SortTitle  = "title"
	SortHours  = "hours"
	SortRecent = "recent"

	DefaultLimit = 50
	MaxLimit     = 100
)

// Query filters, sorts and pages a projected library.
type Query struct {
	Title  string `form:"q"`
	Genre  string `form:"genre"`
	Status string `form:"status" validate:"omitempty,oneof=owned playing completed wishlist"`
	Sort   string `form:"sort" validate:"omitempty,oneof=title hours recent"`
	Limit  int    `form:"limit" validate:"omitempty,gte=1,lte=100"`
	Offset int    `form:"offset" validate:"gte=0"`
}

// LibraryItem is one record as seen by one viewer.
type LibraryItem struct {
	OwnershipID uint       `json:"ownership_id"`
	GameID      uint       `json:"game_id"`
	Title       string     `json:"title"`
	Genre       string     `json:"genre"`
	Platform    string     `json:"platform"`
	Thumbnail   string     `json:"thumbnail"`
	Tags        []string   `json:"tags"`
	Price       *float64   `json:"price,omitempty"`
	Kind        string     `json:"type"`
	Status      string     `json:"status"`
	HoursPlayed *float64   `json:"hours_played,omitempty"`
	AcquiredAt  *time.Time `json:"date_purchased,omitempty"`

	IsBorrowed       bool   `json:"is_borrowed"`
	IsLoanedOut      bool   `json:"is_loaned_out"`
	OwnerUsername    string `json:"owner_username,omitempty"`
	LoanedToUsername string `json:"loaned_to_username,omitempty"`
	DaysRemaining    *int   `json:"days_remaining,omitempty"`
	LoanExpired      bool   `json:"loan_expired,omitempty"`

	hours    float64
	acquired time.Time
}

type Library struct {
	ViewerID   uint          `json:"user_id"`
	TotalGames int           `json:"total_games"`
	Games      []LibraryItem `json:"games"`
}

// Projector builds per-viewer library listings. It only reads.
type Projector struct {
	store   Store
	catalog Catalog
	users   Directory
	now     func() time.Time
}

func NewProjector(store Store, catalog Catalog, users Directory) *Projector {
	return &Projector{store: store, catalog: catalog, users: users, now: time.Now}
}

// GetLibrary lists the viewer's own copies and the copies lent to them.
func (p *Projector) GetLibrary(ctx context.Context, viewerID uint, q Query) (*Library, error) {
	if err := validateCommand(q); err != nil {
		return nil, err
	}

	recs, err := p.store.ListForUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	items, err := p.project(ctx, viewerID, recs)
	if err != nil {
		return nil, err
	}

	items = Filter(items, q)
	SortItems(items, q.Sort)
	total := len(items)

	return &Library{
		ViewerID:   viewerID,
		TotalGames: total,
		Games:      page(items, q.Offset, q.Limit),
	}, nil
}

// LoanedOut lists the owner's copies that are currently lent to someone.
func (p *Projector) LoanedOut(ctx context.Context, ownerID uint) ([]LibraryItem, error) {
	recs, err := p.store.ListLoanedOut(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return p.project(ctx, ownerID, recs)
}

func (p *Projector) project(ctx context.Context, viewerID uint, recs []models.Ownership) ([]LibraryItem, error) {
	if len(recs) == 0 {
		return []LibraryItem{}, nil
	}

	gameIDs := make([]uint, 0, len(recs))
	userIDs := make([]uint, 0, len(recs))
	for i := range recs {
		gameIDs = append(gameIDs, recs[i].GameID)
		if recs[i].LoanedTo != nil {
			userIDs = append(userIDs, recs[i].OwnerID, *recs[i].LoanedTo)
		}
	}

	var (
		games     map[uint]models.Game
		usernames map[uint]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		games, err = p.catalog.GetGamesByIDs(gctx, dedupe(gameIDs))
		return err
	})
	if len(userIDs) > 0 {
		g.Go(func() error {
			var err error
			usernames, err = p.users.Usernames(gctx, dedupe(userIDs))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := p.now()
	items := make([]LibraryItem, 0, len(recs))
	for i := range recs {
		game, ok := games[recs[i].GameID]
		if !ok {
			continue
		}
		items = append(items, projectItem(viewerID, &recs[i], game, usernames, now))
	}
	return items, nil
}

func projectItem(viewerID uint, rec *models.Ownership, game models.Game, usernames map[uint]string, now time.Time) LibraryItem {
	item := LibraryItem{
		OwnershipID: rec.ID,
		GameID:      rec.GameID,
		Title:       game.Title,
		Genre:       game.Genre,
		Platform:    game.Platform,
		Thumbnail:   game.Thumbnail,
		Tags:        game.Tags,
		Kind:        rec.Kind,
		Status:      rec.Status,
		hours:       rec.HoursPlayed,
		acquired:    rec.AcquiredAt,
	}
	price, hours, acquired := game.Price, rec.HoursPlayed, rec.AcquiredAt

	if StateOf(rec) == Available {
		item.Price, item.HoursPlayed, item.AcquiredAt = &price, &hours, &acquired
		return item
	}

	days := DaysRemaining(rec, now)
	item.DaysRemaining = &days
	item.LoanExpired = days == 0

	if *rec.LoanedTo == viewerID {
		// Borrower: the acquisition belongs to someone else.
		item.IsBorrowed = true
		item.OwnerUsername = usernames[rec.OwnerID]
		item.Price, item.HoursPlayed = &price, &hours
		return item
	}

	// Owner of a lent copy: usage stats are hidden while it is away.
	item.IsLoanedOut = true
	item.LoanedToUsername = usernames[*rec.LoanedTo]
	return item
}

// Filter keeps items matching the title substring, genre and status of q.
// Matching is case-insensitive; empty criteria match everything.
func Filter(items []LibraryItem, q Query) []LibraryItem {
	title := strings.ToLower(strings.TrimSpace(q.Title))
	genre := strings.TrimSpace(q.Genre)

	out := items[:0]
	for _, item := range items {
		if title != "" && !strings.Contains(strings.ToLower(item.Title), title) {
			continue
		}
		if genre != "" && !strings.EqualFold(item.Genre, genre) {
			continue
		}
		if q.Status != "" && item.Status != q.Status {
			continue
		}
		out = append(out, item)
	}
	return out
}

// SortItems orders items in place by key. Ties, and an empty key, fall back
// to ownership id ascending.
func SortItems(items []LibraryItem, key string) {
	byID := func(a, b LibraryItem) int { return cmp.Compare(a.OwnershipID, b.OwnershipID) }

	var primary func(a, b LibraryItem) int
	switch key {
	case SortTitle:
		primary = func(a, b LibraryItem) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case SortHours:
		primary = func(a, b LibraryItem) int { return cmp.Compare(b.hours, a.hours) }
	case SortRecent:
		primary = func(a, b LibraryItem) int { return b.acquired.Compare(a.acquired) }
	default:
		primary = func(LibraryItem, LibraryItem) int { return 0 }
	}

	slices.SortStableFunc(items, func(a, b LibraryItem) int {
		if c := primary(a, b); c != 0 {
			return c
		}
		return byID(a, b)
	})
}

func page(items []LibraryItem, offset, limit int) []LibraryItem {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset >= len(items) {
		return []LibraryItem{}
	}
	end := min(offset+limit, len(items))
	return items[offset:end]
}

func dedupe(ids []uint) []uint {
	slices.Sort(ids)
	return slices.Compact(ids)
}
