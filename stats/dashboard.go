package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/theEricHoang/coal/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// RecentWindow is how far back a game counts as recently published.
const RecentWindow = 30 * 24 * time.Hour

// Dashboard holds service-wide totals for administrators.
type Dashboard struct {
	TotalUsers      int64   `json:"total_users"`
	ActiveUsers     int64   `json:"active_users"`
	TotalGames      int64   `json:"total_games"`
	RecentGames     int64   `json:"recent_games"`
	LibraryCopies   int64   `json:"library_copies"`
	ActiveLoans     int64   `json:"active_loans"`
	AverageHours    float64 `json:"average_hours_played"`
	CalculationTime string  `json:"calculation_time"`
}

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Dashboard runs every count in its own goroutine; the first failure
// cancels the rest.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	start := time.Now()
	d := &Dashboard{}
	g, ctx := errgroup.WithContext(ctx)

	count := func(label string, dst *int64, model interface{}, where ...interface{}) {
		g.Go(func() error {
			q := s.db.WithContext(ctx).Model(model)
			if len(where) > 0 {
				q = q.Where(where[0], where[1:]...)
			}
			if err := q.Count(dst).Error; err != nil {
				return fmt.Errorf("%s: %w", label, err)
			}
			return nil
		})
	}

	count("users count", &d.TotalUsers, &models.User{})
	count("active users", &d.ActiveUsers, &models.User{}, "is_banned = ?", false)
	count("games count", &d.TotalGames, &models.Game{})
	count("recent games", &d.RecentGames, &models.Game{}, "created_at >= ?", s.now().Add(-RecentWindow))
	count("library copies", &d.LibraryCopies, &models.Ownership{})
	count("active loans", &d.ActiveLoans, &models.Ownership{}, "loaned_to IS NOT NULL")

	g.Go(func() error {
		var avg struct{ Avg *float64 }
		if err := s.db.WithContext(ctx).Model(&models.Ownership{}).
			Select("AVG(hours_played) AS avg").
			Scan(&avg).Error; err != nil {
			return fmt.Errorf("average hours: %w", err)
		}
		if avg.Avg != nil {
			d.AverageHours = *avg.Avg
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	d.CalculationTime = time.Since(start).String()
	return d, nil
}
