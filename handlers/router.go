package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/theEricHoang/coal/accounts"
	"github.com/theEricHoang/coal/auth"
	"github.com/theEricHoang/coal/cache"
	"github.com/theEricHoang/coal/catalog"
	"github.com/theEricHoang/coal/library"
	"github.com/theEricHoang/coal/middleware"
	"github.com/theEricHoang/coal/monitoring"
	"github.com/theEricHoang/coal/stats"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs.
type Deps struct {
	DB          *gorm.DB
	Cache       *cache.Cache
	Tokens      *auth.Tokens
	Accounts    *accounts.Service
	Catalog     *catalog.Service
	Engine      *library.Engine
	Projector   *library.Projector
	CORSOrigins []string
}

// NewRouter wires middleware and routes.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.ErrorLogger(),
		monitoring.PrometheusMiddleware(),
		middleware.SecurityHeaders(),
		middleware.RemovePoweredBy(),
	)
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	authH := NewAuthHandler(d.Accounts, d.Tokens)
	games := NewGameHandler(d.Catalog)
	lib := NewLibraryHandler(d.Engine, d.Projector)
	users := NewUserHandler(d.Accounts)
	health := NewHealthHandler(d.DB, d.Cache)
	dashboard := NewStatsHandler(stats.NewService(d.DB))

	// Public routes
	r.GET("/health", health.Health)
	r.GET("/metrics", monitoring.PrometheusHandler())
	r.POST("/register", authH.Register)
	r.POST("/login", authH.Login)
	r.GET("/games", games.List)
	r.GET("/games/search", games.Search)
	r.GET("/games/:id", games.Get)

	protected := r.Group("/", middleware.RequireSession(d.Tokens, d.Accounts))
	{
		protected.POST("/games", games.Publish)

		protected.GET("/library", lib.GetLibrary)
		protected.POST("/library", lib.Add)
		protected.GET("/library/loaned", lib.LoanedOut)
		protected.GET("/library/:id", lib.Get)
		protected.DELETE("/library/:id", lib.Remove)
		protected.POST("/library/:id/loan", lib.Loan)
		protected.POST("/library/:id/return", lib.Return)
		protected.POST("/library/:id/playtime", lib.UpdatePlaytime)
		protected.PUT("/library/:id/status", lib.SetStatus)

		protected.GET("/users/:id", users.GetProfile)
		protected.POST("/users/:id/ban", users.Ban)
		protected.POST("/users/:id/unban", users.Unban)

		protected.GET("/admin/stats", dashboard.GetDashboardStats)
	}

	return r
}
