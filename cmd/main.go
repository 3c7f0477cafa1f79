package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/theEricHoang/coal/accounts"
	"github.com/theEricHoang/coal/auth"
	"github.com/theEricHoang/coal/cache"
	"github.com/theEricHoang/coal/catalog"
	"github.com/theEricHoang/coal/config"
	"github.com/theEricHoang/coal/db"
	"github.com/theEricHoang/coal/handlers"
	"github.com/theEricHoang/coal/library"
	"github.com/theEricHoang/coal/monitoring"
	"github.com/theEricHoang/coal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Log.WithError(err).Fatal("Failed to load configuration")
	}

	utils.InitLogger(utils.LoggerOptions{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Release: cfg.Release(),
	})

	// Set to release mode in production
	if cfg.Release() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		utils.Log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close(gdb)

	// Redis is optional; without it every lookup goes to the database.
	var c *cache.Cache
	if cfg.RedisURL != "" {
		c, err = cache.Connect(ctx, cache.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			utils.Log.WithError(err).Warn("Redis unavailable, running without cache")
		} else {
			utils.Log.WithField("addr", cfg.RedisURL).Info("Redis connected")
			defer c.Close()
		}
	}

	monitoring.InitMetrics()

	store := library.NewGormStore(gdb)
	if n, err := store.CountActiveLoans(ctx); err == nil {
		monitoring.ActiveLoans.Set(float64(n))
	}

	games := catalog.NewService(gdb, c)
	users := accounts.NewService(gdb, c, store)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)

	r := handlers.NewRouter(handlers.Deps{
		DB:          gdb,
		Cache:       c,
		Tokens:      tokens,
		Accounts:    users,
		Catalog:     games,
		Engine:      library.NewEngine(store, games),
		Projector:   library.NewProjector(store, games, users),
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		var err error
		if cfg.UseHTTPS {
			server.TLSConfig = &tls.Config{
				MinVersion:       tls.VersionTLS12,
				CurvePreferences: []tls.CurveID{tls.X25519, tls.CurveP256, tls.CurveP384},
			}
			utils.Log.WithFields(logrus.Fields{
				"port": cfg.Port,
				"cert": cfg.TLSCertFile,
			}).Info("Starting server with HTTPS")
			err = server.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			utils.Log.WithField("port", cfg.Port).Info("Starting server with HTTP")
			utils.Log.Warn("Running without HTTPS. Set USE_HTTPS=true for production")
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	utils.Log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.LogError("Server shutdown failed", map[string]interface{}{"error": err.Error()})
	}
}
