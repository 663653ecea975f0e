package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"orarsync/internal/api"
	"orarsync/internal/cache"
	"orarsync/internal/config"
	"orarsync/internal/httpmiddleware"
	"orarsync/internal/kv"
	"orarsync/internal/live"
	"orarsync/internal/mirror"
	"orarsync/internal/model"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("orarsyncd failed: %v", err)
	}
}

func run(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	caches := cache.NewStore(store)

	client := api.New(cfg.APIBaseURL)
	prober, err := mirror.NewNetProber(cfg.APIBaseURL)
	if err != nil {
		return err
	}

	ctrl := mirror.NewController(client, caches, prober)
	ctrl.SetScope(model.Scope{
		AcademicYear: cfg.AcademicYear,
		Semester:     cfg.Semester,
		CycleType:    cfg.CycleType,
	})

	if err := authenticate(ctx, cfg, client, ctrl); err != nil {
		return err
	}

	// Live channel: connect when reachable, reconcile every push against
	// the controller's current scope.
	wsURL, err := live.URLFromAPI(cfg.APIBaseURL)
	if err != nil {
		return err
	}
	channel := live.New(wsURL, client.ClientID())
	channel.OnUpdate(func(pushed []model.Schedule) {
		ctrl.ApplyLiveUpdate(ctx, pushed)
	})
	channel.OnConnect(func() {
		// A reconnect may have missed pushes; reconcile once.
		go ctrl.Refresh(ctx, false, false)
	})
	if prober.Online() {
		channel.Connect()
	}
	defer channel.Disconnect()

	// Initial view: cache first, then network.
	go ctrl.Refresh(ctx, true, true)

	// Degraded-mode poll while the channel is down.
	go ctrl.RunPolling(ctx, cfg.PollInterval, channel.IsConnected)

	// Revive the channel when connectivity returns, the daemon's analog
	// of the browser online/visibility handlers.
	go watchConnectivity(ctx, prober, channel)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.NewRateLimiter(cfg.RateLimit).Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"online": prober.Online(),
			"live":   channel.IsConnected(),
		})
	})

	r.GET("/v1/schedule", func(c *gin.Context) {
		c.JSON(http.StatusOK, ctrl.Snapshot())
	})

	r.GET("/v1/assessments", func(c *gin.Context) {
		snap := ctrl.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"assessments": snap.Assessments,
			"notice":      snap.Notice,
			"error":       snap.Error,
			"updated_at":  snap.UpdatedAt,
		})
	})

	r.GET("/v1/status", func(c *gin.Context) {
		sc := ctrl.Scope()
		snap := ctrl.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"academic_year": sc.AcademicYear,
			"semester":      sc.Semester,
			"cycle_type":    sc.CycleType,
			"online":        prober.Online(),
			"live":          channel.IsConnected(),
			"loading":       snap.Loading,
			"updated_at":    snap.UpdatedAt,
			"groups_order":  caches.LoadGroupsOrder(),
		})
	})

	r.POST("/v1/refresh", func(c *gin.Context) {
		go ctrl.Refresh(ctx, false, false)
		c.JSON(http.StatusAccepted, gin.H{"message": "refresh scheduled"})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("orarsyncd listening on :%s (backend %s)", cfg.HTTPPort, cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	log.Println("orarsyncd exited")
	return nil
}

// openStore selects the cache backend. Memory and file need nothing
// external; redis and postgres share state with other mirrors.
func openStore(cfg config.App) (kv.Store, func(), error) {
	switch cfg.CacheBackend {
	case "memory":
		return kv.NewMemory(), func() {}, nil
	case "redis":
		return kv.NewRedis(cfg.RedisAddr), func() {}, nil
	case "postgres":
		pg, err := kv.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { pg.Close() }, nil
	default:
		f, err := kv.NewFile(cfg.CacheFile)
		if err != nil {
			return nil, nil, err
		}
		return f, func() {}, nil
	}
}

// authenticate establishes the session and the student group. A rejected
// credential is fatal; an unreachable backend degrades to offline mode
// with the last known group from config.
func authenticate(ctx context.Context, cfg config.App, client *api.Client, ctrl *mirror.Controller) error {
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
		if client.TokenExpired() {
			log.Println("configured token is expired, continuing unauthenticated")
			client.Logout()
		}
	}
	if client.Token() == "" && cfg.Email != "" && cfg.Password != "" {
		if _, err := client.Login(ctx, cfg.Email, cfg.Password); err != nil {
			if errors.Is(err, api.ErrUnauthorized) {
				return err
			}
			log.Printf("login failed, continuing offline: %v", err)
		}
	}

	if client.Token() != "" {
		user, err := client.CurrentUser(ctx)
		switch {
		case err == nil:
			if user.GroupCode != "" {
				ctrl.SetUserGroup(user.GroupCode)
			}
			return nil
		case errors.Is(err, api.ErrUnauthorized):
			return err
		default:
			log.Printf("current-user check failed, continuing offline: %v", err)
		}
	}

	// Offline or unauthenticated: fall back to the configured group so a
	// shared-device cache still gets pruned.
	if cfg.GroupCode != "" {
		ctrl.SetUserGroup(cfg.GroupCode)
	}
	return nil
}

// watchConnectivity reconnects the live channel after an offline spell.
func watchConnectivity(ctx context.Context, prober mirror.Prober, channel *live.Channel) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if prober.Online() && !channel.IsConnected() {
				channel.Connect()
			}
		}
	}
}
