package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jengzang/dialysis-locator-go/internal/ads"
	"github.com/jengzang/dialysis-locator-go/internal/api"
	"github.com/jengzang/dialysis-locator-go/internal/config"
	"github.com/jengzang/dialysis-locator-go/internal/database"
	"github.com/jengzang/dialysis-locator-go/internal/dataset"
	"github.com/jengzang/dialysis-locator-go/internal/entitlement"
	"github.com/jengzang/dialysis-locator-go/internal/icons"
	"github.com/jengzang/dialysis-locator-go/internal/limits"
	"github.com/jengzang/dialysis-locator-go/internal/logger"
	"github.com/jengzang/dialysis-locator-go/internal/remote"
	"github.com/jengzang/dialysis-locator-go/internal/repository"
	"github.com/jengzang/dialysis-locator-go/internal/service"
)

const shutdownTimeout = 10 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the HTTP API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if v, _ := cmd.Flags().GetString("port"); v != "" {
			cfg.Port = v
		}
		return serve(cfg)
	},
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Listen address (default PORT)")
	rootCmd.AddCommand(serveCmd)
}

// app holds the long-lived components of a running server.
type app struct {
	db     *sql.DB
	mapSvc *service.MapService
	access *service.AccessService
}

func (a *app) Close() {
	a.mapSvc.Close()
	a.access.Close()
	a.db.Close()
}

func newApp(cfg *config.Config) (*app, error) {
	log := logger.Log

	// 初始化数据库
	db, err := database.Open(database.Config{Path: cfg.DBPath}, logger.Component("database"))
	if err != nil {
		return nil, err
	}
	kv := repository.NewKVRepository(db)

	centers, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		log.Warnf("[Dataset] %v; starting with an empty map", err)
	}
	store := dataset.NewStore(centers)
	log.Infof("[Dataset] %d centers loaded", store.Len())

	iconCache := icons.NewCache(icons.StaticRuntime(cfg.NativeIcons))
	iconCache.PreWarm(cfg.PreWarmCategories)

	var ledger entitlement.Ledger
	if cfg.LedgerURL != "" {
		ledger = remote.NewLedgerClient(remote.ClientConfig{
			BaseURL:  cfg.LedgerURL,
			APIKey:   cfg.LedgerAPIKey,
			RetryMax: cfg.HTTPRetryMax,
			Timeout:  cfg.HTTPTimeout,
			Log:      logger.Component("ledger"),
		}, cfg.LedgerActivePath)
	}
	var profile entitlement.ProfileStore
	if cfg.ProfileURL != "" {
		profile = remote.NewProfileClient(remote.ClientConfig{
			BaseURL:  cfg.ProfileURL,
			APIKey:   cfg.ProfileAPIKey,
			RetryMax: cfg.HTTPRetryMax,
			Timeout:  cfg.HTTPTimeout,
			Log:      logger.Component("profile"),
		})
	}

	ent := entitlement.NewReconciler(kv, ledger, profile, logger.Component("entitlement"))
	limiter := limits.New(kv, limits.WithLogger(logger.Component("limits")))
	placement := ads.NewPlacement()
	gate := ads.NewGate(placement, ent, ads.DefaultRetryPolicy, logger.Component("ads"))

	access := service.NewAccessService(store, limiter, ent, gate, placement, kv, cfg.JWTSecret, logger.Component("access"))
	access.Init(context.Background())

	return &app{
		db:     db,
		mapSvc: service.NewMapService(store, iconCache, kv, logger.Component("map")),
		access: access,
	}, nil
}

func serve(cfg *config.Config) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.SetupRouter(api.Services{Map: a.mapSvc, Access: a.access}, logger.Component("http"))

	srv := &http.Server{
		Addr:    cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		// 启动服务器
		logger.Log.Infof("Server starting on %s", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
