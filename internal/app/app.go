package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/semmidev/keeper/internal/adapter/compressor"
	"github.com/semmidev/keeper/internal/adapter/database"
	"github.com/semmidev/keeper/internal/adapter/storage"
	"github.com/semmidev/keeper/internal/api"
	"github.com/semmidev/keeper/internal/config"
	"github.com/semmidev/keeper/internal/domain"
	"github.com/semmidev/keeper/internal/infrastructure/logger"
	"github.com/semmidev/keeper/internal/infrastructure/scheduler"
	"github.com/semmidev/keeper/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	config        *config.Config
	logger        *logger.Logger
	scheduler     *scheduler.Scheduler
	server        *http.Server
	sqlDB         *sqlx.DB
	items         *database.ItemRepository
	executor      *database.MySQLDatabase
	backupUC      *usecase.Backup
	autoBackupUC  *usecase.AutoBackup
	uploadTargets []usecase.UploadTarget
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.New(logger.Options{
		Level:   cfg.App.LogLevel,
		File:    cfg.App.LogFile,
		AppName: cfg.App.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Infof("Starting %s", cfg.App.Name)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	clock := usecase.NewClock(loc)
	log.Infof("Application time zone: %s", loc)

	localStorage, err := storage.NewLocal(cfg.Backup.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local storage: %w", err)
	}
	if err := localStorage.EnsureReady(); err != nil {
		log.Warnf("Backup directory %s is not ready yet: %v", cfg.Backup.LocalPath, err)
	}

	executor := database.NewMySQL(&cfg.Database, &cfg.Backup)

	sqlDB, err := database.OpenMySQL(&cfg.Database)
	if err != nil {
		return nil, err
	}
	items := database.NewItemRepository(sqlDB)

	uploadTargets, oauthHandler := initializeUploadTargets(ctx, cfg, log)

	backupUC := usecase.NewBackup(
		executor,
		localStorage,
		uploadTargets,
		compressor.NewGzip(),
		clock,
		log.Named("backup"),
		cfg.Backup.Compress,
	)

	schedule, err := usecase.NewSchedule(cfg.Schedule.Enabled, cfg.Schedule.TriggerSecond)
	if err != nil {
		return nil, err
	}
	autoBackupUC := usecase.NewAutoBackup(schedule, backupUC, clock, log.Named("autobackup"))

	handler := api.NewRouter(
		api.RouterConfig{
			StaticDir:   cfg.Server.StaticDir,
			LogRequests: cfg.Server.LogRequests,
		},
		log.Named("http"),
		api.Handlers{
			Backup:   api.NewBackupHandler(log.Named("http"), backupUC),
			Schedule: api.NewScheduleHandler(log.Named("http"), schedule, clock),
			Items:    api.NewItemHandler(log.Named("http"), items),
			OAuth:    oauthHandler,
		},
	)

	server := &http.Server{
		Addr:         cfg.Server.ListenAddr(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
		Handler:      handler,
	}

	return &App{
		config:        cfg,
		logger:        log,
		scheduler:     scheduler.New(loc, log.Named("scheduler")),
		server:        server,
		sqlDB:         sqlDB,
		items:         items,
		executor:      executor,
		backupUC:      backupUC,
		autoBackupUC:  autoBackupUC,
		uploadTargets: uploadTargets,
	}, nil
}

// initializeUploadTargets builds the off-site mirrors. A target that fails to
// initialize is skipped. The OAuth handler is returned while a gdrive target
// is waiting for its refresh token.
func initializeUploadTargets(ctx context.Context, cfg *config.Config, log *logger.Logger) ([]usecase.UploadTarget, *api.OAuthHandler) {
	var targets []usecase.UploadTarget
	var oauthHandler *api.OAuthHandler

	for _, targetCfg := range cfg.GetEnabledUploadTargets() {
		var stor domain.Storage
		var err error

		switch targetCfg.Type {
		case "gdrive":
			if targetCfg.ClientSecretFile != "" && targetCfg.RefreshToken == "" {
				oauthCfg, err := storage.LoadDriveOAuthConfig(targetCfg.ClientSecretFile)
				if err != nil {
					log.Errorf("Failed to initialize Google Drive OAuth: %v", err)
					continue
				}
				oauthHandler = api.NewOAuthHandler(log.Named("oauth"), oauthCfg)
				log.Warnf("Google Drive is not authorized yet, open /auth/google/drive to get a refresh token")
				continue
			}

			stor, err = storage.NewGDrive(ctx, &targetCfg)
			if err != nil {
				log.Errorf("Failed to initialize Google Drive: %v", err)
				continue
			}
			log.Infof("Google Drive upload enabled")

		case "s3":
			stor, err = storage.NewS3(ctx, &targetCfg)
			if err != nil {
				log.Errorf("Failed to initialize S3: %v", err)
				continue
			}
			log.Infof("S3 upload enabled (bucket: %s)", targetCfg.Bucket)

		case "telegram":
			stor, err = storage.NewTelegram(&targetCfg)
			if err != nil {
				log.Errorf("Failed to initialize Telegram: %v", err)
				continue
			}
			log.Infof("Telegram upload enabled")

		default:
			log.Warnf("Unknown upload target type: %s", targetCfg.Type)
			continue
		}

		targets = append(targets, usecase.UploadTarget{
			Name:    targetCfg.Type,
			Storage: stor,
		})
	}

	return targets, oauthHandler
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) Run(ctx context.Context) error {
	dbCfg := a.config.Database

	a.logger.Infof("Waiting for database %s:%d...", dbCfg.Host, dbCfg.Port)
	if err := database.WaitReady(ctx, a.items, dbCfg.ConnectRetries, dbCfg.ConnectRetryDelay, a.logger); err != nil {
		return err
	}
	if err := a.items.EnsureSchema(ctx); err != nil {
		return err
	}
	a.logger.Infof("Connected to %s (%s)", dbCfg.Database, a.executor.GetType())

	if err := a.executor.Ping(ctx); err != nil {
		a.logger.Warnf("Client tools cannot reach the database, backups will fail: %s", domain.ErrorDetail(err))
	}

	if err := a.scheduler.AddJob("autobackup", scheduler.EverySecond, a.autoBackupUC.Run); err != nil {
		return fmt.Errorf("failed to schedule autobackup: %w", err)
	}
	a.scheduler.Start(ctx)

	state := a.config.Schedule
	a.logger.Infof("Autobackup scheduler started (enabled: %t, trigger second: %d)", state.Enabled, state.TriggerSecond)
	a.logger.Infof("Backup destinations: local + %d remote target(s)", len(a.uploadTargets))

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server listening on %s", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown http server: %w", err)
	}

	return nil
}

func (a *App) Shutdown() {
	a.logger.Infof("Shutting down application...")
	a.scheduler.Stop()
	a.autoBackupUC.Wait()
	a.backupUC.Wait()
	if err := a.sqlDB.Close(); err != nil {
		a.logger.Warnf("Failed to close database pool: %v", err)
	}
	a.logger.Close()
}
