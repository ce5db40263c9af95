package setup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	disgorest "github.com/disgoorg/disgo/rest"
	"github.com/robalyx/slashcore/internal/database"
	"github.com/robalyx/slashcore/internal/database/migrations"
	"github.com/robalyx/slashcore/internal/redis"
	"github.com/robalyx/slashcore/internal/registry"
	"github.com/robalyx/slashcore/internal/rest"
	"github.com/robalyx/slashcore/internal/setup/config"
	"github.com/robalyx/slashcore/internal/setup/telemetry"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

// ErrMigrationsPending is returned when the operator declines pending migrations.
var ErrMigrationsPending = errors.New("database migrations are pending")

// App bundles all core dependencies and services needed by the application.
type App struct {
	Config       *config.Config     // Application configuration
	ConfigDir    string             // Directory the config files were loaded from
	Logger       *zap.Logger        // Main application logger
	DBLogger     *zap.Logger        // Database-specific logger
	DB           database.Client    // Database connection pool, nil when the invocation log is off
	RedisManager *redis.Manager     // Redis connection manager
	LogManager   *telemetry.Manager // Log management system
	REST         *rest.Client       // Outbound Discord transport
	Engine       *registry.Engine   // Command registration engine
	Token        string             // Bot token

	shutdownTracing func(context.Context) error
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context, serviceType telemetry.ServiceType, logDir string) (*App, error) {
	cfg, configDir, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(serviceType, logDir, &cfg.Common.Debug, true)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded configuration", zap.String("dir", configDir))

	shutdownTracing := telemetry.SetupTracing(&cfg.Common.Telemetry, config.RepositoryVersion, logger)

	token, err := cfg.Bot.Token()
	if err != nil {
		return nil, err
	}

	applicationID, err := ApplicationID(&cfg.Bot, token)
	if err != nil {
		return nil, err
	}

	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	hashes, err := newHashStore(cfg, redisManager)
	if err != nil {
		redisManager.Close()
		return nil, err
	}

	var db database.Client
	if cfg.Bot.InvocationLog {
		db, err = checkAndRunMigrations(ctx, &cfg.Common.PostgreSQL, dbLogger.Named("database"))
		if err != nil {
			redisManager.Close()
			return nil, err
		}
	}

	httpClient := &http.Client{Timeout: serviceType.GetRequestTimeout(cfg)}
	restClient := rest.New(token, applicationID, logger, disgorest.WithHTTPClient(httpClient))

	engine := registry.NewEngine(restClient, logger,
		registry.WithHashStore(hashes),
		registry.WithConcurrency(cfg.Bot.Sync.Concurrency),
	)

	return &App{
		Config:          cfg,
		ConfigDir:       configDir,
		Logger:          logger,
		DBLogger:        dbLogger.Named("database"),
		DB:              db,
		RedisManager:    redisManager,
		LogManager:      logManager,
		REST:            restClient,
		Engine:          engine,
		Token:           token,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Cleanup ensures graceful shutdown of all components in reverse initialization order.
// Logs but does not fail on cleanup errors to ensure all components get cleanup attempts.
func (s *App) Cleanup(ctx context.Context) {
	s.REST.Close(ctx)

	if err := s.shutdownTracing(ctx); err != nil {
		s.Logger.Error("Failed to flush traces", zap.Error(err))
	}

	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			s.Logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	// Close Redis connections last as other components might need it during cleanup
	s.RedisManager.Close()

	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		log.Printf("Failed to sync logger: %v", err)
	}
	if err := s.DBLogger.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		log.Printf("Failed to sync DB logger: %v", err)
	}

	s.LogManager.Close()
}

// newHashStore picks where definition hashes live between runs.
func newHashStore(cfg *config.Config, redisManager *redis.Manager) (registry.HashStore, error) {
	if !cfg.Bot.Sync.PersistHashes {
		return registry.NewMemoryHashStore(), nil
	}

	client, err := redisManager.GetClient(redis.RegistryDBIndex)
	if err != nil {
		return nil, err
	}

	return registry.NewRedisHashStore(client, cfg.Bot.Sync.HashPrefix), nil
}

// checkAndRunMigrations runs database migrations after asking the operator.
func checkAndRunMigrations(ctx context.Context, cfg *config.PostgreSQL, dbLogger *zap.Logger) (database.Client, error) {
	db, err := database.NewConnection(ctx, cfg, dbLogger, false)
	if err != nil {
		return nil, err
	}

	migrator := migrate.NewMigrator(db.DB(), migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to check migration status: %w", err)
	}

	unapplied := ms.Unapplied()
	if len(unapplied) == 0 {
		return db, nil
	}

	log.Printf("%d database migrations are pending. Would you like to run them now? (y/N)", len(unapplied))

	var response string
	_, _ = fmt.Scanln(&response)

	if !strings.EqualFold(response, "y") {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %d unapplied", ErrMigrationsPending, len(unapplied))
	}

	if err := database.Migrate(ctx, db.DB(), dbLogger); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
