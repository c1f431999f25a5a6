package container

import (
	"context"
	"database/sql"
	"fmt"

	"equiphouse/internal/clock"
	"equiphouse/internal/config"
	"equiphouse/internal/database"
	"equiphouse/internal/docstore"
	"equiphouse/internal/docstore/memory"
	"equiphouse/internal/docstore/postgres"
	"equiphouse/internal/integrations/googlesheets"
	"equiphouse/internal/inventory/cache"
	"equiphouse/internal/inventory/equipment"
	"equiphouse/internal/inventory/report"
	"equiphouse/internal/inventory/restructure"
	"equiphouse/internal/metrics"
	"equiphouse/internal/middleware"
	"equiphouse/internal/rate_limiter"
	"equiphouse/internal/repository"
	"equiphouse/pkg/auditlog"
	"equiphouse/pkg/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const Version = "1.0.0"

type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Store   docstore.Store

	DB    *sql.DB
	Redis redis.UniversalClient

	AuditLog    *auditlog.Auditlog
	Inventory   *equipment.Repository
	Restructure *restructure.Service
	Exporter    *report.Exporter
	RateLimiter *rate_limiter.RateLimiter
	Health      *middleware.Health

	EquipmentHandler   *equipment.EquipmentHandler
	RestructureHandler *restructure.RestructureHandler
	ReportHandler      *report.ReportHandler
}

func NewAppContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	clk := clock.New()
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}
	checks := map[string]middleware.HealthCheck{}

	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := database.NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		c.DB = db
		c.Store = postgres.NewStore(repository.NewRepository(db))
		checks["postgres"] = db.PingContext
	default:
		logger.Warn("Using the in-memory document store; data is lost on restart")
		c.Store = memory.NewStore()
	}

	caches := equipment.Caches{}
	if cfg.CacheBackend == config.CacheRedis {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		c.Redis = client
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		caches.Equipment = cache.NewRedis[[]models.EquipmentDisplay](client, cache.EquipmentCacheName, cfg.EquipmentCacheTTL, logger)
		caches.Taxonomy = cache.NewRedis[[]models.Taxonomy](client, cache.TaxonomyCacheName, cfg.TaxonomyCacheTTL, logger)
	} else {
		caches.Equipment = cache.NewMemory[[]models.EquipmentDisplay](cfg.EquipmentCacheTTL, clk)
		caches.Taxonomy = cache.NewMemory[[]models.Taxonomy](cfg.TaxonomyCacheTTL, clk)
	}

	c.AuditLog = auditlog.NewAuditLog(c.Store, clk, logger)
	c.Inventory = equipment.NewRepository(c.Store, caches, clk, logger, c.Metrics)
	c.Restructure = restructure.NewService(c.Store, c.Inventory, clk, logger, c.Metrics, cfg.MigrationBatchSize)
	c.Exporter = report.NewExporter(c.Inventory, newSheetWriter(ctx, cfg, logger), cfg.ReportSpreadsheetID, logger)
	c.RateLimiter = rate_limiter.NewRateLimiter(cfg.AdminRateLimit, cfg.AdminRateWindow, clk)
	c.Health = middleware.NewHealth(Version, clk, checks)

	c.EquipmentHandler = equipment.NewEquipmentHandler(c.Inventory, c.AuditLog)
	c.RestructureHandler = restructure.NewRestructureHandler(c.Restructure)
	c.ReportHandler = report.NewReportHandler(c.Exporter)

	return c, nil
}

// newSheetWriter returns nil when reporting is not configured, which the
// exporter reports as ErrNotConfigured.
func newSheetWriter(ctx context.Context, cfg *config.Config, logger *zap.Logger) googlesheets.SheetWriter {
	if cfg.ReportSpreadsheetID == "" {
		return nil
	}

	credentials, err := googlesheets.LoadCredentials(cfg.GoogleCredentialsJSON, cfg.GoogleCredentialsFile)
	if err != nil {
		logger.Warn("Inventory report export disabled", zap.Error(err))
		return nil
	}
	client, err := googlesheets.NewClient(ctx, credentials, logger)
	if err != nil {
		logger.Warn("Inventory report export disabled", zap.Error(err))
		return nil
	}

	return client
}

func (c *Container) Close() {
	if c.RateLimiter != nil {
		c.RateLimiter.Stop()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Unable to close redis client", zap.Error(err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("Unable to close database", zap.Error(err))
		}
	}
}
