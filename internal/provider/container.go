package provider

import (
	"errors"
	"time"

	"github.com/cargo-inspection/internal/authz"
	"github.com/cargo-inspection/internal/backend"
	"github.com/cargo-inspection/internal/cache"
	"github.com/cargo-inspection/internal/config"
	"github.com/cargo-inspection/internal/identity"
	"github.com/cargo-inspection/internal/logger"
	"github.com/cargo-inspection/internal/models"
	"github.com/cargo-inspection/internal/queue"
	"github.com/cargo-inspection/internal/repository"
	"github.com/cargo-inspection/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Backend     *backend.Client
	Exporter    *backend.Exporter
	TokenParser *identity.Parser
	Locker      *cache.Locker

	// Repositories（本地 gorm 或远端 REST，由 store.driver 决定）
	OutboundRepo     repository.OutboundRepository
	VerificationRepo repository.VerificationRepository
	ValidationRepo   repository.ValidationRepository
	ProfileRepo      repository.ProfileRepository
	RouteRepo        repository.RouteScheduleRepository

	// Services
	AuthzService        *authz.Service
	ExportDispatcher    *service.ExportDispatcher
	OutboundService     *service.OutboundService
	VerificationService *service.VerificationService
	ValidationService   *service.ValidationService
	DirectoryService    *service.DirectoryService
	DashboardService    *service.DashboardService
	RouteService        *service.RouteService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	backendClient := backend.NewClient(cfg.Backend)
	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Backend:     backendClient,
		Exporter:    backend.NewExporter(backendClient),
		TokenParser: identity.NewParser(cfg.Identity.Secret, cfg.Identity.Capability, cfg.Identity.Issuer),
		Locker:      cache.NewLocker(time.Duration(cfg.Workflow.LockTTLSeconds) * time.Second),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	if c.Config.IsRemoteStore() {
		if !c.Backend.Enabled() {
			logger.Errorw("provider_remote_store_without_backend", "base_url", c.Config.Backend.BaseURL)
		}
		c.OutboundRepo = backend.NewOutboundStore(c.Backend)
		c.VerificationRepo = backend.NewVerificationStore(c.Backend)
		c.ValidationRepo = backend.NewValidationStore(c.Backend)
		c.ProfileRepo = backend.NewDirectoryStore(c.Backend)
		c.RouteRepo = backend.NewRouteStore(c.Backend)
		logger.Infow("provider_store_selected", "driver", "remote")
		return
	}
	db := models.DB
	c.OutboundRepo = repository.NewOutboundRepository(db)
	c.VerificationRepo = repository.NewVerificationRepository(db)
	c.ValidationRepo = repository.NewValidationRepository(db)
	c.ProfileRepo = repository.NewProfileRepository(db)
	c.RouteRepo = repository.NewRouteScheduleRepository(db)
	logger.Infow("provider_store_selected", "driver", "local")
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	workflow := service.NewWorkflow(c.Config.Workflow)
	referenceTTL := time.Duration(c.Config.Reference.CacheTTLSeconds) * time.Second

	c.ExportDispatcher = service.NewExportDispatcher(c.QueueClient, c.Exporter, c.Config.Export)
	c.OutboundService = service.NewOutboundService(c.OutboundRepo, c.Locker, c.ExportDispatcher, workflow)
	c.VerificationService = service.NewVerificationService(c.OutboundRepo, c.VerificationRepo, c.Locker, c.ExportDispatcher, workflow)
	c.ValidationService = service.NewValidationService(c.OutboundRepo, c.VerificationRepo, c.ValidationRepo, c.Locker, c.ExportDispatcher, workflow)
	c.DirectoryService = service.NewDirectoryService(c.ProfileRepo, referenceTTL)
	c.DashboardService = service.NewDashboardService(c.OutboundRepo, c.RouteRepo, workflow)
	c.RouteService = service.NewRouteService(c.RouteRepo, c.OutboundRepo, referenceTTL, workflow)
}

// Close 释放队列与缓存连接
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := cache.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
