package provider

import (
	"github.com/revisit-loyalty/internal/authz"
	"github.com/revisit-loyalty/internal/cache"
	"github.com/revisit-loyalty/internal/config"
	"github.com/revisit-loyalty/internal/logger"
	"github.com/revisit-loyalty/internal/models"
	"github.com/revisit-loyalty/internal/queue"
	"github.com/revisit-loyalty/internal/repository"
	"github.com/revisit-loyalty/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client

	// Repositories
	RestaurantRepo repository.RestaurantRepository
	RankRepo       repository.RankRepository
	StaffRepo      repository.StaffRepository
	CustomerRepo   repository.CustomerRepository
	SaleRepo       repository.SaleRepository
	PointTxnRepo   repository.PointTransactionRepository
	RewardRepo     repository.RewardRepository

	// Services
	AuthzService        *authz.Service
	AuthService         *service.AuthService
	CaptchaService      *service.CaptchaService
	RestaurantService   *service.RestaurantService
	StaffService        *service.StaffService
	CustomerService     *service.CustomerService
	RankService         *service.RankService
	SaleService         *service.SaleService
	RedemptionService   *service.RedemptionService
	RewardConfigService *service.RewardConfigService
	LedgerService       *service.LedgerService
}

// NewContainer 初始化容器（使用全局数据库连接）
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c, err := Build(cfg, models.DB, queueClient)
	if err != nil {
		logger.Errorw("provider_init_failed", "error", err)
		panic(err)
	}
	return c
}

// Build 基于给定数据库组装仓储与服务
func Build(cfg *config.Config, db *gorm.DB, queueClient *queue.Client) (*Container, error) {
	c := &Container{
		Config:      cfg,
		DB:          db,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	if err := c.initServices(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) initRepositories() {
	db := c.DB
	c.RestaurantRepo = repository.NewRestaurantRepository(db)
	c.RankRepo = repository.NewRankRepository(db)
	c.StaffRepo = repository.NewStaffRepository(db)
	c.CustomerRepo = repository.NewCustomerRepository(db)
	c.SaleRepo = repository.NewSaleRepository(db)
	c.PointTxnRepo = repository.NewPointTransactionRepository(db)
	c.RewardRepo = repository.NewRewardRepository(db)
}

func (c *Container) initServices() error {
	authzService, err := authz.NewService(c.DB)
	if err != nil {
		return err
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		return err
	}
	c.AuthzService = authzService

	opts := service.LoyaltyOptionsFromConfig(c.Config.Loyalty)
	c.AuthService = service.NewAuthService(c.Config.Auth)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.StaffService = service.NewStaffService(c.StaffRepo)
	c.RestaurantService = service.NewRestaurantService(c.DB, c.RestaurantRepo, c.RankRepo, c.StaffRepo, opts)
	c.CustomerService = service.NewCustomerService(c.DB, c.RestaurantRepo, c.CustomerRepo, c.RankRepo, c.PointTxnRepo, opts)
	c.RankService = service.NewRankService(c.DB, c.RankRepo, c.CustomerRepo)
	c.SaleService = service.NewSaleService(c.DB, c.RestaurantRepo, c.CustomerRepo, c.RankRepo, c.StaffRepo, c.SaleRepo, c.PointTxnRepo, c.StaffService)
	c.RedemptionService = service.NewRedemptionService(c.DB, c.RestaurantRepo, c.CustomerRepo, c.RankRepo, c.RewardRepo, c.PointTxnRepo, c.StaffService, opts)
	c.RewardConfigService = service.NewRewardConfigService(c.RewardRepo)
	c.LedgerService = service.NewLedgerService(c.DB, c.RestaurantRepo, c.CustomerRepo, c.PointTxnRepo, c.StaffService)
	return nil
}
