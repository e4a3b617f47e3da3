package router

import (
	"strings"

	"github.com/cargo-inspection/internal/cache"
	"github.com/cargo-inspection/internal/config"
	inspectorhandlers "github.com/cargo-inspection/internal/http/handlers/inspector"
	reviewerhandlers "github.com/cargo-inspection/internal/http/handlers/reviewer"
	"github.com/cargo-inspection/internal/logger"
	"github.com/cargo-inspection/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按检查员/复核人员分组）
	inspectorHandler := inspectorhandlers.New(c)
	reviewerHandler := reviewerhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cargo"
	}
	exportRule := ExportRateLimitRule(cfg.Export, redisPrefix)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	authenticated := apiV1.Group("")
	authenticated.Use(IdentityAuthMiddleware(c.TokenParser))
	{
		authenticated.GET("/me", inspectorHandler.GetMe)

		guarded := authenticated.Group("")
		guarded.Use(RoleAuthzMiddleware(c.AuthzService))
		{
			// 出库检查
			guarded.GET("/outbound/:routeNumber", inspectorHandler.GetOutbound)
			guarded.POST("/outbound/save", inspectorHandler.SaveOutbound)
			guarded.POST("/outbound/submit", inspectorHandler.SubmitOutbound)
			guarded.POST("/outbound/:routeNumber/export",
				RateLimitMiddleware(cache.Client(), exportRule, KeyByPrincipal),
				inspectorHandler.ExportOutbound,
			)
			guarded.GET("/outbounds", inspectorHandler.ListOutbounds)
			guarded.GET("/dashboard/stats", inspectorHandler.GetDashboardStats)
			guarded.GET("/routes/coverage", inspectorHandler.GetCoverage)
			guarded.GET("/routes/:routeNumber/info", inspectorHandler.GetRouteInfo)
			guarded.GET("/dropdowns/:site", inspectorHandler.GetDropdowns)

			// 月度复核与年度确认
			guarded.GET("/verification/:yearMonth/:site", reviewerHandler.GetVerification)
			guarded.PATCH("/verification", reviewerHandler.ApproveVerification)
			guarded.GET("/verifications/:year/:site", reviewerHandler.GetVerificationYear)
			guarded.GET("/validation/:year/:site", reviewerHandler.GetValidation)
			guarded.PATCH("/validation", reviewerHandler.ApproveValidation)
			guarded.GET("/validationDropdown", reviewerHandler.GetValidationYears)

			// 人员目录
			guarded.GET("/profiles", reviewerHandler.ListProfiles)
			guarded.POST("/profiles", reviewerHandler.CreateProfile)
			guarded.PATCH("/profiles/:id", reviewerHandler.UpdateProfile)
			guarded.DELETE("/profiles/:id", reviewerHandler.DeleteProfile)
		}
	}

	// 健康检查
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
