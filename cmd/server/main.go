package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/cargo-inspection/internal/app"
	"github.com/cargo-inspection/internal/config"
	"github.com/cargo-inspection/internal/logger"
	"github.com/cargo-inspection/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiCyan  = "\033[36m"
)

func main() {
	// 解析命令行参数
	var mode, configPath string
	pflag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径，默认按 ./config.yml 查找")
	pflag.Parse()

	mode, err := app.ParseMode(mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	printStartupBanner(mode)

	// 加载配置
	cfg := config.Load(configPath)
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if cfg.Server.Mode == "release" {
		if isWeakSecret(cfg.Identity.Secret) {
			stdLog.Fatalf("identity secret 过弱或仍为默认值，请配置与认证服务一致的强随机密钥")
		}
	} else if isWeakSecret(cfg.Identity.Secret) {
		stdLog.Printf("警告: identity secret 过弱或仍为默认值，仅适用于本地联调")
	}

	// 初始化数据库（remote 模式下仍承载授权策略）
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, cfg.Server.Mode == "debug"); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	// 自动迁移数据库表
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func printStartupBanner(mode string) {
	fmt.Println(ansiCyan + ansiBold + "Cargo Outbound Inspection" + ansiReset)
	fmt.Println(ansiDim + "mode: " + mode + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	if strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key") {
		return true
	}
	return false
}
