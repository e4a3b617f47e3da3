package main

import (
	"context"
	"os"
	"strings"

	"github.com/cargo-inspection/internal/config"
	"github.com/cargo-inspection/internal/constants"
	"github.com/cargo-inspection/internal/logger"
	"github.com/cargo-inspection/internal/models"
	"github.com/cargo-inspection/internal/repository"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// seedFile 种子数据文件格式
type seedFile struct {
	Profiles []seedProfile `yaml:"profiles"`
	Routes   []seedRoute   `yaml:"routes"`
}

type seedProfile struct {
	Username string   `yaml:"username"`
	FullName string   `yaml:"full_name"`
	Email    string   `yaml:"email"`
	Site     string   `yaml:"site"`
	Roles    []string `yaml:"roles"` // checker / merger / loader / inspector
}

func (p seedProfile) toModel() models.Profile {
	profile := models.Profile{
		Username: strings.TrimSpace(p.Username),
		FullName: strings.TrimSpace(p.FullName),
		Email:    strings.TrimSpace(p.Email),
		Site:     constants.NormalizeSite(p.Site),
		IsActive: true,
	}
	if profile.FullName == "" {
		profile.FullName = profile.Username
	}
	for _, role := range p.Roles {
		switch strings.ToLower(strings.TrimSpace(role)) {
		case constants.DirectoryRoleChecker:
			profile.IsChecker = true
		case constants.DirectoryRoleMerger:
			profile.IsMerger = true
		case constants.DirectoryRoleLoader:
			profile.IsLoader = true
		case constants.DirectoryRoleInspector:
			profile.IsInspector = true
		}
	}
	return profile
}

type seedRoute struct {
	RouteNumber  string `yaml:"route_number"`
	RouteName    string `yaml:"route_name"`
	Site         string `yaml:"site"`
	DeliveryDate string `yaml:"delivery_date"`
	Driver       string `yaml:"driver"`
	Helper       string `yaml:"helper"`
}

func (r seedRoute) toModel() models.RouteSchedule {
	return models.RouteSchedule{
		RouteNumber:  strings.TrimSpace(r.RouteNumber),
		RouteName:    strings.TrimSpace(r.RouteName),
		Site:         constants.NormalizeSite(r.Site),
		DeliveryDate: strings.TrimSpace(r.DeliveryDate),
		Driver:       strings.TrimSpace(r.Driver),
		Helper:       strings.TrimSpace(r.Helper),
	}
}

func main() {
	var configPath, seedPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.StringVarP(&seedPath, "file", "f", "seed.yml", "种子数据 YAML 文件")
	pflag.Parse()

	// 连接数据库
	cfg := config.Load(configPath)
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	raw, err := os.ReadFile(seedPath)
	if err != nil {
		stdLog.Fatalf("Failed to read seed file: %v", err)
	}
	var data seedFile
	if err := yaml.Unmarshal(raw, &data); err != nil {
		stdLog.Fatalf("Failed to parse seed file: %v", err)
	}

	ctx := context.Background()
	profiles := repository.NewProfileRepository(models.DB)
	created, skipped := 0, 0
	for i := range data.Profiles {
		profile := data.Profiles[i].toModel()
		if profile.Site == "" || profile.Username == "" {
			logger.Warnw("seed_profile_invalid", "index", i)
			skipped++
			continue
		}
		existing, err := profiles.GetByUsername(ctx, profile.Username, profile.Site)
		if err != nil {
			stdLog.Fatalf("Failed to query profile %s: %v", profile.Username, err)
		}
		if existing != nil {
			skipped++
			continue
		}
		if err := profiles.Create(ctx, &profile); err != nil {
			stdLog.Fatalf("Failed to create profile %s: %v", profile.Username, err)
		}
		created++
	}
	logger.Infow("seed_profiles_done", "created", created, "skipped", skipped)

	routes := repository.NewRouteScheduleRepository(models.DB)
	upserted := 0
	for i := range data.Routes {
		route := data.Routes[i].toModel()
		if route.Site == "" || route.RouteNumber == "" || route.DeliveryDate == "" {
			logger.Warnw("seed_route_invalid", "index", i)
			continue
		}
		if err := routes.Upsert(ctx, &route); err != nil {
			stdLog.Fatalf("Failed to upsert route %s: %v", route.RouteNumber, err)
		}
		upserted++
	}
	logger.Infow("seed_routes_done", "upserted", upserted)
}
