package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"asset-system/internal/controllers"
	"asset-system/internal/repositories"
	"asset-system/internal/services"
	"asset-system/pkg/config"
	"asset-system/pkg/eventbus"
	"asset-system/pkg/middleware"
	"asset-system/pkg/service"
	"asset-system/pkg/websocket"
)

type Loggers struct {
	Main  *zap.Logger
	Auth  *zap.Logger
	Asset *zap.Logger
	Audit *zap.Logger
}

func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client,
	jwtSvc service.JWTService, hub *websocket.Hub, bus *eventbus.Bus,
	loggers *Loggers, cfg *config.Config,
) {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, loggers.Auth)

	// --- РЕПОЗИТОРИИ ---
	assetStore := repositories.NewPostgresAssetStore(dbConn, bus, loggers.Asset, cfg.Audit.DeleteBatchSize)
	logRepo := repositories.NewLogRepository(dbConn)
	auditRepo := repositories.NewAuditRepository(dbConn)
	userRepo := repositories.NewUserRepository(dbConn)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	// --- СЕРВИСЫ ---
	assetService := services.NewAssetService(assetStore, cacheRepo, loggers.Asset)
	searchService := services.NewSearchService(assetStore, loggers.Asset)
	auditService := services.NewAuditService(assetStore, auditRepo, loggers.Audit)
	reportService := services.NewReportService(assetStore, cacheRepo, cfg.Audit.ReportCacheTTL, loggers.Main)
	importService := services.NewImportService(assetStore, loggers.Main)
	logService := services.NewLogService(logRepo)
	authService := services.NewAuthService(userRepo, jwtSvc, loggers.Auth)
	services.NewNotificationService(assetStore, hub, bus, loggers.Main)

	// --- КОНТРОЛЛЕРЫ ---
	assetCtrl := controllers.NewAssetController(assetService, loggers.Asset)
	searchCtrl := controllers.NewSearchController(searchService, loggers.Asset)
	auditCtrl := controllers.NewAuditController(auditService, hub, loggers.Audit)
	reportCtrl := controllers.NewReportController(reportService, loggers.Main)
	importCtrl := controllers.NewImportController(importService, loggers.Main)
	logCtrl := controllers.NewLogController(logService, loggers.Main)
	authCtrl := controllers.NewAuthController(authService, loggers.Auth)
	wsCtrl := controllers.NewWebsocketController(hub, loggers.Main)

	// --- МАРШРУТЫ ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api.POST("/auth/login", authCtrl.Login)
	api.POST("/auth/refresh", authCtrl.Refresh)

	secureGroup := api.Group("", authMW.Auth)

	runAssetRouter(secureGroup, assetCtrl, logCtrl)
	runSearchRouter(secureGroup, searchCtrl)
	runAuditRouter(secureGroup, auditCtrl)
	runReportRouter(secureGroup, reportCtrl)
	runImportRouter(secureGroup, importCtrl)

	secureGroup.GET("/logs", logCtrl.GetLogs)
	secureGroup.GET("/ws", wsCtrl.Serve)

	loggers.Main.Info("InitRouter: Создание маршрутов завершено")
}
