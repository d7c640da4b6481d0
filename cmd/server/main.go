package main

import (
	"payme_gateway/internal/pkg/config"
	"payme_gateway/internal/pkg/middleware"
	"payme_gateway/internal/pkg/registry"
	"payme_gateway/pkg/database"
	"payme_gateway/pkg/logger"

	// 导入业务模块以触发 init() 自注册
	_ "payme_gateway/internal/domain/common"
	_ "payme_gateway/internal/domain/payment"
	_ "payme_gateway/internal/domain/tariff"
	_ "payme_gateway/internal/domain/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 1. 配置与日志
	config.LoadConfig()
	logger.Init(config.GlobalConfig.App.Debug)
	defer logger.Sync()

	// 2. 基础设施
	db := database.InitDatabase()
	rdb := database.InitRedis()

	// 3. HTTP 引擎
	gin.SetMode(config.GlobalConfig.Server.Mode)
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.TraceMiddleware(),
		middleware.LoggerMiddleware(),
		cors.Default(),
	)

	// 4. 初始化业务模块
	ctx := &registry.ModuleContext{
		DB:     db,
		Redis:  rdb,
		Router: r,
	}
	if err := registry.InitModules(ctx); err != nil {
		logger.Log.Fatal("failed to init modules", zap.Error(err))
	}

	// 5. 启动
	port := config.GlobalConfig.Server.Port
	logger.Log.Info("payme gateway starting", zap.String("port", port))
	if err := r.Run(":" + port); err != nil {
		logger.Log.Fatal("server exited", zap.Error(err))
	}
}
