package tariff

import (
	"payme_gateway/internal/domain/tariff/handler"
	"payme_gateway/internal/domain/tariff/repository"
	"payme_gateway/internal/domain/tariff/service"
	"payme_gateway/internal/pkg/middleware"
	"payme_gateway/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// TariffModule 套餐模块
type TariffModule struct{}

func init() {
	registry.Register(&TariffModule{})
}

func (m *TariffModule) Name() string {
	return "tariff"
}

func (m *TariffModule) Priority() int {
	return 10
}

func (m *TariffModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	tRepo := repository.NewTariffRepository(ctx.DB)
	tService := service.NewTariffService(tRepo)
	tHandler := handler.NewTariffHandler(tService)

	// 2. 路由注册
	setupRoutes(ctx.Router, tHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.TariffHandler) {
	g := r.Group("/api/payments/tariffs")
	g.Use(middleware.RateLimitMiddleware(), middleware.AuthMiddleware())
	{
		g.GET("", h.GetTariffs)

		// 套餐维护需要管理员权限
		admin := g.Group("")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.POST("", h.CreateTariff)
			admin.POST("/:id/deactivate", h.DeactivateTariff)
		}
	}
}
