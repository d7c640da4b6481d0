package user

import (
	"payme_gateway/internal/domain/user/handler"
	"payme_gateway/internal/domain/user/repository"
	"payme_gateway/internal/domain/user/service"
	"payme_gateway/internal/pkg/middleware"
	"payme_gateway/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// UserModule 用户模块
type UserModule struct{}

func init() {
	// 自动注册模块
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	// 用户模块优先级最高，payment 模块依赖它
	return 1
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	userRepo := repository.NewUserRepository(ctx.DB)
	userService := service.NewUserService(userRepo, ctx.Redis)
	userHandler := handler.NewUserHandler(userService)

	// 2. 路由注册
	setupRoutes(ctx.Router, userHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.UserHandler) {
	g := r.Group("/api/payments")
	g.Use(middleware.RateLimitMiddleware(), middleware.AuthMiddleware())
	{
		g.POST("/user/create", h.CreateUser)
		g.GET("/user/:telegram_id/balance", h.GetBalance)
		g.POST("/pricing/use", h.UsePricing)
	}
}
