package payment

import (
	"payme_gateway/internal/domain/payment/handler"
	"payme_gateway/internal/domain/payment/repository"
	"payme_gateway/internal/domain/payment/service"
	tariffRepo "payme_gateway/internal/domain/tariff/repository"
	userRepo "payme_gateway/internal/domain/user/repository"
	"payme_gateway/internal/pkg/config"
	"payme_gateway/internal/pkg/middleware"
	"payme_gateway/internal/pkg/registry"
	"payme_gateway/internal/pkg/worker"

	"github.com/gin-gonic/gin"
)

// PaymentModule 支付模块
type PaymentModule struct{}

func init() {
	registry.Register(&PaymentModule{})
}

func (m *PaymentModule) Name() string {
	return "payment"
}

func (m *PaymentModule) Priority() int {
	// 支付模块依赖用户和套餐模块，优先级较低
	return 20
}

func (m *PaymentModule) Init(ctx *registry.ModuleContext) error {
	cfg := config.GlobalConfig

	// 1. 依赖注入
	pRepo := repository.NewPaymentRepository(ctx.DB)
	uRepo := userRepo.NewUserRepository(ctx.DB)
	tRepo := tariffRepo.NewTariffRepository(ctx.DB)

	// 支付完成后的机器人通知走工作池
	notifier := worker.NewNotifyPool(cfg.Notify.BotWebhookURL, cfg.Notify.Workers, cfg.Notify.QueueSize)
	notifier.Start()

	reconcileService := service.NewReconcileService(pRepo, uRepo, ctx.Redis, notifier, cfg.Payme.MinAmount)
	paymentService := service.NewPaymentService(pRepo, uRepo, tRepo, cfg.Payme.MerchantID, cfg.Payme.CheckoutURL)

	paymeHandler := handler.NewPaymeHandler(reconcileService, cfg.Payme.SecretKey)
	paymentHandler := handler.NewPaymentHandler(paymentService)

	// 2. 路由注册
	setupRoutes(ctx.Router, paymeHandler, paymentHandler)

	return nil
}

func setupRoutes(r *gin.Engine, payme *handler.PaymeHandler, payment *handler.PaymentHandler) {
	// Payme 回调：Basic Auth 在 handler 里按协议校验，不走 JWT
	r.POST("/api/payments/payme/callback", payme.Callback)

	// 机器人侧接口需要鉴权
	g := r.Group("/api/payments")
	g.Use(middleware.RateLimitMiddleware(), middleware.AuthMiddleware())
	{
		g.POST("/payment/create", payment.CreatePayment)
		g.GET("/payment/status/:telegram_id", payment.PaymentStatus)
	}
}
