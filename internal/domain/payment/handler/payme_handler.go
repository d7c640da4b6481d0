package handler

import (
	"net/http"
	"time"

	"payme_gateway/internal/domain/payment/protocol"
	"payme_gateway/internal/domain/payment/service"
	"payme_gateway/pkg/logger"
	"payme_gateway/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymeHandler Payme Merchant API 回调入口
// 协议约定：鉴权通过后无论业务成败都返回 HTTP 200，结果放信封里
type PaymeHandler struct {
	service   service.ReconcileService
	secretKey string
	collector *metrics.MetricsCollector
}

func NewPaymeHandler(s service.ReconcileService, secretKey string) *PaymeHandler {
	return &PaymeHandler{
		service:   s,
		secretKey: secretKey,
		collector: metrics.GetGlobalCollector(),
	}
}

// Callback Payme 回调分发
// @Summary Payme Merchant API 回调
// @Tags Payment
// @Accept json
// @Produce json
// @Router /api/payments/payme/callback [post]
func (h *PaymeHandler) Callback(c *gin.Context) {
	if !protocol.CheckAuth(c.GetHeader("Authorization"), h.secretKey) {
		if logger.Log != nil {
			logger.Log.Warn("payme callback: unauthorized request", zap.String("ip", c.ClientIP()))
		}
		c.JSON(http.StatusOK, protocol.Response{Error: protocol.ErrInsufficientPrivileges()})
		return
	}

	var req protocol.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, protocol.Response{Error: protocol.ErrParseError()})
		return
	}

	start := time.Now()
	var result interface{}
	var perr *protocol.Error

	switch req.Method {
	case protocol.MethodCheckPerformTransaction:
		result, perr = wrap(h.service.CheckPerformTransaction(req.Params))
	case protocol.MethodCreateTransaction:
		result, perr = wrap(h.service.CreateTransaction(req.Params))
	case protocol.MethodPerformTransaction:
		result, perr = wrap(h.service.PerformTransaction(req.Params))
	case protocol.MethodCancelTransaction:
		result, perr = wrap(h.service.CancelTransaction(req.Params))
	case protocol.MethodCheckTransaction:
		result, perr = wrap(h.service.CheckTransaction(req.Params))
	case protocol.MethodGetStatement:
		result, perr = wrap(h.service.GetStatement(req.Params))
	case protocol.MethodChangePassword:
		result, perr = wrap(h.service.ChangePassword(req.Params))
	default:
		perr = protocol.ErrMethodNotFound()
	}

	code := 0
	if perr != nil {
		code = perr.Code
	}
	h.collector.RecordCallback(req.Method, code, time.Since(start))

	if perr != nil {
		c.JSON(http.StatusOK, protocol.Response{Error: perr, ID: req.ID})
		return
	}
	c.JSON(http.StatusOK, protocol.Response{Result: result, ID: req.ID})
}

// wrap 把带类型的结果收敛为 interface{}，保持 switch 各分支同构
func wrap[T any](res *T, perr *protocol.Error) (interface{}, *protocol.Error) {
	if perr != nil {
		return nil, perr
	}
	return res, nil
}
