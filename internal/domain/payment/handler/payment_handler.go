package handler

import (
	"errors"
	"net/http"
	"strconv"

	"payme_gateway/internal/domain/payment/model"
	"payme_gateway/internal/domain/payment/service"
	"payme_gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// PaymentHandler 机器人侧下单接口
type PaymentHandler struct {
	service service.PaymentService
}

func NewPaymentHandler(s service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: s}
}

type CreatePaymentInput struct {
	TelegramID int64  `json:"telegram_id" binding:"required"`
	TariffID   string `json:"tariff_id" binding:"required"`
}

// CreatePayment 创建订单并返回收银台链接
// @Summary 创建支付订单
// @Tags Payment
// @Accept json
// @Produce json
// @Param input body CreatePaymentInput true "Payment Info"
// @Router /api/payments/payment/create [post]
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var input CreatePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	payment, link, err := h.service.CreatePayment(input.TelegramID, input.TariffID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.Fail(c, response.ErrUserNotFound, "user not found")
		case errors.Is(err, service.ErrTariffNotFound):
			response.Fail(c, response.ErrTariffNotFound, "tariff not found")
		default:
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "failed to create payment")
		}
		return
	}

	response.Success(c, gin.H{
		"payment_id":  payment.ID,
		"order_no":    payment.OrderNo,
		"payment_url": link,
		"amount":      payment.Amount,
		"count":       payment.PricingCount,
	})
}

// PaymentStatus 查询用户最近一笔订单状态
// @Summary 查询支付状态
// @Tags Payment
// @Produce json
// @Router /api/payments/payment/status/{telegram_id} [get]
func (h *PaymentHandler) PaymentStatus(c *gin.Context) {
	telegramID, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "invalid telegram_id")
		return
	}

	payment, err := h.service.LatestStatus(telegramID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.Fail(c, response.ErrUserNotFound, "user not found")
		case errors.Is(err, service.ErrPaymentNotFound):
			response.Fail(c, response.ErrPaymentNotFound, "payment not found")
		default:
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "failed to query payment")
		}
		return
	}

	response.Success(c, gin.H{
		"payment_id":    payment.ID,
		"order_no":      payment.OrderNo,
		"state":         payment.State,
		"state_display": stateDisplay(payment.State),
		"amount":       payment.Amount,
		"count":        payment.PricingCount,
		"created_at":   payment.CreatedAt,
		"performed_at": payment.PerformedAt,
	})
}

// stateDisplay 状态展示文案
func stateDisplay(state int) string {
	switch state {
	case model.StateCreated:
		return "created"
	case model.StateCompleted:
		return "completed"
	case model.StateCancelled:
		return "cancelled"
	case model.StateCancelledAfterComplete:
		return "cancelled_after_complete"
	default:
		return "unknown"
	}
}
