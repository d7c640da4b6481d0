package handler

import (
	"errors"
	"net/http"
	"strconv"

	"payme_gateway/internal/domain/user/service"
	"payme_gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserHandler 用户处理器
type UserHandler struct {
	service service.UserService
}

// NewUserHandler 创建处理器
func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type CreateUserInput struct {
	TelegramID int64  `json:"telegram_id" binding:"required"`
	FullName   string `json:"full_name"`
	Username   string `json:"username"`
}

// CreateUser 创建或更新机器人用户
// @Summary 创建/更新用户
// @Tags User
// @Accept json
// @Produce json
// @Param input body CreateUserInput true "User Info"
// @Router /api/payments/user/create [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var input CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	user, created, err := h.service.CreateOrUpdate(input.TelegramID, input.FullName, input.Username)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "failed to create user")
		return
	}

	response.Success(c, gin.H{
		"telegram_id": user.TelegramID,
		"balance":     user.Balance,
		"created":     created,
	})
}

// GetBalance 查询用户余额
// @Summary 查询余额
// @Tags User
// @Produce json
// @Router /api/payments/user/{telegram_id}/balance [get]
func (h *UserHandler) GetBalance(c *gin.Context) {
	telegramID, err := strconv.ParseInt(c.Param("telegram_id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "invalid telegram_id")
		return
	}

	user, err := h.service.GetByTelegramID(telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Fail(c, response.ErrUserNotFound, "user not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "failed to query user")
		return
	}

	balance, err := h.service.GetBalance(telegramID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "failed to query balance")
		return
	}

	response.Success(c, gin.H{
		"telegram_id": user.TelegramID,
		"balance":     balance,
		"full_name":   user.FullName,
		"username":    user.Username,
	})
}

type UsePricingInput struct {
	TelegramID int64   `json:"telegram_id" binding:"required"`
	PhoneModel string  `json:"phone_model"`
	Price      float64 `json:"price"`
}

// UsePricing 消费一次估价
// @Summary 消费估价次数
// @Tags User
// @Accept json
// @Produce json
// @Param input body UsePricingInput true "Pricing Info"
// @Router /api/payments/pricing/use [post]
func (h *UserHandler) UsePricing(c *gin.Context) {
	var input UsePricingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	balance, err := h.service.UsePricing(input.TelegramID, input.PhoneModel, input.Price)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.Fail(c, response.ErrUserNotFound, "user not found")
		case errors.Is(err, service.ErrInsufficientBalance):
			response.Fail(c, response.ErrInsufficientBalance, "insufficient balance")
		default:
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "failed to use pricing")
		}
		return
	}

	response.Success(c, gin.H{
		"balance": balance,
	})
}
