package handler

import (
	"net/http"

	"payme_gateway/internal/domain/tariff/service"
	"payme_gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

type TariffHandler struct {
	service service.TariffService
}

func NewTariffHandler(s service.TariffService) *TariffHandler {
	return &TariffHandler{service: s}
}

// GetTariffs 获取所有在售套餐
// @Summary 套餐列表
// @Tags Tariff
// @Produce json
// @Router /api/payments/tariffs [get]
func (h *TariffHandler) GetTariffs(c *gin.Context) {
	tariffs, err := h.service.GetTariffs()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "failed to list tariffs")
		return
	}

	data := make([]gin.H, 0, len(tariffs))
	for i := range tariffs {
		t := &tariffs[i]
		data = append(data, gin.H{
			"id":            t.ID,
			"name":          t.Name,
			"count":         t.Count,
			"price":         t.Price,
			"price_per_one": t.PricePerOne(),
		})
	}

	response.Success(c, gin.H{"tariffs": data})
}

type CreateTariffInput struct {
	Name  string  `json:"name" binding:"required"`
	Count int     `json:"count" binding:"required,gte=1"`
	Price float64 `json:"price" binding:"required,gt=0"`
}

// CreateTariff 新建套餐（管理员）
// @Summary 新建套餐
// @Tags Tariff
// @Accept json
// @Produce json
// @Param input body CreateTariffInput true "Tariff Info"
// @Router /api/payments/tariffs [post]
func (h *TariffHandler) CreateTariff(c *gin.Context) {
	var input CreateTariffInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	tariff, err := h.service.CreateTariff(input.Name, input.Count, input.Price)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	response.Success(c, tariff)
}

// DeactivateTariff 下架套餐（管理员）
// @Summary 下架套餐
// @Tags Tariff
// @Router /api/payments/tariffs/{id}/deactivate [post]
func (h *TariffHandler) DeactivateTariff(c *gin.Context) {
	if err := h.service.Deactivate(c.Param("id")); err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "failed to deactivate tariff")
		return
	}
	response.Success(c, nil)
}
