package protocol

import (
	"encoding/base64"
	"fmt"
	"math"
	"strings"
)

// TiyinToSum tiyin → so'm
func TiyinToSum(tiyin int64) float64 {
	return float64(tiyin) / 100
}

// SumToTiyin so'm → tiyin
func SumToTiyin(sum float64) int64 {
	return int64(math.Round(sum * 100))
}

// CheckoutLink 生成 Payme 收银台链接
// 格式：base64("m=<merchant>;ac.order_id=<orderNo>;ac.telegram_id=<tgID>;a=<tiyin>")
// account 字段会在回调里原样回传，order_id 是对账的关联键
func CheckoutLink(checkoutURL, merchantID, orderNo string, telegramID int64, amountSum float64) string {
	params := []string{
		fmt.Sprintf("m=%s", merchantID),
		fmt.Sprintf("ac.order_id=%s", orderNo),
		fmt.Sprintf("ac.telegram_id=%d", telegramID),
		fmt.Sprintf("a=%d", SumToTiyin(amountSum)),
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(strings.Join(params, ";")))
	return fmt.Sprintf("%s/%s", strings.TrimRight(checkoutURL, "/"), encoded)
}

// CheckAuth 校验 Payme 回调的 Basic Auth
// 期望 Authorization: Basic base64("Paycom:<secret_key>")
func CheckAuth(authHeader, secretKey string) bool {
	if secretKey == "" {
		return false
	}
	if !strings.HasPrefix(authHeader, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(authHeader, "Basic "))
	if err != nil {
		return false
	}

	return string(decoded) == "Paycom:"+secretKey
}
