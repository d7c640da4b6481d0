package protocol

import "fmt"

// 错误码。-31050..-31099 是账户相关错误的保留区间
const (
	CodeInsufficientPrivileges = -32504
	CodeMethodNotFound         = -32601
	CodeParseError             = -32700
	CodeInternalError          = -32400

	CodeWrongAmount         = -31001
	CodeTransactionNotFound = -31003
	CodeCannotPerform       = -31008

	CodeFieldMissing          = -31050
	CodeOrderNotFound         = -31051
	CodeAccountMismatch       = -31052
	CodeOrderAlreadyProcessed = -31053
	CodeDuplicateBinding      = -31054
)

// Message 三语错误描述，协议要求 uz/ru/en 三份文案
type Message struct {
	UZ string `json:"uz"`
	RU string `json:"ru"`
	EN string `json:"en"`
}

// Error 协议错误，放进响应的 error 字段
type Error struct {
	Code    int     `json:"code"`
	Message Message `json:"message"`
	Data    string  `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("payme error %d: %s", e.Code, e.Message.EN)
}

// ErrInsufficientPrivileges Basic Auth 校验失败
func ErrInsufficientPrivileges() *Error {
	return &Error{
		Code: CodeInsufficientPrivileges,
		Message: Message{
			UZ: "Ruxsat yo'q",
			RU: "Недостаточно привилегий",
			EN: "Insufficient privileges",
		},
	}
}

// ErrMethodNotFound 未知方法
func ErrMethodNotFound() *Error {
	return &Error{
		Code: CodeMethodNotFound,
		Message: Message{
			UZ: "Metod topilmadi",
			RU: "Метод не найден",
			EN: "Method not found",
		},
	}
}

// ErrParseError 请求体不是合法 JSON
func ErrParseError() *Error {
	return &Error{
		Code: CodeParseError,
		Message: Message{
			UZ: "JSON xato",
			RU: "Ошибка парсинга",
			EN: "Parse error",
		},
	}
}

// ErrInternal 内部错误，不向提供方暴露细节
func ErrInternal() *Error {
	return &Error{
		Code: CodeInternalError,
		Message: Message{
			UZ: "Ichki xatolik",
			RU: "Внутренняя ошибка",
			EN: "Internal error",
		},
	}
}

// ErrWrongAmount 金额与订单不符
func ErrWrongAmount() *Error {
	return &Error{
		Code: CodeWrongAmount,
		Message: Message{
			UZ: "Summa noto'g'ri",
			RU: "Неверная сумма",
			EN: "Wrong amount",
		},
	}
}

// ErrTransactionNotFound 按 Payme 交易 ID 找不到记录
func ErrTransactionNotFound() *Error {
	return &Error{
		Code: CodeTransactionNotFound,
		Message: Message{
			UZ: "Tranzaksiya topilmadi",
			RU: "Транзакция не найдена",
			EN: "Transaction not found",
		},
	}
}

// ErrCannotPerform 交易处于终态，无法执行
func ErrCannotPerform() *Error {
	return &Error{
		Code: CodeCannotPerform,
		Message: Message{
			UZ: "Bajarib bo'lmaydi",
			RU: "Невозможно выполнить",
			EN: "Cannot perform",
		},
	}
}

// ErrFieldMissing 必填字段缺失，data 指明字段名
func ErrFieldMissing(field string) *Error {
	return &Error{
		Code: CodeFieldMissing,
		Message: Message{
			UZ: "Majburiy maydon yo'q",
			RU: "Отсутствует обязательное поле",
			EN: "Required field is missing",
		},
		Data: field,
	}
}

// ErrOrderNotFound 按 order_id 找不到订单
func ErrOrderNotFound() *Error {
	return &Error{
		Code: CodeOrderNotFound,
		Message: Message{
			UZ: "Buyurtma topilmadi",
			RU: "Заказ не найден",
			EN: "Order not found",
		},
		Data: "order_id",
	}
}

// ErrAccountMismatch 账户提示与订单绑定的用户不符
func ErrAccountMismatch() *Error {
	return &Error{
		Code: CodeAccountMismatch,
		Message: Message{
			UZ: "Hisob mos kelmaydi",
			RU: "Счёт не соответствует заказу",
			EN: "Account does not match the order",
		},
		Data: "telegram_id",
	}
}

// ErrOrderAlreadyProcessed 订单已不在初始状态
func ErrOrderAlreadyProcessed() *Error {
	return &Error{
		Code: CodeOrderAlreadyProcessed,
		Message: Message{
			UZ: "Buyurtma allaqachon qayta ishlangan",
			RU: "Заказ уже обработан",
			EN: "Order already processed",
		},
		Data: "order_id",
	}
}

// ErrDuplicateBinding 订单已绑定另一笔 Payme 交易
func ErrDuplicateBinding() *Error {
	return &Error{
		Code: CodeDuplicateBinding,
		Message: Message{
			UZ: "Buyurtma boshqa tranzaksiyaga bog'langan",
			RU: "Заказ привязан к другой транзакции",
			EN: "Order is bound to another transaction",
		},
		Data: "order_id",
	}
}
