package worker

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"payme_gateway/pkg/logger"

	"go.uber.org/zap"
)

// PaidNotice 支付结果通知，投递给机器人后端的 webhook
type PaidNotice struct {
	TelegramID int64   `json:"telegram_id"`
	OrderNo    string  `json:"order_no"`
	Amount     float64 `json:"amount"`
	Count      int     `json:"count"`
	State      int     `json:"state"`
	Retry      int     `json:"-"` // 重试次数
}

// NotifyPool 通知工作池
// 对账在回调事务内完成，通知机器人属于尽力而为的旁路动作，失败重试后丢弃
type NotifyPool struct {
	taskQueue  chan PaidNotice
	retryQueue chan PaidNotice
	webhookURL string
	client     *http.Client
	workerNum  int
	maxRetry   int
}

func NewNotifyPool(webhookURL string, workerNum, bufferSize int) *NotifyPool {
	return &NotifyPool{
		taskQueue:  make(chan PaidNotice, bufferSize),
		retryQueue: make(chan PaidNotice, bufferSize/2),
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		workerNum:  workerNum,
		maxRetry:   3,
	}
}

func (p *NotifyPool) Start() {
	if p.webhookURL == "" {
		logger.Log.Warn("notify pool disabled: bot webhook url not configured")
		return
	}

	for i := 0; i < p.workerNum; i++ {
		go p.worker(i)
	}
	go p.retryWorker()

	logger.Log.Info("notify pool started", zap.Int("workers", p.workerNum))
}

// Enqueue 投递通知，队列满则丢弃并记录
func (p *NotifyPool) Enqueue(notice PaidNotice) {
	if p == nil || p.webhookURL == "" {
		return
	}

	select {
	case p.taskQueue <- notice:
	default:
		logger.Log.Warn("notify queue full, notice dropped",
			zap.String("order_no", notice.OrderNo),
			zap.Int64("telegram_id", notice.TelegramID))
	}
}

func (p *NotifyPool) worker(id int) {
	for notice := range p.taskQueue {
		if err := p.deliver(notice); err != nil {
			logger.Log.Warn("notify delivery failed",
				zap.Int("worker", id),
				zap.String("order_no", notice.OrderNo),
				zap.Error(err))

			if notice.Retry < p.maxRetry {
				notice.Retry++
				select {
				case p.retryQueue <- notice:
				default:
					logger.Log.Error("retry queue full, notice dropped",
						zap.String("order_no", notice.OrderNo))
				}
			} else {
				logger.Log.Error("notice dropped after max retries",
					zap.String("order_no", notice.OrderNo))
			}
		}
	}
}

// retryWorker 延迟消费重试队列，给机器人后端恢复时间
func (p *NotifyPool) retryWorker() {
	for notice := range p.retryQueue {
		time.Sleep(time.Duration(notice.Retry) * 2 * time.Second)
		select {
		case p.taskQueue <- notice:
		default:
			logger.Log.Error("task queue full, retry notice dropped",
				zap.String("order_no", notice.OrderNo))
		}
	}
}

func (p *NotifyPool) deliver(notice PaidNotice) error {
	body, err := json.Marshal(notice)
	if err != nil {
		return err
	}

	resp, err := p.client.Post(p.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &DeliveryError{Status: resp.StatusCode}
	}
	return nil
}

// DeliveryError webhook 返回非 2xx
type DeliveryError struct {
	Status int
}

func (e *DeliveryError) Error() string {
	return http.StatusText(e.Status)
}
