package queue

import (
	"encoding/json"
	"fmt"

	"github.com/beanpass/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskAnalyticsRedemption 核销统计任务
	TaskAnalyticsRedemption = constants.TaskAnalyticsRedemption
)

// AnalyticsRedemptionPayload 核销统计任务载荷
type AnalyticsRedemptionPayload struct {
	EventID string `json:"event_id"`
	TokenID uint   `json:"token_id"`
}

// NewAnalyticsRedemptionTask 创建核销统计任务
func NewAnalyticsRedemptionTask(payload AnalyticsRedemptionPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsRedemption, body), nil
}

// ParseAnalyticsRedemptionPayload 解析核销统计任务载荷
func ParseAnalyticsRedemptionPayload(task *asynq.Task) (AnalyticsRedemptionPayload, error) {
	var payload AnalyticsRedemptionPayload
	if task == nil {
		return payload, fmt.Errorf("task is nil")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	if payload.TokenID == 0 {
		return payload, fmt.Errorf("token_id is required")
	}
	return payload, nil
}
