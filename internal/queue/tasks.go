package queue

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/revisit-loyalty/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPointsExpiry 单个商户积分过期任务
	TaskPointsExpiry = constants.TaskPointsExpiry
)

// PointsExpiryPayload 积分过期任务载荷
type PointsExpiryPayload struct {
	RestaurantID string `json:"restaurant_id"`
}

// NewPointsExpiryTask 创建积分过期任务
func NewPointsExpiryTask(payload PointsExpiryPayload) (*asynq.Task, error) {
	if strings.TrimSpace(payload.RestaurantID) == "" {
		return nil, errors.New("restaurant id is required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPointsExpiry, body), nil
}

// ParsePointsExpiryPayload 解析积分过期任务载荷
func ParsePointsExpiryPayload(task *asynq.Task) (PointsExpiryPayload, error) {
	var payload PointsExpiryPayload
	if task == nil {
		return payload, errors.New("task is nil")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	payload.RestaurantID = strings.TrimSpace(payload.RestaurantID)
	return payload, nil
}
