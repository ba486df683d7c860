package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeRulesApplied    = "rules.applied"
	EventTypeUploadCompleted = "upload.completed"
)

type RulesAppliedEvent struct {
	BaseEvent
	UserID       int64 `json:"user_id"`
	ChangedCount int   `json:"changed_count"`
}

func NewRulesAppliedEvent(userID int64, changedCount int) *RulesAppliedEvent {
	return &RulesAppliedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRulesApplied,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":       userID,
				"changed_count": changedCount,
			},
		},
		UserID:       userID,
		ChangedCount: changedCount,
	}
}

type UploadCompletedEvent struct {
	BaseEvent
	UploadID         int64  `json:"upload_id"`
	UserID           int64  `json:"user_id"`
	FileName         string `json:"file_name"`
	TransactionCount int    `json:"transaction_count"`
}

func NewUploadCompletedEvent(uploadID, userID int64, fileName string, transactionCount int) *UploadCompletedEvent {
	return &UploadCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeUploadCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"upload_id":         uploadID,
				"user_id":           userID,
				"file_name":         fileName,
				"transaction_count": transactionCount,
			},
		},
		UploadID:         uploadID,
		UserID:           userID,
		FileName:         fileName,
		TransactionCount: transactionCount,
	}
}
