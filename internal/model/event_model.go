package model

import (
	"time"
)

// EventModel 审计事件记录
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	ProjectId  int64     `json:"project_id" gorm:"not null;index:idx_event_project_type"`
	EventType  string    `json:"event_type" gorm:"not null;index:idx_event_project_type"`
	Actor      string    `json:"actor" gorm:"type:varchar(42)"`
	Amount     string    `json:"amount" gorm:"type:varchar(80)"`
	TokenId    string    `json:"token_id" gorm:"type:varchar(80)"`
	Data       string    `json:"data" gorm:"type:text"`
	OccurredAt time.Time `json:"occurred_at" gorm:"not null"`
}

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}
