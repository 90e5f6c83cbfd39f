package model

import (
	"time"
)

// ProjectModel 众筹项目表。金额以 wei 的十进制字符串存储，避免精度丢失。
type ProjectModel struct {
	Id        int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`

	// 众筹信息
	MinContribution string `json:"min_contribution" gorm:"type:varchar(80);not null;default:'0'"`
	GoalAmount      string `json:"goal_amount" gorm:"type:varchar(80);not null"`
	DurationDays    int64  `json:"duration_days" gorm:"not null"`
	TotalRaised     string `json:"total_raised" gorm:"type:varchar(80);not null;default:'0'"`
	TotalRefunded   string `json:"total_refunded" gorm:"type:varchar(80);not null;default:'0'"`
	FundsWithdrawn  bool   `json:"funds_withdrawn" gorm:"not null;default:false"`

	// 时间信息
	Deadline time.Time `json:"deadline" gorm:"not null;index"`

	// 创建者信息
	CreatorAddress string `json:"creator_address" gorm:"type:varchar(42);not null"`
}

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "project"
}
